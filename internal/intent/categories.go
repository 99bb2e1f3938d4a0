package intent

import "github.com/wolfman30/crisis-companion/internal/emotion"

// Category keys in priority order.
const (
	KeyGreeting     = "greeting"
	KeyHappy        = "happy"
	KeySad          = "sad"
	KeyAnxious      = "anxious"
	KeyAngry        = "angry"
	KeyLonely       = "lonely"
	KeySleep        = "sleep"
	KeyWork         = "work"
	KeyRelationship = "relationship"
	KeySelfCare     = "selfcare"
	KeyExercise     = "exercise"
	KeyGratitude    = "gratitude"
	KeyDefault      = "default"
)

// DefaultExerciseType is offered when a category suggests an exercise
// without naming one.
const DefaultExerciseType = "breathing"

// Category is one support bucket. Patterns are lower-case substrings.
type Category struct {
	Key             string
	Patterns        []string
	Responses       []string
	EmotionTag      emotion.Label
	TagConfidence   float64
	SuggestExercise bool
	ExerciseType    string
	FollowUp        string
}

// table is ordered; the first matching category wins and default must stay last.
var table = []Category{
	{
		Key:      KeyGreeting,
		Patterns: []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "howdy"},
		Responses: []string{
			"Hello! I'm your mental health companion. How are you feeling today?",
			"Hi there! I'm here to listen and support you. What's on your mind?",
			"Hello! It's good to connect with you. How has your day been?",
			"Hey! I'm glad you're here. How are you doing today?",
		},
		EmotionTag:    emotion.Neutral,
		TagConfidence: 0.8,
	},
	{
		Key:      KeyHappy,
		Patterns: []string{"happy", "good", "great", "awesome", "excited", "joy", "amazing", "wonderful", "fantastic", "excellent", "perfect", "bliss", "ecstatic"},
		Responses: []string{
			"That's wonderful to hear! What's making you feel so positive today?",
			"I'm genuinely happy to hear that! Celebrating the good moments is important. Want to share what brought you joy?",
			"It's beautiful to hear you're feeling good! These positive moments are worth cherishing.",
			"Your happiness is contagious! Tell me more about what's going well for you.",
			"That's fantastic! Positive emotions like these are great for your mental health. What's been the highlight?",
		},
		EmotionTag:    emotion.Happy,
		TagConfidence: 0.9,
		FollowUp:      "Would you like to explore ways to maintain this positive mindset?",
	},
	{
		Key:      KeySad,
		Patterns: []string{"sad", "depressed", "unhappy", "miserable", "hopeless", "down", "blue", "gloomy", "heartbroken", "tearful", "crying"},
		Responses: []string{
			"I'm really sorry you're feeling this way. It takes courage to acknowledge sadness. Would you like to talk about what's bothering you?",
			"I hear the pain in your words. Remember that these feelings, while heavy, are temporary. You're not alone in this.",
			"Thank you for sharing how you feel. Sadness can be overwhelming, but talking about it can help lighten the load.",
			"I'm here with you in this moment. It's okay to not be okay. Would a calming exercise help right now?",
			"Your feelings are completely valid. Sometimes just sitting with our sadness and acknowledging it can be the first step toward healing.",
		},
		EmotionTag:      emotion.Sad,
		TagConfidence:   0.85,
		SuggestExercise: true,
		ExerciseType:    "breathing",
	},
	{
		Key:      KeyAnxious,
		Patterns: []string{"anxious", "anxiety", "nervous", "worried", "stress", "stressed", "overwhelmed", "panic", "scared", "afraid", "fear", "worries"},
		Responses: []string{
			"Anxiety can feel incredibly overwhelming. Let's take a moment to breathe together. Remember, this feeling will pass.",
			"I understand that anxious feelings can be really challenging. You're safe here, and we can work through this together.",
			"It sounds like you're carrying a lot right now. Would you like to try a grounding exercise to help calm your nervous system?",
			"Anxiety often makes everything feel bigger than it is. Let's break it down together. What specifically is worrying you?",
			"I'm here with you. Let's focus on your breathing: in for 4 seconds, hold for 4, out for 4. You've got this.",
		},
		EmotionTag:      emotion.Fearful,
		TagConfidence:   0.8,
		SuggestExercise: true,
		ExerciseType:    "grounding",
	},
	{
		Key:      KeyAngry,
		Patterns: []string{"angry", "mad", "furious", "frustrated", "annoyed", "irritated", "pissed", "rage", "livid", "fuming"},
		Responses: []string{
			"I can feel the frustration in your words. Anger is a natural emotion. It's telling you that something isn't right.",
			"It sounds like you're really upset right now. Would you like to try some techniques to help process these intense feelings?",
			"Anger can be overwhelming. Let's take a moment to breathe and create some space between you and the emotion.",
			"I understand you're feeling angry. Sometimes identifying what specifically triggered this can help us address it constructively.",
			"Your anger is valid. Let's work together to find healthy ways to express and process these feelings.",
		},
		EmotionTag:      emotion.Angry,
		TagConfidence:   0.75,
		SuggestExercise: true,
		ExerciseType:    "anger_management",
	},
	{
		Key:      KeyLonely,
		Patterns: []string{"lonely", "alone", "isolated", "no friends", "by myself", "no one cares", "abandoned"},
		Responses: []string{
			"Feeling lonely can be incredibly painful. I want you to know that you're not alone right now. I'm here with you.",
			"Loneliness is one of the hardest emotions to sit with. Thank you for reaching out. That takes real strength.",
			"I hear how isolated you're feeling. Human connection is so important. Would you like to talk about what kind of connections you're missing?",
			"You're brave for sharing this. Loneliness can make us feel invisible, but I see you and I'm listening.",
			"These feelings of loneliness are valid and real. Sometimes just having someone to witness our experience can help.",
		},
		EmotionTag:    emotion.Sad,
		TagConfidence: 0.8,
	},
	{
		Key:      KeySleep,
		Patterns: []string{"sleep", "insomnia", "tired", "exhausted", "can't sleep", "wake up", "night", "bed"},
		Responses: []string{
			"Sleep struggles can really impact everything else. Have you noticed any patterns in your sleep difficulties?",
			"Not sleeping well is incredibly frustrating. Good sleep is so important for mental health. What's your bedtime routine like?",
			"Sleep issues often connect with our daytime stress. Would you like to try some relaxation techniques that might help?",
			"I understand how exhausting sleep problems can be. Sometimes establishing a calming pre-sleep ritual can make a difference.",
			"Poor sleep can really affect our mood and coping abilities. Let's explore what might be interfering with your rest.",
		},
		EmotionTag:      emotion.Fearful,
		TagConfidence:   0.7,
		SuggestExercise: true,
		ExerciseType:    "relaxation",
	},
	{
		Key:      KeyWork,
		Patterns: []string{"work", "job", "school", "college", "university", "exam", "test", "deadline", "project", "assignment", "boss", "teacher"},
		Responses: []string{
			"Work or school pressure can be really intense. What specifically is feeling overwhelming right now?",
			"Academic and professional stress is so common. Remember to break big tasks into smaller, manageable steps.",
			"The pressure you're describing sounds challenging. Have you been able to take any breaks for yourself?",
			"Stress from work or school can really build up. What's one small thing you could do to reduce the pressure?",
			"I hear how stressed you are about this. Sometimes just talking through the challenges can help them feel more manageable.",
		},
		EmotionTag:      emotion.Fearful,
		TagConfidence:   0.75,
		SuggestExercise: true,
		ExerciseType:    "stress_relief",
	},
	{
		Key:      KeyRelationship,
		Patterns: []string{"friend", "family", "partner", "boyfriend", "girlfriend", "wife", "husband", "parents", "mother", "father", "sibling", "argument", "fight"},
		Responses: []string{
			"Relationship challenges can be really painful. Would you like to talk about what's happening?",
			"Navigating relationships is complex. What specifically is feeling difficult right now?",
			"Relationship stress affects us deeply. Remember that your feelings in this situation are valid.",
			"It sounds like there's some tension in this relationship. What would a positive resolution look like for you?",
			"Relationship dynamics can be complicated. Sometimes setting boundaries can help maintain your wellbeing.",
		},
		EmotionTag:    emotion.Sad,
		TagConfidence: 0.7,
	},
	{
		Key:      KeySelfCare,
		Patterns: []string{"self-care", "cope", "coping", "manage", "handle", "deal with", "self help", "therapy"},
		Responses: []string{
			"Self-care is so important for mental health. What strategies have you tried that help you feel better?",
			"Finding healthy coping mechanisms is a journey. What activities usually help you feel more grounded?",
			"I'm glad you're thinking about self-care. Even small, consistent practices can make a big difference over time.",
			"Developing coping skills takes practice. What's one small thing you could do today to support your wellbeing?",
			"Self-care looks different for everyone. What does taking care of yourself mean to you right now?",
		},
		EmotionTag:      emotion.Neutral,
		TagConfidence:   0.8,
		SuggestExercise: true,
		ExerciseType:    "mindfulness",
	},
	{
		Key:      KeyExercise,
		Patterns: []string{"exercise", "breathing", "meditation", "yoga", "relax", "calm down", "grounding"},
		Responses: []string{
			"I'd be happy to guide you through an exercise! Would you prefer breathing, grounding, or relaxation techniques?",
			"Exercises can be really helpful for managing difficult emotions. What type of support are you looking for right now?",
			"Mindfulness practices can create space between you and intense emotions. Shall we try one together?",
			"I have several exercises that might help. Would you like something for anxiety, stress relief, or general relaxation?",
			"Practices like breathing and grounding can help regulate your nervous system. What would feel most supportive right now?",
		},
		EmotionTag:      emotion.Neutral,
		TagConfidence:   0.8,
		SuggestExercise: true,
	},
	{
		Key:      KeyGratitude,
		Patterns: []string{"grateful", "thankful", "appreciate", "blessed", "lucky", "fortunate"},
		Responses: []string{
			"Practicing gratitude is such a powerful tool for mental wellbeing! What are you feeling thankful for today?",
			"Focusing on what we're grateful for can really shift our perspective. Would you like to explore this more?",
			"Gratitude practices have been shown to improve mood and resilience. What's one small thing you appreciate right now?",
			"Noticing what we're thankful for, even in difficult times, takes real strength. What's bringing you comfort today?",
			"Gratitude can be such an anchor during challenging times. What moments of goodness have you experienced recently?",
		},
		EmotionTag:    emotion.Happy,
		TagConfidence: 0.8,
	},
	{
		Key: KeyDefault,
		Responses: []string{
			"Thank you for sharing that with me. I'm here to listen and support you. Could you tell me more about what you're experiencing?",
			"I appreciate you opening up. How has this been affecting your daily life?",
			"Thank you for trusting me with this. What would be most helpful for you right now: listening, practical suggestions, or coping strategies?",
			"I'm listening carefully. What emotions are coming up for you as you share this?",
			"I hear what you're saying. Would you like to explore this further, or would you prefer to try a calming exercise?",
			"Thank you for being open with me. What aspect of this situation feels most challenging right now?",
			"I'm here with you in this. What would support look like for you in this moment?",
			"I appreciate you sharing this. How long have you been dealing with these feelings?",
			"Thank you for telling me about this. What's one small thing that might help you feel even slightly better?",
			"I'm listening. What would you like to focus on right now: understanding these feelings or finding ways to cope with them?",
		},
		EmotionTag:    emotion.Neutral,
		TagConfidence: 0.6,
	},
}

func init() {
	if err := validateTable(table); err != nil {
		panic(err)
	}
}

// Categories returns a copy of the ordered category table.
func Categories() []Category {
	out := make([]Category, len(table))
	copy(out, table)
	return out
}

// Lookup returns the category with the given key.
func Lookup(key string) (Category, bool) {
	for _, c := range table {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}
