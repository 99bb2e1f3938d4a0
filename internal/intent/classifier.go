package intent

import (
	"context"
	"math/rand/v2"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

var classifierTracer = otel.Tracer("crisis/intent-classifier")

// Picker returns an index in [0, n). It must be safe for concurrent use.
type Picker func(n int) int

// Request is a message to classify plus up to three recent user turns.
type Request struct {
	Message         string
	RecentUserTurns []string
}

// Reply is the scripted response chosen for a message.
type Reply struct {
	Category        string        `json:"category"`
	Text            string        `json:"text"`
	EmotionTag      emotion.Label `json:"emotion_tag"`
	TagConfidence   float64       `json:"emotion_confidence"`
	SuggestExercise bool          `json:"suggest_exercise"`
	ExerciseType    string        `json:"exercise_type,omitempty"`
	FollowUpPrompt  string        `json:"follow_up_prompt,omitempty"`
	// TopicStreak counts how many of the most recent user turns, walking
	// backwards, matched the same category.
	TopicStreak   int        `json:"topic_streak"`
	CrisisKeyword bool       `json:"crisis_keyword"`
	Resources     []Resource `json:"resources,omitempty"`
}

// Classifier maps messages onto the static category table.
type Classifier struct {
	logger *logging.Logger
	pick   Picker
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithPicker injects the random source used to choose response templates.
func WithPicker(p Picker) Option {
	return func(c *Classifier) {
		if p != nil {
			c.pick = p
		}
	}
}

// NewClassifier creates a classifier over the built-in table.
func NewClassifier(logger *logging.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Classifier{logger: logger, pick: rand.IntN}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const contextTurns = 3

// Classify picks exactly one category for the message. It never fails: the
// catch-all category closes the table.
func (c *Classifier) Classify(ctx context.Context, req Request) Reply {
	_, span := classifierTracer.Start(ctx, "intent.Classify")
	defer span.End()

	normalized := strings.ToLower(req.Message)
	cat := match(normalized)

	idx := c.pick(len(cat.Responses))
	if idx < 0 || idx >= len(cat.Responses) {
		idx = 0
	}

	reply := Reply{
		Category:        cat.Key,
		Text:            cat.Responses[idx],
		EmotionTag:      cat.EmotionTag,
		TagConfidence:   cat.TagConfidence,
		SuggestExercise: cat.SuggestExercise,
		FollowUpPrompt:  cat.FollowUp,
		TopicStreak:     topicStreak(cat.Key, req.RecentUserTurns),
	}
	if cat.SuggestExercise {
		reply.ExerciseType = cat.ExerciseType
		if reply.ExerciseType == "" {
			reply.ExerciseType = DefaultExerciseType
		}
	}

	if phrase, hit := DetectCrisisLanguage(normalized); hit {
		reply.CrisisKeyword = true
		reply.Resources = CrisisResources()
		span.SetAttributes(attribute.String("intent.crisis_phrase", phrase))
		c.logger.Warn("crisis language detected", "category", cat.Key, "phrase", phrase)
	}

	span.SetAttributes(
		attribute.String("intent.category", cat.Key),
		attribute.Bool("intent.suggest_exercise", reply.SuggestExercise),
	)
	return reply
}

// match scans the table in priority order. The last entry has no patterns
// and always matches.
func match(normalized string) *Category {
	for i := range table {
		cat := &table[i]
		if len(cat.Patterns) == 0 {
			return cat
		}
		for _, p := range cat.Patterns {
			if strings.Contains(normalized, p) {
				return cat
			}
		}
	}
	// validateTable guarantees the loop returns.
	panic(ErrClassificationExhausted)
}

// MatchCategory returns the key of the category a message falls into.
func MatchCategory(message string) string {
	return match(strings.ToLower(message)).Key
}

func topicStreak(key string, recent []string) int {
	if len(recent) > contextTurns {
		recent = recent[len(recent)-contextTurns:]
	}
	streak := 0
	for i := len(recent) - 1; i >= 0; i-- {
		if MatchCategory(recent[i]) != key {
			break
		}
		streak++
	}
	return streak
}
