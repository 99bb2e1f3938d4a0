package intent

import "strings"

// crisisPhrases are lower-case substrings that signal possible self-harm.
var crisisPhrases = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end it all",
	"want to die",
	"hurt myself",
	"self harm",
	"self-harm",
	"no reason to live",
}

// Resource is a crisis hotline or service.
type Resource struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Notes   string `json:"notes,omitempty"`
}

var crisisResources = []Resource{
	{Name: "988 Suicide & Crisis Lifeline", Contact: "Call or text 988", Notes: "24/7, free and confidential"},
	{Name: "Crisis Text Line", Contact: "Text HOME to 741741"},
	{Name: "Emergency Services", Contact: "911"},
	{Name: "Trevor Project (LGBTQ+)", Contact: "1-866-488-7386"},
	{Name: "Veterans Crisis Line", Contact: "Dial 988, press 1"},
	{Name: "Disaster Distress Helpline", Contact: "1-800-985-5990"},
}

// CrisisResources returns the hotline list.
func CrisisResources() []Resource {
	out := make([]Resource, len(crisisResources))
	copy(out, crisisResources)
	return out
}

// DetectCrisisLanguage reports the first crisis phrase found in text.
func DetectCrisisLanguage(text string) (string, bool) {
	normalized := strings.ToLower(text)
	for _, phrase := range crisisPhrases {
		if strings.Contains(normalized, phrase) {
			return phrase, true
		}
	}
	return "", false
}
