package exercise

import (
	"fmt"
	"sort"
	"strings"
)

// Exercise is a guided coping routine.
type Exercise struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Instructions    []string `json:"instructions"`
	DurationMinutes int      `json:"duration_minutes"`
	Benefits        []string `json:"benefits"`
}

// Catalog IDs.
const (
	Breathing478 = "478"
	BoxBreathing = "box"
	Grounding    = "grounding"
)

var catalog = map[string]Exercise{
	Breathing478: {
		ID:          Breathing478,
		Name:        "4-7-8 Breathing",
		Description: "Calming technique for stress and anxiety relief",
		Instructions: []string{
			"Find a comfortable seated position with your back straight",
			"Place the tip of your tongue against the roof of your mouth, just behind your front teeth",
			"Exhale completely through your mouth, making a whoosh sound",
			"Close your mouth and inhale quietly through your nose for 4 seconds",
			"Hold your breath for 7 seconds",
			"Exhale completely through your mouth for 8 seconds, making a whoosh sound",
			"Repeat this cycle 3-4 times",
			"Notice how your body begins to relax with each breath",
		},
		DurationMinutes: 3,
		Benefits:        []string{"Reduces anxiety", "Helps with sleep", "Calms the nervous system", "Promotes relaxation"},
	},
	BoxBreathing: {
		ID:          BoxBreathing,
		Name:        "Box Breathing",
		Description: "Steady four-count breathing for focus and calm under pressure",
		Instructions: []string{
			"Sit upright in a comfortable position with your hands resting on your lap",
			"Slowly exhale all the air from your lungs",
			"Inhale through your nose for 4 seconds, filling your lungs completely",
			"Hold your breath for 4 seconds",
			"Exhale through your mouth for 4 seconds, emptying your lungs completely",
			"Hold at the bottom for 4 seconds before your next inhale",
			"Repeat 5-10 times",
			"Focus on making each part of the breath equal in duration",
		},
		DurationMinutes: 5,
		Benefits:        []string{"Improves focus", "Reduces stress", "Increases alertness", "Regulates nervous system"},
	},
	Grounding: {
		ID:          Grounding,
		Name:        "5-4-3-2-1 Grounding Exercise",
		Description: "Technique to bring awareness to the present moment",
		Instructions: []string{
			"Take three deep breaths to center yourself",
			"Name 5 things you can see around you",
			"Name 4 things you can touch or feel",
			"Name 3 things you can hear",
			"Name 2 things you can smell",
			"Name 1 thing you can taste",
			"Take three more deep breaths",
			"Notice how you feel more present and grounded",
		},
		DurationMinutes: 3,
		Benefits:        []string{"Reduces anxiety", "Brings present-moment awareness", "Helps with panic attacks", "Grounds in reality"},
	},
}

// suggestionTypes maps the exercise types attached to intent categories onto
// catalog entries.
var suggestionTypes = map[string]string{
	"breathing":        Breathing478,
	"relaxation":       Breathing478,
	"grounding":        Grounding,
	"mindfulness":      Grounding,
	"anger_management": BoxBreathing,
	"stress_relief":    BoxBreathing,
}

// Lookup resolves a catalog ID or a suggested exercise type.
func Lookup(kind string) (Exercise, error) {
	key := strings.ToLower(strings.TrimSpace(kind))
	if mapped, ok := suggestionTypes[key]; ok {
		key = mapped
	}
	ex, ok := catalog[key]
	if !ok {
		return Exercise{}, fmt.Errorf("%w: %q", ErrUnknown, kind)
	}
	return ex, nil
}

// All returns every exercise ordered by ID.
func All() []Exercise {
	out := make([]Exercise, 0, len(catalog))
	for _, ex := range catalog {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Intro is the assistant line announcing an exercise.
func (e Exercise) Intro() string {
	return fmt.Sprintf("Let's try %s together. It takes about %d minutes. %s.", e.Name, e.DurationMinutes, e.Instructions[0])
}
