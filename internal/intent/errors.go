package intent

import (
	"errors"
	"fmt"
)

// ErrClassificationExhausted means no category could match. A valid table
// makes this unreachable; validateTable enforces that at startup.
var ErrClassificationExhausted = errors.New("intent: no category matched")

func validateTable(categories []Category) error {
	if len(categories) == 0 {
		return fmt.Errorf("%w: empty table", ErrClassificationExhausted)
	}
	seen := make(map[string]struct{}, len(categories))
	for i, c := range categories {
		if _, dup := seen[c.Key]; dup {
			return fmt.Errorf("intent: duplicate category %q", c.Key)
		}
		seen[c.Key] = struct{}{}
		if len(c.Responses) == 0 {
			return fmt.Errorf("intent: category %q has no responses", c.Key)
		}
		if !c.EmotionTag.Valid() {
			return fmt.Errorf("intent: category %q has unknown emotion tag %q", c.Key, c.EmotionTag)
		}
		last := i == len(categories)-1
		if last && len(c.Patterns) != 0 {
			return fmt.Errorf("%w: last category %q must be a catch-all", ErrClassificationExhausted, c.Key)
		}
		if !last && len(c.Patterns) == 0 {
			return fmt.Errorf("intent: catch-all category %q must be last", c.Key)
		}
	}
	return nil
}
