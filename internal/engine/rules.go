package engine

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DefaultMaxSearchSteps bounds a run when no budget is configured.
const DefaultMaxSearchSteps = 200000

// Rules carries the per-run generation configuration, decoded from the
// timetable's generation_rules JSON document.
type Rules struct {
	MaxSearchSteps           int     `mapstructure:"max_search_steps" json:"max_search_steps"`
	SoftWeightPreferredSlot  float64 `mapstructure:"soft_weight_preferred_slot" json:"soft_weight_preferred_slot"`
	SoftWeightPrimaryTeacher float64 `mapstructure:"soft_weight_primary_teacher" json:"soft_weight_primary_teacher"`
	LockExistingEntries      bool    `mapstructure:"lock_existing_entries" json:"lock_existing_entries"`

	// AllowRepeatedSlots relaxes the one-hour-unit-per-distinct-slot policy:
	// a demand may stack further hour-units on a slot it already holds, with
	// the same teacher and room. The default keeps hour-units of one demand
	// on distinct slots.
	AllowRepeatedSlots bool `mapstructure:"allow_repeated_slots" json:"allow_repeated_slots"`
}

// DefaultRules returns the engine defaults applied before any overrides.
func DefaultRules() Rules {
	return Rules{
		MaxSearchSteps:           DefaultMaxSearchSteps,
		SoftWeightPreferredSlot:  1,
		SoftWeightPrimaryTeacher: 1,
	}
}

// DecodeRules layers a generation_rules document over the defaults.
// Unknown keys are ignored; recognised keys must carry compatible types.
func DecodeRules(raw map[string]interface{}) (Rules, error) {
	rules := DefaultRules()
	if len(raw) == 0 {
		return rules, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rules,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return rules, fmt.Errorf("build rules decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return rules, fmt.Errorf("decode generation rules: %w", err)
	}

	if rules.MaxSearchSteps <= 0 {
		rules.MaxSearchSteps = DefaultMaxSearchSteps
	}
	if rules.SoftWeightPreferredSlot < 0 {
		return rules, fmt.Errorf("soft_weight_preferred_slot must not be negative")
	}
	if rules.SoftWeightPrimaryTeacher < 0 {
		return rules, fmt.Errorf("soft_weight_primary_teacher must not be negative")
	}
	return rules, nil
}
