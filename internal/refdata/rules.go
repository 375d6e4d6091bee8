package refdata

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Known conversion rule types.
const (
	RuleLDMConversion   = "ldm_conversion"
	RuleMinPalletWeight = "min_pallet_weight"
)

// LDMConversion converts loading metres into a minimum chargeable weight.
type LDMConversion struct {
	LDMToKg float64 `json:"ldm_to_kg" yaml:"ldm_to_kg"`
}

// MinPalletWeight enforces a minimum weight per pallet.
type MinPalletWeight struct {
	MinKgPerPallet float64 `json:"min_kg_per_pallet" yaml:"min_kg_per_pallet"`
}

// ConversionRules is a carrier's rule set. Each known rule type has a typed
// parameter struct; a nil field means the rule is not configured. Rule types
// this version does not know about are kept by name in Unknown and otherwise
// ignored.
type ConversionRules struct {
	LDMConversion   *LDMConversion   `json:"ldm_conversion,omitempty" yaml:"ldm_conversion,omitempty"`
	MinPalletWeight *MinPalletWeight `json:"min_pallet_weight,omitempty" yaml:"min_pallet_weight,omitempty"`
	Unknown         []string         `json:"-" yaml:"-"`
}

// Empty reports whether no known rule is configured.
func (c ConversionRules) Empty() bool {
	return c.LDMConversion == nil && c.MinPalletWeight == nil
}

// UnmarshalJSON decodes the rule_type → parameters object stored per carrier.
func (c *ConversionRules) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("conversion rules: %w", err)
	}
	*c = ConversionRules{}
	for kind, params := range raw {
		switch kind {
		case RuleLDMConversion:
			var p LDMConversion
			if err := json.Unmarshal(params, &p); err != nil {
				return fmt.Errorf("conversion rules: %s: %w", kind, err)
			}
			c.LDMConversion = &p
		case RuleMinPalletWeight:
			var p MinPalletWeight
			if err := json.Unmarshal(params, &p); err != nil {
				return fmt.Errorf("conversion rules: %s: %w", kind, err)
			}
			c.MinPalletWeight = &p
		default:
			c.Unknown = append(c.Unknown, kind)
		}
	}
	sort.Strings(c.Unknown)
	return nil
}
