package normalizers

import "strings"

// PhoneRegionRule maps a digits-only phone number to canonical E.164-like
// form for one region. Rules are heuristics, not validators: a number that
// matches no pattern is still returned in a phone-like shape.
type PhoneRegionRule func(digits string) string

// DefaultRegion is the region applied by NormalizePhone. Overridable at
// startup from configuration.
var DefaultRegion = "au"

var phoneRegions = map[string]PhoneRegionRule{
	"au": australianPhone,
}

// RegisterPhoneRegion adds or replaces the rule set for a region code.
func RegisterPhoneRegion(region string, rule PhoneRegionRule) {
	phoneRegions[strings.ToLower(region)] = rule
}

// SetDefaultRegion selects the region NormalizePhone uses. Unknown regions
// fall back to the bare "+" prefix rule.
func SetDefaultRegion(region string) {
	DefaultRegion = strings.ToLower(region)
}

// NormalizePhoneRegion strips all non-digit characters and applies the named
// region's rules.
func NormalizePhoneRegion(s, region string) string {
	digits := DigitsOnly(s)
	if digits == "" {
		return ""
	}
	if rule, ok := phoneRegions[strings.ToLower(region)]; ok {
		return rule(digits)
	}
	return "+" + digits
}

// australianPhone canonicalizes Australian numbers:
//   - 10 digits starting "0"  -> drop the 0, prefix +61
//   - 11 digits starting "61" -> prefix +
//   - 9 digits starting "4"   -> a mobile missing its leading 0, prefix +61
//   - anything else           -> prefix + verbatim
func australianPhone(digits string) string {
	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		return "+61" + digits[1:]
	case len(digits) == 11 && strings.HasPrefix(digits, "61"):
		return "+" + digits
	case len(digits) == 9 && strings.HasPrefix(digits, "4"):
		return "+61" + digits
	default:
		return "+" + digits
	}
}
