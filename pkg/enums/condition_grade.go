package enums

import "fmt"

// ConditionGrade is the physical-condition grading of a card. Together with the
// product id it forms a cart line's identity.
type ConditionGrade string

const (
	ConditionNearMint         ConditionGrade = "NM"
	ConditionLightlyPlayed    ConditionGrade = "LP"
	ConditionModeratelyPlayed ConditionGrade = "MP"
	ConditionHeavilyPlayed    ConditionGrade = "HP"
	ConditionDamaged          ConditionGrade = "DMG"
	ConditionSealed           ConditionGrade = "S"
)

var validConditionGrades = []ConditionGrade{
	ConditionNearMint,
	ConditionLightlyPlayed,
	ConditionModeratelyPlayed,
	ConditionHeavilyPlayed,
	ConditionDamaged,
	ConditionSealed,
}

// String implements fmt.Stringer.
func (c ConditionGrade) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c ConditionGrade) IsValid() bool {
	for _, candidate := range validConditionGrades {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseConditionGrade converts raw input into a ConditionGrade.
func ParseConditionGrade(value string) (ConditionGrade, error) {
	for _, candidate := range validConditionGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid condition grade %q", value)
}
