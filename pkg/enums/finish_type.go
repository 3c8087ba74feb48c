package enums

import "fmt"

// FinishType enumerates card printing finishes.
type FinishType string

const (
	FinishNormal      FinishType = "normal"
	FinishFoil        FinishType = "foil"
	FinishReverseFoil FinishType = "reverse_foil"
	FinishHolo        FinishType = "holo"
	FinishEtched      FinishType = "etched"
)

var validFinishTypes = []FinishType{
	FinishNormal,
	FinishFoil,
	FinishReverseFoil,
	FinishHolo,
	FinishEtched,
}

// String implements fmt.Stringer.
func (f FinishType) String() string {
	return string(f)
}

// IsValid reports whether the value is known.
func (f FinishType) IsValid() bool {
	for _, candidate := range validFinishTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFinishType converts raw input into a FinishType.
func ParseFinishType(value string) (FinishType, error) {
	for _, candidate := range validFinishTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid finish type %q", value)
}
