package enums

import "fmt"

// StoreTier maps to the store_tier enum in Postgres.
type StoreTier string

const (
	StoreTierFree StoreTier = "free"
	StoreTierPro  StoreTier = "pro"
)

var validStoreTiers = []StoreTier{
	StoreTierFree,
	StoreTierPro,
}

// IsValid reports whether the value matches the canonical store tier enum.
func (t StoreTier) IsValid() bool {
	for _, candidate := range validStoreTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStoreTier converts raw input into StoreTier.
func ParseStoreTier(value string) (StoreTier, error) {
	for _, candidate := range validStoreTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store tier %q", value)
}
