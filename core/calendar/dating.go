package calendar

// DatingType describes how firmly a series is anchored in calendar time.
type DatingType string

// Dating types.
const (
	// DatingAbsolute is a series fixed to calendar years.
	DatingAbsolute DatingType = "absolute"
	// DatingRelative is a floating series numbered from an arbitrary origin.
	DatingRelative DatingType = "relative"
	// DatingUncertain is a calendar-dated series whose placement is approximate.
	DatingUncertain DatingType = "uncertain"
)

// Prefixes used when formatting non-absolute years.
const (
	RelativePrefix  = "r."
	UncertainPrefix = "c."
)

// IsValid reports whether t is a known dating type.
func (t DatingType) IsValid() bool {
	switch t {
	case DatingAbsolute, DatingRelative, DatingUncertain:
		return true
	}
	return false
}
