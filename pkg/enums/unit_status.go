package enums

import "fmt"

// UnitStatus is the cached lifecycle state of a serialized inventory unit.
// The reservation ledger is the source of truth; available/rented/cleaning are
// projections recomputed by the status projection job, while damaged/retired
// are set manually and never overwritten by the projection.
type UnitStatus string

const (
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusRented    UnitStatus = "rented"
	UnitStatusCleaning  UnitStatus = "cleaning"
	UnitStatusDamaged   UnitStatus = "damaged"
	UnitStatusRetired   UnitStatus = "retired"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusAvailable,
	UnitStatusRented,
	UnitStatusCleaning,
	UnitStatusDamaged,
	UnitStatusRetired,
}

// String implements fmt.Stringer.
func (s UnitStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UnitStatus.
func (s UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rentable reports whether units in this state may ever be allocated.
// Damaged and retired units are excluded regardless of reservations.
func (s UnitStatus) Rentable() bool {
	switch s {
	case UnitStatusDamaged, UnitStatusRetired:
		return false
	}
	return true
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}
