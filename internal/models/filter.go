package models

// QueryMode selects which parcels a caller may see.
type QueryMode int

const (
	QueryAll        QueryMode = 0
	QueryAsSender   QueryMode = 1
	QueryAsReceiver QueryMode = 2
)

// Valid reports whether the mode is one of the known modes.
func (m QueryMode) Valid() bool {
	return m == QueryAll || m == QueryAsSender || m == QueryAsReceiver
}

// ParcelFilter is a sparse set of equality conditions. A nil field imposes no
// constraint.
type ParcelFilter struct {
	Mode           QueryMode `json:"type"`
	ID             *int64    `json:"id,omitempty"`
	SendingYear    *int      `json:"sendingTime_Year,omitempty"`
	SendingMonth   *int      `json:"sendingTime_Month,omitempty"`
	SendingDay     *int      `json:"sendingTime_Day,omitempty"`
	ReceivingYear  *int      `json:"receivingTime_Year,omitempty"`
	ReceivingMonth *int      `json:"receivingTime_Month,omitempty"`
	ReceivingDay   *int      `json:"receivingTime_Day,omitempty"`
	SrcName        *string   `json:"srcName,omitempty"`
	DstName        *string   `json:"dstName,omitempty"`
}

// Match evaluates the conjunction of every supplied condition against p.
func (f ParcelFilter) Match(p Parcel) bool {
	if f.ID != nil && *f.ID != p.ID {
		return false
	}
	if !matchInt(f.SendingYear, p.SendingDate.Year) ||
		!matchInt(f.SendingMonth, p.SendingDate.Month) ||
		!matchInt(f.SendingDay, p.SendingDate.Day) {
		return false
	}
	if f.ReceivingYear != nil || f.ReceivingMonth != nil || f.ReceivingDay != nil {
		if p.ReceivingDate.IsZero() {
			return false
		}
		if !matchInt(f.ReceivingYear, p.ReceivingDate.Year) ||
			!matchInt(f.ReceivingMonth, p.ReceivingDate.Month) ||
			!matchInt(f.ReceivingDay, p.ReceivingDate.Day) {
			return false
		}
	}
	if f.SrcName != nil && *f.SrcName != p.SrcName {
		return false
	}
	if f.DstName != nil && *f.DstName != p.DstName {
		return false
	}
	return true
}

func matchInt(want *int, got int) bool {
	return want == nil || *want == got
}

// Ptr returns a pointer to v, for building filters.
func Ptr[T any](v T) *T {
	return &v
}
