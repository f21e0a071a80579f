package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlatRate is the cost charged for every parcel.
const FlatRate int64 = 15

// ParcelState is the lifecycle state of a parcel.
type ParcelState int

const (
	StatePending  ParcelState = 0
	StateReceived ParcelState = 1
)

// String returns the state name shown by the shell.
func (s ParcelState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateReceived:
		return "RECEIVED"
	default:
		return "UNKNOWN"
	}
}

// Date is a calendar day without a time of day. The zero Date means unset.
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateOf returns the calendar day of t in its own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Valid reports whether the date names a real calendar day.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return DateOf(d.Time()) == d
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) String() string {
	if d.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Parcel represents a shipped item moving between two accounts.
type Parcel struct {
	ID            int64
	Cost          int64
	State         ParcelState
	SendingDate   Date
	ReceivingDate Date
	SrcName       string
	DstName       string
	Description   string
}

type parcelWire struct {
	ID             int64       `json:"id"`
	Cost           int64       `json:"cost"`
	State          ParcelState `json:"state"`
	SendingYear    int         `json:"sendingTime_Year"`
	SendingMonth   int         `json:"sendingTime_Month"`
	SendingDay     int         `json:"sendingTime_Day"`
	ReceivingYear  int         `json:"receivingTime_Year"`
	ReceivingMonth int         `json:"receivingTime_Month"`
	ReceivingDay   int         `json:"receivingTime_Day"`
	SrcName        string      `json:"srcName"`
	DstName        string      `json:"dstName"`
	Description    string      `json:"description"`
}

// MarshalJSON encodes the flat parcel record shape.
func (p Parcel) MarshalJSON() ([]byte, error) {
	return json.Marshal(parcelWire{
		ID:             p.ID,
		Cost:           p.Cost,
		State:          p.State,
		SendingYear:    p.SendingDate.Year,
		SendingMonth:   p.SendingDate.Month,
		SendingDay:     p.SendingDate.Day,
		ReceivingYear:  p.ReceivingDate.Year,
		ReceivingMonth: p.ReceivingDate.Month,
		ReceivingDay:   p.ReceivingDate.Day,
		SrcName:        p.SrcName,
		DstName:        p.DstName,
		Description:    p.Description,
	})
}

// UnmarshalJSON decodes the flat parcel record shape.
func (p *Parcel) UnmarshalJSON(data []byte) error {
	var w parcelWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Parcel{
		ID:            w.ID,
		Cost:          w.Cost,
		State:         w.State,
		SendingDate:   Date{Year: w.SendingYear, Month: w.SendingMonth, Day: w.SendingDay},
		ReceivingDate: Date{Year: w.ReceivingYear, Month: w.ReceivingMonth, Day: w.ReceivingDay},
		SrcName:       w.SrcName,
		DstName:       w.DstName,
		Description:   w.Description,
	}
	return nil
}
