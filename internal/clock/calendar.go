// Package clock keeps the logistics calendar that stamps parcel dates.
package clock

import (
	"log"
	"sync"
	"time"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/models"
)

// ErrInvalidDays indicates a non-positive advance.
var ErrInvalidDays = apperrors.New(apperrors.CodeInvalidDays, "days to advance must be positive")

// Calendar starts at a given day and only moves forward.
type Calendar struct {
	mu    sync.RWMutex
	today models.Date
}

// NewCalendar starts the calendar on the local day of now.
func NewCalendar(now time.Time) *Calendar {
	return &Calendar{today: models.DateOf(now)}
}

// System starts the calendar on today's local date.
func System() *Calendar {
	c := NewCalendar(time.Now())
	log.Printf("logistics date is %s", c.Today())
	return c
}

// Today returns the current logistics date.
func (c *Calendar) Today() models.Date {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.today
}

// AddDays moves the calendar forward by days and returns the new date.
func (c *Calendar) AddDays(days int) (models.Date, error) {
	if days <= 0 {
		return models.Date{}, ErrInvalidDays
	}
	c.mu.Lock()
	c.today = c.today.AddDays(days)
	today := c.today
	c.mu.Unlock()

	log.Printf("logistics date advanced by %d days to %s", days, today)
	return today, nil
}
