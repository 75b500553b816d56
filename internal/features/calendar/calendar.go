// Package calendar holds the static department → shift-template table and the
// fixed-offset time arithmetic used to decide whether a shift is still ahead.
//
// The deployment clock is UTC+3 with no daylight saving. A shift identified by
// (date, hour) is a naive local wall-clock instant; it is converted to UTC by
// subtracting three hours. A Calendar is immutable once built.
package calendar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "shift-exchange-backend/internal/common/errors"
)

const (
	DateLayout = "2006-01-02"
	UTCOffset  = 3 * time.Hour
)

// Location is the fixed deployment zone.
var Location = time.FixedZone("UTC+3", int(UTCOffset/time.Second))

// ShiftTemplate is an allowed (start, end) pair, both "HH:00".
type ShiftTemplate struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Department is one row of the table.
type Department struct {
	Name   string          `json:"name" yaml:"name"`
	Shifts []ShiftTemplate `json:"shifts" yaml:"shifts"`
}

// Slot is a shift identified by calendar date and start hour.
type Slot struct {
	Date string `json:"date" binding:"required,isodate"`
	Hour string `json:"hour" binding:"required,shifthour"`
}

func (s Slot) String() string { return s.Date + " " + s.Hour }

// Less orders slots by (date, hour).
func (s Slot) Less(o Slot) bool {
	if s.Date != o.Date {
		return s.Date < o.Date
	}
	return s.Hour < o.Hour
}

// SortSlots sorts in place by (date, hour).
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Less(slots[j]) })
}

// ParseHour parses an on-the-hour "HH:00" string.
func ParseHour(h string) (int, error) {
	if len(h) != 5 || h[2] != ':' || h[3:] != "00" {
		return 0, fmt.Errorf("hour %q is not on the hour (HH:00)", h)
	}
	n, err := strconv.Atoi(h[:2])
	if err != nil || n < 0 || n > 23 {
		return 0, fmt.Errorf("hour %q out of range", h)
	}
	return n, nil
}

// IsValidHour reports whether h belongs to the enumerated "00:00".."23:00" set.
func IsValidHour(h string) bool {
	_, err := ParseHour(h)
	return err == nil
}

// IsValidDate reports whether d is a YYYY-MM-DD calendar date.
func IsValidDate(d string) bool {
	_, err := time.Parse(DateLayout, d)
	return err == nil
}

// Instant returns the UTC instant a slot starts at.
func (s Slot) Instant() (time.Time, error) {
	day, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s.Date, err)
	}
	hour, err := ParseHour(s.Hour)
	if err != nil {
		return time.Time{}, err
	}
	naive := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	return naive.Add(-UTCOffset), nil
}

// IsFuture reports whether the slot starts strictly after now.
// Malformed slots are never in the future.
func IsFuture(s Slot, now time.Time) bool {
	at, err := s.Instant()
	if err != nil {
		return false
	}
	return at.After(now.UTC())
}

// HasPassed is the complement of IsFuture for well-formed slots: the start
// instant is at or before now.
func HasPassed(s Slot, now time.Time) bool {
	at, err := s.Instant()
	if err != nil {
		return false
	}
	return !at.After(now.UTC())
}

// LocalDate returns now's calendar date in the deployment zone.
func LocalDate(now time.Time) string {
	return now.In(Location).Format(DateLayout)
}

// Calendar is the immutable department table.
type Calendar struct {
	order  []string
	shifts map[string][]ShiftTemplate
}

// New validates departments and builds a Calendar. Order is preserved.
func New(departments []Department) (*Calendar, error) {
	if len(departments) == 0 {
		return nil, fmt.Errorf("calendar: no departments")
	}
	c := &Calendar{shifts: make(map[string][]ShiftTemplate, len(departments))}
	for _, d := range departments {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("calendar: department with empty name")
		}
		if _, dup := c.shifts[name]; dup {
			return nil, fmt.Errorf("calendar: duplicate department %q", name)
		}
		if len(d.Shifts) == 0 {
			return nil, fmt.Errorf("calendar: department %q has no shifts", name)
		}
		shifts := make([]ShiftTemplate, 0, len(d.Shifts))
		for _, s := range d.Shifts {
			if !IsValidHour(s.Start) || !IsValidHour(s.End) {
				return nil, fmt.Errorf("calendar: department %q: bad shift %s-%s", name, s.Start, s.End)
			}
			shifts = append(shifts, s)
		}
		c.order = append(c.order, name)
		c.shifts[name] = shifts
	}
	return c, nil
}

// MustNew is New that panics, for compiled-in tables.
func MustNew(departments []Department) *Calendar {
	c, err := New(departments)
	if err != nil {
		panic(err)
	}
	return c
}

// Departments returns department names in table order.
func (c *Calendar) Departments() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Calendar) IsKnownDepartment(name string) bool {
	_, ok := c.shifts[name]
	return ok
}

// Templates returns a copy of the department's allowed shifts.
func (c *Calendar) Templates(department string) ([]ShiftTemplate, error) {
	shifts, ok := c.shifts[department]
	if !ok {
		return nil, apperrors.NewUnknownDepartmentError(department)
	}
	out := make([]ShiftTemplate, len(shifts))
	copy(out, shifts)
	return out, nil
}

// AllowsStart reports whether hour starts one of the department's shifts.
func (c *Calendar) AllowsStart(department, hour string) bool {
	for _, s := range c.shifts[department] {
		if s.Start == hour {
			return true
		}
	}
	return false
}

// ValidateSlot checks that slot is well formed, starts one of the
// department's shifts and lies strictly in the future.
func (c *Calendar) ValidateSlot(department string, s Slot, now time.Time) error {
	if !c.IsKnownDepartment(department) {
		return apperrors.NewUnknownDepartmentError(department)
	}
	if !IsValidDate(s.Date) {
		return apperrors.NewInvalidSlotError(s.Date, s.Hour, "date must be YYYY-MM-DD")
	}
	if !IsValidHour(s.Hour) {
		return apperrors.NewInvalidSlotError(s.Date, s.Hour, "hour must be HH:00")
	}
	if !c.AllowsStart(department, s.Hour) {
		return apperrors.NewInvalidSlotError(s.Date, s.Hour, "no shift of this department starts at this hour")
	}
	if !IsFuture(s, now) {
		return apperrors.NewSlotInPastError(s.Date, s.Hour)
	}
	return nil
}
