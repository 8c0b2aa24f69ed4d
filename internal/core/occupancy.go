package core

import "time"

// TurnoverWeekday is the designated changeover day: a mid-stay day falling
// on it stays selectable so one stay can end and another begin there.
const TurnoverWeekday = time.Saturday

// DayStatus describes how one calendar day relates to the existing
// bookings. A day can be both ending and starting (back-to-back turnover);
// that combination is never a conflict.
type DayStatus struct {
	IsStarting bool `json:"isStarting"`
	IsEnding   bool `json:"isEnding"`
	IsOngoing  bool `json:"isOngoing"`

	// Booking is the stay that owns the day, preferring an ongoing stay
	// over a starting one, over an ending one.
	Booking *Transaction `json:"-"`
}

// Bookings filters a transaction set down to the Loyer transactions that
// carry booking details.
func Bookings(transactions []Transaction) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if t.Category == Loyer && t.Booking != nil {
			out = append(out, t)
		}
	}
	return out
}

// DayOccupancy computes the occupancy status of one day against the given
// transaction set. Ongoing is strict: start < day < end, so the checkout
// day of one stay and the check-in day of the next both stay "free" ends.
func DayOccupancy(day Date, transactions []Transaction) DayStatus {
	var status DayStatus
	var starting, ending, ongoing *Transaction
	bookings := Bookings(transactions)
	for i := range bookings {
		b := bookings[i].Booking
		switch {
		case day.Equal(b.StartDate):
			status.IsStarting = true
			if starting == nil {
				starting = &bookings[i]
			}
		case day.Equal(b.EndDate):
			status.IsEnding = true
			if ending == nil {
				ending = &bookings[i]
			}
		case b.StartDate.Before(day) && b.EndDate.After(day):
			status.IsOngoing = true
			if ongoing == nil {
				ongoing = &bookings[i]
			}
		}
	}
	switch {
	case ongoing != nil:
		status.Booking = ongoing
	case starting != nil:
		status.Booking = starting
	case ending != nil:
		status.Booking = ending
	}
	return status
}

// CanStartStay reports whether a new booking may start on the given day.
// Strictly mid-stay days are blocked unless they fall on the turnover
// weekday; turnover (checkout == check-in) days are always selectable.
func CanStartStay(day Date, transactions []Transaction) bool {
	status := DayOccupancy(day, transactions)
	if status.IsOngoing && day.Weekday() != TurnoverWeekday {
		return false
	}
	return true
}

// HasConflict reports whether the candidate range [start, end] overlaps an
// existing booking under half-open semantics: a shared boundary day
// (checkout == check-in) is allowed, any day strictly inside both ranges
// is not. Two bookings starting on the same day always conflict.
// excludeID lets an edit ignore its own prior booking.
func HasConflict(start, end Date, transactions []Transaction, excludeID string) bool {
	for _, t := range Bookings(transactions) {
		if excludeID != "" && t.ID == excludeID {
			continue
		}
		b := t.Booking
		if start.Before(b.EndDate) && b.StartDate.Before(end) {
			return true
		}
		if start.Equal(b.StartDate) {
			return true
		}
	}
	return false
}
