package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Revenue TransactionType = "REVENUE"
	Expense TransactionType = "EXPENSE"
)

const (
	Loyer          Category = "Loyer"
	Charges        Category = "Charges"
	Taxes          Category = "Taxes"
	Investissement Category = "Investissement"
	Consommables   Category = "Consommables"
	Assurance      Category = "Assurance"
	BoxInternet    Category = "Box/Internet"
	ImpotFoncier   Category = "Impôt Foncier"
	TaxeHabitation Category = "Taxe Habitation"
)

// MaxOccupants is the hard cap on adults + children for one booking.
const MaxOccupants = 4

type (
	TransactionType string

	Category string

	// Date is a calendar day without a time component. It marshals to the
	// ISO form YYYY-MM-DD used everywhere a date is persisted or exchanged.
	Date struct {
		time.Time
	}

	// BookingDetails is present only on Loyer transactions. The rate fields
	// are pointers so that "unset" (defaults apply) stays distinct from an
	// explicit zero override.
	BookingDetails struct {
		StartDate     Date     `json:"startDate"`
		EndDate       Date     `json:"endDate"`
		Adults        int      `json:"adults"`
		Children      int      `json:"children"`
		Nights        int      `json:"nights"`
		PricePerNight float64  `json:"pricePerNight"`
		FeesRate      *float64 `json:"feesRate,omitempty"`
		TaxRate       *float64 `json:"taxRate,omitempty"`
		WaterPerNight *float64 `json:"waterPerNight,omitempty"`
		ElecPerNight  *float64 `json:"elecPerNight,omitempty"`
	}

	// Transaction is one financial event. Amount always holds the net
	// value after booking deductions; it is the only figure aggregated.
	Transaction struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Category    Category        `json:"category"`
		Type        TransactionType `json:"type"`
		Amount      float64         `json:"amount"`
		Booking     *BookingDetails `json:"booking,omitempty"`
	}
)

// Categories is the fixed palette order used for deterministic
// aggregation output. Breakdowns always iterate in this order.
var Categories = []Category{
	Loyer,
	Charges,
	Taxes,
	Investissement,
	Consommables,
	Assurance,
	BoxInternet,
	ImpotFoncier,
	TaxeHabitation,
}

// CategoryColors maps each category to its fixed display color.
var CategoryColors = map[Category]string{
	Loyer:          "#2dd4bf",
	Charges:        "#3b82f6",
	Taxes:          "#a855f7",
	Investissement: "#06b6d4",
	Consommables:   "#f59e0b",
	Assurance:      "#6366f1",
	BoxInternet:    "#ec4899",
	ImpotFoncier:   "#8b5cf6",
	TaxeHabitation: "#d946ef",
}

// MonthNames holds the short French month labels, index 0 = January.
var MonthNames = [12]string{
	"Janv", "Févr", "Mars", "Avr", "Mai", "Juin",
	"Juil", "Août", "Sept", "Oct", "Nov", "Déc",
}

var (
	ErrOccupancyLimitExceeded = errors.New("occupancy limit exceeded")
	ErrIncompleteBooking      = errors.New("incomplete booking: zero or negative nights")
	ErrBookingConflict        = errors.New("booking conflicts with an existing stay")
	ErrUnknownCategory        = errors.New("unknown category")
	ErrCategoryTypeMismatch   = errors.New("category does not allow this transaction type")
	ErrBookingRequired        = errors.New("booking details required for a Loyer transaction")
	ErrBookingNotAllowed      = errors.New("booking details only allowed on Loyer transactions")
	ErrEmptyDescription       = errors.New("empty description")
)

const dateLayout = "2006-01-02"

// NewDate builds a Date pinned to UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the ISO YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Equal reports whether two dates name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := CategoryColors[c]
	return ok
}

// ForcedType returns the transaction type a category mandates. Loyer is
// always revenue; every other category is free to be either type.
func (c Category) ForcedType() (TransactionType, bool) {
	if c == Loyer {
		return Revenue, true
	}
	return "", false
}

// ValidateOccupants enforces the adult/child cap: at least one adult,
// at most MaxOccupants people in total.
func ValidateOccupants(adults, children int) error {
	if adults < 1 {
		return fmt.Errorf("%w: at least one adult required", ErrOccupancyLimitExceeded)
	}
	if children < 0 {
		return fmt.Errorf("%w: negative children count", ErrOccupancyLimitExceeded)
	}
	if adults+children > MaxOccupants {
		return fmt.Errorf("%w: %d occupants, max %d", ErrOccupancyLimitExceeded, adults+children, MaxOccupants)
	}
	return nil
}

// Validate checks the structural invariants of a transaction: the category
// is known, the category/type pairing is legal and booking details appear
// exactly on Loyer transactions. Enforced at creation, not re-validated
// after.
func (t Transaction) Validate() error {
	if !t.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, t.Category)
	}
	if t.Type != Revenue && t.Type != Expense {
		return fmt.Errorf("invalid transaction type %q", t.Type)
	}
	if forced, ok := t.Category.ForcedType(); ok && t.Type != forced {
		return fmt.Errorf("%w: %s requires %s", ErrCategoryTypeMismatch, t.Category, forced)
	}
	if t.Category == Loyer && t.Booking == nil {
		return ErrBookingRequired
	}
	if t.Category != Loyer && t.Booking != nil {
		return ErrBookingNotAllowed
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if t.Booking != nil {
		if err := ValidateOccupants(t.Booking.Adults, t.Booking.Children); err != nil {
			return err
		}
	}
	return nil
}
