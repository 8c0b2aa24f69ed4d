// Package core holds the booking-aware ledger domain: entity definitions,
// the occupancy calculator, the booking financial engine and the
// aggregation engine. Everything here is a pure, synchronous function over
// in-memory data; no I/O happens below this package boundary.
package core

import "math"

// Default cost-rate parameters, applied only when a field is unset.
// An explicit zero is a valid override and never replaced.
const (
	DefaultPricePerNight = 120.0
	DefaultFeesRate      = 3.0
	DefaultTaxRate       = 17.2
	DefaultWaterPerNight = 2.0
	DefaultElecPerNight  = 3.5
)

// taxBaseShare is the fraction of gross revenue the tax rate applies to
// (micro-BIC abatement: tax is computed on 50% of gross).
const taxBaseShare = 0.5

// Quote is the full financial breakdown of one stay. NetStay is what gets
// recorded as the transaction amount.
type Quote struct {
	Nights           int     `json:"nights"`
	TotalGross       float64 `json:"totalGross"`
	TotalFees        float64 `json:"totalFees"`
	TotalTax         float64 `json:"totalTax"`
	TotalWater       float64 `json:"totalWater"`
	TotalElectricity float64 `json:"totalElectricity"`
	NetStay          float64 `json:"netStay"`
	NetPerNight      float64 `json:"netPerNight"`
}

// Nights returns the whole-day difference between start and end, floored
// at zero. Nights(d, d) == 0.
func Nights(start, end Date) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	diff := end.Sub(start.Time)
	n := int(math.Ceil(diff.Hours() / 24))
	if n < 0 {
		return 0
	}
	return n
}

// EffectiveFeesRate returns the platform fee rate in percent.
func (b BookingDetails) EffectiveFeesRate() float64 {
	return orDefault(b.FeesRate, DefaultFeesRate)
}

// EffectiveTaxRate returns the estimated tax rate in percent.
func (b BookingDetails) EffectiveTaxRate() float64 {
	return orDefault(b.TaxRate, DefaultTaxRate)
}

// EffectiveWaterPerNight returns the per-night water cost.
func (b BookingDetails) EffectiveWaterPerNight() float64 {
	return orDefault(b.WaterPerNight, DefaultWaterPerNight)
}

// EffectiveElecPerNight returns the per-night electricity cost.
func (b BookingDetails) EffectiveElecPerNight() float64 {
	return orDefault(b.ElecPerNight, DefaultElecPerNight)
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// ComputeQuote converts raw booking inputs into the stay breakdown.
// Deterministic, side-effect free; re-run whenever any input changes.
func ComputeQuote(nights int, pricePerNight, feesRate, taxRate, waterPerNight, elecPerNight float64) Quote {
	if nights <= 0 {
		return Quote{}
	}
	gross := float64(nights) * pricePerNight
	fees := gross * (feesRate / 100)
	tax := (gross * taxBaseShare) * (taxRate / 100)
	water := float64(nights) * waterPerNight
	elec := float64(nights) * elecPerNight
	net := gross - (fees + tax + water + elec)
	return Quote{
		Nights:           nights,
		TotalGross:       gross,
		TotalFees:        fees,
		TotalTax:         tax,
		TotalWater:       water,
		TotalElectricity: elec,
		NetStay:          net,
		NetPerNight:      net / float64(nights),
	}
}

// QuoteBooking derives the stay quote from the booking's date range, price
// and effective rates. A zero-night range yields a zero quote and
// ErrIncompleteBooking so callers can block submission.
func QuoteBooking(b BookingDetails) (Quote, error) {
	nights := Nights(b.StartDate, b.EndDate)
	q := ComputeQuote(nights,
		b.PricePerNight,
		b.EffectiveFeesRate(),
		b.EffectiveTaxRate(),
		b.EffectiveWaterPerNight(),
		b.EffectiveElecPerNight(),
	)
	if nights <= 0 {
		return q, ErrIncompleteBooking
	}
	return q, nil
}
