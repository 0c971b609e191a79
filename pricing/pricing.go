package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

const hoursPerDay = 24

// Quote is the price breakdown of a stay.
type Quote struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Guests    int             `json:"guests"`
	Nights    int             `json:"nights"`
	Total     decimal.Decimal `json:"total_price"`
}

// UnitPrice prefers the discounted price when one is set.
func UnitPrice(price decimal.Decimal, discount decimal.NullDecimal) decimal.Decimal {
	if discount.Valid {
		return discount.Decimal
	}
	return price
}

// Nights counts whole calendar days between the two dates, never fewer
// than one. Clock time and zone are ignored.
func Nights(checkIn, checkOut time.Time) int {
	days := int(Date(checkOut).Sub(Date(checkIn)).Hours() / hoursPerDay)
	if days < 1 {
		return 1
	}
	return days
}

// Total is unit * guests * nights, rounded to cents.
func Total(unit decimal.Decimal, guests, nights int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(guests))).Mul(decimal.NewFromInt(int64(nights))).Round(2)
}

// NewQuote prices a stay for the given catalog price fields.
func NewQuote(price decimal.Decimal, discount decimal.NullDecimal, checkIn, checkOut time.Time, guests int) Quote {
	unit := UnitPrice(price, discount)
	nights := Nights(checkIn, checkOut)
	return Quote{
		UnitPrice: unit,
		Guests:    guests,
		Nights:    nights,
		Total:     Total(unit, guests, nights),
	}
}

// RoundRating rounds a mean rating to one decimal, halves away from zero.
func RoundRating(mean decimal.Decimal) decimal.Decimal {
	return mean.Round(1)
}

// Date truncates t to midnight UTC of its calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
