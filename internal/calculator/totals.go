package calculator

import "github.com/shopspring/decimal"

// DueAmount is the minimal information needed to total dues.
type DueAmount struct {
	Amount float64
	Paid   bool
}

// Collection summarises dues for reporting.
// Amounts are exact decimals so that per-parcel shares produced by float
// division do not accumulate further drift when totalled.
type Collection struct {
	Collected   decimal.Decimal // Sum of paid dues
	Outstanding decimal.Decimal // Sum of unpaid dues
	PaidCount   int
	UnpaidCount int
}

// Total returns the exact sum of amounts.
func Total(amounts ...float64) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	return sum
}

// SummarizeDues totals paid and unpaid dues separately.
func SummarizeDues(dues []DueAmount) Collection {
	c := Collection{Collected: decimal.Zero, Outstanding: decimal.Zero}
	for _, d := range dues {
		amount := decimal.NewFromFloat(d.Amount)
		if d.Paid {
			c.Collected = c.Collected.Add(amount)
			c.PaidCount++
		} else {
			c.Outstanding = c.Outstanding.Add(amount)
			c.UnpaidCount++
		}
	}
	return c
}

// ExpectedTotal is the full value of all parcels: parcels × price.
func ExpectedTotal(parcels int, price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(parcels)))
}

// CollectionRate returns collected / expected as a percentage rounded to two
// places, or zero when nothing is expected.
func CollectionRate(collected, expected decimal.Decimal) decimal.Decimal {
	if expected.IsZero() {
		return decimal.Zero
	}
	return collected.Div(expected).Mul(decimal.NewFromInt(100)).Round(2)
}
