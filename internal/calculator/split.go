package calculator

import (
	"fmt"
)

// ParcelShare is the amount assigned to one parcel slot.
type ParcelShare struct {
	Slot   int
	Amount float64
}

// SplitAcrossParcels divides a whole-account amount equally across a
// participant's parcels, numbered 1..parcels.
// Based on: per_parcel = total / parcels
//
// The division is plain floating point with no remainder redistribution, so
// the shares re-sum to total only within floating-point tolerance.
func SplitAcrossParcels(total float64, parcels int) ([]ParcelShare, error) {
	if parcels < 1 {
		return nil, fmt.Errorf("must have at least one parcel, got %d", parcels)
	}
	if total < 0 {
		return nil, fmt.Errorf("total cannot be negative: %v", total)
	}

	perParcel := total / float64(parcels)
	shares := make([]ParcelShare, parcels)
	for i := range shares {
		shares[i] = ParcelShare{
			Slot:   i + 1,
			Amount: perParcel,
		}
	}
	return shares, nil
}

// BulkSlots returns the slots 1..parcels that are not already present.
// existing holds the slot numbers that already have a due for the period.
func BulkSlots(parcels int, existing map[int]bool) (missing []int, present int) {
	for slot := 1; slot <= parcels; slot++ {
		if existing[slot] {
			present++
			continue
		}
		missing = append(missing, slot)
	}
	return missing, present
}
