package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Tariff constants. Monetary values are in the service currency (PLN).
const (
	BasicCost = 15.0

	MinWeightKg    = 1.0
	MaxWeightKg    = 1000.0
	MinDimensionCm = 1.0
	MaxDimensionCm = 400.0

	fragileFactor = 1.2
	volumeFreeCm3 = 5000.0
)

// PackageSpec holds the physical attributes of a package.
type PackageSpec struct {
	WeightKg float64 `json:"weight_kg"`
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
	Fragile  bool    `json:"fragile"`
}

// RangeError reports a package attribute outside its allowed range.
type RangeError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, e.Max, e.Value)
}

// Validate rejects out-of-range attributes. Submitted values are rejected
// here; interactive input is clamped instead (see Clamp).
func (p PackageSpec) Validate() error {
	if !(p.WeightKg >= MinWeightKg && p.WeightKg <= MaxWeightKg) {
		return &RangeError{Field: "weight_kg", Value: p.WeightKg, Min: MinWeightKg, Max: MaxWeightKg}
	}
	dims := []struct {
		name  string
		value float64
	}{
		{"length_cm", p.LengthCm},
		{"width_cm", p.WidthCm},
		{"height_cm", p.HeightCm},
	}
	for _, d := range dims {
		if !(d.value >= MinDimensionCm && d.value <= MaxDimensionCm) {
			return &RangeError{Field: d.name, Value: d.value, Min: MinDimensionCm, Max: MaxDimensionCm}
		}
	}
	return nil
}

// Clamp forces all numeric attributes into their valid range.
func (p PackageSpec) Clamp() PackageSpec {
	p.WeightKg = clamp(p.WeightKg, MinWeightKg, MaxWeightKg)
	p.LengthCm = clamp(p.LengthCm, MinDimensionCm, MaxDimensionCm)
	p.WidthCm = clamp(p.WidthCm, MinDimensionCm, MaxDimensionCm)
	p.HeightCm = clamp(p.HeightCm, MinDimensionCm, MaxDimensionCm)
	return p
}

// Breakdown itemizes a computed shipping cost. Every component is rounded
// to two decimals at output; Total is the authoritative charge.
type Breakdown struct {
	BasicCost         float64 `json:"basic_cost"`
	WeightCost        float64 `json:"weight_cost"`
	VolumeCost        float64 `json:"volume_cost"`
	DistanceCost      float64 `json:"distance_cost"`
	FragileMultiplier float64 `json:"fragile_multiplier"`
	Total             float64 `json:"total"`
}

// Calculate prices a package over the given distance. It returns nil when
// the distance is unknown: no price exists until both addresses resolve,
// and a missing distance must never be priced as zero kilometers.
// Intermediate math runs at full float64 precision; rounding happens only
// on the output fields. NaN inputs indicate a caller bug and panic.
func Calculate(spec PackageSpec, distanceKm *float64) *Breakdown {
	if distanceKm == nil {
		return nil
	}
	for _, v := range []float64{spec.WeightKg, spec.LengthCm, spec.WidthCm, spec.HeightCm, *distanceKm} {
		if math.IsNaN(v) {
			panic("pricing: NaN input")
		}
	}

	weight := weightSurcharge(spec.WeightKg)
	volume := volumeSurcharge(spec.LengthCm * spec.WidthCm * spec.HeightCm)
	dist := distanceSurcharge(*distanceKm)

	subtotal := BasicCost + weight + volume + dist
	multiplier := 1.0
	if spec.Fragile {
		multiplier = fragileFactor
	}

	return &Breakdown{
		BasicCost:         BasicCost,
		WeightCost:        round2(weight),
		VolumeCost:        round2(volume),
		DistanceCost:      round2(dist),
		FragileMultiplier: multiplier,
		Total:             round2(subtotal * multiplier),
	}
}

// weightSurcharge applies the degressive weight tariff: the first 10 kg
// above 1 kg at 2.0/kg, the next 20 kg at 1.0/kg, the rest at 0.5/kg.
// Exactly 1 kg carries no surcharge.
func weightSurcharge(weightKg float64) float64 {
	switch {
	case weightKg <= 1:
		return 0
	case weightKg <= 11:
		return (weightKg - 1) * 2
	case weightKg <= 31:
		return 10*2 + (weightKg-11)*1
	default:
		return 10*2 + 20*1 + (weightKg-31)*0.5
	}
}

// volumeSurcharge charges 0.5 per 1000 cm3 above 5000 cm3, pro rata.
// The threshold is strictly greater than: exactly 5000 cm3 is free.
func volumeSurcharge(volumeCm3 float64) float64 {
	if volumeCm3 > volumeFreeCm3 {
		return (volumeCm3 - volumeFreeCm3) / 1000 * 0.5
	}
	return 0
}

// distanceSurcharge applies the degressive distance tariff: the first
// 50 km above 10 km at 0.5/km, everything beyond 60 km at 0.3/km.
// Exactly 10 km carries no surcharge.
func distanceSurcharge(distanceKm float64) float64 {
	switch {
	case distanceKm <= 10:
		return 0
	case distanceKm <= 60:
		return (distanceKm - 10) * 0.5
	default:
		return 50*0.5 + (distanceKm-60)*0.3
	}
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
