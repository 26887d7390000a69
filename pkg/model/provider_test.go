package model

import (
	"math"
	"testing"
)

func TestRatingAdd(t *testing.T) {
	var r Rating

	r.Add(5)
	r.Add(5)
	r.Add(2)

	if r.Count != 3 {
		t.Errorf("Count = %d, want 3", r.Count)
	}
	if r.Breakdown.Five != 2 || r.Breakdown.Two != 1 {
		t.Errorf("breakdown = %+v", r.Breakdown)
	}
	want := (5.0*2 + 2.0) / 3.0
	if math.Abs(r.Average-want) > 1e-9 {
		t.Errorf("Average = %f, want %f", r.Average, want)
	}
}

func TestRatingAddIgnoresOutOfRange(t *testing.T) {
	var r Rating
	r.Add(3)

	r.Add(0)
	r.Add(6)
	r.Add(-1)

	if r.Count != 1 {
		t.Errorf("Count = %d, want 1", r.Count)
	}
	if r.Average != 3 {
		t.Errorf("Average = %f, want 3", r.Average)
	}
}

func TestRatingRecalculateEmpty(t *testing.T) {
	r := Rating{Average: 4.2}
	r.Recalculate()
	if r.Average != 0 {
		t.Errorf("Average = %f, want 0 with no ratings", r.Average)
	}
}

func TestProviderTypeValid(t *testing.T) {
	for _, pt := range []ProviderType{
		ProviderTypeHotel, ProviderTypeRestaurant, ProviderTypeTransport,
		ProviderTypeActivity, ProviderTypeGuide, ProviderTypeAgency,
		ProviderTypeSupplier, ProviderTypeOther,
	} {
		if !pt.Valid() {
			t.Errorf("%q should be valid", pt)
		}
	}
	if ProviderType("airline").Valid() {
		t.Error("unknown type should be invalid")
	}
}
