package model

import "testing"

func TestAdjustCapacityClampsAtZero(t *testing.T) {
	j := Journey{Capacity: JourneyCapacity{CurrentBookings: 2}}

	j.AdjustCapacity(-5)
	if j.Capacity.CurrentBookings != 0 {
		t.Errorf("CurrentBookings = %d, want clamp at 0", j.Capacity.CurrentBookings)
	}

	j.AdjustCapacity(3)
	if j.Capacity.CurrentBookings != 3 {
		t.Errorf("CurrentBookings = %d, want 3", j.Capacity.CurrentBookings)
	}
}

func TestAdjustCapacityHasNoUpperBound(t *testing.T) {
	// Overbooking past MaxParticipants is deliberately not prevented here.
	j := Journey{Capacity: JourneyCapacity{MaxParticipants: 10, CurrentBookings: 10}}
	j.AdjustCapacity(5)
	if j.Capacity.CurrentBookings != 15 {
		t.Errorf("CurrentBookings = %d, want 15", j.Capacity.CurrentBookings)
	}
}

func TestAverageReviewRating(t *testing.T) {
	j := Journey{}
	if j.AverageReviewRating() != 0 {
		t.Error("no reviews should average to 0")
	}

	j.Reviews = []Review{{Rating: 5}, {Rating: 3}, {Rating: 4}}
	if got := j.AverageReviewRating(); got != 4 {
		t.Errorf("AverageReviewRating() = %f, want 4", got)
	}
}

func TestGuideTransitionable(t *testing.T) {
	allowed := []JourneyStatus{
		JourneyStatusActive, JourneyStatusInProgress,
		JourneyStatusCompleted, JourneyStatusCancelled,
	}
	for _, s := range allowed {
		if !s.GuideTransitionable() {
			t.Errorf("%s should be a valid status-update target", s)
		}
	}
	for _, s := range []JourneyStatus{JourneyStatusDraft, JourneyStatusArchived, JourneyStatusSuspended, JourneyStatusInactive} {
		if s.GuideTransitionable() {
			t.Errorf("%s should not be a valid status-update target", s)
		}
	}
}
