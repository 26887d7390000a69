package model

import (
	"testing"
	"time"
)

func TestParticipantCount(t *testing.T) {
	dob := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		booking Booking
		want    int
	}{
		{"explicit participants win", Booking{Participants: 3, Passengers: []Passenger{{FirstName: "A", LastName: "B", DateOfBirth: dob}}}, 3},
		{"passenger list fallback", Booking{Passengers: []Passenger{{FirstName: "A", LastName: "B", DateOfBirth: dob}, {FirstName: "C", LastName: "D", DateOfBirth: dob}}}, 2},
		{"minimum of one", Booking{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.booking.ParticipantCount(); got != tt.want {
				t.Errorf("ParticipantCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeTotal(t *testing.T) {
	b := Booking{BasePrice: 300, Discount: 50, Tax: 30}
	b.ComputeTotal()
	if b.TotalPrice != 280 {
		t.Errorf("TotalPrice = %f, want 280", b.TotalPrice)
	}

	b = Booking{BasePrice: 10, Discount: 50}
	b.ComputeTotal()
	if b.TotalPrice != 0 {
		t.Errorf("TotalPrice = %f, want clamp at 0", b.TotalPrice)
	}
}

func TestCustomerStateMachine(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusConfirmed, BookingStatusInProgress, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusInProgress, BookingStatusCompleted, true},
		{BookingStatusInProgress, BookingStatusCancelled, true},
		{BookingStatusCompleted, BookingStatusCancelled, false},
		{BookingStatusCancelled, BookingStatusPending, false},
		{BookingStatusNoShow, BookingStatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestLocksCustomerEdits(t *testing.T) {
	locked := []BookingStatus{BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled}
	for _, s := range locked {
		if !s.LocksCustomerEdits() {
			t.Errorf("%s should lock customer edits", s)
		}
	}
	for _, s := range []BookingStatus{BookingStatusPending, BookingStatusInProgress, BookingStatusNoShow} {
		if s.LocksCustomerEdits() {
			t.Errorf("%s should not lock customer edits", s)
		}
	}
}
