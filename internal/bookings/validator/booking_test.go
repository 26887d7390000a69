package validator

import (
	"testing"
	"time"

	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"
)

func newTestValidator() *BookingValidator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewBookingValidator(log)
}

func TestValidateCreate(t *testing.T) {
	v := newTestValidator()
	travelDate := time.Date(2027, 6, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		booking   *model.Booking
		wantError bool
	}{
		{
			name: "valid booking",
			booking: &model.Booking{
				CustomerID:   "64c000000000000000000001",
				JourneyID:    "64a000000000000000000001",
				TravelDate:   travelDate,
				Participants: 2,
			},
			wantError: false,
		},
		{
			name: "customer id not an object id",
			booking: &model.Booking{
				CustomerID:   "alice",
				JourneyID:    "64a000000000000000000001",
				TravelDate:   travelDate,
				Participants: 2,
			},
			wantError: true,
		},
		{
			name: "missing travel date",
			booking: &model.Booking{
				CustomerID:   "64c000000000000000000001",
				JourneyID:    "64a000000000000000000001",
				Participants: 2,
			},
			wantError: true,
		},
		{
			name: "travel date in the past",
			booking: &model.Booking{
				CustomerID:   "64c000000000000000000001",
				JourneyID:    "64a000000000000000000001",
				TravelDate:   time.Date(2020, 6, 10, 9, 0, 0, 0, time.UTC),
				Participants: 2,
			},
			wantError: true,
		},
		{
			name: "unknown payment method",
			booking: &model.Booking{
				CustomerID:    "64c000000000000000000001",
				JourneyID:     "64a000000000000000000001",
				TravelDate:    travelDate,
				Participants:  2,
				PaymentMethod: "barter",
			},
			wantError: true,
		},
		{
			name: "passenger without date of birth",
			booking: &model.Booking{
				CustomerID: "64c000000000000000000001",
				JourneyID:  "64a000000000000000000001",
				TravelDate: travelDate,
				Passengers: []model.Passenger{
					{FirstName: "Ada", LastName: "Brook"},
				},
			},
			wantError: true,
		},
		{
			name: "complete passenger",
			booking: &model.Booking{
				CustomerID: "64c000000000000000000001",
				JourneyID:  "64a000000000000000000001",
				TravelDate: travelDate,
				Passengers: []model.Passenger{
					{
						FirstName:   "Ada",
						LastName:    "Brook",
						DateOfBirth: time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
					},
				},
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateCreate(tt.booking)
			if (len(errs) > 0) != tt.wantError {
				t.Errorf("ValidateCreate() errors = %v, wantError %v", errs, tt.wantError)
			}
		})
	}
}

func TestValidateCustomerPatch(t *testing.T) {
	v := newTestValidator()

	zero := 0
	five := 5
	past := time.Date(2020, 6, 10, 9, 0, 0, 0, time.UTC)
	ahead := time.Now().UTC().AddDate(0, 1, 0)
	tests := []struct {
		name      string
		patch     *model.BookingCustomerPatch
		wantError bool
	}{
		{
			name:      "participants in range",
			patch:     &model.BookingCustomerPatch{Participants: &five},
			wantError: false,
		},
		{
			name:      "participants below minimum",
			patch:     &model.BookingCustomerPatch{Participants: &zero},
			wantError: true,
		},
		{
			name:      "travel date moved forward",
			patch:     &model.BookingCustomerPatch{TravelDate: &ahead},
			wantError: false,
		},
		{
			name:      "travel date in the past",
			patch:     &model.BookingCustomerPatch{TravelDate: &past},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateCustomerPatch(tt.patch)
			if (len(errs) > 0) != tt.wantError {
				t.Errorf("ValidateCustomerPatch() errors = %v, wantError %v", errs, tt.wantError)
			}
		})
	}
}
