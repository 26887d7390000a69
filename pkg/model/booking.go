package model

import "time"

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusNoShow     BookingStatus = "no_show"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// customerTransitions is the booking state machine as customers see it.
// Staff status updates deliberately bypass it.
var customerTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransitionTo reports whether the customer-facing state machine
// permits moving from s to next. Completed, cancelled, and no_show are
// terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range customerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LocksCustomerEdits reports whether the owning customer may no longer
// edit date or participant fields.
func (s BookingStatus) LocksCustomerEdits() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCompleted || s == BookingStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodVoucher  PaymentMethod = "voucher"
)

type Passenger struct {
	FirstName   string    `json:"first_name" bson:"first_name" validate:"required,min=1,max=100"`
	LastName    string    `json:"last_name" bson:"last_name" validate:"required,min=1,max=100"`
	DateOfBirth time.Time `json:"date_of_birth" bson:"date_of_birth" validate:"required"`
}

// Booking is a customer's reservation against a Journey.
type Booking struct {
	ID         string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CustomerID string `json:"customer_id" bson:"customer_id" validate:"required,mongodb"`
	JourneyID  string `json:"journey_id" bson:"journey_id" validate:"required,mongodb"`
	// Denormalized from the Journey at creation time.
	GuideID string `json:"guide_id,omitempty" bson:"guide_id,omitempty" validate:"omitempty,mongodb"`

	TravelDate   time.Time   `json:"travel_date" bson:"travel_date" validate:"required,future"`
	Passengers   []Passenger `json:"passengers,omitempty" bson:"passengers,omitempty" validate:"omitempty,dive"`
	Participants int         `json:"participants" bson:"participants" validate:"min=0,max=200"`

	BasePrice  float64 `json:"base_price" bson:"base_price" validate:"min=0"`
	Discount   float64 `json:"discount" bson:"discount" validate:"min=0"`
	Tax        float64 `json:"tax" bson:"tax" validate:"min=0"`
	TotalPrice float64 `json:"total_price" bson:"total_price" validate:"min=0"`

	PaymentStatus PaymentStatus `json:"payment_status" bson:"payment_status" validate:"omitempty,oneof=pending paid failed refunded cancelled"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty" bson:"payment_method,omitempty" validate:"omitempty,oneof=card cash transfer voucher"`
	Status        BookingStatus `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed in_progress completed cancelled no_show"`

	ContactEmail string `json:"contact_email,omitempty" bson:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone,omitempty" bson:"contact_phone,omitempty" validate:"omitempty,e164"`

	Meta Meta `json:"meta" bson:"meta"`
}

// ParticipantCount is the billing headcount: the explicit participants
// figure when set, otherwise the passenger list length, minimum 1.
func (b *Booking) ParticipantCount() int {
	if b.Participants > 0 {
		return b.Participants
	}
	if n := len(b.Passengers); n > 0 {
		return n
	}
	return 1
}

// ComputeTotal restores the price invariant total = base - discount + tax.
func (b *Booking) ComputeTotal() {
	b.TotalPrice = b.BasePrice - b.Discount + b.Tax
	if b.TotalPrice < 0 {
		b.TotalPrice = 0
	}
}

// BookingPatch carries the booking attributes staff may change.
type BookingPatch struct {
	TravelDate    *time.Time     `json:"travel_date,omitempty" validate:"omitempty,future"`
	Passengers    *[]Passenger   `json:"passengers,omitempty" validate:"omitempty,dive"`
	Participants  *int           `json:"participants,omitempty" validate:"omitempty,min=1,max=200"`
	Discount      *float64       `json:"discount,omitempty" validate:"omitempty,min=0"`
	Tax           *float64       `json:"tax,omitempty" validate:"omitempty,min=0"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty" validate:"omitempty,oneof=pending paid failed refunded cancelled"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" validate:"omitempty,oneof=card cash transfer voucher"`
	Status        *BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed in_progress completed cancelled no_show"`
	ContactEmail  *string        `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone  *string        `json:"contact_phone,omitempty" validate:"omitempty,e164"`
}

// BookingCustomerPatch carries the subset the owning customer may change
// while the booking is still editable.
type BookingCustomerPatch struct {
	TravelDate   *time.Time   `json:"travel_date,omitempty" validate:"omitempty,future"`
	Passengers   *[]Passenger `json:"passengers,omitempty" validate:"omitempty,dive"`
	Participants *int         `json:"participants,omitempty" validate:"omitempty,min=1,max=200"`
	ContactEmail *string      `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string      `json:"contact_phone,omitempty" validate:"omitempty,e164"`
}

// BookingStats is the read-only aggregation over stored bookings.
type BookingStats struct {
	Total            int64            `json:"total"`
	Deleted          int64            `json:"deleted"`
	CreatedLast7Days int64            `json:"created_last_7_days"`
	ByStatus         map[string]int64 `json:"by_status"`
	TotalRevenue     float64          `json:"total_revenue"`
}
