package model

type ProviderType string

const (
	ProviderTypeHotel      ProviderType = "hotel"
	ProviderTypeRestaurant ProviderType = "restaurant"
	ProviderTypeTransport  ProviderType = "transport"
	ProviderTypeActivity   ProviderType = "activity"
	ProviderTypeGuide      ProviderType = "guide"
	ProviderTypeAgency     ProviderType = "agency"
	ProviderTypeSupplier   ProviderType = "supplier"
	ProviderTypeOther      ProviderType = "other"
)

func (t ProviderType) Valid() bool {
	switch t {
	case ProviderTypeHotel, ProviderTypeRestaurant, ProviderTypeTransport,
		ProviderTypeActivity, ProviderTypeGuide, ProviderTypeAgency,
		ProviderTypeSupplier, ProviderTypeOther:
		return true
	}
	return false
}

type ProviderStatus string

const (
	ProviderStatusPending   ProviderStatus = "pending"
	ProviderStatusActive    ProviderStatus = "active"
	ProviderStatusInactive  ProviderStatus = "inactive"
	ProviderStatusSuspended ProviderStatus = "suspended"
	ProviderStatusArchived  ProviderStatus = "archived"
)

// RatingBreakdown counts ratings per star bucket. Bson keys are the
// star values themselves, matching the stored document shape.
type RatingBreakdown struct {
	One   int `json:"1" bson:"1"`
	Two   int `json:"2" bson:"2"`
	Three int `json:"3" bson:"3"`
	Four  int `json:"4" bson:"4"`
	Five  int `json:"5" bson:"5"`
}

type Rating struct {
	Average   float64         `json:"average" bson:"average" validate:"min=0,max=5"`
	Count     int             `json:"count" bson:"count" validate:"min=0"`
	Breakdown RatingBreakdown `json:"breakdown" bson:"breakdown"`
}

// Add records one rating in [1,5] and recomputes the average.
// Out-of-range values are the caller's error and are ignored here.
func (r *Rating) Add(value int) {
	switch value {
	case 1:
		r.Breakdown.One++
	case 2:
		r.Breakdown.Two++
	case 3:
		r.Breakdown.Three++
	case 4:
		r.Breakdown.Four++
	case 5:
		r.Breakdown.Five++
	default:
		return
	}
	r.Count++
	r.Recalculate()
}

// Recalculate restores the invariant average = sum(bucket_i * i) / count.
func (r *Rating) Recalculate() {
	if r.Count == 0 {
		r.Average = 0
		return
	}
	sum := r.Breakdown.One*1 +
		r.Breakdown.Two*2 +
		r.Breakdown.Three*3 +
		r.Breakdown.Four*4 +
		r.Breakdown.Five*5
	r.Average = float64(sum) / float64(r.Count)
}

type Address struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty" validate:"omitempty,max=200"`
	City    string `json:"city,omitempty" bson:"city,omitempty" validate:"omitempty,max=100"`
	Country string `json:"country,omitempty" bson:"country,omitempty" validate:"omitempty,max=100"`
}

type Contact struct {
	Email string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
}

type ProviderCapacity struct {
	CurrentBookings int `json:"current_bookings" bson:"current_bookings" validate:"min=0"`
}

// Provider is an external partner supplying part of a Journey.
type Provider struct {
	ID       string           `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name     string           `json:"name" bson:"name" validate:"required,min=2,max=150"`
	Type     ProviderType     `json:"type" bson:"type" validate:"required,oneof=hotel restaurant transport activity guide agency supplier other"`
	Status   ProviderStatus   `json:"status" bson:"status" validate:"omitempty,oneof=pending active inactive suspended archived"`
	Rating   Rating           `json:"rating" bson:"rating"`
	Address  Address          `json:"address" bson:"address"`
	Contact  Contact          `json:"contact" bson:"contact"`
	Capacity ProviderCapacity `json:"capacity" bson:"capacity"`

	Meta Meta `json:"meta" bson:"meta"`
}

// ProviderPatch carries the mutable Provider attributes, one optional
// field each, applied field-by-field.
type ProviderPatch struct {
	Name    *string         `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Type    *ProviderType   `json:"type,omitempty" validate:"omitempty,oneof=hotel restaurant transport activity guide agency supplier other"`
	Status  *ProviderStatus `json:"status,omitempty" validate:"omitempty,oneof=pending active inactive suspended archived"`
	Rating  *Rating         `json:"rating,omitempty"`
	Address *Address        `json:"address,omitempty"`
	Contact *Contact        `json:"contact,omitempty"`
}

// ProviderStats is the read-only aggregation over stored providers.
type ProviderStats struct {
	Total            int64            `json:"total"`
	Deleted          int64            `json:"deleted"`
	ByType           map[string]int64 `json:"by_type"`
	ByRating         map[string]int64 `json:"by_rating"`
	AverageRating    float64          `json:"average_rating"`
	CreatedLast7Days int64            `json:"created_last_7_days"`
}
