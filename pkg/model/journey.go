package model

import "time"

type JourneyCategory string

const (
	JourneyCategoryAdventure JourneyCategory = "adventure"
	JourneyCategoryCultural  JourneyCategory = "cultural"
	JourneyCategoryBeach     JourneyCategory = "beach"
	JourneyCategoryCity      JourneyCategory = "city"
	JourneyCategoryNature    JourneyCategory = "nature"
	JourneyCategoryCruise    JourneyCategory = "cruise"
	JourneyCategoryOther     JourneyCategory = "other"
)

type JourneyType string

const (
	JourneyTypeGuided     JourneyType = "guided"
	JourneyTypeSelfGuided JourneyType = "self_guided"
	JourneyTypeCustom     JourneyType = "custom"
	JourneyTypeGroup      JourneyType = "group"
	JourneyTypePrivate    JourneyType = "private"
)

type JourneyStatus string

const (
	JourneyStatusDraft      JourneyStatus = "draft"
	JourneyStatusActive     JourneyStatus = "active"
	JourneyStatusInactive   JourneyStatus = "inactive"
	JourneyStatusInProgress JourneyStatus = "in_progress"
	JourneyStatusCompleted  JourneyStatus = "completed"
	JourneyStatusCancelled  JourneyStatus = "cancelled"
	JourneyStatusArchived   JourneyStatus = "archived"
	JourneyStatusSuspended  JourneyStatus = "suspended"
)

func (s JourneyStatus) Valid() bool {
	switch s {
	case JourneyStatusDraft, JourneyStatusActive, JourneyStatusInactive,
		JourneyStatusInProgress, JourneyStatusCompleted, JourneyStatusCancelled,
		JourneyStatusArchived, JourneyStatusSuspended:
		return true
	}
	return false
}

// GuideTransitionable reports whether s is in the restricted subset a
// status-update call may target (guides move journeys along
// active -> in_progress -> completed, or cancel).
func (s JourneyStatus) GuideTransitionable() bool {
	switch s {
	case JourneyStatusActive, JourneyStatusInProgress,
		JourneyStatusCompleted, JourneyStatusCancelled:
		return true
	}
	return false
}

type Duration struct {
	Days   int `json:"days" bson:"days" validate:"required,min=1,max=365"`
	Nights int `json:"nights" bson:"nights" validate:"min=0,max=365"`
}

type Pricing struct {
	BasePrice float64 `json:"base_price" bson:"base_price" validate:"required,gt=0"`
	Currency  string  `json:"currency" bson:"currency" validate:"omitempty,iso4217"`
}

type JourneyCapacity struct {
	MinParticipants int `json:"min_participants" bson:"min_participants" validate:"min=0"`
	MaxParticipants int `json:"max_participants" bson:"max_participants" validate:"min=0"`
	CurrentBookings int `json:"current_bookings" bson:"current_bookings" validate:"min=0"`
}

type Schedule struct {
	StartDate time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" bson:"end_date" validate:"omitempty,gtfield=StartDate"`
}

type Review struct {
	AuthorID  string    `json:"author_id" bson:"author_id" validate:"required,mongodb"`
	Rating    int       `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty" validate:"omitempty,max=1000"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Journey is a sellable trip product.
type Journey struct {
	ID           string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string          `json:"name" bson:"name" validate:"required,min=2,max=150"`
	Description  string          `json:"description" bson:"description" validate:"required,min=2,max=2000"`
	Category     JourneyCategory `json:"category" bson:"category" validate:"omitempty,oneof=adventure cultural beach city nature cruise other"`
	Type         JourneyType     `json:"type" bson:"type" validate:"omitempty,oneof=guided self_guided custom group private"`
	Duration     Duration        `json:"duration" bson:"duration"`
	Destinations []string        `json:"destinations,omitempty" bson:"destinations,omitempty" validate:"omitempty,dive,min=2,max=100"`
	Pricing      Pricing         `json:"pricing" bson:"pricing"`
	Capacity     JourneyCapacity `json:"capacity" bson:"capacity"`
	Schedule     Schedule        `json:"schedule" bson:"schedule"`
	ProviderID   string          `json:"provider_id,omitempty" bson:"provider_id,omitempty" validate:"omitempty,mongodb"`
	GuideID      string          `json:"guide_id,omitempty" bson:"guide_id,omitempty" validate:"omitempty,mongodb"`
	Status       JourneyStatus   `json:"status" bson:"status" validate:"omitempty,oneof=draft active inactive in_progress completed cancelled archived suspended"`
	Itinerary    string          `json:"itinerary,omitempty" bson:"itinerary,omitempty" validate:"omitempty,max=5000"`
	GuideNotes   string          `json:"guide_notes,omitempty" bson:"guide_notes,omitempty" validate:"omitempty,max=2000"`
	Reviews      []Review        `json:"reviews,omitempty" bson:"reviews,omitempty" validate:"omitempty,dive"`

	Meta Meta `json:"meta" bson:"meta"`
}

// AdjustCapacity adds delta to the booked count, clamping at zero.
// There is no upper clamp: exceeding MaxParticipants is visible to
// callers but not prevented here.
func (j *Journey) AdjustCapacity(delta int) {
	j.Capacity.CurrentBookings += delta
	if j.Capacity.CurrentBookings < 0 {
		j.Capacity.CurrentBookings = 0
	}
}

// AverageReviewRating averages review ratings, 0 when there are none.
func (j *Journey) AverageReviewRating() float64 {
	if len(j.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, rev := range j.Reviews {
		sum += rev.Rating
	}
	return float64(sum) / float64(len(j.Reviews))
}

// JourneyPatch carries the mutable Journey attributes.
type JourneyPatch struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Description  *string          `json:"description,omitempty" validate:"omitempty,min=2,max=2000"`
	Category     *JourneyCategory `json:"category,omitempty" validate:"omitempty,oneof=adventure cultural beach city nature cruise other"`
	Type         *JourneyType     `json:"type,omitempty" validate:"omitempty,oneof=guided self_guided custom group private"`
	Duration     *Duration        `json:"duration,omitempty"`
	Destinations *[]string        `json:"destinations,omitempty" validate:"omitempty,dive,min=2,max=100"`
	Pricing      *Pricing         `json:"pricing,omitempty"`
	Capacity     *JourneyCapacity `json:"capacity,omitempty"`
	Schedule     *Schedule        `json:"schedule,omitempty"`
	ProviderID   *string          `json:"provider_id,omitempty" validate:"omitempty,mongodb"`
	GuideID      *string          `json:"guide_id,omitempty" validate:"omitempty,mongodb"`
	Itinerary    *string          `json:"itinerary,omitempty" validate:"omitempty,max=5000"`
	GuideNotes   *string          `json:"guide_notes,omitempty" validate:"omitempty,max=2000"`
}

// JourneyStats is the read-only aggregation over stored journeys.
type JourneyStats struct {
	Total            int64            `json:"total"`
	Deleted          int64            `json:"deleted"`
	ByStatus         map[string]int64 `json:"by_status"`
	ByCategory       map[string]int64 `json:"by_category"`
	CreatedLast7Days int64            `json:"created_last_7_days"`
	TotalBasePrice   float64          `json:"total_base_price"`
}
