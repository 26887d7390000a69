package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingerrors "tourdesk/internal/bookings/errors"
	"tourdesk/internal/bookings/repository"
	"tourdesk/internal/bookings/validator"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/events"
	"tourdesk/pkg/model"
	"tourdesk/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// JourneyDirectory is the slice of the journey service the booking
// service needs: resolving the booked journey and moving its seat count.
type JourneyDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Journey, error)
	AdjustCapacity(ctx context.Context, id string, delta int, actorID string) (*model.Journey, error)
}

// CustomerDirectory resolves the customer a staff member books on
// behalf of.
type CustomerDirectory interface {
	FindByID(ctx context.Context, id string, includeDeleted bool) (*model.User, error)
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking, actorID string, role model.Role) (*model.Booking, error)
	GetByID(ctx context.Context, id string, actorID string, role model.Role) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	GetByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, patch *model.BookingPatch, actorID string) (*model.Booking, error)
	UpdateMine(ctx context.Context, id string, patch *model.BookingCustomerPatch, actorID string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus, actorID string, role model.Role) (*model.Booking, error)
	Cancel(ctx context.Context, id string, actorID string, role model.Role) (*model.Booking, error)
	Delete(ctx context.Context, id string, actorID string) error
	Restore(ctx context.Context, id string, actorID string) (*model.Booking, error)
	Stats(ctx context.Context) (*model.BookingStats, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	journeys  JourneyDirectory
	customers CustomerDirectory
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	journeys JourneyDirectory,
	customers CustomerDirectory,
	bookingValidator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		journeys:  journeys,
		customers: customers,
		validator: bookingValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking, actorID string, role model.Role) (*model.Booking, error) {
	// Customers can only book for themselves; staff may book on behalf
	// of any customer.
	if !role.IsStaff() {
		booking.CustomerID = actorID
	}
	if booking.CustomerID == "" {
		return nil, apperrors.InvalidInput("customer ID is required")
	}
	if booking.JourneyID == "" {
		return nil, apperrors.InvalidInput("journey ID is required")
	}
	if err := s.checkTravelDate(booking.TravelDate); err != nil {
		return nil, err
	}
	if role.IsStaff() {
		// Agents book on behalf of a customer; that customer must be a
		// live account.
		if _, err := s.customers.FindByID(ctx, booking.CustomerID, false); err != nil {
			return nil, err
		}
	}

	journey, err := s.journeys.GetByID(ctx, booking.JourneyID)
	if err != nil {
		return nil, err
	}
	// A journey that is not open for sale reads as missing to bookers.
	if journey.Status != model.JourneyStatusActive {
		return nil, apperrors.NotFoundWithID("Journey", booking.JourneyID)
	}

	s.sanitize(booking)
	s.applyDefaults(booking)
	booking.GuideID = journey.GuideID
	s.derivePrice(booking, journey)

	if errs := s.validator.ValidateCreate(booking); len(errs) > 0 {
		return nil, apperrors.Validation("invalid booking", errs.Details())
	}

	// Booking write and seat take commit or roll back together.
	booking.Meta = model.NewMeta(actorID)
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, booking); err != nil {
			s.cfg.Log.Error("Failed to create booking", "error", err)
			return apperrors.Storage("failed to create booking", err)
		}
		if _, err := s.journeys.AdjustCapacity(sessCtx, booking.JourneyID, 1, actorID); err != nil {
			s.cfg.Log.Error("Failed to take journey seat", "journey_id", booking.JourneyID, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"journey_id", booking.JourneyID,
		"customer_id", booking.CustomerID,
		"total_price", booking.TotalPrice,
	)
	_ = s.publisher.Publish(ctx, events.BookingCreated, booking.ID, booking)

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string, actorID string, role model.Role) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}
	if !role.IsStaff() && booking.CustomerID != actorID {
		return nil, apperrors.Forbidden("booking belongs to another customer")
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var (
		count    int64
		bookings []*model.Booking
		errCount error
		errFind  error
		wg       sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		if count, errCount = s.repo.Count(ctx); errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Storage("failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		if bookings, errFind = s.repo.FindAll(ctx, limit, offset); errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Storage("failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) GetByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if customerID == "" {
		return nil, 0, apperrors.InvalidInput("customer ID cannot be empty")
	}

	var (
		count    int64
		bookings []*model.Booking
		errCount error
		errFind  error
		wg       sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		if count, errCount = s.repo.CountByCustomer(ctx, customerID); errCount != nil {
			s.cfg.Log.Error("Failed to count customer bookings", "customer_id", customerID, "error", errCount)
			errCount = apperrors.Storage("failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		if bookings, errFind = s.repo.FindByCustomer(ctx, customerID, limit, offset); errFind != nil {
			s.cfg.Log.Error("Failed to list customer bookings", "customer_id", customerID, "error", errFind)
			errFind = apperrors.Storage("failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, id string, patch *model.BookingPatch, actorID string) (*model.Booking, error) {
	if patch.Status != nil {
		return nil, apperrors.InvalidInput("status cannot be set through an update, use the status endpoint")
	}
	if patch.TravelDate != nil {
		if err := s.checkTravelDate(*patch.TravelDate); err != nil {
			return nil, err
		}
	}
	if errs := s.validator.ValidatePatch(patch); len(errs) > 0 {
		return nil, apperrors.Validation("invalid booking update", errs.Details())
	}

	booking, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	reprice := s.applyPatch(booking, patch)
	if reprice {
		journey, err := s.journeys.GetByID(ctx, booking.JourneyID)
		if err != nil {
			return nil, err
		}
		s.derivePrice(booking, journey)
	} else if patch.Discount != nil || patch.Tax != nil {
		booking.ComputeTotal()
	}

	booking.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, booking); err != nil {
		return nil, s.translate(err, id)
	}

	_ = s.publisher.Publish(ctx, events.BookingUpdated, id, booking)
	return booking, nil
}

func (s *bookingService) UpdateMine(ctx context.Context, id string, patch *model.BookingCustomerPatch, actorID string) (*model.Booking, error) {
	if patch.TravelDate != nil {
		if err := s.checkTravelDate(*patch.TravelDate); err != nil {
			return nil, err
		}
	}
	if errs := s.validator.ValidateCustomerPatch(patch); len(errs) > 0 {
		return nil, apperrors.Validation("invalid booking update", errs.Details())
	}

	booking, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}
	if booking.CustomerID != actorID {
		return nil, apperrors.Forbidden("booking belongs to another customer")
	}
	if booking.Status.LocksCustomerEdits() {
		return nil, apperrors.InvalidState("booking can no longer be modified")
	}

	reprice := s.applyCustomerPatch(booking, patch)
	if reprice {
		journey, err := s.journeys.GetByID(ctx, booking.JourneyID)
		if err != nil {
			return nil, err
		}
		s.derivePrice(booking, journey)
	}

	booking.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, booking); err != nil {
		return nil, s.translate(err, id)
	}

	_ = s.publisher.Publish(ctx, events.BookingUpdated, id, booking)
	return booking, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, status model.BookingStatus, actorID string, role model.Role) (*model.Booking, error) {
	if !status.Valid() {
		return nil, apperrors.InvalidInput("unknown booking status")
	}

	booking, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	if !role.IsStaff() {
		if booking.CustomerID != actorID {
			return nil, apperrors.Forbidden("booking belongs to another customer")
		}
		if !booking.Status.CanTransitionTo(status) {
			return nil, apperrors.InvalidState("booking cannot move from " + string(booking.Status) + " to " + string(status))
		}
	}

	previous := booking.Status
	wasActive := bookingHoldsSeat(previous)
	booking.Status = status
	if status == model.BookingStatusCancelled {
		booking.PaymentStatus = model.PaymentStatusCancelled
	}

	booking.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, booking); err != nil {
		return nil, s.translate(err, id)
	}

	if wasActive && !bookingHoldsSeat(status) {
		s.adjustJourneyCapacity(ctx, booking.JourneyID, -1, actorID)
	} else if !wasActive && bookingHoldsSeat(status) {
		// Staff reinstatement of a cancelled or no-show booking takes
		// the seat back.
		s.adjustJourneyCapacity(ctx, booking.JourneyID, 1, actorID)
	}

	s.cfg.Log.Info("Booking status changed",
		"id", id,
		"from", previous,
		"to", status,
		"actor", actorID,
	)
	_ = s.publisher.Publish(ctx, events.BookingStatusChanged, id, map[string]any{
		"booking_id": id,
		"from":       previous,
		"to":         status,
	})
	if status == model.BookingStatusCancelled {
		_ = s.publisher.Publish(ctx, events.BookingCancelled, id, booking)
	}

	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string, actorID string, role model.Role) (*model.Booking, error) {
	return s.UpdateStatus(ctx, id, model.BookingStatusCancelled, actorID, role)
}

func (s *bookingService) Delete(ctx context.Context, id string, actorID string) error {
	booking, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return s.translate(err, id)
	}

	booking.Meta.Touch(actorID)
	booking.Meta.SoftDelete(actorID)
	if _, err := s.repo.Update(ctx, id, booking); err != nil {
		return s.translate(err, id)
	}

	if bookingHoldsSeat(booking.Status) {
		s.adjustJourneyCapacity(ctx, booking.JourneyID, -1, actorID)
	}

	s.cfg.Log.Info("Booking deleted", "id", id, "actor", actorID)
	_ = s.publisher.Publish(ctx, events.BookingDeleted, id, booking)
	return nil
}

func (s *bookingService) Restore(ctx context.Context, id string, actorID string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, s.translate(err, id)
	}
	if !booking.Meta.IsDeleted {
		return nil, apperrors.InvalidState("booking is not deleted")
	}

	booking.Meta.Restore()
	booking.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, booking); err != nil {
		return nil, s.translate(err, id)
	}

	if bookingHoldsSeat(booking.Status) {
		s.adjustJourneyCapacity(ctx, booking.JourneyID, 1, actorID)
	}

	s.cfg.Log.Info("Booking restored", "id", id, "actor", actorID)
	_ = s.publisher.Publish(ctx, events.BookingRestored, id, booking)
	return booking, nil
}

func (s *bookingService) Stats(ctx context.Context) (*model.BookingStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate booking stats", "error", err)
		return nil, apperrors.Storage("failed to aggregate booking stats", err)
	}
	return stats, nil
}

// derivePrice recomputes the price chain from the journey's base price
// and the billing headcount. A creation-time total supplied by staff is
// honored as an override; once derived, updates always recompute.
func (s *bookingService) derivePrice(booking *model.Booking, journey *model.Journey) {
	booking.BasePrice = journey.Pricing.BasePrice * float64(booking.ParticipantCount())
	if booking.TotalPrice != 0 && booking.ID == "" {
		return
	}
	booking.ComputeTotal()
}

func (s *bookingService) adjustJourneyCapacity(ctx context.Context, journeyID string, delta int, actorID string) {
	if _, err := s.journeys.AdjustCapacity(ctx, journeyID, delta, actorID); err != nil {
		// The booking write already succeeded; a stale seat count is
		// recoverable, a lost booking is not.
		s.cfg.Log.Error("Failed to adjust journey capacity",
			"journey_id", journeyID,
			"delta", delta,
			"error", err,
		)
	}
}

func (s *bookingService) checkTravelDate(date time.Time) error {
	if date.IsZero() {
		return apperrors.InvalidInput("travel date is required")
	}
	if !date.After(time.Now().UTC()) {
		return apperrors.InvalidInput("travel date must be in the future")
	}
	return nil
}

func (s *bookingService) sanitize(booking *model.Booking) {
	booking.ContactEmail = sanitizer.NormalizeEmail(booking.ContactEmail)
	booking.ContactPhone = sanitizer.NormalizePhone(booking.ContactPhone)
	for i := range booking.Passengers {
		booking.Passengers[i].FirstName = sanitizer.NormalizeName(booking.Passengers[i].FirstName)
		booking.Passengers[i].LastName = sanitizer.NormalizeName(booking.Passengers[i].LastName)
	}
}

func (s *bookingService) applyDefaults(booking *model.Booking) {
	if booking.Status == "" {
		booking.Status = model.BookingStatusPending
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = model.PaymentStatusPending
	}
}

// applyPatch copies staff-editable fields and reports whether the
// billing headcount changed.
func (s *bookingService) applyPatch(booking *model.Booking, patch *model.BookingPatch) bool {
	reprice := false
	if patch.TravelDate != nil {
		booking.TravelDate = *patch.TravelDate
	}
	if patch.Passengers != nil {
		booking.Passengers = *patch.Passengers
		reprice = true
	}
	if patch.Participants != nil {
		booking.Participants = *patch.Participants
		reprice = true
	}
	if patch.Discount != nil {
		booking.Discount = *patch.Discount
	}
	if patch.Tax != nil {
		booking.Tax = *patch.Tax
	}
	if patch.PaymentStatus != nil {
		booking.PaymentStatus = *patch.PaymentStatus
	}
	if patch.PaymentMethod != nil {
		booking.PaymentMethod = *patch.PaymentMethod
	}
	if patch.ContactEmail != nil {
		booking.ContactEmail = sanitizer.NormalizeEmail(*patch.ContactEmail)
	}
	if patch.ContactPhone != nil {
		booking.ContactPhone = sanitizer.NormalizePhone(*patch.ContactPhone)
	}
	return reprice
}

func (s *bookingService) applyCustomerPatch(booking *model.Booking, patch *model.BookingCustomerPatch) bool {
	reprice := false
	if patch.TravelDate != nil {
		booking.TravelDate = *patch.TravelDate
	}
	if patch.Passengers != nil {
		booking.Passengers = *patch.Passengers
		reprice = true
	}
	if patch.Participants != nil {
		booking.Participants = *patch.Participants
		reprice = true
	}
	if patch.ContactEmail != nil {
		booking.ContactEmail = sanitizer.NormalizeEmail(*patch.ContactEmail)
	}
	if patch.ContactPhone != nil {
		booking.ContactPhone = sanitizer.NormalizePhone(*patch.ContactPhone)
	}
	return reprice
}

// bookingHoldsSeat reports whether the status still occupies capacity
// on the journey.
func bookingHoldsSeat(status model.BookingStatus) bool {
	switch status {
	case model.BookingStatusPending, model.BookingStatusConfirmed, model.BookingStatusInProgress:
		return true
	}
	return false
}

func (s *bookingService) translate(err error, id string) error {
	switch {
	case errors.Is(err, bookingerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingerrors.ErrInvalidID):
		return apperrors.InvalidInput("invalid booking ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Storage("booking storage failure", err)
	}
}
