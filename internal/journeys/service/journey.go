package service

import (
	"context"
	"errors"
	"sync"

	journeyerrors "tourdesk/internal/journeys/errors"
	"tourdesk/internal/journeys/repository"
	"tourdesk/internal/journeys/validator"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/events"
	"tourdesk/pkg/model"
	"tourdesk/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// GuideDirectory resolves guide users for assignment checks.
type GuideDirectory interface {
	FindByID(ctx context.Context, id string, includeDeleted bool) (*model.User, error)
}

// ActiveBookingCounter is the slice of the booking store the journey
// service needs for its deletion guard.
type ActiveBookingCounter interface {
	CountActiveByJourney(ctx context.Context, journeyID string) (int64, error)
}

type JourneyService interface {
	Create(ctx context.Context, journey *model.Journey, actorID string) (*model.Journey, error)
	GetByID(ctx context.Context, id string) (*model.Journey, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Journey, int64, error)
	Update(ctx context.Context, id string, patch *model.JourneyPatch, actorID string) (*model.Journey, error)
	AssignGuide(ctx context.Context, id string, guideID string, notes string, actorID string) (*model.Journey, error)
	UpdateStatus(ctx context.Context, id string, status model.JourneyStatus, actorID string, role model.Role) (*model.Journey, error)
	Delete(ctx context.Context, id string, actorID string) error
	Restore(ctx context.Context, id string, actorID string) (*model.Journey, error)
	AdjustCapacity(ctx context.Context, id string, delta int, actorID string) (*model.Journey, error)
	Stats(ctx context.Context) (*model.JourneyStats, error)
}

type journeyService struct {
	repo      repository.JourneyRepository
	guides    GuideDirectory
	bookings  ActiveBookingCounter
	validator *validator.JourneyValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewJourneyService(
	repo repository.JourneyRepository,
	guides GuideDirectory,
	bookings ActiveBookingCounter,
	journeyValidator *validator.JourneyValidator,
	publisher events.Publisher,
	cfg *config.Config,
) JourneyService {
	return &journeyService{
		repo:      repo,
		guides:    guides,
		bookings:  bookings,
		validator: journeyValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *journeyService) Create(ctx context.Context, journey *model.Journey, actorID string) (*model.Journey, error) {
	s.sanitize(journey)

	if journey.Name == "" {
		return nil, apperrors.InvalidInput("journey name is required")
	}
	if journey.Description == "" {
		return nil, apperrors.InvalidInput("journey description is required")
	}
	if journey.Pricing.BasePrice <= 0 {
		return nil, apperrors.InvalidInput("journey price must be positive")
	}
	if journey.Duration.Days <= 0 {
		return nil, apperrors.InvalidInput("journey duration is required")
	}

	s.applyDefaults(journey)
	if errs := s.validator.ValidateCreate(journey); len(errs) > 0 {
		return nil, apperrors.Validation("invalid journey", errs.Details())
	}

	if journey.GuideID != "" {
		if err := s.resolveGuide(ctx, journey.GuideID); err != nil {
			return nil, err
		}
	}

	journey.Meta = model.NewMeta(actorID)
	if err := s.repo.Create(ctx, journey); err != nil {
		s.cfg.Log.Error("Failed to create journey", "error", err)
		return nil, apperrors.Storage("failed to create journey", err)
	}

	s.cfg.Log.Info("Journey created",
		"id", journey.ID,
		"name", journey.Name,
		"status", journey.Status,
	)
	_ = s.publisher.Publish(ctx, events.JourneyCreated, journey.ID, journey)

	return journey, nil
}

func (s *journeyService) GetByID(ctx context.Context, id string) (*model.Journey, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("journey ID cannot be empty")
	}

	journey, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return journey, nil
}

func (s *journeyService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Journey, int64, error) {
	var (
		count    int64
		journeys []*model.Journey
		errCount error
		errFind  error
		wg       sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		if count, errCount = s.repo.Count(ctx); errCount != nil {
			s.cfg.Log.Error("Failed to count journeys", "error", errCount)
			errCount = apperrors.Storage("failed to count journeys", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		if journeys, errFind = s.repo.FindAll(ctx, limit, offset); errFind != nil {
			s.cfg.Log.Error("Failed to list journeys", "error", errFind)
			errFind = apperrors.Storage("failed to retrieve journeys", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return journeys, count, nil
}

func (s *journeyService) Update(ctx context.Context, id string, patch *model.JourneyPatch, actorID string) (*model.Journey, error) {
	if patch.Pricing != nil && patch.Pricing.BasePrice <= 0 {
		return nil, apperrors.InvalidInput("journey price must be positive")
	}
	if errs := s.validator.ValidatePatch(patch); len(errs) > 0 {
		return nil, apperrors.Validation("invalid journey update", errs.Details())
	}

	journey, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	if patch.GuideID != nil && *patch.GuideID != "" && *patch.GuideID != journey.GuideID {
		if err := s.resolveGuide(ctx, *patch.GuideID); err != nil {
			return nil, err
		}
	}

	s.applyPatch(journey, patch)

	journey.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, journey); err != nil {
		return nil, s.translate(err, id)
	}

	_ = s.publisher.Publish(ctx, events.JourneyUpdated, id, journey)
	return journey, nil
}

func (s *journeyService) AssignGuide(ctx context.Context, id string, guideID string, notes string, actorID string) (*model.Journey, error) {
	if guideID == "" {
		return nil, apperrors.InvalidInput("guide ID cannot be empty")
	}

	if err := s.resolveGuide(ctx, guideID); err != nil {
		return nil, err
	}

	journey, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	conflicts, err := s.repo.FindGuideConflicts(ctx, guideID, journey.Schedule.StartDate, id)
	if err != nil {
		s.cfg.Log.Error("Failed to scan guide conflicts", "guide_id", guideID, "error", err)
		return nil, apperrors.Storage("failed to check guide availability", err)
	}
	if len(conflicts) > 0 {
		return nil, apperrors.Conflict("guide already assigned to another journey on this date")
	}

	journey.GuideID = guideID
	if notes != "" {
		journey.GuideNotes = sanitizer.TrimAndNormalize(notes)
	}

	journey.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, journey); err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Guide assigned",
		"journey_id", id,
		"guide_id", guideID,
		"actor", actorID,
	)
	_ = s.publisher.Publish(ctx, events.JourneyGuideAssigned, id, map[string]any{
		"journey_id": id,
		"guide_id":   guideID,
		"start_date": journey.Schedule.StartDate,
	})

	return journey, nil
}

func (s *journeyService) UpdateStatus(ctx context.Context, id string, status model.JourneyStatus, actorID string, role model.Role) (*model.Journey, error) {
	if !status.GuideTransitionable() {
		return nil, apperrors.InvalidInput("status must be one of [active, in_progress, completed, cancelled]")
	}

	journey, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	switch {
	case role.IsStaff():
	case role == model.RoleGuide:
		if journey.GuideID != actorID {
			return nil, apperrors.Forbidden("journey is not assigned to this guide")
		}
	default:
		return nil, apperrors.Forbidden("only staff or the assigned guide may change journey status")
	}

	previous := journey.Status
	journey.Status = status
	journey.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, journey); err != nil {
		return nil, s.translate(err, id)
	}

	_ = s.publisher.Publish(ctx, events.JourneyStatusChanged, id, map[string]any{
		"journey_id": id,
		"from":       previous,
		"to":         status,
	})
	return journey, nil
}

func (s *journeyService) Delete(ctx context.Context, id string, actorID string) error {
	// The active-booking guard and the soft-delete write run in one
	// transaction so a booking created in between cannot slip past it.
	var journey *model.Journey
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		journey, err = s.repo.FindByID(sessCtx, id, false)
		if err != nil {
			return s.translate(err, id)
		}

		active, err := s.bookings.CountActiveByJourney(sessCtx, id)
		if err != nil {
			s.cfg.Log.Error("Failed to count active bookings for journey", "journey_id", id, "error", err)
			return apperrors.Storage("failed to check journey bookings", err)
		}
		if active > 0 {
			return apperrors.Conflict("journey has active bookings")
		}

		journey.Meta.Touch(actorID)
		journey.Meta.SoftDelete(actorID)
		if _, err := s.repo.Update(sessCtx, id, journey); err != nil {
			return s.translate(err, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Journey deleted", "id", id, "actor", actorID)
	_ = s.publisher.Publish(ctx, events.JourneyDeleted, id, journey)
	return nil
}

func (s *journeyService) Restore(ctx context.Context, id string, actorID string) (*model.Journey, error) {
	journey, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, s.translate(err, id)
	}
	if !journey.Meta.IsDeleted {
		return nil, apperrors.InvalidState("journey is not deleted")
	}

	journey.Meta.Restore()
	journey.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, journey); err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Journey restored", "id", id, "actor", actorID)
	_ = s.publisher.Publish(ctx, events.JourneyRestored, id, journey)
	return journey, nil
}

// AdjustCapacity shifts the booked count by delta, clamping at zero.
// There is deliberately no rejection at MaxParticipants; overbooking
// stays visible in the returned journey for callers that care.
func (s *journeyService) AdjustCapacity(ctx context.Context, id string, delta int, actorID string) (*model.Journey, error) {
	journey, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	journey.AdjustCapacity(delta)
	journey.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, journey); err != nil {
		return nil, s.translate(err, id)
	}

	return journey, nil
}

func (s *journeyService) Stats(ctx context.Context) (*model.JourneyStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate journey stats", "error", err)
		return nil, apperrors.Storage("failed to aggregate journey stats", err)
	}
	return stats, nil
}

// resolveGuide verifies the referenced user exists, is not deleted, and
// actually has the guide role.
func (s *journeyService) resolveGuide(ctx context.Context, guideID string) error {
	guide, err := s.guides.FindByID(ctx, guideID, false)
	if err != nil || guide == nil {
		return apperrors.NotFoundWithID("Guide", guideID)
	}
	if guide.Role != model.RoleGuide {
		return apperrors.NotFoundWithID("Guide", guideID)
	}
	return nil
}

func (s *journeyService) sanitize(journey *model.Journey) {
	journey.Name = sanitizer.NormalizeName(journey.Name)
	journey.Description = sanitizer.TrimAndNormalize(journey.Description)
	journey.Destinations = sanitizer.NormalizeDestinations(journey.Destinations)
	journey.Itinerary = sanitizer.TrimAndNormalize(journey.Itinerary)
	journey.GuideNotes = sanitizer.TrimAndNormalize(journey.GuideNotes)
}

func (s *journeyService) applyDefaults(journey *model.Journey) {
	if journey.Status == "" {
		journey.Status = model.JourneyStatusDraft
	}
	if journey.Type == "" {
		journey.Type = model.JourneyTypeGuided
	}
	if journey.Category == "" {
		journey.Category = model.JourneyCategoryOther
	}
}

func (s *journeyService) applyPatch(journey *model.Journey, patch *model.JourneyPatch) {
	if patch.Name != nil {
		journey.Name = sanitizer.NormalizeName(*patch.Name)
	}
	if patch.Description != nil {
		journey.Description = sanitizer.TrimAndNormalize(*patch.Description)
	}
	if patch.Category != nil {
		journey.Category = *patch.Category
	}
	if patch.Type != nil {
		journey.Type = *patch.Type
	}
	if patch.Duration != nil {
		journey.Duration = *patch.Duration
	}
	if patch.Destinations != nil {
		journey.Destinations = sanitizer.NormalizeDestinations(*patch.Destinations)
	}
	if patch.Pricing != nil {
		journey.Pricing = *patch.Pricing
	}
	if patch.Capacity != nil {
		journey.Capacity = *patch.Capacity
		if journey.Capacity.CurrentBookings < 0 {
			journey.Capacity.CurrentBookings = 0
		}
	}
	if patch.Schedule != nil {
		journey.Schedule = *patch.Schedule
	}
	if patch.ProviderID != nil {
		journey.ProviderID = *patch.ProviderID
	}
	if patch.GuideID != nil {
		journey.GuideID = *patch.GuideID
	}
	if patch.Itinerary != nil {
		journey.Itinerary = sanitizer.TrimAndNormalize(*patch.Itinerary)
	}
	if patch.GuideNotes != nil {
		journey.GuideNotes = sanitizer.TrimAndNormalize(*patch.GuideNotes)
	}
}

func (s *journeyService) translate(err error, id string) error {
	switch {
	case errors.Is(err, journeyerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Journey", id)
	case errors.Is(err, journeyerrors.ErrInvalidID):
		return apperrors.InvalidInput("invalid journey ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Storage("journey storage failure", err)
	}
}
