package service

import (
	"context"
	"errors"
	"sync"

	providererrors "tourdesk/internal/providers/errors"
	"tourdesk/internal/providers/repository"
	"tourdesk/internal/providers/validator"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/events"
	"tourdesk/pkg/model"
	"tourdesk/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// ActiveJourneyCounter is the slice of the journey store the provider
// service needs for its deletion guard.
type ActiveJourneyCounter interface {
	CountActiveByProvider(ctx context.Context, providerID string) (int64, error)
}

type ProviderService interface {
	Create(ctx context.Context, provider *model.Provider, actorID string) (*model.Provider, error)
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, int64, error)
	Update(ctx context.Context, id string, patch *model.ProviderPatch, actorID string) (*model.Provider, error)
	Delete(ctx context.Context, id string, actorID string) error
	Restore(ctx context.Context, id string, actorID string) (*model.Provider, error)
	AddRating(ctx context.Context, id string, value int, actorID string) (*model.Provider, error)
	Stats(ctx context.Context) (*model.ProviderStats, error)
}

type providerService struct {
	repo      repository.ProviderRepository
	journeys  ActiveJourneyCounter
	validator *validator.ProviderValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewProviderService(
	repo repository.ProviderRepository,
	journeys ActiveJourneyCounter,
	providerValidator *validator.ProviderValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ProviderService {
	return &providerService{
		repo:      repo,
		journeys:  journeys,
		validator: providerValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *providerService) Create(ctx context.Context, provider *model.Provider, actorID string) (*model.Provider, error) {
	s.sanitize(provider)

	if !provider.Type.Valid() {
		return nil, apperrors.InvalidInput("unknown provider type")
	}
	if provider.Rating.Average < 0 || provider.Rating.Average > 5 {
		return nil, apperrors.InvalidInput("rating must be between 0 and 5")
	}

	s.applyDefaults(provider)
	if errs := s.validator.ValidateCreate(provider); len(errs) > 0 {
		return nil, apperrors.Validation("invalid provider", errs.Details())
	}

	taken, err := s.repo.ExistsByName(ctx, provider.Name, "")
	if err != nil {
		return nil, s.translate(err, "")
	}
	if taken {
		return nil, apperrors.Conflict("provider name already in use")
	}

	provider.Meta = model.NewMeta(actorID)
	if err := s.repo.Create(ctx, provider); err != nil {
		s.cfg.Log.Error("Failed to create provider", "error", err)
		return nil, apperrors.Storage("failed to create provider", err)
	}

	s.cfg.Log.Info("Provider created",
		"id", provider.ID,
		"name", provider.Name,
		"type", provider.Type,
	)
	_ = s.publisher.Publish(ctx, events.ProviderCreated, provider.ID, provider)

	return provider, nil
}

func (s *providerService) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("provider ID cannot be empty")
	}

	provider, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return provider, nil
}

func (s *providerService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, int64, error) {
	var (
		count     int64
		providers []*model.Provider
		errCount  error
		errFind   error
		wg        sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		if count, errCount = s.repo.Count(ctx); errCount != nil {
			s.cfg.Log.Error("Failed to count providers", "error", errCount)
			errCount = apperrors.Storage("failed to count providers", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		if providers, errFind = s.repo.FindAll(ctx, limit, offset); errFind != nil {
			s.cfg.Log.Error("Failed to list providers", "error", errFind)
			errFind = apperrors.Storage("failed to retrieve providers", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return providers, count, nil
}

func (s *providerService) Update(ctx context.Context, id string, patch *model.ProviderPatch, actorID string) (*model.Provider, error) {
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, apperrors.InvalidInput("unknown provider type")
	}
	if patch.Rating != nil && (patch.Rating.Average < 0 || patch.Rating.Average > 5) {
		return nil, apperrors.InvalidInput("rating must be between 0 and 5")
	}
	if errs := s.validator.ValidatePatch(patch); len(errs) > 0 {
		return nil, apperrors.Validation("invalid provider update", errs.Details())
	}

	provider, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	if patch.Name != nil {
		name := sanitizer.NormalizeName(*patch.Name)
		taken, err := s.repo.ExistsByName(ctx, name, id)
		if err != nil {
			return nil, s.translate(err, id)
		}
		if taken {
			return nil, apperrors.Conflict("provider name already in use")
		}
		provider.Name = name
	}
	if patch.Type != nil {
		provider.Type = *patch.Type
	}
	if patch.Status != nil {
		provider.Status = *patch.Status
	}
	if patch.Rating != nil {
		provider.Rating = *patch.Rating
		provider.Rating.Recalculate()
	}
	if patch.Address != nil {
		provider.Address = *patch.Address
	}
	if patch.Contact != nil {
		provider.Contact = *patch.Contact
		provider.Contact.Email = sanitizer.NormalizeEmail(provider.Contact.Email)
		provider.Contact.Phone = sanitizer.NormalizePhone(provider.Contact.Phone)
	}

	provider.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, provider); err != nil {
		return nil, s.translate(err, id)
	}

	_ = s.publisher.Publish(ctx, events.ProviderUpdated, id, provider)
	return provider, nil
}

func (s *providerService) Delete(ctx context.Context, id string, actorID string) error {
	// Guard and soft-delete run in one transaction so a journey created
	// in between cannot slip past the dependency check.
	var provider *model.Provider
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		provider, err = s.repo.FindByID(sessCtx, id, false)
		if err != nil {
			return s.translate(err, id)
		}

		active, err := s.journeys.CountActiveByProvider(sessCtx, id)
		if err != nil {
			s.cfg.Log.Error("Failed to count active journeys for provider", "provider_id", id, "error", err)
			return apperrors.Storage("failed to check provider journeys", err)
		}
		if active > 0 {
			return apperrors.Conflict("provider has active journeys")
		}

		provider.Meta.Touch(actorID)
		provider.Meta.SoftDelete(actorID)
		if _, err := s.repo.Update(sessCtx, id, provider); err != nil {
			return s.translate(err, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Provider deleted", "id", id, "actor", actorID)
	_ = s.publisher.Publish(ctx, events.ProviderDeleted, id, provider)
	return nil
}

func (s *providerService) Restore(ctx context.Context, id string, actorID string) (*model.Provider, error) {
	provider, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, s.translate(err, id)
	}
	if !provider.Meta.IsDeleted {
		return nil, apperrors.InvalidState("provider is not deleted")
	}

	provider.Meta.Restore()
	provider.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, provider); err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Provider restored", "id", id, "actor", actorID)
	_ = s.publisher.Publish(ctx, events.ProviderRestored, id, provider)
	return provider, nil
}

func (s *providerService) AddRating(ctx context.Context, id string, value int, actorID string) (*model.Provider, error) {
	if value < 1 || value > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	provider, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	provider.Rating.Add(value)
	provider.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, provider); err != nil {
		return nil, s.translate(err, id)
	}

	_ = s.publisher.Publish(ctx, events.ProviderRated, id, map[string]any{
		"provider_id": id,
		"value":       value,
		"average":     provider.Rating.Average,
		"count":       provider.Rating.Count,
	})
	return provider, nil
}

func (s *providerService) Stats(ctx context.Context) (*model.ProviderStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate provider stats", "error", err)
		return nil, apperrors.Storage("failed to aggregate provider stats", err)
	}
	return stats, nil
}

func (s *providerService) sanitize(provider *model.Provider) {
	provider.Name = sanitizer.NormalizeName(provider.Name)
	provider.Contact.Email = sanitizer.NormalizeEmail(provider.Contact.Email)
	provider.Contact.Phone = sanitizer.NormalizePhone(provider.Contact.Phone)
	provider.Address.City = sanitizer.TrimAndNormalize(provider.Address.City)
	provider.Address.Country = sanitizer.TrimAndNormalize(provider.Address.Country)
}

func (s *providerService) applyDefaults(provider *model.Provider) {
	if provider.Status == "" {
		provider.Status = model.ProviderStatusPending
	}
	provider.Rating.Recalculate()
}

func (s *providerService) translate(err error, id string) error {
	switch {
	case errors.Is(err, providererrors.ErrNotFound):
		return apperrors.NotFoundWithID("Provider", id)
	case errors.Is(err, providererrors.ErrInvalidID):
		return apperrors.InvalidInput("invalid provider ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Storage("provider storage failure", err)
	}
}
