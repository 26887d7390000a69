package service

import (
	"context"
	"testing"
	"time"

	providererrors "tourdesk/internal/providers/errors"
	"tourdesk/internal/providers/validator"
	"tourdesk/pkg/config"
	mongotx "tourdesk/pkg/db/mongo"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/events"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockProviderRepository struct {
	createFunc       func(ctx context.Context, provider *model.Provider) error
	findByIDFunc     func(ctx context.Context, id string, includeDeleted bool) (*model.Provider, error)
	findAllFunc      func(ctx context.Context, limit int, offset int64) ([]*model.Provider, error)
	countFunc        func(ctx context.Context) (int64, error)
	updateFunc       func(ctx context.Context, id string, provider *model.Provider) (*mongo.UpdateResult, error)
	existsByNameFunc func(ctx context.Context, name string, excludeID string) (bool, error)
	transactions     int
}

func (m *mockProviderRepository) Create(ctx context.Context, provider *model.Provider) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, provider)
	}
	provider.ID = "64b000000000000000000001"
	return nil
}

func (m *mockProviderRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Provider, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id, includeDeleted)
	}
	return nil, providererrors.ErrNotFound
}

func (m *mockProviderRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Provider{}, nil
}

func (m *mockProviderRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockProviderRepository) Update(ctx context.Context, id string, provider *model.Provider) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, provider)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockProviderRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	if m.existsByNameFunc != nil {
		return m.existsByNameFunc(ctx, name, excludeID)
	}
	return false, nil
}

func (m *mockProviderRepository) Stats(ctx context.Context) (*model.ProviderStats, error) {
	return &model.ProviderStats{}, nil
}

func (m *mockProviderRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.transactions++
	return fn(nil)
}

type mockJourneyCounter struct {
	countFunc func(ctx context.Context, providerID string) (int64, error)
}

func (m *mockJourneyCounter) CountActiveByProvider(ctx context.Context, providerID string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, providerID)
	}
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func newTestService(repo *mockProviderRepository, journeys *mockJourneyCounter) ProviderService {
	cfg := testConfig()
	if journeys == nil {
		journeys = &mockJourneyCounter{}
	}
	return NewProviderService(repo, journeys, validator.NewProviderValidator(cfg.Log), events.Noop{}, cfg)
}

func validProvider() *model.Provider {
	return &model.Provider{
		Name: "Alpine Tours",
		Type: model.ProviderTypeAgency,
	}
}

func TestCreate_Defaults(t *testing.T) {
	service := newTestService(&mockProviderRepository{}, nil)

	created, err := service.Create(context.Background(), validProvider(), "actor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != model.ProviderStatusPending {
		t.Errorf("expected default status pending, got %s", created.Status)
	}
	if created.Meta.CreatedBy != "actor-1" {
		t.Errorf("expected created_by actor-1, got %s", created.Meta.CreatedBy)
	}
	if created.Meta.IsDeleted {
		t.Error("new provider must not be deleted")
	}
}

func TestCreate_RatingOutOfRange(t *testing.T) {
	service := newTestService(&mockProviderRepository{}, nil)

	provider := validProvider()
	provider.Rating.Average = 7

	_, err := service.Create(context.Background(), provider, "actor-1")
	if err == nil {
		t.Fatal("expected error for out-of-range rating")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, code)
	}
}

func TestCreate_NameTaken(t *testing.T) {
	repo := &mockProviderRepository{
		existsByNameFunc: func(ctx context.Context, name string, excludeID string) (bool, error) {
			return true, nil
		},
	}
	service := newTestService(repo, nil)

	_, err := service.Create(context.Background(), validProvider(), "actor-1")
	if err == nil {
		t.Fatal("expected error for duplicate name")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, code)
	}
}

func TestCreate_UnknownType(t *testing.T) {
	service := newTestService(&mockProviderRepository{}, nil)

	provider := validProvider()
	provider.Type = "cruise"

	_, err := service.Create(context.Background(), provider, "actor-1")
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, code)
	}
}

func TestDelete_BlockedByActiveJourneys(t *testing.T) {
	repo := &mockProviderRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Provider, error) {
			p := validProvider()
			p.ID = id
			return p, nil
		},
	}
	journeys := &mockJourneyCounter{
		countFunc: func(ctx context.Context, providerID string) (int64, error) {
			return 3, nil
		},
	}
	service := newTestService(repo, journeys)

	err := service.Delete(context.Background(), "64b000000000000000000001", "actor-1")
	if err == nil {
		t.Fatal("expected error for provider with active journeys")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, code)
	}
}

func TestDelete_SoftDeletes(t *testing.T) {
	var updated *model.Provider
	repo := &mockProviderRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Provider, error) {
			p := validProvider()
			p.ID = id
			return p, nil
		},
		updateFunc: func(ctx context.Context, id string, provider *model.Provider) (*mongo.UpdateResult, error) {
			updated = provider
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	service := newTestService(repo, nil)

	if err := service.Delete(context.Background(), "64b000000000000000000001", "actor-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected an update to be written")
	}
	if !updated.Meta.IsDeleted {
		t.Error("expected is_deleted to be set")
	}
	if updated.Meta.DeletedBy != "actor-2" {
		t.Errorf("expected deleted_by actor-2, got %s", updated.Meta.DeletedBy)
	}
	if repo.transactions != 1 {
		t.Errorf("expected delete to run in a transaction, got %d", repo.transactions)
	}
}

func TestRestore_NotDeleted(t *testing.T) {
	repo := &mockProviderRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Provider, error) {
			p := validProvider()
			p.ID = id
			return p, nil
		},
	}
	service := newTestService(repo, nil)

	_, err := service.Restore(context.Background(), "64b000000000000000000001", "actor-1")
	if err == nil {
		t.Fatal("expected error restoring a live provider")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidState {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidState, code)
	}
}

func TestAddRating_UpdatesBreakdown(t *testing.T) {
	var updated *model.Provider
	repo := &mockProviderRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Provider, error) {
			p := validProvider()
			p.ID = id
			return p, nil
		},
		updateFunc: func(ctx context.Context, id string, provider *model.Provider) (*mongo.UpdateResult, error) {
			updated = provider
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	service := newTestService(repo, nil)

	result, err := service.AddRating(context.Background(), "64b000000000000000000001", 4, "actor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rating.Count != 1 {
		t.Errorf("expected rating count 1, got %d", result.Rating.Count)
	}
	if result.Rating.Average != 4 {
		t.Errorf("expected average 4, got %f", result.Rating.Average)
	}
	if updated.Rating.Breakdown.Four != 1 {
		t.Errorf("expected one 4-star rating, got %d", updated.Rating.Breakdown.Four)
	}
}

func TestAddRating_OutOfRange(t *testing.T) {
	service := newTestService(&mockProviderRepository{}, nil)

	for _, value := range []int{0, 6, -1} {
		_, err := service.AddRating(context.Background(), "64b000000000000000000001", value, "actor-1")
		if err == nil {
			t.Fatalf("expected error for rating %d", value)
		}
		if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidInput {
			t.Errorf("rating %d: expected %s, got %s", value, apperrors.CodeInvalidInput, code)
		}
	}
}

func TestGetAll_Concurrent(t *testing.T) {
	repo := &mockProviderRepository{
		countFunc: func(ctx context.Context) (int64, error) {
			time.Sleep(5 * time.Millisecond)
			return 42, nil
		},
		findAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Provider, error) {
			time.Sleep(5 * time.Millisecond)
			return []*model.Provider{validProvider(), validProvider()}, nil
		},
	}
	service := newTestService(repo, nil)

	for i := 0; i < 10; i++ {
		providers, count, err := service.GetAll(context.Background(), 10, 0)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if count != 42 {
			t.Errorf("iteration %d: expected count 42, got %d", i, count)
		}
		if len(providers) != 2 {
			t.Errorf("iteration %d: expected 2 providers, got %d", i, len(providers))
		}
	}
}

func TestGetByID_NotFound(t *testing.T) {
	service := newTestService(&mockProviderRepository{}, nil)

	_, err := service.GetByID(context.Background(), "64b000000000000000000009")
	if err == nil {
		t.Fatal("expected error for missing provider")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, code)
	}
}
