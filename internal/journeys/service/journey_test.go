package service

import (
	"context"
	"testing"
	"time"

	journeyerrors "tourdesk/internal/journeys/errors"
	"tourdesk/internal/journeys/validator"
	"tourdesk/pkg/config"
	mongotx "tourdesk/pkg/db/mongo"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/events"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	journeyID = "64a000000000000000000001"
	otherID   = "64a000000000000000000002"
	guideID   = "64c000000000000000000001"
)

type mockJourneyRepository struct {
	createFunc             func(ctx context.Context, journey *model.Journey) error
	findByIDFunc           func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error)
	updateFunc             func(ctx context.Context, id string, journey *model.Journey) (*mongo.UpdateResult, error)
	findGuideConflictsFunc func(ctx context.Context, guideID string, date time.Time, excludeID string) ([]*model.Journey, error)
	transactions           int
}

func (m *mockJourneyRepository) Create(ctx context.Context, journey *model.Journey) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, journey)
	}
	journey.ID = journeyID
	return nil
}

func (m *mockJourneyRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id, includeDeleted)
	}
	return nil, journeyerrors.ErrNotFound
}

func (m *mockJourneyRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Journey, error) {
	return []*model.Journey{}, nil
}

func (m *mockJourneyRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockJourneyRepository) Update(ctx context.Context, id string, journey *model.Journey) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, journey)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockJourneyRepository) CountActiveByProvider(ctx context.Context, providerID string) (int64, error) {
	return 0, nil
}

func (m *mockJourneyRepository) FindGuideConflicts(ctx context.Context, guideID string, date time.Time, excludeID string) ([]*model.Journey, error) {
	if m.findGuideConflictsFunc != nil {
		return m.findGuideConflictsFunc(ctx, guideID, date, excludeID)
	}
	return nil, nil
}

func (m *mockJourneyRepository) Stats(ctx context.Context) (*model.JourneyStats, error) {
	return &model.JourneyStats{}, nil
}

func (m *mockJourneyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.transactions++
	return fn(nil)
}

type mockGuideDirectory struct {
	findByIDFunc func(ctx context.Context, id string, includeDeleted bool) (*model.User, error)
}

func (m *mockGuideDirectory) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id, includeDeleted)
	}
	return &model.User{ID: id, Name: "Guide", Email: "guide@example.com", Role: model.RoleGuide}, nil
}

type mockBookingCounter struct {
	countFunc func(ctx context.Context, journeyID string) (int64, error)
}

func (m *mockBookingCounter) CountActiveByJourney(ctx context.Context, journeyID string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, journeyID)
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

func newTestService(repo *mockJourneyRepository, guides *mockGuideDirectory, bookings *mockBookingCounter) JourneyService {
	cfg := testConfig()
	if guides == nil {
		guides = &mockGuideDirectory{}
	}
	if bookings == nil {
		bookings = &mockBookingCounter{}
	}
	return NewJourneyService(repo, guides, bookings, validator.NewJourneyValidator(cfg.Log), events.Noop{}, cfg)
}

func validJourney() *model.Journey {
	return &model.Journey{
		Name:        "City Break",
		Description: "Three days through the old town",
		Duration:    model.Duration{Days: 3, Nights: 2},
		Pricing:     model.Pricing{BasePrice: 100},
		Schedule: model.Schedule{
			StartDate: time.Date(2027, 6, 10, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestCreate_Defaults(t *testing.T) {
	service := newTestService(&mockJourneyRepository{}, nil, nil)

	created, err := service.Create(context.Background(), validJourney(), "actor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != model.JourneyStatusDraft {
		t.Errorf("expected default status draft, got %s", created.Status)
	}
	if created.Type != model.JourneyTypeGuided {
		t.Errorf("expected default type guided, got %s", created.Type)
	}
}

func TestCreate_MissingPrice(t *testing.T) {
	service := newTestService(&mockJourneyRepository{}, nil, nil)

	journey := validJourney()
	journey.Pricing.BasePrice = 0

	_, err := service.Create(context.Background(), journey, "actor-1")
	if err == nil {
		t.Fatal("expected error for missing price")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, code)
	}
}

func TestCreate_UnknownGuide(t *testing.T) {
	guides := &mockGuideDirectory{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.User, error) {
			return nil, apperrors.NotFoundWithID("User", id)
		},
	}
	service := newTestService(&mockJourneyRepository{}, guides, nil)

	journey := validJourney()
	journey.GuideID = guideID

	_, err := service.Create(context.Background(), journey, "actor-1")
	if err == nil {
		t.Fatal("expected error for unknown guide")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, code)
	}
}

func TestCreate_GuideRoleRequired(t *testing.T) {
	guides := &mockGuideDirectory{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.User, error) {
			return &model.User{ID: id, Name: "Agent", Email: "agent@example.com", Role: model.RoleAgent}, nil
		},
	}
	service := newTestService(&mockJourneyRepository{}, guides, nil)

	journey := validJourney()
	journey.GuideID = guideID

	_, err := service.Create(context.Background(), journey, "actor-1")
	if err == nil {
		t.Fatal("expected error assigning a non-guide user")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, code)
	}
}

func TestAssignGuide_Conflict(t *testing.T) {
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			return j, nil
		},
		findGuideConflictsFunc: func(ctx context.Context, guideID string, date time.Time, excludeID string) ([]*model.Journey, error) {
			other := validJourney()
			other.ID = otherID
			return []*model.Journey{other}, nil
		},
	}
	service := newTestService(repo, nil, nil)

	_, err := service.AssignGuide(context.Background(), journeyID, guideID, "", "actor-1")
	if err == nil {
		t.Fatal("expected conflict for double-booked guide")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, code)
	}
}

func TestAssignGuide_ExcludesOwnJourney(t *testing.T) {
	var gotExclude string
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			j.GuideID = guideID
			return j, nil
		},
		findGuideConflictsFunc: func(ctx context.Context, guideID string, date time.Time, excludeID string) ([]*model.Journey, error) {
			gotExclude = excludeID
			return nil, nil
		},
	}
	service := newTestService(repo, nil, nil)

	journey, err := service.AssignGuide(context.Background(), journeyID, guideID, "meet at the station", "actor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotExclude != journeyID {
		t.Errorf("expected conflict scan to exclude %s, got %q", journeyID, gotExclude)
	}
	if journey.GuideID != guideID {
		t.Errorf("expected guide %s, got %s", guideID, journey.GuideID)
	}
	if journey.GuideNotes != "meet at the station" {
		t.Errorf("unexpected guide notes: %q", journey.GuideNotes)
	}
}

func TestAssignGuide_EmptyGuideID(t *testing.T) {
	service := newTestService(&mockJourneyRepository{}, nil, nil)

	_, err := service.AssignGuide(context.Background(), journeyID, "", "", "actor-1")
	if err == nil {
		t.Fatal("expected error for empty guide ID")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, code)
	}
}

func TestUpdateStatus_RestrictedTargets(t *testing.T) {
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			j.Status = model.JourneyStatusActive
			return j, nil
		},
	}
	service := newTestService(repo, nil, nil)

	for _, status := range []model.JourneyStatus{model.JourneyStatusDraft, model.JourneyStatusArchived, "bogus"} {
		_, err := service.UpdateStatus(context.Background(), journeyID, status, "actor-1", model.RoleManager)
		if err == nil {
			t.Fatalf("expected error for status %q", status)
		}
		if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidInput {
			t.Errorf("status %q: expected %s, got %s", status, apperrors.CodeInvalidInput, code)
		}
	}

	journey, err := service.UpdateStatus(context.Background(), journeyID, model.JourneyStatusInProgress, "actor-1", model.RoleManager)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if journey.Status != model.JourneyStatusInProgress {
		t.Errorf("expected in_progress, got %s", journey.Status)
	}
}

func TestUpdateStatus_GuideMustOwnJourney(t *testing.T) {
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			j.GuideID = guideID
			return j, nil
		},
	}
	service := newTestService(repo, nil, nil)

	_, err := service.UpdateStatus(context.Background(), journeyID, model.JourneyStatusCompleted, "someone-else", model.RoleGuide)
	if err == nil {
		t.Fatal("expected error for guide updating another guide's journey")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, code)
	}

	if _, err := service.UpdateStatus(context.Background(), journeyID, model.JourneyStatusCompleted, guideID, model.RoleGuide); err != nil {
		t.Fatalf("unexpected error for assigned guide: %v", err)
	}
}

func TestDelete_BlockedByActiveBookings(t *testing.T) {
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			return j, nil
		},
	}
	bookings := &mockBookingCounter{
		countFunc: func(ctx context.Context, journeyID string) (int64, error) {
			return 2, nil
		},
	}
	service := newTestService(repo, nil, bookings)

	err := service.Delete(context.Background(), journeyID, "actor-1")
	if err == nil {
		t.Fatal("expected error for journey with active bookings")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, code)
	}
}

func TestRestore_NotDeleted(t *testing.T) {
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			return j, nil
		},
	}
	service := newTestService(repo, nil, nil)

	_, err := service.Restore(context.Background(), journeyID, "actor-1")
	if err == nil {
		t.Fatal("expected error restoring a live journey")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidState {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidState, code)
	}
}

func TestAdjustCapacity_ClampsAtZero(t *testing.T) {
	var updated *model.Journey
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			j.Capacity.CurrentBookings = 1
			return j, nil
		},
		updateFunc: func(ctx context.Context, id string, journey *model.Journey) (*mongo.UpdateResult, error) {
			updated = journey
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	service := newTestService(repo, nil, nil)

	if _, err := service.AdjustCapacity(context.Background(), journeyID, -5, "actor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Capacity.CurrentBookings != 0 {
		t.Errorf("expected clamp at 0, got %d", updated.Capacity.CurrentBookings)
	}
}

func TestUpdateStatus_CustomerForbidden(t *testing.T) {
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			j.Status = model.JourneyStatusActive
			return j, nil
		},
	}
	service := newTestService(repo, nil, nil)

	_, err := service.UpdateStatus(context.Background(), journeyID, model.JourneyStatusCancelled, "64c000000000000000000009", model.RoleCustomer)
	if err == nil {
		t.Fatal("expected error for customer changing journey status")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, code)
	}
}

func TestDelete_SoftDeletes(t *testing.T) {
	var updated *model.Journey
	repo := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.Journey, error) {
			j := validJourney()
			j.ID = id
			j.Meta = model.NewMeta("actor-1")
			return j, nil
		},
		updateFunc: func(ctx context.Context, id string, journey *model.Journey) (*mongo.UpdateResult, error) {
			updated = journey
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	service := newTestService(repo, nil, nil)

	if err := service.Delete(context.Background(), journeyID, "manager-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Meta.IsDeleted {
		t.Error("expected journey marked deleted")
	}
	if updated.Meta.DeletedBy != "manager-1" {
		t.Errorf("expected deleting actor recorded, got %q", updated.Meta.DeletedBy)
	}
	if updated.Meta.Version != 2 {
		t.Errorf("expected version bump on delete, got %d", updated.Meta.Version)
	}
	if repo.transactions != 1 {
		t.Errorf("expected delete to run in a transaction, got %d", repo.transactions)
	}
}
