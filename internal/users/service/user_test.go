package service

import (
	"context"
	"testing"
	"time"

	usererrors "tourdesk/internal/users/errors"
	"tourdesk/internal/users/validator"
	"tourdesk/pkg/config"
	mongotx "tourdesk/pkg/db/mongo"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/events"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const userID = "64c000000000000000000001"

type mockUserRepository struct {
	createFunc        func(ctx context.Context, user *model.User) error
	findByIDFunc      func(ctx context.Context, id string, includeDeleted bool) (*model.User, error)
	updateFunc        func(ctx context.Context, id string, user *model.User) (*mongo.UpdateResult, error)
	existsByEmailFunc func(ctx context.Context, email string, excludeID string) (bool, error)
	transactions      int
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = userID
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id, includeDeleted)
	}
	return nil, usererrors.ErrNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, usererrors.ErrNotFound
}

func (m *mockUserRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error) {
	return []*model.User{}, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockUserRepository) Update(ctx context.Context, id string, user *model.User) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, user)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	if m.existsByEmailFunc != nil {
		return m.existsByEmailFunc(ctx, email, excludeID)
	}
	return false, nil
}

func (m *mockUserRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.transactions++
	return fn(nil)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		MaxLoginAttempts:  5,
		AccountLockWindow: 2 * time.Hour,
	}
}

func newTestService(repo *mockUserRepository) UserService {
	cfg := testConfig()
	return NewUserService(repo, validator.NewUserValidator(cfg.Log), events.Noop{}, cfg)
}

func validUser() *model.User {
	return &model.User{
		Name:  "Ada Brook",
		Email: "ada@example.com",
		Role:  model.RoleCustomer,
	}
}

func storedUser() *model.User {
	u := validUser()
	u.ID = userID
	u.Meta = model.NewMeta("system")
	return u
}

// repoAround wraps a single user so FindByID and Update round-trip
// through the same record, which the lock tests need.
func repoAround(user *model.User) *mockUserRepository {
	return &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string, includeDeleted bool) (*model.User, error) {
			copied := *user
			return &copied, nil
		},
		updateFunc: func(ctx context.Context, id string, updated *model.User) (*mongo.UpdateResult, error) {
			*user = *updated
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
}

func TestCreate_DefaultsToCustomer(t *testing.T) {
	repo := &mockUserRepository{}
	service := newTestService(repo)

	user := validUser()
	user.Role = ""

	created, err := service.Create(context.Background(), user, "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Role != model.RoleCustomer {
		t.Errorf("expected default role customer, got %s", created.Role)
	}
	if created.Meta.CreatedBy != "agent-1" {
		t.Errorf("expected creator recorded, got %q", created.Meta.CreatedBy)
	}
	if repo.transactions != 1 {
		t.Errorf("expected uniqueness check and insert in one transaction, got %d", repo.transactions)
	}
}

func TestCreate_UnknownRole(t *testing.T) {
	service := newTestService(&mockUserRepository{})

	user := validUser()
	user.Role = "pilot"

	_, err := service.Create(context.Background(), user, "agent-1")
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, code)
	}
}

func TestCreate_EmailTaken(t *testing.T) {
	repo := &mockUserRepository{
		existsByEmailFunc: func(ctx context.Context, email string, excludeID string) (bool, error) {
			return true, nil
		},
	}
	service := newTestService(repo)

	_, err := service.Create(context.Background(), validUser(), "agent-1")
	if err == nil {
		t.Fatal("expected error for duplicate email")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, code)
	}
}

func TestUpdate_EmailUniquenessExcludesSelf(t *testing.T) {
	var checkedExclude string
	user := storedUser()
	repo := repoAround(user)
	repo.existsByEmailFunc = func(ctx context.Context, email string, excludeID string) (bool, error) {
		checkedExclude = excludeID
		return false, nil
	}
	service := newTestService(repo)

	email := "ada.brook@example.com"
	updated, err := service.Update(context.Background(), userID, &model.UserPatch{Email: &email}, "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checkedExclude != userID {
		t.Errorf("expected uniqueness check to exclude %s, got %q", userID, checkedExclude)
	}
	if updated.Email != email {
		t.Errorf("expected email updated, got %s", updated.Email)
	}
}

func TestRecordFailedLogin_LocksAtThreshold(t *testing.T) {
	user := storedUser()
	service := newTestService(repoAround(user))
	ctx := context.Background()

	var last *model.User
	for i := 0; i < 5; i++ {
		var err error
		if last, err = service.RecordFailedLogin(ctx, userID); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i+1, err)
		}
		if i < 4 && last.Meta.IsLocked(time.Now().UTC()) {
			t.Fatalf("attempt %d: locked too early", i+1)
		}
	}

	now := time.Now().UTC()
	if !last.Meta.IsLocked(now) {
		t.Fatal("expected account locked after fifth failed attempt")
	}
	until := last.Meta.LockUntil.Sub(now)
	if until < time.Hour || until > 3*time.Hour {
		t.Errorf("expected lock window around 2h, got %s", until)
	}
}

func TestRecordLogin_RefusedWhileLocked(t *testing.T) {
	user := storedUser()
	until := time.Now().UTC().Add(time.Hour)
	user.Meta.LoginAttempts = 5
	user.Meta.LockUntil = &until
	service := newTestService(repoAround(user))

	_, err := service.RecordLogin(context.Background(), userID)
	if err == nil {
		t.Fatal("expected login to be refused")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, code)
	}
}

func TestRecordLogin_ClearsFailedAttempts(t *testing.T) {
	user := storedUser()
	user.Meta.LoginAttempts = 3
	service := newTestService(repoAround(user))

	logged, err := service.RecordLogin(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logged.Meta.LoginAttempts != 0 {
		t.Errorf("expected attempts reset, got %d", logged.Meta.LoginAttempts)
	}
	if logged.Meta.LastLogin == nil {
		t.Error("expected last login recorded")
	}
}

func TestRecordFailedLogin_ExpiredLockResets(t *testing.T) {
	user := storedUser()
	expired := time.Now().UTC().Add(-time.Minute)
	user.Meta.LoginAttempts = 5
	user.Meta.LockUntil = &expired
	service := newTestService(repoAround(user))

	updated, err := service.RecordFailedLogin(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Meta.LoginAttempts != 1 {
		t.Errorf("expected counter restarted at 1, got %d", updated.Meta.LoginAttempts)
	}
	if updated.Meta.IsLocked(time.Now().UTC()) {
		t.Error("expected expired lock to be cleared")
	}
}

func TestRestore_NotDeleted(t *testing.T) {
	service := newTestService(repoAround(storedUser()))

	_, err := service.Restore(context.Background(), userID, "manager-1")
	if err == nil {
		t.Fatal("expected error restoring a live user")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidState {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidState, code)
	}
}

func TestDelete_SoftDeletes(t *testing.T) {
	user := storedUser()
	service := newTestService(repoAround(user))

	if err := service.Delete(context.Background(), userID, "manager-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !user.Meta.IsDeleted {
		t.Error("expected user marked deleted")
	}
	if user.Meta.DeletedBy != "manager-1" {
		t.Errorf("expected deleting actor recorded, got %q", user.Meta.DeletedBy)
	}
	if user.Meta.Version != 2 {
		t.Errorf("expected version bump on delete, got %d", user.Meta.Version)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	service := newTestService(&mockUserRepository{})

	_, err := service.GetByID(context.Background(), userID)
	if err == nil {
		t.Fatal("expected error for missing user")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, code)
	}
}
