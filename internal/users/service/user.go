package service

import (
	"context"
	"errors"
	"sync"
	"time"

	usererrors "tourdesk/internal/users/errors"
	"tourdesk/internal/users/repository"
	"tourdesk/internal/users/validator"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/events"
	"tourdesk/pkg/model"
	"tourdesk/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type UserService interface {
	Create(ctx context.Context, user *model.User, actorID string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	FindByID(ctx context.Context, id string, includeDeleted bool) (*model.User, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	Update(ctx context.Context, id string, patch *model.UserPatch, actorID string) (*model.User, error)
	Delete(ctx context.Context, id string, actorID string) error
	Restore(ctx context.Context, id string, actorID string) (*model.User, error)
	RecordFailedLogin(ctx context.Context, id string) (*model.User, error)
	RecordLogin(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	userValidator *validator.UserValidator,
	publisher events.Publisher,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: userValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *userService) Create(ctx context.Context, user *model.User, actorID string) (*model.User, error) {
	s.sanitize(user)

	if user.Role == "" {
		user.Role = model.RoleCustomer
	}
	if !user.Role.Valid() {
		return nil, apperrors.InvalidInput("unknown user role")
	}

	if errs := s.validator.ValidateCreate(user); len(errs) > 0 {
		return nil, apperrors.Validation("invalid user", errs.Details())
	}

	// Uniqueness check and insert run in one transaction so two
	// concurrent signups with the same email cannot both pass the check.
	user.Meta = model.NewMeta(actorID)
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		taken, err := s.repo.ExistsByEmail(sessCtx, user.Email, "")
		if err != nil {
			s.cfg.Log.Error("Failed to check email uniqueness", "error", err)
			return apperrors.Storage("failed to check email uniqueness", err)
		}
		if taken {
			return apperrors.Conflict("email already registered")
		}

		if err := s.repo.Create(sessCtx, user); err != nil {
			s.cfg.Log.Error("Failed to create user", "error", err)
			return apperrors.Storage("failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("User created", "id", user.ID, "role", user.Role)
	_ = s.publisher.Publish(ctx, events.UserCreated, user.ID, user)

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.FindByID(ctx, id, false)
}

func (s *userService) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("user ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return user, nil
}

func (s *userService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	var (
		count    int64
		users    []*model.User
		errCount error
		errFind  error
		wg       sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		if count, errCount = s.repo.Count(ctx); errCount != nil {
			s.cfg.Log.Error("Failed to count users", "error", errCount)
			errCount = apperrors.Storage("failed to count users", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		if users, errFind = s.repo.FindAll(ctx, limit, offset); errFind != nil {
			s.cfg.Log.Error("Failed to list users", "error", errFind)
			errFind = apperrors.Storage("failed to retrieve users", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return users, count, nil
}

func (s *userService) Update(ctx context.Context, id string, patch *model.UserPatch, actorID string) (*model.User, error) {
	if errs := s.validator.ValidatePatch(patch); len(errs) > 0 {
		return nil, apperrors.Validation("invalid user update", errs.Details())
	}

	user, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	if patch.Email != nil {
		email := sanitizer.NormalizeEmail(*patch.Email)
		if email != user.Email {
			taken, err := s.repo.ExistsByEmail(ctx, email, id)
			if err != nil {
				s.cfg.Log.Error("Failed to check email uniqueness", "error", err)
				return nil, apperrors.Storage("failed to check email uniqueness", err)
			}
			if taken {
				return nil, apperrors.Conflict("email already registered")
			}
		}
		user.Email = email
	}
	if patch.Name != nil {
		user.Name = sanitizer.NormalizeName(*patch.Name)
	}
	if patch.Phone != nil {
		user.Phone = sanitizer.NormalizePhone(*patch.Phone)
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}

	user.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, user); err != nil {
		return nil, s.translate(err, id)
	}

	_ = s.publisher.Publish(ctx, events.UserUpdated, id, user)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string, actorID string) error {
	user, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return s.translate(err, id)
	}

	user.Meta.Touch(actorID)
	user.Meta.SoftDelete(actorID)
	if _, err := s.repo.Update(ctx, id, user); err != nil {
		return s.translate(err, id)
	}

	s.cfg.Log.Info("User deleted", "id", id, "actor", actorID)
	_ = s.publisher.Publish(ctx, events.UserDeleted, id, user)
	return nil
}

func (s *userService) Restore(ctx context.Context, id string, actorID string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, s.translate(err, id)
	}
	if !user.Meta.IsDeleted {
		return nil, apperrors.InvalidState("user is not deleted")
	}

	user.Meta.Restore()
	user.Meta.Touch(actorID)
	if _, err := s.repo.Update(ctx, id, user); err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("User restored", "id", id, "actor", actorID)
	_ = s.publisher.Publish(ctx, events.UserRestored, id, user)
	return user, nil
}

// RecordFailedLogin advances the failed-attempt counter and locks the
// account once the configured threshold is reached.
func (s *userService) RecordFailedLogin(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	now := time.Now().UTC()
	wasLocked := user.Meta.IsLocked(now)
	user.Meta.RegisterFailedLogin(now, s.cfg.MaxLoginAttempts, s.cfg.AccountLockWindow)

	if _, err := s.repo.Update(ctx, id, user); err != nil {
		return nil, s.translate(err, id)
	}

	if !wasLocked && user.Meta.IsLocked(now) {
		s.cfg.Log.Warn("User account locked",
			"id", id,
			"attempts", user.Meta.LoginAttempts,
			"lock_until", user.Meta.LockUntil,
		)
		_ = s.publisher.Publish(ctx, events.UserLocked, id, map[string]any{
			"user_id":    id,
			"attempts":   user.Meta.LoginAttempts,
			"lock_until": user.Meta.LockUntil,
		})
	}

	return user, nil
}

// RecordLogin registers a successful login, refusing while the account
// is locked.
func (s *userService) RecordLogin(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.translate(err, id)
	}

	now := time.Now().UTC()
	if user.Meta.IsLocked(now) {
		return nil, apperrors.Forbidden("account is locked")
	}

	user.Meta.RegisterLogin(now)
	if _, err := s.repo.Update(ctx, id, user); err != nil {
		return nil, s.translate(err, id)
	}

	return user, nil
}

func (s *userService) sanitize(user *model.User) {
	user.Name = sanitizer.NormalizeName(user.Name)
	user.Email = sanitizer.NormalizeEmail(user.Email)
	user.Phone = sanitizer.NormalizePhone(user.Phone)
}

func (s *userService) translate(err error, id string) error {
	switch {
	case errors.Is(err, usererrors.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, usererrors.ErrInvalidID):
		return apperrors.InvalidInput("invalid user ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Storage("user storage failure", err)
	}
}
