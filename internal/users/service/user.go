package service

import (
	"context"
	"errors"
	"sync"

	userserrors "roombook/internal/users/errors"
	"roombook/internal/users/repository"
	"roombook/internal/users/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type UserService interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	Update(ctx context.Context, id string, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Create stores a user after checking email and username are free. Both
// checks share the insert's transaction; the unique indexes backstop
// concurrent inserts.
func (s *userService) Create(ctx context.Context, user *model.User) error {
	s.sanitize(user)

	if err := s.validate(user); err != nil {
		return err
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyEmailFree(sessCtx, user.Email, ""); err != nil {
			return err
		}
		if err := s.verifyUsernameFree(sessCtx, user.Username, ""); err != nil {
			return err
		}

		if err := s.repo.Create(sessCtx, user); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return userserrors.EmailExists(user.Email)
			}
			return apperrors.Internal("Failed to create user", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create user", "username", user.Username, "error", err)
		return err
	}

	s.cfg.Log.Info("User created successfully",
		"id", user.ID,
		"username", user.Username,
	)
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, userserrors.NotFoundByID(id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *userService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	var count int64
	var users []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count users", "error", errCount)
			errCount = apperrors.Internal("Failed to count users", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		users, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list users", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve users", errFind)
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

func (s *userService) Update(ctx context.Context, id string, user *model.User) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return userserrors.NotFoundByID(id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid user ID format")
		}
		return apperrors.Internal("Failed to check user existence", err)
	}

	s.sanitize(user)
	if err := s.validate(user); err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// Uniqueness is rechecked only for fields that actually change.
		if user.Email != existing.Email {
			if err := s.verifyEmailFree(sessCtx, user.Email, id); err != nil {
				return err
			}
		}
		if user.Username != existing.Username {
			if err := s.verifyUsernameFree(sessCtx, user.Username, id); err != nil {
				return err
			}
		}

		if _, err := s.repo.Update(sessCtx, id, user); err != nil {
			if errors.Is(err, userserrors.ErrNotFound) {
				return userserrors.NotFoundByID(id)
			}
			return apperrors.Internal("Failed to update user", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update user", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("User updated successfully", "id", id)
	return nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, userserrors.ErrNotFound) {
				return userserrors.NotFoundByID(id)
			}
			if errors.Is(err, userserrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid user ID format")
			}
			return apperrors.Internal("Failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("User deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *userService) sanitize(user *model.User) {
	user.Username = sanitizer.NormalizeUsername(user.Username)
	user.Email = sanitizer.NormalizeEmail(user.Email)
}

func (s *userService) validate(user *model.User) error {
	if err := s.validator.Validate(user); err != nil {
		s.cfg.Log.Warn("User validation failed", "error", err)
		return apperrors.Validation("User validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *userService) verifyEmailFree(ctx context.Context, email string, excludeID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to check user email", err)
	}

	if existing.ID != excludeID {
		return userserrors.EmailExists(email)
	}
	return nil
}

func (s *userService) verifyUsernameFree(ctx context.Context, username string, excludeID string) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to check username", err)
	}

	if existing.ID != excludeID {
		return userserrors.UsernameExists(username)
	}
	return nil
}
