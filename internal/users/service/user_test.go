package service

import (
	"context"
	"errors"
	"testing"
	"time"

	userserrors "roombook/internal/users/errors"
	"roombook/internal/users/validator"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const testUserID = "64f1b9f0a2d3c4e5f6a7b8c9"

type mockUserRepository struct {
	createFunc         func(ctx context.Context, user *model.User) error
	findByIDFunc       func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc    func(ctx context.Context, email string) (*model.User, error)
	findByUsernameFunc func(ctx context.Context, username string) (*model.User, error)
	findAllFunc        func(ctx context.Context, limit int, offset int64) ([]*model.User, error)
	updateFunc         func(ctx context.Context, id string, user *model.User) (*mongo.UpdateResult, error)
	deleteFunc         func(ctx context.Context, id string) error
	countFunc          func(ctx context.Context) (int64, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.User{}, nil
}

func (m *mockUserRepository) Update(ctx context.Context, id string, user *model.User) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, user)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockUserRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func newTestService(repo *mockUserRepository) *userService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:         log,
		ReadTimeout: 5 * time.Second,
	}
	return &userService{
		repo:      repo,
		validator: validator.NewUserValidator(log),
		cfg:       cfg,
	}
}

func validUser() *model.User {
	return &model.User{
		Username: "jordan.reyes",
		Email:    "jordan.reyes@example.com",
	}
}

func assertCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", wantCode)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != wantCode {
		t.Errorf("expected code %s, got %s", wantCode, appErr.Code)
	}
}

func TestCreate_Success(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *model.User) error {
			stored = user
			return nil
		},
	}

	service := newTestService(repo)
	if err := service.Create(context.Background(), validUser()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("user was not stored")
	}
}

func TestCreate_EmailTaken(t *testing.T) {
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: testUserID, Email: email}, nil
		},
	}

	service := newTestService(repo)
	err := service.Create(context.Background(), validUser())
	assertCode(t, err, userserrors.CodeEmailExists)
}

func TestCreate_UsernameTaken(t *testing.T) {
	repo := &mockUserRepository{
		findByUsernameFunc: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: testUserID, Username: username}, nil
		},
	}

	service := newTestService(repo)
	err := service.Create(context.Background(), validUser())
	assertCode(t, err, userserrors.CodeUsernameExists)
}

func TestCreate_EmailIsLowercasedBeforeCheck(t *testing.T) {
	var checkedEmail string
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			checkedEmail = email
			return nil, userserrors.ErrNotFound
		},
	}

	service := newTestService(repo)
	user := validUser()
	user.Email = "  Jordan.Reyes@Example.COM "

	if err := service.Create(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checkedEmail != "jordan.reyes@example.com" {
		t.Errorf("expected lowercased email, got %q", checkedEmail)
	}
}

func TestCreate_InvalidEmail(t *testing.T) {
	service := newTestService(&mockUserRepository{})

	user := validUser()
	user.Email = "not-an-email"

	err := service.Create(context.Background(), user)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestUpdate_SkipsUnchangedFieldChecks(t *testing.T) {
	existing := validUser()
	existing.ID = testUserID

	emailChecked, usernameChecked := false, false
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return existing, nil
		},
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			emailChecked = true
			return nil, userserrors.ErrNotFound
		},
		findByUsernameFunc: func(ctx context.Context, username string) (*model.User, error) {
			usernameChecked = true
			return nil, userserrors.ErrNotFound
		},
	}

	service := newTestService(repo)

	// Only the email changes.
	update := validUser()
	update.Email = "j.reyes@example.com"

	if err := service.Update(context.Background(), testUserID, update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !emailChecked {
		t.Error("changed email should be rechecked for uniqueness")
	}
	if usernameChecked {
		t.Error("unchanged username should not be rechecked")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	service := newTestService(&mockUserRepository{})

	err := service.Update(context.Background(), testUserID, validUser())
	assertCode(t, err, userserrors.CodeNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockUserRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			return userserrors.ErrNotFound
		},
	}

	service := newTestService(repo)
	err := service.Delete(context.Background(), testUserID)
	assertCode(t, err, userserrors.CodeNotFound)
}
