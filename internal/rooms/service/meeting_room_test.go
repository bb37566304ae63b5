package service

import (
	"context"
	"errors"
	"testing"
	"time"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const testRoomID = "64f1b9f0a2d3c4e5f6a7b8ca"

type mockMeetingRoomRepository struct {
	createFunc     func(ctx context.Context, room *model.MeetingRoom) error
	findByIDFunc   func(ctx context.Context, id string) (*model.MeetingRoom, error)
	findByNameFunc func(ctx context.Context, name string) (*model.MeetingRoom, error)
	findAllFunc    func(ctx context.Context, limit int, offset int64) ([]*model.MeetingRoom, error)
	updateFunc     func(ctx context.Context, id string, room *model.MeetingRoom) (*mongo.UpdateResult, error)
	deleteFunc     func(ctx context.Context, id string) error
	countFunc      func(ctx context.Context) (int64, error)
}

func (m *mockMeetingRoomRepository) Create(ctx context.Context, room *model.MeetingRoom) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, room)
	}
	return nil
}

func (m *mockMeetingRoomRepository) FindByID(ctx context.Context, id string) (*model.MeetingRoom, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, roomserrors.ErrNotFound
}

func (m *mockMeetingRoomRepository) FindByName(ctx context.Context, name string) (*model.MeetingRoom, error) {
	if m.findByNameFunc != nil {
		return m.findByNameFunc(ctx, name)
	}
	return nil, roomserrors.ErrNotFound
}

func (m *mockMeetingRoomRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.MeetingRoom, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.MeetingRoom{}, nil
}

func (m *mockMeetingRoomRepository) Update(ctx context.Context, id string, room *model.MeetingRoom) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, room)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockMeetingRoomRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockMeetingRoomRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockMeetingRoomRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func newTestService(repo *mockMeetingRoomRepository) *meetingRoomService {
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
	return &meetingRoomService{
		repo:      repo,
		validator: validator.NewMeetingRoomValidator(log),
		cfg:       cfg,
	}
}

func validRoom() *model.MeetingRoom {
	return &model.MeetingRoom{
		Name:         "Boardroom A",
		Capacity:     12,
		Location:     "3rd floor, east wing",
		HasProjector: true,
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
	var stored *model.MeetingRoom
	repo := &mockMeetingRoomRepository{
		createFunc: func(ctx context.Context, room *model.MeetingRoom) error {
			stored = room
			return nil
		},
	}

	service := newTestService(repo)
	if err := service.Create(context.Background(), validRoom()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("room was not stored")
	}
}

func TestCreate_NameTaken(t *testing.T) {
	repo := &mockMeetingRoomRepository{
		findByNameFunc: func(ctx context.Context, name string) (*model.MeetingRoom, error) {
			return &model.MeetingRoom{ID: testRoomID, Name: name}, nil
		},
	}

	service := newTestService(repo)
	err := service.Create(context.Background(), validRoom())
	assertCode(t, err, roomserrors.CodeNameExists)
}

func TestCreate_NameIsNormalizedBeforeCheck(t *testing.T) {
	var checkedName string
	repo := &mockMeetingRoomRepository{
		findByNameFunc: func(ctx context.Context, name string) (*model.MeetingRoom, error) {
			checkedName = name
			return nil, roomserrors.ErrNotFound
		},
	}

	service := newTestService(repo)
	room := validRoom()
	room.Name = "  Boardroom   A  "

	if err := service.Create(context.Background(), room); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checkedName != "Boardroom A" {
		t.Errorf("expected normalized name %q, got %q", "Boardroom A", checkedName)
	}
}

func TestCreate_InvalidCapacity(t *testing.T) {
	service := newTestService(&mockMeetingRoomRepository{})

	room := validRoom()
	room.Capacity = 0

	err := service.Create(context.Background(), room)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestUpdate_SkipsNameCheckWhenUnchanged(t *testing.T) {
	existing := validRoom()
	existing.ID = testRoomID

	nameChecked := false
	repo := &mockMeetingRoomRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.MeetingRoom, error) {
			return existing, nil
		},
		findByNameFunc: func(ctx context.Context, name string) (*model.MeetingRoom, error) {
			nameChecked = true
			return nil, roomserrors.ErrNotFound
		},
	}

	service := newTestService(repo)

	update := validRoom()
	update.Capacity = 20

	if err := service.Update(context.Background(), testRoomID, update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nameChecked {
		t.Error("name uniqueness should not be rechecked when the name is unchanged")
	}
}

func TestUpdate_RenameToTakenName(t *testing.T) {
	existing := validRoom()
	existing.ID = testRoomID

	other := &model.MeetingRoom{ID: "64f1b9f0a2d3c4e5f6a7b8cc", Name: "Boardroom B"}

	repo := &mockMeetingRoomRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.MeetingRoom, error) {
			return existing, nil
		},
		findByNameFunc: func(ctx context.Context, name string) (*model.MeetingRoom, error) {
			return other, nil
		},
	}

	service := newTestService(repo)

	update := validRoom()
	update.Name = "Boardroom B"

	err := service.Update(context.Background(), testRoomID, update)
	assertCode(t, err, roomserrors.CodeNameExists)
}

func TestUpdate_NotFound(t *testing.T) {
	service := newTestService(&mockMeetingRoomRepository{})

	err := service.Update(context.Background(), testRoomID, validRoom())
	assertCode(t, err, roomserrors.CodeNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockMeetingRoomRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			return roomserrors.ErrNotFound
		},
	}

	service := newTestService(repo)
	err := service.Delete(context.Background(), testRoomID)
	assertCode(t, err, roomserrors.CodeNotFound)
}

func TestGetByName_NotFound(t *testing.T) {
	service := newTestService(&mockMeetingRoomRepository{})

	_, err := service.GetByName(context.Background(), "No Such Room")
	assertCode(t, err, roomserrors.CodeNotFound)
}

func TestGetAll_EmptyListIsNotAnError(t *testing.T) {
	service := newTestService(&mockMeetingRoomRepository{})

	rooms, count, err := service.GetAll(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 || len(rooms) != 0 {
		t.Errorf("expected empty result, got %d rooms, count %d", len(rooms), count)
	}
}
