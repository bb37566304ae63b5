package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type MeetingRoomService interface {
	Create(ctx context.Context, room *model.MeetingRoom) error
	GetByID(ctx context.Context, id string) (*model.MeetingRoom, error)
	GetByName(ctx context.Context, name string) (*model.MeetingRoom, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.MeetingRoom, int64, error)
	Update(ctx context.Context, id string, room *model.MeetingRoom) error
	Delete(ctx context.Context, id string) error
}

type meetingRoomService struct {
	repo      repository.MeetingRoomRepository
	validator *validator.MeetingRoomValidator
	cfg       *config.Config
}

func NewMeetingRoomService(
	repo repository.MeetingRoomRepository,
	validator *validator.MeetingRoomValidator,
	cfg *config.Config,
) MeetingRoomService {
	return &meetingRoomService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Create stores a room after checking the name is free. The uniqueness check
// and the insert share a transaction; the unique index on name backstops
// concurrent inserts.
func (s *meetingRoomService) Create(ctx context.Context, room *model.MeetingRoom) error {
	s.sanitize(room)

	if err := s.validate(room); err != nil {
		return err
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNameFree(sessCtx, room.Name, ""); err != nil {
			return err
		}

		if err := s.repo.Create(sessCtx, room); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return roomserrors.NameExists(room.Name)
			}
			return apperrors.Internal("Failed to create meeting room", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create meeting room", "name", room.Name, "error", err)
		return err
	}

	s.cfg.Log.Info("Meeting room created successfully",
		"id", room.ID,
		"name", room.Name,
		"capacity", room.Capacity,
	)
	return nil
}

func (s *meetingRoomService) GetByID(ctx context.Context, id string) (*model.MeetingRoom, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Meeting room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, roomserrors.NotFoundByID(id)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid meeting room ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve meeting room", err)
	}

	return room, nil
}

func (s *meetingRoomService) GetByName(ctx context.Context, name string) (*model.MeetingRoom, error) {
	name = sanitizer.NormalizeName(name)
	if name == "" {
		return nil, apperrors.InvalidInput("Meeting room name cannot be empty")
	}

	room, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.New(roomserrors.CodeNotFound, "Meeting room not found", http.StatusNotFound).
				WithDetails(map[string]any{"name": name})
		}
		return nil, apperrors.Internal("Failed to retrieve meeting room", err)
	}

	return room, nil
}

func (s *meetingRoomService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.MeetingRoom, int64, error) {
	var count int64
	var rooms []*model.MeetingRoom
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count meeting rooms", "error", errCount)
			errCount = apperrors.Internal("Failed to count meeting rooms", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		rooms, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list meeting rooms", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve meeting rooms", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rooms, count, nil
}

func (s *meetingRoomService) Update(ctx context.Context, id string, room *model.MeetingRoom) error {
	if id == "" {
		return apperrors.InvalidInput("Meeting room ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return roomserrors.NotFoundByID(id)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid meeting room ID format")
		}
		return apperrors.Internal("Failed to check meeting room existence", err)
	}

	s.sanitize(room)
	if err := s.validate(room); err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// The name check is only needed when the name actually changes.
		if room.Name != existing.Name {
			if err := s.verifyNameFree(sessCtx, room.Name, id); err != nil {
				return err
			}
		}

		if _, err := s.repo.Update(sessCtx, id, room); err != nil {
			if errors.Is(err, roomserrors.ErrNotFound) {
				return roomserrors.NotFoundByID(id)
			}
			return apperrors.Internal("Failed to update meeting room", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update meeting room", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Meeting room updated successfully", "id", id)
	return nil
}

func (s *meetingRoomService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Meeting room ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, roomserrors.ErrNotFound) {
				return roomserrors.NotFoundByID(id)
			}
			if errors.Is(err, roomserrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid meeting room ID format")
			}
			return apperrors.Internal("Failed to delete meeting room", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Meeting room deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *meetingRoomService) sanitize(room *model.MeetingRoom) {
	room.Name = sanitizer.NormalizeName(room.Name)
	room.Location = sanitizer.NormalizeName(room.Location)
}

func (s *meetingRoomService) validate(room *model.MeetingRoom) error {
	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Meeting room validation failed", "error", err)
		return apperrors.Validation("Meeting room validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *meetingRoomService) verifyNameFree(ctx context.Context, name string, excludeID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to check meeting room name", err)
	}

	if existing.ID != excludeID {
		return roomserrors.NameExists(name)
	}
	return nil
}
