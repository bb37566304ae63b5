package repository

import (
	"context"
	"fmt"
	"time"

	"roombook/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserDirectory answers whether a booking user exists. It reads the users
// collection directly; the booking flow only needs existence, never the
// full document.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// MeetingRoomDirectory answers whether a meeting room exists.
type MeetingRoomDirectory interface {
	Exists(ctx context.Context, roomID string) (bool, error)
}

type mongoUserDirectory struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewUserDirectory(cfg *config.Config) UserDirectory {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoUserDirectory{
		cfg:        cfg,
		collection: db.Collection("Users"),
	}
}

func (d *mongoUserDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	return existsByID(ctx, d.collection, userID, d.cfg.ReadTimeout)
}

type mongoMeetingRoomDirectory struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMeetingRoomDirectory(cfg *config.Config) MeetingRoomDirectory {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoMeetingRoomDirectory{
		cfg:        cfg,
		collection: db.Collection("Meeting_rooms"),
	}
}

func (d *mongoMeetingRoomDirectory) Exists(ctx context.Context, roomID string) (bool, error) {
	return existsByID(ctx, d.collection, roomID, d.cfg.ReadTimeout)
}

func existsByID(ctx context.Context, collection *mongo.Collection, id string, timeout time.Duration) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id cannot reference any stored document.
		return false, nil
	}

	if _, ok := ctx.(mongo.SessionContext); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	count, err := collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}

	return count > 0, nil
}
