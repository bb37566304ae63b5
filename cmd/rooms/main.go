package main

import (
	"roombook/internal/rooms/handler"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/service"
	"roombook/internal/rooms/validator"
	"roombook/pkg/app"
	"roombook/pkg/config"
)

const ServiceName = "rooms"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Meeting Rooms service")
	roomService := initServices(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewMeetingRoomHandler(roomService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.MeetingRoomService {
	roomValidator := validator.NewMeetingRoomValidator(cfg.Log)
	roomRepo := repository.NewMongoMeetingRoomRepository(cfg)
	roomService := service.NewMeetingRoomService(roomRepo, roomValidator, cfg)

	cfg.Log.Info("Meeting room service initialized", "database", cfg.MongoDatabaseName)
	return roomService
}
