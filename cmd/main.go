package main

import (
	"log/slog"
	"os"
	"time"

	httpapi "github.com/RohanJose/Chat-APP/internal/api/http"
	"github.com/RohanJose/Chat-APP/internal/config"
	"github.com/RohanJose/Chat-APP/internal/repository"
	"github.com/RohanJose/Chat-APP/internal/repository/model"
	"github.com/RohanJose/Chat-APP/internal/service"
	"github.com/RohanJose/Chat-APP/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	var roomRepo repository.RoomRepository
	var userRepo repository.UserRepository

	if cfg.Database.DSN != "" {
		db, err := connectDatabase(cfg.Database)
		if err != nil {
			log.Error("failed to connect database", slog.Any("error", err))
			os.Exit(1)
		}
		roomRepo = repository.NewPostgresRoomRepository(db)
		userRepo = repository.NewPostgresUserRepository(db)
	} else {
		log.Warn("database dsn is empty, using in-memory history store")
		roomRepo = repository.NewInMemoryRoomRepository()
		userRepo = repository.NewInMemoryUserRepository()
	}

	matchService := service.NewMatchService(roomRepo, userRepo, log, cfg.Match.WaitingTTL, cfg.Match.SweepInterval)
	matchService.Start()
	defer matchService.Stop()

	tokenService := service.NewTokenService(cfg.Media.APIKey, cfg.Media.APISecret, cfg.Media.TokenTTL, log)

	roomController := httpapi.NewRoomController(matchService, roomRepo, log)
	tokenController := httpapi.NewTokenController(tokenService)
	socketController := httpapi.NewSocketController(matchService, log)

	router := httpapi.SetupRouter(roomController, tokenController, socketController, cfg.WebRTC.STUNServers)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&model.Room{}, &model.Participant{}, &model.User{})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
