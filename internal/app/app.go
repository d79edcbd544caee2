package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/threewords/journal/internal/config"
	"github.com/threewords/journal/internal/db"
	"github.com/threewords/journal/internal/markdown"
	"github.com/threewords/journal/internal/repository"
	"github.com/threewords/journal/internal/service"
	"github.com/threewords/journal/internal/sheets"
	"github.com/threewords/journal/internal/storage"
	"github.com/threewords/journal/internal/store"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Sessions       *sheets.Sessions
	AuthService    *service.AuthService
	UserService    *service.UserService
	JournalService *service.JournalService
	SyncService    *service.SyncService
	WordsService   *service.WordsService
	ArchiveService *service.ArchiveService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	recordRepository := repository.NewRecordRepository(database)

	entryStore := store.New(recordRepository)

	// Export archives are optional
	var archiveStorage storage.Storage
	if cfg.ArchiveEnabled() {
		s3Storage, err := storage.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %v", err)
		}
		archiveStorage = s3Storage
	}

	// Services
	sessions := sheets.NewSessions(
		sheets.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.AppURL+"/auth/sheets/callback"),
		tokenRepository,
		cfg.SheetsAuthTimeout,
	)
	authService := service.NewAuthService(userRepository, entryStore, cfg.JWTSecret, cfg.IsProduction(), cfg.JWTExpiry)
	userService := service.NewUserService(userRepository, entryStore, sessions)
	journalService := service.NewJournalService(entryStore, markdown.NewParser())
	syncService := service.NewSyncService(journalService, entryStore, sessions, nil, cfg.SheetsTitle, cfg.SyncTimeout)
	wordsService := service.NewWordsService(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	archiveService := service.NewArchiveService(journalService, archiveStorage, cfg.S3PresignExpiry)

	return &App{
		Cfg:            cfg,
		DB:             database,
		Sessions:       sessions,
		AuthService:    authService,
		UserService:    userService,
		JournalService: journalService,
		SyncService:    syncService,
		WordsService:   wordsService,
		ArchiveService: archiveService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
