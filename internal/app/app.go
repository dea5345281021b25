package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/parchly/parchly/internal/config"
	"github.com/parchly/parchly/internal/db"
	"github.com/parchly/parchly/internal/processing"
	"github.com/parchly/parchly/internal/repository"
	"github.com/parchly/parchly/internal/service"
	"github.com/parchly/parchly/internal/storage"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	IngestService *service.IngestService
	FileService   *service.FileService
	ChatService   *service.ChatService
}

func New(cfg *config.Config) (*App, error) {
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
	fileRepository := repository.NewFileRepository(database)
	fileWorkspaceRepository := repository.NewFileWorkspaceRepository(database)
	workspaceRepository := repository.NewWorkspaceRepository(database)

	// Storage
	blobStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Retrieval processing client
	trigger := processing.NewClient(cfg.ProcessingURL, cfg.ProcessingTimeout)

	// Services
	ingestService := service.NewIngestService(
		fileRepository,
		fileWorkspaceRepository,
		workspaceRepository,
		blobStorage,
		trigger,
	)
	fileService := service.NewFileService(
		fileRepository,
		fileWorkspaceRepository,
		blobStorage,
		cfg.S3DownloadURLExpiry,
	)
	chatService := service.NewChatService(
		cfg.ChatUpstreamURL,
		cfg.ChatProxyTimeout,
		cfg.ChatCacheTTL,
		cfg.ChatCacheSize,
	)

	return &App{
		Cfg:           cfg,
		DB:            database,
		IngestService: ingestService,
		FileService:   fileService,
		ChatService:   chatService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
