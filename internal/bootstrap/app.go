package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"cleardoc-backend/internal/audit"
	"cleardoc-backend/internal/blob"
	blobmemory "cleardoc-backend/internal/blob/memory"
	blobs3 "cleardoc-backend/internal/blob/s3"
	"cleardoc-backend/internal/dispatcher"
	"cleardoc-backend/internal/documents"
	"cleardoc-backend/internal/extract"
	"cleardoc-backend/internal/extractions"
	"cleardoc-backend/internal/jobs"
	"cleardoc-backend/internal/llm"
	openai "cleardoc-backend/internal/llm/openai"
	"cleardoc-backend/internal/qa"
	"cleardoc-backend/internal/shared/config"
	"cleardoc-backend/internal/shared/server"
	"cleardoc-backend/internal/shared/storage/db"
)

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Blob   blob.Gateway
	Waker  *dispatcher.Waker

	DocumentsRepo   documents.Repo
	JobsRepo        jobs.Repo
	ExtractionsRepo extractions.Repo
	AuditRepo       audit.Repo

	DocumentsService *documents.Service
	DispatchService  *dispatcher.Service
	QAService        *qa.Service

	DocumentsHandler *documents.Handler
	DispatchHandler  *dispatcher.Handler
	QAHandler        *qa.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := buildBlob(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Blob:   gateway,
		Waker:  dispatcher.NewWaker(),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		DocumentsHandler: app.DocumentsHandler,
		DispatchHandler:  app.DispatchHandler,
		QAHandler:        app.QAHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildBlob(ctx context.Context, cfg config.Config) (blob.Gateway, error) {
	switch cfg.BlobStoreType {
	case "s3":
		return blobs3.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return blobmemory.New(), nil
	}
}

func buildServices(app *App) error {
	var docRepo documents.Repo
	var jobRepo jobs.Repo
	var extractionRepo extractions.Repo
	var auditRepo audit.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
		extractionRepo = &extractions.PGRepo{DB: app.DB}
		auditRepo = &audit.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		jobRepo = jobs.NewMemoryRepo()
		extractionRepo = extractions.NewMemoryRepo()
		auditRepo = audit.NewMemoryRepo()
	}

	recorder := &audit.Recorder{Repo: auditRepo}

	vision := llm.Vision(llm.Placeholder{})
	chat := llm.Chat(llm.Placeholder{})
	if app.Config.LLMProvider == "openai" && strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			return err
		}
		vision = client
		chat = client
	}

	docSvc := &documents.Service{
		Repo:        docRepo,
		Jobs:        jobRepo,
		Extractions: extractionRepo,
		Blob:        app.Blob,
		Audit:       recorder,
		Notify:      app.Waker,
	}

	dispatchSvc := &dispatcher.Service{
		Jobs:        jobRepo,
		Docs:        docRepo,
		Extractions: extractionRepo,
		Blob:        app.Blob,
		Engine:      extract.NewEngine(vision),
		Audit:       recorder,
		Provider:    app.Config.LLMProvider,
		Batch:       app.Config.DispatchBatch,
	}

	qaSvc := &qa.Service{
		Docs:        docRepo,
		Extractions: extractionRepo,
		Chat:        chat,
		Audit:       recorder,
	}

	app.DocumentsRepo = docRepo
	app.JobsRepo = jobRepo
	app.ExtractionsRepo = extractionRepo
	app.AuditRepo = auditRepo
	app.DocumentsService = docSvc
	app.DispatchService = dispatchSvc
	app.QAService = qaSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.DispatchHandler = dispatcher.NewHandler(dispatchSvc, app.Config.DispatchToken)
	app.QAHandler = qa.NewHandler(qaSvc)

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
