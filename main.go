package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/visra-dev/visrabackend/auth"
	"github.com/visra-dev/visrabackend/config"
	"github.com/visra-dev/visrabackend/database"
	"github.com/visra-dev/visrabackend/export"
	"github.com/visra-dev/visrabackend/handlers"
	"github.com/visra-dev/visrabackend/history"
	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/realtime"
	"github.com/visra-dev/visrabackend/repository"
	"github.com/visra-dev/visrabackend/search"
	"github.com/visra-dev/visrabackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.UploadsPath, cfg.ThumbnailsPath, cfg.QueriesPath, cfg.ExportsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeUpload:    filepath.Base(cfg.UploadsPath),
		media.AssetTypeThumbnail: filepath.Base(cfg.ThumbnailsPath),
		media.AssetTypeQuery:     filepath.Base(cfg.QueriesPath),
		media.AssetTypeExport:    filepath.Base(cfg.ExportsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}

	userRepo := repository.NewGormUserRepository(db)
	sessionRepo := repository.NewGormSessionRepository(db)
	imageRepo := repository.NewGormImageRepository(db)
	historyRepo := repository.NewGormHistoryRepository(db)
	logRepo := repository.NewGormActivityLogRepository(db)

	detector := buildDetector(cfg)
	hub := realtime.NewHub()
	go hub.Run()

	log.Printf("Initializing annotation worker pool (Workers: %d, Queue Size: %d)...", cfg.NumAnnotateWorkers, cfg.AnnotateQueueSize)
	annotator := workers.NewAnnotator(cfg, imageRepo, mediaStore, detector, workers.NoopGeocoder{}, hub, cfg.AnnotateQueueSize, cfg.NumAnnotateWorkers)
	defer annotator.Stop()

	ingestor := workers.NewIngestor(imageRepo, mediaStore, annotator)
	ledger := history.NewLedger(historyRepo)

	engine := buildEngine(cfg, imageRepo)
	searchService := search.NewService(engine, ledger, mediaStore, cfg.MaxUploadBytes, cfg.AllowedImageTypes)
	exportPipeline := export.NewPipeline(mediaStore)
	authService := auth.NewService(userRepo, sessionRepo, cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)

	authHandler := handlers.NewAuthHandler(authService, logRepo)
	searchHandler := handlers.NewSearchHandler(searchService, logRepo)
	historyHandler := handlers.NewHistoryHandler(ledger)
	exportHandler := handlers.NewExportHandler(exportPipeline, ledger, mediaStore, logRepo)
	imageHandler := handlers.NewImageHandler(imageRepo, ingestor, logRepo, cfg.MaxUploadBytes)
	adminHandler := handlers.NewAdminHandler(userRepo, logRepo)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(corsHandler.Handler)

	requireAuth := handlers.AuthMiddleware(authService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/refresh", authHandler.Refresh)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/search", searchHandler.HandleSearch)

			r.Route("/history", func(r chi.Router) {
				r.Get("/", historyHandler.ListHistory)
				r.Get("/{id}", historyHandler.GetHistoryEntry)
			})

			r.Get("/export", exportHandler.HandleExport)

			r.Route("/images", func(r chi.Router) {
				r.Post("/", imageHandler.Upload)
				r.Get("/", imageHandler.List)
				r.Post("/import", imageHandler.ImportArchive)
				r.Get("/{id}", imageHandler.Get)
			})

			r.Get("/detections", imageHandler.ListDetections)

			r.Route("/admin", func(r chi.Router) {
				r.Use(handlers.RequireAdmin)
				r.Get("/users", adminHandler.ListUsers)
				r.Put("/users/{id}", adminHandler.UpdateUser)
				r.Get("/logs", adminHandler.ListLogs)
			})
		})

		r.Get("/media/*", handlers.AssetServer(mediaStore))
		r.Get("/ws", hub.ServeWS)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

func buildDetector(cfg config.Config) media.Detector {
	if _, err := os.Stat(cfg.DetectorNetModelPath); err != nil {
		log.Printf("Object detection model not found at %s; annotation will run without detections", cfg.DetectorNetModelPath)
		return media.NoopDetector{}
	}
	return media.NewDNNObjectDetector(cfg.DetectorNetConfigPath, cfg.DetectorNetModelPath, cfg.DetectorLabelsPath, cfg.DetectorMinConfidence)
}

func buildEngine(cfg config.Config, images repository.ImageRepository) search.Engine {
	if cfg.SearchEngine == config.EnginePgvector {
		engine, err := search.NewPgvectorEngine(context.Background(), cfg.PostgresDSN, search.RemoteEmbedder(cfg.SearchEngineURL), images)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize pgvector search engine: %v", err)
		}
		return engine
	}
	return search.NewRemoteEngine(cfg.SearchEngineURL)
}
