package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultUploadsSubDir    = "uploads"
	DefaultThumbnailsSubDir = "thumbnails"
	DefaultQueriesSubDir    = "queries"
	DefaultExportsSubDir    = "exports"
)

const (
	defaultAnnotateQueueSize   = 200
	defaultNumAnnotateWorkers  = 4
	defaultThumbnailMaxSize    = 300
	defaultMaxUploadBytes      = 10 << 20 // matches the web client's uploader limit
	defaultAccessTokenMinutes  = 30
	defaultAllowedImageTypes   = "image/jpeg,image/png,image/gif,image/webp"
	defaultDetectionConfidence = 0.2
)

// engine selection values for SEARCH_ENGINE
const (
	EngineRemote   = "remote"
	EnginePgvector = "pgvector"
)

type Config struct {
	// database path (SQLite)
	DatabasePath string

	// media storage configuration
	MediaStoragePath string // primary root for stored binaries
	UploadsPath      string // full-calculated path for original uploads
	ThumbnailsPath   string // full-calculated path for thumbnails
	QueriesPath      string // full-calculated path for stored query images
	ExportsPath      string // full-calculated path for generated export artifacts

	// upload validation, applied before any engine call
	MaxUploadBytes    int64
	AllowedImageTypes []string

	// thumbnail generation settings
	ThumbnailMaxSize int

	// annotation worker settings
	AnnotateQueueSize  int
	NumAnnotateWorkers int

	// auth settings
	JWTSecret          string
	AccessTokenMinutes int

	// similarity engine selection
	SearchEngine    string // "remote" or "pgvector"
	SearchEngineURL string // remote engine endpoint
	PostgresDSN     string // pgvector engine connection string

	// object detection model paths (DNN)
	DetectorNetConfigPath string
	DetectorNetModelPath  string
	DetectorLabelsPath    string
	DetectorMinConfidence float64
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < 0 || val > 1 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "visra.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	uploadsSubDir := getEnvOrDefault("UPLOADS_SUBDIR", DefaultUploadsSubDir)
	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	queriesSubDir := getEnvOrDefault("QUERIES_SUBDIR", DefaultQueriesSubDir)
	exportsSubDir := getEnvOrDefault("EXPORTS_SUBDIR", DefaultExportsSubDir)

	maxUpload := int64(getEnvIntOrDefault("MAX_UPLOAD_BYTES", defaultMaxUploadBytes))

	allowedTypesRaw := getEnvOrDefault("ALLOWED_IMAGE_TYPES", defaultAllowedImageTypes)
	var allowedTypes []string
	for _, t := range strings.Split(allowedTypesRaw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			allowedTypes = append(allowedTypes, t)
		}
	}

	engine := getEnvOrDefault("SEARCH_ENGINE", EngineRemote)
	if engine != EngineRemote && engine != EnginePgvector {
		log.Printf("Warning: Unknown SEARCH_ENGINE '%s'. Using '%s'.", engine, EngineRemote)
		engine = EngineRemote
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg := Config{
		DatabasePath:          dbPath,
		MediaStoragePath:      absMediaStorage,
		UploadsPath:           filepath.Join(absMediaStorage, uploadsSubDir),
		ThumbnailsPath:        filepath.Join(absMediaStorage, thumbSubDir),
		QueriesPath:           filepath.Join(absMediaStorage, queriesSubDir),
		ExportsPath:           filepath.Join(absMediaStorage, exportsSubDir),
		MaxUploadBytes:        maxUpload,
		AllowedImageTypes:     allowedTypes,
		ThumbnailMaxSize:      getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
		AnnotateQueueSize:     getEnvIntOrDefault("ANNOTATE_QUEUE_SIZE", defaultAnnotateQueueSize),
		NumAnnotateWorkers:    getEnvIntOrDefault("NUM_ANNOTATE_WORKERS", defaultNumAnnotateWorkers),
		JWTSecret:             jwtSecret,
		AccessTokenMinutes:    getEnvIntOrDefault("ACCESS_TOKEN_MINUTES", defaultAccessTokenMinutes),
		SearchEngine:          engine,
		SearchEngineURL:       getEnvOrDefault("SEARCH_ENGINE_URL", "http://localhost:9090/search"),
		PostgresDSN:           os.Getenv("POSTGRES_DSN"),
		DetectorNetConfigPath: getEnvOrDefault("DETECTOR_CONFIG_PATH", "./models/ssd_mobilenet.pbtxt"),
		DetectorNetModelPath:  getEnvOrDefault("DETECTOR_MODEL_PATH", "./models/ssd_mobilenet.pb"),
		DetectorLabelsPath:    getEnvOrDefault("DETECTOR_LABELS_PATH", "./models/coco_labels.txt"),
		DetectorMinConfidence: getEnvFloatOrDefault("DETECTOR_MIN_CONFIDENCE", defaultDetectionConfidence),
	}

	return cfg, nil
}
