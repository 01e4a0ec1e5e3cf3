package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Env holds every setting the service reads from the environment.
type Env struct {
	Port       string
	AppBaseURL string

	StoreBackend       string // gorm | datastore
	DBDriver           string // postgres | sqlite
	DBURL              string
	DBAutoMigrate      bool
	DatastoreProjectID string

	AuthJWTSecret   string
	AuthJWTIssuer   string
	AuthJWTAudience string

	LogLevel  string
	LogFormat string

	BlobStorageType string // fs | gcs | s3
	BlobDir         string
	BlobPublicURL   string
	GCSBucket       string
	GCPCredentials  string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string

	EmailJSAPIURL     string
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSPrivateKey string
	CompanyName       string
	SupportEmail      string
	EmailTimeout      time.Duration

	RedisURL            string
	BoardUpdatesChannel string

	BoardCascadeDelete bool
	UploadRollback     bool
	MaxUploadBytes     int
}

// Load reads .env when present and then the process environment.
func Load() Env {
	if err := godotenv.Load(); err != nil {
		log.Warn("Warning: .env file not found")
	}
	return FromEnviron()
}

func FromEnviron() Env {
	port := get("PORT", "3000")
	return Env{
		Port:       port,
		AppBaseURL: strings.TrimRight(get("APP_BASE_URL", "http://localhost:"+port), "/"),

		StoreBackend:       get("STORE_BACKEND", "gorm"),
		DBDriver:           get("DB_DRIVER", "postgres"),
		DBURL:              os.Getenv("DB_URL"),
		DBAutoMigrate:      getBool("DB_AUTO_MIGRATE", true),
		DatastoreProjectID: os.Getenv("DATASTORE_PROJECT_ID"),

		AuthJWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
		AuthJWTIssuer:   os.Getenv("AUTH_JWT_ISSUER"),
		AuthJWTAudience: os.Getenv("AUTH_JWT_AUDIENCE"),

		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "text"),

		BlobStorageType: get("BLOB_STORAGE_TYPE", "fs"),
		BlobDir:         get("BLOB_DIR", "data/blobs"),
		BlobPublicURL:   strings.TrimRight(get("BLOB_PUBLIC_URL", "http://localhost:"+port+"/files"), "/"),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
		GCPCredentials:  os.Getenv("GCP_SERVICE_ACCOUNT_CREDENTIALS"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        get("S3_REGION", os.Getenv("AWS_REGION")),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),

		EmailJSAPIURL:     get("EMAILJS_API_URL", "https://api.emailjs.com"),
		EmailJSServiceID:  os.Getenv("EMAILJS_SERVICE_ID"),
		EmailJSTemplateID: os.Getenv("EMAILJS_TEMPLATE_ID"),
		EmailJSPublicKey:  os.Getenv("EMAILJS_PUBLIC_KEY"),
		EmailJSPrivateKey: os.Getenv("EMAILJS_PRIVATE_KEY"),
		CompanyName:       get("COMPANY_NAME", "Collabrio"),
		SupportEmail:      get("SUPPORT_EMAIL", "support@collabrio.com"),
		EmailTimeout:      getDuration("EMAIL_TIMEOUT", 10*time.Second),

		RedisURL:            os.Getenv("REDIS_URL"),
		BoardUpdatesChannel: get("BOARD_UPDATES_CHANNEL", "board-updates"),

		BoardCascadeDelete: getBool("BOARD_CASCADE_DELETE", false),
		UploadRollback:     getBool("UPLOAD_ROLLBACK", false),
		MaxUploadBytes:     getInt("MAX_UPLOAD_BYTES", 25*1024*1024),
	}
}

func get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
