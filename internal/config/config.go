// Package config loads the storage service configuration from the
// environment. A .env file is honored in development.
package config

import (
	"time"

	"github.com/joho/godotenv"

	"docstore-backend/internal/blob/miniostore"
	"docstore-backend/pkg/env"
)

// Config is the full storage service configuration
type Config struct {
	Port string
	Env  string

	// BlobBackend selects the content store: memory, fs or minio
	BlobBackend string
	FSRoot      string
	Minio       miniostore.Config

	SignatureSecret string
	DownloadURLTTL  time.Duration

	QuotaDefaultBytes int64
	QuotaMaxFileSize  int64

	MultipartChunkSize int64

	SweepInterval time.Duration
}

// Load reads the configuration, applying development defaults
func Load() *Config {
	// Missing .env is fine, real deployments use the environment
	_ = godotenv.Load()

	return &Config{
		Port: env.GetString("PORT", "8084"),
		Env:  env.GetString("APP_ENV", "development"),

		BlobBackend: env.GetString("BLOB_BACKEND", "memory"),
		FSRoot:      env.GetString("BLOB_FS_ROOT", "./data/blobs"),
		Minio: miniostore.Config{
			Endpoint:  env.GetString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env.GetString("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env.GetString("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env.GetString("MINIO_BUCKET", "docstore-files"),
			UseSSL:    env.GetBool("MINIO_USE_SSL", false),
		},

		SignatureSecret: env.GetString("DOWNLOAD_SIGNATURE_SECRET", "change-me-in-production"),
		DownloadURLTTL:  env.GetDuration("DOWNLOAD_URL_TTL", 15*time.Minute),

		QuotaDefaultBytes: env.GetInt64("QUOTA_DEFAULT_BYTES", 10<<30), // 10 GiB per organization
		QuotaMaxFileSize:  env.GetInt64("QUOTA_MAX_FILE_SIZE", 0),      // 0 = policy limits only

		MultipartChunkSize: env.GetInt64("MULTIPART_CHUNK_SIZE", 5<<20),

		SweepInterval: env.GetDuration("LIFECYCLE_SWEEP_INTERVAL", time.Hour),
	}
}
