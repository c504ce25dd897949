package storage

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and configures a driver.
type Config struct {
	Driver string // "local" or "s3"

	LocalRoot string
	LocalURL  string

	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string // leave empty for real AWS
	S3URL      string
}

// Open builds the disk named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Disk, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalDisk(cfg.LocalRoot, cfg.LocalURL)
	case "s3":
		return NewS3Disk(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}
