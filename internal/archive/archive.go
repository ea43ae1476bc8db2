// Package archive uploads scan reports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/target"
)

type Config struct {
	// Endpoint is host[:port] of the object store. Empty disables archiving.
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`

	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix"`
}

func DefaultConfig() Config {
	return Config{
		Region: "us-east-1",
		Bucket: "a11yscan",
		UseSSL: true,
		Prefix: "reports",
	}
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.Endpoint) != "" }

type Store struct {
	client *minio.Client
	cfg    Config
	logger logging.Logger
}

// New connects to the object store and creates the bucket if needed.
func New(ctx context.Context, cfg Config, logger logging.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Store{
		client: cli,
		cfg:    cfg,
		logger: logging.OrNop(logger).With(logging.Field{Key: "component", Value: "archive"}),
	}, nil
}

// ObjectKey is <prefix>/<host>/<id>.json.
func ObjectKey(prefix string, res *model.ScanResult) string {
	host := target.Host(res.URL)
	if host == "" {
		host = "unknown"
	}
	return path.Join(prefix, host, res.ID+".json")
}

// Put uploads res as JSON and returns the object URL. res must carry an id.
func (s *Store) Put(ctx context.Context, res *model.ScanResult) (string, error) {
	if res == nil || res.ID == "" {
		return "", fmt.Errorf("archive requires a stored scan result")
	}
	body, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	key := ObjectKey(s.cfg.Prefix, res)
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	u := *s.client.EndpointURL()
	u.Path = path.Join("/", s.cfg.Bucket, key)
	s.logger.Debug("report archived", logging.Field{Key: "key", Value: key})
	return u.String(), nil
}
