package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

func validSessionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("session id is empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}

// LocalArtifacts writes artifacts under Root/sessions/<id>/.
type LocalArtifacts struct {
	Root string
}

// NewLocalArtifacts returns a store rooted at root, "data" when empty.
func NewLocalArtifacts(root string) *LocalArtifacts {
	if root == "" {
		root = "data"
	}
	return &LocalArtifacts{Root: root}
}

func (l *LocalArtifacts) SaveArtifact(_ context.Context, data []byte, sessionID string) (string, error) {
	if err := validSessionID(sessionID); err != nil {
		return "", err
	}

	dir := filepath.Join(l.Root, "sessions", sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}

	location := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(location, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return location, nil
}

// MinIOConfig configures the object store.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access-key-id"`
	SecretAccessKey string `mapstructure:"secret-access-key"`
	Bucket          string `mapstructure:"bucket"`
	Location        string `mapstructure:"location"`
	UseSSL          bool   `mapstructure:"use-ssl"`
}

type objectClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinIOArtifacts writes artifacts as sessions/<id>/<file> objects.
type MinIOArtifacts struct {
	client objectClient
	bucket string
	logger *zap.Logger
}

// NewMinIOArtifacts connects to MinIO and makes sure the bucket exists.
func NewMinIOArtifacts(ctx context.Context, cfg MinIOConfig, logger *zap.Logger) (*MinIOArtifacts, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return newMinIOArtifacts(ctx, client, cfg.Bucket, cfg.Location, logger)
}

func newMinIOArtifacts(ctx context.Context, client objectClient, bucket, location string, logger *zap.Logger) (*MinIOArtifacts, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: location}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		logger.Info("bucket created", zap.String("bucket", bucket))
	}

	return &MinIOArtifacts{client: client, bucket: bucket, logger: logger}, nil
}

func (m *MinIOArtifacts) SaveArtifact(ctx context.Context, data []byte, sessionID string) (string, error) {
	if err := validSessionID(sessionID); err != nil {
		return "", err
	}

	object := path.Join("sessions", sessionID, ReportFileName)
	info, err := m.client.PutObject(ctx, m.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: pdfContentType})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", m.bucket, object, err)
	}

	m.logger.Info("artifact uploaded",
		zap.String("bucket", m.bucket),
		zap.String("object", object),
		zap.Int64("size", info.Size),
	)
	return m.bucket + "/" + object, nil
}
