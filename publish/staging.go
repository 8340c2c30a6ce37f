package publish

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"reel-pipeline/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// Staging uploads the finished video to object storage to obtain a
// publicly fetchable URL, for platforms that cannot take the binary
// directly. The object is temporary: the publish fan-out decides
// whether it gets cleaned up or retained for manual retry.
type Staging struct {
	client *minio.Client
	cfg    config.StagingConfig
}

// NewStaging builds the object-storage client from config plus
// STAGING_ACCESS_KEY / STAGING_SECRET_KEY in the environment.
func NewStaging(cfg config.StagingConfig) (*Staging, error) {
	accessKey := os.Getenv("STAGING_ACCESS_KEY")
	secretKey := os.Getenv("STAGING_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("STAGING_ACCESS_KEY or STAGING_SECRET_KEY not set")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("staging client: %w", err)
	}
	return &Staging{client: client, cfg: cfg}, nil
}

// Upload stores the video and returns a presigned URL the platforms
// can fetch, plus the object name for later cleanup.
func (s *Staging) Upload(ctx context.Context, videoPath string) (string, string, error) {
	object := fmt.Sprintf("staging/%d_%s", time.Now().Unix(), filepath.Base(videoPath))

	log.Infof("[publish] Staging upload: %s → %s/%s", videoPath, s.cfg.Bucket, object)
	_, err := s.client.FPutObject(ctx, s.cfg.Bucket, object, videoPath, minio.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return "", "", fmt.Errorf("staging put: %w", err)
	}

	expiry := time.Duration(s.cfg.URLExpiryHrs) * time.Hour
	presigned, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, object, expiry, url.Values{})
	if err != nil {
		return "", "", fmt.Errorf("staging presign: %w", err)
	}

	log.Infof("[publish] ✅ Staging URL ready (expires in %s)", expiry)
	return presigned.String(), object, nil
}

// Remove deletes the staging object.
func (s *Staging) Remove(ctx context.Context, object string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("staging remove: %w", err)
	}
	log.Infof("[publish] staging artifact cleaned up: %s", object)
	return nil
}

// Location describes where a retained staging artifact lives.
func (s *Staging) Location(object string) string {
	return fmt.Sprintf("%s/%s/%s", s.cfg.Endpoint, s.cfg.Bucket, object)
}
