// Package objectstore pushes emission artifacts to S3-compatible object
// storage so the decoding stage can pick them up without a shared
// filesystem. Upload is optional; runs without an endpoint configured skip
// it entirely.
package objectstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"speech-eval-pipeline/internal/config"
)

const artifactContentType = "application/octet-stream"

// Client wraps a MinIO connection bound to one bucket.
type Client struct {
	client *minio.Client
	bucket string
}

// New connects to the object store named in the configuration and makes sure
// the bucket exists.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.StoreEndpoint == "" {
		return nil, errors.New("objectstore: no endpoint configured")
	}
	if cfg.StoreBucket == "" {
		return nil, errors.New("objectstore: no bucket configured")
	}

	mc, err := minio.New(cfg.StoreEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StoreAccessKey, cfg.StoreSecretKey, ""),
		Secure: cfg.StoreUseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "objectstore: initialize client")
	}

	exists, err := mc.BucketExists(ctx, cfg.StoreBucket)
	if err != nil {
		return nil, errors.Wrapf(err, "objectstore: check bucket %q", cfg.StoreBucket)
	}
	if !exists {
		logrus.Infof("Bucket %q does not exist, creating it", cfg.StoreBucket)
		if err := mc.MakeBucket(ctx, cfg.StoreBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "objectstore: create bucket %q", cfg.StoreBucket)
		}
	}

	return &Client{client: mc, bucket: cfg.StoreBucket}, nil
}

// UploadArtifact uploads the artifact file at path under the run-scoped
// object name "<runID>/<file name>" and returns that name.
func (c *Client) UploadArtifact(ctx context.Context, runID, path string) (string, error) {
	objectName := runID + "/" + filepath.Base(path)
	info, err := c.client.FPutObject(ctx, c.bucket, objectName, path, minio.PutObjectOptions{
		ContentType: artifactContentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "objectstore: upload %s", objectName)
	}
	logrus.Infof("Uploaded artifact %s (%d bytes, etag %s)", objectName, info.Size, info.ETag)
	return objectName, nil
}

// DownloadArtifact fetches an artifact object into destPath. Used by the
// decoding stage to pull an emission set produced elsewhere.
func (c *Client) DownloadArtifact(ctx context.Context, objectName, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return errors.Wrap(err, "objectstore: create destination dir")
	}
	if err := c.client.FGetObject(ctx, c.bucket, objectName, destPath, minio.GetObjectOptions{}); err != nil {
		return errors.Wrapf(err, "objectstore: download %s", objectName)
	}
	return nil
}
