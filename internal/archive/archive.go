package archive

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

// Uploader keeps an audit copy of every tarball pushed to the target in an
// S3-compatible bucket. The archive is a side channel: its failures are
// logged and never change a transfer outcome.
type Uploader struct {
	client *minio.Client
	bucket string
	prefix string
	log    *logrus.Entry
}

// New builds an uploader from the archive settings.
func New(cfg models.ArchiveConfig, log *logrus.Entry) (*Uploader, error) {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	opts := minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Transport:    tr,
		BucketLookup: minio.BucketLookupAuto,
	}

	client, err := minio.New(cfg.Endpoint, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive client: %v", err)
	}

	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log,
	}, nil
}

// Store uploads the local tarball under the asset's repository path.
func (u *Uploader) Store(ctx context.Context, asset models.Asset, localPath string) error {
	key := u.objectKey(asset.Path)

	_, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/gzip",
		UserMetadata: map[string]string{
			"asset-path":    asset.Path,
			"last-modified": asset.LastModified,
		},
	})
	if err != nil {
		return fmt.Errorf("archiving %s: %w", asset.Path, err)
	}

	u.log.WithFields(logrus.Fields{"path": asset.Path, "object": key}).Debug("Archived tarball")
	return nil
}

// objectKey maps an asset path onto the bucket, under the configured prefix.
func (u *Uploader) objectKey(assetPath string) string {
	key := strings.TrimPrefix(path.Clean("/"+assetPath), "/")
	if u.prefix != "" {
		key = strings.TrimRight(u.prefix, "/") + "/" + key
	}
	return key
}
