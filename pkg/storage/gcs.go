package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"lms-certificate/backend/config"
)

const gcsReadTimeout = 2 * time.Minute

// GCSStore Google Cloud Storage 存储
type GCSStore struct {
	client    *gcs.Client
	bucket    string
	cdnDomain string
	logger    *zap.Logger
}

// NewGCSStore 创建 GCS 客户端；未配置凭据文件时使用默认应用凭据
func NewGCSStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*GCSStore, error) {
	opts := []option.ClientOption{option.WithScopes(gcs.ScopeReadOnly)}
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 GCS 客户端失败: %w", err)
	}

	logger.Info("GCS 存储已就绪", zap.String("bucket", cfg.GCSBucket))

	return &GCSStore{
		client:    client,
		bucket:    cfg.GCSBucket,
		cdnDomain: cfg.CDNDomain,
		logger:    logger,
	}, nil
}

// readCloserWithCancel 读取器关闭时再取消上下文，否则调用方会读到 0 字节
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

// Open 读取对象
func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}

	ctx2, cancel := context.WithTimeout(ctx, gcsReadTimeout)
	r, err := s.client.Bucket(s.bucket).Object(k).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, k)
		}
		return nil, fmt.Errorf("打开 GCS 对象失败: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

// PublicURL 优先使用 CDN 域名
func (s *GCSStore) PublicURL(key string) string {
	k, err := CleanKey(key)
	if err != nil {
		return key
	}
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, k)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, k)
}

// Close 关闭 GCS 客户端
func (s *GCSStore) Close() error {
	return s.client.Close()
}
