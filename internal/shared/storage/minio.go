package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Client MinIO对象存储封装
// 客户端可为nil（未配置存储时），调用方需对Enabled()判空降级
type Client struct {
	mc     *minio.Client
	bucket string
	logger *zap.Logger
}

// Config 对象存储配置
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New 创建存储客户端并确保bucket存在
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return &Client{logger: logger}, nil
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MinIO失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("检查bucket失败: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建bucket失败: %w", err)
		}
	}

	logger.Info("minio connected", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket))
	return &Client{mc: mc, bucket: cfg.Bucket, logger: logger}, nil
}

// Enabled 存储是否已配置
func (c *Client) Enabled() bool {
	return c != nil && c.mc != nil
}

// Upload 上传对象，返回对象路径
func (c *Client) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("对象存储未配置")
	}

	_, err := c.mc.PutObject(ctx, c.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传对象失败: %w", err)
	}
	return fmt.Sprintf("/%s/%s", c.bucket, objectName), nil
}

// PresignedURL 生成临时下载链接
func (c *Client) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("对象存储未配置")
	}

	u, err := c.mc.PresignedGetObject(ctx, c.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成下载链接失败: %w", err)
	}
	return u.String(), nil
}
