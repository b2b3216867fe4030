package services

import (
	"context"
	"fmt"
	"immigration_crm_go/config"
	"immigration_crm_go/domain"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Content types of the documents the CRM archives
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// StorageProvider archives generated documents (exports, statements)
type StorageProvider interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (*StorageResult, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error) // reader, content-type
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	PublicURL(key string) string
}

// StorageResult contains information about the stored file
type StorageResult struct {
	Key      string `json:"key"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url,omitempty"`
}

// NewStorage picks R2 when fully configured and reachable, local disk otherwise
func NewStorage(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) StorageProvider {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" {
		log.WithField("path", cfg.UploadDir).Info("Storage ready (local filesystem)")
		return NewLocalStorage(cfg.UploadDir)
	}

	r2, err := NewR2Storage(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize R2 storage, falling back to local storage")
		return NewLocalStorage(cfg.UploadDir)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := r2.client.HeadBucket(pingCtx, &s3.HeadBucketInput{Bucket: aws.String(cfg.R2BucketName)}); err != nil {
		log.WithError(err).Warn("R2 bucket connection test failed, falling back to local storage")
		return NewLocalStorage(cfg.UploadDir)
	}

	log.WithField("bucket", cfg.R2BucketName).Info("Storage ready (Cloudflare R2)")
	return r2
}

// R2Storage implements StorageProvider for Cloudflare R2 through the S3 API
type R2Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// NewR2Storage creates a new R2 storage provider
func NewR2Storage(ctx context.Context, cfg *config.Config) (*R2Storage, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)

	creds := credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion("auto"), // R2 uses "auto" region
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.R2BucketName,
		publicURL: cfg.R2PublicURL,
	}, nil
}

// Put uploads content to R2
func (r *R2Storage) Put(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (*StorageResult, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to R2: %w", err)
	}

	return &StorageResult{
		Key:      key,
		FileName: filepath.Base(key),
		FileSize: size,
		MimeType: contentType,
		URL:      r.PublicURL(key),
	}, nil
}

// Delete removes an object from R2
func (r *R2Storage) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from R2: %w", err)
	}
	return nil
}

// Get retrieves an object from R2
func (r *R2Storage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object from R2: %w", err)
	}

	contentType := "application/octet-stream"
	if result.ContentType != nil {
		contentType = *result.ContentType
	}
	return result.Body, contentType, nil
}

// SignedURL generates a presigned URL for temporary access
func (r *R2Storage) SignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return req.URL, nil
}

// PublicURL returns the public URL when a public bucket domain is configured
func (r *R2Storage) PublicURL(key string) string {
	if r.publicURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(r.publicURL, "/"), key)
}

// LocalStorage implements StorageProvider on the local filesystem
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a new local storage provider
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

// Put saves content under baseDir/key
func (l *LocalStorage) Put(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (*StorageResult, error) {
	fullPath := filepath.Join(l.baseDir, key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &StorageResult{
		Key:      key,
		FileName: filepath.Base(key),
		FileSize: written,
		MimeType: contentType,
		URL:      l.PublicURL(key),
	}, nil
}

// Delete removes a file. Missing files are not an error.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(filepath.Join(l.baseDir, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Get opens a stored file
func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	file, err := os.Open(filepath.Join(l.baseDir, key))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		contentType = ContentTypePDF
	case ".xlsx":
		contentType = ContentTypeXLSX
	}
	return file, contentType, nil
}

// SignedURL for local storage is the plain path
func (l *LocalStorage) SignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return l.PublicURL(key), nil
}

// PublicURL returns the local file path
func (l *LocalStorage) PublicURL(key string) string {
	return "/" + filepath.ToSlash(filepath.Join(l.baseDir, key))
}

// SummaryExportKey is the archive key of a monthly accounting export
func SummaryExportKey(month domain.Month, generatedAt time.Time) string {
	return fmt.Sprintf("accounting/%04d/%s_%d.xlsx", month.Year, month.String(), generatedAt.Unix())
}

// CaseStatementKey is the archive key of a case statement PDF
func CaseStatementKey(caseID string) string {
	return fmt.Sprintf("cases/%s/statements/%s.pdf", caseID, uuid.New().String())
}
