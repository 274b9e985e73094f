package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"cleardoc-backend/internal/blob"
)

const (
	uploadHandleTTL = 5 * time.Minute
	downloadURLTTL  = time.Hour
	downloadTimeout = 30 * time.Second
)

// Gateway implements blob.Gateway against Amazon S3 using presigned URLs.
// Uploads go directly from the browser to S3; the worker fetches objects
// back through a presigned GET.
type Gateway struct {
	client     *awss3.Client
	presign    *awss3.PresignClient
	httpClient *http.Client
	bucket     string
	prefix     string
}

// New loads AWS configuration from the environment and builds the gateway.
func New(ctx context.Context, region, bucket, prefix string) (*Gateway, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(cfg)
	return &Gateway{
		client:     client,
		presign:    awss3.NewPresignClient(client),
		httpClient: &http.Client{Timeout: downloadTimeout},
		bucket:     bucket,
		prefix:     normalizePrefix(prefix),
	}, nil
}

// IssueUploadHandle presigns a conditional PUT for the object. IfNoneMatch
// makes S3 refuse the write if the key already exists, so a leaked handle
// cannot replace uploaded bytes.
func (g *Gateway) IssueUploadHandle(ctx context.Context, storagePath, contentType string, sizeBytes int64) (blob.UploadHandle, error) {
	if err := ctx.Err(); err != nil {
		return blob.UploadHandle{}, err
	}

	objectKey := applyPrefix(g.prefix, storagePath)
	input := &awss3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(objectKey),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(sizeBytes),
		IfNoneMatch:   aws.String("*"),
	}

	signed, err := g.presign.PresignPutObject(ctx, input, func(o *awss3.PresignOptions) {
		o.Expires = uploadHandleTTL
	})
	if err != nil {
		return blob.UploadHandle{}, fmt.Errorf("presign put bucket=%s key=%s: %w", g.bucket, objectKey, err)
	}

	headers := make(map[string]string, len(signed.SignedHeader))
	for name, values := range signed.SignedHeader {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	return blob.UploadHandle{
		URL:       signed.URL,
		Method:    signed.Method,
		Headers:   headers,
		ExpiresAt: time.Now().UTC().Add(uploadHandleTTL),
	}, nil
}

// Download presigns a GET and fetches the object over HTTP.
func (g *Gateway) Download(ctx context.Context, storagePath string) ([]byte, error) {
	objectKey := applyPrefix(g.prefix, storagePath)
	signed, err := g.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(objectKey),
	}, func(o *awss3.PresignOptions) {
		o.Expires = downloadURLTTL
	})
	if err != nil {
		return nil, &blob.DownloadError{Path: storagePath, Err: fmt.Errorf("presign get: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signed.URL, nil)
	if err != nil {
		return nil, &blob.DownloadError{Path: storagePath, Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &blob.DownloadError{Path: storagePath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &blob.DownloadError{Path: storagePath, Err: fmt.Errorf("fetch status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &blob.DownloadError{Path: storagePath, Err: err}
	}
	return data, nil
}

// Delete removes the object. S3 DeleteObject succeeds on missing keys, which
// matches the Gateway contract.
func (g *Gateway) Delete(ctx context.Context, storagePath string) error {
	objectKey := applyPrefix(g.prefix, storagePath)
	if _, err := g.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("s3 delete object bucket=%s key=%s: %w", g.bucket, objectKey, err)
	}
	return nil
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanKey := strings.TrimLeft(key, "/")
	if prefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return prefix
	}
	return prefix + "/" + cleanKey
}

var _ blob.Gateway = (*Gateway)(nil)
