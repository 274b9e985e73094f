package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cleardoc-backend/internal/blob"
)

// Gateway is an in-memory blob.Gateway for dev mode and tests. Upload
// handles point at a fake URL; tests seed objects with Put.
type Gateway struct {
	mu      sync.Mutex
	objects map[string][]byte

	FailIssue    error
	FailDownload error
}

func New() *Gateway {
	return &Gateway{objects: make(map[string][]byte)}
}

// Put seeds an object, standing in for the client-side upload.
func (g *Gateway) Put(storagePath string, data []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.objects[storagePath] = data
}

func (g *Gateway) IssueUploadHandle(ctx context.Context, storagePath, contentType string, sizeBytes int64) (blob.UploadHandle, error) {
	if g.FailIssue != nil {
		return blob.UploadHandle{}, g.FailIssue
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.objects[storagePath]; exists {
		return blob.UploadHandle{}, fmt.Errorf("object already exists: %s", storagePath)
	}
	return blob.UploadHandle{
		URL:       "memory://" + storagePath,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}, nil
}

func (g *Gateway) Download(ctx context.Context, storagePath string) ([]byte, error) {
	if g.FailDownload != nil {
		return nil, &blob.DownloadError{Path: storagePath, Err: g.FailDownload}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	data, ok := g.objects[storagePath]
	if !ok {
		return nil, &blob.DownloadError{Path: storagePath, Err: fmt.Errorf("object not found")}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (g *Gateway) Delete(ctx context.Context, storagePath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.objects, storagePath)
	return nil
}

var _ blob.Gateway = (*Gateway)(nil)
