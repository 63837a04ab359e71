// Package storage keeps rendered search reports in an S3-compatible object store.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size is the exact number of bytes, or -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object store contract used for reports.
type Storage interface {
	// Put uploads an object under key from r.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// PresignGet returns a time-limited download URL for key.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ReportKey is the object key of a job's HTML report.
func ReportKey(jobID string) string {
	return fmt.Sprintf("reports/%s.html", jobID)
}

// Reports stores HTML reports and hands out presigned links to them.
type Reports struct {
	store  Storage
	expiry time.Duration
}

// NewReports wraps store. Links expire after expiry (7 days when zero).
func NewReports(store Storage, expiry time.Duration) *Reports {
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &Reports{store: store, expiry: expiry}
}

// Save uploads the report of jobID and returns its key.
func (r *Reports) Save(ctx context.Context, jobID string, html []byte) (string, error) {
	key := ReportKey(jobID)
	_, err := r.store.Put(ctx, key, bytes.NewReader(html), PutObjectOptions{
		Size:        int64(len(html)),
		ContentType: "text/html; charset=utf-8",
		Metadata:    map[string]string{"job-id": jobID},
	})
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return key, nil
}

// Link returns a presigned URL for a stored report key.
func (r *Reports) Link(ctx context.Context, key string) (string, error) {
	u, err := r.store.PresignGet(ctx, key, r.expiry)
	if err != nil {
		return "", fmt.Errorf("presign report: %w", err)
	}
	return u, nil
}
