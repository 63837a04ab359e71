package storage_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aycf/internal/config"
	"aycf/internal/storage"
	"aycf/internal/storage/mocks"
)

func TestReportsSave(t *testing.T) {
	store := new(mocks.MockStorage)
	reports := storage.NewReports(store, 0)
	html := []byte("<html>report</html>")

	store.On("Put", mock.Anything, "reports/job-1.html", mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
		return o.Size == int64(len(html)) && o.ContentType == "text/html; charset=utf-8" && o.Metadata["job-id"] == "job-1"
	})).Return(func(_ context.Context, key string, r io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
		body, _ := io.ReadAll(r)
		assert.Equal(t, html, body)
		return storage.ObjectInfo{Key: key}
	}, nil).Once()

	key, err := reports.Save(context.Background(), "job-1", html)
	require.NoError(t, err)
	assert.Equal(t, "reports/job-1.html", key)
	store.AssertExpectations(t)
}

func TestReportsSaveError(t *testing.T) {
	store := new(mocks.MockStorage)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("bucket gone"))

	_, err := storage.NewReports(store, time.Hour).Save(context.Background(), "job-1", nil)
	assert.ErrorContains(t, err, "upload report: bucket gone")
}

func TestReportsLink(t *testing.T) {
	store := new(mocks.MockStorage)
	store.On("PresignGet", mock.Anything, "reports/job-1.html", 7*24*time.Hour).
		Return("https://minio.local/aycf-reports/reports/job-1.html?X-Amz-Signature=abc", nil)

	u, err := storage.NewReports(store, 0).Link(context.Background(), "reports/job-1.html")
	require.NoError(t, err)
	assert.Contains(t, u, "X-Amz-Signature")
	store.AssertExpectations(t)
}

func TestNewMinIOValidation(t *testing.T) {
	ctx := context.Background()

	_, err := storage.NewMinIO(ctx, config.MinIOConfig{})
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = storage.NewMinIO(ctx, config.MinIOConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials are required")

	_, err = storage.NewMinIO(ctx, config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket is required")
}
