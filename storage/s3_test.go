package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewS3Storage(t *testing.T) {
	tests := []struct {
		name      string
		opts      S3Options
		wantError bool
	}{
		{
			name: "valid bucket and region",
			opts: S3Options{Bucket: "evidence", Region: "us-east-1"},
		},
		{
			name: "custom endpoint with path style",
			opts: S3Options{Bucket: "evidence", Region: "us-east-1", Endpoint: "http://localhost:9000", PathStyle: true},
		},
		{
			name:      "empty bucket",
			opts:      S3Options{Region: "us-east-1"},
			wantError: true,
		},
		{
			name:      "empty region",
			opts:      S3Options{Bucket: "evidence"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewS3Storage(context.Background(), tt.opts)
			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if storage.bucket != tt.opts.Bucket {
				t.Errorf("bucket mismatch: got %q, want %q", storage.bucket, tt.opts.Bucket)
			}
			if storage.presignExpiration != 15*time.Minute {
				t.Errorf("unexpected default presign expiration: %v", storage.presignExpiration)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		want      string
		wantError bool
	}{
		{name: "simple path", path: "error.png", want: "error.png"},
		{name: "nested path", path: "runs/admin/error.png", want: "runs/admin/error.png"},
		{name: "cleaned middle traversal", path: "runs/../error.png", want: "error.png"},
		{name: "leading dot slash", path: "./error.png", want: "error.png"},
		{name: "empty path", path: "", wantError: true},
		{name: "traversal", path: "../error.png", wantError: true},
		{name: "absolute path", path: "/etc/passwd", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := objectKey(tt.path)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("expected ErrInvalidPath for %q, got %v", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("key mismatch: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestS3Storage_RejectsInvalidPathsWithoutNetwork(t *testing.T) {
	storage, err := NewS3Storage(context.Background(), S3Options{Bucket: "evidence", Region: "us-east-1"})
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	ctx := context.Background()
	invalid := []string{"", "../../../etc/passwd", "../outside.png", "subdir/../../outside.png", "/absolute/error.png"}

	for _, path := range invalid {
		if err := storage.Upload(ctx, path, strings.NewReader("png")); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("upload should have blocked %q, got %v", path, err)
		}
		if _, err := storage.Download(ctx, path); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("download should have blocked %q, got %v", path, err)
		}
		if err := storage.Delete(ctx, path); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("delete should have blocked %q, got %v", path, err)
		}
		if _, err := storage.Exists(ctx, path); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("exists should have blocked %q, got %v", path, err)
		}
		if _, err := storage.GetURL(ctx, path); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("getURL should have blocked %q, got %v", path, err)
		}
	}
}

func TestNewBlobStorage_S3PresignExpiry(t *testing.T) {
	bs, err := NewBlobStorage(context.Background(), Config{
		Type:          TypeS3,
		S3Bucket:      "evidence",
		S3Region:      "eu-west-1",
		PresignExpiry: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s3Storage, ok := bs.(*S3Storage)
	if !ok {
		t.Fatalf("expected *S3Storage, got %T", bs)
	}
	if s3Storage.presignExpiration != time.Hour {
		t.Errorf("expected presign expiration of 1h, got %v", s3Storage.presignExpiration)
	}
}
