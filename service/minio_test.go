package service

import (
	"context"
	"testing"

	"github.com/Vishnulak/PRELEX-GENAI/config"
)

func TestNewMinioService(t *testing.T) {
	cfg := &config.MinioConfig{
		Endpoint:  "invalid-endpoint:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "test",
	}

	svc, err := NewMinioService(cfg)
	// The client is lazy; connection problems surface on first operation.
	if err != nil {
		t.Logf("NewMinioService returned error: %v", err)
	} else if svc == nil {
		t.Error("Expected non-nil service")
	}
}

func TestNewMinioServiceRejectsBadEndpoint(t *testing.T) {
	_, err := NewMinioService(&config.MinioConfig{Endpoint: "http://localhost:9000/path"})
	if err == nil {
		t.Error("Expected error for endpoint with scheme and path")
	}
}

func TestMinioServiceArchiveCancelledContext(t *testing.T) {
	svc, err := NewMinioService(&config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "test",
	})
	if err != nil {
		t.Skip("Could not create MinIO service")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Archive(ctx, "t/1/doc.pdf", []byte("%PDF"), "application/pdf"); err == nil {
		t.Error("Expected archive to fail with cancelled context")
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		name     string
		tenant   string
		id       string
		filename string
		expected string
	}{
		{"plain", "acme", "abc", "lease.pdf", "acme/abc/lease.pdf"},
		{"unix path", "acme", "abc", "../../etc/passwd", "acme/abc/passwd"},
		{"windows path", "acme", "abc", `C:\docs\nda.docx`, "acme/abc/nda.docx"},
		{"empty", "acme", "abc", "", "acme/abc/document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectName(tt.tenant, tt.id, tt.filename); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}
