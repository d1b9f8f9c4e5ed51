// Package files passes uploaded files through to the completion provider's
// file storage API. Nothing is stored locally; the provider's file ID is
// returned to the caller.
package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 32 << 20

// Sentinel errors for file operations.
var (
	// ErrEmptyFile indicates an upload with no content.
	ErrEmptyFile = errors.New("file is empty")

	// ErrTooLarge indicates an upload over MaxUploadBytes.
	ErrTooLarge = errors.New("file too large")
)

// client is the slice of the provider API the service uses.
type client interface {
	CreateFileBytes(ctx context.Context, request openai.FileBytesRequest) (openai.File, error)
	ListFiles(ctx context.Context) (openai.FilesList, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// File describes one stored file at the provider.
type File struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bytes     int       `json:"bytes"`
	Purpose   string    `json:"purpose"`
	CreatedAt time.Time `json:"created_at"`
}

// Service forwards file operations to the provider.
type Service struct {
	client client
	logger *slog.Logger
}

// NewService creates a file Service over an OpenAI-compatible client.
func NewService(c *openai.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: c, logger: logger}
}

// Upload sends file content to the provider and returns its descriptor.
// An empty purpose defaults to assistants.
func (s *Service) Upload(ctx context.Context, name string, data []byte, purpose string) (File, error) {
	if len(data) == 0 {
		return File{}, ErrEmptyFile
	}
	if len(data) > MaxUploadBytes {
		return File{}, ErrTooLarge
	}
	if purpose == "" {
		purpose = string(openai.PurposeAssistants)
	}

	created, err := s.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeType(purpose),
	})
	if err != nil {
		return File{}, fmt.Errorf("upload file: %w", err)
	}

	s.logger.Info("file uploaded", "file_id", created.ID, "name", name, "bytes", len(data))
	return toFile(created), nil
}

// List returns the provider's stored files.
func (s *Service) List(ctx context.Context) ([]File, error) {
	resp, err := s.client.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files := make([]File, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, toFile(f))
	}
	return files, nil
}

// Delete removes a stored file at the provider.
func (s *Service) Delete(ctx context.Context, fileID string) error {
	if err := s.client.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	s.logger.Info("file deleted", "file_id", fileID)
	return nil
}

func toFile(f openai.File) File {
	return File{
		ID:        f.ID,
		Name:      f.FileName,
		Bytes:     f.Bytes,
		Purpose:   f.Purpose,
		CreatedAt: time.Unix(f.CreatedAt, 0).UTC(),
	}
}
