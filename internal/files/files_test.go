package files

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aviary-ai/aviary/internal/log"
)

type mockClient struct {
	created   openai.FileBytesRequest
	deleted   string
	createErr error
	files     []openai.File
}

func (m *mockClient) CreateFileBytes(_ context.Context, req openai.FileBytesRequest) (openai.File, error) {
	if m.createErr != nil {
		return openai.File{}, m.createErr
	}
	m.created = req
	return openai.File{ID: "file-123", FileName: req.Name, Bytes: len(req.Bytes), Purpose: string(req.Purpose)}, nil
}

func (m *mockClient) ListFiles(_ context.Context) (openai.FilesList, error) {
	return openai.FilesList{Files: m.files}, nil
}

func (m *mockClient) DeleteFile(_ context.Context, fileID string) error {
	m.deleted = fileID
	return nil
}

func newTestService(c client) *Service {
	return &Service{client: c, logger: log.NewNop()}
}

func TestUpload(t *testing.T) {
	mock := &mockClient{}
	svc := newTestService(mock)

	got, err := svc.Upload(context.Background(), "notes.txt", []byte("hello"), "")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got.ID != "file-123" {
		t.Errorf("got.ID = %q, want file-123", got.ID)
	}
	if mock.created.Purpose != openai.PurposeAssistants {
		t.Errorf("purpose = %q, want default assistants", mock.created.Purpose)
	}
	if string(mock.created.Bytes) != "hello" {
		t.Error("uploaded bytes do not match input")
	}
}

func TestUploadValidation(t *testing.T) {
	svc := newTestService(&mockClient{})

	if _, err := svc.Upload(context.Background(), "empty.txt", nil, ""); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Upload(empty) error = %v, want ErrEmptyFile", err)
	}

	big := make([]byte, MaxUploadBytes+1)
	if _, err := svc.Upload(context.Background(), "big.bin", big, ""); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Upload(big) error = %v, want ErrTooLarge", err)
	}
}

func TestList(t *testing.T) {
	mock := &mockClient{files: []openai.File{
		{ID: "file-1", FileName: "a.txt"},
		{ID: "file-2", FileName: "b.txt"},
	}}
	svc := newTestService(mock)

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "file-1" {
		t.Errorf("List() = %+v, want the two stored files", got)
	}
}

func TestDelete(t *testing.T) {
	mock := &mockClient{}
	svc := newTestService(mock)

	if err := svc.Delete(context.Background(), "file-123"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mock.deleted != "file-123" {
		t.Errorf("deleted = %q, want file-123", mock.deleted)
	}
}
