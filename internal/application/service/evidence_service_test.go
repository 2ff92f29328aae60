package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/unifound/lostfound/internal/domain/entity"
)

type mockEvidenceRepo struct {
	files               []*entity.EvidenceFile
	createFunc          func(ctx context.Context, f *entity.EvidenceFile) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.EvidenceFile, error)
	listByRequestIDFunc func(ctx context.Context, requestID string) ([]*entity.EvidenceFile, error)
}

func (m *mockEvidenceRepo) Create(ctx context.Context, f *entity.EvidenceFile) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, f)
	}
	m.files = append(m.files, f)
	return nil
}

func (m *mockEvidenceRepo) GetByID(ctx context.Context, id string) (*entity.EvidenceFile, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	for _, f := range m.files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockEvidenceRepo) ListByRequestID(ctx context.Context, requestID string) ([]*entity.EvidenceFile, error) {
	if m.listByRequestIDFunc != nil {
		return m.listByRequestIDFunc(ctx, requestID)
	}
	var out []*entity.EvidenceFile
	for _, f := range m.files {
		if f.RequestID == requestID {
			out = append(out, f)
		}
	}
	return out, nil
}

type mockFileStorage struct {
	saved    map[string][]byte
	saveFunc func(ctx context.Context, path string, content []byte) error
}

func (m *mockFileStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, path, content)
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[path] = content
	return nil
}

func (m *mockFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	content, ok := m.saved[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return content, nil
}

type stubExtractor struct {
	extractFunc func(ctx context.Context, data []byte) (string, error)
}

func (s *stubExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	if s.extractFunc != nil {
		return s.extractFunc(ctx, data)
	}
	return "", nil
}

func claimRequestRepo(stored *entity.WorkRequest) *mockRequestRepo {
	return &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.WorkRequest, error) {
			if stored != nil && id == stored.ID {
				return stored, nil
			}
			return nil, nil
		},
	}
}

func TestEvidenceService_Upload_PDF(t *testing.T) {
	stored := requestFixture(entity.RequestTypeItemClaim, entity.StatusPending, []string{"CAMPUS_SECURITY"}, 0)
	evidenceRepo := &mockEvidenceRepo{}
	storage := &mockFileStorage{}
	extractor := &stubExtractor{
		extractFunc: func(ctx context.Context, data []byte) (string, error) {
			return "receipt for blue backpack, serial 8841", nil
		},
	}
	service := NewEvidenceService(claimRequestRepo(stored), evidenceRepo, storage, extractor, &mockLogger{})

	file, err := service.Upload(context.Background(), "req-1", "receipt.pdf", "application/pdf", []byte("%PDF-1.7 fake"), "student@university.edu")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if file.ExtractedText != "receipt for blue backpack, serial 8841" {
		t.Errorf("Upload() extracted text = %q", file.ExtractedText)
	}
	if !strings.HasPrefix(file.StoredPath, "evidence/") || !strings.HasSuffix(file.StoredPath, "receipt.pdf") {
		t.Errorf("Upload() stored path = %q", file.StoredPath)
	}
	if _, ok := storage.saved[file.StoredPath]; !ok {
		t.Error("Upload() did not write the file to storage")
	}
	if len(evidenceRepo.files) != 1 {
		t.Errorf("Upload() recorded %d evidence rows, want 1", len(evidenceRepo.files))
	}
}

func TestEvidenceService_Upload_NonPDFSkipsExtraction(t *testing.T) {
	stored := requestFixture(entity.RequestTypeItemClaim, entity.StatusPending, []string{"CAMPUS_SECURITY"}, 0)
	extractorCalled := false
	extractor := &stubExtractor{
		extractFunc: func(ctx context.Context, data []byte) (string, error) {
			extractorCalled = true
			return "", nil
		},
	}
	service := NewEvidenceService(claimRequestRepo(stored), &mockEvidenceRepo{}, &mockFileStorage{}, extractor, &mockLogger{})

	file, err := service.Upload(context.Background(), "req-1", "photo.jpg", "image/jpeg", []byte{0xff, 0xd8}, "student@university.edu")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if extractorCalled || file.ExtractedText != "" {
		t.Errorf("Upload() extracted text from a JPEG")
	}
}

func TestEvidenceService_Upload_ExtractionFailureIsAdvisory(t *testing.T) {
	stored := requestFixture(entity.RequestTypeItemClaim, entity.StatusPending, []string{"CAMPUS_SECURITY"}, 0)
	evidenceRepo := &mockEvidenceRepo{}
	extractor := &stubExtractor{
		extractFunc: func(ctx context.Context, data []byte) (string, error) {
			return "", errors.New("corrupt xref table")
		},
	}
	service := NewEvidenceService(claimRequestRepo(stored), evidenceRepo, &mockFileStorage{}, extractor, &mockLogger{})

	file, err := service.Upload(context.Background(), "req-1", "receipt.pdf", "application/pdf", []byte("%PDF-1.7 fake"), "student@university.edu")
	if err != nil {
		t.Fatalf("Upload() error = %v, want success despite extraction failure", err)
	}
	if file.ExtractedText != "" {
		t.Errorf("Upload() extracted text = %q, want empty", file.ExtractedText)
	}
	if len(evidenceRepo.files) != 1 {
		t.Errorf("Upload() recorded %d evidence rows, want 1", len(evidenceRepo.files))
	}
}

func TestEvidenceService_Upload_Rejections(t *testing.T) {
	claim := requestFixture(entity.RequestTypeItemClaim, entity.StatusPending, []string{"CAMPUS_SECURITY"}, 0)
	transfer := requestFixture(entity.RequestTypeCrossCampusTransfer, entity.StatusPending, []string{"CAMPUS_SECURITY"}, 0)
	transfer.ID = "req-transfer"
	reqRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.WorkRequest, error) {
			switch id {
			case claim.ID:
				return claim, nil
			case transfer.ID:
				return transfer, nil
			}
			return nil, nil
		},
	}
	service := NewEvidenceService(reqRepo, &mockEvidenceRepo{}, &mockFileStorage{}, nil, &mockLogger{})

	tests := []struct {
		name      string
		requestID string
		fileName  string
		data      []byte
		wantErr   func(error) bool
	}{
		{
			name:      "missing request",
			requestID: "req-missing",
			fileName:  "receipt.pdf",
			data:      []byte("x"),
			wantErr: func(err error) bool {
				var notFound *NotFoundError
				return errors.As(err, &notFound)
			},
		},
		{
			name:      "non-claim request",
			requestID: "req-transfer",
			fileName:  "receipt.pdf",
			data:      []byte("x"),
			wantErr: func(err error) bool {
				var invalid *ValidationError
				return errors.As(err, &invalid)
			},
		},
		{
			name:      "empty file",
			requestID: "req-1",
			fileName:  "receipt.pdf",
			data:      nil,
			wantErr: func(err error) bool {
				var invalid *ValidationError
				return errors.As(err, &invalid)
			},
		},
		{
			name:      "path traversal in file name",
			requestID: "req-1",
			fileName:  "../../etc/passwd",
			data:      []byte("x"),
			wantErr: func(err error) bool {
				var invalid *ValidationError
				return errors.As(err, &invalid)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Upload(context.Background(), tt.requestID, tt.fileName, "application/pdf", tt.data, "student@university.edu")
			if err == nil || !tt.wantErr(err) {
				t.Errorf("Upload() error = %v, want a typed rejection", err)
			}
		})
	}
}

func TestEvidenceService_List(t *testing.T) {
	stored := requestFixture(entity.RequestTypeItemClaim, entity.StatusPending, []string{"CAMPUS_SECURITY"}, 0)
	evidenceRepo := &mockEvidenceRepo{
		files: []*entity.EvidenceFile{
			{ID: "ev-1", RequestID: "req-1", FileName: "receipt.pdf"},
			{ID: "ev-2", RequestID: "req-other", FileName: "photo.jpg"},
		},
	}
	service := NewEvidenceService(claimRequestRepo(stored), evidenceRepo, &mockFileStorage{}, nil, &mockLogger{})

	files, err := service.List(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 1 || files[0].ID != "ev-1" {
		t.Errorf("List() = %+v, want only this request's files", files)
	}

	_, err = service.List(context.Background(), "req-missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("List() error = %v, want NotFoundError", err)
	}
}
