package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/release"
)

type mockReleaseRepo struct {
	forms map[string]*entity.ReleaseForm
}

func (m *mockReleaseRepo) Create(ctx context.Context, form *entity.ReleaseForm) error {
	if m.forms == nil {
		m.forms = map[string]*entity.ReleaseForm{}
	}
	m.forms[form.RequestID] = form
	return nil
}

func (m *mockReleaseRepo) GetByRequestID(ctx context.Context, requestID string) (*entity.ReleaseForm, error) {
	return m.forms[requestID], nil
}

type stubRenderer struct {
	rendered   *release.FormData
	renderFunc func(data *release.FormData) ([]byte, error)
}

func (s *stubRenderer) Render(data *release.FormData) ([]byte, error) {
	s.rendered = data
	if s.renderFunc != nil {
		return s.renderFunc(data)
	}
	return []byte("workbook"), nil
}

func approvedClaim() *entity.WorkRequest {
	req := requestFixture(entity.RequestTypeItemClaim, entity.StatusApproved, []string{"CAMPUS_SECURITY"}, 0)
	req.DecidedBy = "security@university.edu"
	return req
}

func newTestReleaseService(
	req *entity.WorkRequest,
	recRepo *mockRecordRepo,
	releaseRepo *mockReleaseRepo,
	storage *mockFileStorage,
	renderer *stubRenderer,
) ReleaseService {
	return NewReleaseService(
		claimRequestRepo(req),
		recRepo,
		&mockItemRepo{items: map[string]*entity.Item{
			"item-1": {ID: "item-1", Title: "Navy backpack", Category: "bag"},
		}},
		&mockDirectoryRepo{},
		releaseRepo,
		storage,
		renderer,
		&mockLogger{},
	)
}

func TestReleaseService_GenerateForRequest(t *testing.T) {
	recRepo := &mockRecordRepo{
		listByRequestIDFunc: func(ctx context.Context, requestID string) ([]*entity.ApprovalRecord, error) {
			return []*entity.ApprovalRecord{
				{ID: "rec-1", RequestID: requestID, Action: entity.ActionCreate, ActorEmail: "requester@university.edu"},
				{ID: "rec-2", RequestID: requestID, StepIndex: 0, Action: entity.ActionApprove, ActorEmail: "security@university.edu", ActorRole: "CAMPUS_SECURITY"},
				{ID: "rec-3", RequestID: requestID, Action: entity.ActionUpdate, ActorEmail: "requester@university.edu"},
			}, nil
		},
	}
	releaseRepo := &mockReleaseRepo{}
	storage := &mockFileStorage{}
	renderer := &stubRenderer{}
	service := newTestReleaseService(approvedClaim(), recRepo, releaseRepo, storage, renderer)

	form, err := service.GenerateForRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GenerateForRequest() error = %v", err)
	}

	if renderer.rendered == nil {
		t.Fatal("GenerateForRequest() never called the renderer")
	}
	if len(renderer.rendered.Approvals) != 1 || renderer.rendered.Approvals[0].Action != entity.ActionApprove {
		t.Errorf("GenerateForRequest() rendered %d approvals, want only approval actions", len(renderer.rendered.Approvals))
	}
	if renderer.rendered.Item == nil || renderer.rendered.Item.Title != "Navy backpack" {
		t.Errorf("GenerateForRequest() rendered item = %+v", renderer.rendered.Item)
	}
	if renderer.rendered.HoldingOrgName != "Org org-security" {
		t.Errorf("GenerateForRequest() holding org = %q, want the directory name", renderer.rendered.HoldingOrgName)
	}

	if !strings.HasPrefix(form.FilePath, "releases/") || !strings.HasSuffix(form.FilePath, "release_req-1.xlsx") {
		t.Errorf("GenerateForRequest() file path = %q", form.FilePath)
	}
	if string(storage.saved[form.FilePath]) != "workbook" {
		t.Error("GenerateForRequest() did not store the rendered workbook")
	}
	if form.ItemID != "item-1" {
		t.Errorf("GenerateForRequest() item id = %q, want item-1", form.ItemID)
	}
	if releaseRepo.forms["req-1"] == nil {
		t.Error("GenerateForRequest() did not record the form")
	}
}

func TestReleaseService_GenerateForRequest_Idempotent(t *testing.T) {
	releaseRepo := &mockReleaseRepo{forms: map[string]*entity.ReleaseForm{
		"req-1": {ID: "form-1", RequestID: "req-1", FilePath: "releases/2026-02-01/release_req-1.xlsx"},
	}}
	renderer := &stubRenderer{}
	service := newTestReleaseService(approvedClaim(), &mockRecordRepo{}, releaseRepo, &mockFileStorage{}, renderer)

	form, err := service.GenerateForRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GenerateForRequest() error = %v", err)
	}
	if form.ID != "form-1" {
		t.Errorf("GenerateForRequest() = %+v, want the existing form", form)
	}
	if renderer.rendered != nil {
		t.Error("GenerateForRequest() re-rendered an already generated form")
	}
}

func TestReleaseService_GenerateForRequest_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  *entity.WorkRequest
	}{
		{
			name: "claim not approved yet",
			req:  requestFixture(entity.RequestTypeItemClaim, entity.StatusInProgress, []string{"CAMPUS_SECURITY"}, 0),
		},
		{
			name: "not a claim",
			req:  requestFixture(entity.RequestTypeCrossCampusTransfer, entity.StatusApproved, []string{"CAMPUS_SECURITY"}, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestReleaseService(tt.req, &mockRecordRepo{}, &mockReleaseRepo{}, &mockFileStorage{}, &stubRenderer{})

			_, err := service.GenerateForRequest(context.Background(), "req-1")
			var invalid *ValidationError
			if !errors.As(err, &invalid) {
				t.Errorf("GenerateForRequest() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestReleaseService_GetForRequest(t *testing.T) {
	releaseRepo := &mockReleaseRepo{forms: map[string]*entity.ReleaseForm{
		"req-1": {ID: "form-1", RequestID: "req-1"},
	}}
	service := newTestReleaseService(approvedClaim(), &mockRecordRepo{}, releaseRepo, &mockFileStorage{}, &stubRenderer{})

	form, err := service.GetForRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GetForRequest() error = %v", err)
	}
	if form.ID != "form-1" {
		t.Errorf("GetForRequest() = %+v", form)
	}

	_, err = service.GetForRequest(context.Background(), "req-missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("GetForRequest() error = %v, want NotFoundError", err)
	}
}

func TestReleaseService_Download(t *testing.T) {
	releaseRepo := &mockReleaseRepo{forms: map[string]*entity.ReleaseForm{
		"req-1": {ID: "form-1", RequestID: "req-1", FilePath: "releases/2026-02-01/release_req-1.xlsx"},
	}}
	storage := &mockFileStorage{saved: map[string][]byte{
		"releases/2026-02-01/release_req-1.xlsx": []byte("workbook"),
	}}
	service := newTestReleaseService(approvedClaim(), &mockRecordRepo{}, releaseRepo, storage, &stubRenderer{})

	form, content, err := service.Download(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if form.ID != "form-1" {
		t.Errorf("Download() form = %+v", form)
	}
	if string(content) != "workbook" {
		t.Errorf("Download() content = %q, want the stored workbook", content)
	}

	_, _, err = service.Download(context.Background(), "req-missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Download() error = %v, want NotFoundError", err)
	}
}

func TestReleaseService_Download_MissingBlob(t *testing.T) {
	releaseRepo := &mockReleaseRepo{forms: map[string]*entity.ReleaseForm{
		"req-1": {ID: "form-1", RequestID: "req-1", FilePath: "releases/2026-02-01/release_req-1.xlsx"},
	}}
	service := newTestReleaseService(approvedClaim(), &mockRecordRepo{}, releaseRepo, &mockFileStorage{}, &stubRenderer{})

	_, _, err := service.Download(context.Background(), "req-1")
	if err == nil {
		t.Fatal("Download() succeeded with no stored workbook")
	}
}
