package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifound/lostfound/internal/application/service"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/domain/routing"
	httpiface "github.com/unifound/lostfound/internal/interfaces/http"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type stubRequestService struct {
	createFunc        func(ctx context.Context, input *service.CreateRequestInput) (*entity.WorkRequest, error)
	approveFunc       func(ctx context.Context, requestID, approverEmail string) (*entity.WorkRequest, error)
	rejectFunc        func(ctx context.Context, requestID, approverEmail, reason string) (*entity.WorkRequest, error)
	cancelFunc        func(ctx context.Context, requestID, actorEmail, reason string) (*entity.WorkRequest, error)
	updateFunc        func(ctx context.Context, input *service.UpdateRequestInput) (*entity.WorkRequest, error)
	confirmPickupFunc func(ctx context.Context, requestID, actorEmail string) (*entity.WorkRequest, error)
	recordActionFunc  func(ctx context.Context, requestID, actorEmail, action, note string) (*entity.WorkRequest, error)
}

func (s *stubRequestService) Create(ctx context.Context, input *service.CreateRequestInput) (*entity.WorkRequest, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, input)
	}
	return sampleRequest(), nil
}

func (s *stubRequestService) Approve(ctx context.Context, requestID, approverEmail string) (*entity.WorkRequest, error) {
	if s.approveFunc != nil {
		return s.approveFunc(ctx, requestID, approverEmail)
	}
	return sampleRequest(), nil
}

func (s *stubRequestService) Reject(ctx context.Context, requestID, approverEmail, reason string) (*entity.WorkRequest, error) {
	if s.rejectFunc != nil {
		return s.rejectFunc(ctx, requestID, approverEmail, reason)
	}
	return sampleRequest(), nil
}

func (s *stubRequestService) Cancel(ctx context.Context, requestID, actorEmail, reason string) (*entity.WorkRequest, error) {
	if s.cancelFunc != nil {
		return s.cancelFunc(ctx, requestID, actorEmail, reason)
	}
	return sampleRequest(), nil
}

func (s *stubRequestService) Update(ctx context.Context, input *service.UpdateRequestInput) (*entity.WorkRequest, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, input)
	}
	return sampleRequest(), nil
}

func (s *stubRequestService) ConfirmPickup(ctx context.Context, requestID, actorEmail string) (*entity.WorkRequest, error) {
	if s.confirmPickupFunc != nil {
		return s.confirmPickupFunc(ctx, requestID, actorEmail)
	}
	return sampleRequest(), nil
}

func (s *stubRequestService) RecordAction(ctx context.Context, requestID, actorEmail, action, note string) (*entity.WorkRequest, error) {
	if s.recordActionFunc != nil {
		return s.recordActionFunc(ctx, requestID, actorEmail, action, note)
	}
	return sampleRequest(), nil
}

type stubQueryService struct {
	getByIDFunc func(ctx context.Context, id string) (*entity.WorkRequest, error)
	forRoleFunc func(ctx context.Context, role, organizationID string) ([]*entity.WorkRequest, error)
	forUserFunc func(ctx context.Context, email, roleName string) ([]*entity.WorkRequest, error)
	historyFunc func(ctx context.Context, requestID string) ([]*entity.ApprovalRecord, error)
}

func (s *stubQueryService) GetRequestByID(ctx context.Context, id string) (*entity.WorkRequest, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	return sampleRequest(), nil
}

func (s *stubQueryService) GetRequestsForRole(ctx context.Context, role, organizationID string) ([]*entity.WorkRequest, error) {
	if s.forRoleFunc != nil {
		return s.forRoleFunc(ctx, role, organizationID)
	}
	return nil, nil
}

func (s *stubQueryService) GetRequestsForUser(ctx context.Context, email, roleName string) ([]*entity.WorkRequest, error) {
	if s.forUserFunc != nil {
		return s.forUserFunc(ctx, email, roleName)
	}
	return nil, nil
}

func (s *stubQueryService) GetHistory(ctx context.Context, requestID string) ([]*entity.ApprovalRecord, error) {
	if s.historyFunc != nil {
		return s.historyFunc(ctx, requestID)
	}
	return nil, nil
}

type stubItemService struct {
	reportFunc         func(ctx context.Context, input *service.ReportItemInput) (*entity.Item, error)
	getItemFunc        func(ctx context.Context, id string) (*entity.Item, error)
	updateItemFunc     func(ctx context.Context, input *service.UpdateItemInput) (*entity.Item, error)
	listItemsFunc      func(ctx context.Context, itemType, status string, limit, offset int) ([]*entity.Item, error)
	listByReporterFunc func(ctx context.Context, email string) ([]*entity.Item, error)
	listMatchesFunc    func(ctx context.Context, itemID string) ([]*entity.MatchSuggestion, error)
}

func (s *stubItemService) Report(ctx context.Context, input *service.ReportItemInput) (*entity.Item, error) {
	if s.reportFunc != nil {
		return s.reportFunc(ctx, input)
	}
	return &entity.Item{ID: "item-1"}, nil
}

func (s *stubItemService) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	if s.getItemFunc != nil {
		return s.getItemFunc(ctx, id)
	}
	return &entity.Item{ID: id}, nil
}

func (s *stubItemService) UpdateItem(ctx context.Context, input *service.UpdateItemInput) (*entity.Item, error) {
	if s.updateItemFunc != nil {
		return s.updateItemFunc(ctx, input)
	}
	return &entity.Item{ID: input.ItemID}, nil
}

func (s *stubItemService) ListItems(ctx context.Context, itemType, status string, limit, offset int) ([]*entity.Item, error) {
	if s.listItemsFunc != nil {
		return s.listItemsFunc(ctx, itemType, status, limit, offset)
	}
	return nil, nil
}

func (s *stubItemService) ListByReporter(ctx context.Context, email string) ([]*entity.Item, error) {
	if s.listByReporterFunc != nil {
		return s.listByReporterFunc(ctx, email)
	}
	return nil, nil
}

func (s *stubItemService) ListMatches(ctx context.Context, itemID string) ([]*entity.MatchSuggestion, error) {
	if s.listMatchesFunc != nil {
		return s.listMatchesFunc(ctx, itemID)
	}
	return nil, nil
}

func (s *stubItemService) SyncClaimItem(ctx context.Context, requestID string) error {
	return nil
}

type stubEvidenceService struct {
	uploadFunc func(ctx context.Context, requestID, fileName, contentType string, data []byte, uploadedBy string) (*entity.EvidenceFile, error)
	listFunc   func(ctx context.Context, requestID string) ([]*entity.EvidenceFile, error)
}

func (s *stubEvidenceService) Upload(ctx context.Context, requestID, fileName, contentType string, data []byte, uploadedBy string) (*entity.EvidenceFile, error) {
	if s.uploadFunc != nil {
		return s.uploadFunc(ctx, requestID, fileName, contentType, data, uploadedBy)
	}
	return &entity.EvidenceFile{ID: "ev-1", RequestID: requestID, FileName: fileName}, nil
}

func (s *stubEvidenceService) List(ctx context.Context, requestID string) ([]*entity.EvidenceFile, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, requestID)
	}
	return nil, nil
}

type stubScreeningService struct {
	getLatestFunc func(ctx context.Context, requestID string) (*entity.ClaimScreening, error)
}

func (s *stubScreeningService) ScreenClaim(ctx context.Context, requestID string) (*entity.ClaimScreening, error) {
	return nil, nil
}

func (s *stubScreeningService) GetLatest(ctx context.Context, requestID string) (*entity.ClaimScreening, error) {
	if s.getLatestFunc != nil {
		return s.getLatestFunc(ctx, requestID)
	}
	return &entity.ClaimScreening{ID: "sc-1", RequestID: requestID}, nil
}

type stubReleaseService struct {
	getFunc      func(ctx context.Context, requestID string) (*entity.ReleaseForm, error)
	downloadFunc func(ctx context.Context, requestID string) (*entity.ReleaseForm, []byte, error)
}

func (s *stubReleaseService) GenerateForRequest(ctx context.Context, requestID string) (*entity.ReleaseForm, error) {
	return nil, nil
}

func (s *stubReleaseService) GetForRequest(ctx context.Context, requestID string) (*entity.ReleaseForm, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, requestID)
	}
	return &entity.ReleaseForm{ID: "rf-1", RequestID: requestID}, nil
}

func (s *stubReleaseService) Download(ctx context.Context, requestID string) (*entity.ReleaseForm, []byte, error) {
	if s.downloadFunc != nil {
		return s.downloadFunc(ctx, requestID)
	}
	form := &entity.ReleaseForm{ID: "rf-1", RequestID: requestID, FilePath: "releases/2026-02-01/release_" + requestID + ".xlsx"}
	return form, []byte("PK workbook"), nil
}

type stubDirectoryService struct {
	listEnterprisesFunc   func(ctx context.Context) ([]*entity.Enterprise, error)
	listOrganizationsFunc func(ctx context.Context, enterpriseID string) ([]*entity.Organization, error)
}

func (s *stubDirectoryService) CreateEnterprise(ctx context.Context, name, enterpriseType, coordinatorRole string) (*entity.Enterprise, error) {
	return nil, nil
}

func (s *stubDirectoryService) CreateOrganization(ctx context.Context, enterpriseID, name, ownerRole string) (*entity.Organization, error) {
	return nil, nil
}

func (s *stubDirectoryService) AssignRole(ctx context.Context, email, role, organizationID string) (*entity.RoleAssignment, error) {
	return nil, nil
}

func (s *stubDirectoryService) ListEnterprises(ctx context.Context) ([]*entity.Enterprise, error) {
	if s.listEnterprisesFunc != nil {
		return s.listEnterprisesFunc(ctx)
	}
	return nil, nil
}

func (s *stubDirectoryService) ListOrganizations(ctx context.Context, enterpriseID string) ([]*entity.Organization, error) {
	if s.listOrganizationsFunc != nil {
		return s.listOrganizationsFunc(ctx, enterpriseID)
	}
	return nil, nil
}

func sampleRequest() *entity.WorkRequest {
	return &entity.WorkRequest{
		ID:          "req-1",
		RequestType: entity.RequestTypeItemClaim,
		Status:      entity.StatusPending,
		Priority:    entity.PriorityNormal,
		RequesterID: "requester@university.edu",
		Chain:       []string{"CAMPUS_SECURITY"},
		CurrentRole: "CAMPUS_SECURITY",
		Version:     1,
		Payload:     &entity.ItemClaimPayload{ItemID: "item-1"},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(services httpiface.Services) *gin.Engine {
	if services.Requests == nil {
		services.Requests = &stubRequestService{}
	}
	if services.Queries == nil {
		services.Queries = &stubQueryService{}
	}
	if services.Items == nil {
		services.Items = &stubItemService{}
	}
	if services.Evidence == nil {
		services.Evidence = &stubEvidenceService{}
	}
	if services.Screenings == nil {
		services.Screenings = &stubScreeningService{}
	}
	if services.Releases == nil {
		services.Releases = &stubReleaseService{}
	}
	if services.Directory == nil {
		services.Directory = &stubDirectoryService{}
	}

	cfg := httpiface.DefaultServerConfig()
	cfg.Mode = gin.TestMode
	return httpiface.NewServer(cfg, services, nopLogger{}).Router()
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(httpiface.Services{})

	rec, env := performJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "healthy")
}

func TestCreateRequest(t *testing.T) {
	var got *service.CreateRequestInput
	requests := &stubRequestService{
		createFunc: func(ctx context.Context, input *service.CreateRequestInput) (*entity.WorkRequest, error) {
			got = input
			return sampleRequest(), nil
		},
	}
	router := newTestRouter(httpiface.Services{Requests: requests})

	body := map[string]interface{}{
		"requestType":             "ITEM_CLAIM",
		"requesterEmail":          "requester@university.edu",
		"requesterEnterpriseId":   "ent-university",
		"requesterOrganizationId": "org-library",
		"targetEnterpriseId":      "ent-university",
		"targetOrganizationId":    "org-security",
		"estimatedValue":          120,
		"priority":                "HIGH",
		"payload": map[string]interface{}{
			"item_id":           "item-1",
			"claim_description": "my backpack",
		},
	}

	rec, env := performJSON(t, router, http.MethodPost, "/api/requests", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	require.NotNil(t, got)
	assert.Equal(t, entity.RequestTypeItemClaim, got.RequestType)
	assert.Equal(t, entity.PriorityHigh, got.Priority)

	claim, ok := got.Payload.(*entity.ItemClaimPayload)
	require.True(t, ok)
	assert.Equal(t, "item-1", claim.ItemID)
}

func TestCreateRequest_BadInput(t *testing.T) {
	router := newTestRouter(httpiface.Services{})

	t.Run("unknown request type", func(t *testing.T) {
		rec, env := performJSON(t, router, http.MethodPost, "/api/requests", map[string]interface{}{
			"requestType":    "COFFEE_RUN",
			"requesterEmail": "someone@university.edu",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error, "unknown request type")
	})

	t.Run("missing requester email", func(t *testing.T) {
		rec, _ := performJSON(t, router, http.MethodPost, "/api/requests", map[string]interface{}{
			"requestType": "ITEM_CLAIM",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestApproveRequest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", service.NewValidationError("field", "bad"), http.StatusBadRequest},
		{"not found", service.NewNotFoundError("request", "req-404"), http.StatusNotFound},
		{"not authorized", &service.NotAuthorizedError{ActorEmail: "x@y.z", RequestID: "req-1"}, http.StatusForbidden},
		{"already terminal", &service.AlreadyTerminalError{RequestID: "req-1", Status: entity.StatusApproved}, http.StatusConflict},
		{"already advanced", &service.AlreadyAdvancedError{RequestID: "req-1"}, http.StatusConflict},
		{"routing", routing.NewRoutingError("ITEM_CLAIM", "no owner role"), http.StatusUnprocessableEntity},
		{"unexpected", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := &stubRequestService{
				approveFunc: func(ctx context.Context, requestID, approverEmail string) (*entity.WorkRequest, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(httpiface.Services{Requests: requests})

			rec, env := performJSON(t, router, http.MethodPost, "/api/requests/req-1/approve",
				map[string]string{"approverEmail": "security@university.edu"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, env.Success)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal error", env.Error)
			} else {
				assert.NotEmpty(t, env.Error)
			}
		})
	}
}

func TestApproveRequest_WrapsActor(t *testing.T) {
	var gotID, gotEmail string
	requests := &stubRequestService{
		approveFunc: func(ctx context.Context, requestID, approverEmail string) (*entity.WorkRequest, error) {
			gotID, gotEmail = requestID, approverEmail
			return sampleRequest(), nil
		},
	}
	router := newTestRouter(httpiface.Services{Requests: requests})

	rec, _ := performJSON(t, router, http.MethodPost, "/api/requests/req-42/approve",
		map[string]string{"approverEmail": "security@university.edu"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, "security@university.edu", gotEmail)
}

func TestListRequests_Dispatch(t *testing.T) {
	var roleCalls, userCalls int
	queries := &stubQueryService{
		forRoleFunc: func(ctx context.Context, role, organizationID string) ([]*entity.WorkRequest, error) {
			roleCalls++
			assert.Equal(t, "CAMPUS_SECURITY", role)
			assert.Equal(t, "org-security", organizationID)
			return []*entity.WorkRequest{sampleRequest()}, nil
		},
		forUserFunc: func(ctx context.Context, email, roleName string) ([]*entity.WorkRequest, error) {
			userCalls++
			assert.Equal(t, "requester@university.edu", email)
			return nil, nil
		},
	}
	router := newTestRouter(httpiface.Services{Queries: queries})

	rec, _ := performJSON(t, router, http.MethodGet, "/api/requests?role=CAMPUS_SECURITY&organizationId=org-security", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, roleCalls)

	rec, _ = performJSON(t, router, http.MethodGet, "/api/requests?requester=requester@university.edu", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, userCalls)

	rec, env := performJSON(t, router, http.MethodGet, "/api/requests", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "requester or role")
}

func TestRejectRequest_RequiresReason(t *testing.T) {
	router := newTestRouter(httpiface.Services{})

	rec, _ := performJSON(t, router, http.MethodPost, "/api/requests/req-1/reject",
		map[string]string{"approverEmail": "security@university.edu"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEvidence(t *testing.T) {
	var gotFileName, gotUploadedBy string
	var gotData []byte
	evidence := &stubEvidenceService{
		uploadFunc: func(ctx context.Context, requestID, fileName, contentType string, data []byte, uploadedBy string) (*entity.EvidenceFile, error) {
			gotFileName, gotUploadedBy, gotData = fileName, uploadedBy, data
			return &entity.EvidenceFile{ID: "ev-1", RequestID: requestID, FileName: fileName}, nil
		},
	}
	router := newTestRouter(httpiface.Services{Evidence: evidence})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "receipt.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 receipt"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("uploadedBy", "requester@university.edu"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/req-1/evidence", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "receipt.pdf", gotFileName)
	assert.Equal(t, "requester@university.edu", gotUploadedBy)
	assert.Equal(t, []byte("%PDF-1.4 receipt"), gotData)
}

func TestUploadEvidence_MissingFile(t *testing.T) {
	router := newTestRouter(httpiface.Services{})

	req := httptest.NewRequest(http.MethodPost, "/api/requests/req-1/evidence", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=empty")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadReleaseForm(t *testing.T) {
	router := newTestRouter(httpiface.Services{})

	req := httptest.NewRequest(http.MethodGet, "/api/requests/req-1/release/file", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("PK workbook"), rec.Body.Bytes())
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "release_req-1.xlsx")
}

func TestDownloadReleaseForm_NotGenerated(t *testing.T) {
	releases := &stubReleaseService{
		downloadFunc: func(ctx context.Context, requestID string) (*entity.ReleaseForm, []byte, error) {
			return nil, nil, service.NewNotFoundError("release form", requestID)
		},
	}
	router := newTestRouter(httpiface.Services{Releases: releases})

	rec, env := performJSON(t, router, http.MethodGet, "/api/requests/req-1/release/file", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, env.Error, "release form")
}

func TestGetItem_NotFound(t *testing.T) {
	items := &stubItemService{
		getItemFunc: func(ctx context.Context, id string) (*entity.Item, error) {
			return nil, service.NewNotFoundError("item", id)
		},
	}
	router := newTestRouter(httpiface.Services{Items: items})

	rec, env := performJSON(t, router, http.MethodGet, "/api/items/item-404", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, env.Error, "item-404")
}

func TestListItems_Filters(t *testing.T) {
	var gotType, gotStatus string
	var gotLimit, gotOffset int
	items := &stubItemService{
		listItemsFunc: func(ctx context.Context, itemType, status string, limit, offset int) ([]*entity.Item, error) {
			gotType, gotStatus, gotLimit, gotOffset = itemType, status, limit, offset
			return nil, nil
		},
	}
	router := newTestRouter(httpiface.Services{Items: items})

	rec, _ := performJSON(t, router, http.MethodGet, "/api/items?type=FOUND&status=OPEN&limit=10&offset=5", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FOUND", gotType)
	assert.Equal(t, "OPEN", gotStatus)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 5, gotOffset)
}

func TestListOrganizations_PassesEnterpriseFilter(t *testing.T) {
	var gotEnterpriseID string
	directory := &stubDirectoryService{
		listOrganizationsFunc: func(ctx context.Context, enterpriseID string) ([]*entity.Organization, error) {
			gotEnterpriseID = enterpriseID
			return []*entity.Organization{{ID: "org-security", EnterpriseID: enterpriseID}}, nil
		},
	}
	router := newTestRouter(httpiface.Services{Directory: directory})

	rec, _ := performJSON(t, router, http.MethodGet, "/api/organizations?enterpriseId=ent-university", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ent-university", gotEnterpriseID)
}
