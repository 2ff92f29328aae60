package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unifound/lostfound/internal/application/service"
	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/domain/routing"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// respondError maps the service error taxonomy onto HTTP status codes.
// Unrecognized errors become 500 with a generic message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		forbiddenErr  *service.NotAuthorizedError
		terminalErr   *service.AlreadyTerminalError
		advancedErr   *service.AlreadyAdvancedError
		routingErr    *routing.RoutingError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &forbiddenErr):
		status = http.StatusForbidden
	case errors.As(err, &terminalErr):
		status = http.StatusConflict
	case errors.As(err, &advancedErr):
		status = http.StatusConflict
	case errors.As(err, &routingErr):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// respondBadRequest reports a malformed request body or query
func (h *Handlers) respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateRequestBody is the JSON body for POST /api/requests
type CreateRequestBody struct {
	RequestType               string          `json:"requestType" binding:"required"`
	RequesterEmail            string          `json:"requesterEmail" binding:"required"`
	RequesterName             string          `json:"requesterName"`
	RequesterEnterpriseID     string          `json:"requesterEnterpriseId"`
	RequesterOrganizationID   string          `json:"requesterOrganizationId"`
	TargetEnterpriseID        string          `json:"targetEnterpriseId"`
	TargetOrganizationID      string          `json:"targetOrganizationId"`
	ItemHoldingEnterpriseType string          `json:"itemHoldingEnterpriseType"`
	EstimatedValue            float64         `json:"estimatedValue"`
	Priority                  string          `json:"priority"`
	Description               string          `json:"description"`
	Payload                   json.RawMessage `json:"payload"`
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	requestType := entity.RequestType(body.RequestType)
	payload, err := entity.DecodePayload(requestType, body.Payload)
	if err != nil {
		h.respondBadRequest(c, err.Error())
		return
	}

	request, err := h.services.Requests.Create(c.Request.Context(), &service.CreateRequestInput{
		RequestType:               requestType,
		RequesterEmail:            body.RequesterEmail,
		RequesterName:             body.RequesterName,
		RequesterEnterpriseID:     body.RequesterEnterpriseID,
		RequesterOrganizationID:   body.RequesterOrganizationID,
		TargetEnterpriseID:        body.TargetEnterpriseID,
		TargetOrganizationID:      body.TargetOrganizationID,
		ItemHoldingEnterpriseType: body.ItemHoldingEnterpriseType,
		EstimatedValue:            body.EstimatedValue,
		Priority:                  entity.Priority(body.Priority),
		Description:               body.Description,
		Payload:                   payload,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: request})
}

// ListRequests handles GET /api/requests. With ?requester= it returns the
// user's own requests; with ?role=&organizationId= it returns the
// actionable queue for that role.
func (h *Handlers) ListRequests(c *gin.Context) {
	requester := c.Query("requester")
	role := c.Query("role")
	organizationID := c.Query("organizationId")

	switch {
	case requester != "":
		requests, err := h.services.Queries.GetRequestsForUser(c.Request.Context(), requester, role)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: requests})

	case role != "" && organizationID != "":
		requests, err := h.services.Queries.GetRequestsForRole(c.Request.Context(), role, organizationID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: requests})

	default:
		h.respondBadRequest(c, "either requester or role and organizationId are required")
	}
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	request, err := h.services.Queries.GetRequestByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// UpdateRequestBody is the JSON body for PUT /api/requests/:id
type UpdateRequestBody struct {
	ActorEmail  string          `json:"actorEmail" binding:"required"`
	Priority    string          `json:"priority"`
	Description *string         `json:"description"`
	Payload     json.RawMessage `json:"payload"`
}

// UpdateRequest handles PUT /api/requests/:id
func (h *Handlers) UpdateRequest(c *gin.Context) {
	var body UpdateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	input := &service.UpdateRequestInput{
		RequestID:   c.Param("id"),
		ActorEmail:  body.ActorEmail,
		Priority:    entity.Priority(body.Priority),
		Description: body.Description,
	}

	// The payload can only be decoded against the stored request's type.
	if len(body.Payload) > 0 {
		request, err := h.services.Queries.GetRequestByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		payload, err := entity.DecodePayload(request.RequestType, body.Payload)
		if err != nil {
			h.respondBadRequest(c, err.Error())
			return
		}
		input.Payload = payload
	}

	request, err := h.services.Requests.Update(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// ApproveRequestBody is the JSON body for POST /api/requests/:id/approve
type ApproveRequestBody struct {
	ApproverEmail string `json:"approverEmail" binding:"required"`
}

// ApproveRequest handles POST /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	var body ApproveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	request, err := h.services.Requests.Approve(c.Request.Context(), c.Param("id"), body.ApproverEmail)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// RejectRequestBody is the JSON body for POST /api/requests/:id/reject
type RejectRequestBody struct {
	ApproverEmail string `json:"approverEmail" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
}

// RejectRequest handles POST /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	var body RejectRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	request, err := h.services.Requests.Reject(c.Request.Context(), c.Param("id"), body.ApproverEmail, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// CancelRequestBody is the JSON body for POST /api/requests/:id/cancel
type CancelRequestBody struct {
	ActorEmail string `json:"actorEmail" binding:"required"`
	Reason     string `json:"reason"`
}

// CancelRequest handles POST /api/requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	var body CancelRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	request, err := h.services.Requests.Cancel(c.Request.Context(), c.Param("id"), body.ActorEmail, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// ConfirmPickupBody is the JSON body for POST /api/requests/:id/confirm-pickup
type ConfirmPickupBody struct {
	ActorEmail string `json:"actorEmail" binding:"required"`
}

// ConfirmPickup handles POST /api/requests/:id/confirm-pickup
func (h *Handlers) ConfirmPickup(c *gin.Context) {
	var body ConfirmPickupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	request, err := h.services.Requests.ConfirmPickup(c.Request.Context(), c.Param("id"), body.ActorEmail)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// RecordActionBody is the JSON body for POST /api/requests/:id/actions
type RecordActionBody struct {
	ActorEmail string `json:"actorEmail" binding:"required"`
	Action     string `json:"action" binding:"required"`
	Note       string `json:"note"`
}

// RecordAction handles POST /api/requests/:id/actions
func (h *Handlers) RecordAction(c *gin.Context) {
	var body RecordActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	request, err := h.services.Requests.RecordAction(c.Request.Context(), c.Param("id"), body.ActorEmail, body.Action, body.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// GetHistory handles GET /api/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	records, err := h.services.Queries.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}
