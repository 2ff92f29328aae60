package http

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unifound/lostfound/internal/application/service"
)

// UploadEvidence handles POST /api/requests/:id/evidence (multipart)
func (h *Handlers) UploadEvidence(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.respondBadRequest(c, "file field is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondBadRequest(c, "failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	evidence, err := h.services.Evidence.Upload(
		c.Request.Context(),
		c.Param("id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
		c.PostForm("uploadedBy"),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: evidence})
}

// ListEvidence handles GET /api/requests/:id/evidence
func (h *Handlers) ListEvidence(c *gin.Context) {
	files, err := h.services.Evidence.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: files})
}

// GetScreening handles GET /api/requests/:id/screening
func (h *Handlers) GetScreening(c *gin.Context) {
	screening, err := h.services.Screenings.GetLatest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: screening})
}

// GetReleaseForm handles GET /api/requests/:id/release
func (h *Handlers) GetReleaseForm(c *gin.Context) {
	form, err := h.services.Releases.GetForRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: form})
}

// DownloadReleaseForm handles GET /api/requests/:id/release/file and
// streams the generated workbook
func (h *Handlers) DownloadReleaseForm(c *gin.Context) {
	form, content, err := h.services.Releases.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(form.FilePath)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

// ReportItemBody is the JSON body for POST /api/items
type ReportItemBody struct {
	Title          string   `json:"title" binding:"required"`
	Category       string   `json:"category"`
	Type           string   `json:"type" binding:"required"`
	EnterpriseID   string   `json:"enterpriseId"`
	OrganizationID string   `json:"organizationId"`
	ReportedBy     string   `json:"reportedBy" binding:"required"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	Location       string   `json:"location"`
}

// ReportItem handles POST /api/items
func (h *Handlers) ReportItem(c *gin.Context) {
	var body ReportItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := h.services.Items.Report(c.Request.Context(), &service.ReportItemInput{
		Title:          body.Title,
		Category:       body.Category,
		Type:           body.Type,
		EnterpriseID:   body.EnterpriseID,
		OrganizationID: body.OrganizationID,
		ReportedBy:     body.ReportedBy,
		Description:    body.Description,
		Tags:           body.Tags,
		Location:       body.Location,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: item})
}

// ListItems handles GET /api/items. With ?reporter= it returns that
// user's reports; otherwise type/status/limit/offset filter the listing.
func (h *Handlers) ListItems(c *gin.Context) {
	if reporter := c.Query("reporter"); reporter != "" {
		items, err := h.services.Items.ListByReporter(c.Request.Context(), reporter)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: items})
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	items, err := h.services.Items.ListItems(c.Request.Context(), c.Query("type"), c.Query("status"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// GetItem handles GET /api/items/:id
func (h *Handlers) GetItem(c *gin.Context) {
	item, err := h.services.Items.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: item})
}

// UpdateItemBody is the JSON body for PUT /api/items/:id
type UpdateItemBody struct {
	Title       *string  `json:"title"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Location    *string  `json:"location"`
}

// UpdateItem handles PUT /api/items/:id
func (h *Handlers) UpdateItem(c *gin.Context) {
	var body UpdateItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := h.services.Items.UpdateItem(c.Request.Context(), &service.UpdateItemInput{
		ItemID:      c.Param("id"),
		Title:       body.Title,
		Category:    body.Category,
		Description: body.Description,
		Tags:        body.Tags,
		Location:    body.Location,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: item})
}

// ListMatches handles GET /api/items/:id/matches
func (h *Handlers) ListMatches(c *gin.Context) {
	matches, err := h.services.Items.ListMatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: matches})
}

// ListEnterprises handles GET /api/enterprises
func (h *Handlers) ListEnterprises(c *gin.Context) {
	enterprises, err := h.services.Directory.ListEnterprises(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: enterprises})
}

// ListOrganizations handles GET /api/organizations?enterpriseId=
func (h *Handlers) ListOrganizations(c *gin.Context) {
	organizations, err := h.services.Directory.ListOrganizations(c.Request.Context(), c.Query("enterpriseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: organizations})
}

// parseIntQuery reads an integer query parameter with a fallback
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
