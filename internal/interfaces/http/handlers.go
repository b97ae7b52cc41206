package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/service"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps           Deps
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps, maxUploadBytes int64, logger *zap.Logger) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultServerConfig().MaxUploadBytes
	}
	return &Handlers{deps: deps, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// fail maps domain errors onto status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case entity.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrSessionClosed):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func attachment(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	healthy := true
	if h.deps.Health != nil {
		healthy, resp.Components = h.deps.Health(c.Request.Context())
	}
	if !healthy {
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp, Error: "unhealthy"})
		return
	}
	ok(c, resp)
}

// ListRoutes handles GET /api/v1/routes
func (h *Handlers) ListRoutes(c *gin.Context) {
	ok(c, h.deps.Dashboard.Routes())
}

// GetDashboard handles GET /api/v1/dashboard
func (h *Handlers) GetDashboard(c *gin.Context) {
	view, err := h.deps.Dashboard.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, view)
}

// SearchInvoices handles GET /api/v1/invoices?q=&status=
func (h *Handlers) SearchInvoices(c *gin.Context) {
	filter, err := service.ParseInvoiceFilter(c.Query("q"), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.deps.Explorer.Search(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, rows)
}

// GetInvoice handles GET /api/v1/invoices/:invoiceNo
func (h *Handlers) GetInvoice(c *gin.Context) {
	detail, err := h.deps.Explorer.Detail(c.Request.Context(), c.Param("invoiceNo"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, detail)
}

// ExportInvoices handles GET /api/v1/invoices/export with the same filters as search
func (h *Handlers) ExportInvoices(c *gin.Context) {
	filter, err := service.ParseInvoiceFilter(c.Query("q"), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := h.deps.Explorer.Export(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, "invoices.xlsx", data)
}

// ListAnomalies handles GET /api/v1/anomalies?type=
func (h *Handlers) ListAnomalies(c *gin.Context) {
	category, err := service.ParseCategory(c.Query("type"))
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.deps.Anomaly.List(c.Request.Context(), category)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, rows)
}

// AnomalyStats handles GET /api/v1/anomalies/stats
func (h *Handlers) AnomalyStats(c *gin.Context) {
	stats, err := h.deps.Anomaly.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, stats)
}

// RiskyVendors handles GET /api/v1/anomalies/risky-vendors
func (h *Handlers) RiskyVendors(c *gin.Context) {
	ok(c, h.deps.Anomaly.RiskyVendors())
}

// ListVendors handles GET /api/v1/vendors
func (h *Handlers) ListVendors(c *gin.Context) {
	rows, err := h.deps.Vendor.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, rows)
}

// VendorSummary handles GET /api/v1/vendors/summary
func (h *Handlers) VendorSummary(c *gin.Context) {
	summary, err := h.deps.Vendor.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, summary)
}

// VendorDistribution handles GET /api/v1/vendors/distribution
func (h *Handlers) VendorDistribution(c *gin.Context) {
	shares, err := h.deps.Vendor.Distribution(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, shares)
}

// ExportVendors handles GET /api/v1/vendors/export
func (h *Handlers) ExportVendors(c *gin.Context) {
	data, err := h.deps.Vendor.Export(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, "vendors.xlsx", data)
}

// ListReports handles GET /api/v1/reports
func (h *Handlers) ListReports(c *gin.Context) {
	view, err := h.deps.Report.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, view)
}

// GenerateReport handles POST /api/v1/reports/generate. An empty body takes the form defaults.
func (h *Handlers) GenerateReport(c *gin.Context) {
	var req entity.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}
	accepted, err := h.deps.Report.Generate(c.Request.Context(), currentSession(c).ID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, Response{Success: true, Data: accepted})
}

// DownloadReport handles POST /api/v1/reports/:id/download?format=pdf|xlsx
func (h *Handlers) DownloadReport(c *gin.Context) {
	report, format, err := h.deps.Report.Download(c.Request.Context(), currentSession(c).ID, c.Param("id"), c.DefaultQuery("format", "pdf"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"report": report, "format": format})
}

// UploadRequest is the JSON form of an upload submission
type UploadRequest struct {
	Files []entity.FileMeta `json:"files"`
}

// ChatRequest carries one question for the assistant
type ChatRequest struct {
	Text string `json:"text"`
}

// SubmitUploads handles POST /api/v1/uploads. Accepts multipart "files" or a JSON file list.
func (h *Handlers) SubmitUploads(c *gin.Context) {
	var (
		files []entity.FileMeta
		err   error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		files, err = h.readMultipart(c)
	} else {
		files, err = h.readFileList(c)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	items, err := currentSession(c).Uploads.SubmitUpload(c.Request.Context(), files)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: items})
}

func (h *Handlers) readMultipart(c *gin.Context) ([]entity.FileMeta, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes*8)
	form, err := c.MultipartForm()
	if err != nil {
		return nil, entity.NewValidationError("files", "invalid multipart form")
	}

	headers := form.File["files"]
	files := make([]entity.FileMeta, 0, len(headers))
	for _, fh := range headers {
		name := utils.SanitizeString(fh.Filename)
		if err := h.deps.Inspector.Check(&entity.FileMeta{Name: name, SizeBytes: fh.Size}); err != nil {
			return nil, err
		}

		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
		f.Close()
		if err != nil {
			return nil, err
		}

		meta, err := h.deps.Inspector.Inspect(name, content)
		if err != nil {
			return nil, err
		}
		files = append(files, *meta)
	}
	return files, nil
}

func (h *Handlers) readFileList(c *gin.Context) ([]entity.FileMeta, error) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, entity.NewValidationError("files", "invalid request body")
	}
	for i := range req.Files {
		req.Files[i].Name = utils.SanitizeString(req.Files[i].Name)
		if err := h.deps.Inspector.Check(&req.Files[i]); err != nil {
			return nil, err
		}
	}
	return req.Files, nil
}

// ListUploads handles GET /api/v1/uploads
func (h *Handlers) ListUploads(c *gin.Context) {
	ok(c, currentSession(c).Uploads.List())
}

// GetUpload handles GET /api/v1/uploads/:id
func (h *Handlers) GetUpload(c *gin.Context) {
	item, err := currentSession(c).Uploads.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, item)
}

// CancelUpload handles DELETE /api/v1/uploads/:id/task. It stops the
// settle timer only: there is no cancelled state, so a cancelled item stays
// PENDING in the list and never settles. The response carries the item as
// it now stands.
func (h *Handlers) CancelUpload(c *gin.Context) {
	uploads := currentSession(c).Uploads
	cancelled, err := uploads.Cancel(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	item, err := uploads.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"cancelled": cancelled, "item": item})
}

// SubmitChatMessage handles POST /api/v1/chat/messages
func (h *Handlers) SubmitChatMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	msg, err := currentSession(c).Chat.SubmitChatMessage(c.Request.Context(), utils.SanitizeString(req.Text))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, Response{Success: true, Data: msg})
}

// GetConversation handles GET /api/v1/chat/messages
func (h *Handlers) GetConversation(c *gin.Context) {
	ok(c, currentSession(c).Chat.Conversation())
}

// GetSettings handles GET /api/v1/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	ok(c, h.deps.Settings.Get())
}

// SaveSettings handles PUT /api/v1/settings
func (h *Handlers) SaveSettings(c *gin.Context) {
	var update entity.SettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	saved, err := h.deps.Settings.Save(c.Request.Context(), currentSession(c).ID, update)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, saved)
}

// GetHSN handles GET /api/v1/settings/hsn
func (h *Handlers) GetHSN(c *gin.Context) {
	catalog, err := h.deps.Settings.HSNCatalog(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, catalog)
}

// ImportHSN handles POST /api/v1/settings/hsn with a multipart "file"
func (h *Handlers) ImportHSN(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	rows, added, err := h.deps.Settings.ImportHSN(c.Request.Context(), currentSession(c).ID, utils.SanitizeString(fh.Filename), io.LimitReader(f, h.maxUploadBytes))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"rows": rows, "added": added})
}

// DrainNotifications handles GET /api/v1/notifications. Returned toasts are removed from the queue.
func (h *Handlers) DrainNotifications(c *gin.Context) {
	toasts, err := h.deps.Notifications.Drain(currentSession(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if toasts == nil {
		toasts = []entity.Notification{}
	}
	ok(c, toasts)
}

// CloseSession handles DELETE /api/v1/session
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.deps.Sessions.Close(c.Request.Context(), currentSession(c).ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}
