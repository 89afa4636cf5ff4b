package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-box-api/internal/middleware"
	"github.com/noah-isme/complaint-box-api/internal/models"
	"github.com/noah-isme/complaint-box-api/internal/service"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
	"github.com/noah-isme/complaint-box-api/pkg/export"
	"github.com/noah-isme/complaint-box-api/pkg/response"
)

type adminUserService interface {
	ListAdmins(ctx context.Context) ([]models.User, error)
	ListStudents(ctx context.Context) ([]models.User, error)
	CreateAdmin(ctx context.Context, req service.CreateAdminRequest, actor *models.User) (*models.User, error)
	UpdateAdmin(ctx context.Context, id string, req service.UpdateAdminRequest, actor *models.User) (*models.User, error)
	DeleteAdmin(ctx context.Context, id string, actor *models.User) error
	DeleteStudent(ctx context.Context, id string, actor *models.User) error
}

type complaintExporter interface {
	ExportDataset(ctx context.Context) (export.Dataset, error)
}

type statsProvider interface {
	Overview(ctx context.Context) (*models.ComplaintStats, error)
}

// AdminHandler wires the admin management, export, and stats endpoints.
type AdminHandler struct {
	users      adminUserService
	complaints complaintExporter
	stats      statsProvider
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(users adminUserService, complaints complaintExporter, stats statsProvider) *AdminHandler {
	return &AdminHandler{
		users:      users,
		complaints: complaints,
		stats:      stats,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
}

// ListAdmins godoc
// @Summary List admin accounts
// @Tags Administration
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} response.ErrorBody
// @Router /admin/admins [get]
func (h *AdminHandler) ListAdmins(c *gin.Context) {
	admins, err := h.users.ListAdmins(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins)
}

// CreateAdmin godoc
// @Summary Create admin account
// @Description Role is always forced to admin
// @Tags Administration
// @Accept json
// @Produce json
// @Param payload body service.CreateAdminRequest true "Admin payload"
// @Success 201 {object} models.User
// @Failure 400 {object} response.ErrorBody
// @Router /admin/admins [post]
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid create admin payload"))
		return
	}

	admin, err := h.users.CreateAdmin(c.Request.Context(), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, admin)
}

// UpdateAdmin godoc
// @Summary Update admin account
// @Tags Administration
// @Accept json
// @Produce json
// @Param id path string true "Admin id"
// @Param payload body service.UpdateAdminRequest true "Partial update"
// @Success 200 {object} models.User
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /admin/admins/{id} [put]
func (h *AdminHandler) UpdateAdmin(c *gin.Context) {
	var req service.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update admin payload"))
		return
	}

	admin, err := h.users.UpdateAdmin(c.Request.Context(), c.Param("id"), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, admin)
}

// DeleteAdmin godoc
// @Summary Delete admin account
// @Description Self-deletion and deleting the last admin are rejected
// @Tags Administration
// @Produce json
// @Param id path string true "Admin id"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /admin/admins/{id} [delete]
func (h *AdminHandler) DeleteAdmin(c *gin.Context) {
	if err := h.users.DeleteAdmin(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "admin deleted"})
}

// ListStudents godoc
// @Summary List student accounts
// @Tags Administration
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} response.ErrorBody
// @Router /admin/students [get]
func (h *AdminHandler) ListStudents(c *gin.Context) {
	students, err := h.users.ListStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// DeleteStudent godoc
// @Summary Delete student account
// @Description Fails with a validation error when the target is not a student
// @Tags Administration
// @Produce json
// @Param id path string true "Student id"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /admin/students/{id} [delete]
func (h *AdminHandler) DeleteStudent(c *gin.Context) {
	if err := h.users.DeleteStudent(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "student deleted"})
}

// ExportComplaints godoc
// @Summary Export complaints
// @Description Renders the full complaint set as CSV or PDF
// @Tags Administration
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.ErrorBody
// @Router /admin/complaints/export [get]
func (h *AdminHandler) ExportComplaints(c *gin.Context) {
	dataset, err := h.complaints.ExportDataset(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("complaints-%s", time.Now().UTC().Format("20060102-150405"))

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, "Complaint Report")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

// Stats godoc
// @Summary Complaint statistics
// @Description Aggregate complaint counts by status and category
// @Tags Administration
// @Produce json
// @Success 200 {object} models.ComplaintStats
// @Failure 403 {object} response.ErrorBody
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
