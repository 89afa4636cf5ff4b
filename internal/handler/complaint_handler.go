package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-box-api/internal/middleware"
	"github.com/noah-isme/complaint-box-api/internal/models"
	"github.com/noah-isme/complaint-box-api/internal/service"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
	"github.com/noah-isme/complaint-box-api/pkg/response"
)

type complaintService interface {
	Create(ctx context.Context, actor *models.User, req service.CreateComplaintRequest) (*models.Complaint, error)
	List(ctx context.Context, actor *models.User, statusFilter string) ([]models.Complaint, error)
	Get(ctx context.Context, actor *models.User, id string) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, actor *models.User, id string, req service.UpdateStatusRequest) (*models.Complaint, error)
	AddResponse(ctx context.Context, actor *models.User, id string, req service.AddResponseRequest) (*models.Complaint, error)
	SetFeedback(ctx context.Context, actor *models.User, id string, req service.FeedbackRequest) (*models.Complaint, error)
}

// ComplaintHandler wires HTTP endpoints to the complaint lifecycle engine.
type ComplaintHandler struct {
	service complaintService
}

// NewComplaintHandler creates a new handler.
func NewComplaintHandler(svc complaintService) *ComplaintHandler {
	return &ComplaintHandler{service: svc}
}

// Create godoc
// @Summary Submit complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Param payload body service.CreateComplaintRequest true "Complaint payload"
// @Success 200 {object} models.Complaint
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /complaints [post]
func (h *ComplaintHandler) Create(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}

	complaint, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaint)
}

// List godoc
// @Summary List complaints
// @Description Students see their own complaints; admins see all
// @Tags Complaints
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {array} models.Complaint
// @Failure 401 {object} response.ErrorBody
// @Router /complaints [get]
func (h *ComplaintHandler) List(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	complaints, err := h.service.List(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaints)
}

// Get godoc
// @Summary Get complaint
// @Tags Complaints
// @Produce json
// @Param id path string true "Complaint id"
// @Success 200 {object} models.Complaint
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	complaint, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaint)
}

// UpdateStatus godoc
// @Summary Update complaint status
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint id"
// @Param payload body service.UpdateStatusRequest true "Target status"
// @Success 200 {object} models.Complaint
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /complaints/{id}/status [patch]
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}

	complaint, err := h.service.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaint)
}

// AddResponse godoc
// @Summary Append admin response
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint id"
// @Param payload body service.AddResponseRequest true "Response content"
// @Success 200 {object} models.Complaint
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /complaints/{id}/responses [post]
func (h *ComplaintHandler) AddResponse(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AddResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "content is required"))
		return
	}

	complaint, err := h.service.AddResponse(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaint)
}

// AddFeedback godoc
// @Summary Submit feedback
// @Description Only the complaint owner may rate; resubmission overwrites
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint id"
// @Param payload body service.FeedbackRequest true "Feedback payload"
// @Success 200 {object} models.Complaint
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /complaints/{id}/feedback [post]
func (h *ComplaintHandler) AddFeedback(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	complaint, err := h.service.SetFeedback(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaint)
}
