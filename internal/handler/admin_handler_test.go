package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-box-api/internal/models"
	"github.com/noah-isme/complaint-box-api/internal/service"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
	"github.com/noah-isme/complaint-box-api/pkg/export"
)

type adminUserServiceMock struct {
	admins   []models.User
	students []models.User
	user     *models.User
	err      error
	lastID   string
}

func (m *adminUserServiceMock) ListAdmins(ctx context.Context) ([]models.User, error) {
	return m.admins, m.err
}

func (m *adminUserServiceMock) ListStudents(ctx context.Context) ([]models.User, error) {
	return m.students, m.err
}

func (m *adminUserServiceMock) CreateAdmin(ctx context.Context, req service.CreateAdminRequest, actor *models.User) (*models.User, error) {
	return m.user, m.err
}

func (m *adminUserServiceMock) UpdateAdmin(ctx context.Context, id string, req service.UpdateAdminRequest, actor *models.User) (*models.User, error) {
	m.lastID = id
	return m.user, m.err
}

func (m *adminUserServiceMock) DeleteAdmin(ctx context.Context, id string, actor *models.User) error {
	m.lastID = id
	return m.err
}

func (m *adminUserServiceMock) DeleteStudent(ctx context.Context, id string, actor *models.User) error {
	m.lastID = id
	return m.err
}

type complaintExporterMock struct {
	dataset export.Dataset
	err     error
}

func (m *complaintExporterMock) ExportDataset(ctx context.Context) (export.Dataset, error) {
	return m.dataset, m.err
}

type statsProviderMock struct {
	stats *models.ComplaintStats
	err   error
}

func (m *statsProviderMock) Overview(ctx context.Context) (*models.ComplaintStats, error) {
	return m.stats, m.err
}

func adminActor() *models.User {
	return &models.User{ID: "a1", Name: "Root", Role: models.RoleAdmin}
}

func TestAdminHandlerCreateAdmin(t *testing.T) {
	users := &adminUserServiceMock{user: &models.User{ID: "a2", Role: models.RoleAdmin}}
	handler := NewAdminHandler(users, &complaintExporterMock{}, &statsProviderMock{})

	payload, _ := json.Marshal(service.CreateAdminRequest{Name: "Second", Email: "second@example.com", Password: "password"})
	c, w := testContext(t, http.MethodPost, "/admin/admins", payload, adminActor())

	handler.CreateAdmin(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var got models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "a2", got.ID)
}

func TestAdminHandlerDeleteAdminLastRemaining(t *testing.T) {
	users := &adminUserServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "cannot delete the last remaining admin account")}
	handler := NewAdminHandler(users, &complaintExporterMock{}, &statsProviderMock{})

	c, w := testContext(t, http.MethodDelete, "/admin/admins/a1", nil, adminActor())
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.DeleteAdmin(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "a1", users.lastID)
}

func TestAdminHandlerUpdateAdminNotFound(t *testing.T) {
	users := &adminUserServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "admin not found")}
	handler := NewAdminHandler(users, &complaintExporterMock{}, &statsProviderMock{})

	payload, _ := json.Marshal(service.UpdateAdminRequest{})
	c, w := testContext(t, http.MethodPut, "/admin/admins/missing", payload, adminActor())
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.UpdateAdmin(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandlerListStudents(t *testing.T) {
	users := &adminUserServiceMock{students: []models.User{{ID: "s1"}, {ID: "s2"}}}
	handler := NewAdminHandler(users, &complaintExporterMock{}, &statsProviderMock{})

	c, w := testContext(t, http.MethodGet, "/admin/students", nil, adminActor())

	handler.ListStudents(c)
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestAdminHandlerExportCSV(t *testing.T) {
	exporter := &complaintExporterMock{dataset: export.Dataset{
		Headers: []string{"ID", "Title"},
		Rows:    []map[string]string{{"ID": "c1", "Title": "Broken projector"}},
	}}
	handler := NewAdminHandler(&adminUserServiceMock{}, exporter, &statsProviderMock{})

	c, w := testContext(t, http.MethodGet, "/admin/complaints/export?format=csv", nil, adminActor())

	handler.ExportComplaints(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "ID,Title"))
	assert.Contains(t, w.Body.String(), "Broken projector")
}

func TestAdminHandlerExportPDF(t *testing.T) {
	exporter := &complaintExporterMock{dataset: export.Dataset{
		Headers: []string{"ID", "Title"},
		Rows:    []map[string]string{{"ID": "c1", "Title": "Broken projector"}},
	}}
	handler := NewAdminHandler(&adminUserServiceMock{}, exporter, &statsProviderMock{})

	c, w := testContext(t, http.MethodGet, "/admin/complaints/export?format=pdf", nil, adminActor())

	handler.ExportComplaints(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestAdminHandlerExportUnknownFormat(t *testing.T) {
	handler := NewAdminHandler(&adminUserServiceMock{}, &complaintExporterMock{}, &statsProviderMock{})

	c, w := testContext(t, http.MethodGet, "/admin/complaints/export?format=xml", nil, adminActor())

	handler.ExportComplaints(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandlerStats(t *testing.T) {
	stats := &statsProviderMock{stats: &models.ComplaintStats{
		Total:      5,
		ByStatus:   map[string]int{"pending": 3, "resolved": 2},
		ByCategory: map[string]int{"facilities": 5},
	}}
	handler := NewAdminHandler(&adminUserServiceMock{}, &complaintExporterMock{}, stats)

	c, w := testContext(t, http.MethodGet, "/admin/stats", nil, adminActor())

	handler.Stats(c)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.ComplaintStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 3, got.ByStatus["pending"])
}
