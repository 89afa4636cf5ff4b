package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-box-api/internal/models"
)

func complaintRows(now time.Time, rating *int, comment *string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "category", "department", "is_anonymous", "status", "created_at", "updated_at", "student_id", "student_name", "feedback_rating", "feedback_comment"}).
		AddRow("c1", "Broken projector", "Room 204", "facilities", "engineering", false, "pending", now, now, "s1", "Alice", rating, comment)
}

func emptyResponseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "complaint_id", "seq", "content", "created_at", "admin_name", "admin_id"})
}

func TestComplaintFindByIDHydratesFeedback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	rating := 4
	comment := "handled well"
	mock.ExpectQuery("SELECT .+ FROM complaints WHERE id").
		WithArgs("c1").
		WillReturnRows(complaintRows(now, &rating, &comment))
	mock.ExpectQuery("SELECT .+ FROM complaint_responses WHERE complaint_id IN").
		WillReturnRows(emptyResponseRows())

	complaint, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, complaint.Feedback)
	assert.Equal(t, 4, complaint.Feedback.Rating)
	assert.Equal(t, "handled well", complaint.Feedback.Comment)
	assert.NotNil(t, complaint.Responses)
	assert.Empty(t, complaint.Responses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectQuery("SELECT .+ FROM complaints WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintListScopedByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE student_id = $1 ORDER BY created_at DESC")).
		WithArgs("s1").
		WillReturnRows(complaintRows(now, nil, nil))
	mock.ExpectQuery("SELECT .+ FROM complaint_responses WHERE complaint_id IN").
		WillReturnRows(emptyResponseRows())

	complaints, err := repo.List(context.Background(), models.ComplaintFilter{StudentID: "s1"})
	require.NoError(t, err)
	require.Len(t, complaints, 1)
	assert.Nil(t, complaints[0].Feedback)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintListStatusFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE student_id = $1 AND status = $2 ORDER BY created_at DESC")).
		WithArgs("s1", "pending").
		WillReturnRows(complaintRows(time.Now(), nil, nil))
	mock.ExpectQuery("SELECT .+ FROM complaint_responses WHERE complaint_id IN").
		WillReturnRows(emptyResponseRows())

	complaints, err := repo.List(context.Background(), models.ComplaintFilter{StudentID: "s1", Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, complaints, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintListAttachesResponsesInSeqOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM complaints ORDER BY created_at DESC").
		WillReturnRows(complaintRows(now, nil, nil))
	respRows := emptyResponseRows().
		AddRow("r1", "c1", 1, "first reply", now, "Root", "a1").
		AddRow("r2", "c1", 2, "second reply", now, "Root", "a1")
	mock.ExpectQuery("SELECT .+ FROM complaint_responses WHERE complaint_id IN").
		WillReturnRows(respRows)

	complaints, err := repo.List(context.Background(), models.ComplaintFilter{})
	require.NoError(t, err)
	require.Len(t, complaints, 1)
	require.Len(t, complaints[0].Responses, 2)
	assert.Equal(t, "first reply", complaints[0].Responses[0].Content)
	assert.Equal(t, "second reply", complaints[0].Responses[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE complaints SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("c1", "resolved", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM complaints WHERE id").
		WithArgs("c1").
		WillReturnRows(complaintRows(now, nil, nil))
	mock.ExpectQuery("SELECT .+ FROM complaint_responses WHERE complaint_id IN").
		WillReturnRows(emptyResponseRows())

	_, err := repo.UpdateStatus(context.Background(), "c1", "resolved", now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectExec("UPDATE complaints SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateStatus(context.Background(), "missing", "resolved", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintAddResponse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE complaints SET updated_at = $2 WHERE id = $1")).
		WithArgs("c1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO complaint_responses").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .+ FROM complaints WHERE id").
		WithArgs("c1").
		WillReturnRows(complaintRows(now, nil, nil))
	respRows := emptyResponseRows().
		AddRow("r1", "c1", 1, "on it", now, "Root", "a1")
	mock.ExpectQuery("SELECT .+ FROM complaint_responses WHERE complaint_id IN").
		WillReturnRows(respRows)

	resp := &models.ComplaintResponse{Content: "on it", AdminName: "Root", AdminID: "a1"}
	complaint, err := repo.AddResponse(context.Background(), "c1", resp, now)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	require.Len(t, complaint.Responses, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintAddResponseMissingComplaint(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE complaints SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.AddResponse(context.Background(), "missing", &models.ComplaintResponse{Content: "x"}, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintSetFeedback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	rating := 5
	comment := "great"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE complaints SET feedback_rating = $2, feedback_comment = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("c1", 5, "great", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM complaints WHERE id").
		WithArgs("c1").
		WillReturnRows(complaintRows(now, &rating, &comment))
	mock.ExpectQuery("SELECT .+ FROM complaint_responses WHERE complaint_id IN").
		WillReturnRows(emptyResponseRows())

	complaint, err := repo.SetFeedback(context.Background(), "c1", 5, "great", now)
	require.NoError(t, err)
	require.NotNil(t, complaint.Feedback)
	assert.Equal(t, 5, complaint.Feedback.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintStatusCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 3).
		AddRow("resolved", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM complaints GROUP BY status")).
		WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
