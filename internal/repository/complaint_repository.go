package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/complaint-box-api/internal/models"
)

// ComplaintRepository provides database access for complaint records.
// Every mutation is a single atomic statement keyed by the complaint
// id; response appends are INSERTs, so concurrent appends never lose
// writes. Status and feedback writes are last-writer-wins.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository creates a new instance of ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintColumns = `id, title, description, category, department, is_anonymous, status, created_at, updated_at, student_id, student_name, feedback_rating, feedback_comment`

// Create inserts a new complaint record.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	const query = `INSERT INTO complaints (id, title, description, category, department, is_anonymous, status, created_at, updated_at, student_id, student_name)
		VALUES (:id, :title, :description, :category, :department, :is_anonymous, :status, :created_at, :updated_at, :student_id, :student_name)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	complaint.HydrateFeedback()
	return nil
}

// FindByID returns a complaint with its full response history.
func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1 LIMIT 1`, complaintColumns)
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find complaint by id: %w", err)
	}

	responses, err := r.responsesFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	complaint.Responses = responses[id]
	complaint.HydrateFeedback()
	return &complaint, nil
}

// List returns complaints matching the filter ordered by creation time
// descending. Scoping by student id happens here, in the query itself.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	query := fmt.Sprintf(`SELECT %s FROM complaints`, complaintColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	complaints := []models.Complaint{}
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}

	if len(complaints) > 0 {
		ids := make([]string, len(complaints))
		for i := range complaints {
			ids[i] = complaints[i].ID
		}
		responses, err := r.responsesFor(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range complaints {
			complaints[i].Responses = responses[complaints[i].ID]
		}
	}

	for i := range complaints {
		complaints[i].HydrateFeedback()
	}
	return complaints, nil
}

// UpdateStatus overwrites the status and refreshes updated_at. The
// value is persisted as given; membership in the recognized status set
// is intentionally not checked here.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id, status string, now time.Time) (*models.Complaint, error) {
	const query = `UPDATE complaints SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, now)
	if err != nil {
		return nil, fmt.Errorf("update complaint status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}
	return r.FindByID(ctx, id)
}

// AddResponse appends one admin reply and refreshes updated_at. The
// append is an INSERT ordered by a serial sequence, so two concurrent
// appends both land and keep their insertion order.
func (r *ComplaintRepository) AddResponse(ctx context.Context, complaintID string, resp *models.ComplaintResponse, now time.Time) (*models.Complaint, error) {
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	resp.ComplaintID = complaintID
	resp.CreatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add response: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE complaints SET updated_at = $2 WHERE id = $1`, complaintID, now)
	if err != nil {
		return nil, fmt.Errorf("touch complaint: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}

	const insert = `INSERT INTO complaint_responses (id, complaint_id, content, created_at, admin_name, admin_id)
		VALUES (:id, :complaint_id, :content, :created_at, :admin_name, :admin_id)`
	if _, err := tx.NamedExecContext(ctx, insert, resp); err != nil {
		return nil, fmt.Errorf("insert complaint response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add response: %w", err)
	}
	return r.FindByID(ctx, complaintID)
}

// SetFeedback overwrites the feedback pair and refreshes updated_at.
func (r *ComplaintRepository) SetFeedback(ctx context.Context, id string, rating int, comment string, now time.Time) (*models.Complaint, error) {
	const query = `UPDATE complaints SET feedback_rating = $2, feedback_comment = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, rating, comment, now)
	if err != nil {
		return nil, fmt.Errorf("set complaint feedback: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}
	return r.FindByID(ctx, id)
}

// StatusCounts returns per-status complaint totals.
func (r *ComplaintRepository) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM complaints GROUP BY status`
	counts := []models.StatusCount{}
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	return counts, nil
}

// CategoryCounts returns per-category complaint totals.
func (r *ComplaintRepository) CategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	const query = `SELECT category, COUNT(*) AS count FROM complaints GROUP BY category`
	counts := []models.CategoryCount{}
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	return counts, nil
}

func (r *ComplaintRepository) responsesFor(ctx context.Context, complaintIDs []string) (map[string][]models.ComplaintResponse, error) {
	query, args, err := sqlx.In(`SELECT id, complaint_id, seq, content, created_at, admin_name, admin_id FROM complaint_responses WHERE complaint_id IN (?) ORDER BY seq ASC`, complaintIDs)
	if err != nil {
		return nil, fmt.Errorf("build responses query: %w", err)
	}
	query = r.db.Rebind(query)

	responses := []models.ComplaintResponse{}
	if err := r.db.SelectContext(ctx, &responses, query, args...); err != nil {
		return nil, fmt.Errorf("load complaint responses: %w", err)
	}

	byComplaint := make(map[string][]models.ComplaintResponse, len(complaintIDs))
	for _, resp := range responses {
		byComplaint[resp.ComplaintID] = append(byComplaint[resp.ComplaintID], resp)
	}
	return byComplaint, nil
}
