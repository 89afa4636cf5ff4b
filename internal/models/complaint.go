package models

import "time"

// ComplaintStatus enumerates the recognized lifecycle states. Any state
// may follow any other; there is no transition table.
type ComplaintStatus string

const (
	StatusPending     ComplaintStatus = "pending"
	StatusUnderReview ComplaintStatus = "under-review"
	StatusInProgress  ComplaintStatus = "in-progress"
	StatusResolved    ComplaintStatus = "resolved"
	StatusRejected    ComplaintStatus = "rejected"
)

// Complaint categories and departments fixed at the API boundary.
const (
	CategoryAcademic       = "academic"
	CategoryAdministrative = "administrative"
	CategoryFacilities     = "facilities"
	CategoryTechnical      = "technical"
	CategoryOther          = "other"
)

// ComplaintResponse is one admin reply inside a complaint's ordered,
// append-only response list. Seq is the insertion-order key.
type ComplaintResponse struct {
	ID          string    `db:"id" json:"id"`
	ComplaintID string    `db:"complaint_id" json:"-"`
	Seq         int64     `db:"seq" json:"-"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	AdminName   string    `db:"admin_name" json:"adminName"`
	AdminID     string    `db:"admin_id" json:"adminId"`
}

// ComplaintFeedback is the owner's rating; at most one per complaint,
// overwritten unconditionally on resubmission.
type ComplaintFeedback struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Complaint represents one submitted grievance and its full history.
// StudentID always records the true creator; anonymity only blanks
// StudentName on the wire. Status is kept as a plain string because
// the status-update operation accepts any non-empty value.
type Complaint struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Department  string    `db:"department" json:"department"`
	IsAnonymous bool      `db:"is_anonymous" json:"isAnonymous"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
	StudentID   string    `db:"student_id" json:"studentId"`
	StudentName *string   `db:"student_name" json:"studentName"`

	FeedbackRating  *int    `db:"feedback_rating" json:"-"`
	FeedbackComment *string `db:"feedback_comment" json:"-"`

	Responses []ComplaintResponse `db:"-" json:"responses"`
	Feedback  *ComplaintFeedback  `db:"-" json:"feedback"`
}

// HydrateFeedback lifts the nullable feedback columns into the wire
// representation. Called by the repository after scanning.
func (c *Complaint) HydrateFeedback() {
	if c.FeedbackRating != nil && c.FeedbackComment != nil {
		c.Feedback = &ComplaintFeedback{Rating: *c.FeedbackRating, Comment: *c.FeedbackComment}
	}
	if c.Responses == nil {
		c.Responses = []ComplaintResponse{}
	}
}

// ComplaintFilter captures query-time scoping and filtering for lists.
// StudentID is set for student callers so scoping happens in the query,
// not as a post-hoc check.
type ComplaintFilter struct {
	StudentID string
	Status    string
}
