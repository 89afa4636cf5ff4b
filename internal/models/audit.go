package models

import "time"

// Audit actions recorded by services and middleware.
const (
	AuditActionLogin         = "auth.login"
	AuditActionRegister      = "auth.register"
	AuditActionAdminCreate   = "admin.create"
	AuditActionAdminUpdate   = "admin.update"
	AuditActionAdminDelete   = "admin.delete"
	AuditActionStudentDelete = "student.delete"
	AuditActionExport        = "complaints.export"
)

// AuditLog records who did what to which resource. Audit failures are
// logged and never fail the originating request.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	NewValues  []byte    `db:"new_values" json:"-"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
