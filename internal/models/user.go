package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// User represents an authenticated principal stored in the users table.
// Email matching is case-sensitive as stored. The role is immutable
// after creation; no endpoint changes it. The password hash never
// leaves the process.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         UserRole  `db:"role" json:"role"`
	Department   *string   `db:"department" json:"department,omitempty"`
	StudentID    *string   `db:"student_id" json:"studentId,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}
