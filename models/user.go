package models

import "time"

type UserRole string

const (
	RoleOrganizer UserRole = "organizer"
	RoleViewer    UserRole = "viewer"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
