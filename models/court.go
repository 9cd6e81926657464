package models

import "time"

// Court is a physical court matches get scheduled to.
type Court struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
