package roles

import "time"

// Role is a named bundle of page permissions assigned to users.
type Role struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilter narrows and pages role listings.
type ListFilter struct {
	ActiveOnly bool
	Search     string `validate:"max=100"`
	Page       int    `validate:"gte=1"`
	PerPage    int    `validate:"gte=1,lte=100"`
}
