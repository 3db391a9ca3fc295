package domain

import "time"

// Project groups defects; defects must reference an existing project.
type Project struct {
	ID          int64
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
}
