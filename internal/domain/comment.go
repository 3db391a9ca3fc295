package domain

import "time"

// Comment is a free-text note attached to a defect.
type Comment struct {
	ID        int64
	DefectID  int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
}
