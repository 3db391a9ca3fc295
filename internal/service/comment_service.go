package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/events"
	"github.com/systemcontrol/defect-service/internal/repository"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// CommentService manages the comment thread attached to a defect.
type CommentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(store repository.Store, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{store: store, dispatcher: dispatcher}
}

// Create appends a comment to an existing defect.
func (s *CommentService) Create(ctx context.Context, defectID, authorID int64, content string) (*domain.Comment, error) {
	content = sanitizeText(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	if _, err := s.store.Defects().GetByID(ctx, defectID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("defect", map[string]any{"id": defectID})
		}
		return nil, err
	}

	comment := &domain.Comment{DefectID: defectID, AuthorID: authorID, Content: content}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			DefectID:  defectID,
			ActorID:   authorID,
			Timestamp: time.Now(),
			Payload:   events.CommentAddedPayload{CommentID: comment.ID, AuthorID: authorID},
		})
	}
	return comment, nil
}

// ListByDefect returns the thread oldest first.
func (s *CommentService) ListByDefect(ctx context.Context, defectID int64) ([]domain.Comment, error) {
	if _, err := s.store.Defects().GetByID(ctx, defectID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("defect", map[string]any{"id": defectID})
		}
		return nil, err
	}
	return s.store.Comments().ListByDefect(ctx, defectID)
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id int64) error {
	return s.store.Comments().Delete(ctx, id)
}
