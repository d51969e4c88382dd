package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

func (r *feedbackRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Feedback, error) {
	query := `
		SELECT f.id, f.user_id, f.doctor_id, f.rating, f.comment, f.created_at,
			u.username AS username
		FROM feedbacks f
		JOIN users u ON u.id = f.user_id
		WHERE f.doctor_id = $1
		ORDER BY f.created_at DESC, f.id DESC
	`
	var feedback []*model.Feedback
	if err := r.db.SelectContext(ctx, &feedback, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedback, nil
}
