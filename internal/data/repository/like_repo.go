package repository

import (
	"context"
	"errors"
	"fmt"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type LikeRepository interface {
	// Create fails with ErrDuplicate when the pair already exists.
	Create(ctx context.Context, like *entity.Like) error
	Find(ctx context.Context, userID, reviewID uuid.UUID) (*entity.Like, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
	CountByReview(ctx context.Context, reviewID uuid.UUID) (int64, error)
	// LikedReviewIDs reports which of reviewIDs userID has liked.
	LikedReviewIDs(ctx context.Context, userID uuid.UUID, reviewIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ReviewIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type likeRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewLikeRepository(db database.DBTX, log *zap.Logger) LikeRepository {
	return &likeRepository{
		db:  db,
		log: log.With(zap.String("repository", "like")),
	}
}

func (r *likeRepository) Create(ctx context.Context, like *entity.Like) error {
	query := `
		INSERT INTO likes (id, user_id, review_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query, like.ID, like.UserID, like.ReviewID, like.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("create like on review %s: %w", like.ReviewID.String(), ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create like",
			zap.Error(err),
			zap.String("user_id", like.UserID.String()),
			zap.String("review_id", like.ReviewID.String()),
		)
		return fmt.Errorf("create like on review %s: %w", like.ReviewID.String(), err)
	}

	return nil
}

func (r *likeRepository) Find(ctx context.Context, userID, reviewID uuid.UUID) (*entity.Like, error) {
	query := `
		SELECT id, user_id, review_id, created_at
		FROM likes
		WHERE user_id = $1 AND review_id = $2
	`

	var like entity.Like
	err := r.db.QueryRow(ctx, query, userID, reviewID).Scan(
		&like.ID,
		&like.UserID,
		&like.ReviewID,
		&like.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find like",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("review_id", reviewID.String()),
		)
		return nil, fmt.Errorf("find like on review %s: %w", reviewID.String(), err)
	}

	return &like, nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND review_id = $2`, userID, reviewID)
	if err != nil {
		r.log.Error("Failed to delete like",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("review_id", reviewID.String()),
		)
		return fmt.Errorf("delete like on review %s: %w", reviewID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete like on review %s: %w", reviewID.String(), ErrRecordNotFound)
	}

	return nil
}

func (r *likeRepository) CountByReview(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE review_id = $1`, reviewID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count likes",
			zap.Error(err),
			zap.String("review_id", reviewID.String()),
		)
		return 0, fmt.Errorf("count likes on review %s: %w", reviewID.String(), err)
	}

	return count, nil
}

func (r *likeRepository) LikedReviewIDs(ctx context.Context, userID uuid.UUID, reviewIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return liked, nil
	}

	query := `SELECT review_id FROM likes WHERE user_id = $1 AND review_id = ANY($2)`

	rows, err := r.db.Query(ctx, query, userID, reviewIDs)
	if err != nil {
		r.log.Error("Failed to load liked reviews",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("load liked reviews for user %s: %w", userID.String(), err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan liked reviews for user %s: %w", userID.String(), err)
	}
	for _, id := range ids {
		liked[id] = true
	}

	return liked, nil
}

func (r *likeRepository) ReviewIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT review_id FROM likes WHERE user_id = $1`, userID)
	if err != nil {
		r.log.Error("Failed to list likes by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("list likes by user %s: %w", userID.String(), err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan likes by user %s: %w", userID.String(), err)
	}
	return ids, nil
}
