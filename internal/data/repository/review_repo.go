package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReviewSort string

const (
	SortByCreatedAt ReviewSort = "created_at"
	SortByLikes     ReviewSort = "likes"
)

func (s ReviewSort) Valid() bool {
	switch s {
	case SortByCreatedAt, SortByLikes:
		return true
	}
	return false
}

// ReviewFilter narrows and orders a review listing. Zero values mean no
// restriction and created_at ascending.
type ReviewFilter struct {
	Status     *entity.ReviewStatus
	AuthorID   *uuid.UUID
	Search     string
	SortBy     ReviewSort
	Descending bool
}

// checkPage rejects what no query can serve: an unknown sort column or a
// negative window.
func checkPage(filter ReviewFilter, limit, offset int) error {
	if filter.SortBy != "" && !filter.SortBy.Valid() {
		return fmt.Errorf("unknown review sort %q", filter.SortBy)
	}
	if limit < 0 || offset < 0 {
		return fmt.Errorf("invalid page window limit=%d offset=%d", limit, offset)
	}
	return nil
}

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	FindWithAuthor(ctx context.Context, id uuid.UUID) (*entity.ReviewWithAuthor, error)
	FindAll(ctx context.Context, filter ReviewFilter, limit, offset int) ([]*entity.ReviewWithAuthor, error)
	Count(ctx context.Context, filter ReviewFilter) (int64, error)
	UpdateContent(ctx context.Context, review *entity.Review) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReviewStatus) error
	// AdjustLikes adds delta to the counter and returns the new value.
	AdjustLikes(ctx context.Context, id uuid.UUID, delta int) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type reviewRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewReviewRepository(db database.DBTX, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

const reviewColumns = `r.id, r.user_id, r.title, r.movie_title, r.content, r.status, r.likes, r.created_at`

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, title, movie_title, content, status, likes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.Title,
		review.MovieTitle,
		review.Content,
		review.Status,
		review.Likes,
		review.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("user_id", review.UserID.String()),
		)
		return fmt.Errorf("create review by user %s: %w", review.UserID.String(), err)
	}

	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	return r.findOne(ctx, `SELECT `+reviewColumns+` FROM reviews r WHERE r.id = $1`, id)
}

func (r *reviewRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	return r.findOne(ctx, `SELECT `+reviewColumns+` FROM reviews r WHERE r.id = $1 FOR UPDATE`, id)
}

func (r *reviewRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	err := r.db.QueryRow(ctx, query, id).Scan(reviewScanTargets(&review)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return nil, fmt.Errorf("find review by ID %s: %w", id.String(), err)
	}

	return &review, nil
}

func (r *reviewRepository) FindWithAuthor(ctx context.Context, id uuid.UUID) (*entity.ReviewWithAuthor, error) {
	query := `
		SELECT ` + reviewColumns + `, u.username
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`

	var review entity.ReviewWithAuthor
	err := r.db.QueryRow(ctx, query, id).Scan(append(reviewScanTargets(&review.Review), &review.AuthorUsername)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review with author",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return nil, fmt.Errorf("find review with author %s: %w", id.String(), err)
	}

	return &review, nil
}

func (r *reviewRepository) FindAll(ctx context.Context, filter ReviewFilter, limit, offset int) ([]*entity.ReviewWithAuthor, error) {
	if err := checkPage(filter, limit, offset); err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}

	where, args := buildReviewWhere(filter)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT ` + reviewColumns + `, u.username
		FROM reviews r
		JOIN users u ON u.id = r.user_id
	`)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(buildReviewOrder(filter))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find reviews",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*entity.ReviewWithAuthor, 0, limit)
	for rows.Next() {
		var review entity.ReviewWithAuthor
		if err := rows.Scan(append(reviewScanTargets(&review.Review), &review.AuthorUsername)...); err != nil {
			r.log.Error("Failed to scan review row", zap.Error(err))
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, &review)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	r.log.Debug("Reviews found",
		zap.Int("count", len(reviews)),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	return reviews, nil
}

func (r *reviewRepository) Count(ctx context.Context, filter ReviewFilter) (int64, error) {
	where, args := buildReviewWhere(filter)

	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews r`+where, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count reviews", zap.Error(err))
		return 0, fmt.Errorf("count reviews: %w", err)
	}

	return count, nil
}

func (r *reviewRepository) UpdateContent(ctx context.Context, review *entity.Review) error {
	query := `
		UPDATE reviews
		SET title = $2, movie_title = $3, content = $4, status = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		review.ID,
		review.Title,
		review.MovieTitle,
		review.Content,
		review.Status,
	)
	if err != nil {
		r.log.Error("Failed to update review",
			zap.Error(err),
			zap.String("review_id", review.ID.String()),
		)
		return fmt.Errorf("update review %s: %w", review.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update review %s: %w", review.ID.String(), ErrRecordNotFound)
	}

	return nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReviewStatus) error {
	result, err := r.db.Exec(ctx, `UPDATE reviews SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		r.log.Error("Failed to update review status",
			zap.Error(err),
			zap.String("review_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update review status %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update review status %s: %w", id.String(), ErrRecordNotFound)
	}

	return nil
}

func (r *reviewRepository) AdjustLikes(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `UPDATE reviews SET likes = likes + $2 WHERE id = $1 RETURNING likes`

	var likes int
	err := r.db.QueryRow(ctx, query, id, delta).Scan(&likes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust likes %s: %w", id.String(), ErrRecordNotFound)
	}
	if err != nil {
		r.log.Error("Failed to adjust review likes",
			zap.Error(err),
			zap.String("review_id", id.String()),
			zap.Int("delta", delta),
		)
		return 0, fmt.Errorf("adjust likes %s: %w", id.String(), err)
	}

	return likes, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete review",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return fmt.Errorf("delete review %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete review %s: %w", id.String(), ErrRecordNotFound)
	}

	r.log.Info("Review deleted", zap.String("review_id", id.String()))
	return nil
}

func reviewScanTargets(review *entity.Review) []any {
	return []any{
		&review.ID,
		&review.UserID,
		&review.Title,
		&review.MovieTitle,
		&review.Content,
		&review.Status,
		&review.Likes,
		&review.CreatedAt,
	}
}

// buildReviewWhere renders the WHERE clause (with a leading space) and its
// positional arguments.
func buildReviewWhere(filter ReviewFilter) (string, []any) {
	var conditions []string
	args := []any{}
	argCount := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argCount))
		args = append(args, *filter.Status)
		argCount++
	}

	if filter.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", argCount))
		args = append(args, *filter.AuthorID)
		argCount++
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(r.title ILIKE $%d OR r.movie_title ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+escapeLike(search)+"%")
		argCount++
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// buildReviewOrder sorts by the requested column with id as tie-break so
// pages never overlap.
func buildReviewOrder(filter ReviewFilter) string {
	column := "r.created_at"
	if filter.SortBy == SortByLikes {
		column = "r.likes"
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s, r.id %s", column, direction, direction)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
