package repository

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"cinema-reviews/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryOption configures NewMemoryRepository.
type MemoryOption func(*memoryStore)

// WithTxRepositories replaces the repositories handed to every WithTx
// block by wrap's result. Tests use it to inject store failures that the
// serialized memory store cannot produce on its own.
func WithTxRepositories(wrap func(tx *Repository) *Repository) MemoryOption {
	return func(s *memoryStore) {
		s.wrapTx = wrap
	}
}

// NewMemoryRepository returns stores kept in process memory. Every call and
// every WithTx block holds one store-wide lock, so units of work are
// serialized; a failed WithTx restores the state it started from.
func NewMemoryRepository(log *zap.Logger, opts ...MemoryOption) *Repository {
	store := &memoryStore{
		users:   make(map[uuid.UUID]entity.User),
		reviews: make(map[uuid.UUID]entity.Review),
		likes:   make(map[likeKey]entity.Like),
		log:     log.With(zap.String("repository", "memory")),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store.repositorySet(false)
}

type likeKey struct {
	userID   uuid.UUID
	reviewID uuid.UUID
}

type memoryStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]entity.User
	reviews map[uuid.UUID]entity.Review
	likes   map[likeKey]entity.Like
	log     *zap.Logger
	wrapTx  func(*Repository) *Repository
}

type memorySnapshot struct {
	users   map[uuid.UUID]entity.User
	reviews map[uuid.UUID]entity.Review
	likes   map[likeKey]entity.Like
}

func (s *memoryStore) snapshot() memorySnapshot {
	return memorySnapshot{
		users:   maps.Clone(s.users),
		reviews: maps.Clone(s.reviews),
		likes:   maps.Clone(s.likes),
	}
}

func (s *memoryStore) restore(snap memorySnapshot) {
	s.users = snap.users
	s.reviews = snap.reviews
	s.likes = snap.likes
}

// repositorySet builds adapters; locked means the caller already holds mu.
func (s *memoryStore) repositorySet(locked bool) *Repository {
	return &Repository{
		User:   &memoryUserRepository{store: s, locked: locked},
		Review: &memoryReviewRepository{store: s, locked: locked},
		Like:   &memoryLikeRepository{store: s, locked: locked},
		tx:     &memoryTransactor{store: s, locked: locked},
	}
}

// guard locks the store unless the adapter runs inside a transaction.
func (s *memoryStore) guard(locked bool) func() {
	if locked {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memoryTransactor struct {
	store  *memoryStore
	locked bool
}

func (t *memoryTransactor) transact(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) (err error) {
	s := t.store
	defer s.guard(t.locked)()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	repo := s.repositorySet(true)
	if s.wrapTx != nil {
		repo = s.wrapTx(repo)
	}
	return fn(ctx, repo)
}

// users

type memoryUserRepository struct {
	store  *memoryStore
	locked bool
}

func (r *memoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	s := r.store
	defer s.guard(r.locked)()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("create user %s: %w", user.Username, ErrDuplicate)
		}
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("create user %s: %w", user.Username, ErrDuplicate)
	}

	s.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	s := r.store
	defer s.guard(r.locked)()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindByIDForUpdate needs no row lock here; the store lock is held for the
// whole transaction.
func (r *memoryUserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.FindByID(ctx, id)
}

func (r *memoryUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	s := r.store
	defer s.guard(r.locked)()

	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	defer s.guard(r.locked)()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("delete user %s: %w", id.String(), ErrRecordNotFound)
	}

	for reviewID, review := range s.reviews {
		if review.UserID == id {
			s.deleteReviewLocked(reviewID)
		}
	}
	for key := range s.likes {
		if key.userID == id {
			delete(s.likes, key)
		}
	}
	delete(s.users, id)

	s.log.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

// reviews

type memoryReviewRepository struct {
	store  *memoryStore
	locked bool
}

func (r *memoryReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	s := r.store
	defer s.guard(r.locked)()

	if _, ok := s.users[review.UserID]; !ok {
		return fmt.Errorf("create review by user %s: owner %w", review.UserID.String(), ErrRecordNotFound)
	}
	if _, ok := s.reviews[review.ID]; ok {
		return fmt.Errorf("create review %s: %w", review.ID.String(), ErrDuplicate)
	}

	s.reviews[review.ID] = *review
	return nil
}

func (r *memoryReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	s := r.store
	defer s.guard(r.locked)()

	review, ok := s.reviews[id]
	if !ok {
		return nil, nil
	}
	return &review, nil
}

// FindByIDForUpdate needs no row lock here: transactions already hold the
// store lock.
func (r *memoryReviewRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	return r.FindByID(ctx, id)
}

func (r *memoryReviewRepository) FindWithAuthor(ctx context.Context, id uuid.UUID) (*entity.ReviewWithAuthor, error) {
	s := r.store
	defer s.guard(r.locked)()

	review, ok := s.reviews[id]
	if !ok {
		return nil, nil
	}
	return s.withAuthorLocked(review), nil
}

func (r *memoryReviewRepository) FindAll(ctx context.Context, filter ReviewFilter, limit, offset int) ([]*entity.ReviewWithAuthor, error) {
	if err := checkPage(filter, limit, offset); err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}

	s := r.store
	defer s.guard(r.locked)()

	matched := s.matchLocked(filter)
	sortReviews(matched, filter)

	result := make([]*entity.ReviewWithAuthor, 0, limit)
	if offset >= len(matched) {
		return result, nil
	}
	end := min(offset+limit, len(matched))
	for _, review := range matched[offset:end] {
		result = append(result, s.withAuthorLocked(review))
	}
	return result, nil
}

func (r *memoryReviewRepository) Count(ctx context.Context, filter ReviewFilter) (int64, error) {
	s := r.store
	defer s.guard(r.locked)()

	return int64(len(s.matchLocked(filter))), nil
}

func (r *memoryReviewRepository) UpdateContent(ctx context.Context, review *entity.Review) error {
	s := r.store
	defer s.guard(r.locked)()

	current, ok := s.reviews[review.ID]
	if !ok {
		return fmt.Errorf("update review %s: %w", review.ID.String(), ErrRecordNotFound)
	}

	current.Title = review.Title
	current.MovieTitle = review.MovieTitle
	current.Content = review.Content
	current.Status = review.Status
	s.reviews[review.ID] = current
	return nil
}

func (r *memoryReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReviewStatus) error {
	s := r.store
	defer s.guard(r.locked)()

	current, ok := s.reviews[id]
	if !ok {
		return fmt.Errorf("update review status %s: %w", id.String(), ErrRecordNotFound)
	}

	current.Status = status
	s.reviews[id] = current
	return nil
}

func (r *memoryReviewRepository) AdjustLikes(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	s := r.store
	defer s.guard(r.locked)()

	current, ok := s.reviews[id]
	if !ok {
		return 0, fmt.Errorf("adjust likes %s: %w", id.String(), ErrRecordNotFound)
	}
	if current.Likes+delta < 0 {
		return 0, fmt.Errorf("adjust likes %s: counter would become negative", id.String())
	}

	current.Likes += delta
	s.reviews[id] = current
	return current.Likes, nil
}

func (r *memoryReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	defer s.guard(r.locked)()

	if _, ok := s.reviews[id]; !ok {
		return fmt.Errorf("delete review %s: %w", id.String(), ErrRecordNotFound)
	}

	s.deleteReviewLocked(id)
	return nil
}

func (s *memoryStore) deleteReviewLocked(id uuid.UUID) {
	for key := range s.likes {
		if key.reviewID == id {
			delete(s.likes, key)
		}
	}
	delete(s.reviews, id)
}

func (s *memoryStore) withAuthorLocked(review entity.Review) *entity.ReviewWithAuthor {
	return &entity.ReviewWithAuthor{
		Review:         review,
		AuthorUsername: s.users[review.UserID].Username,
	}
}

func (s *memoryStore) matchLocked(filter ReviewFilter) []entity.Review {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	var matched []entity.Review
	for _, review := range s.reviews {
		if filter.Status != nil && review.Status != *filter.Status {
			continue
		}
		if filter.AuthorID != nil && review.UserID != *filter.AuthorID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(review.Title), search) &&
			!strings.Contains(strings.ToLower(review.MovieTitle), search) {
			continue
		}
		matched = append(matched, review)
	}
	return matched
}

func sortReviews(reviews []entity.Review, filter ReviewFilter) {
	slices.SortFunc(reviews, func(a, b entity.Review) int {
		var c int
		if filter.SortBy == SortByLikes {
			c = a.Likes - b.Likes
		} else {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = bytes.Compare(a.ID[:], b.ID[:])
		}
		if filter.Descending {
			return -c
		}
		return c
	})
}

// likes

type memoryLikeRepository struct {
	store  *memoryStore
	locked bool
}

func (r *memoryLikeRepository) Create(ctx context.Context, like *entity.Like) error {
	s := r.store
	defer s.guard(r.locked)()

	key := likeKey{userID: like.UserID, reviewID: like.ReviewID}
	if _, ok := s.likes[key]; ok {
		return fmt.Errorf("create like on review %s: %w", like.ReviewID.String(), ErrDuplicate)
	}
	if _, ok := s.users[like.UserID]; !ok {
		return fmt.Errorf("create like: user %w", ErrRecordNotFound)
	}
	if _, ok := s.reviews[like.ReviewID]; !ok {
		return fmt.Errorf("create like: review %w", ErrRecordNotFound)
	}

	s.likes[key] = *like
	return nil
}

func (r *memoryLikeRepository) Find(ctx context.Context, userID, reviewID uuid.UUID) (*entity.Like, error) {
	s := r.store
	defer s.guard(r.locked)()

	like, ok := s.likes[likeKey{userID: userID, reviewID: reviewID}]
	if !ok {
		return nil, nil
	}
	return &like, nil
}

func (r *memoryLikeRepository) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	s := r.store
	defer s.guard(r.locked)()

	key := likeKey{userID: userID, reviewID: reviewID}
	if _, ok := s.likes[key]; !ok {
		return fmt.Errorf("delete like on review %s: %w", reviewID.String(), ErrRecordNotFound)
	}

	delete(s.likes, key)
	return nil
}

func (r *memoryLikeRepository) CountByReview(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	s := r.store
	defer s.guard(r.locked)()

	var count int64
	for key := range s.likes {
		if key.reviewID == reviewID {
			count++
		}
	}
	return count, nil
}

func (r *memoryLikeRepository) LikedReviewIDs(ctx context.Context, userID uuid.UUID, reviewIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	s := r.store
	defer s.guard(r.locked)()

	liked := make(map[uuid.UUID]bool, len(reviewIDs))
	for _, id := range reviewIDs {
		if _, ok := s.likes[likeKey{userID: userID, reviewID: id}]; ok {
			liked[id] = true
		}
	}
	return liked, nil
}

func (r *memoryLikeRepository) ReviewIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s := r.store
	defer s.guard(r.locked)()

	var ids []uuid.UUID
	for key := range s.likes {
		if key.userID == userID {
			ids = append(ids, key.reviewID)
		}
	}
	return ids, nil
}
