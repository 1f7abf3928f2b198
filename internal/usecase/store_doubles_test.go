package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/internal/data/repository"

	"github.com/google/uuid"
)

// offsetRecorder remembers every window FindAll was asked for.
type offsetRecorder struct {
	repository.ReviewRepository

	mu      sync.Mutex
	offsets []int
}

func (r *offsetRecorder) FindAll(ctx context.Context, filter repository.ReviewFilter, limit, offset int) ([]*entity.ReviewWithAuthor, error) {
	r.mu.Lock()
	r.offsets = append(r.offsets, offset)
	r.mu.Unlock()
	return r.ReviewRepository.FindAll(ctx, filter, limit, offset)
}

func (r *offsetRecorder) recorded() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.offsets...)
}

// staleLikeReads misses existing likes on Find, as a transaction that read
// before a concurrent insert committed would. Create still hits the unique
// constraint.
type staleLikeReads struct {
	repository.LikeRepository
	duplicates *atomic.Int32
}

func (l staleLikeReads) Find(context.Context, uuid.UUID, uuid.UUID) (*entity.Like, error) {
	return nil, nil
}

func (l staleLikeReads) Create(ctx context.Context, like *entity.Like) error {
	err := l.LikeRepository.Create(ctx, like)
	if errors.Is(err, repository.ErrDuplicate) {
		l.duplicates.Add(1)
	}
	return err
}

// callLog records store calls made inside transactions, in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type loggedUsers struct {
	repository.UserRepository
	log *callLog
}

func (u loggedUsers) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u.log.add("user.find")
	return u.UserRepository.FindByID(ctx, id)
}

func (u loggedUsers) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u.log.add("user.lock")
	return u.UserRepository.FindByIDForUpdate(ctx, id)
}

func (u loggedUsers) Delete(ctx context.Context, id uuid.UUID) error {
	u.log.add("user.delete")
	return u.UserRepository.Delete(ctx, id)
}

type loggedLikes struct {
	repository.LikeRepository
	log *callLog
}

func (l loggedLikes) ReviewIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	l.log.add("like.review_ids")
	return l.LikeRepository.ReviewIDsByUser(ctx, userID)
}

// driftingLikes reports one row more than the store holds.
type driftingLikes struct {
	repository.LikeRepository
}

func (l driftingLikes) CountByReview(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	rows, err := l.LikeRepository.CountByReview(ctx, reviewID)
	return rows + 1, err
}
