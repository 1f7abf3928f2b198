package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/internal/data/repository"
	"cinema-reviews/internal/dto/request"
	"cinema-reviews/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var validContent = strings.Repeat("A thoughtful paragraph about the film. ", 4)

type fixture struct {
	repo *repository.Repository
	svc  *Service
}

func newFixture(t *testing.T, opts ...repository.MemoryOption) *fixture {
	t.Helper()

	repo := repository.NewMemoryRepository(zap.NewNop(), opts...)
	config := &utils.Config{
		JWT: utils.JWTConfig{Secret: "test-secret", ExpiryMinutes: 30},
	}

	svc := NewService(repo, config, zap.NewNop())
	// creation order must be reflected in created_at
	svc.Review.(*reviewService).now = newTestClock()

	return &fixture{repo: repo, svc: svc}
}

func newTestClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

// identity stores a user directly, skipping bcrypt.
func (f *fixture) identity(t *testing.T, username string, role entity.UserRole) Identity {
	t.Helper()

	user := &entity.User{
		BaseSimple:   entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now().UTC()},
		Username:     username,
		PasswordHash: "unused",
		Role:         role,
	}
	require.NoError(t, f.repo.User.Create(context.Background(), user))
	return identityFromUser(user)
}

func (f *fixture) user(t *testing.T, username string) Identity {
	return f.identity(t, username, entity.RoleUser)
}

func (f *fixture) admin(t *testing.T) Identity {
	return f.identity(t, "admin", entity.RoleAdmin)
}

func reviewRequest(title string) *request.ReviewRequest {
	return &request.ReviewRequest{
		Title:      title,
		MovieTitle: "Some movie",
		Content:    validContent,
	}
}

// review submits a review and returns its id.
func (f *fixture) review(t *testing.T, owner Identity, title string) uuid.UUID {
	t.Helper()

	resp, err := f.svc.Review.CreateReview(context.Background(), owner, reviewRequest(title))
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func (f *fixture) approvedReview(t *testing.T, owner, admin Identity, title string) uuid.UUID {
	t.Helper()

	id := f.review(t, owner, title)
	_, err := f.svc.Review.ApproveReview(context.Background(), admin, id)
	require.NoError(t, err)
	return id
}

func (f *fixture) stored(t *testing.T, id uuid.UUID) *entity.Review {
	t.Helper()

	review, err := f.repo.Review.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, review)
	return review
}

// requireConsistentLikes checks the counter against the like rows.
func (f *fixture) requireConsistentLikes(t *testing.T, id uuid.UUID) int {
	t.Helper()

	rows, err := f.repo.Like.CountByReview(context.Background(), id)
	require.NoError(t, err)
	review := f.stored(t, id)
	require.EqualValues(t, rows, review.Likes, "like counter must equal like rows")
	return review.Likes
}

func repositoryFilterAll() repository.ReviewFilter {
	return repository.ReviewFilter{}
}
