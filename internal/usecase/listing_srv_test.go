package usecase

import (
	"context"
	"math"
	"testing"

	"cinema-reviews/internal/dto/request"
	"cinema-reviews/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listQuery(page, limit int) *request.ReviewListQuery {
	return &request.ReviewListQuery{PaginatedRequest: request.PaginatedRequest{Page: page, Limit: limit}}
}

func TestListPublic_PageBeyondLast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	admin := f.admin(t)
	for _, title := range []string{"Review one", "Review two", "Review three"} {
		f.approvedReview(t, alice, admin, title)
	}

	page, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, listQuery(5, 20))
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.Equal(t, 5, page.Pagination.Page)
	assert.Equal(t, 20, page.Pagination.Limit)
}

func TestListPublic_EmptyStillHasOnePage(t *testing.T) {
	f := newFixture(t)

	page, err := f.svc.Listing.ListPublic(context.Background(), Anonymous{}, listQuery(1, 20))
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Zero(t, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestListPublic_FilterSortSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bobby")
	carol := f.user(t, "carol")
	admin := f.admin(t)

	older := f.approvedReview(t, alice, admin, "Dune is long")
	newer := f.approvedReview(t, bob, admin, "Alien holds up")
	f.review(t, alice, "Pending dune take")

	_, err := f.svc.Review.ToggleLike(ctx, carol, older)
	require.NoError(t, err)

	t.Run("only approved, newest first by default", func(t *testing.T) {
		page, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, listQuery(1, 20))
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, newer.String(), page.Data[0].ID)
		assert.Equal(t, older.String(), page.Data[1].ID)
		assert.Nil(t, page.Data[0].IsLiked)
	})

	t.Run("sort by likes", func(t *testing.T) {
		q := listQuery(1, 20)
		q.Sort = request.SortLikes
		q.Order = request.OrderDesc
		page, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, q)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, older.String(), page.Data[0].ID)
		assert.Equal(t, 1, page.Data[0].Likes)
	})

	t.Run("ascending order", func(t *testing.T) {
		q := listQuery(1, 20)
		q.Order = request.OrderAsc
		page, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, q)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, older.String(), page.Data[0].ID)
	})

	t.Run("search matches title or movie title", func(t *testing.T) {
		q := listQuery(1, 20)
		q.Search = "dUnE"
		page, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, q)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, older.String(), page.Data[0].ID)

		q.Search = "some movie"
		page, err = f.svc.Listing.ListPublic(ctx, Anonymous{}, q)
		require.NoError(t, err)
		assert.Len(t, page.Data, 2)
	})

	t.Run("author filter", func(t *testing.T) {
		q := listQuery(1, 20)
		q.AuthorID = &bob.UserID
		page, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, q)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "bobby", page.Data[0].Author.Username)

		unknown := uuid.New()
		q.AuthorID = &unknown
		page, err = f.svc.Listing.ListPublic(ctx, Anonymous{}, q)
		require.NoError(t, err)
		assert.Empty(t, page.Data)
	})

	t.Run("is_liked follows the viewer", func(t *testing.T) {
		page, err := f.svc.Listing.ListPublic(ctx, carol, listQuery(1, 20))
		require.NoError(t, err)
		liked := map[string]bool{}
		for _, item := range page.Data {
			require.NotNil(t, item.IsLiked)
			liked[item.ID] = *item.IsLiked
		}
		assert.True(t, liked[older.String()])
		assert.False(t, liked[newer.String()])
	})

	t.Run("pages split the result", func(t *testing.T) {
		first, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, listQuery(1, 1))
		require.NoError(t, err)
		second, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, listQuery(2, 1))
		require.NoError(t, err)

		require.Len(t, first.Data, 1)
		require.Len(t, second.Data, 1)
		assert.NotEqual(t, first.Data[0].ID, second.Data[0].ID)
		assert.Equal(t, 2, first.Pagination.TotalPages)
	})
}

func TestListPublic_InvalidQuery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		query *request.ReviewListQuery
		field string
	}{
		{"page zero", listQuery(0, 20), "page"},
		{"limit zero", listQuery(1, 0), "limit"},
		{"limit above max", listQuery(1, 101), "limit"},
		{"unknown sort", &request.ReviewListQuery{PaginatedRequest: request.NewPaginatedRequest(), Sort: "title"}, "sort"},
		{"unknown order", &request.ReviewListQuery{PaginatedRequest: request.NewPaginatedRequest(), Order: "sideways"}, "order"},
		{"short search", &request.ReviewListQuery{PaginatedRequest: request.NewPaginatedRequest(), Search: "a"}, "search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, tt.query)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestListOwn_AllStatuses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bobby")
	admin := f.admin(t)

	f.review(t, alice, "Alice pending")
	f.approvedReview(t, alice, admin, "Alice approved")
	rejected := f.review(t, alice, "Alice rejected")
	_, err := f.svc.Review.RejectReview(ctx, admin, rejected)
	require.NoError(t, err)
	f.approvedReview(t, bob, admin, "Bobby approved")

	q := listQuery(1, 20)
	q.AuthorID = &bob.UserID // ignored for the own view
	page, err := f.svc.Listing.ListOwn(ctx, alice, q)
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	for _, item := range page.Data {
		assert.Equal(t, alice.UserID.String(), item.Author.ID)
		require.NotNil(t, item.IsLiked)
	}
}

func TestListModeration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	admin := f.admin(t)

	first := f.review(t, alice, "First pending")
	second := f.review(t, alice, "Second pending")
	f.approvedReview(t, alice, admin, "Already approved")

	page := request.NewPaginatedRequest()

	_, err := f.svc.Listing.ListModeration(ctx, alice, &page)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	queue, err := f.svc.Listing.ListModeration(ctx, admin, &page)
	require.NoError(t, err)
	require.Len(t, queue.Data, 2)
	assert.Equal(t, second.String(), queue.Data[0].ID)
	assert.Equal(t, first.String(), queue.Data[1].ID)
	for _, item := range queue.Data {
		assert.Nil(t, item.IsLiked)
	}

	bad := request.PaginatedRequest{Page: 1, Limit: 500}
	_, err = f.svc.Listing.ListModeration(ctx, admin, &bad)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestListPublic_HugePageNeverQueriesRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	admin := f.admin(t)
	for _, title := range []string{"Review one", "Review two", "Review three"} {
		f.approvedReview(t, alice, admin, title)
	}

	recorder := &offsetRecorder{ReviewRepository: f.repo.Review}
	f.repo.Review = recorder

	for _, pageNumber := range []int{math.MaxInt / 50, math.MaxInt} {
		page, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, listQuery(pageNumber, request.MaxLimit))
		require.NoError(t, err, "page %d", pageNumber)
		assert.Empty(t, page.Data)
		assert.EqualValues(t, 3, page.Pagination.Total)
		assert.Equal(t, 1, page.Pagination.TotalPages)
		assert.Equal(t, pageNumber, page.Pagination.Page)
	}
	assert.Empty(t, recorder.recorded(), "no row query past the last page")

	page, err := f.svc.Listing.ListPublic(ctx, Anonymous{}, listQuery(1, request.MaxLimit))
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, []int{0}, recorder.recorded())
}
