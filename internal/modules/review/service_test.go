package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/store"
)

var alice = identity.Actor{UserID: "alice"}

func newTestService(t *testing.T) Service {
	t.Helper()
	db := store.NewMemory()
	require.NoError(t, db.DefineCollection(context.Background(), Spec))
	return NewService(NewStoreRepository(db))
}

func TestAddValidatesRating(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Add(ctx, alice, "mug", rating, "", "")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "rating", ve.Field)
	}

	rev, err := svc.Add(ctx, alice, "mug", 5, "Great", "Holds coffee")
	require.NoError(t, err)
	assert.Equal(t, 5, rev.Rating)
}

func TestAddRequiresAuthentication(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Add(context.Background(), identity.Actor{}, "mug", 4, "", "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSummarizeAveragesRatings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bob := identity.Actor{UserID: "bob"}
	_, err := svc.Add(ctx, alice, "mug", 5, "", "")
	require.NoError(t, err)
	_, err = svc.Add(ctx, bob, "mug", 2, "", "")
	require.NoError(t, err)
	_, err = svc.Add(ctx, alice, "tee", 1, "", "")
	require.NoError(t, err)

	sum, err := svc.Summarize(ctx, "mug")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 3.5, sum.Average)

	empty, err := svc.Summarize(ctx, "banner")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, 0.0, empty.Average)
}

func TestDeleteIsOwnerOrAdminOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rev, err := svc.Add(ctx, alice, "mug", 4, "", "")
	require.NoError(t, err)

	bob := identity.Actor{UserID: "bob"}
	err = svc.Delete(ctx, bob, rev.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	require.NoError(t, svc.Delete(ctx, alice, rev.ID))
	revs, err := svc.ListByProduct(ctx, "mug")
	require.NoError(t, err)
	assert.Empty(t, revs)
}
