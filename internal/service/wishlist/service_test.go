package wishlist_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/config"
	"github.com/oggyb/swipe-engine/internal/db/testutil"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/logger"
	"github.com/oggyb/swipe-engine/internal/service/wishlist"
)

func TestWishlist_AddRemoveKeepsCounter(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	svc := wishlist.NewWishlistService(app.New(config.New(), gdb, nil, logger.Discard()))
	u := testutil.CreateUser(t, gdb, "+916000000001")
	p := testutil.CreateProduct(t, gdb, "Sneakers")
	ctx := context.Background()

	item, err := svc.Add(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, item.Product)
	assert.EqualValues(t, 1, item.Product.TotalWishlisted)

	_, err = svc.Add(ctx, u.ID, p.ID)
	assert.True(t, svcErr.IsKind(err, svcErr.KindConflict))
	assert.EqualValues(t, 1, testutil.ReloadProduct(t, gdb, p.ID).TotalWishlisted)

	saved, err := svc.Status(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	items, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sneakers", items[0].Product.Name)

	require.NoError(t, svc.Remove(ctx, u.ID, p.ID))
	assert.EqualValues(t, 0, testutil.ReloadProduct(t, gdb, p.ID).TotalWishlisted)
	saved, err = svc.Status(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	err = svc.Remove(ctx, u.ID, p.ID)
	assert.True(t, svcErr.IsKind(err, svcErr.KindNotFound))
	assert.EqualValues(t, 0, testutil.ReloadProduct(t, gdb, p.ID).TotalWishlisted)
}

func TestWishlist_Rejects(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	svc := wishlist.NewWishlistService(app.New(config.New(), gdb, nil, logger.Discard()))
	u := testutil.CreateUser(t, gdb, "+916000000002")
	gone := testutil.CreateProduct(t, gdb, "Gone", testutil.Inactive())

	_, err := svc.Add(context.Background(), u.ID, uuid.New())
	assert.True(t, svcErr.IsKind(err, svcErr.KindNotFound))

	_, err = svc.Add(context.Background(), u.ID, gone.ID)
	assert.True(t, svcErr.IsKind(err, svcErr.KindUnavailable))

	items, err := svc.List(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
