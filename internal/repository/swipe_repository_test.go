package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/db"
	"github.com/oggyb/swipe-engine/internal/db/testutil"
	"github.com/oggyb/swipe-engine/internal/repository"
)

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func insertSwipe(t *testing.T, gdb *gorm.DB, userID, productID uuid.UUID, action db.Action, at time.Time) {
	t.Helper()
	_, err := repository.NewSwipeRepository(gdb).InsertIfAbsent(context.Background(), &db.Swipe{
		UserID:    userID,
		ProductID: productID,
		Action:    action,
		Context:   db.SwipeContext{Source: db.SourceHome},
		CreatedAt: at,
		UpdatedAt: at,
	})
	require.NoError(t, err)
}

func TestInsertIfAbsentAndUpdate(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewSQLite(t)
	repo := repository.NewSwipeRepository(gdb)
	u := testutil.CreateUser(t, gdb, "+911111111111")
	p := testutil.CreateProduct(t, gdb, "Linen shirt")

	s := &db.Swipe{UserID: u.ID, ProductID: p.ID, Action: db.ActionLike,
		Context: db.SwipeContext{Source: db.SourceHome}, CreatedAt: t0, UpdatedAt: t0}
	inserted, err := repo.InsertIfAbsent(ctx, s)
	require.NoError(t, err)
	assert.True(t, inserted)

	// second insert on the same pair is a no-op
	dup := *s
	dup.Action = db.ActionDislike
	inserted, err = repo.InsertIfAbsent(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.FindForUpdate(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db.ActionLike, got.Action)

	got.Action = db.ActionSkip
	got.UpdatedAt = t0.Add(time.Minute)
	require.NoError(t, repo.UpdateAction(ctx, got))

	again, err := repo.FindForUpdate(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ActionSkip, again.Action)
	assert.True(t, again.CreatedAt.Equal(t0), "created_at must survive an update")

	var n int64
	require.NoError(t, gdb.Model(&db.Swipe{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestFindForUpdate_Missing(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	got, err := repository.NewSwipeRepository(gdb).FindForUpdate(context.Background(), uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMostRecentAndDelete(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewSQLite(t)
	repo := repository.NewSwipeRepository(gdb)
	u := testutil.CreateUser(t, gdb, "+911111111112")
	older := testutil.CreateProduct(t, gdb, "Older")
	newer := testutil.CreateProduct(t, gdb, "Newer")

	_, err := repo.MostRecent(ctx, u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	insertSwipe(t, gdb, u.ID, older.ID, db.ActionLike, t0)
	insertSwipe(t, gdb, u.ID, newer.ID, db.ActionDislike, t0.Add(time.Second))

	s, err := repo.MostRecent(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, s.ProductID)
	require.NotNil(t, s.Product)
	assert.Equal(t, "Newer", s.Product.Name)

	deleted, err := repo.Delete(ctx, u.ID, newer.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, u.ID, newer.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestHistoryPagination(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewSQLite(t)
	repo := repository.NewSwipeRepository(gdb)
	u := testutil.CreateUser(t, gdb, "+911111111113")

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		p := testutil.CreateProduct(t, gdb, "P")
		ids = append(ids, p.ID)
		action := db.ActionLike
		if i%2 == 1 {
			action = db.ActionDislike
		}
		insertSwipe(t, gdb, u.ID, p.ID, action, t0.Add(time.Duration(i)*time.Second))
	}

	page1, next, total, err := repo.History(ctx, u.ID, repository.HistoryFilter{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, ids[4], page1[0].ProductID)
	assert.Equal(t, ids[3], page1[1].ProductID)
	assert.NotNil(t, page1[0].Product)

	page2, next, _, err := repo.History(ctx, u.ID, repository.HistoryFilter{Limit: 2, Token: next})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, ids[2], page2[0].ProductID)

	page3, next, _, err := repo.History(ctx, u.ID, repository.HistoryFilter{Limit: 2, Token: next})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Nil(t, next)
	assert.Equal(t, ids[0], page3[0].ProductID)

	dislike := db.ActionDislike
	only, _, total, err := repo.History(ctx, u.ID, repository.HistoryFilter{Limit: 10, Action: &dislike})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, only, 2)

	bad := "not-a-token"
	_, _, _, err = repo.History(ctx, u.ID, repository.HistoryFilter{Limit: 2, Token: &bad})
	assert.Error(t, err)
}

func TestStatsByAction(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewSQLite(t)
	repo := repository.NewSwipeRepository(gdb)
	u := testutil.CreateUser(t, gdb, "+911111111114")

	spent := func(v float64) *float64 { return &v }
	for i, ts := range []*float64{spent(2), spent(4), nil} {
		p := testutil.CreateProduct(t, gdb, "P")
		_, err := repo.InsertIfAbsent(ctx, &db.Swipe{
			UserID: u.ID, ProductID: p.ID, Action: db.ActionLike,
			Context:   db.SwipeContext{Source: db.SourceHome, TimeSpent: ts},
			CreatedAt: t0.Add(-time.Duration(i*5) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	all, err := repo.StatsByAction(ctx, u.ID, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.EqualValues(t, 3, all[0].Count)
	require.NotNil(t, all[0].AvgTimeSpent)
	assert.InDelta(t, 3.0, *all[0].AvgTimeSpent, 0.001)

	recent, err := repo.StatsByAction(ctx, u.ID, t0.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.EqualValues(t, 1, recent[0].Count)
}

func TestTrendingScores_TieBreakByProductID(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewSQLite(t)
	repo := repository.NewSwipeRepository(gdb)

	a := testutil.CreateProduct(t, gdb, "A", testutil.WithID(uuid.MustParse("00000000-0000-0000-0000-00000000000a")))
	b := testutil.CreateProduct(t, gdb, "B", testutil.WithID(uuid.MustParse("00000000-0000-0000-0000-00000000000b")))
	c := testutil.CreateProduct(t, gdb, "C")

	users := make([]*db.User, 3)
	for i := range users {
		users[i] = testutil.CreateUser(t, gdb, "+9122222222"+string(rune('0'+i)))
	}
	for _, u := range users {
		insertSwipe(t, gdb, u.ID, a.ID, db.ActionLike, t0)
	}
	insertSwipe(t, gdb, users[0].ID, b.ID, db.ActionLike, t0)
	insertSwipe(t, gdb, users[1].ID, b.ID, db.ActionSuperLike, t0)
	insertSwipe(t, gdb, users[2].ID, c.ID, db.ActionDislike, t0)
	// outside the window
	insertSwipe(t, gdb, users[2].ID, b.ID, db.ActionSuperLike, t0.Add(-30*24*time.Hour))

	scores, err := repo.TrendingScores(ctx, t0.Add(-7*24*time.Hour), t0, 10)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, a.ID, scores[0].ProductID)
	assert.EqualValues(t, 3, scores[0].Score)
	assert.Equal(t, b.ID, scores[1].ProductID)
	assert.EqualValues(t, 3, scores[1].Score)
	assert.EqualValues(t, 1, scores[1].LikeCount)
	assert.EqualValues(t, 1, scores[1].SuperLikeCount)

	top, err := repo.TrendingScores(ctx, t0.Add(-7*24*time.Hour), t0, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestSwipedIDsAndLikedProducts(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewSQLite(t)
	repo := repository.NewSwipeRepository(gdb)
	u := testutil.CreateUser(t, gdb, "+911111111115")

	liked := testutil.CreateProduct(t, gdb, "Liked", testutil.WithCategory("dresses"), testutil.WithColors("red", "black"))
	super := testutil.CreateProduct(t, gdb, "Super", testutil.WithBrand("H&M"))
	disliked := testutil.CreateProduct(t, gdb, "Disliked", testutil.WithCategory("shoes"))
	insertSwipe(t, gdb, u.ID, liked.ID, db.ActionLike, t0)
	insertSwipe(t, gdb, u.ID, super.ID, db.ActionSuperLike, t0)
	insertSwipe(t, gdb, u.ID, disliked.ID, db.ActionDislike, t0)

	ids, err := repo.SwipedProductIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{liked.ID, super.ID, disliked.ID}, ids)

	rows, err := repo.LikedProducts(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	var categories []string
	for _, r := range rows {
		categories = append(categories, r.Category)
		if r.Category == "dresses" {
			assert.Equal(t, []string{"red", "black"}, []string(r.Colors))
		}
	}
	assert.ElementsMatch(t, []string{"dresses", "tops"}, categories)
}

func TestEngagementByProduct(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewSQLite(t)
	repo := repository.NewSwipeRepository(gdb)
	p := testutil.CreateProduct(t, gdb, "P")
	for i, a := range []db.Action{db.ActionLike, db.ActionLike, db.ActionSkip} {
		u := testutil.CreateUser(t, gdb, "+9133333333"+string(rune('0'+i)))
		insertSwipe(t, gdb, u.ID, p.ID, a, t0)
	}

	rows, err := repo.EngagementByProduct(ctx, p.ID)
	require.NoError(t, err)
	got := map[db.Action]int64{}
	for _, r := range rows {
		got[r.Action] = r.Count
	}
	assert.Equal(t, map[db.Action]int64{db.ActionLike: 2, db.ActionSkip: 1}, got)
}
