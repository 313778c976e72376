package users_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/config"
	"github.com/oggyb/swipe-engine/internal/db"
	"github.com/oggyb/swipe-engine/internal/db/testutil"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/logger"
	"github.com/oggyb/swipe-engine/internal/service/users"
)

func ptr[T any](v T) *T { return &v }

func TestUpdatePreferences_MergesPatch(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	svc := users.NewUserService(app.New(config.New(), gdb, nil, logger.Discard()))
	u := testutil.CreateUser(t, gdb, "+916100000001", testutil.PriceRange(100, 900))
	ctx := context.Background()

	prefs, err := svc.UpdatePreferences(ctx, u, &users.PreferencesPatch{
		Brands: ptr([]string{" Zara ", "Mango", "Zara", ""}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zara", "Mango"}, []string(prefs.Brands))
	require.NotNil(t, prefs.PriceMax)
	assert.Equal(t, 900.0, *prefs.PriceMax)

	_, err = svc.UpdatePreferences(ctx, u, &users.PreferencesPatch{
		PriceRange: &users.PriceRange{Min: ptr(500.0)},
		Categories: ptr([]string{"dresses"}),
	})
	require.NoError(t, err)

	got := testutil.ReloadUser(t, gdb, u.ID).Preferences
	require.NotNil(t, got.PriceMin)
	assert.Equal(t, 500.0, *got.PriceMin)
	assert.Nil(t, got.PriceMax)
	assert.Equal(t, []string{"Zara", "Mango"}, []string(got.Brands))
	assert.Equal(t, []string{"dresses"}, []string(got.Categories))
	assert.Nil(t, u.Preferences.PriceMax)
	assert.Equal(t, []string{"dresses"}, []string(u.Preferences.Categories))
}

func TestUpdatePreferences_Rejects(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	svc := users.NewUserService(app.New(config.New(), gdb, nil, logger.Discard()))
	u := testutil.CreateUser(t, gdb, "+916100000002", testutil.PriceRange(100, 900))
	ctx := context.Background()

	_, err := svc.UpdatePreferences(ctx, u, nil)
	assert.True(t, svcErr.IsKind(err, svcErr.KindValidation))

	_, err = svc.UpdatePreferences(ctx, u, &users.PreferencesPatch{PriceRange: &users.PriceRange{Min: ptr(-1.0)}})
	assert.True(t, svcErr.IsKind(err, svcErr.KindValidation))

	_, err = svc.UpdatePreferences(ctx, u, &users.PreferencesPatch{PriceRange: &users.PriceRange{Min: ptr(800.0), Max: ptr(200.0)}})
	assert.True(t, svcErr.IsKind(err, svcErr.KindValidation))

	// nothing was written
	got := testutil.ReloadUser(t, gdb, u.ID).Preferences
	assert.Equal(t, 100.0, *got.PriceMin)
	assert.Equal(t, 900.0, *got.PriceMax)

	_, err = svc.UpdatePreferences(ctx, &db.User{ID: uuid.New()}, &users.PreferencesPatch{Colors: ptr([]string{"red"})})
	assert.True(t, svcErr.IsKind(err, svcErr.KindNotFound))
}
