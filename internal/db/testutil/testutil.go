// Package testutil provides isolated in-memory databases and fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/db"
)

// NewSQLite opens a private in-memory SQLite database with the full schema.
// A single connection serializes writers the way a row lock would.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	cfg := db.GormConfig(nil)
	cfg.SkipDefaultTransaction = true
	gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// ProductOpt tweaks a fixture product before insert.
type ProductOpt func(*db.Product)

func WithCategory(c string) ProductOpt { return func(p *db.Product) { p.Category = c } }
func WithBrand(b string) ProductOpt    { return func(p *db.Product) { p.Brand = b } }
func WithGender(g string) ProductOpt   { return func(p *db.Product) { p.Gender = g } }
func WithPrice(v float64) ProductOpt   { return func(p *db.Product) { p.PriceCurrent, p.PriceOriginal = v, v } }
func WithLikes(n int64) ProductOpt     { return func(p *db.Product) { p.TotalLikes = n } }
func WithColors(c ...string) ProductOpt {
	return func(p *db.Product) { p.Colors = c }
}
func Inactive() ProductOpt   { return func(p *db.Product) { p.IsActive = false } }
func OutOfStock() ProductOpt { return func(p *db.Product) { p.InStock = false } }
func CreatedAt(ts time.Time) ProductOpt {
	return func(p *db.Product) { p.CreatedAt = ts }
}
func WithID(id uuid.UUID) ProductOpt { return func(p *db.Product) { p.ID = id } }

// CreateProduct inserts an active, in-stock product.
func CreateProduct(t *testing.T, gdb *gorm.DB, name string, opts ...ProductOpt) *db.Product {
	t.Helper()
	p := &db.Product{
		ID:            uuid.New(),
		Name:          name,
		Brand:         "Zara",
		Category:      "tops",
		Gender:        "women",
		PriceCurrent:  1499,
		PriceOriginal: 1999,
		Currency:      "INR",
		IsActive:      true,
		InStock:       true,
	}
	for _, o := range opts {
		o(p)
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

// UserOpt tweaks a fixture user before insert.
type UserOpt func(*db.User)

func Unverified() UserOpt    { return func(u *db.User) { u.PhoneVerified = false } }
func NotOnboarded() UserOpt  { return func(u *db.User) { u.OnboardingComplete = false } }
func Blocked() UserOpt       { return func(u *db.User) { u.IsBlocked = true } }
func Deactivated() UserOpt   { return func(u *db.User) { u.IsActive = false } }
func PriceRange(lo, hi float64) UserOpt {
	return func(u *db.User) { u.Preferences.PriceMin, u.Preferences.PriceMax = &lo, &hi }
}

// CreateUser inserts a verified, onboarded, active user.
func CreateUser(t *testing.T, gdb *gorm.DB, phone string, opts ...UserOpt) *db.User {
	t.Helper()
	u := &db.User{
		ID:                 uuid.New(),
		Phone:              phone,
		PhoneVerified:      true,
		OnboardingComplete: true,
		IsActive:           true,
	}
	for _, o := range opts {
		o(u)
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// ReloadProduct fetches the current row.
func ReloadProduct(t *testing.T, gdb *gorm.DB, id uuid.UUID) db.Product {
	t.Helper()
	var p db.Product
	require.NoError(t, gdb.First(&p, "id = ?", id).Error)
	return p
}

// ReloadUser fetches the current row.
func ReloadUser(t *testing.T, gdb *gorm.DB, id uuid.UUID) db.User {
	t.Helper()
	var u db.User
	require.NoError(t, gdb.First(&u, "id = ?", id).Error)
	return u
}

// FixedClock is a settable clock for time-window tests.
type FixedClock struct{ T time.Time }

func NewFixedClock() *FixedClock {
	return &FixedClock{T: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *FixedClock) Now() time.Time           { return c.T }
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
