package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Action is a user's judgment on a product card.
type Action string

const (
	ActionLike      Action = "like"
	ActionDislike   Action = "dislike"
	ActionSuperLike Action = "super_like"
	ActionSkip      Action = "skip"
)

// Actions lists every valid action in display order.
var Actions = []Action{ActionLike, ActionDislike, ActionSuperLike, ActionSkip}

func (a Action) Valid() bool {
	switch a {
	case ActionLike, ActionDislike, ActionSuperLike, ActionSkip:
		return true
	}
	return false
}

// IsLikeClass reports whether the action counts towards like tallies.
func (a Action) IsLikeClass() bool {
	return a == ActionLike || a == ActionSuperLike
}

// Source is the feed a swipe was made from.
type Source string

const (
	SourceHome           Source = "home"
	SourceExplore        Source = "explore"
	SourceCategory       Source = "category"
	SourceSearch         Source = "search"
	SourceRecommendation Source = "recommendation"
)

func (s Source) Valid() bool {
	switch s {
	case SourceHome, SourceExplore, SourceCategory, SourceSearch, SourceRecommendation:
		return true
	}
	return false
}

// Preferences are the explicit shopping preferences a user set during onboarding.
type Preferences struct {
	PriceMin   *float64                    `json:"priceMin,omitempty"`
	PriceMax   *float64                    `json:"priceMax,omitempty"`
	Brands     datatypes.JSONSlice[string] `json:"brands,omitempty"`
	Categories datatypes.JSONSlice[string] `json:"categories,omitempty"`
	Colors     datatypes.JSONSlice[string] `json:"colors,omitempty"`
}

// HasPriceRange reports whether either price bound was set.
func (p Preferences) HasPriceRange() bool {
	return p.PriceMin != nil || p.PriceMax != nil
}

// User mirrors the identity provider's account record.
// TotalSwipes and TotalLikes are written only by the engagement package.
type User struct {
	ID                 uuid.UUID   `gorm:"type:char(36);primaryKey" json:"id"`
	Phone              string      `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	PhoneVerified      bool        `gorm:"not null" json:"phoneVerified"`
	VerificationCode   string      `gorm:"size:100" json:"-"`
	OnboardingComplete bool        `gorm:"not null" json:"onboardingComplete"`
	IsActive           bool        `gorm:"not null" json:"isActive"`
	IsBlocked          bool        `gorm:"not null" json:"isBlocked"`
	Preferences        Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	TotalSwipes        int64       `gorm:"not null;default:0" json:"totalSwipes"`
	TotalLikes         int64       `gorm:"not null;default:0" json:"totalLikes"`
	LastActiveAt       time.Time   `json:"lastActiveAt"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Product is a catalog card. Only the Total* counters are owned by this
// service, and only the engagement package writes them.
type Product struct {
	ID              uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	Name            string                      `gorm:"size:200;not null" json:"name"`
	Description     string                      `gorm:"size:1000" json:"description,omitempty"`
	Brand           string                      `gorm:"size:100;not null;index" json:"brand"`
	Category        string                      `gorm:"size:32;not null;index:idx_products_category_gender,priority:1" json:"category"`
	Gender          string                      `gorm:"size:16;index:idx_products_category_gender,priority:2" json:"gender"`
	PriceCurrent    float64                     `gorm:"not null;index" json:"priceCurrent"`
	PriceOriginal   float64                     `gorm:"not null" json:"priceOriginal"`
	Currency        string                      `gorm:"size:8;not null" json:"currency"`
	Colors          datatypes.JSONSlice[string] `json:"colors,omitempty"`
	ImageURL        string                      `gorm:"size:512" json:"imageUrl,omitempty"`
	IsActive        bool                        `gorm:"not null;index:idx_products_available,priority:1" json:"isActive"`
	InStock         bool                        `gorm:"not null;index:idx_products_available,priority:2" json:"inStock"`
	TotalViews      int64                       `gorm:"not null;default:0" json:"totalViews"`
	TotalLikes      int64                       `gorm:"not null;default:0;index" json:"totalLikes"`
	TotalDislikes   int64                       `gorm:"not null;default:0" json:"totalDislikes"`
	TotalWishlisted int64                       `gorm:"not null;default:0" json:"totalWishlisted"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Available reports whether the product can be swiped or wishlisted.
func (p *Product) Available() bool {
	return p.IsActive && p.InStock
}

// SwipeContext describes where and how a swipe happened. Pointer fields
// distinguish "not sent" from zero so repeat swipes can merge.
type SwipeContext struct {
	Source    Source   `gorm:"size:32;not null" json:"source"`
	Position  *int     `json:"position,omitempty"`
	SessionID *string  `gorm:"size:100" json:"sessionId,omitempty"`
	TimeSpent *float64 `json:"timeSpent,omitempty"`
}

// Merge overlays the fields set in patch onto c.
func (c SwipeContext) Merge(patch SwipeContext) SwipeContext {
	if patch.Source != "" {
		c.Source = patch.Source
	}
	if patch.Position != nil {
		c.Position = patch.Position
	}
	if patch.SessionID != nil {
		c.SessionID = patch.SessionID
	}
	if patch.TimeSpent != nil {
		c.TimeSpent = patch.TimeSpent
	}
	return c
}

// DeviceInfo is informational metadata taken from request headers.
type DeviceInfo struct {
	Platform   string `gorm:"size:32" json:"platform,omitempty"`
	UserAgent  string `gorm:"size:255" json:"userAgent,omitempty"`
	ScreenSize string `gorm:"size:32" json:"screenSize,omitempty"`
}

// Swipe is the ledger row for one (user, product) pair.
//
// Composite PK: (UserID, ProductID)
//   - Guarantees one row per pair; a repeat swipe updates it.
//
// Indexes:
//   - idx_swipes_user_created(user_id, created_at DESC)
//     Most-recent swipe for undo and history pages.
//   - idx_swipes_product_action(product_id, action)
//     Per-product engagement breakdown.
//   - idx_swipes_action_created(action, created_at)
//     Trending window scans.
type Swipe struct {
	UserID    uuid.UUID    `gorm:"type:char(36);primaryKey;index:idx_swipes_user_created,priority:1" json:"userId"`
	ProductID uuid.UUID    `gorm:"type:char(36);primaryKey;index:idx_swipes_product_action,priority:1" json:"productId"`
	Action    Action       `gorm:"size:16;not null;index:idx_swipes_product_action,priority:2;index:idx_swipes_action_created,priority:1" json:"action"`
	Context   SwipeContext `gorm:"embedded;embeddedPrefix:ctx_" json:"context"`
	Device    DeviceInfo   `gorm:"embedded;embeddedPrefix:device_" json:"device"`
	CreatedAt time.Time    `gorm:"not null;index:idx_swipes_user_created,priority:2,sort:desc;index:idx_swipes_action_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"not null" json:"updatedAt"`

	Product *Product `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
}

// WishlistItem is a saved product. TotalWishlisted on the product tracks rows here.
type WishlistItem struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey" json:"userId"`
	ProductID uuid.UUID `gorm:"type:char(36);primaryKey" json:"productId"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`

	Product *Product `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
}

// AllModels is the migration set.
func AllModels() []any {
	return []any{&User{}, &Product{}, &Swipe{}, &WishlistItem{}}
}
