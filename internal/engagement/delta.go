// Package engagement is the only writer of the engagement counters on
// products (likes, dislikes, wishlisted, views) and users (swipes, likes).
//
// Callers describe what happened to the swipe ledger (a creation, a
// transition between two actions, a removal) and the package derives the
// counter changes and applies them atomically inside the caller's
// transaction. No other package may update counter columns.
package engagement

import "github.com/oggyb/swipe-engine/internal/db"

// Step is a clamped counter adjustment: first subtract Dec (not below
// zero), then add Inc. Keeping both halves lets a transition reverse the old
// action and apply the new one in one statement without a negative
// intermediate value.
type Step struct {
	Dec int64
	Inc int64
}

func (s Step) IsZero() bool { return s.Dec == 0 && s.Inc == 0 }

// Net is the signed change when no clamping occurs.
func (s Step) Net() int64 { return s.Inc - s.Dec }

var (
	inc = Step{Inc: 1}
	dec = Step{Dec: 1}
)

// Delta is the full set of counter adjustments for one ledger mutation.
type Delta struct {
	ProductLikes      Step
	ProductDislikes   Step
	ProductWishlisted Step
	ProductViews      Step
	UserSwipes        Step
	UserLikes         Step
}

func (d Delta) touchesProduct() bool {
	return !d.ProductLikes.IsZero() || !d.ProductDislikes.IsZero() ||
		!d.ProductWishlisted.IsZero() || !d.ProductViews.IsZero()
}

func (d Delta) touchesUser() bool {
	return !d.UserSwipes.IsZero() || !d.UserLikes.IsZero()
}

// CreationDelta is the effect of a first swipe on a pair.
func CreationDelta(a db.Action) Delta {
	d := Delta{UserSwipes: inc}
	switch {
	case a.IsLikeClass():
		d.ProductLikes = inc
		d.UserLikes = inc
	case a == db.ActionDislike:
		d.ProductDislikes = inc
	}
	return d
}

// RemovalDelta reverses CreationDelta.
func RemovalDelta(a db.Action) Delta {
	d := Delta{UserSwipes: dec}
	switch {
	case a.IsLikeClass():
		d.ProductLikes = dec
		d.UserLikes = dec
	case a == db.ActionDislike:
		d.ProductDislikes = dec
	}
	return d
}

// TransitionDelta is the effect of changing an existing swipe from old to
// next. The product side reverses old then applies next; the user like count
// only moves when the like-class membership changes. UserSwipes never moves.
func TransitionDelta(old, next db.Action) Delta {
	var d Delta

	switch {
	case old.IsLikeClass():
		d.ProductLikes.Dec = 1
	case old == db.ActionDislike:
		d.ProductDislikes.Dec = 1
	}
	switch {
	case next.IsLikeClass():
		d.ProductLikes.Inc = 1
	case next == db.ActionDislike:
		d.ProductDislikes.Inc = 1
	}

	switch {
	case old.IsLikeClass() && !next.IsLikeClass():
		d.UserLikes = dec
	case !old.IsLikeClass() && next.IsLikeClass():
		d.UserLikes = inc
	}
	return d
}

// WishlistDelta adds (+1) or removes (-1) one wishlist entry.
func WishlistDelta(added bool) Delta {
	if added {
		return Delta{ProductWishlisted: inc}
	}
	return Delta{ProductWishlisted: dec}
}

// ViewDelta counts one product detail view.
func ViewDelta() Delta {
	return Delta{ProductViews: inc}
}
