package db

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedVerificationCode is the plain OTP every seeded user verifies with.
const SeedVerificationCode = "123456"

var (
	seedBrands     = []string{"Zara", "H&M", "Uniqlo", "Mango", "Levi's", "Nike", "Adidas", "Fabindia"}
	seedCategories = []string{"tops", "bottoms", "dresses", "outerwear", "footwear", "accessories"}
	seedColors     = []string{"black", "white", "navy", "beige", "olive", "red", "pink", "grey"}
	seedGenders    = []string{"women", "men", "unisex"}
)

// Seeded is what SeedTestData inserted.
type Seeded struct {
	Users    []User
	Products []Product
}

// SeedTestData resets the database and populates it with demo users and products.
//
// Behavior:
//  1. Clears `wishlist_items`, `swipes`, `products` and `users`.
//  2. Creates nUsers verified, onboarded users with a bcrypt-hashed OTP.
//  3. Creates nProducts products; roughly one in ten is inactive or out of stock.
//
// Counters start at zero. Swipes are added through the swipe service so the
// totals stay consistent with the ledger.
func SeedTestData(db *gorm.DB, r *rand.Rand, nUsers, nProducts int) (*Seeded, error) {
	for _, table := range []string{"wishlist_items", "swipes", "products", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedVerificationCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash verification code: %w", err)
	}

	out := &Seeded{}
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 1; i <= nUsers; i++ {
		u := User{
			ID:                 uuid.New(),
			Phone:              fmt.Sprintf("+9190000%05d", i),
			PhoneVerified:      true,
			VerificationCode:   string(hash),
			OnboardingComplete: true,
			IsActive:           true,
			LastActiveAt:       now.Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if i%4 == 0 {
			lo, hi := float64(500+r.Intn(5)*100), float64(3000+r.Intn(5)*500)
			u.Preferences.PriceMin, u.Preferences.PriceMax = &lo, &hi
		}
		out.Users = append(out.Users, u)
	}
	if len(out.Users) > 0 {
		if err := db.Create(&out.Users).Error; err != nil {
			return nil, fmt.Errorf("failed to seed users: %w", err)
		}
	}

	for i := 1; i <= nProducts; i++ {
		brand := seedBrands[r.Intn(len(seedBrands))]
		category := seedCategories[r.Intn(len(seedCategories))]
		price := float64(299 + r.Intn(60)*100)
		p := Product{
			ID:            uuid.New(),
			Name:          fmt.Sprintf("%s %s #%d", brand, category, i),
			Brand:         brand,
			Category:      category,
			Gender:        seedGenders[r.Intn(len(seedGenders))],
			PriceCurrent:  price,
			PriceOriginal: price * 1.25,
			Currency:      "INR",
			Colors:        []string{seedColors[r.Intn(len(seedColors))], seedColors[r.Intn(len(seedColors))]},
			IsActive:      r.Intn(10) != 0,
			InStock:       r.Intn(10) != 0,
			CreatedAt:     now.Add(-time.Duration(r.Intn(60*24)) * time.Hour),
		}
		out.Products = append(out.Products, p)
	}
	if len(out.Products) > 0 {
		if err := db.CreateInBatches(&out.Products, 100).Error; err != nil {
			return nil, fmt.Errorf("failed to seed products: %w", err)
		}
	}
	return out, nil
}
