package server

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricewatch/internal/model"
)

func wishlistItem(productID string, title string, seller string, price float64) model.WishlistItem {
	return model.WishlistItem{
		ItemID:         primitive.NewObjectID(),
		ProductID:      productID,
		Title:          title,
		Seller:         seller,
		ExtractedPrice: price,
	}
}

func TestAggregateWishlists(t *testing.T) {
	u1 := model.User{ID: primitive.NewObjectID(), Wishlist: []model.WishlistItem{
		wishlistItem("123", "Mechanical Keyboard RGB", "Amazon", 1000),
		wishlistItem("456", "Wireless Mouse", "Flipkart", 500),
	}}
	u2 := model.User{ID: primitive.NewObjectID(), Wishlist: []model.WishlistItem{
		wishlistItem("123", "Mechanical Keyboard RGB", "Amazon", 1200),
		wishlistItem("123", "Mechanical Keyboard RGB", "Croma", 990),
	}}

	groups := aggregateWishlists([]model.User{u1, u2})
	require.Len(t, groups, 3)

	assert.Equal(t, "123", groups[0].productID)
	assert.Equal(t, "Amazon", groups[0].seller)
	assert.Len(t, groups[0].refs, 2, "shared pair must collapse into one lookup")
	assert.Equal(t, 1000.0, groups[0].oldPrice, "reference price comes from the first item seen")
	assert.Equal(t, u1.ID, groups[0].refs[0].userID)
	assert.Equal(t, u2.ID, groups[0].refs[1].userID)

	assert.Equal(t, "456", groups[1].productID)
	assert.Equal(t, "Croma", groups[2].seller)
}

func TestAggregateWishlistsSkipsUnidentifiedItems(t *testing.T) {
	u := model.User{ID: primitive.NewObjectID(), Wishlist: []model.WishlistItem{
		wishlistItem("", "No ID Item", "Amazon", 100),
		wishlistItem("null", "Null ID Item", "Amazon", 100),
		wishlistItem("789", "Valid Item", "Amazon", 100),
	}}

	groups := aggregateWishlists([]model.User{u})
	require.Len(t, groups, 1)
	assert.Equal(t, "789", groups[0].productID)
}

func TestMatchShopResult(t *testing.T) {
	g := checkGroup{
		productID: "123",
		title:     "Mechanical Keyboard RGB Backlit Gaming Edition",
		seller:    "Amazon",
	}

	t.Run("product ID match wins over seller match", func(t *testing.T) {
		results := []model.ShopResult{
			{ProductID: "999", Title: "Mechanical Keyboard RGB Backlit Gaming Edition", Seller: "Amazon", ExtractedPrice: 900},
			{ProductID: "123", Title: "Different listing title", Seller: "Croma", ExtractedPrice: 950},
		}
		r, ok := matchShopResult(g, results)
		require.True(t, ok)
		assert.Equal(t, "123", r.ProductID)
	})

	t.Run("falls back to seller and title prefix", func(t *testing.T) {
		results := []model.ShopResult{
			{ProductID: "999", Title: "Mechanical Keyboard RGB Backlit Gaming Edition (2024)", Seller: "Amazon", ExtractedPrice: 900},
		}
		r, ok := matchShopResult(g, results)
		require.True(t, ok)
		assert.Equal(t, "999", r.ProductID)
	})

	t.Run("seller match with unrelated title is rejected", func(t *testing.T) {
		results := []model.ShopResult{
			{ProductID: "999", Title: "Completely different product", Seller: "Amazon"},
		}
		_, ok := matchShopResult(g, results)
		assert.False(t, ok)
	})

	t.Run("title match with different seller is rejected", func(t *testing.T) {
		results := []model.ShopResult{
			{ProductID: "999", Title: "Mechanical Keyboard RGB Backlit Gaming Edition", Seller: "Croma"},
		}
		_, ok := matchShopResult(g, results)
		assert.False(t, ok)
	})

	t.Run("multibyte title prefix is taken over runes", func(t *testing.T) {
		title := strings.Repeat("a", 29) + strings.Repeat("é", 11)
		mb := checkGroup{productID: "42", title: title, seller: "Amazon"}
		results := []model.ShopResult{
			{ProductID: "999", Title: title + " (2024)", Seller: "Amazon"},
		}
		r, ok := matchShopResult(mb, results)
		require.True(t, ok)
		assert.Equal(t, "999", r.ProductID)
	})

	t.Run("short tracked title matches whole", func(t *testing.T) {
		short := checkGroup{productID: "42", title: "Mouse", seller: "Amazon"}
		results := []model.ShopResult{
			{ProductID: "999", Title: "Wireless Mouse Black", Seller: "Amazon"},
		}
		r, ok := matchShopResult(short, results)
		require.True(t, ok)
		assert.Equal(t, "999", r.ProductID)
	})
}

func TestQualifyingDrop(t *testing.T) {
	tests := []struct {
		name     string
		oldPrice float64
		newPrice float64
		wantPct  float64
		wantOK   bool
	}{
		{"half percent drop is below threshold", 1000, 995, 0, false},
		{"drop just above threshold", 1000, 989, 1.1, true},
		{"exactly one percent", 1000, 990, 1.0, true},
		{"unchanged price", 1000, 1000, 0, false},
		{"price increase", 1000, 1100, 0, false},
		{"no reference price", 0, 500, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, ok := qualifyingDrop(tt.oldPrice, tt.newPrice)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.wantPct, pct, 0.0001)
		})
	}
}

func TestCheckStateGuard(t *testing.T) {
	cs := &CheckState{}

	running, lastRun := cs.Status()
	assert.False(t, running)
	assert.True(t, lastRun.IsZero())

	require.True(t, cs.start())
	assert.False(t, cs.start(), "second start must be refused while running")

	running, lastRun = cs.Status()
	assert.True(t, running)
	assert.WithinDuration(t, time.Now(), lastRun, time.Minute)

	cs.finish()
	running, _ = cs.Status()
	assert.False(t, running)
	assert.True(t, cs.start(), "start must succeed again after finish")
	cs.finish()
}

func TestCheckStateGuardConcurrent(t *testing.T) {
	cs := &CheckState{}

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cs.start() {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started, "exactly one concurrent start must win")
}
