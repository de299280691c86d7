package server

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricewatch/internal/database"
	"pricewatch/internal/model"
)

// platformFragments maps a known marketplace name fragment to its platform
// domain. Order matters: earlier entries win for ambiguous names.
var platformFragments = []struct {
	fragment string
	platform string
}{
	{"amazon", "amazon.in"},
	{"flipkart", "flipkart.com"},
	{"myntra", "myntra.com"},
	{"ajio", "ajio.com"},
	{"croma", "croma.com"},
	{"reliance digital", "reliancedigital.in"},
	{"vijay sales", "vijaysales.com"},
	{"tata cliq", "tatacliq.com"},
	{"snapdeal", "snapdeal.com"},
	{"paytm", "paytmmall.com"},
	{"jiomart", "jiomart.com"},
	{"shopclues", "shopclues.com"},
	{"nykaa", "nykaa.com"},
	{"meesho", "meesho.com"},
}

// extractPlatform derives a platform identifier from a seller's display
// name. Unknown sellers fall back to their lowercased name.
func extractPlatform(sellerName string) string {
	lower := strings.ToLower(sellerName)
	for _, pf := range platformFragments {
		if strings.Contains(lower, pf.fragment) {
			return pf.platform
		}
	}
	return lower
}

// generateSellerLink synthesizes a search URL on the seller's own site for
// sellers the provider returned without a direct link.
func generateSellerLink(sellerName string, productTitle string) string {
	q := url.QueryEscape(productTitle)
	switch extractPlatform(sellerName) {
	case "amazon.in":
		return "https://www.amazon.in/s?k=" + q
	case "flipkart.com":
		return "https://www.flipkart.com/search?q=" + q
	case "myntra.com":
		return "https://www.myntra.com/" + url.PathEscape(productTitle)
	case "ajio.com":
		return "https://www.ajio.com/search/?text=" + q
	case "croma.com":
		return "https://www.croma.com/searchB?q=" + q
	case "reliancedigital.in":
		return "https://www.reliancedigital.in/search?q=" + q
	case "vijaysales.com":
		return "https://www.vijaysales.com/search/" + q
	case "tatacliq.com":
		return "https://www.tatacliq.com/search/?searchCategory=all&text=" + q
	case "snapdeal.com":
		return "https://www.snapdeal.com/search?keyword=" + q
	case "jiomart.com":
		return "https://www.jiomart.com/search/" + q
	case "shopclues.com":
		return "https://www.shopclues.com/search?q=" + q
	case "nykaa.com":
		return "https://www.nykaa.com/search/result/?q=" + q
	case "meesho.com":
		return "https://www.meesho.com/search?q=" + q
	default:
		return fmt.Sprintf("https://www.google.com/search?q=%s+%s", q, url.QueryEscape(sellerName))
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// recordPriceHistoryEntry appends today's price point for one shopping
// result, upserting the Product and Seller rows it hangs off. Recording the
// same pair twice in one day is a no-op.
func (s Server) recordPriceHistoryEntry(ctx context.Context, r model.ShopResult) error {
	if !validProductID(r.ProductID) || r.ExtractedPrice <= 0 {
		return nil
	}

	now := time.Now()
	product, err := s.DB.ProductUpsert(ctx, model.Product{
		ProductID:   r.ProductID,
		Title:       r.Title,
		Thumbnail:   r.Thumbnail,
		ProductLink: r.ProductLink,
		CreatedAt:   primitive.NewDateTimeFromTime(now),
	})
	if err != nil {
		return errors.Wrapf(err, "error upserting Product, product ID: %s", r.ProductID)
	}

	var sellerID *primitive.ObjectID
	if r.Seller != "" {
		seller, err := s.DB.SellerUpsert(ctx, model.Seller{
			Name:      r.Seller,
			Platform:  extractPlatform(r.Seller),
			CreatedAt: primitive.NewDateTimeFromTime(now),
		})
		if err != nil {
			return errors.Wrapf(err, "error upserting Seller: %s", r.Seller)
		}
		sellerID = &seller.ID
	}

	day := dayKey(now)
	exists, err := s.DB.PriceHistoryExistsForDay(ctx, product.ID, sellerID, day)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.DB.PriceHistoryInsert(ctx, model.PriceHistory{
		ProductID:  product.ID,
		SellerID:   sellerID,
		SellerName: r.Seller,
		Price:      r.ExtractedPrice,
		Currency:   "INR",
		Day:        day,
		RecordedAt: primitive.NewDateTimeFromTime(now),
	})
	if errors.Is(err, database.ErrPriceAlreadyRecorded) {
		s.Logger.Debugf("recordPriceHistoryEntry: Entry already recorded, product ID: %s, seller: %s, day: %s",
			r.ProductID, r.Seller, day)
		return nil
	}
	return err
}

// recordPriceHistory records entries for a batch of results, isolating
// per-item failures. Items without a product identifier or price are
// skipped, as are items whose write fails.
func (s Server) recordPriceHistory(ctx context.Context, results []model.ShopResult) (recorded int, skipped int) {
	for _, r := range results {
		if !validProductID(r.ProductID) || r.ExtractedPrice <= 0 {
			skipped++
			continue
		}
		if err := s.recordPriceHistoryEntry(ctx, r); err != nil {
			skipped++
			s.Logger.Errorf("recordPriceHistory: Error recording entry, product ID: %s, err: %+v", r.ProductID, err)
			continue
		}
		recorded++
	}
	return recorded, skipped
}

// recordPriceHistoryAsync records a batch in the background, detached from
// the request that produced the results.
func (s Server) recordPriceHistoryAsync(results []model.ShopResult) {
	go func() {
		defer func() {
			if re := recover(); re != nil {
				s.Logger.Errorf("recordPriceHistoryAsync: Recorder crashed, err: %v", re)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		recorded, skipped := s.recordPriceHistory(ctx, results)
		s.Logger.Debugf("recordPriceHistoryAsync: Recorded %d entries, skipped %d, of %d results",
			recorded, skipped, len(results))
	}()
}
