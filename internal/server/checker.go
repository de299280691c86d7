package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricewatch/internal/model"
	"pricewatch/internal/ws"
)

// searchPacing spaces out search provider calls during a sweep.
const searchPacing = 500 * time.Millisecond

const minDropPercentage = 1.0

var ErrCheckAlreadyRunning = errors.New("price check already running")

// CheckState is the owned run state of the price check orchestrator. At most
// one sweep runs at a time, whether started by the scheduler or by hand.
type CheckState struct {
	running atomic.Bool
	mu      sync.Mutex
	lastRun time.Time
}

func (cs *CheckState) start() bool {
	if !cs.running.CompareAndSwap(false, true) {
		return false
	}
	cs.mu.Lock()
	cs.lastRun = time.Now()
	cs.mu.Unlock()
	return true
}

func (cs *CheckState) finish() {
	cs.running.Store(false)
}

// Status returns whether a sweep is in progress and when the last one
// started. LastRun is zero before the first sweep.
func (cs *CheckState) Status() (running bool, lastRun time.Time) {
	cs.mu.Lock()
	lastRun = cs.lastRun
	cs.mu.Unlock()
	return cs.running.Load(), lastRun
}

// itemRef points back to one wishlist item that shares a checkGroup.
type itemRef struct {
	userID primitive.ObjectID
	itemID primitive.ObjectID
}

// checkGroup is one (productID, seller) pair to look up, with every wishlist
// item that maps to it. The snapshot fields come from the first item seen.
type checkGroup struct {
	productID string
	title     string
	seller    string
	thumbnail string
	oldPrice  float64
	refs      []itemRef
}

func groupKey(productID string, seller string) string {
	return productID + "|" + seller
}

// aggregateWishlists collapses all users' wishlist items into one checkGroup
// per (productID, seller) pair, in first-seen order. Items without a usable
// product identifier are skipped.
func aggregateWishlists(users []model.User) []checkGroup {
	var order []string
	byKey := map[string]*checkGroup{}
	for _, u := range users {
		for _, wi := range u.Wishlist {
			if !validProductID(wi.ProductID) {
				continue
			}
			key := groupKey(wi.ProductID, wi.Seller)
			g, ok := byKey[key]
			if !ok {
				g = &checkGroup{
					productID: wi.ProductID,
					title:     wi.Title,
					seller:    wi.Seller,
					thumbnail: wi.Thumbnail,
					oldPrice:  wi.ExtractedPrice,
				}
				byKey[key] = g
				order = append(order, key)
			}
			g.refs = append(g.refs, itemRef{userID: u.ID, itemID: wi.ItemID})
		}
	}
	groups := make([]checkGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups
}

// matchShopResult picks the result to compare against. An exact product ID
// match wins; otherwise the seller must match and the result title must
// contain the first 30 characters of the tracked title.
func matchShopResult(g checkGroup, results []model.ShopResult) (model.ShopResult, bool) {
	for _, r := range results {
		if r.ProductID != "" && r.ProductID == g.productID {
			return r, true
		}
	}
	// Slice the prefix over runes so a multibyte title is never cut
	// mid-character.
	prefix := g.title
	if r := []rune(prefix); len(r) > 30 {
		prefix = string(r[:30])
	}
	for _, r := range results {
		if r.Seller == g.seller && strings.Contains(r.Title, prefix) {
			return r, true
		}
	}
	return model.ShopResult{}, false
}

// qualifyingDrop reports whether the price moved down by at least
// minDropPercentage, and by how much.
func qualifyingDrop(oldPrice float64, newPrice float64) (float64, bool) {
	if oldPrice <= 0 || newPrice >= oldPrice {
		return 0, false
	}
	pct := (oldPrice - newPrice) / oldPrice * 100
	if pct < minDropPercentage {
		return 0, false
	}
	return pct, true
}

// RunPriceCheckInInterval runs a sweep on every ticker fire until ctx is
// done. A tick that lands while a sweep is still in flight is skipped.
func (s Server) RunPriceCheckInInterval(ctx context.Context, ticker *time.Ticker) {
	for {
		select {
		case <-ticker.C:
			if err := s.RunPriceCheck(ctx); err != nil {
				if errors.Is(err, ErrCheckAlreadyRunning) {
					s.Logger.Warn("RunPriceCheckInInterval: Skipping scheduled check, previous check still running")
				} else {
					s.Logger.Errorf("RunPriceCheckInInterval: Check failed, err: %+v", err)
				}
			}
		case <-ctx.Done():
			s.Logger.Info("RunPriceCheckInInterval: Stopping")
			return
		}
	}
}

// RunPriceCheck performs one full sweep over every wishlisted
// (productID, seller) pair: one search per pair, then alerts fan out to each
// user tracking it. Returns ErrCheckAlreadyRunning when a sweep is already
// in flight.
func (s Server) RunPriceCheck(ctx context.Context) error {
	if !s.CheckState.start() {
		return ErrCheckAlreadyRunning
	}
	defer s.CheckState.finish()
	return s.runPriceCheck(ctx)
}

// runPriceCheck is the sweep body. The caller must hold the run guard and
// clear it when done.
func (s Server) runPriceCheck(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("RunPriceCheck: Starting price check")
	s.Hub.BroadcastCheckStatus(ws.CheckStatus{
		Status:    ws.CheckStatusStarted,
		Message:   "Price check started",
		Timestamp: start,
	})

	users, err := s.DB.UsersFindWithWishlist(ctx)
	if err != nil {
		s.Hub.BroadcastCheckStatus(ws.CheckStatus{
			Status:    ws.CheckStatusError,
			Message:   "Price check failed",
			Timestamp: time.Now(),
		})
		return errors.Wrap(err, "error finding users with wishlist")
	}

	groups := aggregateWishlists(users)
	s.Logger.Infof("RunPriceCheck: Checking %d product/seller pairs for %d users", len(groups), len(users))

	var productsChecked, alertsSent int
	for _, g := range groups {
		select {
		case <-ctx.Done():
			s.Logger.Warn("RunPriceCheck: Context cancelled, stopping sweep")
			s.Hub.BroadcastCheckStatus(ws.CheckStatus{
				Status:    ws.CheckStatusError,
				Message:   "Price check cancelled",
				Timestamp: time.Now(),
			})
			return ctx.Err()
		case <-time.After(searchPacing):
		}

		results, err := s.Client.ShoppingSearch(ctx, g.title, s.DefaultLocation)
		if err != nil {
			s.Logger.Errorf("RunPriceCheck: Search failed for product ID: %s, title: %s, err: %v",
				g.productID, g.title, err)
			continue
		}
		productsChecked++

		r, ok := matchShopResult(g, results)
		if !ok {
			s.Logger.Debugf("RunPriceCheck: No matching result for product ID: %s, seller: %s", g.productID, g.seller)
			continue
		}

		if err = s.recordPriceHistoryEntry(ctx, r); err != nil {
			s.Logger.Errorf("RunPriceCheck: Error recording price history for product ID: %s, err: %+v", r.ProductID, err)
		}

		pct, ok := qualifyingDrop(g.oldPrice, r.ExtractedPrice)
		if !ok {
			continue
		}
		s.Logger.Infof("RunPriceCheck: Price drop for product ID: %s, seller: %s, %v -> %v (%.1f%%), %d users tracking",
			g.productID, g.seller, g.oldPrice, r.ExtractedPrice, pct, len(g.refs))

		for _, ref := range g.refs {
			alert := model.PriceAlert{
				UserID:         ref.userID,
				ProductID:      g.productID,
				ProductTitle:   g.title,
				Thumbnail:      g.thumbnail,
				Seller:         g.seller,
				OldPrice:       g.oldPrice,
				NewPrice:       r.ExtractedPrice,
				PercentageDrop: pct,
				Currency:       "INR",
				CreatedAt:      primitive.NewDateTimeFromTime(time.Now()),
			}
			alert, err = s.DB.PriceAlertInsert(ctx, alert)
			if err != nil {
				s.Logger.Errorf("RunPriceCheck: Error saving PriceAlert for UserID: %s, err: %+v", ref.userID.Hex(), err)
				continue
			}

			s.Hub.EmitPriceDrop(ref.userID.Hex(), ws.PriceDropAlert{
				AlertID:        alert.ID.Hex(),
				ProductID:      alert.ProductID,
				ProductTitle:   alert.ProductTitle,
				Thumbnail:      alert.Thumbnail,
				Seller:         alert.Seller,
				OldPrice:       alert.OldPrice,
				NewPrice:       alert.NewPrice,
				PercentageDrop: alert.PercentageDrop,
				Currency:       alert.Currency,
				Timestamp:      alert.CreatedAt.Time(),
			})

			if err = s.DB.UserWishlistItemPriceUpdate(ctx, ref.userID, ref.itemID, r.ExtractedPrice, g.oldPrice); err != nil {
				s.Logger.Errorf("RunPriceCheck: Error updating wishlist price for UserID: %s, ItemID: %s, err: %+v",
					ref.userID.Hex(), ref.itemID.Hex(), err)
			}
			alertsSent++
		}
	}

	s.Logger.Infof("RunPriceCheck: Completed in %s, products checked: %d, alerts sent: %d",
		time.Since(start).Round(time.Millisecond), productsChecked, alertsSent)
	s.Hub.BroadcastCheckStatus(ws.CheckStatus{
		Status:          ws.CheckStatusCompleted,
		Message:         fmt.Sprintf("Price check completed, checked %d products", productsChecked),
		ProductsChecked: productsChecked,
		AlertsSent:      alertsSent,
		Timestamp:       time.Now(),
	})
	return nil
}
