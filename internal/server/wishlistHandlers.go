package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricewatch/internal/database"
	"pricewatch/internal/model"
)

func (s Server) wishlistGet() http.HandlerFunc {
	type response struct {
		Wishlist []model.WishlistItem `json:"wishlist"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("wishlistGet: Error getting UserContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		wl := uc.user.Wishlist
		if wl == nil {
			wl = []model.WishlistItem{}
		}
		s.writeJsonResponse(w, response{Wishlist: wl}, http.StatusOK)
	}
}

func (s Server) wishlistAdd() http.HandlerFunc {
	type request struct {
		ProductID      string  `json:"product_id"`
		Title          string  `json:"title"`
		Price          string  `json:"price"`
		ExtractedPrice float64 `json:"extracted_price"`
		Thumbnail      string  `json:"thumbnail"`
		Seller         string  `json:"seller"`
		Link           string  `json:"link"`
		ProductLink    string  `json:"product_link"`
		Rating         float64 `json:"rating"`
		Reviews        int     `json:"reviews"`
		Delivery       string  `json:"delivery"`
	}
	type response struct {
		ItemID string `json:"item_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("wishlistAdd: Error getting UserContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var req request
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("wishlistAdd: Error decoding request body, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			http.Error(w, "Missing title", http.StatusUnprocessableEntity)
			return
		}
		for _, wi := range uc.user.Wishlist {
			if wi.Title == req.Title && wi.Seller == req.Seller {
				http.Error(w, "Item already in wishlist", http.StatusUnprocessableEntity)
				return
			}
		}

		wi := model.WishlistItem{
			ItemID:         primitive.NewObjectID(),
			ProductID:      req.ProductID,
			Title:          req.Title,
			Price:          req.Price,
			ExtractedPrice: req.ExtractedPrice,
			Thumbnail:      req.Thumbnail,
			Seller:         req.Seller,
			Link:           req.Link,
			ProductLink:    req.ProductLink,
			Rating:         req.Rating,
			Reviews:        req.Reviews,
			Delivery:       req.Delivery,
			AddedAt:        primitive.NewDateTimeFromTime(time.Now()),
		}
		if err = s.DB.UserWishlistItemAdd(r.Context(), uc.user.ID.Hex(), wi); err != nil {
			s.Logger.Errorf("wishlistAdd: Error adding WishlistItem, UserID: %s, err: %+v, TraceID: %s",
				uc.user.ID.Hex(), err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.Logger.Infof("wishlistAdd: Added WishlistItem %s for UserID: %s, TraceID: %s",
			wi.ItemID.Hex(), uc.user.ID.Hex(), tid)
		s.writeJsonResponse(w, response{ItemID: wi.ItemID.Hex()}, http.StatusCreated)
	}
}

func (s Server) wishlistRemove() http.HandlerFunc {
	type request struct {
		ItemID string `json:"item_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("wishlistRemove: Error getting UserContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var req request
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("wishlistRemove: Error decoding request body, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		itemID, err := primitive.ObjectIDFromHex(req.ItemID)
		if err != nil {
			http.Error(w, "Invalid item ID", http.StatusUnprocessableEntity)
			return
		}

		if err = s.DB.UserWishlistItemRemove(r.Context(), uc.user.ID.Hex(), itemID); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				http.Error(w, "Item not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("wishlistRemove: Error removing WishlistItem, UserID: %s, err: %+v, TraceID: %s",
				uc.user.ID.Hex(), err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// wishlistCheck answers whether a product/seller pair is already tracked,
// for toggling the save button in search results.
func (s Server) wishlistCheck() http.HandlerFunc {
	type request struct {
		Title  string `json:"title"`
		Seller string `json:"seller"`
	}
	type response struct {
		InWishlist bool   `json:"in_wishlist"`
		ItemID     string `json:"item_id,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("wishlistCheck: Error getting UserContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var req request
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("wishlistCheck: Error decoding request body, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		for _, wi := range uc.user.Wishlist {
			if wi.Title == req.Title && wi.Seller == req.Seller {
				s.writeJsonResponse(w, response{InWishlist: true, ItemID: wi.ItemID.Hex()}, http.StatusOK)
				return
			}
		}
		s.writeJsonResponse(w, response{InWishlist: false}, http.StatusOK)
	}
}
