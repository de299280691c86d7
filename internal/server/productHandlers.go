package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"pricewatch/internal/client"
	"pricewatch/internal/misc"
	"pricewatch/internal/model"
)

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func validProductID(id string) bool {
	return id != "" && id != "undefined" && id != "null"
}

// parsePrice reads a display price like "₹1,299.00" as a float.
func parsePrice(p string) (float64, error) {
	var b strings.Builder
	for _, r := range p {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, errors.Errorf("no numeric price in: %s", p)
	}
	return strconv.ParseFloat(b.String(), 64)
}

func (s Server) productSearch() http.HandlerFunc {
	type response struct {
		Query    string             `json:"query"`
		Location string             `json:"location"`
		Cached   bool               `json:"cached"`
		Results  []model.ShopResult `json:"results"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		query := normalizeQuery(r.URL.Query().Get("query"))
		if query == "" {
			http.Error(w, "Missing query", http.StatusUnprocessableEntity)
			return
		}
		location := normalizeQuery(r.URL.Query().Get("location"))
		if location == "" {
			location = normalizeQuery(s.DefaultLocation)
		}

		if sc, err := s.DB.SearchCacheFind(r.Context(), query, location); err == nil {
			s.Logger.Debugf("productSearch: Cache hit for query: %s, location: %s, TraceID: %s", query, location, tid)
			s.recordPriceHistoryAsync(sc.Results)
			s.writeJsonResponse(w, response{Query: query, Location: location, Cached: true, Results: sc.Results}, http.StatusOK)
			return
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.Logger.Errorf("productSearch: Error finding SearchCache, err: %+v, TraceID: %s", err, tid)
		}

		results, err := s.Client.ShoppingSearch(r.Context(), query, location)
		if err != nil {
			if errors.Is(err, client.ErrSearchAPINoResults) {
				s.Logger.Debugf("productSearch: No results for query: %s, TraceID: %s", query, tid)
				http.Error(w, "No results found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("productSearch: Search failed for query: %s, err: %v, TraceID: %s", query, err, tid)
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		if _, err = s.DB.SearchCacheInsert(r.Context(), model.SearchCache{
			Query:    query,
			Location: location,
			Results:  results,
		}); err != nil {
			s.Logger.Errorf("productSearch: Error caching results, err: %+v, TraceID: %s", err, tid)
		}
		s.recordPriceHistoryAsync(results)

		s.writeJsonResponse(w, response{Query: query, Location: location, Cached: false, Results: results}, http.StatusOK)
	}
}

func (s Server) productCached() http.HandlerFunc {
	type response struct {
		Searches []model.SearchCache `json:"searches"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		scs, err := s.DB.SearchCachesFindRecent(r.Context(), 20)
		if err != nil {
			s.Logger.Errorf("productCached: Error finding recent SearchCaches, err: %+v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if scs == nil {
			scs = []model.SearchCache{}
		}
		s.writeJsonResponse(w, response{Searches: scs}, http.StatusOK)
	}
}

func (s Server) productSellers() http.HandlerFunc {
	type response struct {
		ProductID    string              `json:"product_id"`
		ProductTitle string              `json:"product_title"`
		Cached       bool                `json:"cached"`
		Sellers      []model.SellerOffer `json:"sellers"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		productID := mux.Vars(r)["productID"]
		params := r.URL.Query()

		// Single-seller listings have no usable product identifier. Answer
		// from the request's own fallback parameters instead of the provider.
		if !validProductID(productID) {
			seller := params.Get("seller")
			if seller == "" {
				http.Error(w, "Invalid product ID", http.StatusUnprocessableEntity)
				return
			}
			link := params.Get("link")
			if link == "" {
				link = generateSellerLink(seller, params.Get("title"))
			}
			var price float64
			if p, err := parsePrice(params.Get("price")); err == nil {
				price = p
			}
			s.writeJsonResponse(w, response{
				ProductID:    productID,
				ProductTitle: params.Get("title"),
				Sellers: []model.SellerOffer{{
					Name:     seller,
					Price:    price,
					Link:     link,
					Delivery: params.Get("delivery"),
				}},
			}, http.StatusOK)
			return
		}

		if sc, err := s.DB.SellerCacheFind(r.Context(), productID); err == nil {
			s.Logger.Debugf("productSellers: Cache hit for product ID: %s, TraceID: %s", productID, tid)
			s.writeJsonResponse(w, response{
				ProductID:    productID,
				ProductTitle: sc.ProductTitle,
				Cached:       true,
				Sellers:      sc.Sellers,
			}, http.StatusOK)
			return
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.Logger.Errorf("productSellers: Error finding SellerCache, err: %+v, TraceID: %s", err, tid)
		}

		title, offers, err := s.Client.ProductOffers(r.Context(), productID)
		if err != nil {
			s.Logger.Errorf("productSellers: Error getting offers for product ID: %s, err: %v, TraceID: %s",
				productID, err, tid)
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		if err = s.DB.SellerCacheUpsert(r.Context(), model.SellerCache{
			ProductID:    productID,
			ProductTitle: title,
			Sellers:      offers,
		}); err != nil {
			s.Logger.Errorf("productSellers: Error caching sellers, err: %+v, TraceID: %s", err, tid)
		}

		s.writeJsonResponse(w, response{
			ProductID:    productID,
			ProductTitle: title,
			Sellers:      offers,
		}, http.StatusOK)
	}
}

type historyPoint struct {
	Price      float64 `json:"price"`
	Day        string  `json:"day"`
	RecordedAt string  `json:"recorded_at"`
}

type sellerHistory struct {
	Seller     string         `json:"seller"`
	Currency   string         `json:"currency"`
	Latest     float64        `json:"latest"`
	Lowest     float64        `json:"lowest"`
	Highest    float64        `json:"highest"`
	DataPoints []historyPoint `json:"data_points"`
}

// groupPriceHistories folds the flat oldest-first ledger entries into one
// price curve per seller, in first-seen order. The last data point of each
// curve is the latest price.
func groupPriceHistories(phs []model.PriceHistory) []sellerHistory {
	var order []string
	byCurve := map[string]*sellerHistory{}
	for _, ph := range phs {
		name := ph.SellerName
		if name == "" {
			name = "Unknown Seller"
		}
		sh, ok := byCurve[name]
		if !ok {
			sh = &sellerHistory{Seller: name, Currency: ph.Currency, Lowest: ph.Price, Highest: ph.Price}
			byCurve[name] = sh
			order = append(order, name)
		}
		sh.Latest = ph.Price
		sh.Lowest = misc.Min(sh.Lowest, ph.Price)
		sh.Highest = misc.Max(sh.Highest, ph.Price)
		sh.DataPoints = append(sh.DataPoints, historyPoint{
			Price:      ph.Price,
			Day:        ph.Day,
			RecordedAt: ph.RecordedAt.Time().Format(time.RFC3339),
		})
	}
	curves := make([]sellerHistory, 0, len(order))
	for _, name := range order {
		curves = append(curves, *byCurve[name])
	}
	return curves
}

func (s Server) productHistory() http.HandlerFunc {
	type response struct {
		ProductID string          `json:"product_id"`
		Title     string          `json:"title"`
		Thumbnail string          `json:"thumbnail"`
		Sellers   []sellerHistory `json:"sellers"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		productID := mux.Vars(r)["productID"]
		if !validProductID(productID) {
			http.Error(w, "Invalid product ID", http.StatusUnprocessableEntity)
			return
		}

		product, err := s.DB.ProductFindByProductID(r.Context(), productID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				http.Error(w, "Product not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("productHistory: Error finding Product, product ID: %s, err: %+v, TraceID: %s",
				productID, err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var sellerID *primitive.ObjectID
		if sid := r.URL.Query().Get("seller_id"); sid != "" {
			oid, err := primitive.ObjectIDFromHex(sid)
			if err != nil {
				http.Error(w, "Invalid seller ID", http.StatusUnprocessableEntity)
				return
			}
			sellerID = &oid
		}

		phs, err := s.DB.PriceHistoryFindByProduct(r.Context(), product.ID, sellerID)
		if err != nil {
			s.Logger.Errorf("productHistory: Error finding PriceHistory, product ID: %s, err: %+v, TraceID: %s",
				productID, err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.writeJsonResponse(w, response{
			ProductID: product.ProductID,
			Title:     product.Title,
			Thumbnail: product.Thumbnail,
			Sellers:   groupPriceHistories(phs),
		}, http.StatusOK)
	}
}
