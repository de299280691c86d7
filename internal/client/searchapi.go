package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-redis/redis/v9"
	"pricewatch/internal/misc"
	"pricewatch/internal/model"
)

var ErrSearchAPI = errors.New("SearchAPI error")
var ErrSearchAPINoResults = errors.New("SearchAPI returned no results")

// Raw provider responses are memoized in Redis for a short window so
// repeated identical lookups inside one sweep or cache-retention window do
// not re-hit the provider. The durable 12h/6h caches live in the document
// store.
const responseCacheTTL = 15 * time.Minute

type shoppingSearchResponse struct {
	SearchMetadata struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"search_metadata"`
	ShoppingResults []shoppingResult `json:"shopping_results"`
}

type shoppingResult struct {
	Position       int     `json:"position"`
	ProductID      string  `json:"product_id"`
	Title          string  `json:"title"`
	Link           string  `json:"link"`
	ProductLink    string  `json:"product_link"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Rating         float64 `json:"rating"`
	Reviews        int     `json:"reviews"`
	Delivery       string  `json:"delivery"`
	Seller         string  `json:"seller"`
	Thumbnail      string  `json:"thumbnail"`
}

type productOffersResponse struct {
	ProductResults struct {
		Title string `json:"title"`
	} `json:"product_results"`
	Offers []productOffer `json:"offers"`
}

type productOffer struct {
	Link           string  `json:"link"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Delivery       string  `json:"delivery"`
	Merchant       struct {
		Name    string  `json:"name"`
		Rating  float64 `json:"rating"`
		Reviews int     `json:"reviews"`
	} `json:"merchant"`
}

// ShoppingSearch queries the google_shopping engine for free-text query and
// returns results in the internal shape.
func (c Client) ShoppingSearch(ctx context.Context, query string, location string) ([]model.ShopResult, error) {
	var rs []model.ShopResult
	cacheKey := "SAS-" + query + "|" + location
	cached, err := c.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		c.Logger.Debugf("ShoppingSearch: Cache found, key: %s", cacheKey)
		if err = json.Unmarshal([]byte(cached), &rs); err == nil {
			return rs, nil
		}
		c.Logger.Errorf("ShoppingSearch: Error unmarshalling cache, key: %s, err: %v", cacheKey, err)
	} else if err != redis.Nil {
		c.Logger.Errorf("ShoppingSearch: Error getting Redis cache with key: %s, err: %v", cacheKey, err)
	}

	req, err := newRequest(http.MethodGet, c.APIBaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to URL: %s, err: %v", c.APIBaseURL, err)
	}
	req = req.WithContext(ctx)
	req.URL.RawQuery = url.Values{
		"api_key":  []string{c.APIKey},
		"engine":   []string{"google_shopping"},
		"gl":       []string{"in"},
		"hl":       []string{"en"},
		"location": []string{location},
		"q":        []string{query},
	}.Encode()

	c.Logger.Infof("ShoppingSearch: Sending request for query: %s, location: %s", query, location)
	searchResp := shoppingSearchResponse{}
	if err = c.doAndDecode(req, &searchResp); err != nil {
		return nil, err
	}
	if len(searchResp.ShoppingResults) == 0 {
		return nil, fmt.Errorf("%w: query: %s, location: %s", ErrSearchAPINoResults, query, location)
	}

	rs = make([]model.ShopResult, 0, len(searchResp.ShoppingResults))
	for _, sr := range searchResp.ShoppingResults {
		rs = append(rs, model.ShopResult(sr))
	}

	if rsJSON, err := json.Marshal(rs); err != nil {
		c.Logger.Errorf("ShoppingSearch: Error marshalling results to cache, key: %s, err: %v", cacheKey, err)
	} else if err = c.Redis.Set(ctx, cacheKey, rsJSON, responseCacheTTL).Err(); err != nil {
		c.Logger.Errorf("ShoppingSearch: Error caching results, key: %s, err: %v", cacheKey, err)
	}

	return rs, nil
}

// ProductOffers queries the google_product engine for the seller offers of
// one product.
func (c Client) ProductOffers(ctx context.Context, productID string) (string, []model.SellerOffer, error) {
	type memoized struct {
		Title  string              `json:"title"`
		Offers []model.SellerOffer `json:"offers"`
	}
	cacheKey := "SAP-" + productID
	cached, err := c.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		c.Logger.Debugf("ProductOffers: Cache found, key: %s", cacheKey)
		var m memoized
		if err = json.Unmarshal([]byte(cached), &m); err == nil {
			return m.Title, m.Offers, nil
		}
		c.Logger.Errorf("ProductOffers: Error unmarshalling cache, key: %s, err: %v", cacheKey, err)
	} else if err != redis.Nil {
		c.Logger.Errorf("ProductOffers: Error getting Redis cache with key: %s, err: %v", cacheKey, err)
	}

	req, err := newRequest(http.MethodGet, c.APIBaseURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request to URL: %s, err: %v", c.APIBaseURL, err)
	}
	req = req.WithContext(ctx)
	req.URL.RawQuery = url.Values{
		"api_key":    []string{c.APIKey},
		"engine":     []string{"google_product"},
		"product_id": []string{productID},
		"gl":         []string{"in"},
		"hl":         []string{"en"},
	}.Encode()

	c.Logger.Infof("ProductOffers: Sending request for product ID: %s", productID)
	offersResp := productOffersResponse{}
	if err = c.doAndDecode(req, &offersResp); err != nil {
		return "", nil, err
	}

	offers := make([]model.SellerOffer, 0, len(offersResp.Offers))
	for _, o := range offersResp.Offers {
		name := o.Merchant.Name
		if name == "" {
			name = "Unknown Seller"
		}
		offers = append(offers, model.SellerOffer{
			Name:     name,
			Price:    o.ExtractedPrice,
			Link:     o.Link,
			Delivery: o.Delivery,
			Rating:   o.Merchant.Rating,
			Reviews:  o.Merchant.Reviews,
		})
	}

	if mJSON, err := json.Marshal(memoized{Title: offersResp.ProductResults.Title, Offers: offers}); err != nil {
		c.Logger.Errorf("ProductOffers: Error marshalling offers to cache, key: %s, err: %v", cacheKey, err)
	} else if err = c.Redis.Set(ctx, cacheKey, mJSON, responseCacheTTL).Err(); err != nil {
		c.Logger.Errorf("ProductOffers: Error caching offers, key: %s, err: %v", cacheKey, err)
	}

	return offersResp.ProductResults.Title, offers, nil
}

func (c Client) doAndDecode(req *http.Request, out any) error {
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: error doing request:\n%#v,\nerr: %v", ErrSearchAPI, req, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 1000*1024))
	if err != nil {
		return fmt.Errorf("error reading SearchAPI response body, status: %s, body:\n%s,\nerr: %v",
			resp.Status, misc.BytesLimit(body, 2000), err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status: %s, body:\n%s",
			ErrSearchAPI, resp.Status, misc.BytesLimit(body, 2000))
	}
	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error unmarshalling SearchAPI response body, status: %s, body:\n%s,\nerr: %v",
			resp.Status, misc.BytesLimit(body, 2000), err)
	}
	return nil
}
