package ws

import "time"

const (
	EventJoined           = "joined"
	EventError            = "error"
	EventPriceDrop        = "price-drop"
	EventPriceCheckStatus = "price-check-status"
)

const (
	CheckStatusStarted   = "started"
	CheckStatusCompleted = "completed"
	CheckStatusError     = "error"
)

// Envelope wraps every event sent to a client.
type Envelope struct {
	Event     string `json:"event"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// PriceDropAlert is the user-scoped payload for EventPriceDrop.
type PriceDropAlert struct {
	AlertID        string    `json:"alert_id"`
	ProductID      string    `json:"product_id"`
	ProductTitle   string    `json:"product_title"`
	Thumbnail      string    `json:"thumbnail"`
	Seller         string    `json:"seller"`
	OldPrice       float64   `json:"old_price"`
	NewPrice       float64   `json:"new_price"`
	PercentageDrop float64   `json:"percentage_drop"`
	Currency       string    `json:"currency"`
	Timestamp      time.Time `json:"timestamp"`
}

// CheckStatus is the broadcast payload for EventPriceCheckStatus. Counts are
// only present on completion.
type CheckStatus struct {
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	ProductsChecked int       `json:"products_checked,omitempty"`
	AlertsSent      int       `json:"alerts_sent,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

type joinedData struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type errorData struct {
	Message string `json:"message"`
}
