package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pricewatch/internal/model"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "mechanical keyboard", normalizeQuery("  Mechanical Keyboard "))
	assert.Equal(t, "india", normalizeQuery("India"))
	assert.Equal(t, "", normalizeQuery("   "))
}

func TestValidProductID(t *testing.T) {
	assert.True(t, validProductID("4900741825919677903"))
	assert.False(t, validProductID(""))
	assert.False(t, validProductID("undefined"))
	assert.False(t, validProductID("null"))
}

func TestGroupPriceHistories(t *testing.T) {
	phs := []model.PriceHistory{
		{SellerName: "Amazon.in", Currency: "INR", Price: 1299, Day: "2024-03-01"},
		{SellerName: "Flipkart", Currency: "INR", Price: 1350, Day: "2024-03-01"},
		{SellerName: "Amazon.in", Currency: "INR", Price: 1199, Day: "2024-03-02"},
		{SellerName: "Amazon.in", Currency: "INR", Price: 1249, Day: "2024-03-03"},
		{SellerName: "", Currency: "INR", Price: 999, Day: "2024-03-03"},
	}

	curves := groupPriceHistories(phs)
	require.Len(t, curves, 3)

	amazon := curves[0]
	assert.Equal(t, "Amazon.in", amazon.Seller)
	assert.Equal(t, 1249.0, amazon.Latest, "latest price is the newest entry")
	assert.Equal(t, 1199.0, amazon.Lowest)
	assert.Equal(t, 1299.0, amazon.Highest)
	require.Len(t, amazon.DataPoints, 3)
	assert.Equal(t, "2024-03-01", amazon.DataPoints[0].Day)

	assert.Equal(t, "Flipkart", curves[1].Seller)
	assert.Equal(t, "Unknown Seller", curves[2].Seller, "nameless sellers get a placeholder curve")
}

func TestParsePrice(t *testing.T) {
	p, err := parsePrice("₹1,299.00")
	require.NoError(t, err)
	assert.Equal(t, 1299.0, p)

	p, err = parsePrice("1299")
	require.NoError(t, err)
	assert.Equal(t, 1299.0, p)

	_, err = parsePrice("free")
	assert.Error(t, err)
}
