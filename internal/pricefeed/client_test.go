package pricefeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictionScope/internal/model"
)

func priceServer(t *testing.T, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenPriceMatchesKeyCaseInsensitively(t *testing.T) {
	srv := priceServer(t, `{"data":{"attributes":{"token_prices":{"0xabc":"1.2345678"}}}}`, func(r *http.Request) {
		assert.Equal(t, "/simple/networks/sui-network/token_price/0xABC", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-cg-demo-api-key"))
	})

	price, err := NewClient("key", WithBaseURL(srv.URL)).TokenPrice(context.Background(), "sui-network", "0xABC")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.2345678").Equal(price))
	assert.Equal(t, int64(1_234_567), ToE6(price))
}

func TestTokenPriceAcceptsNumber(t *testing.T) {
	srv := priceServer(t, `{"data":{"attributes":{"token_prices":{"t":3.5}}}}`, nil)

	price, err := NewClient("key", WithBaseURL(srv.URL)).TokenPrice(context.Background(), "n", "t")
	require.NoError(t, err)
	assert.Equal(t, "3.5", price.String())
}

func TestTokenPriceRejectsNonPositive(t *testing.T) {
	srv := priceServer(t, `{"data":{"attributes":{"token_prices":{"t":"0"}}}}`, nil)

	_, err := NewClient("key", WithBaseURL(srv.URL)).TokenPrice(context.Background(), "n", "t")
	assert.Error(t, err)
}

func TestTokenPriceHTTPErrorIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("key", WithBaseURL(srv.URL)).TokenPrice(context.Background(), "n", "t")
	assert.True(t, errors.Is(err, model.ErrFetchFailure))
}

func TestTokenPriceRequiresConfiguration(t *testing.T) {
	_, err := NewClient("").TokenPrice(context.Background(), "n", "t")
	assert.True(t, errors.Is(err, model.ErrConfigurationMissing))

	_, err = NewClient("key").TokenPrice(context.Background(), "", "t")
	assert.True(t, errors.Is(err, model.ErrConfigurationMissing))
}

func TestProHostUsesProHeader(t *testing.T) {
	c := NewClient("key", WithBaseURL("https://pro-api.coingecko.com/api/v3/onchain"))
	assert.Equal(t, "x-cg-pro-api-key", c.keyHeader())
	assert.Equal(t, "x-cg-demo-api-key", NewClient("key").keyHeader())
}

func TestOutcomeSide(t *testing.T) {
	price := decimal.RequireFromString("2.5")
	cases := []struct {
		name       string
		target     int64
		comparator uint8
		want       uint8
	}{
		{"above reached", 2_500_000, ComparatorAbove, model.SideYes},
		{"above missed", 2_500_001, ComparatorAbove, model.SideNo},
		{"below reached", 2_500_000, ComparatorBelow, model.SideYes},
		{"below missed", 2_499_999, ComparatorBelow, model.SideNo},
		{"unknown comparator", 1, 9, model.SideNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, OutcomeSide(price, tc.target, tc.comparator))
		})
	}
}
