package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
}

func TestListProfiles_ForwardsAuthorizationAndCategory(t *testing.T) {
	var gotAuth, gotCategory, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCategory = r.URL.Query().Get("category")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"profiles":[{"kol_id":"42","platform":"twitter","username":"alpha","followers_count":1200}],"total":1}`))
	})

	ctx := WithAuthorization(context.Background(), "Bearer tok")
	profiles, err := c.ListProfiles(ctx, "crypto")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "crypto", gotCategory)
	assert.Equal(t, "/api/v1/kol-tweets/profiles", gotPath)
	require.Len(t, profiles, 1)
	assert.Equal(t, "alpha", profiles[0].Username)
	assert.EqualValues(t, 1200, profiles[0].FollowersCount)
}

func TestListProfiles_NoAuthorizationWhenAnonymous(t *testing.T) {
	var hadAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`{}`))
	})

	profiles, err := c.ListProfiles(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, hadAuth)
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/kol-tweets/profiles/twitter/missing" {
			http.Error(w, "no such kol", http.StatusNotFound)
			return
		}
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.GetProfile(context.Background(), "twitter", "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = c.TrendingStocks(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "stocks_trending", se.Endpoint)
	assert.Contains(t, se.Error(), "boom")
	assert.False(t, IsNotFound(err))
}

func TestChangeAndQuote_Reshape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/stocks/AAPL/change":
			assert.Equal(t, "7", r.URL.Query().Get("days"))
			_, _ = w.Write([]byte(`{"change_percent":-2.5}`))
		case "/api/v1/stocks/AAPL/quote":
			_, _ = w.Write([]byte(`{"price":190.12,"change_percent":1.1}`))
		default:
			http.NotFound(w, r)
		}
	})

	change, err := c.Change(context.Background(), "aapl", 7)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", change.Symbol)
	assert.Equal(t, 7, change.Days)
	assert.Equal(t, -2.5, change.ChangePercent)

	quote, err := c.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 190.12, quote.Price)
}

func TestTrendingStocks_NormalizesRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stocks":[{"symbol":"tsla","mention_count":3,"price":null}]}`))
	})

	stocks, err := c.TrendingStocks(context.Background())
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "TSLA", stocks[0].Symbol)
	assert.Nil(t, stocks[0].Price)
	assert.NotNil(t, stocks[0].TopKOLs)
}

func TestSnapTrade_RegisterAndPositions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/snaptrade/users":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"user_id":"snap-` + body["user_id"] + `"}`))
		case r.URL.Path == "/api/v1/snaptrade/users/snap-u1/accounts/acc-1/positions":
			_, _ = w.Write([]byte(`{"positions":[
				{"symbol":"AAPL","units":"10","price":"190.5","average_purchase_price":150},
				{"symbol":"AAPL 250117C00200000","units":2,"price":3.2,"average_purchase_price":2.5,"option_type":"CALL","strike_price":200,"underlying_symbol":"AAPL"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	user, err := c.RegisterSnapTradeUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "snap-u1", user.UserID)

	positions, err := c.SnapTradePositions(context.Background(), user.UserID, "acc-1")
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.False(t, positions[0].IsOption())
	assert.Equal(t, "190.5", positions[0].Price.String())
	assert.True(t, positions[1].IsOption())
	require.NotNil(t, positions[1].Strike)
	assert.Equal(t, "200", positions[1].Strike.String())
}

func TestContextCancelStopsCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListTweets(ctx, "twitter", "1", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMissingBaseURL(t *testing.T) {
	c := New(Config{})
	_, err := c.Quote(context.Background(), "AAPL")
	require.Error(t, err)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "  ok  ", 10, "ok"},
		{"ascii", "abcdef", 3, "abc"},
		{"inside a two byte rune", "aé", 2, "a"},
		{"after a two byte rune", "aéb", 3, "aé"},
		{"inside a four byte rune", "x🚀y", 3, "x"},
		{"only multibyte", "日本語", 4, "日"},
		{"nothing fits", "日本", 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
