package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kolboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendingFixture(w http.ResponseWriter, _ *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{"stocks": []map[string]any{
		{"symbol": "tsla", "company_name": "Tesla", "price": 250.5, "mention_count": 40},
		{"symbol": "AAPL", "company_name": "Apple", "price": 190.1, "mention_count": 25},
		{"symbol": "NVDA", "company_name": "NVIDIA", "price": nil, "mention_count": 60},
	}})
}

type trendingBody struct {
	Stocks []models.TrendingStock `json:"stocks"`
	Total  int                    `json:"total"`
}

func symbols(stocks []models.TrendingStock) []string {
	out := make([]string, len(stocks))
	for i, s := range stocks {
		out[i] = s.Symbol
	}
	return out
}

func TestGetTrendingStocks_SortDirections(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.HandleFunc("/api/v1/stocks/trending", trendingFixture)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"TSLA", "AAPL", "NVDA"}},
		{"?sort_by=price&sort_direction=asc", []string{"AAPL", "TSLA", "NVDA"}},
		{"?sort_by=price&sort_direction=desc", []string{"TSLA", "AAPL", "NVDA"}},
		{"?sort_by=mention_count&sort_direction=desc", []string{"NVDA", "TSLA", "AAPL"}},
		{"?sort_by=price", []string{"TSLA", "AAPL", "NVDA"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/trending-stocks"+tt.query, nil), "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var body trendingBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, symbols(body.Stocks))
			assert.Equal(t, 3, body.Total)
		})
	}
}

func TestGetTrendingStocks_QueryAndPaging(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.HandleFunc("/api/v1/stocks/trending", trendingFixture)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/trending-stocks?query=a", nil), "")
	var body trendingBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.ElementsMatch(t, []string{"TSLA", "AAPL", "NVDA"}, symbols(body.Stocks))

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/trending-stocks?query=apple", nil), "")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"AAPL"}, symbols(body.Stocks))
	assert.Equal(t, 1, body.Total)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/trending-stocks?page=2&page_size=2", nil), "")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"NVDA"}, symbols(body.Stocks))
	assert.Equal(t, 3, body.Total)
}

func TestGetTrendingStocks_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.HandleFunc("/api/v1/stocks/trending", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/trending-stocks", nil), "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []any{}, body["stocks"])
	assert.Equal(t, float64(0), body["total"])
}

func TestGetStockQuote_InvalidSymbol(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/stocks/not-a-ticker!/quote", nil), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
