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

func TestListKOLs_UpstreamFailureReturnsEmptyDefault(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.HandleFunc("/api/v1/kol-tweets/profiles", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/kols", nil), "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []any{}, body["profiles"])
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, models.CodeUpstream, body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestListKOLs_SortsAndMarksTracked(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.HandleFunc("/api/v1/kol-tweets/profiles", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 3,
			"profiles": []map[string]any{
				{"kol_id": "a", "platform": "twitter", "username": "alpha", "followers_count": 10},
				{"kol_id": "b", "platform": "twitter", "username": "bravo", "followers_count": 3000},
				{"kol_id": "c", "platform": "twitter", "username": "charlie", "followers_count": 200},
			},
		})
	})
	viewer := env.createUser(t, "viewer")
	require.NoError(t, env.db.Create(&models.KOLSubscription{
		UserID: viewer.ID, Platform: "twitter", KOLID: "c", KOLUsername: "charlie",
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/kols?sort_by=followers&sort_direction=desc&limit=2", nil)
	resp := env.do(t, req, token(t, viewer.ID, viewer.Username))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Profiles []models.KOLProfile `json:"profiles"`
		Total    int                 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Profiles, 2)
	assert.Equal(t, "bravo", body.Profiles[0].Username)
	assert.Equal(t, "charlie", body.Profiles[1].Username)
	assert.True(t, body.Profiles[1].IsTracked)
	assert.False(t, body.Profiles[0].IsTracked)
	for _, p := range body.Profiles {
		assert.GreaterOrEqual(t, p.TrendingScore, 0.0)
		assert.Less(t, p.TrendingScore, 100.0)
		assert.LessOrEqual(t, p.InfluenceScore, 100.0)
	}
}

func TestListKOLs_UnknownSortColumnIsRejected(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/kols?sort_by=password", nil), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []any{}, body["profiles"])
	assert.Equal(t, models.CodeValidation, body["code"])
}

func TestGetKOLAnalysis_ToleratesMissingPrices(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.HandleFunc("/api/v1/kol-tweets/twitter/elonmusk/tweets", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"tweets": []map[string]any{
			{"id": "1", "text": "$TSLA up", "tickers": []string{"TSLA"}, "sentiment": map[string]any{"value": "bullish", "confidence": 0.8}},
			{"id": "2", "text": "$NVDA down", "tickers": []string{"NVDA"}, "sentiment": map[string]any{"value": "bearish", "confidence": 0.6}},
		}})
	})
	env.upstream.HandleFunc("/api/v1/stocks/TSLA/change", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"symbol": "TSLA", "change_percent": 4.2})
	})
	env.upstream.HandleFunc("/api/v1/stocks/NVDA/change", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no data", http.StatusBadGateway)
	})

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/kol/analysis?platform=twitter&kolId=elonmusk", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Summary struct {
			TotalPredictions int      `json:"total_predictions"`
			Resolved         int      `json:"resolved"`
			Correct          int      `json:"correct"`
			WinRate          *float64 `json:"win_rate"`
		} `json:"summary"`
		Performance []struct {
			Ticker  string `json:"ticker"`
			IsMatch *bool  `json:"is_match"`
		} `json:"performance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Summary.TotalPredictions)
	assert.Equal(t, 1, body.Summary.Resolved)
	assert.Equal(t, 1, body.Summary.Correct)
	require.NotNil(t, body.Summary.WinRate)
	assert.InDelta(t, 1.0, *body.Summary.WinRate, 1e-9)

	byTicker := map[string]*bool{}
	for _, p := range body.Performance {
		byTicker[p.Ticker] = p.IsMatch
	}
	require.NotNil(t, byTicker["TSLA"])
	assert.True(t, *byTicker["TSLA"])
	assert.Nil(t, byTicker["NVDA"])
}

func TestGetKOL_InvalidReference(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/kol?platform=twitter&kolId=", nil), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
