package upstream

import (
	"context"
	"net/url"
	"strconv"

	"kolboard/internal/models"
)

type profilesResponse struct {
	Profiles []models.KOLProfile `json:"profiles"`
	Total    int                 `json:"total"`
}

type tweetsResponse struct {
	Tweets []models.Tweet `json:"tweets"`
}

// ListProfiles returns the KOL directory, optionally filtered by category.
func (c *Client) ListProfiles(ctx context.Context, category string) ([]models.KOLProfile, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	var out profilesResponse
	if err := c.getJSON(ctx, "kol_profiles", "/api/v1/kol-tweets/profiles", q, &out); err != nil {
		return nil, err
	}
	if out.Profiles == nil {
		out.Profiles = []models.KOLProfile{}
	}
	return out.Profiles, nil
}

// GetProfile returns one KOL profile.
func (c *Client) GetProfile(ctx context.Context, platform, kolID string) (*models.KOLProfile, error) {
	var out models.KOLProfile
	path := "/api/v1/kol-tweets/profiles/" + url.PathEscape(platform) + "/" + url.PathEscape(kolID)
	if err := c.getJSON(ctx, "kol_profile", path, nil, &out); err != nil {
		return nil, err
	}
	if out.Platform == "" {
		out.Platform = platform
	}
	if out.KOLID == "" {
		out.KOLID = kolID
	}
	return &out, nil
}

// ListTweets returns a KOL's most recent tweets, newest first.
func (c *Client) ListTweets(ctx context.Context, platform, kolID string, limit int) ([]models.Tweet, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out tweetsResponse
	path := "/api/v1/kol-tweets/" + url.PathEscape(platform) + "/" + url.PathEscape(kolID) + "/tweets"
	if err := c.getJSON(ctx, "kol_tweets", path, q, &out); err != nil {
		return nil, err
	}
	if out.Tweets == nil {
		out.Tweets = []models.Tweet{}
	}
	return out.Tweets, nil
}
