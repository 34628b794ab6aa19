package dashclient

import (
	"context"
	"net/url"
	"strconv"

	"kolboard/internal/analysis"
	"kolboard/internal/models"
)

// KOLQuery filters the KOL directory. Zero values are left to server defaults.
type KOLQuery struct {
	Platform      string
	Category      string
	SortBy        string
	SortDirection string
	Limit         int
	Offset        int
}

func (q KOLQuery) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("platform", q.Platform)
	set("category", q.Category)
	set("sort_by", q.SortBy)
	set("sort_direction", q.SortDirection)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

type KOLPage struct {
	Profiles []models.KOLProfile `json:"profiles"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}

func (c *Client) KOLs(ctx context.Context, q KOLQuery) (*KOLPage, error) {
	var page KOLPage
	if err := c.get(ctx, "/kols", q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func kolQuery(platform, kolID string, tweetLimit int) url.Values {
	v := url.Values{"kolId": {kolID}}
	if platform != "" {
		v.Set("platform", platform)
	}
	if tweetLimit > 0 {
		v.Set("tweet_limit", strconv.Itoa(tweetLimit))
	}
	return v
}

func (c *Client) KOL(ctx context.Context, platform, kolID string, tweetLimit int) (*models.KOLDetail, error) {
	var detail models.KOLDetail
	if err := c.get(ctx, "/kol", kolQuery(platform, kolID, tweetLimit), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) KOLAnalysis(ctx context.Context, platform, kolID string, tweetLimit int) (*analysis.Report, error) {
	var report analysis.Report
	if err := c.get(ctx, "/kol/analysis", kolQuery(platform, kolID, tweetLimit), &report); err != nil {
		return nil, err
	}
	return &report, nil
}
