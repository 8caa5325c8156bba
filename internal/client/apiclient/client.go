// Package apiclient is the reviewctl client for the clubreviews HTTP API.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultTimeout        = 15 * time.Second
	DefaultStatsRetries   = 3
	DefaultStatsRetryWait = time.Second
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	StatsRetries   int
	StatsRetryWait time.Duration
	Logger         *zap.Logger
}

// Client talks to one server.
type Client struct {
	rc    *resty.Client
	stats *resty.Client
	log   *zap.Logger
}

// New builds a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.StatsRetries < 0 {
		opts.StatsRetries = 0
	} else if opts.StatsRetries == 0 {
		opts.StatsRetries = DefaultStatsRetries
	}
	if opts.StatsRetryWait <= 0 {
		opts.StatsRetryWait = DefaultStatsRetryWait
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	base := func() *resty.Client {
		return resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("Accept", "application/json").
			SetError(&errorBody{})
	}

	// The batched stats call is the only one retried: a listing without
	// ratings is acceptable, a listing that never loads is not.
	stats := base().
		SetRetryCount(opts.StatsRetries).
		SetRetryWaitTime(opts.StatsRetryWait).
		SetRetryMaxWaitTime(opts.StatsRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r == nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			status := 0
			if r != nil {
				status = r.StatusCode()
			}
			log.Debug("retrying get_review_stats", zap.Int("status", status), zap.Error(err))
		})

	return &Client{rc: base(), stats: stats, log: log}
}

func (c *Client) do(ctx context.Context, rc *resty.Client, method, path string, body, out any) error {
	req := rc.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		if eb, ok := resp.Error().(*errorBody); ok && eb != nil {
			apiErr.Message = eb.Error
			apiErr.Fields = eb.Fields
		}
		c.log.Debug("api error", zap.String("method", method), zap.String("path", path),
			zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
		return apiErr
	}
	return nil
}

// Listed is one organization in a listing.
type Listed struct {
	Organization models.Organization       `json:"organization"`
	Stats        *models.OrganizationStats `json:"stats,omitempty"`
}

// Range describes a page of a listing.
type Range struct {
	Start     int  `json:"start"`
	End       int  `json:"end"`
	Total     int  `json:"total"`
	HasMore   bool `json:"has_more"`
	NextStart int  `json:"next_start,omitempty"`
}

// Listing is one page of organizations.
type Listing struct {
	Organizations  []Listed `json:"organizations"`
	Featured       []Listed `json:"featured,omitempty"`
	Range          Range    `json:"range"`
	StatsAvailable bool     `json:"stats_available"`
}

// ListQuery filters a listing. Zero values mean no filter and the first page.
type ListQuery struct {
	Search   string
	Category string
	Start    int
	Limit    int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Start > 0 {
		v.Set("start", strconv.Itoa(q.Start))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ListOrganizations returns a ranked page of organizations.
func (c *Client) ListOrganizations(ctx context.Context, q ListQuery) (*Listing, error) {
	var out Listing
	path := "/api/organizations"
	if v := q.values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	if err := c.do(ctx, c.rc, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detail is an organization page.
type Detail struct {
	Organization models.Organization       `json:"organization"`
	About        string                    `json:"about"`
	Stats        *models.OrganizationStats `json:"stats"`
	RatingLabel  string                    `json:"rating_label,omitempty"`
	Reviews      []models.ReviewView       `json:"reviews"`
	ReviewCount  int                       `json:"review_count"`
}

// Organization returns one organization with its stats and reviews.
func (c *Client) Organization(ctx context.Context, id string) (*Detail, error) {
	var out Detail
	if err := c.do(ctx, c.rc, http.MethodGet, "/api/organizations/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories returns the category facets, "All" first.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out struct {
		Categories []string `json:"categories"`
	}
	if err := c.do(ctx, c.rc, http.MethodGet, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// ReviewCount returns the number of visible reviews for an organization.
func (c *Client) ReviewCount(ctx context.Context, orgID string) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	path := "/api/organizations/" + url.PathEscape(orgID) + "/reviews/count"
	if err := c.do(ctx, c.rc, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// ReviewStats returns batched stats for the given organizations, or all of
// them when ids is empty. Server errors are retried.
func (c *Client) ReviewStats(ctx context.Context, ids []string) ([]models.OrganizationStats, error) {
	var out struct {
		Stats []models.OrganizationStats `json:"stats"`
	}
	body := struct {
		OrganizationIDs []string `json:"organization_ids,omitempty"`
	}{ids}
	if err := c.do(ctx, c.stats, http.MethodPost, "/rpc/get_review_stats", body, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

type ledgerRequest struct {
	DeviceID       string `json:"device_id"`
	OrganizationID string `json:"organization_id"`
}

// CheckCanSubmit asks the ledger whether deviceID may review orgID.
func (c *Client) CheckCanSubmit(ctx context.Context, deviceID, orgID string) (bool, error) {
	var out struct {
		Allowed bool `json:"allowed"`
	}
	err := c.do(ctx, c.rc, http.MethodPost, "/rpc/check_can_submit", ledgerRequest{deviceID, orgID}, &out)
	if err != nil {
		return false, err
	}
	return out.Allowed, nil
}

// RecordSubmission writes the ledger entry for deviceID and orgID.
func (c *Client) RecordSubmission(ctx context.Context, deviceID, orgID string) error {
	return c.do(ctx, c.rc, http.MethodPost, "/rpc/record_submission", ledgerRequest{deviceID, orgID}, nil)
}

// InsertReview posts a review and returns its server-assigned id.
func (c *Client) InsertReview(ctx context.Context, draft models.ReviewDraft) (string, error) {
	var out struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := c.do(ctx, c.rc, http.MethodPost, "/api/reviews", draft, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("insert review: server returned no id")
	}
	return out.ID, nil
}

// ReviewExists reports whether the review is still stored.
func (c *Client) ReviewExists(ctx context.Context, reviewID string) (bool, error) {
	err := c.do(ctx, c.rc, http.MethodGet, "/api/reviews/"+url.PathEscape(reviewID), nil, nil)
	switch {
	case err == nil:
		return true, nil
	case IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// MarkReviewFlagged reports a review for moderation.
func (c *Client) MarkReviewFlagged(ctx context.Context, reviewID string) error {
	body := struct {
		ReviewID string `json:"review_id"`
	}{reviewID}
	return c.do(ctx, c.rc, http.MethodPost, "/rpc/mark_review_flagged", body, nil)
}
