package timelineimpl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/McKael/madon/v3"
	"github.com/orgball2608/fedi-albums/internal/pagecache"
	"github.com/orgball2608/fedi-albums/internal/timeline"
	"github.com/orgball2608/fedi-albums/pkg/errors"
	"github.com/peterhellberg/link"
)

const userAgent = "fedi-albums/1.0"

func (c *Impl) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Impl) fetchPage(ctx context.Context, path string, opts timeline.PageOptions, query url.Values) (timeline.Page, error) {
	query.Set("limit", strconv.Itoa(pageLimit(opts.Limit)))
	if opts.SinceID != "" {
		query.Set("since_id", opts.SinceID)
	}
	if opts.MaxID != "" {
		query.Set("max_id", opts.MaxID)
	}
	target := c.endpoint(path, query)

	key := pagecache.Key(http.MethodGet, target)
	if page, ok := c.cachedPage(ctx, key); ok {
		return page, nil
	}

	var statuses []madon.Status
	resp, err := c.get(ctx, target, &statuses)
	if err != nil {
		if errors.IsValidation(err) || errors.IsNotFound(err) {
			c.logger.Debug("Treating client error as empty page", "path", path, "error", err)
			return timeline.Page{}, nil
		}
		return timeline.Page{}, err
	}

	page := timeline.Page{
		Photos:    c.normalizer.Photos(statuses, c.now()),
		Statuses:  len(statuses),
		NextMaxID: nextMaxID(resp),
	}
	c.storePage(ctx, key, page)
	return page, nil
}

func (c *Impl) cachedPage(ctx context.Context, key string) (timeline.Page, bool) {
	b, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Page cache read failed", "error", err)
		return timeline.Page{}, false
	}
	if !ok {
		return timeline.Page{}, false
	}
	var page timeline.Page
	if err := json.Unmarshal(b, &page); err != nil {
		c.logger.Warn("Dropping unreadable cached page", "error", err)
		return timeline.Page{}, false
	}
	return page, true
}

func (c *Impl) storePage(ctx context.Context, key string, page timeline.Page) {
	if c.cacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, b, c.cacheTTL); err != nil {
		c.logger.Warn("Page cache write failed", "error", err)
	}
}

// get performs one authenticated GET and decodes the JSON body into out.
func (c *Impl) get(ctx context.Context, target string, out any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx, c.baseURL.Host); err != nil {
		return nil, errors.Upstream(err, "waiting for request slot")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Validation("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	token, err := c.tokens.AccessToken(ctx)
	switch {
	case err == nil:
		req.Header.Set("Authorization", "Bearer "+token)
	case errors.IsUnauthorized(err):
		// public timelines are readable anonymously
	default:
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Upstream(err, "GET %s", req.URL.Path)
	}
	defer resp.Body.Close()

	if err := classify(resp, c.now()); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp, errors.Upstream(err, "decode %s", req.URL.Path)
	}
	return resp, nil
}

// classify maps a non-2xx response onto the error taxonomy.
func classify(resp *http.Response, now time.Time) error {
	path := resp.Request.URL.Path
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.RateLimited(retryAfter(resp.Header, now), "remote rate limit on %s", path)
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFound("remote resource %s", path)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return errors.Validation("remote rejected %s: %s", path, resp.Status)
	default:
		return errors.Upstream(nil, "remote returned %s for %s", resp.Status, path)
	}
}

// retryAfter reads Retry-After (seconds or HTTP date), then Mastodon's
// X-RateLimit-Reset timestamp. Zero means no usable hint.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if t, err := http.ParseTime(v); err == nil && t.After(now) {
			return t.Sub(now)
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil && t.After(now) {
			return t.Sub(now)
		}
	}
	return 0
}

// nextMaxID pulls the max_id cursor out of the rel="next" Link header.
func nextMaxID(resp *http.Response) string {
	next, ok := link.ParseResponse(resp)["next"]
	if !ok || next == nil {
		return ""
	}
	u, err := url.Parse(next.URI)
	if err != nil {
		return ""
	}
	return u.Query().Get("max_id")
}

func pageLimit(n int) int {
	if n <= 0 || n > timeline.MaxPageSize {
		return timeline.MaxPageSize
	}
	return n
}
