package timelineimpl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/McKael/madon/v3"
	"github.com/orgball2608/fedi-albums/internal/auth"
	"github.com/orgball2608/fedi-albums/internal/pagecache"
	"github.com/orgball2608/fedi-albums/internal/ratelimit"
	"github.com/orgball2608/fedi-albums/internal/timeline"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/errors"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"github.com/orgball2608/fedi-albums/pkg/normalize"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
	Tokens auth.TokenProvider
	Cache  pagecache.Cache

	HTTPClient *http.Client `optional:"true"`
}

type Impl struct {
	baseURL    *url.URL
	http       *http.Client
	tokens     auth.TokenProvider
	cache      pagecache.Cache
	cacheTTL   time.Duration
	limiter    ratelimit.Limiter
	normalizer *timeline.Normalizer
	logger     logger.Logger
	now        func() time.Time

	mu       sync.RWMutex
	accounts map[string]string
}

var _ timeline.Client = (*Impl)(nil)

func New(opts Opts) (*Impl, error) {
	base, err := url.Parse(strings.TrimRight(opts.Config.Mastodon.InstanceURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid MASTODON_INSTANCE_URL %q", opts.Config.Mastodon.InstanceURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Config.Mastodon.Timeout}
	}
	cache := opts.Cache
	if cache == nil {
		cache = pagecache.Noop{}
	}

	return &Impl{
		baseURL:    base,
		http:       httpClient,
		tokens:     opts.Tokens,
		cache:      cache,
		cacheTTL:   opts.Config.Redis.PageTTL,
		limiter:    ratelimit.NewInMemoryLimiter(opts.Config.Mastodon.RequestsPerSecond, opts.Config.Mastodon.Burst),
		normalizer: timeline.NewNormalizer(base.Host),
		logger:     opts.Logger.WithComponent("TimelineClient"),
		now:        time.Now,
		accounts:   make(map[string]string),
	}, nil
}

// FetchTagPage returns one page of a hashtag timeline. Client errors other
// than 429 come back as an empty page.
func (c *Impl) FetchTagPage(ctx context.Context, tag string, opts timeline.PageOptions) (timeline.Page, error) {
	t := normalize.Tag(tag)
	if t == "" {
		return timeline.Page{}, errors.Validation("tag %q is empty after normalization", tag)
	}
	query := url.Values{"only_media": {"true"}}
	return c.fetchPage(ctx, "/api/v1/timelines/tag/"+url.PathEscape(t), opts, query)
}

// FetchUserPage returns one page of an account's own statuses.
func (c *Impl) FetchUserPage(ctx context.Context, accountID string, opts timeline.PageOptions) (timeline.Page, error) {
	if !normalize.IsAccountID(accountID) {
		return timeline.Page{}, errors.Validation("account id %q is not numeric", accountID)
	}
	query := url.Values{"only_media": {"true"}, "exclude_reblogs": {"true"}}
	return c.fetchPage(ctx, "/api/v1/accounts/"+accountID+"/statuses", opts, query)
}

// LookupAccount resolves a handle to an account id. Results are kept for
// the life of the client since ids never change.
func (c *Impl) LookupAccount(ctx context.Context, handle string) (string, error) {
	h := normalize.Handle(handle)
	if h == "" {
		return "", errors.Validation("handle %q is malformed", handle)
	}
	if normalize.IsAccountID(h) {
		return h, nil
	}

	c.mu.RLock()
	id, ok := c.accounts[h]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	acct := strings.TrimSuffix(h, "@"+strings.ToLower(c.baseURL.Host))
	var account madon.Account
	if _, err := c.get(ctx, c.endpoint("/api/v1/accounts/lookup", url.Values{"acct": {acct}}), &account); err != nil {
		if errors.IsValidation(err) {
			return "", errors.NotFound("account %s", h)
		}
		return "", err
	}
	id = string(account.ID)
	if id == "" {
		return "", errors.NotFound("account %s", h)
	}

	c.mu.Lock()
	c.accounts[h] = id
	c.mu.Unlock()

	c.logger.Debug("Resolved account", "handle", h, "account_id", id)
	return id, nil
}
