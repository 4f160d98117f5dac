package outcome

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// Source identifies which fallback tier produced the current outcome.
type Source string

const (
	SourceAPI       Source = "api"
	SourceScrape    Source = "scrape"
	SourceSimulated Source = "simulated"
)

// roundsResponse is the shape of the results endpoint payload.
type roundsResponse struct {
	Rounds []struct {
		Result string `json:"result"`
	} `json:"rounds"`
}

// FeedOptions holds options for creating a Feed.
type FeedOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	CacheTTL        time.Duration
	MaxRetryTimeout time.Duration
	Now             func() time.Time
}

// Feed fetches the latest game outcome from the betting site,
// degrading from the JSON results API to HTML scraping to a
// clock-seeded simulation. Results are cached for a short TTL and the
// rolling history is rebuilt on every refresh.
type Feed struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	ttl             time.Duration
	maxRetryTimeout time.Duration
	now             func() time.Time

	mu        sync.Mutex
	current   Symbol
	history   History
	source    Source
	fetchedAt time.Time
}

// NewFeed creates a Feed against the given base URL.
func NewFeed(opts FeedOptions) *Feed {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 10 * time.Second
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Feed{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.RequestTimeout,
		},
		limiter:         rate.NewLimiter(rate.Every(time.Second), 5),
		logger:          log.With().Str("component", "outcome_feed").Logger(),
		ttl:             opts.CacheTTL,
		maxRetryTimeout: opts.MaxRetryTimeout,
		now:             opts.Now,
	}
}

// Current returns the latest outcome, the tier that produced it and
// the time it was acquired, refreshing at most once per TTL. It never
// returns an error: the worst case is a fully simulated result.
func (f *Feed) Current(ctx context.Context) (Symbol, Source, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if !f.fetchedAt.IsZero() && now.Sub(f.fetchedAt) < f.ttl {
		return f.current, f.source, f.fetchedAt
	}

	recents, source := f.acquire(ctx, now)
	f.current = recents[len(recents)-1]
	f.history = NewHistory(recents)
	f.source = source
	f.fetchedAt = now

	f.logger.Info().
		Str("source", string(source)).
		Str("result", string(f.current)).
		Msg("Outcome refreshed")

	return f.current, f.source, f.fetchedAt
}

// History returns the rolling window from the last refresh.
func (f *Feed) History() History {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history
}

// acquire walks the fallback chain. Each tier is guarded
// independently; the simulation tier cannot fail.
func (f *Feed) acquire(ctx context.Context, now time.Time) ([]Symbol, Source) {
	recents, err := f.fetchAPI(ctx)
	if err == nil {
		return recents, SourceAPI
	}
	f.logger.Warn().Err(err).Msg("Results API unavailable, trying page scrape")

	recents, err = f.fetchScrape(ctx)
	if err == nil {
		return recents, SourceScrape
	}
	f.logger.Warn().Err(err).Msg("Page scrape failed, falling back to simulation")

	return f.simulate(now), SourceSimulated
}

// fetchAPI queries the JSON results endpoint and returns up to ten
// outcomes ordered oldest first.
func (f *Feed) fetchAPI(ctx context.Context) ([]Symbol, error) {
	body, err := f.get(ctx, f.baseURL+"/api/games/bacbo/results")
	if err != nil {
		return nil, err
	}

	var data roundsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if len(data.Rounds) == 0 {
		return nil, fmt.Errorf("empty rounds returned")
	}

	rounds := data.Rounds
	if len(rounds) > windowSize {
		rounds = rounds[:windowSize]
	}

	// The API lists rounds newest first; the history wants oldest
	// first.
	recents := make([]Symbol, len(rounds))
	for i, r := range rounds {
		recents[len(rounds)-1-i] = FromColor(r.Result)
	}
	return recents, nil
}

// fetchScrape loads the game page and classifies each result item by
// its CSS classes: result-red, result-blue, anything else is the tie.
func (f *Feed) fetchScrape(ctx context.Context) ([]Symbol, error) {
	body, err := f.get(ctx, f.baseURL+"/game/bacbo")
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	container := findByClass(doc, "game-results-container")
	if container == nil {
		return nil, fmt.Errorf("results container not found in page")
	}

	var recents []Symbol
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if len(recents) >= windowSize {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "result-item") {
			switch {
			case hasClass(n, "result-red"):
				recents = append(recents, Red)
			case hasClass(n, "result-blue"):
				recents = append(recents, Blue)
			default:
				recents = append(recents, Orange)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(container)

	if len(recents) == 0 {
		return nil, fmt.Errorf("no result items in container")
	}

	// Items render newest first.
	for i, j := 0, len(recents)-1; i < j; i, j = i+1, j-1 {
		recents[i], recents[j] = recents[j], recents[i]
	}
	return recents, nil
}

// simulate draws outcomes from a weighted distribution (Red 35%,
// Blue 35%, Orange 30%) seeded by the current UTC time truncated to
// the minute, so all callers within the same minute agree.
func (f *Feed) simulate(now time.Time) []Symbol {
	rnd := rand.New(rand.NewSource(now.UTC().Unix() / 60))

	recents := make([]Symbol, windowSize+1)
	for i := range recents {
		recents[i] = weightedSymbol(rnd)
	}
	return recents
}

func weightedSymbol(rnd *rand.Rand) Symbol {
	switch v := rnd.Float64(); {
	case v < 0.35:
		return Red
	case v < 0.70:
		return Blue
	default:
		return Orange
	}
}

// get performs a rate-limited GET with retries and a browser-like
// header set.
func (f *Feed) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Referer", f.baseURL+"/")

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = f.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = f.maxRetryTimeout

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
