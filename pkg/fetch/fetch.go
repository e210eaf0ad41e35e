package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/devraulu/rollcall/pkg/process"
)

const DefaultUserAgent = "Mozilla/5.0"

// Kind is the document shape a caller expects back from a fetch.
type Kind int

const (
	HTML Kind = iota
	XML
)

func (k Kind) String() string {
	switch k {
	case HTML:
		return "html"
	case XML:
		return "xml"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) accept() string {
	if k == XML {
		return "application/xml, text/xml"
	}
	return "text/html"
}

type Document struct {
	URL  string
	Kind Kind
	Body []byte
}

var (
	ErrTransport     = errors.New("transport failure")
	ErrEmptyResponse = errors.New("empty response body")
	ErrStatus        = errors.New("unexpected response status")
	ErrDisallowed    = errors.New("disallowed by robots.txt")
)

// FetchError reports why a single GET failed. Kind is one of the sentinel
// errors above and is matched by errors.Is.
type FetchError struct {
	Kind       error
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %v: %d", e.URL, e.Kind, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RespectRobots bool
}

// Fetcher performs single GET requests with a fixed header set. It never
// retries; every failure is returned as a *FetchError.
type Fetcher struct {
	client    *resty.Client
	userAgent string
	robots    *process.RobotsCache
}

func New(opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetRetryCount(0)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	f := &Fetcher{
		client:    client,
		userAgent: opts.UserAgent,
	}
	if opts.RespectRobots {
		f.robots = process.NewRobotsCache(f.getRobots)
	}
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, url string, kind Kind) (*Document, error) {
	if f.robots != nil && !f.robots.Allowed(ctx, f.userAgent, url) {
		return nil, f.fail(&FetchError{Kind: ErrDisallowed, URL: url})
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", kind.accept()).
		Get(url)
	if err != nil {
		return nil, f.fail(&FetchError{Kind: ErrTransport, URL: url, Err: err})
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, f.fail(&FetchError{Kind: ErrStatus, URL: url, StatusCode: resp.StatusCode()})
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, f.fail(&FetchError{Kind: ErrEmptyResponse, URL: url, StatusCode: resp.StatusCode()})
	}

	slog.Debug("fetched document",
		slog.String("url", url),
		slog.String("kind", kind.String()),
		slog.Int("status_code", resp.StatusCode()),
		slog.Int("body_length", len(body)),
		slog.Duration("elapsed", resp.Time()),
	)

	return &Document{URL: url, Kind: kind, Body: body}, nil
}

func (f *Fetcher) fail(e *FetchError) error {
	slog.Error("fetch failed", slog.String("url", e.URL), slog.String("kind", e.Kind.Error()), slog.Any("err", e.Err))
	return e
}

func (f *Fetcher) getRobots(ctx context.Context, url string) (int, []byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}
