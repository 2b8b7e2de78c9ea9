package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"ogresolver/internal/config"
	"ogresolver/internal/domain"
)

// Fetcher performs the HTTP work for all resolution strategies.
type Fetcher struct {
	client *http.Client
	cfg    config.FetchConfig
	log    logrus.FieldLogger
}

// NewFetcher creates a Fetcher. If client is nil a default one is used.
// Redirects are always handled by the Fetcher itself, so the client's
// CheckRedirect policy is replaced.
func NewFetcher(cfg config.FetchConfig, client *http.Client, logger logrus.FieldLogger) *Fetcher {
	var c http.Client
	if client != nil {
		c = *client
	}
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Fetcher{
		client: &c,
		cfg:    cfg,
		log:    logger.WithField("component", "fetcher"),
	}
}

// HTMLHeader returns the browser-like request headers used for page fetches.
func (f *Fetcher) HTMLHeader() http.Header {
	h := http.Header{}
	h.Set("User-Agent", f.cfg.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	return h
}

// FetchHTML retrieves rawURL as text, following redirects.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	return f.Fetch(ctx, rawURL, f.HTMLHeader())
}

// Fetch retrieves rawURL with the given headers, following up to
// MaxRedirects redirects. Errors are *domain.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, header http.Header) (*domain.FetchResult, error) {
	visited := make(map[string]struct{})
	current := rawURL

	for hop := 0; ; hop++ {
		if _, seen := visited[current]; seen {
			return nil, &domain.FetchError{URL: current, Reason: domain.ReasonRedirectLoop}
		}
		visited[current] = struct{}{}

		res, next, err := f.fetchOnce(ctx, current, header)
		if err != nil {
			return nil, err
		}
		if next == "" {
			res.FinalURL = current
			return res, nil
		}
		if hop >= f.cfg.MaxRedirects {
			return nil, &domain.FetchError{URL: rawURL, Reason: domain.ReasonTooManyHops}
		}

		f.log.WithFields(logrus.Fields{"from": current, "to": next}).Debug("Following redirect")
		current = next
	}
}

// FetchOnce issues a single GET and never follows redirects. A 3xx is a
// FetchError, so headers such as Authorization never reach another host.
func (f *Fetcher) FetchOnce(ctx context.Context, rawURL string, header http.Header) (*domain.FetchResult, error) {
	res, next, err := f.fetchOnce(ctx, rawURL, header)
	if err != nil {
		return nil, err
	}
	if next != "" {
		return nil, &domain.FetchError{URL: rawURL, Reason: domain.ReasonStatus, StatusCode: res.StatusCode}
	}
	res.FinalURL = rawURL
	return res, nil
}

// errIdleTimeout cancels an attempt that received no data within the
// configured window.
var errIdleTimeout = errors.New("no data within fetch timeout")

// fetchOnce issues a single GET. It returns either a result, or the
// absolute URL of the next hop when the response is a redirect. The
// timeout is an idle window: it restarts whenever body data arrives.
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string, header http.Header) (*domain.FetchResult, string, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	idle := time.AfterFunc(f.cfg.Timeout, func() { cancel(errIdleTimeout) })
	defer idle.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &domain.FetchError{URL: rawURL, Reason: domain.ReasonTransport, Err: err}
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", f.transportError(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) {
		if loc := resp.Header.Get("Location"); loc != "" {
			next, err := ResolveReference(rawURL, loc)
			if err != nil {
				return nil, "", &domain.FetchError{URL: rawURL, Reason: domain.ReasonTransport, Err: fmt.Errorf("bad location %q: %w", loc, err)}
			}
			return &domain.FetchResult{StatusCode: resp.StatusCode}, next, nil
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &domain.FetchError{URL: rawURL, Reason: domain.ReasonStatus, StatusCode: resp.StatusCode}
	}

	encoding := resp.Header.Get("Content-Encoding")
	raw := &idleReader{r: resp.Body, timer: idle, window: f.cfg.Timeout}
	body, err := decodeBody(raw, encoding)
	if err != nil {
		return nil, "", f.readError(ctx, rawURL, err)
	}

	data, err := io.ReadAll(io.LimitReader(body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, "", f.readError(ctx, rawURL, err)
	}
	if int64(len(data)) > f.cfg.MaxBodyBytes {
		return nil, "", &domain.FetchError{URL: rawURL, Reason: domain.ReasonTooLarge}
	}

	return &domain.FetchResult{
		StatusCode:      resp.StatusCode,
		ContentEncoding: encoding,
		Body:            string(data),
	}, "", nil
}

// idleReader re-arms timer each time a read returns data.
type idleReader struct {
	r      io.Reader
	timer  *time.Timer
	window time.Duration
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.window)
	}
	return n, err
}

func isTimeout(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), errIdleTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func (f *Fetcher) transportError(ctx context.Context, rawURL string, err error) error {
	if isTimeout(ctx) {
		return &domain.FetchError{URL: rawURL, Reason: domain.ReasonTimeout, Err: err}
	}
	return &domain.FetchError{URL: rawURL, Reason: domain.ReasonTransport, Err: err}
}

func (f *Fetcher) readError(ctx context.Context, rawURL string, err error) error {
	if isTimeout(ctx) {
		return &domain.FetchError{URL: rawURL, Reason: domain.ReasonTimeout, Err: err}
	}
	return &domain.FetchError{URL: rawURL, Reason: domain.ReasonDecode, Err: err}
}

// Probe issues a single method request (HEAD or GET) without following
// redirects and returns only the status line and headers. A GET body is
// closed unread, which aborts the transfer.
func (f *Fetcher) Probe(ctx context.Context, method, rawURL string) (*domain.ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, &domain.ProbeError{URL: rawURL, Method: method, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.ProbeError{URL: rawURL, Method: method, Err: err}
	}
	resp.Body.Close()

	return &domain.ProbeResult{
		Status:      resp.StatusCode,
		Location:    resp.Header.Get("Location"),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// ResolveReference resolves ref against base, returning an absolute URL.
func ResolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}
