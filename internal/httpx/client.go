package httpx

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// DefaultTimeout applies to every single venue call unless a session overrides it.
const DefaultTimeout = 30 * time.Second

// ChromeUserAgent is the fixed desktop user agent used by venues that do not rotate.
const ChromeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36"

// Factory builds one resty session per adapter invocation. Sessions never share
// cookies; the only state shared between them is the per-host rate limiter.
type Factory struct {
	// Transport is the innermost round tripper. Nil means a clone of the default transport.
	Transport http.RoundTripper
	// Timeout is the per-call timeout when a session does not set one.
	Timeout time.Duration
	// Rate and Burst limit requests per venue host. A zero Rate disables limiting.
	Rate  rate.Limit
	Burst int
	// Logger receives request/response logs. Nil means slog.Default().
	Logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	reqID    uint64
}

var (
	defaultFactory     *Factory
	defaultFactoryOnce sync.Once
)

// Default returns a shared factory with sensible timeouts and a 2 rps per-host limit.
func Default() *Factory {
	defaultFactoryOnce.Do(func() {
		defaultFactory = &Factory{
			Transport: newTransport(),
			Timeout:   DefaultTimeout,
			Rate:      2,
			Burst:     2,
		}
	})
	return defaultFactory
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// SessionOptions tweaks a single venue session.
type SessionOptions struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id    uint64
	start time.Time
}

// Session returns a fresh client with its own cookie jar, browser-like headers,
// the cloudflare bypass transport and request logging hooks.
func (f *Factory) Session(venue string, opts SessionOptions) *resty.Client {
	logger := f.logger().With(slog.String("venue", venue))

	c := resty.New()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err == nil {
		c.SetCookieJar(jar)
	}

	inner := f.Transport
	if inner == nil {
		inner = newTransport()
	} else if t, ok := inner.(*http.Transport); ok {
		// the bypass rewrites the TLS config of the transport it wraps
		inner = t.Clone()
	}
	c.SetTransport(cloudflarebp.AddCloudFlareByPass(inner))

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.Timeout
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c.SetTimeout(timeout)

	ua := opts.UserAgent
	if ua == "" {
		ua = ChromeUserAgent
	}
	SpoofChromeHeaders(c, ua)
	c.SetHeaders(opts.Headers)

	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if lim := f.limiter(req.URL); lim != nil {
			if err := lim.Wait(req.Context()); err != nil {
				return err
			}
		}
		id := atomic.AddUint64(&f.reqID, 1)
		req.SetContext(context.WithValue(req.Context(), reqCtxKey, reqCtx{id: id, start: time.Now()}))
		logger.Debug("venue request", slog.Uint64("id", id), slog.String("method", req.Method), slog.String("url", req.URL))
		return nil
	})
	c.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		rc, _ := res.Request.Context().Value(reqCtxKey).(reqCtx)
		logger.Info("venue response",
			slog.Uint64("id", rc.id),
			slog.Int("status", res.StatusCode()),
			slog.Duration("took", time.Since(rc.start)),
			slog.Int("bytes", len(res.Body())),
		)
		return nil
	})
	c.OnError(func(req *resty.Request, err error) {
		logger.Warn("venue request failed", slog.String("url", req.URL), slog.Any("err", err))
	})
	return c
}

func (f *Factory) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func (f *Factory) limiter(rawURL string) *rate.Limiter {
	if f.Rate == 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limiters == nil {
		f.limiters = map[string]*rate.Limiter{}
	}
	lim, ok := f.limiters[u.Host]
	if !ok {
		burst := f.Burst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(f.Rate, burst)
		f.limiters[u.Host] = lim
	}
	return lim
}

// SpoofChromeHeaders sets a modern Chrome-like header set on the session.
func SpoofChromeHeaders(c *resty.Client, userAgent string) {
	c.SetHeader("User-Agent", userAgent)
	c.SetHeader("Accept", "application/json, text/plain, */*")
	c.SetHeader("Accept-Language", "en-US,en;q=0.9")
	c.SetHeader("Connection", "keep-alive")
}

// UserAgents is the rotation pool for venues that throttle by client fingerprint.
var UserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
}

// RandomUserAgent picks a user agent from the rotation pool.
func RandomUserAgent() string {
	return UserAgents[rand.IntN(len(UserAgents))]
}
