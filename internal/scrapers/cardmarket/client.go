// client.go holds the http session: cookies, browser fingerprint and the
// anti-bot bypass. It knows nothing about which pages exist.

package cardmarket

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/pkg/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch        = "client.fetch"
	report_client_submit_login = "client.submit-login"
)

const (
	defaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	defaultTimeout           = 30 * time.Second
	defaultRequestsPerSecond = 2
)

type ClientOptions struct {
	BaseURL string
	// Timeout bounds every single request, defaults to 30s.
	Timeout time.Duration
	// RequestsPerSecond defaults to 2.
	RequestsPerSecond float64
	UserAgent         string
	// Transport replaces the network transport, the challenge bypass is not
	// applied on top of it. Used by tests.
	Transport http.RoundTripper
	// Dump receives every http exchange when set.
	Dump restyutil.Output
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = defaultRequestsPerSecond
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

type sessionClient struct {
	http *resty.Client
	tel  telemetry.API
}

func newSessionClient(opts ClientOptions, tel telemetry.API) (*sessionClient, error) {
	opts = opts.withDefaults()

	parsedBaseUrl, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)

	transport := opts.Transport
	if transport == nil {
		transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetTransport(decodingTransport{inner: transport})

	httpClient.SetHeaders(map[string]string{
		"user-agent":      opts.UserAgent,
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": "en-US,en;q=0.9",
		"accept-encoding": acceptEncoding,
	})
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	// burst >= 1 so that no request is ever dropped, only delayed
	burst := int(math.Max(1, math.Ceil(opts.RequestsPerSecond)))
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.Dump(httpClient, opts.Dump)

	return &sessionClient{http: httpClient, tel: tel}, nil
}

// Fetch returns the html of a page, any status other than 200 is a
// ConnectionError.
func (c *sessionClient) Fetch(ctx context.Context, pageURL string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(pageURL)
	return c.check(report_client_fetch, pageURL, res, err)
}

// SubmitLogin posts a url-encoded form and returns the html the site answers
// with after redirects.
func (c *sessionClient) SubmitLogin(ctx context.Context, loginURL string, form map[string]string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(loginURL)
	return c.check(report_client_submit_login, loginURL, res, err)
}

func (c *sessionClient) check(report, target string, res *resty.Response, err error) (string, error) {
	if err != nil {
		c.tel.ReportBroken(report, fmt.Errorf("request: %w", err), target)
		return "", &ConnectionError{Message: fmt.Sprintf("request to %s failed", target), Err: err}
	}

	body := res.String()
	if isChallenge(res.StatusCode(), res.Header(), body) {
		c.tel.ReportBroken(report, ErrChallenge, target, res.StatusCode())
		return "", &ConnectionError{
			Message:    fmt.Sprintf("failed to load page: %d", res.StatusCode()),
			StatusCode: res.StatusCode(),
			Err:        ErrChallenge,
		}
	}
	if res.StatusCode() != http.StatusOK {
		c.tel.ReportWarning(report, fmt.Errorf("unexpected status %d", res.StatusCode()), target)
		return "", &ConnectionError{
			Message:    fmt.Sprintf("failed to load page: %d", res.StatusCode()),
			StatusCode: res.StatusCode(),
		}
	}
	return body, nil
}

// Close drops pooled connections, the client must not be used afterwards.
func (c *sessionClient) Close() {
	c.http.GetClient().CloseIdleConnections()
	c.http.GetClient().Jar = nil
}
