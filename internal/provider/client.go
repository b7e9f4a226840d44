package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/ethos-finder/ethos/internal/governor"
)

// DefaultUserAgent is sent on every request; several platforms reject
// obvious non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

const maxBodyBytes = 4 << 20

// ClientOptions configures a Client.
type ClientOptions struct {
	Transport http.RoundTripper // defaults to http.DefaultTransport
	Governor  *governor.Governor
	UserAgent string
	Retries   int // extra attempts for transient failures of API calls
	Logger    zerolog.Logger
}

// Client sends authenticated requests on behalf of provider descriptors.
type Client struct {
	transport http.RoundTripper
	governor  *governor.Governor
	userAgent string
	retries   uint64
	log       zerolog.Logger
}

// NewClient creates a provider client.
func NewClient(opts ClientOptions) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		transport: transport,
		governor:  opts.Governor,
		userAgent: ua,
		retries:   uint64(retries),
		log:       opts.Logger,
	}
}

// Call is one request against a provider.
type Call struct {
	Provider   Descriptor
	Method     string // defaults to GET
	URL        string
	Query      url.Values
	Body       any // JSON-encoded when non-nil
	Credential string
}

// httpClient returns a client that attaches the provider's credential.
func (c *Client) httpClient(d Descriptor, credential string) *http.Client {
	if d.Auth == AuthBearer {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential})
		return &http.Client{Transport: &oauth2.Transport{Source: src, Base: c.transport}}
	}
	return &http.Client{Transport: c.transport}
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	u, err := url.Parse(call.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	q := u.Query()
	for k, vs := range call.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if call.Provider.Auth == AuthQueryParam {
		q.Set("key", call.Credential)
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Provider.Auth == AuthHeader {
		req.Header.Set("X-RapidAPI-Key", call.Credential)
		req.Header.Set("X-RapidAPI-Host", call.Provider.Host)
	}
	return req, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)
}

// retryableStatus lists statuses worth a second attempt.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetch performs the call and returns the raw body of a 2xx response. Every
// failure is an *Error scoped to the provider.
func (c *Client) Fetch(ctx context.Context, call Call) ([]byte, error) {
	d := call.Provider
	if d.Auth != AuthNone && call.Credential == "" {
		return nil, NewError(d.Name, ConfigMissing, nil)
	}

	reqCtx, cancel := requestContext(ctx, d.Timeout)
	defer cancel()

	hc := c.httpClient(d, call.Credential)
	var body []byte
	attempt := 0

	op := func() error {
		attempt++
		if err := c.governor.Wait(ctx, d.RateClass()); err != nil {
			return backoff.Permanent(NewError(d.Name, ProviderUnavailable, err))
		}

		req, err := c.newRequest(reqCtx, call)
		if err != nil {
			return backoff.Permanent(NewError(d.Name, ProviderUnavailable, err))
		}

		c.log.Debug().Str("provider", d.Name).Str("method", req.Method).Str("host", req.URL.Host).Int("attempt", attempt).Msg("provider request")

		resp, err := hc.Do(req)
		if err != nil {
			perr := NewError(d.Name, ProviderUnavailable, redactErr(err, call.Credential))
			if isTimeout(err) {
				perr.Err = fmt.Errorf("timeout after %s", d.Timeout)
			}
			if ctx.Err() != nil || reqCtx.Err() != nil {
				return backoff.Permanent(perr)
			}
			return perr
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return NewError(d.Name, ProviderUnavailable, fmt.Errorf("read response: %w", err))
		}

		if kind, failed := StatusKind(resp.StatusCode); failed {
			perr := &Error{Provider: d.Name, Kind: kind, Status: resp.StatusCode}
			if retryableStatus(resp.StatusCode) {
				return perr
			}
			return backoff.Permanent(perr)
		}

		body = data
		return nil
	}

	if err := backoff.Retry(op, c.newBackOff(ctx)); err != nil {
		if _, ok := err.(*Error); !ok {
			err = NewError(d.Name, ProviderUnavailable, err)
		}
		return nil, err
	}
	return body, nil
}

// JSON performs the call and decodes the response into out. A body that is not
// valid JSON counts as the provider being unavailable.
func (c *Client) JSON(ctx context.Context, call Call, out any) error {
	body, err := c.Fetch(ctx, call)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewError(call.Provider.Name, ProviderUnavailable, fmt.Errorf("malformed JSON response: %w", err))
	}
	return nil
}

// ProbeResult is the outcome of checking whether a URL resolves.
type ProbeResult struct {
	Status int
	URL    string
	Err    error
}

// Exists reports whether the probe reached a non-error page.
func (r ProbeResult) Exists() bool {
	return r.Err == nil && r.Status >= 200 && r.Status < 400
}

// Probe requests target with HEAD, retrying with GET when HEAD answers with an
// error status (many sites refuse HEAD). Transport errors and error statuses
// are reported in the result, never returned as failures.
func (c *Client) Probe(ctx context.Context, d Descriptor, target string) ProbeResult {
	reqCtx, cancel := requestContext(ctx, d.Timeout)
	defer cancel()

	res := c.probeOnce(ctx, reqCtx, d, http.MethodHead, target)
	if res.Err != nil || res.Status < 400 {
		return res
	}
	return c.probeOnce(ctx, reqCtx, d, http.MethodGet, target)
}

// requestContext detaches a request from the caller's cancellation and bounds
// it by timeout instead. Cancelling ctx stops new calls; a request already
// sent runs until it completes or times out.
func requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, timeout)
}

// probeOnce waits for its turn on ctx and sends the request on reqCtx.
func (c *Client) probeOnce(ctx, reqCtx context.Context, d Descriptor, method, target string) ProbeResult {
	res := ProbeResult{URL: target}

	if err := c.governor.Wait(ctx, d.RateClass()); err != nil {
		res.Err = NewError(d.Name, ProviderUnavailable, err)
		return res
	}

	req, err := http.NewRequestWithContext(reqCtx, method, target, nil)
	if err != nil {
		res.Err = NewError(d.Name, ProviderUnavailable, err)
		return res
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient(d, "").Do(req)
	if err != nil {
		res.Err = NewError(d.Name, ProviderUnavailable, err)
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	res.Status = resp.StatusCode
	if resp.Request != nil && resp.Request.URL != nil {
		res.URL = resp.Request.URL.String()
	}
	return res
}

// redactErr strips a query-param credential from transport errors, which
// embed the request URL.
func redactErr(err error, credential string) error {
	if credential == "" || !strings.Contains(err.Error(), credential) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), credential, "REDACTED"))
}
