// Package connector wraps a cookie-persisting HTTP session together
// with path-query extraction over the responses it fetches. All network
// behavior (pooling, redirects, cookie persistence) comes from resty;
// all query evaluation comes from lib/extract.
package connector

import (
	"bytes"
	"context"
	"errors"
	"net/http/cookiejar"
	"net/url"
	"time"

	"webharvest/lib/extract"
	"webharvest/lib/restyutil"
	"webharvest/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

var ErrNoResponse = errors.New("no response is available for extraction")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Client is a stateful web session: a base URL, optional credentials
// and a resty client owning the cookie jar and default headers.
// It is not safe for concurrent use.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	username string
	password string
	last     *resty.Response
}

type ClientOptions struct {
	BaseUrl  string
	Username string
	Password string
	// default headers applied to every request
	Headers   map[string]string
	UserAgent string
	// zero means 30 seconds
	Timeout time.Duration
	// routes requests through a cloudflare-tolerant transport
	BypassCloudflare bool
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	client.SetHeaders(opts.Headers)

	if opts.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	telemetry.InstrumentResty(client, "connector/http")

	return &Client{
		BaseUrl:  baseUrl,
		Http:     client,
		username: opts.Username,
		password: opts.Password,
	}, nil
}

// SetInstrumentOutput dumps every request/response pair the session
// makes to `out` when debug logging is enabled.
func (c *Client) SetInstrumentOutput(out restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(c.Http, out)
}

// SetHeaders merges the given headers into the session's default
// headers, overwriting existing keys.
func (c *Client) SetHeaders(headers map[string]string) {
	c.Http.SetHeaders(headers)
}

// Login posts form credentials to the login endpoint. A nil form posts
// the username/password the client was constructed with. Whatever
// session cookies the server sets land in the jar; no verification of
// the login outcome is performed.
func (c *Client) Login(ctx context.Context, loginUrl string, form map[string]string) (*resty.Response, error) {
	if form == nil {
		form = map[string]string{
			"username": c.username,
			"password": c.password,
		}
	}
	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(loginUrl)
	if err != nil {
		return nil, err
	}
	c.last = res
	return res, nil
}

// Logout requests the logout endpoint, letting the server clear its
// side of the session.
func (c *Client) Logout(ctx context.Context, logoutUrl string) (*resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(logoutUrl)
	if err != nil {
		return nil, err
	}
	c.last = res
	return res, nil
}

type RequestOption func(req *resty.Request)

func WithQueryParams(params map[string]string) RequestOption {
	return func(req *resty.Request) {
		req.SetQueryParams(params)
	}
}

func WithFormData(form map[string]string) RequestOption {
	return func(req *resty.Request) {
		req.SetFormData(form)
	}
}

func WithBody(body any) RequestOption {
	return func(req *resty.Request) {
		req.SetBody(body)
	}
}

func WithHeaders(headers map[string]string) RequestOption {
	return func(req *resty.Request) {
		req.SetHeaders(headers)
	}
}

// Do issues an arbitrary request relative to the base URL and records
// it as the session's last response.
func (c *Client) Do(ctx context.Context, method, endpoint string, opts ...RequestOption) (*resty.Response, error) {
	req := c.Http.R().SetContext(ctx)
	for _, opt := range opts {
		opt(req)
	}
	res, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, err
	}
	c.last = res
	return res, nil
}

// LastResponse returns the response recorded by the most recent Login,
// Logout or Do call, or nil if none has completed.
func (c *Client) LastResponse() *resty.Response {
	return c.last
}

func (c *Client) extractionTarget(res []*resty.Response) (*resty.Response, error) {
	if len(res) > 0 && res[0] != nil {
		return res[0], nil
	}
	if c.last == nil {
		return nil, ErrNoResponse
	}
	return c.last, nil
}

// ExtractOne evaluates a single XPath query against the given response
// body (or the last response when omitted) and returns the first
// matching value, "" when nothing matches.
func (c *Client) ExtractOne(xpath string, res ...*resty.Response) (string, error) {
	target, err := c.extractionTarget(res)
	if err != nil {
		return "", err
	}
	doc, err := extract.ParseHTML(bytes.NewReader(target.Body()))
	if err != nil {
		return "", err
	}
	return extract.First(doc, xpath)
}

// ExtractNamed evaluates a set of named XPath queries, returning a
// value per name. The document is parsed once.
func (c *Client) ExtractNamed(xpaths map[string]string, res ...*resty.Response) (map[string]string, error) {
	target, err := c.extractionTarget(res)
	if err != nil {
		return nil, err
	}
	doc, err := extract.ParseHTML(bytes.NewReader(target.Body()))
	if err != nil {
		return nil, err
	}

	results := make(map[string]string, len(xpaths))
	for name, xpath := range xpaths {
		value, err := extract.First(doc, xpath)
		if err != nil {
			return nil, err
		}
		results[name] = value
	}
	return results, nil
}

// ExtractOrdered evaluates a sequence of XPath queries, returning the
// values in matching positions.
func (c *Client) ExtractOrdered(xpaths []string, res ...*resty.Response) ([]string, error) {
	target, err := c.extractionTarget(res)
	if err != nil {
		return nil, err
	}
	doc, err := extract.ParseHTML(bytes.NewReader(target.Body()))
	if err != nil {
		return nil, err
	}

	results := make([]string, len(xpaths))
	for i, xpath := range xpaths {
		value, err := extract.First(doc, xpath)
		if err != nil {
			return nil, err
		}
		results[i] = value
	}
	return results, nil
}
