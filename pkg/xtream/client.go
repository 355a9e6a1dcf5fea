package xtream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout = 2 * time.Minute

	// API endpoint paths.
	pathPlayerAPI = "/player_api.php"
	pathXMLTV     = "/xmltv.php"

	// API actions.
	ActionGetLiveCategories   = "get_live_categories"
	ActionGetLiveStreams      = "get_live_streams"
	ActionGetVODCategories    = "get_vod_categories"
	ActionGetVODStreams       = "get_vod_streams"
	ActionGetSeriesCategories = "get_series_categories"
	ActionGetSeries           = "get_series"
	ActionGetSimpleDataTable  = "get_simple_data_table"

	// Query parameter names.
	paramUsername = "username"
	paramPassword = "password"
	paramAction   = "action"
	paramStreamID = "stream_id"

	maxErrorBodyReadSize = 1024
)

// DefaultUserAgent is a realistic browser User-Agent. Xtream panels are
// known to behave inconsistently when requests carry a non-browser one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// TransportError reports a network failure or a non-success HTTP status.
type TransportError struct {
	Action     string
	StatusCode int // zero when the request never completed
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("xtream %s: unexpected status %d: %v", e.Action, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("xtream %s: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not valid JSON for the
// expected shape.
type DecodeError struct {
	Action string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("xtream %s: decoding response: %v", e.Action, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client is an Xtream Codes API client.
type Client struct {
	// BaseURL is the server base URL (e.g., "http://example.com:8080").
	BaseURL string

	// Username is the API username.
	Username string

	// Password is the API password.
	Password string

	// HTTPClient is the standard HTTP client used for requests.
	// If nil, a default client with DefaultTimeout is used.
	HTTPClient *http.Client

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Xtream Codes API client.
// It accepts the standard *http.Client, allowing injection of any HTTP
// client implementation (standard, retrying wrapper, etc.).
func NewClient(baseURL, username, password string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		UserAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient sets a custom standard library HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.HTTPClient = client
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.UserAgent = ua
		}
	}
}

// apiURL builds the player_api.php URL with the given action and parameters.
// An empty action yields the bare authentication/user-info endpoint.
func (c *Client) apiURL(action string, params map[string]string) string {
	var u strings.Builder
	u.WriteString(fmt.Sprintf("%s%s?%s=%s&%s=%s",
		c.BaseURL,
		pathPlayerAPI,
		paramUsername, url.QueryEscape(c.Username),
		paramPassword, url.QueryEscape(c.Password)))

	if action != "" {
		u.WriteString("&" + paramAction + "=" + url.QueryEscape(action))
	}

	for k, v := range params {
		u.WriteString("&" + url.QueryEscape(k) + "=" + url.QueryEscape(v))
	}

	return u.String()
}

// get performs an HTTP GET and returns the raw body.
func (c *Client) get(ctx context.Context, action, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}

	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyReadSize))
		return nil, &TransportError{
			Action:     action,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	return body, nil
}

// doRequest performs a GET and decodes the JSON response into target.
func (c *Client) doRequest(ctx context.Context, action, requestURL string, target any) error {
	body, err := c.get(ctx, action, requestURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &DecodeError{Action: action, Err: err}
	}
	return nil
}

// GetLiveCategories retrieves all live stream categories.
func (c *Client) GetLiveCategories(ctx context.Context) ([]Category, error) {
	body, err := c.get(ctx, ActionGetLiveCategories, c.apiURL(ActionGetLiveCategories, nil))
	if err != nil {
		return nil, err
	}
	return DecodeCategories(body)
}

// GetLiveStreams retrieves all live streams.
func (c *Client) GetLiveStreams(ctx context.Context) ([]Stream, error) {
	body, err := c.get(ctx, ActionGetLiveStreams, c.apiURL(ActionGetLiveStreams, nil))
	if err != nil {
		return nil, err
	}
	return DecodeStreams(body)
}

// DecodeCategories decodes a get_live_categories payload. Exported so
// cached payloads take the same decode path as fresh responses.
func DecodeCategories(data []byte) ([]Category, error) {
	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, &DecodeError{Action: ActionGetLiveCategories, Err: err}
	}
	return categories, nil
}

// DecodeStreams decodes a get_live_streams payload.
func DecodeStreams(data []byte) ([]Stream, error) {
	var streams []Stream
	if err := json.Unmarshal(data, &streams); err != nil {
		return nil, &DecodeError{Action: ActionGetLiveStreams, Err: err}
	}
	return streams, nil
}

// GetSimpleDataTable retrieves the full EPG table for a stream, resolving
// the panel's response shape into a tagged variant. Any JSON value decodes;
// only transport failures and non-JSON bodies error.
func (c *Client) GetSimpleDataTable(ctx context.Context, streamID int64) (EPGTable, error) {
	params := map[string]string{paramStreamID: strconv.FormatInt(streamID, 10)}

	var table EPGTable
	if err := c.doRequest(ctx, ActionGetSimpleDataTable, c.apiURL(ActionGetSimpleDataTable, params), &table); err != nil {
		return EPGTable{Kind: EPGTableOther}, err
	}
	return table, nil
}

// GetRaw retrieves the raw body for an arbitrary player_api action.
// Used by the archive mode, which stores payloads as the panel sent them.
func (c *Client) GetRaw(ctx context.Context, action string) ([]byte, error) {
	return c.get(ctx, action, c.apiURL(action, nil))
}

// GetUserInfoRaw retrieves the raw authentication/user-info payload
// (player_api.php with no action).
func (c *Client) GetUserInfoRaw(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "user_info", c.apiURL("", nil))
}

// XMLTVURL returns the URL for the full XMLTV EPG file.
func (c *Client) XMLTVURL() string {
	return fmt.Sprintf("%s%s?%s=%s&%s=%s",
		c.BaseURL,
		pathXMLTV,
		paramUsername, url.QueryEscape(c.Username),
		paramPassword, url.QueryEscape(c.Password))
}

// GetXMLTVRaw retrieves the full XMLTV EPG data as raw bytes.
// Note: this can be a very large file.
func (c *Client) GetXMLTVRaw(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "xmltv", c.XMLTVURL())
}

// LiveStreamURL returns the direct playback URL for a live stream:
// {base}/{username}/{password}/{streamID}.
func (c *Client) LiveStreamURL(streamID int64) string {
	return fmt.Sprintf("%s/%s/%s/%d",
		c.BaseURL,
		url.PathEscape(c.Username),
		url.PathEscape(c.Password),
		streamID)
}
