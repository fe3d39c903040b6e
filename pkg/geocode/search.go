package geocode

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/coordfill/internal/resilience"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// truncatedMarker ends an HTTPError body cut at maxBodyBytes.
const truncatedMarker = "... (truncated)"

// search performs one HTTP attempt. A 429 is reported as a
// resilience.TransientError so the retry loop picks it up.
func (c *Client) search(ctx context.Context, address, query string, attempt int) (*Coordinates, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Err: eris.Wrap(err, "geocode: rate limiter wait")}
	}

	req, err := c.newRequest(ctx, query)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("geocode: search request",
		zap.String("address", address),
		zap.Int("attempt", attempt),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	// One byte past the limit tells an oversized body from one that fits exactly.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &TransportError{Err: eris.Wrap(err, "geocode: read body")}
	}
	oversized := len(body) > maxBodyBytes
	if oversized {
		body = body[:maxBodyBytes]
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if oversized {
			return nil, &ParseError{Address: address, Reason: "response body exceeds " + strconv.Itoa(maxBodyBytes) + " bytes"}
		}
		return parseSearchResponse(address, body)
	case http.StatusTooManyRequests:
		return nil, resilience.NewTransientError(
			eris.Errorf("geocode: rate limited (attempt %d)", attempt),
			resp.StatusCode,
		)
	default:
		he := &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
		if oversized {
			he.Body += truncatedMarker
		}
		return nil, he
	}
}

func (c *Client) newRequest(ctx context.Context, query string) (*http.Request, error) {
	params := url.Values{
		"q":       {query},
		"api_key": {c.apiKey},
	}

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// parseSearchResponse extracts the first candidate from a search result array.
// lat/lon may be JSON strings or numbers; either way the raw text is kept and
// must parse as a float.
func parseSearchResponse(address string, body []byte) (*Coordinates, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Address: address, Reason: "invalid JSON"}
	}

	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, &ParseError{Address: address, Reason: "expected a JSON array"}
	}

	candidates := result.Array()
	if len(candidates) == 0 {
		return nil, &NotFoundError{Address: address}
	}

	first := candidates[0]
	lat, ok := coordinateText(first.Get("lat"))
	if !ok {
		return nil, &ParseError{Address: address, Reason: "first candidate has no usable lat"}
	}
	lon, ok := coordinateText(first.Get("lon"))
	if !ok {
		return nil, &ParseError{Address: address, Reason: "first candidate has no usable lon"}
	}

	return &Coordinates{Lat: lat, Lon: lon}, nil
}

func coordinateText(v gjson.Result) (string, bool) {
	var text string
	switch v.Type {
	case gjson.String:
		text = strings.TrimSpace(v.Str)
	case gjson.Number:
		text = v.Raw
	default:
		return "", false
	}
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return "", false
	}
	return text, true
}

// normalizeAddress trims the address and puts it in NFC form so that
// visually identical inputs produce the same query.
func normalizeAddress(address string) string {
	return norm.NFC.String(strings.TrimSpace(address))
}
