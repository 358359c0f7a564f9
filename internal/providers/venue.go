package providers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/brensch/campcheck/internal/httpx"
)

func factoryOrDefault(f *httpx.Factory) *httpx.Factory {
	if f == nil {
		return httpx.Default()
	}
	return f
}

// expectOK turns a resty call result into a *TransportError unless it is a 200.
func expectOK(op string, res *resty.Response, err error) error {
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if res.StatusCode() != http.StatusOK {
		return &TransportError{Op: op, Status: res.StatusCode()}
	}
	return nil
}

// body returns the response body with any content encoding removed.
func body(res *resty.Response) ([]byte, error) {
	b, err := httpx.Decode(res.Header().Get("Content-Encoding"), res.Body())
	if err != nil {
		return nil, &ParseError{What: "Failed to decode response body", Err: err}
	}
	return b, nil
}

// parsePrice reads prices such as "$45.00", "45", "$1,045.50 per night" or
// "45.00/night". It reports false for anything without a leading number.
func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' {
			end++
			continue
		}
		break
	}
	num := strings.ReplaceAll(s[:end], ",", "")
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// jsonPrice accepts a price encoded as a JSON number or a string.
func jsonPrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, f >= 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parsePrice(s)
	}
	return 0, false
}

// hasCookie reports whether the jar holds a cookie called name for rawURL.
func hasCookie(jar http.CookieJar, rawURL, name string) bool {
	if jar == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == name {
			return true
		}
	}
	return false
}
