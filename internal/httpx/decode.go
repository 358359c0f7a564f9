package httpx

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Decode returns the plain body for the given Content-Encoding. Bodies that the
// transport already inflated are returned untouched, so it is safe to call on
// every response.
func Decode(contentEncoding string, body []byte) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}
	enc := strings.ToLower(strings.TrimSpace(contentEncoding))
	switch {
	case isGzip(body):
		return inflate(gzip.NewReader(bytes.NewReader(body)))
	case enc == "br":
		if looksPlain(body) {
			return body, nil
		}
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli decode: %w", err)
		}
		return out, nil
	case enc == "deflate":
		if looksPlain(body) {
			return body, nil
		}
		if out, err := inflate(zlib.NewReader(bytes.NewReader(body))); err == nil {
			return out, nil
		}
		return inflate(flate.NewReader(bytes.NewReader(body)), nil)
	default:
		return body, nil
	}
}

func inflate(r io.ReadCloser, err error) ([]byte, error) {
	if err != nil {
		return nil, fmt.Errorf("open compressed body: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read compressed body: %w", err)
	}
	return out, nil
}

func isGzip(b []byte) bool {
	return len(b) > 2 && b[0] == 0x1f && b[1] == 0x8b
}

// looksPlain reports whether the body already starts like JSON or HTML text.
func looksPlain(b []byte) bool {
	t := bytes.TrimLeft(b, " \t\r\n")
	if len(t) == 0 {
		return true
	}
	switch t[0] {
	case '{', '[', '<', '"':
		return true
	}
	return false
}
