package cardmarket

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// acceptEncoding is what a desktop browser advertises. Setting it by hand
// turns off net/http's transparent gzip handling, decodingTransport takes over.
const acceptEncoding = "gzip, br"

// decodingTransport decompresses gzip and brotli response bodies.
type decodingTransport struct {
	inner http.RoundTripper
}

type decodedBody struct {
	io.Reader
	closer io.Closer
}

func (b decodedBody) Close() error {
	return b.closer.Close()
}

func (t decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	switch strings.ToLower(strings.TrimSpace(res.Header.Get("Content-Encoding"))) {
	case "br":
		reader = brotli.NewReader(res.Body)
	case "gzip":
		gz, err := gzip.NewReader(res.Body)
		if err != nil {
			res.Body.Close()
			return nil, err
		}
		reader = gz
	default:
		return res, nil
	}

	res.Body = decodedBody{Reader: reader, closer: res.Body}
	res.Header.Del("Content-Encoding")
	res.Header.Del("Content-Length")
	res.ContentLength = -1
	res.Uncompressed = true
	return res, nil
}

// isChallenge reports whether a response is the anti-bot interstitial instead
// of the page that was asked for.
func isChallenge(status int, header http.Header, body string) bool {
	if strings.EqualFold(header.Get("cf-mitigated"), "challenge") {
		return true
	}
	if status != http.StatusForbidden && status != http.StatusServiceUnavailable {
		return false
	}
	return strings.Contains(body, "challenge-platform") ||
		strings.Contains(body, "cf-chl") ||
		strings.Contains(body, "Just a moment...")
}
