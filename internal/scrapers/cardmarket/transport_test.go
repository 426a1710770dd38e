package cardmarket

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const page = `<html><body><h1>Black Lotus</h1></body></html>`

func encodedResponder(encoding string, body []byte) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		res := httpmock.NewBytesResponse(http.StatusOK, body)
		if encoding != "" {
			res.Header.Set("Content-Encoding", encoding)
		}
		return res, nil
	}
}

func TestDecodingTransport(t *testing.T) {
	var gzipped bytes.Buffer
	gz := gzip.NewWriter(&gzipped)
	_, err := gz.Write([]byte(page))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	var brotlied bytes.Buffer
	br := brotli.NewWriter(&brotlied)
	_, err = br.Write([]byte(page))
	require.NoError(t, err)
	require.NoError(t, br.Close())

	mock := httpmock.NewMockTransport()
	mock.RegisterResponder("GET", "https://cardmarket.test/gzip", encodedResponder("gzip", gzipped.Bytes()))
	mock.RegisterResponder("GET", "https://cardmarket.test/br", encodedResponder("br", brotlied.Bytes()))
	mock.RegisterResponder("GET", "https://cardmarket.test/plain", encodedResponder("", []byte(page)))

	client := &http.Client{Transport: decodingTransport{inner: mock}}
	for _, path := range []string{"gzip", "br", "plain"} {
		t.Run(path, func(t *testing.T) {
			res, err := client.Get("https://cardmarket.test/" + path)
			require.NoError(t, err)
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			require.Equal(t, page, string(body))
			require.Empty(t, res.Header.Get("Content-Encoding"))
		})
	}
}

func TestIsChallenge(t *testing.T) {
	mitigated := http.Header{}
	mitigated.Set("cf-mitigated", "challenge")
	require.True(t, isChallenge(http.StatusOK, mitigated, ""))

	require.True(t, isChallenge(http.StatusForbidden, http.Header{}, `<title>Just a moment...</title>`))
	require.True(t, isChallenge(http.StatusServiceUnavailable, http.Header{}, `<script src="/cdn-cgi/challenge-platform/x.js"></script>`))
	require.False(t, isChallenge(http.StatusForbidden, http.Header{}, `<h1>Forbidden</h1>`))
	require.False(t, isChallenge(http.StatusOK, http.Header{}, `Just a moment...`))
}
