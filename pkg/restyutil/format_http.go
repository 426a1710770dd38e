package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// form fields whose values never make it into a dump
var redactedFields = map[string]bool{
	"userPassword": true,
	"password":     true,
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{}
	for _, k := range keys {
		value := strings.Join(headers[k], ", ")
		if strings.EqualFold(k, "Cookie") || strings.EqualFold(k, "Set-Cookie") {
			value = "<redacted>"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", k, value))
	}
	return strings.Join(lines, "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return "<NO BODY>"
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return redactForm(string(raw))
}

func redactForm(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return body
	}
	touched := false
	for field := range values {
		if redactedFields[field] {
			values.Set(field, "<redacted>")
			touched = true
		}
	}
	if !touched {
		return body
	}
	return values.Encode()
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: request body
// 5: response status
// 6: response headers in ("Key: Value" format)
// 7: response body
const messageInfoTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s

%s

%s`

// FormatHttpMessage renders a full request/response exchange, credentials and
// cookies are redacted.
func FormatHttpMessage(res *resty.Response) string {
	var reqHeaders http.Header
	var rawReq *http.Request
	if res.Request != nil && res.Request.RawRequest != nil {
		rawReq = res.Request.RawRequest
		reqHeaders = rawReq.Header
	}

	return fmt.Sprintf(
		messageInfoTemplate,

		res.Request.Method, res.Request.URL,
		formatHeaders(reqHeaders),
		formatRequestBody(rawReq),

		strconv.Itoa(res.StatusCode()),
		formatHeaders(res.Header()),
		res.String(),
	)
}
