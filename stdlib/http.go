// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package stdlib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grailbio/base/retry"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
	"github.com/trustmaster/goflyde/values"
)

// httpRetryPolicy retries transient request failures (network errors
// and 5xx responses).
var httpRetryPolicy = retry.MaxTries(retry.Backoff(500*time.Millisecond, 5*time.Second, 1.5), 3)

// httpClient is the client used by Http nodes. It is a package
// variable so tests can substitute a transport.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// Http performs an HTTP request per input and emits the decoded
// response body. The url pin is a queue input unless configured with
// a literal; method, headers, params and data follow their
// macroData entries and default to a GET with no headers, query
// parameters or body.
func newHTTP(a node.Args) (node.Node, error) {
	urlIn := port.NewInput("url", "URL to request").WithType("string")
	methodIn := port.NewInput("method", "HTTP method").WithType("string").AsStatic("GET")
	headersIn := port.NewInput("headers", "HTTP headers").AsStatic(values.Map{})
	paramsIn := port.NewInput("params", "URL parameters").AsStatic(values.Map{})
	dataIn := port.NewInput("data", "Request body").AsStatic(values.Map{})
	if cfg, ok := parsePinConfig(a.Config["url"]); ok {
		if !cfg.dynamic() {
			urlIn.AsStatic(cfg.Value)
		}
	}
	for pin, in := range map[string]*port.Input{
		"method":  methodIn,
		"headers": headersIn,
		"params":  paramsIn,
		"data":    dataIn,
	} {
		if cfg, ok := parsePinConfig(a.Config[pin]); ok {
			applyPinConfig(in, cfg)
		}
	}
	c := node.New(a).
		WithDescription("Makes an HTTP request").
		WithInputs(urlIn, methodIn, headersIn, paramsIn, dataIn).
		WithOutputs(port.NewOutput("data", "Response data"))
	return c.WithProcess(func(in values.Map) (values.T, error) {
		reqURL, ok := in["url"].(string)
		if !ok {
			return nil, errors.Errorf("url is not a string: %v", in["url"])
		}
		method, _ := in["method"].(string)
		if method == "" {
			method = "GET"
		}
		reqURL, err := mergeParams(reqURL, in["params"])
		if err != nil {
			return nil, err
		}
		var (
			resp    *http.Response
			lastErr error
		)
		for retries := 0; ; retries++ {
			resp, lastErr = do(method, reqURL, in["headers"], in["data"])
			if lastErr == nil && resp.StatusCode < 500 {
				break
			}
			if lastErr == nil {
				lastErr = errors.Errorf("%s %s: %s", method, reqURL, resp.Status)
				resp.Body.Close()
			}
			if rerr := retry.Wait(c.Context(), httpRetryPolicy, retries); rerr != nil {
				return nil, lastErr
			}
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			io.Copy(io.Discard, resp.Body)
			return nil, errors.Errorf("%s %s: %s", method, reqURL, resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return values.Map{"data": decodeBody(resp.Header.Get("Content-Type"), body)}, nil
	}), nil
}

func do(method, reqURL string, headers, data values.T) (*http.Response, error) {
	var body io.Reader
	if m, ok := data.(values.Map); ok && len(m) > 0 && method != "GET" {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		return nil, err
	}
	if m, ok := headers.(values.Map); ok {
		for k, v := range m {
			req.Header.Set(k, fmt.Sprint(v))
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return httpClient.Do(req)
}

// mergeParams folds extra query parameters into the request URL,
// keeping any parameters already present.
func mergeParams(reqURL string, params values.T) (string, error) {
	m, ok := params.(values.Map)
	if !ok || len(m) == 0 {
		return reqURL, nil
	}
	u, err := url.Parse(reqURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range m {
		q.Set(k, fmt.Sprint(v))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decodeBody interprets the response by content type: JSON becomes a
// payload value, other text becomes a string, and everything else
// stays binary.
func decodeBody(contentType string, body []byte) values.T {
	switch {
	case strings.Contains(contentType, "json"):
		var v values.T
		if err := json.Unmarshal(body, &v); err == nil {
			return normalizeJSON(v)
		}
		return string(body)
	case strings.HasPrefix(contentType, "text/"),
		strings.Contains(contentType, "xml"),
		strings.Contains(contentType, "javascript"):
		return string(body)
	}
	return body
}

// normalizeJSON rewrites decoded JSON into the payload shapes used
// throughout the runtime.
func normalizeJSON(v values.T) values.T {
	switch v := v.(type) {
	case map[string]interface{}:
		m := make(values.Map, len(v))
		for k, e := range v {
			m[k] = normalizeJSON(e)
		}
		return m
	case []interface{}:
		l := make(values.List, len(v))
		for i, e := range v {
			l[i] = normalizeJSON(e)
		}
		return l
	}
	return v
}
