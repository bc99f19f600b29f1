package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

// HTTPTriggerRequest is the invocation payload the Functions host posts for an HTTP trigger.
type HTTPTriggerRequest struct {
	Data struct {
		Req triggerHTTPRequest `json:"req"`
	} `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

type triggerHTTPRequest struct {
	URL             string              `json:"Url"`
	Method          string              `json:"Method"`
	Query           map[string]string   `json:"Query"`
	Headers         map[string][]string `json:"Headers"`
	Params          map[string]string   `json:"Params"`
	Body            string              `json:"Body"`
	IsBase64Encoded bool                `json:"isBase64Encoded"`
}

// HTTPTriggerResponse is what the host expects back: the wrapped response under Outputs.res.
type HTTPTriggerResponse struct {
	Outputs struct {
		Res triggerHTTPResponse `json:"res"`
	} `json:"Outputs"`
	Logs        []string `json:"Logs,omitempty"`
	ReturnValue any      `json:"ReturnValue,omitempty"`
}

type triggerHTTPResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// requestBody returns the wrapped request body. Some hosts send base64 without setting
// isBase64Encoded, so decoding is attempted either way; multipart uploads rely on this.
func requestBody(body string, isBase64 bool) []byte {
	if body == "" {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(body); err == nil {
		return decoded
	} else if isBase64 {
		return nil
	}
	return []byte(body)
}

// toRequest rebuilds the original request. Query values the host lifted out of the URL are put back.
func (t triggerHTTPRequest) toRequest(ctx context.Context) (*http.Request, error) {
	u, err := url.Parse(t.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", t.URL, err)
	}
	if len(t.Query) > 0 {
		q := u.Query()
		for k, v := range t.Query {
			if !q.Has(k) {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader = http.NoBody
	if b := requestBody(t.Body, t.IsBase64Encoded); b != nil {
		body = bytes.NewReader(b)
	}
	method := strings.ToUpper(t.Method)
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range t.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func triggerResponse(rec *httptest.ResponseRecorder) HTTPTriggerResponse {
	result := rec.Result()
	defer result.Body.Close()
	body, _ := io.ReadAll(result.Body)

	var out HTTPTriggerResponse
	out.Outputs.Res = triggerHTTPResponse{
		StatusCode: result.StatusCode,
		Headers:    make(map[string]string, len(result.Header)),
		Body:       string(body),
	}
	for k, v := range result.Header {
		out.Outputs.Res.Headers[k] = strings.Join(v, ", ")
	}
	return out
}

// HandleHttpTrigger unwraps a Functions HTTP invocation, serves it with next (normally the router
// itself) and wraps the recorded response.
func (d *Dependencies) HandleHttpTrigger(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := d.log(r)

		var invokeReq HTTPTriggerRequest
		if err := json.NewDecoder(r.Body).Decode(&invokeReq); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal HTTP trigger request")
			http.Error(w, "Failed to unmarshal request", http.StatusBadRequest)
			return
		}

		inner, err := invokeReq.Data.Req.toRequest(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to create internal request")
			http.Error(w, "Failed to create internal request", http.StatusInternalServerError)
			return
		}
		log.Debug().Str("method", inner.Method).Str("path", inner.URL.Path).Msg("dispatching wrapped HTTP request")

		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, inner)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(triggerResponse(rec)); err != nil {
			log.Error().Err(err).Msg("failed to encode HTTP trigger response")
		}
	}
}
