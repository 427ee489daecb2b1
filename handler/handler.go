package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"omniai/internal/usecase"
)

// Handler serves the API both over net/http and as an API Gateway proxy
// integration.
type Handler struct {
	router http.Handler
}

func NewHandler(router http.Handler) (*Handler, error) {
	if router == nil {
		return nil, errors.New("handler: router must not be nil")
	}
	return &Handler{router: router}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Handle converts an API Gateway proxy event into an HTTP request, runs it
// through the router and converts the result back. Non-text responses are
// returned base64 encoded.
func (h *Handler) Handle(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(ev.Body)
	if ev.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			return jsonResponse(http.StatusBadRequest, errorResponse{
				Error:  string(usecase.ErrorInvalidInput),
				Reason: "invalid_body_encoding",
				Detail: err.Error(),
			}), nil
		}
		body = decoded
	}

	target := ev.Path
	if target == "" {
		target = "/"
	}
	if q := eventQuery(ev); len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, ev.HTTPMethod, target, bytes.NewReader(body))
	if err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "invalid_request",
			Detail: err.Error(),
		}), nil
	}
	for k, vs := range ev.MultiValueHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range ev.Headers {
		req.Header.Set(k, v)
	}
	req.RemoteAddr = ev.RequestContext.Identity.SourceIP

	rec := &bufferedResponse{header: http.Header{}}
	h.router.ServeHTTP(rec, req)
	return rec.proxyResponse(), nil
}

func eventQuery(ev events.APIGatewayProxyRequest) url.Values {
	q := url.Values{}
	for k, vs := range ev.MultiValueQueryStringParameters {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	for k, v := range ev.QueryStringParameters {
		if _, ok := q[k]; !ok {
			q.Set(k, v)
		}
	}
	return q
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"INTERNAL_ERROR","reason":"response_encode_error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

// bufferedResponse collects a router response in memory.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) proxyResponse() events.APIGatewayProxyResponse {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	resp := events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           make(map[string]string, len(b.header)),
		MultiValueHeaders: make(map[string][]string, len(b.header)),
	}
	for k, vs := range b.header {
		if len(vs) == 0 {
			continue
		}
		resp.Headers[k] = vs[0]
		resp.MultiValueHeaders[k] = vs
	}
	if isTextual(b.header.Get("Content-Type")) {
		resp.Body = b.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(b.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

func isTextual(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/") ||
		strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "application/xml")
}
