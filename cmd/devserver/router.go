package main

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"
	"github.com/hamperland/storefront/internal/api"
	"golang.org/x/exp/slog"
)

// NewRouter registers every API route on a gorilla/mux router. Route
// templates use the same {name} placeholders mux does.
func NewRouter(routes []api.Route) *mux.Router {
	r := mux.NewRouter()
	for _, route := range routes {
		r.HandleFunc(route.Template, adapt(route.Handler)).Methods(route.Method)
	}
	return r
}

// adapt serves a lambda handler by translating between net/http and API
// Gateway proxy events.
func adapt(handler api.LambdaFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "could not read body", http.StatusBadRequest)
			return
		}

		req := events.APIGatewayProxyRequest{
			HTTPMethod:            r.Method,
			Path:                  r.URL.Path,
			Headers:               map[string]string{},
			QueryStringParameters: map[string]string{},
			PathParameters:        mux.Vars(r),
			Body:                  string(body),
		}
		for name := range r.Header {
			req.Headers[name] = r.Header.Get(name)
		}
		for name := range r.URL.Query() {
			req.QueryStringParameters[name] = r.URL.Query().Get(name)
		}

		resp, err := handler(r.Context(), req)
		if err != nil {
			slog.Error("Handler failed", "method", r.Method, "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		for name, value := range resp.Headers {
			w.Header().Set(name, value)
		}
		for name, values := range resp.MultiValueHeaders {
			for _, value := range values {
				w.Header().Add(name, value)
			}
		}
		w.WriteHeader(resp.StatusCode)

		out := []byte(resp.Body)
		if resp.IsBase64Encoded {
			if out, err = base64.StdEncoding.DecodeString(resp.Body); err != nil {
				slog.Error("Invalid base64 response body", "error", err)
				return
			}
		}
		_, _ = w.Write(out)
	}
}
