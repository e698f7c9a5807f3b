package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/hamperland/storefront/internal/config"
	"golang.org/x/exp/slog"
)

type LambdaFunc func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Route binds a method and path template such as `/orders/{id}` to a handler.
// Templates are plain paths with {name} placeholders; no other regular
// expression syntax is allowed in them.
type Route struct {
	Method   string
	Template string
	Handler  LambdaFunc

	pattern *regexp.Regexp
}

var templateParam = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

func newRoute(method, template string, handler LambdaFunc) Route {
	expr := "^" + templateParam.ReplaceAllString(template, `(?P<$1>[^/]+)`) + "/?$"
	return Route{
		Method:   method,
		Template: template,
		Handler:  handler,
		pattern:  regexp.MustCompile(expr),
	}
}

// match reports whether the route serves path, returning the path parameters
// named in its template.
func (r Route) match(method, path string) (map[string]string, bool) {
	if r.Method != method {
		return nil, false
	}
	matches := r.pattern.FindStringSubmatch(path)
	if matches == nil {
		return nil, false
	}

	params := map[string]string{}
	for i, name := range r.pattern.SubexpNames() {
		if name != "" {
			params[name] = matches[i]
		}
	}
	return params, true
}

func Routes(config config.Config) []Route {
	return []Route{
		// Place an order
		// `POST /orders`
		newRoute(http.MethodPost, "/orders", createOrder(config)),

		// Fetch an order
		// `GET /orders/{id}`
		newRoute(http.MethodGet, "/orders/{id}", getOrder(config)),

		// List products
		// `GET /products`
		newRoute(http.MethodGet, "/products", listProducts(config)),

		// Create a product and obtain an image upload URL
		// `POST /products`
		newRoute(http.MethodPost, "/products", createProduct(config)),
	}
}

func getRouteHandler(routes []Route, req *events.APIGatewayProxyRequest) LambdaFunc {
	for _, route := range routes {
		params, ok := route.match(req.HTTPMethod, req.Path)
		if !ok {
			continue
		}
		// API Gateway fills path parameters for explicit resources but not
		// for greedy proxy resources
		if req.PathParameters == nil {
			req.PathParameters = map[string]string{}
		}
		for name, value := range params {
			if _, set := req.PathParameters[name]; !set {
				req.PathParameters[name] = value
			}
		}
		return route.Handler
	}
	return nil
}

func setupLogging(req events.APIGatewayProxyRequest) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger = logger.
		With("method", req.HTTPMethod).
		With("path", req.Path).
		With("request_id", req.RequestContext.RequestID)
	slog.SetDefault(logger)
}

func Router(config config.Config) LambdaFunc {
	routes := Routes(config)
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		setupLogging(req)

		ctx, segment := xray.BeginSubsegment(ctx, "storefront.handle")
		handler := getRouteHandler(routes, &req)
		if handler == nil {
			segment.Close(nil)
			return messageResponse(http.StatusNotFound, fmt.Sprintf("No route handler found for %s %s", req.HTTPMethod, req.Path))
		}

		response, err := handler(ctx, req)
		segment.Close(err)

		return response, err
	}
}
