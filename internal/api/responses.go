package api

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/exp/slog"
)

//nolint:gochecknoglobals // This should be treated as a constant.
var responseHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

type messageBody struct {
	Message string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
}

func headers() map[string]string {
	h := make(map[string]string, len(responseHeaders))
	for k, v := range responseHeaders {
		h[k] = v
	}
	return h
}

func jsonResponse(status int, body any) (events.APIGatewayProxyResponse, error) {
	resBody, err := json.Marshal(body)
	if err != nil {
		slog.Error("Could not marshal response body", "error", err)
		return internalErrorResponse(), nil
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers(), Body: string(resBody)}, nil
}

func messageResponse(status int, message string) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(status, messageBody{Message: message})
}

func errorResponse(status int, message string) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(status, errorBody{Error: message})
}

func internalErrorResponse() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusInternalServerError,
		Headers:    headers(),
		Body:       `{"message":"Internal Server Error"}`,
	}
}
