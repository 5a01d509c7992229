package handlers

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// HandleAPIGatewayProxy adapts an API Gateway REST proxy event to Dispatch.
// The returned error is always nil so API Gateway gets the status code from
// the response instead of a generic integration failure.
func (h Handlers) HandleAPIGatewayProxy(
	ctx context.Context,
	event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return toProxyResponse(BuildResponse(
				http.StatusBadRequest,
				ErrorBody{Message: "body is not valid base64: " + err.Error()},
			)), nil
		}
		body = string(decoded)
	}

	resp := h.Dispatch(ctx, Request{
		Method:                event.HTTPMethod,
		Path:                  event.Path,
		QueryStringParameters: event.QueryStringParameters,
		Body:                  body,
	})

	return toProxyResponse(resp), nil
}

func toProxyResponse(resp Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}
