package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vmikell/urlapi/internal/app/logger"
	"github.com/vmikell/urlapi/internal/app/services"
)

const encodeFailureBody = `{"Message":"failed to encode response body"}`

// ErrorBody is the body of every error response
type ErrorBody struct {
	Message string `json:"Message"`
}

// BuildResponse encodes body as JSON. A nil body gives an empty payload.
func BuildResponse(statusCode int, body any) Response {
	resp := Response{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
	if body == nil {
		return resp
	}

	data, err := json.Marshal(body)
	if err != nil {
		logger.Log.Error("failed to encode response body", zap.Error(err))
		resp.StatusCode = http.StatusInternalServerError
		resp.Body = encodeFailureBody
		return resp
	}
	resp.Body = string(data)

	return resp
}

func errorResponse(err error) Response {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}

	return BuildResponse(status, ErrorBody{Message: err.Error()})
}
