package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vmikell/urlapi/internal/app/models"
	"github.com/vmikell/urlapi/internal/app/services"
)

// Health check
func (h Handlers) Health(ctx context.Context, req Request) Response {
	return BuildResponse(http.StatusOK, nil)
}

// Get record by urlId query parameter
func (h Handlers) GetURL(ctx context.Context, req Request) Response {
	record, err := h.records.Get(ctx, req.QueryStringParameters[models.KeyField])
	if err != nil {
		return errorResponse(err)
	}

	return BuildResponse(http.StatusOK, record)
}

// List all records
func (h Handlers) GetURLs(ctx context.Context, req Request) Response {
	records, err := h.records.List(ctx)
	if err != nil {
		return errorResponse(err)
	}

	return BuildResponse(http.StatusOK, models.RecordList{URLs: records})
}

// Save record from body
func (h Handlers) SaveURL(ctx context.Context, req Request) Response {
	record, err := h.records.Save(ctx, []byte(req.Body))
	if err != nil {
		return errorResponse(err)
	}

	return BuildResponse(http.StatusOK, models.NewOperationResult(models.OperationSave, record))
}

// Update single record field
func (h Handlers) ModifyURL(ctx context.Context, req Request) Response {
	updated, err := h.records.Modify(ctx, []byte(req.Body))
	if err != nil {
		return errorResponse(err)
	}

	return BuildResponse(http.StatusOK, models.NewOperationResult(models.OperationUpdate, updated))
}

// Delete record by urlId from body, falling back to the query parameter
func (h Handlers) DeleteURL(ctx context.Context, req Request) Response {
	urlID := req.QueryStringParameters[models.KeyField]
	if req.Body != "" {
		var body models.DeleteRequest
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			return errorResponse(fmt.Errorf("%w: body must be a JSON object", services.ErrBadRequest))
		}
		if body.URLID != "" {
			urlID = body.URLID
		}
	}

	prior, err := h.records.Delete(ctx, urlID)
	if err != nil {
		return errorResponse(err)
	}

	return BuildResponse(http.StatusOK, models.NewOperationResult(models.OperationDelete, prior))
}
