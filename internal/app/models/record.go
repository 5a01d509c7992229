package models

import (
	"encoding/json"
	"maps"
)

// KeyField is the attribute every stored record is keyed by
const KeyField = "urlId"

// Record is a schema-less URL record. Only KeyField is required.
type Record map[string]any

// URLID returns the record key, "" when it is absent or not a string
func (r Record) URLID() string {
	id, _ := r[KeyField].(string)
	return id
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}

	return maps.Clone(r)
}

// UpdateRequest is the PATCH /url payload
type UpdateRequest struct {
	URLID       string          `json:"urlId"`
	UpdateKey   string          `json:"updateKey"`
	UpdateValue json.RawMessage `json:"updateValue"`
}

// DeleteRequest is the DELETE /url payload
type DeleteRequest struct {
	URLID string `json:"urlId"`
}

// Operation tags
const (
	OperationSave   = "SAVE"
	OperationUpdate = "UPDATE"
	OperationDelete = "DELETE"
)

// OperationResult is the body of a successful write
type OperationResult struct {
	Operation string `json:"Operation"`
	Message   string `json:"Message"`
	Item      Record `json:"Item"`
}

// NewOperationResult
func NewOperationResult(operation string, item Record) OperationResult {
	return OperationResult{
		Operation: operation,
		Message:   "SUCCESS",
		Item:      item,
	}
}

// RecordList is the body of GET /urls
type RecordList struct {
	URLs []Record `json:"urls"`
}
