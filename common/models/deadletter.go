package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// Dead-letter reasons.
const (
	ReasonSchemaValidationFailed = "SCHEMA_VALIDATION_FAILED"
	ReasonBusPublishError        = "BUS_PUBLISH_ERROR"
)

// DeadLetterRecord is the message published to the dead-letter channel.
// ValidationErrors is set for schema rejections; Error for publish
// failures. Exactly one of the two is populated per record.
type DeadLetterRecord struct {
	OriginalEvent    json.RawMessage `json:"original_event"`
	ValidationErrors []string        `json:"validation_errors,omitempty"`
	Error            string          `json:"error,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
	Reason           string          `json:"reason"`
}
