package models

import (
	"time"

	"gorm.io/datatypes"
)

// IdempotencyKey stores the first successful response for a given request hash.
type IdempotencyKey struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Key            string          `json:"key" gorm:"size:128;uniqueIndex"` // header value
	RequestHash    string          `json:"request_hash" gorm:"size:64"`     // sha256 of method|path|body
	Method         string          `json:"method" gorm:"size:10"`
	Path           string          `json:"path" gorm:"type:text"` // with query string
	ResponseStatus int             `json:"response_status"`       // 0 => not completed yet
	ResponseBody   *datatypes.JSON `json:"-"`                     // nil when the response had no JSON body
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at"`
}

// Body returns the stored response body, or nil.
func (k IdempotencyKey) Body() []byte {
	if k.ResponseBody == nil {
		return nil
	}
	return *k.ResponseBody
}

// Pending reports whether the request owning this key has not finished yet.
func (k IdempotencyKey) Pending() bool {
	return k.ResponseStatus == 0
}
