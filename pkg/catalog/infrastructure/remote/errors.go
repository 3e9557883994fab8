package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"catalogadmin/pkg/catalog/domain/model"
)

const maxMessageLength = 512

// networkError covers failures where no usable response arrived.
func networkError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &model.TransportError{Message: "request was cancelled", Err: ctxErr}
	}
	return &model.TransportError{Message: err.Error(), Err: err}
}

func statusError(status int, body []byte, resourceID int) error {
	message := responseMessage(status, body)
	if status == http.StatusNotFound && resourceID != 0 {
		return &model.NotFoundError{ID: resourceID, Message: message}
	}
	return &model.TransportError{Status: status, Message: message}
}

// responseMessage prefers the JSON "message" field, then the raw body, then the status text.
func responseMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	return truncate(text, maxMessageLength)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// echoedProduct decodes a write response while remembering which fields were present.
type echoedProduct struct {
	ID     int
	Fields model.ProductPatch
}

func (e *echoedProduct) UnmarshalJSON(data []byte) error {
	var id struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(data, &id); err != nil {
		return errors.Wrap(err, "decode product id")
	}
	if id.ID != nil {
		e.ID = *id.ID
	}
	return errors.Wrap(json.Unmarshal(data, &e.Fields), "decode product fields")
}

// result falls back to requestedID when the server did not echo an identifier.
func (e echoedProduct) result(requestedID int) model.WriteResult {
	id := e.ID
	if id == 0 {
		id = requestedID
	}
	return model.WriteResult{ID: id, Echoed: e.Fields}
}
