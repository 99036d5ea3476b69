package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/yourorg/domus-api/internal/auth"
)

const maxRequestBody = 1 << 20

type errorBody struct {
	Error  string            `json:"error"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	render.Status(r, status)
	render.JSON(w, r, errorBody{Error: code, Detail: detail})
}

// writeFieldError reports a form validation failure with its message keyed
// by field name, so clients can show it inline.
func writeFieldError(w http.ResponseWriter, r *http.Request, fe *auth.FieldError) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorBody{
		Error:  "validation_failed",
		Detail: fe.Msg,
		Fields: map[string]string{fe.Field: fe.Msg},
	})
}

func writeStorageUnavailable(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusServiceUnavailable, "storage_unavailable", "persistence is not configured")
}

func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
}

// decodeJSON reads a size-limited JSON body into dst. An empty body leaves
// dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
