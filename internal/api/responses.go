package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/encoder"
)

// StatusCode maps an error code to its HTTP status.
func StatusCode(code apierr.Code) int {
	switch code {
	case apierr.Validation:
		return http.StatusBadRequest
	case apierr.NotFound:
		return http.StatusNotFound
	case apierr.Unsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := apierr.Normalize(err)
	writeJSON(w, StatusCode(apiErr.Code), apiErr)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeArrow writes a columnar buffer as a raw Arrow IPC stream.
func writeArrow(w http.ResponseWriter, buf *encoder.ColumnarBuffer) {
	w.Header().Set("Content-Type", encoder.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(buf.Bytes)))
	w.Header().Set("X-Row-Count", strconv.Itoa(buf.Rows))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes)
}
