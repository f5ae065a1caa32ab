package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"leetcode_backend/internal/common"

	"github.com/go-chi/httplog/v2"
)

// Request bodies carry source code and test data; 4 MiB is generous.
const maxBodyBytes = 4 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, common.ErrBadRequest)
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return fmt.Errorf("invalid request body: trailing data: %w", common.ErrBadRequest)
	}
	return nil
}

func requestLogger(r *http.Request) *slog.Logger {
	return httplog.LogEntry(r.Context())
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	common.RespondWithServiceError(requestLogger(r), w, err)
}
