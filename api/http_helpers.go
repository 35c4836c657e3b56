package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"positionsmap/highlight"
	"positionsmap/metastore"
	"positionsmap/positionsmap"
	"positionsmap/segment"
)

var (
	// errBadRequest marks request bodies that could not be decoded.
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("request body too large")
)

const maxRequestBytes = 16 << 20

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeJSON encodes data as JSON and writes it with status.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeError maps err to a status and writes it as a JSON error.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", fields...)
	} else {
		s.log.Warn("request rejected", fields...)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func classify(err error) (int, string) {
	if k := positionsmap.KindOf(err); k != positionsmap.KindUnknown {
		switch k {
		case positionsmap.KindNonMonotonicInput, positionsmap.KindInvalidElementType:
			return http.StatusBadRequest, k.String()
		case positionsmap.KindDecodingFailure, positionsmap.KindDecompressionFailure:
			return http.StatusUnprocessableEntity, k.String()
		default:
			return http.StatusInternalServerError, k.String()
		}
	}

	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, metastore.ErrDocumentNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, metastore.ErrDocumentExists):
		return http.StatusConflict, "exists"
	case errors.Is(err, metastore.ErrInvalidName):
		return http.StatusBadRequest, "invalid_name"
	case errors.Is(err, highlight.ErrWordOutOfRange), errors.Is(err, highlight.ErrOffsetOutOfText):
		return http.StatusBadRequest, "out_of_range"
	case errors.Is(err, segment.ErrBadHeader), errors.Is(err, segment.ErrBadFooter):
		return http.StatusUnprocessableEntity, "bad_segment"
	case errors.Is(err, ErrSchedulerStopped):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeJSON reads one JSON value from the request body. Numbers are kept
// as json.Number so large positions survive. Bodies over maxRequestBytes
// are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
