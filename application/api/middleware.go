package api

import (
	"errors"
	"net/http"

	"github.com/0xAtelerix/sdk/gosdk/rpc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-Id"

// ErrNilRequestBody is returned when the request body is nil
var ErrNilRequestBody = errors.New("request body is nil")

// RequestLogger tags every JSON-RPC exchange with a request id and logs it.
type RequestLogger struct {
	log zerolog.Logger
}

func NewRequestLogger(log zerolog.Logger) *RequestLogger {
	return &RequestLogger{
		log: log,
	}
}

func (m *RequestLogger) ProcessRequest(
	w http.ResponseWriter,
	r *http.Request,
) error {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}

	w.Header().Set(RequestIDHeader, id)

	m.log.Debug().
		Str("request_id", id).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("RPC request")

	if r.Body == nil {
		return ErrNilRequestBody
	}

	return nil
}

func (m *RequestLogger) ProcessResponse(
	w http.ResponseWriter,
	_ *http.Request,
	response rpc.JSONRPCResponse,
) error {
	id := w.Header().Get(RequestIDHeader)

	if response.Error != nil {
		m.log.Warn().
			Str("request_id", id).
			Interface("rpc_id", response.ID).
			Msgf("RPC error: %v", response.Error)

		return nil
	}

	m.log.Debug().
		Str("request_id", id).
		Interface("rpc_id", response.ID).
		Msg("RPC response")

	return nil
}
