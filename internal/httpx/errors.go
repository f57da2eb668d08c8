package httpx

import (
	"errors"
	"net/http"

	"github.com/varunvs7692/chaos-negotiator/internal/engine"
)

// writeEngineError maps an engine.Error's Kind to the section 7 status
// table (400/503/504) and writes it; unrecognized errors fall back to
// 500 (InternalError).
func writeEngineError(w http.ResponseWriter, err error) {
	var e *engine.Error
	if !errors.As(err, &e) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch e.Kind {
	case engine.KindValidation:
		writeError(w, http.StatusBadRequest, e.Err.Error())
	case engine.KindNotReady, engine.KindStorage:
		writeError(w, http.StatusServiceUnavailable, e.Err.Error())
	case engine.KindTimeout:
		writeError(w, http.StatusGatewayTimeout, e.Err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
