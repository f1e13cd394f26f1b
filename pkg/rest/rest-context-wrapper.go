package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey struct{}

// requestContext adds a RequestContext instance, with a request specific logger, to the request's context.
func (e *Engine) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqUUID, err := uuid.NewV4()
		if err != nil {
			e.baseLogger.WithError(err).Error("can't generate a request UUID")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var ctx = RequestContext{
			ReqUUID: reqUUID,
		}

		// Create a request-specific logger
		ctx.Logger = e.baseLogger.WithFields(logrus.Fields{
			"reqid":     ctx.ReqUUID.String(),
			"remote-ip": r.RemoteAddr,
		})

		// Call the next handler in chain (usually, the handler function for the path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, ctx)))
	})
}

// RequestContext is the context of the request, for request-dependent parameters
type RequestContext struct {
	// ReqUUID is the request unique ID
	ReqUUID uuid.UUID

	// Logger is a custom field logger for the request
	Logger logrus.FieldLogger
}

// GetContext returns the request's RequestContext; requests outside the engine get a discarding logger.
func GetContext(request *http.Request) RequestContext {
	if ctx, ok := request.Context().Value(contextKey{}).(RequestContext); ok {
		return ctx
	}
	var discard = logrus.New()
	discard.Out = io.Discard
	return RequestContext{Logger: discard}
}

// Logger is a shorthand for the request specific logger.
func Logger(request *http.Request) logrus.FieldLogger {
	return GetContext(request).Logger
}
