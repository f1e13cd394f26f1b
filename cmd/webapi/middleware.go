package main

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
)

// applyServerMiddleware wraps the router with the handlers that apply to every response, static files included.
// Panics are logged and answered with a 500 and bodies are compressed. Access logs, in the Apache combined format, are
// written to the given writer.
// Client addresses are taken from the X-Forwarded-For and X-Real-IP headers only when running behind a proxy, as any
// client can set them.
func applyServerMiddleware(h http.Handler, logger *logrus.Logger, accessLog io.Writer, behindProxy, debug bool) http.Handler {
	h = handlers.CompressHandler(h)
	h = handlers.CombinedLoggingHandler(accessLog, h)
	if behindProxy {
		h = handlers.ProxyHeaders(h)
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger),
		handlers.PrintRecoveryStack(debug),
	)(h)
}
