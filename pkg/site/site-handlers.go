package site

import (
	"net/http"

	"github.com/silktrader/kavita/pkg/rest"
)

func RegisterHandlers(engine *rest.Engine, ss Storer) {
	engine.Get("/init-db", initialise(ss))
	engine.Get("/healthz", health(ss))
}

// initialise is safe to expose, as it never drops nor overwrites data.
func initialise(ss Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if err := ss.Initialise(request.Context()); err != nil {
			rest.Logger(request).WithError(err).Error("can't initialise database")
			http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		plainText(writer, http.StatusOK, "Initialized.")
	}
}

func health(ss Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if err := ss.Ping(request.Context()); err != nil {
			rest.Logger(request).WithError(err).Warning("database unreachable")
			plainText(writer, http.StatusServiceUnavailable, "unavailable")
			return
		}
		plainText(writer, http.StatusOK, "ok")
	}
}

func plainText(writer http.ResponseWriter, status int, body string) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(status)
	_, _ = writer.Write([]byte(body))
}
