package subscribers

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/silktrader/kavita/pkg/pages"
	"github.com/silktrader/kavita/pkg/rest"
	"github.com/silktrader/kavita/pkg/session"
)

// TokenIssuer binds the client to a subscriber once subscribed; the auth package owns the cookie format.
type TokenIssuer func(w http.ResponseWriter, subscriber *Subscriber)

func RegisterHandlers(engine *rest.Engine, sr Repository, renderer *pages.Renderer, issue TokenIssuer) {
	engine.Get("/subscribe", getSubscribe(renderer))
	engine.Post("/subscribe", subscribe(sr, renderer, issue))
}

func getSubscribe(renderer *pages.Renderer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		renderer.Ok(writer, request, pages.Subscribe, nil)
	}
}

func subscribe(sr Repository, renderer *pages.Renderer, issue TokenIssuer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var data = SubscribeData{
			Email: request.PostFormValue("email"),
			Name:  request.PostFormValue("name"),
		}

		subscriber, err := sr.Subscribe(request.Context(), data)
		if err != nil {
			var validationErrors validation.Errors
			if errors.As(err, &validationErrors) {
				pages.RedirectWithFlash(writer, request, "/subscribe", session.Error, "Please enter your email to subscribe.")
				return
			}
			renderer.InternalServerError(writer, request, err)
			return
		}

		rest.Logger(request).WithField("subscriber", subscriber.Id).Info("subscribed")
		issue(writer, subscriber)
		pages.RedirectWithFlash(writer, request, "/", session.Success, "Subscription successful! You can now like and comment.")
	}
}
