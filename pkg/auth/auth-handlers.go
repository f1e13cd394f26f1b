package auth

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/silktrader/kavita/pkg/pages"
	"github.com/silktrader/kavita/pkg/rest"
	"github.com/silktrader/kavita/pkg/session"
)

type LoginData struct {
	Password string
}

func (data LoginData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Password, validation.Required),
	)
}

// loginView feeds the login template, which posts back to the same destination.
type loginView struct {
	Next string
}

func RegisterHandlers(engine *rest.Engine, gate *AdminGate, renderer *pages.Renderer) {
	engine.Get("/admin/login", getLogin(renderer))
	engine.Post("/admin/login", login(gate))
	engine.Get("/admin/logout", logout())
}

func getLogin(renderer *pages.Renderer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var next = request.URL.Query().Get("next")
		if next != "" {
			next = SafeNext(next)
		}
		renderer.Ok(writer, request, pages.AdminLogin, loginView{Next: next})
	}
}

func login(gate *AdminGate) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var next = SafeNext(request.URL.Query().Get("next"))

		var data = LoginData{Password: request.PostFormValue("password")}
		if err := data.Validate(); err != nil || !gate.Check(data.Password) {
			rest.Logger(request).Warning("failed admin login")
			pages.RedirectWithFlash(writer, request, LoginPath(next), session.Error, "Wrong password.")
			return
		}

		session.FromRequest(request).SetAdmin(true)
		rest.Logger(request).Info("admin logged in")
		pages.RedirectWithFlash(writer, request, next, session.Success, "Admin login successful.")
	}
}

func logout() http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		session.FromRequest(request).SetAdmin(false)
		pages.RedirectWithFlash(writer, request, "/", session.Success, "Logged out.")
	}
}
