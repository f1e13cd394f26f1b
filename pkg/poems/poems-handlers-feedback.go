package poems

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/silktrader/kavita/pkg/auth"
	"github.com/silktrader/kavita/pkg/pages"
	"github.com/silktrader/kavita/pkg/session"
)

// requireFeedbackTarget resolves the poem being reacted to or commented on, answering 404 for unknown poems before
// any subscriber check.
func requireFeedbackTarget(ps Storer, renderer *pages.Renderer, writer http.ResponseWriter, request *http.Request) (int64, bool) {
	poemId, ok := parsePoemId(request)
	if !ok {
		renderer.NotFound(writer, request)
		return 0, false
	}
	if _, err := ps.Get(request.Context(), poemId); err != nil {
		notFoundOrError(writer, request, renderer, err)
		return 0, false
	}
	return poemId, true
}

func react(ps Storer, renderer *pages.Renderer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		poemId, ok := requireFeedbackTarget(ps, renderer, writer, request)
		if !ok {
			return
		}

		var subscriber = auth.GetSubscriber(request)
		if subscriber == nil {
			pages.RedirectWithFlash(writer, request, poemPath(poemId), session.Error, "Please subscribe to react.")
			return
		}

		if err := ps.React(request.Context(), poemId, subscriber.Id, IsLike(request.PostFormValue("action"))); err != nil {
			notFoundOrError(writer, request, renderer, err)
			return
		}

		pages.Redirect(writer, request, poemPath(poemId))
	}
}

func comment(ps Storer, renderer *pages.Renderer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		poemId, ok := requireFeedbackTarget(ps, renderer, writer, request)
		if !ok {
			return
		}

		var subscriber = auth.GetSubscriber(request)
		if subscriber == nil {
			pages.RedirectWithFlash(writer, request, poemPath(poemId), session.Error, "Please subscribe to comment.")
			return
		}

		var data = CommentData{Text: request.PostFormValue("text")}
		if err := ps.AddComment(request.Context(), poemId, subscriber.Id, data); err != nil {
			var validationErrors validation.Errors
			if errors.As(err, &validationErrors) {
				pages.RedirectWithFlash(writer, request, poemPath(poemId), session.Error, "Comment cannot be empty.")
				return
			}
			notFoundOrError(writer, request, renderer, err)
			return
		}

		pages.Redirect(writer, request, poemPath(poemId))
	}
}
