package poems

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/silktrader/kavita/pkg/auth"
	"github.com/silktrader/kavita/pkg/ntime"
	"github.com/silktrader/kavita/pkg/pages"
	"github.com/silktrader/kavita/pkg/rest"
	"github.com/silktrader/kavita/pkg/session"
	"github.com/silktrader/kavita/pkg/site"
	"github.com/silktrader/kavita/pkg/subscribers"
)

// SiteStore provides the home page's profile and visits counter.
type SiteStore interface {
	GetWriter(ctx context.Context) (*site.Writer, error)
	IncrementHits(ctx context.Context, key string) (int64, error)
}

// ImageSaver stores uploaded backgrounds and returns the path to reference them with.
type ImageSaver interface {
	Save(header *multipart.FileHeader) (string, error)
}

type Config struct {
	Poems    Storer
	Site     SiteStore
	Images   ImageSaver
	Renderer *pages.Renderer

	// MaxUploadSize caps multipart bodies, in bytes
	MaxUploadSize int64
}

func RegisterHandlers(engine *rest.Engine, cfg Config) {
	engine.Get("/", getIndex(cfg.Poems, cfg.Site, cfg.Renderer))
	engine.Get("/poem/:id", getPoem(cfg.Poems, cfg.Renderer))

	engine.Get("/add-poem", getAddPoem(cfg.Renderer), auth.RequireAdmin)
	engine.Post("/add-poem", addPoem(cfg.Poems, cfg.Images, cfg.Renderer, cfg.MaxUploadSize), auth.RequireAdmin)
	engine.Post("/delete-poem/:id", deletePoem(cfg.Poems, cfg.Renderer), auth.RequireAdmin)

	engine.Post("/poem/:id/react", react(cfg.Poems, cfg.Renderer))
	engine.Post("/poem/:id/comment", comment(cfg.Poems, cfg.Renderer))
}

type indexView struct {
	Writer   *site.Writer
	Page     Page
	HomeHits int64
}

type poemView struct {
	Poem       *Poem
	Reactions  Reactions
	Comments   []Comment
	Subscriber *subscribers.Subscriber
}

// parsePoemId reads the route's id; malformed ids can't match any poem.
func parsePoemId(request *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(rest.GetParam(request, "id"), 10, 64)
	return id, err == nil && id > 0
}

func poemPath(poemId int64) string {
	return "/poem/" + strconv.FormatInt(poemId, 10)
}

func getIndex(ps Storer, ss SiteStore, renderer *pages.Renderer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var ctx = request.Context()
		var query = request.URL.Query()

		// non numeric pages fall back to the first one
		page, err := strconv.Atoi(query.Get("page"))
		if err != nil {
			page = 1
		}

		hits, err := ss.IncrementHits(ctx, site.HomeHits)
		if err != nil {
			renderer.InternalServerError(writer, request, err)
			return
		}

		author, err := ss.GetWriter(ctx)
		if err != nil {
			renderer.InternalServerError(writer, request, err)
			return
		}

		listing, err := ps.List(ctx, query.Get("q"), page)
		if err != nil {
			renderer.InternalServerError(writer, request, err)
			return
		}

		renderer.Ok(writer, request, pages.Index, indexView{Writer: author, Page: listing, HomeHits: hits})
	}
}

func getPoem(ps Storer, renderer *pages.Renderer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var ctx = request.Context()

		poemId, ok := parsePoemId(request)
		if !ok {
			renderer.NotFound(writer, request)
			return
		}

		if err := ps.IncrementViews(ctx, poemId); err != nil {
			notFoundOrError(writer, request, renderer, err)
			return
		}

		poem, err := ps.Get(ctx, poemId)
		if err != nil {
			notFoundOrError(writer, request, renderer, err)
			return
		}

		reactions, err := ps.CountReactions(ctx, poemId)
		if err != nil {
			renderer.InternalServerError(writer, request, err)
			return
		}

		comments, err := ps.GetComments(ctx, poemId)
		if err != nil {
			renderer.InternalServerError(writer, request, err)
			return
		}

		renderer.Ok(writer, request, pages.Poem, poemView{
			Poem:       poem,
			Reactions:  reactions,
			Comments:   comments,
			Subscriber: auth.GetSubscriber(request),
		})
	}
}

func getAddPoem(renderer *pages.Renderer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		renderer.Ok(writer, request, pages.AddPoem, nil)
	}
}

/*
addPoem publishes a poem from the authoring form. Title and body are mandatory, and nothing is written without them.

Malformed dates don't prevent publishing: the poem is dated now and the author warned. Uploaded files take precedence
over image URLs and are only stored once the form is known to be valid.
*/
func addPoem(ps Storer, images ImageSaver, renderer *pages.Renderer, maxUploadSize int64) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var logger = rest.Logger(request)

		request.Body = http.MaxBytesReader(writer, request.Body, maxUploadSize)
		if err := request.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				pages.RedirectWithFlash(writer, request, "/add-poem", session.Error, "The upload is too large.")
				return
			}
			logger.WithError(err).Warning("malformed poem form")
			pages.RedirectWithFlash(writer, request, "/add-poem", session.Error, "The form couldn't be read.")
			return
		}

		var data = AddPoemData{
			Title:           request.FormValue("title"),
			Body:            request.FormValue("body"),
			BackgroundImage: request.FormValue("image_url"),
		}
		data.Normalise()
		if err := data.Validate(); err != nil {
			pages.RedirectWithFlash(writer, request, "/add-poem", session.Error, "Title and poem content are required.")
			return
		}

		if raw := strings.TrimSpace(request.FormValue("date_added")); raw != "" {
			date, err := ntime.ParseDate(raw)
			if err != nil {
				pages.Flash(request, session.Error, "Invalid date format. Use YYYY-MM-DD.")
			} else {
				data.DateAdded = date
			}
		}

		if file, header, err := request.FormFile("image_file"); err == nil {
			_ = file.Close()
			if header.Filename != "" {
				path, err := images.Save(header)
				if err != nil {
					renderer.InternalServerError(writer, request, err)
					return
				}
				data.BackgroundImage = path
			}
		}

		poem, err := ps.Add(request.Context(), data)
		if err != nil {
			var validationErrors validation.Errors
			if errors.As(err, &validationErrors) {
				pages.RedirectWithFlash(writer, request, "/add-poem", session.Error, "Title and poem content are required.")
				return
			}
			renderer.InternalServerError(writer, request, err)
			return
		}

		logger.WithField("poem", poem.Id).Info("poem added")
		pages.RedirectWithFlash(writer, request, "/", session.Success, "Poem added!")
	}
}

func deletePoem(ps Storer, renderer *pages.Renderer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		poemId, ok := parsePoemId(request)
		if !ok {
			renderer.NotFound(writer, request)
			return
		}

		if err := ps.Delete(request.Context(), poemId); err != nil {
			notFoundOrError(writer, request, renderer, err)
			return
		}

		rest.Logger(request).WithField("poem", poemId).Info("poem deleted")
		pages.RedirectWithFlash(writer, request, "/", session.Success, "Poem deleted!")
	}
}

func notFoundOrError(writer http.ResponseWriter, request *http.Request, renderer *pages.Renderer, err error) {
	if errors.Is(err, ErrNotFound) {
		renderer.NotFound(writer, request)
		return
	}
	renderer.InternalServerError(writer, request, err)
}
