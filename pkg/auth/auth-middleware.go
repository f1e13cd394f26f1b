package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/silktrader/kavita/pkg/rest"
	"github.com/silktrader/kavita/pkg/subscribers"
)

/*
Subscriber identity is intentionally weak: the cookie holds the bare subscriber id, which anybody can forge.
It only exists to hold readers to one reaction per poem and to sign comments, so must not be mistaken for
authentication nor be upgraded into it.
*/

// SubscriberCookie names the cookie holding the subscriber id.
const SubscriberCookie = "subscriber_id"

const subscriberCookieAge = 365 * 24 * time.Hour

type subscriberKey struct{}

// subscriberFinder is the only dependency on the subscribers store, satisfied by subscribers.Repository.
type subscriberFinder interface {
	GetById(ctx context.Context, id int64) (*subscribers.Subscriber, error)
}

// Identify resolves the subscriber cookie for every request; anonymous requests pass through unchanged.
func Identify(finder subscriberFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {
			if subscriber := ResolveSubscriber(request, finder); subscriber != nil {
				request = request.WithContext(context.WithValue(request.Context(), subscriberKey{}, subscriber))
			}
			next.ServeHTTP(w, request)
		})
	}
}

// ResolveSubscriber maps the subscriber cookie to a record. Missing or non numeric tokens, as well as unknown ids,
// resolve to nil, the anonymous visitor; storage failures are logged and equally treated as anonymous.
func ResolveSubscriber(request *http.Request, finder subscriberFinder) *subscribers.Subscriber {
	cookie, err := request.Cookie(SubscriberCookie)
	if err != nil {
		return nil
	}

	id, err := strconv.ParseInt(cookie.Value, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}

	subscriber, err := finder.GetById(request.Context(), id)
	if err != nil {
		if !errors.Is(err, subscribers.ErrNotFound) {
			rest.Logger(request).WithError(err).WithField("subscriber", id).Warning("can't resolve subscriber")
		}
		return nil
	}
	return subscriber
}

// GetSubscriber returns the subscriber resolved by Identify, or nil for anonymous visitors.
func GetSubscriber(request *http.Request) *subscribers.Subscriber {
	subscriber, _ := request.Context().Value(subscriberKey{}).(*subscribers.Subscriber)
	return subscriber
}

// IssueSubscriberToken binds the client to the subscriber for a year.
func IssueSubscriberToken(w http.ResponseWriter, subscriber *subscribers.Subscriber) {
	http.SetCookie(w, &http.Cookie{
		Name:     SubscriberCookie,
		Value:    strconv.FormatInt(subscriber.Id, 10),
		Path:     "/",
		MaxAge:   int(subscriberCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
