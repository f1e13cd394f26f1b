package subscribers

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/silktrader/kavita/pkg/ntime"
)

// Subscriber is a reader allowed to react and comment. Identity is the bare row id, held by the client in a cookie,
// so it proves nothing about email ownership.
type Subscriber struct {
	Id      int64
	Email   string
	Name    string
	Created ntime.NTime
}

// DisplayName falls back to the email's local part for subscribers who didn't leave a name.
func (s Subscriber) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if at := strings.IndexByte(s.Email, '@'); at > 0 {
		return s.Email[:at]
	}
	return s.Email
}

type SubscribeData struct {
	Email string
	Name  string
}

// NormaliseEmail trims and lower-cases emails, so that addresses differing only in case map to one subscriber.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (data *SubscribeData) Normalise() {
	data.Email = NormaliseEmail(data.Email)
	data.Name = strings.TrimSpace(data.Name)
}

func (data SubscribeData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Email, validation.Required),
	)
}
