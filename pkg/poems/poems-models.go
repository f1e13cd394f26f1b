package poems

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/silktrader/kavita/pkg/ntime"
)

// PageSize is the number of poems listed per page.
const PageSize = 12

type Poem struct {
	Id              int64
	Title           string
	Body            string
	DateAdded       ntime.NTime
	BackgroundImage string
	ViewCount       int64
}

type AddPoemData struct {
	Title           string
	Body            string
	DateAdded       ntime.NTime
	BackgroundImage string
}

func (data *AddPoemData) Normalise() {
	data.Title = strings.TrimSpace(data.Title)
	data.Body = strings.TrimSpace(data.Body)
	data.BackgroundImage = strings.TrimSpace(data.BackgroundImage)
}

func (data AddPoemData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.Required),
		validation.Field(&data.Body, validation.Required),
	)
}

// Page is one slice of the listing, newest first.
type Page struct {
	Poems      []Poem
	Total      int
	TotalPages int
	Number     int
	Query      string
}

// TotalPages rounds up, so that a partial last page counts; an empty listing has no pages.
func TotalPages(total int) int {
	return (total + PageSize - 1) / PageSize
}

// Reactions

const Like = "like"

type Reactions struct {
	Likes    int64
	Dislikes int64
}

// IsLike maps the submitted action to the stored flag: anything but a like counts as a dislike.
func IsLike(action string) bool {
	return action == Like
}

// Comments

type CommentData struct {
	Text string
}

func (data *CommentData) Normalise() {
	data.Text = strings.TrimSpace(data.Text)
}

func (data CommentData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Text, validation.Required),
	)
}

type Comment struct {
	Id         int64
	AuthorName string
	Text       string
	Created    ntime.NTime
}
