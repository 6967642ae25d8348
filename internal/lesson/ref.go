package lesson

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// books are addressed as BookPrefix followed by their manifest key, e.g. NCE1
const BookPrefix = "NCE"

// where an empty lesson address is sent
const HomePage = "book.html"

var (
	ErrEmptyRef   = errors.New("empty lesson address")
	ErrInvalidRef = errors.New("invalid lesson address")
)

// identifies one lesson as {book}/{lesson}
type Ref struct {
	Book   string `json:"book"`
	Lesson string `json:"lesson"`
}

// resource addresses derived from a lesson ref, relative to the content root
type Resources struct {
	Audio     string `json:"audio"`
	Caption   string `json:"caption"`
	Cover     string `json:"cover"`
	BookIndex string `json:"bookIndex"`
}

// ParseRef accepts "NCE1/001", "#NCE1/001?autoplay" or a percent-encoded
// form of either. An empty address yields ErrEmptyRef.
func ParseRef(token string) (Ref, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), "#")
	if i := strings.IndexByte(token, '?'); i >= 0 {
		token = token[:i]
	}
	if token == "" {
		return Ref{}, ErrEmptyRef
	}

	if unescaped, err := url.PathUnescape(token); err == nil {
		token = unescaped
	}

	book, lesson, ok := strings.Cut(token, "/")
	if !ok || book == "" || lesson == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, token)
	}
	return Ref{Book: book, Lesson: lesson}, nil
}

func (r Ref) String() string {
	return r.Book + "/" + r.Lesson
}

// manifest key of the book, i.e. the book name without BookPrefix
func (r Ref) BookKey() string {
	return strings.TrimPrefix(r.Book, BookPrefix)
}

func (r Ref) Resources() Resources {
	return Resources{
		Audio:     r.String() + ".mp3",
		Caption:   r.String() + ".lrc",
		Cover:     "images/" + r.Book + ".jpg",
		BookIndex: HomePage + "#" + r.Book,
	}
}

// address of the lesson page for this ref
func (r Ref) PageURL() string {
	return "lesson.html#" + r.String()
}

// ref for a lesson of the book with the given numeric manifest key
func bookRef(key int, lesson string) Ref {
	return Ref{Book: BookPrefix + strconv.Itoa(key), Lesson: lesson}
}
