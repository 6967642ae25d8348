package lesson

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

var (
	ErrLessonNotFound = errors.New("lesson not found in manifest")
	ErrNoNextLesson   = errors.New("no lesson after the last one")
)

// one entry of a book in the manifest
type Lesson struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

// ordered lessons per book key
type Manifest struct {
	books map[string][]Lesson
}

func NewManifest(books map[string][]Lesson) *Manifest {
	m := &Manifest{books: make(map[string][]Lesson, len(books))}
	for key, lessons := range books {
		m.books[key] = append([]Lesson(nil), lessons...)
	}
	return m
}

// DecodeManifest reads either {"1": [...], "2": [...]} or a top-level array
// whose positions are the book keys. Lesson descriptors are objects with a
// "filename" field or bare strings; anything else is skipped.
func DecodeManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid lesson manifest JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() && !root.IsArray() {
		return nil, fmt.Errorf("lesson manifest must be an object or array, got %s", root.Type)
	}

	books := make(map[string][]Lesson)
	position := 0
	root.ForEach(func(key, value gjson.Result) bool {
		bookKey := key.String()
		if root.IsArray() {
			bookKey = strconv.Itoa(position)
		}
		position++

		if !value.IsArray() {
			return true
		}
		var lessons []Lesson
		value.ForEach(func(_, item gjson.Result) bool {
			if lesson, ok := decodeLesson(item); ok {
				lessons = append(lessons, lesson)
			}
			return true
		})
		books[bookKey] = lessons
		return true
	})

	return &Manifest{books: books}, nil
}

func decodeLesson(item gjson.Result) (Lesson, bool) {
	switch {
	case item.IsObject():
		filename := item.Get("filename").String()
		if filename == "" {
			return Lesson{}, false
		}
		return Lesson{Filename: filename, Title: item.Get("title").String()}, true
	case item.Type == gjson.String && item.String() != "":
		return Lesson{Filename: item.String()}, true
	default:
		return Lesson{}, false
	}
}

// lessons of a book in manifest order
func (m *Manifest) Book(key string) []Lesson {
	return append([]Lesson(nil), m.books[key]...)
}

// book keys, numeric keys first in numeric order
func (m *Manifest) Books() []string {
	keys := make([]string, 0, len(m.books))
	for key := range m.books {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// finds the lesson descriptor for ref
func (m *Manifest) Lookup(ref Ref) (Lesson, bool) {
	for _, lesson := range m.books[ref.BookKey()] {
		if lesson.Filename == ref.Lesson {
			return lesson, true
		}
	}
	return Lesson{}, false
}

// Next is the following lesson of the same book, or the first lesson of
// the book whose key is one greater when ref is the last of its book.
// A ref absent from the manifest yields ErrLessonNotFound and the end of
// the last book yields ErrNoNextLesson.
func (m *Manifest) Next(ref Ref) (Ref, error) {
	lessons := m.books[ref.BookKey()]
	pos := -1
	for i, lesson := range lessons {
		if lesson.Filename == ref.Lesson {
			pos = i
			break
		}
	}
	if pos < 0 {
		return Ref{}, fmt.Errorf("%w: %s", ErrLessonNotFound, ref)
	}

	if pos+1 < len(lessons) {
		return Ref{Book: ref.Book, Lesson: lessons[pos+1].Filename}, nil
	}

	key, err := strconv.Atoi(ref.BookKey())
	if err != nil {
		return Ref{}, fmt.Errorf("%w: book %q has no numeric key", ErrNoNextLesson, ref.Book)
	}
	following := m.books[strconv.Itoa(key+1)]
	if len(following) == 0 {
		return Ref{}, fmt.Errorf("%w: %s", ErrNoNextLesson, ref)
	}
	return bookRef(key+1, following[0].Filename), nil
}
