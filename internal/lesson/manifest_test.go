package lesson

import (
	"errors"
	"reflect"
	"testing"
)

const manifestJSON = `{
	"1": [
		{"filename": "L1", "title": "Excuse me!"},
		{"filename": "L2", "title": "Is this your ...?"},
		{"filename": "L3"}
	],
	"2": [
		{"filename": "M1"},
		{"filename": "M2"}
	],
	"notes": "ignored"
}`

func TestDecodeManifest(t *testing.T) {
	m, err := DecodeManifest([]byte(manifestJSON))
	if err != nil {
		t.Fatalf("DecodeManifest failed: %v", err)
	}

	if got := m.Books(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("unexpected books %v", got)
	}
	book := m.Book("1")
	if len(book) != 3 || book[0].Title != "Excuse me!" || book[2].Filename != "L3" {
		t.Errorf("unexpected lessons %+v", book)
	}
	if lesson, ok := m.Lookup(Ref{Book: "NCE1", Lesson: "L2"}); !ok || lesson.Title != "Is this your ...?" {
		t.Errorf("Lookup = %+v, %v", lesson, ok)
	}
}

func TestDecodeManifestShapes(t *testing.T) {
	m, err := DecodeManifest([]byte(`[["a", "b"], [{"filename": "c"}, {"title": "no filename"}, 7]]`))
	if err != nil {
		t.Fatalf("DecodeManifest failed: %v", err)
	}
	if got := m.Book("0"); len(got) != 2 || got[1].Filename != "b" {
		t.Errorf("unexpected book 0: %+v", got)
	}
	if got := m.Book("1"); len(got) != 1 || got[0].Filename != "c" {
		t.Errorf("unexpected book 1: %+v", got)
	}

	for _, bad := range []string{`{"1": [`, `"just a string"`, ``} {
		if _, err := DecodeManifest([]byte(bad)); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestManifestNext(t *testing.T) {
	m, err := DecodeManifest([]byte(manifestJSON))
	if err != nil {
		t.Fatalf("DecodeManifest failed: %v", err)
	}

	tests := []struct {
		name    string
		from    Ref
		want    Ref
		wantErr error
	}{
		{"middle of book", Ref{"NCE1", "L2"}, Ref{"NCE1", "L3"}, nil},
		{"first of book", Ref{"NCE1", "L1"}, Ref{"NCE1", "L2"}, nil},
		{"last of book", Ref{"NCE1", "L3"}, Ref{"NCE2", "M1"}, nil},
		{"last of last book", Ref{"NCE2", "M2"}, Ref{}, ErrNoNextLesson},
		{"unknown lesson", Ref{"NCE1", "L9"}, Ref{}, ErrLessonNotFound},
		{"unknown book", Ref{"NCE7", "L1"}, Ref{}, ErrLessonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Next(tt.from)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestNewManifestCopies(t *testing.T) {
	lessons := []Lesson{{Filename: "a"}, {Filename: "b"}}
	m := NewManifest(map[string][]Lesson{"1": lessons})
	lessons[0].Filename = "changed"

	next, err := m.Next(Ref{Book: "NCE1", Lesson: "a"})
	if err != nil || next.Lesson != "b" {
		t.Errorf("Next = %+v, %v", next, err)
	}
}
