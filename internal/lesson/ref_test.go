package lesson

import (
	"errors"
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		token   string
		want    Ref
		wantErr error
	}{
		{"NCE1/001&002", Ref{Book: "NCE1", Lesson: "001&002"}, nil},
		{"#NCE2/Lesson 3?autoplay=1", Ref{Book: "NCE2", Lesson: "Lesson 3"}, nil},
		{"NCE3%2F01%20Intro", Ref{Book: "NCE3", Lesson: "01 Intro"}, nil},
		{"NCE4/a/b", Ref{Book: "NCE4", Lesson: "a/b"}, nil},
		{"", Ref{}, ErrEmptyRef},
		{"#", Ref{}, ErrEmptyRef},
		{"#?x=1", Ref{}, ErrEmptyRef},
		{"NCE1", Ref{}, ErrInvalidRef},
		{"NCE1/", Ref{}, ErrInvalidRef},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseRef(tt.token)
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

func TestRefResources(t *testing.T) {
	ref := Ref{Book: "NCE1", Lesson: "001&002"}
	res := ref.Resources()

	if res.Audio != "NCE1/001&002.mp3" {
		t.Errorf("unexpected audio %q", res.Audio)
	}
	if res.Caption != "NCE1/001&002.lrc" {
		t.Errorf("unexpected caption %q", res.Caption)
	}
	if res.Cover != "images/NCE1.jpg" {
		t.Errorf("unexpected cover %q", res.Cover)
	}
	if res.BookIndex != "book.html#NCE1" {
		t.Errorf("unexpected book index %q", res.BookIndex)
	}
	if ref.PageURL() != "lesson.html#NCE1/001&002" {
		t.Errorf("unexpected page url %q", ref.PageURL())
	}
	if ref.BookKey() != "1" {
		t.Errorf("unexpected book key %q", ref.BookKey())
	}
}
