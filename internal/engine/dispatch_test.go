package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/lesson"
)

func TestDispatcherRunsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(8)
	var got []int
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		i := i
		if !d.Post(ctx, func() { got = append(got, i) }) {
			t.Fatalf("Post %d rejected", i)
		}
	}
	d.Post(ctx, func() { close(done) })

	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not drain")
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("expected in-order execution, got %v", got)
		}
	}
}

func TestDispatcherPostAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(0)
	if d.Post(ctx, func() {}) {
		t.Error("expected Post to fail on a cancelled context")
	}
}

func TestFuture(t *testing.T) {
	release := make(chan struct{})
	f := Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 42, nil
	})

	if _, ok, _ := f.Result(); ok {
		t.Fatal("expected result to be pending")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	close(release)
	v, err := f.Wait(context.Background())
	if err != nil || v != 42 {
		t.Errorf("Wait = %v, %v", v, err)
	}
	if v, ok, err := f.Result(); !ok || err != nil || v != 42 {
		t.Errorf("Result = %v, %v, %v", v, ok, err)
	}
}

type stubLibrary struct {
	index    *caption.Index
	manifest *lesson.Manifest
	gate     chan struct{}

	mu       sync.Mutex
	requests []lesson.Ref
}

func (s *stubLibrary) Captions(_ context.Context, ref lesson.Ref) (*caption.Index, error) {
	s.mu.Lock()
	s.requests = append(s.requests, ref)
	s.mu.Unlock()
	if s.index == nil {
		return nil, errors.New("caption fetch failed")
	}
	return s.index, nil
}

func (s *stubLibrary) Manifest(ctx context.Context) (*lesson.Manifest, error) {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.manifest == nil {
		return nil, errors.New("manifest fetch failed")
	}
	return s.manifest, nil
}

func TestLoadServesCaptionsBeforeManifest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lib := &stubLibrary{
		index: testIndex(),
		manifest: lesson.NewManifest(map[string][]lesson.Lesson{
			"1": {{Filename: "L1"}, {Filename: "L2"}},
		}),
		gate: make(chan struct{}),
	}
	ref := lesson.Ref{Book: "NCE1", Lesson: "L1"}
	load := StartLoad(ctx, lib, lib, ref)

	index, err := load.Captions.Wait(ctx)
	if err != nil {
		t.Fatalf("captions failed: %v", err)
	}

	media := &fakeMedia{}
	rec := &recorder{}
	e := New(index, media, rec, nil)
	d := NewDispatcher(4)
	go func() { _ = d.Run(ctx) }()
	load.BindNext(ctx, d, e)

	// playback and highlighting work while the manifest is still pending
	ticked := make(chan struct{})
	d.Post(ctx, func() {
		e.Tick(6)
		close(ticked)
	})
	<-ticked
	if _, ok, _ := load.Next.Result(); ok {
		t.Fatal("manifest should still be pending")
	}

	close(lib.gate)
	if _, err := load.Next.Wait(ctx); err != nil {
		t.Fatalf("next lookup failed: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		var next *lesson.Ref
		var active int
		checked := make(chan struct{})
		d.Post(ctx, func() {
			next = e.State().Next
			active = e.ActiveIndex()
			close(checked)
		})
		<-checked
		if next != nil {
			if *next != (lesson.Ref{Book: "NCE1", Lesson: "L2"}) {
				t.Errorf("unexpected next %+v", *next)
			}
			if active != 1 {
				t.Errorf("expected active 1, got %d", active)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("next lesson never resolved")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestLoadFailuresAreIndependent(t *testing.T) {
	ctx := context.Background()
	lib := &stubLibrary{gate: make(chan struct{})}
	close(lib.gate)

	load := StartLoad(ctx, lib, lib, lesson.Ref{Book: "NCE1", Lesson: "L1"})
	if _, err := load.Captions.Wait(ctx); err == nil {
		t.Error("expected caption failure")
	}
	if _, err := load.Next.Wait(ctx); err == nil {
		t.Error("expected manifest failure")
	}
}
