package engine

import (
	"context"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/lesson"
)

type CaptionSource interface {
	Captions(ctx context.Context, ref lesson.Ref) (*caption.Index, error)
}

type ManifestSource interface {
	Manifest(ctx context.Context) (*lesson.Manifest, error)
}

// Load tracks the two independent retrievals a lesson needs: its captions
// and the manifest lookup of the lesson after it. Either may finish first
// and each fails on its own.
type Load struct {
	Ref      lesson.Ref
	Captions *Future[*caption.Index]
	Next     *Future[lesson.Ref]
}

// starts both retrievals for ref
func StartLoad(
	ctx context.Context,
	captions CaptionSource,
	manifests ManifestSource,
	ref lesson.Ref,
) *Load {
	return &Load{
		Ref: ref,
		Captions: Go(ctx, func(ctx context.Context) (*caption.Index, error) {
			return captions.Captions(ctx, ref)
		}),
		Next: Go(ctx, func(ctx context.Context) (lesson.Ref, error) {
			manifest, err := manifests.Manifest(ctx)
			if err != nil {
				return lesson.Ref{}, err
			}
			return manifest.Next(ref)
		}),
	}
}

// BindNext hands the next-lesson result to e on d once the lookup
// finishes, leaving the engine usable in the meantime.
func (l *Load) BindNext(ctx context.Context, d *Dispatcher, e *Engine) {
	go func() {
		select {
		case <-l.Next.Done():
		case <-ctx.Done():
			return
		}
		ref, _, err := l.Next.Result()
		d.Post(ctx, func() {
			e.ResolveNext(ref, err)
		})
	}()
}
