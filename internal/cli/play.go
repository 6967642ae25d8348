package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lesson/internal/audio"
	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/engine"
	"github.com/mgpai22/lesson/internal/lesson"
	"github.com/mgpai22/lesson/internal/logging"
	"github.com/mgpai22/lesson/internal/player"
)

var playCmd = &cobra.Command{
	Use:   "play [book/lesson]",
	Short: "Follow a lesson's captions in the terminal",
	Long: `Play a lesson on a virtual clock and print each caption as it becomes
active. Audio is not output; the clock runs for the length of the track.

Commands (type and press enter):
  <n>  play segment n only
  l    toggle looping the whole lesson
  n    go to the next lesson
  p    pause / resume
  q    quit

When the lesson ends it continues with the next lesson unless looping
is on.

Examples:
  lesson play NCE1/001
  lesson play NCE2/010 --tick 100ms`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Duration("tick", 0, "Clock update interval (default from config, 250ms)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ref, err := lesson.ParseRef(args[0])
	if errors.Is(err, lesson.ErrEmptyRef) {
		return fmt.Errorf("no lesson given; pick one from %s", lesson.HomePage)
	}
	if err != nil {
		return err
	}

	interval := cfg.TickInterval
	if tick, _ := cmd.Flags().GetDuration("tick"); tick > 0 {
		interval = tick
	}

	lib, err := cfg.Library()
	if err != nil {
		return err
	}

	s := &session{
		captions:  lib,
		manifests: lib,
		out:       cmd.OutOrStdout(),
		interval:  interval,
		logger:    logger,
		duration:  localDuration(lib),
	}
	return s.run(ctx, ref, readCommands(ctx, cmd.InOrStdin()))
}

// probes the lesson's local track, falling back to the captions
func localDuration(lib *lesson.Library) func(context.Context, lesson.Ref, *caption.Index) float64 {
	return func(ctx context.Context, ref lesson.Ref, idx *caption.Index) float64 {
		if dir, ok := lib.Source.(*lesson.DirSource); ok {
			if path, err := dir.Path(ref.Resources().Audio); err == nil && fileExists(path) {
				if d, err := audio.GetDuration(ctx, path); err == nil {
					return d.Seconds()
				}
			}
		}
		return captionDuration(idx)
	}
}

// last start plus the default tail, for tracks that cannot be probed
func captionDuration(idx *caption.Index) float64 {
	if idx.Len() == 0 {
		return caption.DefaultTail.Seconds()
	}
	last, _ := idx.Get(idx.Len() - 1)
	end := last.End
	if last.OpenEnded() {
		end = last.Start + caption.DefaultTail.Seconds()
	}
	return max(end, 0)
}

// lines from r until EOF
func readCommands(ctx context.Context, r io.Reader) <-chan string {
	commands := make(chan string)
	go func() {
		defer close(commands)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case commands <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return commands
}

// one terminal playback run, possibly across several lessons
type session struct {
	captions  engine.CaptionSource
	manifests engine.ManifestSource
	out       io.Writer
	interval  time.Duration
	logger    *logging.Logger
	duration  func(ctx context.Context, ref lesson.Ref, idx *caption.Index) float64
}

// plays ref and every lesson navigated to after it
func (s *session) run(ctx context.Context, ref lesson.Ref, commands <-chan string) error {
	for {
		next, err := s.play(ctx, ref, commands)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		ref = *next
	}
}

// play runs one lesson. It returns the lesson to continue with, or nil
// when the user quit or the last lesson finished.
func (s *session) play(ctx context.Context, ref lesson.Ref, commands <-chan string) (*lesson.Ref, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	load := engine.StartLoad(ctx, s.captions, s.manifests, ref)
	idx, err := load.Captions.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load captions for %s: %w", ref, err)
	}

	duration := captionDuration(idx)
	if s.duration != nil {
		duration = s.duration(ctx, ref, idx)
	}

	navigate := make(chan lesson.Ref, 1)
	finished := make(chan struct{}, 1)

	d := engine.NewDispatcher(64)
	clock := player.NewClock(duration)
	pres := &terminalPresenter{out: s.out, index: idx, navigate: navigate}
	log := logging.OrNop(s.logger).With("ref", ref.String())
	e := engine.New(idx, clock, pres, log)
	e.Attach(clock, clock)
	// runs on the dispatcher once the next-lesson lookup is done
	settle := func() {
		ref, _, err := load.Next.Result()
		e.ResolveNext(ref, err)
		if e.Next() != nil {
			finish(finished)
		}
	}
	clock.OnEnded(func() {
		state := e.State()
		if state.SingleLoop || state.Next != nil {
			return
		}
		if _, done, _ := load.Next.Result(); done {
			settle()
			return
		}
		// the track beat the manifest lookup
		go func() {
			select {
			case <-load.Next.Done():
				d.Post(ctx, settle)
			case <-ctx.Done():
			}
		}()
	})
	load.BindNext(ctx, d, e)

	go func() { _ = d.Run(ctx) }()
	go func() { _ = clock.Run(ctx, d, s.interval) }()

	meta := idx.Metadata()
	fmt.Fprintf(s.out, "== %s  %s (%d lines, %s)\n", ref, meta.Title, idx.Len(), clockString(duration))
	log.Infow("Playing lesson", "segments", idx.Len(), "duration", duration)

	d.Post(ctx, func() {
		if err := e.Resume(); err != nil {
			fmt.Fprintf(s.out, "! %v\n", err)
		}
	})

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case next := <-navigate:
			return &next, nil
		case <-finished:
			fmt.Fprintln(s.out, "== end of lessons")
			return nil, nil
		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if line == "q" {
				return nil, nil
			}
			d.Post(ctx, func() { s.handle(e, line) })
		}
	}
}

func finish(finished chan<- struct{}) {
	select {
	case finished <- struct{}{}:
	default:
	}
}

// runs one user command on the dispatcher
func (s *session) handle(e *engine.Engine, line string) {
	var err error
	switch line {
	case "":
		return
	case "l":
		on := e.ToggleSingleLoop()
		logging.OrNop(s.logger).Debugw("Loop toggled", "single_loop", on)
	case "n":
		err = e.Next()
	case "p":
		if e.Mode() == engine.Idle {
			err = e.Resume()
		} else {
			e.Pause()
			fmt.Fprintln(s.out, "|| paused")
		}
	default:
		n, convErr := strconv.Atoi(line)
		if convErr != nil {
			fmt.Fprintf(s.out, "! unknown command %q\n", line)
			return
		}
		err = e.ClickSegment(n - 1)
	}
	if err != nil {
		fmt.Fprintf(s.out, "! %v\n", err)
	}
}

// prints the engine's presentation effects as terminal lines
type terminalPresenter struct {
	out      io.Writer
	index    *caption.Index
	navigate chan<- lesson.Ref
}

func (p *terminalPresenter) Activate(i int) {
	seg, ok := p.index.Get(i)
	if !ok {
		return
	}
	line := fmt.Sprintf("%3d  %s  %s", i+1, clockString(seg.Start), seg.Primary)
	if seg.Secondary != "" {
		line += " | " + seg.Secondary
	}
	fmt.Fprintln(p.out, line)
}

func (p *terminalPresenter) Deactivate(int) {}

func (p *terminalPresenter) ScrollIntoView(int) {}

func (p *terminalPresenter) SetLoopMode(single bool) {
	if single {
		fmt.Fprintln(p.out, "-- loop on")
	} else {
		fmt.Fprintln(p.out, "-- loop off")
	}
}

func (p *terminalPresenter) SetNextEnabled(enabled bool) {
	if enabled {
		fmt.Fprintln(p.out, "-- next lesson available (n)")
	}
}

func (p *terminalPresenter) Navigate(ref lesson.Ref) {
	fmt.Fprintf(p.out, "-> %s\n", ref)
	select {
	case p.navigate <- ref:
	default:
	}
}
