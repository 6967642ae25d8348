package server

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/lesson"
	"github.com/mgpai22/lesson/internal/logging"
)

// Cache keeps parsed captions and the manifest in memory. Entries are
// dropped by Invalidate, which Watch calls for file system changes.
type Cache struct {
	lib    *lesson.Library
	logger *logging.Logger

	mu       sync.RWMutex
	captions map[lesson.Ref]*caption.Index
	manifest *lesson.Manifest
}

func NewCache(lib *lesson.Library, logger *logging.Logger) *Cache {
	return &Cache{
		lib:      lib,
		logger:   logging.OrNop(logger),
		captions: make(map[lesson.Ref]*caption.Index),
	}
}

func (c *Cache) Captions(ctx context.Context, ref lesson.Ref) (*caption.Index, error) {
	c.mu.RLock()
	idx, ok := c.captions[ref]
	c.mu.RUnlock()
	if ok {
		return idx, nil
	}

	idx, err := c.lib.Captions(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.captions[ref] = idx
	c.mu.Unlock()
	c.logger.Debugw("Cached captions", "ref", ref.String(), "segments", idx.Len())
	return idx, nil
}

func (c *Cache) Manifest(ctx context.Context) (*lesson.Manifest, error) {
	c.mu.RLock()
	m := c.manifest
	c.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	m, err := c.lib.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.manifest = m
	c.mu.Unlock()
	return m, nil
}

// Invalidate drops whatever was loaded from name, a slash-separated path
// relative to the content root. It reports whether anything was dropped.
func (c *Cache) Invalidate(name string) bool {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")

	c.mu.Lock()
	defer c.mu.Unlock()

	if name == path.Clean(c.lib.ManifestPath) {
		dropped := c.manifest != nil
		c.manifest = nil
		return dropped
	}

	if !strings.EqualFold(path.Ext(name), ".lrc") {
		return false
	}
	dir, file := path.Split(name)
	ref := lesson.Ref{
		Book:   strings.TrimSuffix(dir, "/"),
		Lesson: strings.TrimSuffix(file, path.Ext(file)),
	}
	if _, ok := c.captions[ref]; !ok {
		return false
	}
	delete(c.captions, ref)
	return true
}

// Watch invalidates entries when files under root change. root must be the
// directory the library reads from. The watcher runs until ctx is done.
func (c *Cache) Watch(ctx context.Context, root string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dirs := []string{root, filepath.Join(root, filepath.Dir(filepath.FromSlash(c.lib.ManifestPath)))}
	if entries, err := os.ReadDir(root); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(root, entry.Name()))
			}
		}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			c.logger.Debugw("Skipping watch", "dir", dir, "error", err)
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				c.handleEvent(watcher, root, event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warnw("Watcher error", "error", err)
			}
		}
	}()

	c.logger.Infow("Watching content", "root", root, "dirs", len(watcher.WatchList()))
	return nil
}

func (c *Cache) handleEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watcher.Add(event.Name); err == nil {
				c.logger.Debugw("Watching new directory", "dir", event.Name)
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return
	}
	if c.Invalidate(filepath.ToSlash(rel)) {
		c.logger.Infow("Invalidated cache entry", "file", filepath.ToSlash(rel), "op", event.Op.String())
	}
}
