package lesson

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/lesson/internal/caption"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBytes     = 32 << 20
	DefaultManifestPath = "static/data.json"
	DefaultUserAgent    = "lesson-player/1.0"
)

var ErrTooLarge = errors.New("response exceeds size limit")

// reads content addressed relative to a content root
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// serves content from a local directory
type DirSource struct {
	Root string
}

// serves content from a base URL
type HTTPSource struct {
	BaseURL  *url.URL
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
}

// picks an HTTPSource for http(s) roots and a DirSource otherwise
func NewSource(root string) (Source, error) {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		base, err := url.Parse(root)
		if err != nil {
			return nil, fmt.Errorf("invalid content root %q: %w", root, err)
		}
		return &HTTPSource{BaseURL: base}, nil
	}
	if root == "" {
		root = "."
	}
	return &DirSource{Root: root}, nil
}

func (s *DirSource) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// local path for name, refusing anything that escapes the root
func (s *DirSource) Path(name string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(name))
	path := filepath.Join(s.Root, clean)
	rel, err := filepath.Rel(s.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q escapes content root", name)
	}
	return path, nil
}

func (s *HTTPSource) Read(ctx context.Context, name string) ([]byte, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBytes := s.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	target := s.BaseURL.JoinPath(strings.Split(name, "/")...)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: new request: %w", name, err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: request failed: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch %s: %w", name, fs.ErrNotExist)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected http status %s", name, resp.Status)
	}
	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("fetch %s: %w", name, ErrTooLarge)
	}

	// one extra byte detects overflow
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", name, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("fetch %s: %w", name, ErrTooLarge)
	}
	return data, nil
}

// Library resolves lesson refs to parsed captions and loads the manifest
// from a content source.
type Library struct {
	Source       Source
	ManifestPath string
	Parser       *caption.Parser
}

func NewLibrary(source Source, manifestPath string) *Library {
	if manifestPath == "" {
		manifestPath = DefaultManifestPath
	}
	return &Library{
		Source:       source,
		ManifestPath: manifestPath,
		Parser:       caption.NewParser(),
	}
}

// fetches, decodes and parses the caption file of ref
func (l *Library) Captions(ctx context.Context, ref Ref) (*caption.Index, error) {
	data, err := l.Source.Read(ctx, ref.Resources().Caption)
	if err != nil {
		return nil, err
	}
	text, err := caption.Decode(data)
	if err != nil {
		return nil, err
	}
	return l.Parser.ParseIndex(text), nil
}

// fetches and decodes the lesson manifest
func (l *Library) Manifest(ctx context.Context) (*Manifest, error) {
	data, err := l.Source.Read(ctx, l.ManifestPath)
	if err != nil {
		return nil, err
	}
	manifest, err := DecodeManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.ManifestPath, err)
	}
	return manifest, nil
}
