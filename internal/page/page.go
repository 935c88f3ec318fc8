// Package page supplies the HTML page served at GET /. The template is an
// opaque string with two placeholders, {{HOST}} and {{PORT}}, substituted at
// request time.
package page

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"go.klb.dev/lanpaste/internal/logging"
)

const (
	HostPlaceholder = "{{HOST}}"
	PortPlaceholder = "{{PORT}}"
)

//go:embed assets/index.html
var defaultTemplate string

// Default returns the built-in page template.
func Default() string { return defaultTemplate }

// Render substitutes host and port into tpl.
func Render(tpl, host string, port int) string {
	r := strings.NewReplacer(
		HostPlaceholder, host,
		PortPlaceholder, strconv.Itoa(port),
	)
	return r.Replace(tpl)
}

// Source holds the current template. It is safe for concurrent use; Watch
// swaps the template while requests read it.
type Source struct {
	path string
	tpl  atomic.Pointer[string]
}

// Static returns a Source that always yields tpl.
func Static(tpl string) *Source {
	s := &Source{}
	s.tpl.Store(&tpl)
	return s
}

// Load reads the template at path. An empty path selects the built-in page.
func Load(path string) (*Source, error) {
	if path == "" {
		return Static(defaultTemplate), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	s := Static(string(b))
	s.path = path
	return s, nil
}

// Template returns the current template.
func (s *Source) Template() string {
	return *s.tpl.Load()
}

// Path returns the file the template was loaded from, or "" for the
// built-in page.
func (s *Source) Path() string { return s.path }

// Watch reloads the template whenever its file is written or replaced. It
// runs until ctx is cancelled. A failed reload keeps the previous template.
// Watch returns immediately for sources without a file.
//
// The parent directory is watched rather than the file, so a save that
// renames a new file over the path is still seen.
func (s *Source) Watch(ctx context.Context, log *slog.Logger) error {
	if s.path == "" {
		return nil
	}
	log = logging.OrDiscard(log)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}
	log.Info("page: watching template", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			b, err := os.ReadFile(s.path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					// Moved away; the replacement arrives as Create.
					continue
				}
				log.Error("page: reload failed, keeping previous template", "path", s.path, "err", err)
				continue
			}
			tpl := string(b)
			s.tpl.Store(&tpl)
			log.Info("page: template reloaded", "path", s.path, "bytes", len(b))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("page: watcher error", "err", err)
		}
	}
}
