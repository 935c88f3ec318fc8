package clip

import (
	"context"
	"log/slog"

	"golang.design/x/clipboard"

	"go.klb.dev/lanpaste/internal/logging"
)

type systemBackend struct {
	watchCh chan struct{}
	cancel  context.CancelFunc
}

// New returns the system clipboard backend, or the headless backend when no
// display is available. clipboard.Init is called here rather than in init()
// so CLI sub-commands that never touch the clipboard don't trigger it.
func New(log *slog.Logger) Backend {
	log = logging.OrDiscard(log)
	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable, running headless", "err", err)
		return Headless()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &systemBackend{
		watchCh: make(chan struct{}, 1),
		cancel:  cancel,
	}
	go b.watch(ctx)
	return b
}

func (b *systemBackend) Name() string { return "system clipboard" }

func (b *systemBackend) watch(ctx context.Context) {
	for range clipboard.Watch(ctx, clipboard.FmtText) {
		select {
		case b.watchCh <- struct{}{}:
		default:
		}
	}
}

func (b *systemBackend) Read() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (b *systemBackend) Write(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *systemBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *systemBackend) Close()                { b.cancel() }
