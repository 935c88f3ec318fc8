package bridge

import "context"

// subscribeClipboardLocked starts the clipboard watch loop. Must be called
// with s.mu held.
func (s *Service) subscribeClipboardLocked(ctx context.Context) {
	cb := s.cfg.Clipboard
	if cb == nil {
		return
	}
	// Content present before we subscribed is not a change.
	if text, err := cb.Read(); err == nil {
		s.lastClip = text
	}
	s.log.Info("clipboard subscribed", "backend", cb.Name(), "auto_push", s.cfg.AutoPush)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-cb.Watch():
				s.clipboardSignalled()
			}
		}
	}()
}

func (s *Service) clipboardSignalled() {
	text, err := s.cfg.Clipboard.Read()
	if err != nil {
		s.log.Error("clipboard read failed", "err", err)
		return
	}
	if text == "" {
		return
	}

	s.mu.Lock()
	if text == s.lastClip {
		s.mu.Unlock()
		return
	}
	s.lastClip = text
	s.mu.Unlock()

	s.OnClipboardChanged(text)
}
