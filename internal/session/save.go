package session

import (
	"context"
	"time"

	"timeline-cli/internal/model"
	"timeline-cli/internal/remote"
)

// Save sends the working copy to the remote store as a full replacement.
//
// On success the server's document is adopted (it may assign new item ids; a null title
// or date keeps the local value) and the draft is cleared. On failure the working copy
// and the draft are left as they were and Save may be retried. Only one save may be in
// flight at a time.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.status != StatusReady:
		s.mu.Unlock()
		return ErrNotReady
	case s.saving:
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.saving = true
	req := remote.NewReplaceRequest(s.doc)
	gen, rev := s.loadGen, s.rev
	s.mu.Unlock()

	started := time.Now()
	doc, err := s.remote.Replace(ctx, s.slug, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if s.closed || gen != s.loadGen {
		s.log.Debug().Msg("discarding stale save result")
		return ErrClosed
	}
	s.saveAt = s.now()
	if err != nil {
		s.saveResult = SaveFailed
		s.saveErr = err
		s.log.Warn().Err(err).Msg("save failed")
		return err
	}
	s.saveResult = SaveSucceeded
	s.saveErr = nil
	s.log.Info().Int("items", len(req.Items)).Dur("took", time.Since(started)).Msg("saved")

	if rev != s.rev {
		// Edited while the request was out: the newer edits and their draft stay.
		s.log.Info().Msg("working copy changed during save; keeping local edits")
		return nil
	}

	next := model.Timeline{
		Title:     s.doc.Title,
		EventDate: s.doc.EventDate,
		Items:     model.NormalizeItems(doc.Items),
	}
	if doc.Title != nil {
		next.Title = *doc.Title
	}
	if doc.EventDate != nil {
		next.EventDate = *doc.EventDate
	}
	s.doc = next
	s.rev++
	s.dirty = false
	s.restored = false
	s.draftAt = time.Time{}
	s.clearDraft()
	return nil
}

// Dirty reports whether the working copy has changes the remote store has not seen.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}
