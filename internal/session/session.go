// Package session owns the working copy of one timeline while it is being viewed and
// edited.
//
// A Session reconciles three sources of truth: the canonical document held by the remote
// store, a draft persisted on the local device, and the server's response to a save.
// On load a stored draft shadows the remote document entirely. While edit mode is on,
// every edit rewrites the draft synchronously. A successful save adopts the server's
// document and clears the draft.
//
// All methods are safe for concurrent use. Network calls are made without holding the
// session lock, so edits are never blocked behind a slow load or save.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"timeline-cli/internal/draft"
	"timeline-cli/internal/model"
	"timeline-cli/internal/order"
	"timeline-cli/internal/remote"
	"timeline-cli/internal/undo"

	"github.com/rs/zerolog"
)

var (
	ErrNotReady     = errors.New("timeline is not loaded")
	ErrSaveInFlight = errors.New("a save is already in progress")
	ErrClosed       = errors.New("session closed")
	ErrUnknownItem  = errors.New("unknown item")
	ErrUnknownField = errors.New("unknown item field")
)

// Remote is the document store the session loads from and saves to.
type Remote interface {
	Fetch(ctx context.Context, slug string) (remote.Document, error)
	Replace(ctx context.Context, slug string, body remote.ReplaceRequest) (remote.Document, error)
}

type Options struct {
	Remote Remote
	// Drafts defaults to draft.Unavailable (edits live in memory only).
	Drafts draft.Store
	Logger zerolog.Logger

	// UndoWindow defaults to undo.DefaultWindow.
	UndoWindow time.Duration
	// AfterFunc replaces time.AfterFunc for the undo timer.
	AfterFunc func(time.Duration, func()) undo.Timer
	Now       func() time.Time

	// EditMode starts the session in edit mode.
	EditMode bool
}

type Session struct {
	slug   string
	key    string
	remote Remote
	drafts draft.Store
	log    zerolog.Logger
	now    func() time.Time
	undo   *undo.Buffer

	mu       sync.Mutex
	status   Status
	errKind  ErrorKind
	err      error
	doc      model.Timeline
	editMode bool
	restored bool
	draftAt  time.Time

	saving     bool
	saveResult SaveResult
	saveErr    error
	saveAt     time.Time

	// loadGen is bumped by every Load; results from an older load (or a save started
	// against an older load) are discarded.
	loadGen uint64
	// rev counts edits to the working copy.
	rev    uint64
	dirty  bool
	closed bool
}

func New(slug string, opts Options) *Session {
	s := &Session{
		slug:     slug,
		key:      draft.Key(slug),
		remote:   opts.Remote,
		drafts:   opts.Drafts,
		log:      opts.Logger.With().Str("slug", slug).Logger(),
		now:      opts.Now,
		editMode: opts.EditMode,
		status:   StatusLoading,
	}
	if s.drafts == nil {
		s.drafts = draft.Unavailable{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	uopts := []undo.Option{
		undo.WithClock(s.now),
		undo.WithOnExpire(s.onUndoExpired),
	}
	if opts.AfterFunc != nil {
		uopts = append(uopts, undo.WithAfterFunc(opts.AfterFunc))
	}
	s.undo = undo.New(opts.UndoWindow, uopts...)
	return s
}

func (s *Session) Slug() string { return s.slug }

// DraftKey is the key this session's draft is stored under.
func (s *Session) DraftKey() string { return s.key }

// UndoWindow is how long a deletion can be undone.
func (s *Session) UndoWindow() time.Duration { return s.undo.Window() }

// Load fetches the remote document and reconciles it with any stored draft. On failure
// the session enters the failed state and holds no document.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loadGen++
	gen := s.loadGen
	s.status = StatusLoading
	s.err = nil
	s.errKind = ErrorNone
	s.mu.Unlock()

	doc, err := s.remote.Fetch(ctx, s.slug)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.loadGen {
		s.log.Debug().Msg("discarding stale load result")
		return ErrClosed
	}
	if err != nil {
		s.status = StatusFailed
		s.err = err
		s.errKind = classify(err)
		s.doc = model.Timeline{}
		s.log.Warn().Err(err).Msg("load failed")
		return err
	}

	s.undo.Clear()
	s.doc = doc.Timeline()
	s.restored = false
	s.dirty = false
	s.draftAt = time.Time{}
	if snap, ok := s.loadDraft(); ok {
		s.doc = snap.Timeline()
		s.restored = true
		s.dirty = true
		s.draftAt = snap.SavedAt
		s.log.Info().Int("items", len(s.doc.Items)).Msg("restored local draft")
	}
	s.status = StatusReady
	s.saveResult = SaveNone
	s.saveErr = nil
	s.rev++
	return nil
}

// DiscardDraft clears the stored draft and reloads the remote document.
func (s *Session) DiscardDraft(ctx context.Context) error {
	s.clearDraft()
	return s.Load(ctx)
}

// Close stops the undo timer and detaches the session; late load and save results are
// dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.undo.Close()
}

func (s *Session) loadDraft() (model.Snapshot, bool) {
	snap, ok, err := s.drafts.Load(s.key)
	if err != nil {
		s.logStorage(err, "draft load failed")
		return model.Snapshot{}, false
	}
	return snap, ok
}

func (s *Session) clearDraft() {
	if err := s.drafts.Clear(s.key); err != nil {
		s.logStorage(err, "draft clear failed")
	}
}

func (s *Session) logStorage(err error, msg string) {
	if errors.Is(err, draft.ErrUnavailable) {
		s.log.Debug().Err(err).Msg(msg)
		return
	}
	s.log.Warn().Err(err).Msg(msg)
}

func classify(err error) ErrorKind {
	switch {
	case remote.IsNotFound(err):
		return ErrorNotFound
	default:
		return ErrorTransport
	}
}

// errNoChange aborts a mutation without error and without touching the draft.
var errNoChange = errors.New("no change")

func (s *Session) mutate(fn func(doc *model.Timeline) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.status != StatusReady {
		return ErrNotReady
	}
	doc := s.doc
	if err := fn(&doc); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	s.doc = doc
	s.rev++
	s.dirty = true
	s.persistLocked()
	return nil
}

// persistLocked writes the working copy to the draft store when in edit mode. A pending
// deletion is not part of the draft: the item is written back at its old position.
func (s *Session) persistLocked() {
	if !s.editMode {
		return
	}
	snap := s.doc.Snapshot()
	if p, ok := s.undo.Pending(); ok && order.IndexOf(snap.Items, p.Item.ID) < 0 {
		i := min(max(p.Index, 0), len(snap.Items))
		items := make([]model.Item, 0, len(snap.Items)+1)
		items = append(items, snap.Items[:i]...)
		items = append(items, p.Item)
		snap.Items = append(items, snap.Items[i:]...)
	}
	if err := s.drafts.Save(s.key, snap); err != nil {
		s.logStorage(err, "draft save failed")
	}
}
