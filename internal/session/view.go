package session

import (
	"time"

	"timeline-cli/internal/format"
	"timeline-cli/internal/model"
	"timeline-cli/internal/undo"
)

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorNotFound
	ErrorTransport
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNotFound:
		return "not_found"
	case ErrorTransport:
		return "transport"
	default:
		return ""
	}
}

type SaveResult int

const (
	SaveNone SaveResult = iota
	SaveSucceeded
	SaveFailed
)

// View is a point-in-time copy of the session state for rendering.
type View struct {
	Slug      string
	Status    Status
	ErrorKind ErrorKind
	Err       string

	EditMode bool
	Saving   bool
	// Dirty is set when the working copy has unsaved changes.
	Dirty bool
	// RestoredDraft is set when the working copy came from a local draft rather than
	// the remote document; DraftSavedAt is when that draft was written.
	RestoredDraft bool
	DraftSavedAt  time.Time

	SaveResult SaveResult
	SaveErr    string
	SaveAt     time.Time

	// Pending is the deletion that can still be undone, if any.
	Pending *undo.Pending

	Timeline model.Timeline
}

func (v View) Ready() bool { return v.Status == StatusReady }

// View snapshots the session.
func (s *Session) View() View {
	s.mu.Lock()
	v := View{
		Slug:          s.slug,
		Status:        s.status,
		ErrorKind:     s.errKind,
		EditMode:      s.editMode,
		Saving:        s.saving,
		Dirty:         s.dirty,
		RestoredDraft: s.restored,
		DraftSavedAt:  s.draftAt,
		SaveResult:    s.saveResult,
		SaveAt:        s.saveAt,
		Timeline:      s.doc.Clone(),
	}
	if s.err != nil {
		v.Err = s.err.Error()
	}
	if s.saveErr != nil {
		v.SaveErr = s.saveErr.Error()
	}
	s.mu.Unlock()

	if p, ok := s.undo.Pending(); ok {
		v.Pending = &p
	}
	return v
}

// Timeline returns a copy of the working document.
func (s *Session) Timeline() model.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// CopyText renders the working document as plain text for sharing.
func (s *Session) CopyText() string {
	return format.CopyText(s.Timeline())
}
