// Package admin implements the admin panel: a cached profile list, one
// add/edit form and the store mutations behind it.
package admin

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/pipeline"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

var (
	ErrFormClosed     = errors.New("admin: no form is open")
	ErrFormOpen       = errors.New("admin: form is open")
	ErrSubmitInFlight = errors.New("admin: a submission is already in flight")
	ErrUnknownProfile = errors.New("admin: profile is not in the list")
)

// State is the screen state.
type State string

const (
	Browsing State = "browsing"
	FormOpen State = "form"
)

// Mode says what a submitted form does.
type Mode string

const (
	Create Mode = "create"
	Edit   Mode = "edit"
)

// Notice texts.
const (
	NoticeAdded       = "Profile added successfully!"
	NoticeUpdated     = "Profile updated successfully!"
	NoticeDeleted     = "Profile deleted successfully!"
	NoticeFetchFailed = "Error fetching profiles."
	NoticeSaveFailed  = "Error submitting profile."
	NoticeDelFailed   = "Error deleting profile."
)

// Notice is a one-shot message for the user.
type Notice struct {
	Error bool   `json:"error"`
	Text  string `json:"text"`
}

// Form is the open add/edit form.
type Form struct {
	Mode     Mode            `json:"mode"`
	Draft    profile.Profile `json:"draft"`
	TargetID string          `json:"targetId,omitempty"`

	// FieldError names the field that blocked the last submit.
	FieldError string `json:"fieldError,omitempty"`
	Submitting bool   `json:"submitting"`
}

// View is a snapshot of everything the admin panel renders.
type View struct {
	State     State              `json:"state"`
	Search    string             `json:"search"`
	SortOrder pipeline.SortOrder `json:"sortOrder"`
	SortLabel string             `json:"sortLabel"`
	Rows      []profile.Profile  `json:"rows"`
	Total     int                `json:"total"` // rows left after the search
	Form      *Form              `json:"form,omitempty"`
}

// Screen is one admin panel instance. It owns its cache; two screens never
// share state. Methods are safe for concurrent use, and store calls are made
// without holding the lock.
type Screen struct {
	store  store.ProfileStore
	logger *zap.Logger

	mu       sync.Mutex
	cache    []profile.Profile
	query    pipeline.Query
	state    State
	form     Form
	inFlight bool
	notice   *Notice
}

// NewScreen creates a screen in the Browsing state with an empty cache.
func NewScreen(s store.ProfileStore, logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screen{
		store:  s,
		logger: logger.With(zap.String("screen", "admin")),
		query:  pipeline.DefaultQuery(),
		state:  Browsing,
	}
}

// Load replaces the cache with the store's full list. On failure the cache
// is left as it was.
func (s *Screen) Load(ctx context.Context) error {
	list, err := s.store.ListAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Error("error fetching profiles", zap.String("collection", store.CollectionName), zap.Error(err))
		s.notice = &Notice{Error: true, Text: NoticeFetchFailed}
		return err
	}
	s.cache = list
	return nil
}

// Rows returns the table rows for the current query.
func (s *Screen) Rows() []profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pipeline.Apply(s.cache, s.query, pipeline.Admin)
}

// State returns the current state.
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetSearch updates the name search. The list controls are hidden while the
// form is open.
func (s *Screen) SetSearch(term string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Browsing {
		return ErrFormOpen
	}
	s.query.Search = term
	return nil
}

// ToggleSortOrder flips the name sort direction.
func (s *Screen) ToggleSortOrder() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Browsing {
		return ErrFormOpen
	}
	s.query.SortOrder = s.query.SortOrder.Toggle()
	return nil
}

// OpenCreate opens an empty add form.
func (s *Screen) OpenCreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Browsing {
		return ErrFormOpen
	}
	s.state = FormOpen
	s.form = Form{Mode: Create}
	return nil
}

// OpenEdit opens the form on a copy of the cached profile with id.
func (s *Screen) OpenEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Browsing {
		return ErrFormOpen
	}
	i := s.indexOf(id)
	if i < 0 {
		return ErrUnknownProfile
	}
	s.state = FormOpen
	s.form = Form{Mode: Edit, Draft: s.cache[i].Fields(), TargetID: id}
	return nil
}

// SetField changes one draft field.
func (s *Screen) SetField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != FormOpen {
		return ErrFormClosed
	}
	if s.inFlight {
		return ErrSubmitInFlight
	}
	if err := s.form.Draft.Set(field, value); err != nil {
		return err
	}
	if s.form.FieldError == field {
		s.form.FieldError = ""
	}
	return nil
}

// Cancel discards the draft and returns to Browsing.
func (s *Screen) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != FormOpen {
		return ErrFormClosed
	}
	if s.inFlight {
		return ErrSubmitInFlight
	}
	s.state = Browsing
	s.form = Form{}
	return nil
}

// Submit validates the draft and, when every field is filled in, inserts or
// updates it. A failed validation returns a *profile.ValidationError without
// touching the store. A failed store call leaves the form open and the cache
// unchanged.
func (s *Screen) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != FormOpen {
		s.mu.Unlock()
		return ErrFormClosed
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	if err := profile.Validate(s.form.Draft); err != nil {
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			s.form.FieldError = verr.Field
			s.notice = &Notice{Error: true, Text: verr.Notice()}
		}
		s.mu.Unlock()
		return err
	}
	s.inFlight = true
	s.form.Submitting = true
	form := s.form
	s.mu.Unlock()

	var (
		created profile.Profile
		err     error
	)
	if form.Mode == Create {
		created, err = s.store.Insert(ctx, form.Draft)
	} else {
		err = s.store.UpdateByID(ctx, form.TargetID, form.Draft)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.form.Submitting = false
	if err != nil {
		s.logger.Error("error submitting profile",
			zap.String("mode", string(form.Mode)),
			zap.String("id", form.TargetID),
			zap.Error(err))
		s.notice = &Notice{Error: true, Text: NoticeSaveFailed}
		return err
	}

	if form.Mode == Create {
		s.cache = append(s.cache, created)
		s.notice = &Notice{Text: NoticeAdded}
	} else {
		if i := s.indexOf(form.TargetID); i >= 0 {
			s.cache[i] = form.Draft.WithID(form.TargetID)
		}
		s.notice = &Notice{Text: NoticeUpdated}
	}
	s.state = Browsing
	s.form = Form{}
	return nil
}

// Delete removes the profile with id from the store and then from the cache.
// The store call is issued even when id is no longer cached.
func (s *Screen) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.state != Browsing {
		s.mu.Unlock()
		return ErrFormOpen
	}
	s.mu.Unlock()

	err := s.store.DeleteByID(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Error("error deleting profile", zap.String("id", id), zap.Error(err))
		s.notice = &Notice{Error: true, Text: NoticeDelFailed}
		return err
	}
	if i := s.indexOf(id); i >= 0 {
		s.cache = append(s.cache[:i:i], s.cache[i+1:]...)
	}
	s.notice = &Notice{Text: NoticeDeleted}
	return nil
}

// TakeNotice returns the pending notice and clears it.
func (s *Screen) TakeNotice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return Notice{}, false
	}
	n := *s.notice
	s.notice = nil
	return n, true
}

// View returns a snapshot of the screen.
func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:     s.state,
		Search:    s.query.Search,
		SortOrder: s.query.SortOrder,
		SortLabel: SortLabel(s.query.SortOrder),
	}
	if s.state == FormOpen {
		f := s.form
		v.Form = &f
		return v
	}
	v.Rows = pipeline.Apply(s.cache, s.query, pipeline.Admin)
	v.Total = len(v.Rows)
	return v
}

// SortLabel is the toggle button caption.
func SortLabel(o pipeline.SortOrder) string {
	if o == pipeline.Desc {
		return "Descending"
	}
	return "Ascending"
}

func (s *Screen) indexOf(id string) int {
	for i, p := range s.cache {
		if p.ID == id {
			return i
		}
	}
	return -1
}
