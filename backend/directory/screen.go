// Package directory implements the public employee directory: a read-only
// card list with search, interest filter, name sort and a detail popup.
package directory

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/mapview"
	"gitea.kood.tech/petrkubec/staff-directory/backend/pipeline"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

var (
	ErrNotBrowsing    = errors.New("directory: only allowed while browsing")
	ErrNoSelection    = errors.New("directory: no profile is open")
	ErrUnknownProfile = errors.New("directory: profile is not in the list")
)

// State is the screen state.
type State string

const (
	Loading    State = "loading"
	Browsing   State = "browsing"
	DetailOpen State = "detail"
)

const (
	LoadingMessage = "Loading profiles..."
	EmptyMessage   = "No profiles found matching your search criteria."
)

// Card is one rendered row. Map is set only while its widget is shown.
type Card struct {
	profile.Profile
	Map *mapview.Widget `json:"map,omitempty"`
}

// Detail is the popup for the selected profile. Map is nil when the stored
// coordinates do not parse.
type Detail struct {
	Profile profile.Profile `json:"profile"`
	Map     *mapview.Widget `json:"map,omitempty"`
}

// View is a snapshot of everything the directory renders.
type View struct {
	State     State              `json:"state"`
	Message   string             `json:"message,omitempty"`
	Search    string             `json:"search"`
	Interest  string             `json:"interest"`
	SortField pipeline.SortField `json:"sortField"`
	SortOrder pipeline.SortOrder `json:"sortOrder"`
	SortLabel string             `json:"sortLabel"`
	Interests []string           `json:"interests"`
	Cards     []Card             `json:"cards"`
	Empty     bool               `json:"empty"`
	Detail    *Detail            `json:"detail,omitempty"`
}

// Screen is one directory instance with its own cache.
type Screen struct {
	store  store.ProfileStore
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	loaded    bool
	cache     []profile.Profile
	interests []string
	query     pipeline.Query
	selected  *profile.Profile
	shownMaps map[string]bool
}

// NewScreen creates a screen in the Loading state.
func NewScreen(s store.ProfileStore, logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screen{
		store:     s,
		logger:    logger.With(zap.String("screen", "directory")),
		state:     Loading,
		query:     pipeline.DefaultQuery(),
		interests: []string{},
		shownMaps: make(map[string]bool),
	}
}

// Load fetches the list and enters Browsing. A failed fetch is logged and
// the screen browses an empty list. The interest menu is derived on the first
// load only. The fetch error is returned for callers that want it.
func (s *Screen) Load(ctx context.Context) error {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.Warn("error fetching profiles", zap.String("collection", store.CollectionName), zap.Error(err))
		list = []profile.Profile{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = list
	if !s.loaded {
		s.interests = pipeline.UniqueInterests(list)
		s.loaded = true
	}
	if s.state == Loading {
		s.state = Browsing
	}
	return err
}

// State returns the current state.
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Interests returns the filter menu entries.
func (s *Screen) Interests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.interests...)
}

// Rows returns the cards for the current query.
func (s *Screen) Rows() []profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pipeline.Apply(s.cache, s.query, pipeline.Directory)
}

func (s *Screen) updateQuery(fn func(q *pipeline.Query)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Browsing {
		return ErrNotBrowsing
	}
	fn(&s.query)
	return nil
}

// SetSearch changes the search text.
func (s *Screen) SetSearch(term string) error {
	return s.updateQuery(func(q *pipeline.Query) { q.Search = term })
}

// SetInterest picks the interest filter; "" clears it.
func (s *Screen) SetInterest(interest string) error {
	return s.updateQuery(func(q *pipeline.Query) { q.Interest = interest })
}

// SetSortField changes the sort key. Unknown fields keep list order.
func (s *Screen) SetSortField(field pipeline.SortField) error {
	return s.updateQuery(func(q *pipeline.Query) { q.SortField = field })
}

// ToggleSortOrder flips the sort direction.
func (s *Screen) ToggleSortOrder() error {
	return s.updateQuery(func(q *pipeline.Query) { q.SortOrder = q.SortOrder.Toggle() })
}

// ToggleMap shows or hides the map on a card.
func (s *Screen) ToggleMap(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Browsing {
		return ErrNotBrowsing
	}
	if s.indexOf(id) < 0 {
		return ErrUnknownProfile
	}
	if s.shownMaps[id] {
		delete(s.shownMaps, id)
	} else {
		s.shownMaps[id] = true
	}
	return nil
}

// Select opens the detail popup for the cached profile with id.
func (s *Screen) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Browsing {
		return ErrNotBrowsing
	}
	i := s.indexOf(id)
	if i < 0 {
		return ErrUnknownProfile
	}
	p := s.cache[i]
	s.selected = &p
	s.state = DetailOpen
	return nil
}

// Selected returns the open profile.
func (s *Screen) Selected() (profile.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return profile.Profile{}, false
	}
	return *s.selected, true
}

// Close dismisses the detail popup.
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != DetailOpen {
		return ErrNoSelection
	}
	s.selected = nil
	s.state = Browsing
	return nil
}

// View returns a snapshot of the screen.
func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:     s.state,
		Search:    s.query.Search,
		Interest:  s.query.Interest,
		SortField: s.query.SortField,
		SortOrder: s.query.SortOrder,
		SortLabel: SortLabel(s.query.SortOrder),
		Interests: append([]string{}, s.interests...),
		Cards:     []Card{},
	}
	if s.state == Loading {
		v.Message = LoadingMessage
		return v
	}

	for _, p := range pipeline.Apply(s.cache, s.query, pipeline.Directory) {
		c := Card{Profile: p}
		if s.shownMaps[p.ID] {
			c.Map = s.widget(p)
		}
		v.Cards = append(v.Cards, c)
	}
	if len(v.Cards) == 0 {
		v.Empty = true
		v.Message = EmptyMessage
	}
	if s.selected != nil {
		v.Detail = &Detail{Profile: *s.selected, Map: s.widget(*s.selected)}
	}
	return v
}

func (s *Screen) widget(p profile.Profile) *mapview.Widget {
	m, err := mapview.ForProfile(p)
	if err != nil {
		s.logger.Debug("profile has no usable coordinates", zap.String("id", p.ID), zap.Error(err))
		return nil
	}
	w := mapview.NewWidget(m).Show()
	return &w
}

// SortLabel is the toggle button caption.
func SortLabel(o pipeline.SortOrder) string {
	if o == pipeline.Desc {
		return "Z-A"
	}
	return "A-Z"
}

func (s *Screen) indexOf(id string) int {
	for i, p := range s.cache {
		if p.ID == id {
			return i
		}
	}
	return -1
}
