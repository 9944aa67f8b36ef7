package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitea.kood.tech/petrkubec/staff-directory/backend/pipeline"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// recordingStore wraps a MemoryStore, counting calls and optionally failing.
type recordingStore struct {
	*store.MemoryStore

	mu      sync.Mutex
	calls   map[string]int
	failOn  map[string]error
	blockOn chan struct{} // when set, Insert waits for it to close
}

func newRecordingStore(seed ...profile.Profile) *recordingStore {
	return &recordingStore{
		MemoryStore: store.NewMemoryStore(seed...),
		calls:       map[string]int{},
		failOn:      map[string]error{},
	}
}

func (r *recordingStore) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	return r.failOn[op]
}

func (r *recordingStore) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *recordingStore) ListAll(ctx context.Context) ([]profile.Profile, error) {
	if err := r.record("list"); err != nil {
		return nil, err
	}
	return r.MemoryStore.ListAll(ctx)
}

func (r *recordingStore) Insert(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if r.blockOn != nil {
		<-r.blockOn
	}
	if err := r.record("insert"); err != nil {
		return profile.Profile{}, err
	}
	return r.MemoryStore.Insert(ctx, p)
}

func (r *recordingStore) UpdateByID(ctx context.Context, id string, p profile.Profile) error {
	if err := r.record("update"); err != nil {
		return err
	}
	return r.MemoryStore.UpdateByID(ctx, id, p)
}

func (r *recordingStore) DeleteByID(ctx context.Context, id string) error {
	if err := r.record("delete"); err != nil {
		return err
	}
	return r.MemoryStore.DeleteByID(ctx, id)
}

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func filled(name string) profile.Profile {
	return profile.Profile{
		Name:          name,
		PhotographURL: "https://example.com/p.jpg",
		Description:   "desc",
		Longitude:     "24.75",
		Latitude:      "59.43",
		ContactInfo:   "mail@example.com",
		Interest:      "Tech",
	}
}

func fillForm(t *testing.T, s *Screen, p profile.Profile) {
	t.Helper()
	for _, f := range profile.Fields {
		v, err := p.Get(f)
		require.NoError(t, err)
		require.NoError(t, s.SetField(f, v))
	}
}

func loadedScreen(t *testing.T, seed ...profile.Profile) (*Screen, *recordingStore) {
	t.Helper()
	st := newRecordingStore(seed...)
	s := NewScreen(st, zaptest.NewLogger(t))
	require.NoError(t, s.Load(context.Background()))
	return s, st
}

func names(rows []profile.Profile) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestBrowsingRows(t *testing.T) {
	s, _ := loadedScreen(t,
		profile.Profile{ID: "1", Name: "Carol", Description: "bob fan"},
		profile.Profile{ID: "2", Name: "Bob"},
		profile.Profile{ID: "3", Name: "Anna"},
	)

	assert.Equal(t, []string{"Anna", "Bob", "Carol"}, names(s.Rows()))

	require.NoError(t, s.ToggleSortOrder())
	assert.Equal(t, []string{"Carol", "Bob", "Anna"}, names(s.Rows()))

	// Admin search looks at names only.
	require.NoError(t, s.SetSearch(" BOB "))
	assert.Equal(t, []string{"Bob"}, names(s.Rows()))

	v := s.View()
	assert.Equal(t, Browsing, v.State)
	assert.Equal(t, "Descending", v.SortLabel)
	assert.Equal(t, 1, v.Total)
	assert.Len(t, v.Rows, v.Total)
	assert.Nil(t, v.Form)
}

func TestSubmitCreate(t *testing.T) {
	s, st := loadedScreen(t)

	require.NoError(t, s.OpenCreate())
	assert.Equal(t, FormOpen, s.State())
	fillForm(t, s, filled("Dana"))
	require.NoError(t, s.Submit(context.Background()))

	assert.Equal(t, Browsing, s.State())
	assert.Equal(t, 1, st.count("insert"))

	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].ID)
	assert.Equal(t, filled("Dana"), rows[0].Fields())

	n, ok := s.TakeNotice()
	require.True(t, ok)
	assert.Equal(t, Notice{Text: NoticeAdded}, n)
	_, ok = s.TakeNotice()
	assert.False(t, ok, "notices are one-shot")
}

func TestSubmitBlocksOnFirstEmptyField(t *testing.T) {
	s, st := loadedScreen(t)
	require.NoError(t, s.OpenCreate())

	draft := filled("Dana")
	draft.Longitude = "   "
	draft.ContactInfo = ""
	fillForm(t, s, draft)

	err := s.Submit(context.Background())
	var verr *profile.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, profile.FieldLongitude, verr.Field)

	assert.Equal(t, 0, st.count("insert"), "no store call on validation failure")
	assert.Equal(t, FormOpen, s.State())
	assert.Equal(t, profile.FieldLongitude, s.View().Form.FieldError)

	n, ok := s.TakeNotice()
	require.True(t, ok)
	assert.Equal(t, "Please fill in the longitude field.", n.Text)
	assert.True(t, n.Error)

	// Fixing the field clears its error marker.
	require.NoError(t, s.SetField(profile.FieldLongitude, "1"))
	assert.Empty(t, s.View().Form.FieldError)
}

func TestSubmitEdit(t *testing.T) {
	s, st := loadedScreen(t, filled("Ann").WithID("a"), filled("Ben").WithID("b"))

	require.NoError(t, s.OpenEdit("b"))
	v := s.View()
	require.NotNil(t, v.Form)
	assert.Equal(t, Edit, v.Form.Mode)
	assert.Equal(t, "b", v.Form.TargetID)
	assert.Equal(t, "Ben", v.Form.Draft.Name)

	require.NoError(t, s.SetField(profile.FieldName, "Benjamin"))
	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, 1, st.count("update"))

	stored, err := st.MemoryStore.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Benjamin", stored[1].Name)
	assert.Equal(t, []string{"Ann", "Benjamin"}, names(s.Rows()))

	n, _ := s.TakeNotice()
	assert.Equal(t, NoticeUpdated, n.Text)
}

func TestStoreFailureKeepsFormAndCache(t *testing.T) {
	s, st := loadedScreen(t, filled("Ann").WithID("a"))
	st.failOn["update"] = store.ErrUnavailable

	require.NoError(t, s.OpenEdit("a"))
	require.NoError(t, s.SetField(profile.FieldName, "Changed"))
	err := s.Submit(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)

	assert.Equal(t, FormOpen, s.State())
	assert.Equal(t, "Changed", s.View().Form.Draft.Name)
	n, _ := s.TakeNotice()
	assert.Equal(t, Notice{Error: true, Text: NoticeSaveFailed}, n)

	require.NoError(t, s.Cancel())
	assert.Equal(t, []string{"Ann"}, names(s.Rows()))
}

func TestCancelDiscardsDraft(t *testing.T) {
	s, st := loadedScreen(t)
	require.NoError(t, s.OpenCreate())
	require.NoError(t, s.SetField(profile.FieldName, "x"))
	require.NoError(t, s.Cancel())

	assert.Equal(t, Browsing, s.State())
	assert.Empty(t, s.Rows())
	assert.Equal(t, 0, st.count("insert"))

	require.NoError(t, s.OpenCreate())
	assert.Equal(t, profile.Profile{}, s.View().Form.Draft)
}

func TestTransitionGuards(t *testing.T) {
	s, _ := loadedScreen(t, filled("Ann").WithID("a"))
	ctx := context.Background()

	assert.ErrorIs(t, s.Cancel(), ErrFormClosed)
	assert.ErrorIs(t, s.Submit(ctx), ErrFormClosed)
	assert.ErrorIs(t, s.SetField(profile.FieldName, "x"), ErrFormClosed)
	assert.ErrorIs(t, s.OpenEdit("missing"), ErrUnknownProfile)

	require.NoError(t, s.OpenCreate())
	assert.ErrorIs(t, s.OpenCreate(), ErrFormOpen)
	assert.ErrorIs(t, s.OpenEdit("a"), ErrFormOpen)
	assert.ErrorIs(t, s.SetSearch("a"), ErrFormOpen)
	assert.ErrorIs(t, s.ToggleSortOrder(), ErrFormOpen)
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrFormOpen)
	assert.Error(t, s.SetField("age", "3"))
}

func TestDelete(t *testing.T) {
	s, st := loadedScreen(t, filled("Ann").WithID("a"), filled("Ben").WithID("b"))

	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.Equal(t, []string{"Ben"}, names(s.Rows()))
	assert.Equal(t, 1, st.count("delete"))
	n, _ := s.TakeNotice()
	assert.Equal(t, NoticeDeleted, n.Text)
}

func TestDeleteFailureLeavesCache(t *testing.T) {
	s, st := loadedScreen(t, filled("Ann").WithID("a"))
	st.failOn["delete"] = store.ErrUnavailable

	err := s.Delete(context.Background(), "a")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Equal(t, []string{"Ann"}, names(s.Rows()))
	n, _ := s.TakeNotice()
	assert.Equal(t, Notice{Error: true, Text: NoticeDelFailed}, n)
}

func TestDeleteAlreadyRemovedElsewhere(t *testing.T) {
	s, st := loadedScreen(t, filled("Ann").WithID("a"), filled("Ben").WithID("b"))
	other, _ := loadedScreen(t)
	other.store = st

	// Another session removes "a" and this screen has already dropped it.
	require.NoError(t, other.Delete(context.Background(), "a"))
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, []string{"Ben"}, names(s.Rows()))

	err := s.Delete(context.Background(), "a")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 2, st.count("delete"), "store call still issued")
	assert.Equal(t, []string{"Ben"}, names(s.Rows()))
	n, _ := s.TakeNotice()
	assert.Equal(t, Notice{Error: true, Text: NoticeDelFailed}, n)
}

func TestLoadFailureKeepsCache(t *testing.T) {
	s, st := loadedScreen(t, filled("Ann").WithID("a"))
	st.failOn["list"] = errors.New("boom")

	assert.Error(t, s.Load(context.Background()))
	assert.Equal(t, []string{"Ann"}, names(s.Rows()))
	n, _ := s.TakeNotice()
	assert.Equal(t, NoticeFetchFailed, n.Text)
}

func TestResubmitWhileInFlight(t *testing.T) {
	s, st := loadedScreen(t)
	st.blockOn = make(chan struct{})

	require.NoError(t, s.OpenCreate())
	fillForm(t, s, filled("Dana"))

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()

	require.Eventually(t, func() bool { return s.View().Form.Submitting }, timeout, tick)
	assert.ErrorIs(t, s.Submit(context.Background()), ErrSubmitInFlight)
	assert.ErrorIs(t, s.Cancel(), ErrSubmitInFlight)
	assert.ErrorIs(t, s.SetField(profile.FieldName, "x"), ErrSubmitInFlight)

	close(st.blockOn)
	require.NoError(t, <-done)
	assert.Equal(t, 1, st.count("insert"))
	assert.Len(t, s.Rows(), 1)
}

func TestSortLabel(t *testing.T) {
	assert.Equal(t, "Ascending", SortLabel(pipeline.Asc))
	assert.Equal(t, "Descending", SortLabel(pipeline.Desc))
}
