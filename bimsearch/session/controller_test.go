package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/bimsearch-go/bimsearch/detail"
	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
	"github.com/krew-solutions/bimsearch-go/bimsearch/executor"
	"github.com/krew-solutions/bimsearch-go/bimsearch/option"
	query "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain"
	"github.com/krew-solutions/bimsearch-go/bimsearch/store/memory"
	"github.com/krew-solutions/bimsearch-go/bimsearch/viewer"
	"github.com/krew-solutions/bimsearch-go/bimsearch/viewer/viewertest"
)

func record(container string, external int64, category, name string) element.Record {
	return element.Record{
		ContainerID: container,
		ExternalID:  external,
		Category:    category,
		Attributes: map[string]element.AttributeValue{
			"Name": {Value: name},
		},
	}
}

func newFixture(records ...element.Record) (*Controller, *memory.Store, *viewertest.Scene) {
	store := memory.NewStore(records...)
	scene := viewertest.NewScene()
	ctrl := NewController(
		executor.NewExecutor(store),
		viewer.NewSynchronizer(scene),
		WithDetails(detail.NewFetcher(store, 16)),
	)
	return ctrl, store, scene
}

func pumpRecords() []element.Record {
	return []element.Record{
		record("c1", 1, "Equipment", "Feed pump"),
		record("c1", 2, "Equipment", "Booster pump"),
		record("c2", 3, "Equipment", "Sump pump"),
		record("c2", 4, "Door", "Plant room door"),
	}
}

func TestSearchMatchedIsolatesAndAppendsGroup(t *testing.T) {
	ctrl, _, scene := newFixture(pumpRecords()...)
	ctrl.SetScope([]string{"c1", "c2"})
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "pump", Logic: query.LogicAnd})

	require.NoError(t, ctrl.Search(context.Background()))

	assert.Equal(t, StateResults, ctrl.State())
	isolates := scene.CallsOf("isolate")
	require.Len(t, isolates, 1)
	assert.Equal(t, viewer.Mapping{"c1": {1, 2}, "c2": {3}}, isolates[0].Mapping)

	groups := ctrl.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].ID)
	assert.NotEmpty(t, groups[0].Token)
	assert.Len(t, groups[0].Items, 3)
}

func TestGroupEventPayloadIsDetachedFromHistory(t *testing.T) {
	ctrl, _, _ := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "pump", Logic: query.LogicAnd})

	ctrl.OnGroupAppended().Attach(func(e GroupAppendedEvent) {
		// A misbehaving observer scribbling on the payload must not reach
		// the stored history group.
		for i := range e.Group.Items {
			e.Group.Items[i].Name = "scribbled"
		}
	})

	require.NoError(t, ctrl.Search(context.Background()))

	groups := ctrl.Groups()
	require.Len(t, groups, 1)
	for _, item := range groups[0].Items {
		assert.NotEqual(t, "scribbled", item.Name)
	}
}

func TestEmptyQueryShowsAllAndKeepsHistory(t *testing.T) {
	ctrl, _, scene := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "pump", Logic: query.LogicAnd})
	require.NoError(t, ctrl.Search(context.Background()))
	require.Len(t, ctrl.Groups(), 1)

	// Clearing the row value makes it inert: the next search is an empty
	// query, which restores visibility but never mutates old groups.
	require.NoError(t, ctrl.UpdateRow(0, query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: ""}))
	require.NoError(t, ctrl.Search(context.Background()))

	assert.Equal(t, StateIdle, ctrl.State())
	assert.Len(t, scene.CallsOf("setAllVisible"), 1)
	assert.Len(t, ctrl.Groups(), 1, "history must survive an empty query")
}

func TestNoMatchesNoticeAndShowAll(t *testing.T) {
	ctrl, _, scene := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "zzz", Logic: query.LogicAnd})

	var notices []NoticeEvent
	ctrl.OnNotice().Attach(func(e NoticeEvent) { notices = append(notices, e) })

	require.NoError(t, ctrl.Search(context.Background()))

	assert.Equal(t, StateEmpty, ctrl.State())
	assert.Len(t, scene.CallsOf("setAllVisible"), 1)
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeNoMatches, notices[0].Kind)
	assert.Empty(t, ctrl.Groups())
}

func TestFailureLeavesVisibilityUntouched(t *testing.T) {
	ctrl, store, scene := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "pump", Logic: query.LogicAnd})
	require.NoError(t, ctrl.Search(context.Background()))
	scene.Reset()

	var notices []NoticeEvent
	ctrl.OnNotice().Attach(func(e NoticeEvent) { notices = append(notices, e) })

	store.FailWith(errors.New("connection reset"))
	require.NoError(t, ctrl.Search(context.Background()))

	assert.Equal(t, StateFailed, ctrl.State())
	assert.Empty(t, scene.Calls(), "failure must not touch the scene")
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeSearchFailed, notices[0].Kind)

	// Failed is not sticky: the next search runs.
	store.FailWith(nil)
	require.NoError(t, ctrl.Search(context.Background()))
	assert.Equal(t, StateResults, ctrl.State())
}

func TestInvalidRangeNotice(t *testing.T) {
	ctrl, store, scene := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{
		Attribute: query.AttrName,
		Operator:  query.OpFromTo,
		Value:     "A1F-01",
		ValueEnd:  option.Some("B2F-05"),
		Logic:     query.LogicAnd,
	})

	var notices []NoticeEvent
	ctrl.OnNotice().Attach(func(e NoticeEvent) { notices = append(notices, e) })

	require.NoError(t, ctrl.Search(context.Background()))

	assert.Equal(t, StateFailed, ctrl.State())
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeInvalidRange, notices[0].Kind)
	assert.Empty(t, store.Filters(), "invalid range is reported before any store call")
	assert.Empty(t, scene.Calls())
}

// gatedFinder blocks FindByFilter until released, to hold a search open.
type gatedFinder struct {
	inner   element.Finder
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *gatedFinder) FindByFilter(ctx context.Context, filter query.Visitable, limit int) ([]element.Record, error) {
	f.once.Do(func() { close(f.entered) })
	<-f.release
	return f.inner.FindByFilter(ctx, filter, limit)
}

func (f *gatedFinder) FindByIdentity(ctx context.Context, id element.Identity) (element.Record, error) {
	return f.inner.FindByIdentity(ctx, id)
}

func TestConcurrentSearchIsDropped(t *testing.T) {
	store := memory.NewStore(pumpRecords()...)
	gate := &gatedFinder{inner: store, entered: make(chan struct{}), release: make(chan struct{})}
	scene := viewertest.NewScene()
	ctrl := NewController(executor.NewExecutor(gate), viewer.NewSynchronizer(scene))
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "pump", Logic: query.LogicAnd})

	done := make(chan error, 1)
	go func() { done <- ctrl.Search(context.Background()) }()
	<-gate.entered

	// Second search while the first is in flight: dropped, not queued.
	err := ctrl.Search(context.Background())
	assert.ErrorIs(t, err, ErrSearchInProgress)

	close(gate.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateResults, ctrl.State())
	assert.Len(t, ctrl.Groups(), 1, "the dropped request must not produce a group")
}

func TestDebounceCoalescesInput(t *testing.T) {
	store := memory.NewStore(pumpRecords()...)
	scene := viewertest.NewScene()
	ctrl := NewController(
		executor.NewExecutor(store),
		viewer.NewSynchronizer(scene),
		WithDebounce(30*time.Millisecond),
	)

	ctx := context.Background()
	ctrl.SetSearchText(ctx, "p")
	ctrl.SetSearchText(ctx, "pu")
	ctrl.SetSearchText(ctx, "pump")

	require.Eventually(t, func() bool {
		return len(ctrl.Groups()) == 1
	}, time.Second, 5*time.Millisecond)

	// Only the last input within the window survived.
	filters := store.Filters()
	require.Len(t, filters, 1)
	groups := ctrl.Groups()
	assert.Len(t, groups[0].Items, 3)
}

func TestIdempotentSearchAppendsEqualGroups(t *testing.T) {
	ctrl, _, _ := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{Attribute: query.AttrCategory, Operator: query.OpEqual, Value: "Equipment", Logic: query.LogicAnd})

	require.NoError(t, ctrl.Search(context.Background()))
	require.NoError(t, ctrl.Search(context.Background()))

	groups := ctrl.Groups()
	require.Len(t, groups, 2)
	assert.NotEqual(t, groups[0].ID, groups[1].ID)
	assert.Equal(t, groups[0].Items, groups[1].Items)
}

func TestGroupOperations(t *testing.T) {
	ctrl, _, _ := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "pump", Logic: query.LogicAnd})
	require.NoError(t, ctrl.Search(context.Background()))
	id := ctrl.Groups()[0].ID

	require.NoError(t, ctrl.RenameGroup(id, "Pumps"))
	require.NoError(t, ctrl.SetGroupCollapsed(id, true))
	require.NoError(t, ctrl.RemoveGroupItem(id, element.Identity{ContainerID: "c1", ExternalID: 1}))

	g := ctrl.Groups()[0]
	assert.Equal(t, "Pumps", g.Name)
	assert.True(t, g.Collapsed)
	assert.Len(t, g.Items, 2)

	require.NoError(t, ctrl.DeleteGroup(id))
	assert.Empty(t, ctrl.Groups())
	assert.ErrorIs(t, ctrl.RenameGroup(id, "x"), ErrGroupNotFound)
}

func TestIsolateGroupAndItem(t *testing.T) {
	ctrl, _, scene := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "pump", Logic: query.LogicAnd})
	require.NoError(t, ctrl.Search(context.Background()))
	id := ctrl.Groups()[0].ID
	scene.Reset()

	require.NoError(t, ctrl.IsolateGroup(id))
	isolates := scene.CallsOf("isolate")
	require.Len(t, isolates, 1)
	assert.Len(t, isolates[0].Mapping["c1"], 2)

	scene.Reset()
	require.NoError(t, ctrl.IsolateItem(id, element.Identity{ContainerID: "c2", ExternalID: 3}))
	isolates = scene.CallsOf("isolate")
	require.Len(t, isolates, 1)
	assert.Equal(t, viewer.Mapping{"c2": {3}}, isolates[0].Mapping)
	highlights := scene.CallsOf("highlight")
	require.Len(t, highlights, 1)
	assert.Equal(t, viewer.LayerSelect, highlights[0].Layer)
}

func TestHoverResolvesDetails(t *testing.T) {
	ctrl, _, scene := newFixture(pumpRecords()...)

	rec, err := ctrl.Hover(context.Background(), element.Identity{ContainerID: "c1", ExternalID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Booster pump", rec.StringAttribute("Name"))

	highlights := scene.CallsOf("highlight")
	require.Len(t, highlights, 1)
	assert.Equal(t, viewer.LayerHover, highlights[0].Layer)

	require.NoError(t, ctrl.ClearHover())
}

func TestStateTransitionsAreSignaled(t *testing.T) {
	ctrl, _, _ := newFixture(pumpRecords()...)
	ctrl.AddRow(query.Row{Attribute: query.AttrName, Operator: query.OpInclude, Value: "pump", Logic: query.LogicAnd})

	var transitions []StateChangedEvent
	ctrl.OnStateChanged().Attach(func(e StateChangedEvent) { transitions = append(transitions, e) })

	require.NoError(t, ctrl.Search(context.Background()))

	require.Len(t, transitions, 2)
	assert.Equal(t, StateIdle, transitions[0].From)
	assert.Equal(t, StateSearching, transitions[0].To)
	assert.Equal(t, StateSearching, transitions[1].From)
	assert.Equal(t, StateResults, transitions[1].To)
	assert.Equal(t, transitions[0].Token, transitions[1].Token)
}
