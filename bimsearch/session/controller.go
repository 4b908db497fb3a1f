// Package session owns one user's search session: the query rows being
// edited, the debounced free-text input, the search state machine, and the
// append-only result group history. It is the only component with
// externally observable state; everything else in the pipeline is driven
// from here.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/krew-solutions/bimsearch-go/bimsearch/detail"
	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
	"github.com/krew-solutions/bimsearch-go/bimsearch/executor"
	"github.com/krew-solutions/bimsearch-go/bimsearch/logging"
	query "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain"
	"github.com/krew-solutions/bimsearch-go/bimsearch/signals"
	"github.com/krew-solutions/bimsearch-go/bimsearch/viewer"
)

// ErrSearchInProgress is returned when a search request arrives while one is
// already running. The in-flight search is not cancelled; the new request is
// dropped.
var ErrSearchInProgress = errors.New("session: search already in progress")

// ErrGroupNotFound is returned by group operations with an unknown id.
var ErrGroupNotFound = errors.New("session: result group not found")

const defaultDebounce = 300 * time.Millisecond

type Option func(*Controller)

// WithDebounce sets the free-text input coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithFitCamera makes a successful isolate also frame the camera on the
// isolated elements.
func WithFitCamera(fit bool) Option {
	return func(c *Controller) {
		c.fitCamera = fit
	}
}

func WithDetails(fetcher *detail.Fetcher) Option {
	return func(c *Controller) {
		c.details = fetcher
	}
}

func WithLogger(log *logging.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

type Controller struct {
	exec      *executor.Executor
	scene     *viewer.Synchronizer
	details   *detail.Fetcher
	log       *logging.Logger
	debounce  time.Duration
	fitCamera bool

	onStateChanged signals.Signal[StateChangedEvent]
	onNotice       signals.Signal[NoticeEvent]
	onGroupAdded   signals.Signal[GroupAppendedEvent]

	mu          sync.Mutex
	state       State
	busy        bool // reentrancy guard, held for the whole pipeline run
	rows        []query.Row
	scope       []string
	searchText  string
	timer       *time.Timer
	groups      []*element.ResultGroup
	nextGroupID int
}

func NewController(exec *executor.Executor, scene *viewer.Synchronizer, opts ...Option) *Controller {
	c := &Controller{
		exec:           exec,
		scene:          scene,
		log:            logging.Noop(),
		debounce:       defaultDebounce,
		onStateChanged: signals.NewSignal[StateChangedEvent](),
		onNotice:       signals.NewSignal[NoticeEvent](),
		onGroupAdded:   signals.NewSignal[GroupAppendedEvent](),
		state:          StateIdle,
		nextGroupID:    1,
	}
	for i := range opts {
		opts[i](c)
	}
	return c
}

func (c *Controller) OnStateChanged() signals.Signal[StateChangedEvent] {
	return c.onStateChanged
}

func (c *Controller) OnNotice() signals.Signal[NoticeEvent] {
	return c.onNotice
}

func (c *Controller) OnGroupAppended() signals.Signal[GroupAppendedEvent] {
	return c.onGroupAdded
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// --- query row editing ---

// AddRow appends a row and returns its index.
func (c *Controller) AddRow(row query.Row) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, row)
	return len(c.rows) - 1
}

func (c *Controller) UpdateRow(index int, row query.Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.rows) {
		return fmt.Errorf("session: row index %d out of range", index)
	}
	c.rows[index] = row
	return nil
}

func (c *Controller) RemoveRow(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.rows) {
		return fmt.Errorf("session: row index %d out of range", index)
	}
	c.rows = append(c.rows[:index], c.rows[index+1:]...)
	return nil
}

func (c *Controller) Rows() []query.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]query.Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// SetScope restricts searches to the given containers. An empty scope means
// all loaded containers.
func (c *Controller) SetScope(containerIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scope = append([]string(nil), containerIDs...)
}

// --- searching ---

// Search runs the current query rows through the pipeline. If a search is
// already running the request is dropped and ErrSearchInProgress returned.
func (c *Controller) Search(ctx context.Context) error {
	c.mu.Lock()
	rows := make([]query.Row, len(c.rows))
	copy(rows, c.rows)
	scope := c.scope
	c.mu.Unlock()
	return c.searchWith(ctx, rows, scope)
}

// SetSearchText feeds the free-text simple-search box. Input bursts are
// coalesced: each call resets the debounce timer and only the last text
// within the window triggers a search, as a single Name/include row.
func (c *Controller) SetSearchText(ctx context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchText = text
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		current := c.searchText
		scope := c.scope
		c.mu.Unlock()
		rows := []query.Row{{
			Attribute: query.AttrName,
			Operator:  query.OpInclude,
			Value:     current,
			Logic:     query.LogicAnd,
		}}
		if err := c.searchWith(ctx, rows, scope); err != nil {
			c.log.Debug("debounced search dropped", "err", err)
		}
	})
}

func (c *Controller) searchWith(ctx context.Context, rows []query.Row, scope []string) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		c.log.Debug("search dropped, one already in flight")
		return ErrSearchInProgress
	}
	c.busy = true
	token := ulid.Make().String()
	from := c.state
	c.state = StateSearching
	c.mu.Unlock()

	c.onStateChanged.Notify(StateChangedEvent{From: from, To: StateSearching, Token: token})
	log := c.log.WithToken(token)
	log.Info("search started", "rows", len(rows), "scope", len(scope))

	res := c.exec.Execute(ctx, rows, scope)

	var end State
	switch res.Outcome {
	case executor.OutcomeMatched:
		end = c.applyMatched(res.Items, token, log)
	case executor.OutcomeEmpty:
		end = c.applyEmpty(log)
	case executor.OutcomeCleared:
		end = c.applyCleared(log)
	case executor.OutcomeFailed:
		end = c.applyFailed(res.Err, log)
	}

	c.mu.Lock()
	c.state = end
	c.busy = false
	c.mu.Unlock()
	c.onStateChanged.Notify(StateChangedEvent{From: StateSearching, To: end, Token: token})
	return nil
}

func (c *Controller) applyMatched(items []element.ResultItem, token string, log *logging.Logger) State {
	if err := c.scene.Isolate(items); err != nil {
		log.Error("isolate failed", "err", err)
		c.onNotice.Notify(NoticeEvent{Kind: NoticeSearchFailed, Message: "search failed"})
		return StateFailed
	}
	if c.fitCamera {
		if err := c.scene.FitCamera(); err != nil {
			log.Warn("fit camera failed", "err", err)
		}
	}

	c.mu.Lock()
	group := &element.ResultGroup{
		ID:    c.nextGroupID,
		Token: token,
		Name:  fmt.Sprintf("Search %d", c.nextGroupID),
		Items: items,
	}
	c.nextGroupID++
	c.groups = append(c.groups, group)
	snapshot := *group
	snapshot.Items = append([]element.ResultItem(nil), group.Items...)
	c.mu.Unlock()

	log.Info("search matched", "items", len(items))
	c.onGroupAdded.Notify(GroupAppendedEvent{Group: snapshot})
	return StateResults
}

func (c *Controller) applyEmpty(log *logging.Logger) State {
	if err := c.scene.ShowAll(); err != nil {
		log.Error("show all failed", "err", err)
	}
	log.Info("search matched nothing")
	c.onNotice.Notify(NoticeEvent{Kind: NoticeNoMatches, Message: "no elements found"})
	return StateEmpty
}

func (c *Controller) applyCleared(log *logging.Logger) State {
	if err := c.scene.ShowAll(); err != nil {
		log.Error("show all failed", "err", err)
	}
	log.Info("filter cleared")
	return StateIdle
}

func (c *Controller) applyFailed(err error, log *logging.Logger) State {
	// Visibility state is deliberately left untouched: no partial isolate
	// from a half-completed range expansion is ever applied.
	if errors.Is(err, executor.ErrInvalidRange) {
		log.Warn("invalid range", "err", err)
		c.onNotice.Notify(NoticeEvent{Kind: NoticeInvalidRange, Message: "invalid range"})
	} else {
		log.Error("search failed", "err", err)
		c.onNotice.Notify(NoticeEvent{Kind: NoticeSearchFailed, Message: "search failed"})
	}
	return StateFailed
}

// --- result groups ---

// Groups returns a snapshot of the result group history.
func (c *Controller) Groups() []element.ResultGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]element.ResultGroup, 0, len(c.groups))
	for _, g := range c.groups {
		snapshot := *g
		snapshot.Items = append([]element.ResultItem(nil), g.Items...)
		out = append(out, snapshot)
	}
	return out
}

func (c *Controller) group(id int) (*element.ResultGroup, error) {
	for _, g := range c.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, ErrGroupNotFound
}

func (c *Controller) RenameGroup(id int, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.group(id)
	if err != nil {
		return err
	}
	g.Name = name
	g.Editing = false
	return nil
}

func (c *Controller) SetGroupEditing(id int, editing bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.group(id)
	if err != nil {
		return err
	}
	g.Editing = editing
	return nil
}

func (c *Controller) SetGroupCollapsed(id int, collapsed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.group(id)
	if err != nil {
		return err
	}
	g.Collapsed = collapsed
	return nil
}

func (c *Controller) DeleteGroup(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, g := range c.groups {
		if g.ID == id {
			c.groups = append(c.groups[:i], c.groups[i+1:]...)
			return nil
		}
	}
	return ErrGroupNotFound
}

func (c *Controller) RemoveGroupItem(id int, identity element.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.group(id)
	if err != nil {
		return err
	}
	if !g.RemoveItem(identity) {
		return fmt.Errorf("session: item %s not in group %d", identity, id)
	}
	return nil
}

// IsolateGroup re-applies one history group to the scene.
func (c *Controller) IsolateGroup(id int) error {
	c.mu.Lock()
	g, err := c.group(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	items := append([]element.ResultItem(nil), g.Items...)
	c.mu.Unlock()
	return c.scene.Isolate(items)
}

// IsolateItem isolates a single history item and selects it.
func (c *Controller) IsolateItem(id int, identity element.Identity) error {
	c.mu.Lock()
	g, err := c.group(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	var item element.ResultItem
	found := false
	for _, it := range g.Items {
		if it.Identity() == identity {
			item, found = it, true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("session: item %s not in group %d", identity, id)
	}
	if err := c.scene.Isolate([]element.ResultItem{item}); err != nil {
		return err
	}
	return c.scene.Select([]element.ResultItem{item})
}

// --- hover ---

// Hover highlights one element on the hover layer and, when a detail
// fetcher is configured, resolves its full attribute set.
func (c *Controller) Hover(ctx context.Context, identity element.Identity) (element.Record, error) {
	if err := c.scene.Hover(identity.ContainerID, identity.ExternalID); err != nil {
		return element.Record{}, err
	}
	if c.details == nil {
		return element.Record{}, nil
	}
	return c.details.Fetch(ctx, identity)
}

func (c *Controller) ClearHover() error {
	return c.scene.ClearHover()
}
