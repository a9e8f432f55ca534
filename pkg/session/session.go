// Package session is the only writer of a conversation tree.
//
// A Session owns the node store plus two cursors: the active node, where the
// next prompt attaches, and the selected node, which is whatever the user is
// inspecting. Every mutation runs under one mutex and is all-or-nothing.
// Model replies arrive asynchronously from a worker pool and re-enter through
// CompleteReply.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/arbor/pkg/eventstream"
	"github.com/papercomputeco/arbor/pkg/eventstream/nop"
	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/tree"
	"github.com/papercomputeco/arbor/pkg/worker"
)

// Dispatcher queues a model round trip. *worker.Pool satisfies it.
type Dispatcher interface {
	Enqueue(job worker.Job) error
}

// Config is the configuration for a Session.
type Config struct {
	// Project names the tree. It tags events and log lines.
	Project string

	// Nodes is the initial collection, typically from storage.Driver.Load.
	// The session takes ownership.
	Nodes []*tree.Node

	// ActiveID and SelectedID restore cursors. Ids that do not resolve are
	// dropped with a warning.
	ActiveID   string
	SelectedID string

	// Dispatcher runs model round trips for Send and Branch. Optional for
	// sessions that only mutate.
	Dispatcher Dispatcher

	// Options are passed to the provider on every round trip.
	Options llm.Options

	// Publisher receives mutation events. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	// Now overrides the clock. Timestamps stay strictly increasing
	// regardless of what it returns.
	Now func() time.Time

	Logger *slog.Logger
}

// State is a deep copy of the collection and cursors.
type State struct {
	Nodes      []*tree.Node
	ActiveID   string
	SelectedID string
}

// Session is a mutable conversation tree with cursors.
type Session struct {
	mu sync.Mutex

	project  string
	store    *tree.Store
	active   string
	selected string

	// last is the most recent timestamp handed out.
	last time.Time
	now  func() time.Time

	dispatcher Dispatcher
	options    llm.Options
	publisher  eventstream.Publisher
	logger     *slog.Logger
}

// New creates a session over the configured nodes.
func New(c Config) *Session {
	s := &Session{
		project:    c.Project,
		store:      tree.NewStore(c.Nodes...),
		now:        c.Now,
		dispatcher: c.Dispatcher,
		options:    c.Options,
		publisher:  c.Publisher,
		logger:     c.Logger,
	}

	if s.now == nil {
		s.now = time.Now
	}
	if s.publisher == nil {
		s.publisher = nop.NewPublisher()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("project", c.Project)

	for _, n := range s.store.Nodes() {
		if n.Metadata.Timestamp.After(s.last) {
			s.last = n.Metadata.Timestamp
		}
	}

	s.active = s.restoreCursor("active", c.ActiveID)
	s.selected = s.restoreCursor("selected", c.SelectedID)

	// A non-empty tree always has an active node.
	if s.active == "" && s.store.Len() > 0 {
		s.active = s.store.First().ID
	}

	return s
}

func (s *Session) restoreCursor(name, id string) string {
	if id == "" || s.store.Has(id) {
		return id
	}
	s.logger.Warn("dropping stale cursor", "cursor", name, "id", id)
	return ""
}

// Project returns the project name.
func (s *Session) Project() string {
	return s.project
}

// ActiveID returns the active cursor, or "" when the tree is empty.
func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SelectedID returns the selected cursor, or "" if nothing is selected.
func (s *Session) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Len returns the number of nodes.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

// Node returns a copy of the node with the given id.
func (s *Session) Node(id string) (*tree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

// Snapshot returns a deep copy of the collection in store order and the
// cursors.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.store.Nodes()
	out := make([]*tree.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Clone())
	}

	return State{
		Nodes:      out,
		ActiveID:   s.active,
		SelectedID: s.selected,
	}
}

// Compile returns the context a prompt typed at id would send. An empty id
// compiles at the active cursor.
func (s *Session) Compile(id, prompt string) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = s.active
	}
	return memory.CompileStore(s.store, id, prompt)
}

// Summarize describes the context at id. An empty id uses the active cursor.
func (s *Session) Summarize(id string) (memory.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = s.active
	}
	return memory.SummarizeStore(s.store, id)
}

// Integrity runs the structural checks over the current collection.
func (s *Session) Integrity() []tree.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Validate()
}

// SetActive moves the active cursor.
func (s *Session) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Has(id) {
		return tree.NotFoundError{ID: id}
	}
	s.active = id
	return nil
}

// SetSelected moves the selected cursor.
func (s *Session) SetSelected(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Has(id) {
		return tree.NotFoundError{ID: id}
	}
	s.selected = id
	return nil
}

// ClearSelected unsets the selected cursor.
func (s *Session) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

// tick returns the next creation timestamp. It never repeats or goes back,
// even if the wall clock does.
func (s *Session) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

// emit publishes an event. Publish failures are logged and never fail the
// mutation that produced them.
func (s *Session) emit(event *eventstream.MutationEvent) {
	if event == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		s.logger.Warn("event publish failed",
			"event_type", event.EventType,
			"node_id", event.NodeID,
			"error", err,
		)
	}
}

func (s *Session) event(eventType, nodeID string) *eventstream.MutationEvent {
	ev := eventstream.NewMutationEvent(eventType, s.project, nodeID)
	ev.Source.Model = s.options.Model
	ev.ActiveID = s.active
	return ev
}
