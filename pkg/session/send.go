package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/arbor/pkg/eventstream"
	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/tree"
	"github.com/papercomputeco/arbor/pkg/worker"
)

var (
	// ErrOrphanedReply is returned by CompleteReply when the reply's parent
	// was deleted while the round trip was in flight. The reply is dropped.
	ErrOrphanedReply = errors.New("reply parent no longer exists")

	// ErrNoDispatcher is returned by Send when the session has no worker pool.
	ErrNoDispatcher = errors.New("session has no dispatcher")

	// ErrEmptyPrompt is returned by Send for blank input.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// Pending tracks one outstanding round trip.
type Pending struct {
	// UserNode is the committed user turn the reply will attach under.
	UserNode *tree.Node

	// Messages is the context that was sent, prompt last.
	Messages []llm.Message

	done  chan struct{}
	reply *tree.Node
	err   error
}

// Done is closed once the reply was attached or dropped.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the round trip finishes or ctx ends. Cancelling ctx
// stops the wait only; the reply still lands in the tree.
func (p *Pending) Wait(ctx context.Context) (*tree.Node, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) finish(reply *tree.Node, err error) {
	p.reply = reply
	p.err = err
	close(p.done)
}

// Send commits prompt as a user turn under the active node and dispatches
// the round trip. Context is compiled at the active node before the user
// turn is added, so the prompt appears exactly once, last.
func (s *Session) Send(prompt string) (*Pending, error) {
	return s.send("", prompt)
}

// Branch moves the active cursor to fromID and sends prompt from there,
// starting a new sibling branch under fromID.
func (s *Session) Branch(fromID, prompt string) (*Pending, error) {
	if fromID == "" {
		return nil, tree.NotFoundError{}
	}
	return s.send(fromID, prompt)
}

func (s *Session) send(anchorID, prompt string) (*Pending, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.dispatcher == nil {
		return nil, ErrNoDispatcher
	}

	s.mu.Lock()

	if anchorID != "" {
		if !s.store.Has(anchorID) {
			s.mu.Unlock()
			return nil, tree.NotFoundError{ID: anchorID}
		}
		s.active = anchorID
	}
	anchor := s.active

	messages, err := memory.CompileStore(s.store, anchor, prompt)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("compiling context: %w", err)
	}

	user, ev, err := s.addNodeLocked(anchor, tree.RoleUser, prompt, tree.Metadata{})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	opts := s.options

	s.mu.Unlock()
	s.emit(ev)

	p := &Pending{
		UserNode: user,
		Messages: messages,
		done:     make(chan struct{}),
	}

	job := worker.Job{
		ParentID: user.ID,
		Messages: messages,
		Options:  opts,
		Done: func(res worker.Result) {
			if res.Err != nil {
				p.finish(nil, res.Err)
				return
			}
			p.finish(s.CompleteReply(res.ParentID, res.Text, res.Model))
		},
	}

	if err := s.dispatcher.Enqueue(job); err != nil {
		// The user turn stays committed; it simply has no reply.
		s.logger.Error("round trip not dispatched", "parent_id", user.ID, "error", err)
		p.finish(nil, err)
	}

	return p, nil
}

// CompleteReply attaches a model reply under parentID as an assistant turn,
// which also moves the active cursor to it.
//
// If parentID no longer resolves, the reply is dropped: it is logged, an
// arbor.reply.dropped event is emitted and ErrOrphanedReply is returned. The
// tree is not changed.
func (s *Session) CompleteReply(parentID, text, model string) (*tree.Node, error) {
	s.mu.Lock()

	if !s.store.Has(parentID) {
		ev := s.event(eventstream.EventTypeReplyDropped, parentID)
		ev.Role = string(tree.RoleAssistant)
		ev.Source.Model = model
		s.mu.Unlock()

		s.logger.Warn("dropping reply for deleted parent", "parent_id", parentID, "model", model)
		s.emit(ev)
		return nil, ErrOrphanedReply
	}

	n, ev, err := s.addNodeLocked(parentID, tree.RoleAssistant, text, tree.Metadata{ModelUsed: model})
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.emit(ev)
	return n, nil
}
