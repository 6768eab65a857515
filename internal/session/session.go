// Package session serves live editing over websockets. Each connected
// editor gets a Session that owns an engine and an interaction machine and
// processes that connection's messages one at a time, in arrival order.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/engine"
	"github.com/inamate/artboard/internal/interaction"
)

var ErrClosed = errors.New("session closed")

const inboxSize = 256

// Session is one editor's live view of a project.
type Session struct {
	ID        string
	ProjectID string
	UserID    string

	engine  *engine.Engine
	machine *interaction.Machine
	logger  *slog.Logger

	inbox chan Message
	out   func(Message)
	seq   int64
	dirty atomic.Bool
	done  chan struct{}
}

func newSession(id, projectID, userID string, eng *engine.Engine, out func(Message), logger *slog.Logger) *Session {
	s := &Session{
		ID:        id,
		ProjectID: projectID,
		UserID:    userID,
		engine:    eng,
		machine:   interaction.New(eng, interaction.WithLogger(logger)),
		logger:    logger,
		inbox:     make(chan Message, inboxSize),
		out:       out,
		done:      make(chan struct{}),
	}
	eng.Subscribe(s.onEvent)
	return s
}

// Engine exposes the session's store for saving and inspection.
func (s *Session) Engine() *engine.Engine { return s.engine }

// Dirty reports whether the document changed since the last save.
func (s *Session) Dirty() bool { return s.dirty.Load() }

// Deliver queues msg for processing. It blocks while the inbox is full.
func (s *Session) Deliver(ctx context.Context, msg Message) error {
	select {
	case s.inbox <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run greets the client and processes queued messages until ctx ends.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	s.send(TypeWelcome, WelcomePayload{ClientID: s.ID, ProjectID: s.ProjectID})
	s.sync()

	for {
		select {
		case msg := <-s.inbox:
			if err := s.handle(msg); err != nil {
				s.logger.Debug("message rejected", "type", msg.Type, "error", err, "session", s.ID)
				s.send(TypeError, ErrorPayload{Message: err.Error(), ReplyTo: msg.Seq})
			}
		case <-ctx.Done():
			s.machine.PointerLeave()
			return
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) send(typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal message", "type", typ, "error", err)
		return
	}
	s.seq++
	s.out(Message{Type: typ, Seq: s.seq, Payload: data})
}

func (s *Session) sync() {
	s.send(TypeStateSync, StateSyncPayload{
		State:    s.engine.Export(),
		Settings: s.engine.Settings(),
	})
}

func (s *Session) onEvent(ev engine.Event) {
	if ev.Kind != engine.EventSelection {
		s.dirty.Store(true)
	}
	switch ev.Kind {
	case engine.EventLoaded, engine.EventReset:
		s.sync()
		return
	}

	p := StateChangedPayload{Kind: ev.Kind, IDs: ev.IDs, Nodes: []component.Node{}}
	if p.IDs == nil {
		p.IDs = []string{}
	}
	switch ev.Kind {
	case engine.EventSettings:
		settings := s.engine.Settings()
		p.Settings = &settings
	case engine.EventSelection, engine.EventDeleted:
	default:
		for _, id := range ev.IDs {
			if n, ok := s.engine.Node(id); ok {
				p.Nodes = append(p.Nodes, n)
			}
		}
	}
	s.send(TypeStateChanged, p)
}

func decode(msg Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}
	return nil
}

func (s *Session) handle(msg Message) error {
	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp, TypePointerLeave:
		return s.handlePointer(msg)

	case TypeDrop:
		var p DropPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		s.machine.Drop(p.Point(), []byte(p.Data))

	case TypeSettingsUpdate:
		var p document.SettingsPatch
		if err := decode(msg, &p); err != nil {
			return err
		}
		s.engine.UpdateSettings(p)

	case TypeNodeSelect:
		var p SelectPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		s.engine.SelectNode(p.ID, p.Additive)

	case TypeNodesSelect:
		var p SelectPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		s.engine.SelectNodes(p.IDs, p.Additive)

	case TypeNodeUpdate:
		var p UpdatePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		s.engine.UpdateComponents(p.Edits)

	case TypeNodeDelete:
		var p NodePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		s.engine.DeleteComponent(p.ID)

	case TypeNodeDuplicate:
		var p NodePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if id, ok := s.engine.Duplicate(p.ID); ok {
			s.engine.SelectNode(id, false)
		}

	case TypeNodeGroup:
		var p GroupPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		_, err := s.engine.Group(p.IDs)
		return err

	case TypeNodeUngroup:
		var p NodePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		_, err := s.engine.Ungroup(p.ID)
		return err

	case TypeNodeReparent:
		var p ReparentPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return s.engine.Reparent(p.ID, p.ParentID, p.Index)

	case TypeNodesImport:
		var p ImportPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		problems, err := s.engine.Import(p.Nodes)
		res := ImportResultPayload{Errors: problems}
		if res.Errors == nil {
			res.Errors = []component.ValidationError{}
		}
		if err != nil {
			res.Skipped = err.Error()
		}
		s.send(TypeImportResult, res)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (s *Session) handlePointer(msg Message) error {
	var p PointerPayload
	if len(msg.Payload) > 0 {
		if err := decode(msg, &p); err != nil {
			return err
		}
	}
	ev := interaction.PointerEvent{Point: p.Point(), Modifier: p.Modifier}

	switch msg.Type {
	case TypePointerDown:
		if p.Target != nil {
			ev.Target = *p.Target
		} else if id := s.engine.HitTest(ev.Point); id != "" {
			ev.Target = interaction.OnNode(id)
		} else {
			ev.Target = interaction.Canvas()
		}
		before := s.machine.State()
		if s.machine.PointerDown(ev) != before {
			s.sendGesture()
		}
	case TypePointerMove:
		s.machine.PointerMove(ev)
		if s.machine.State() == interaction.MarqueeSelecting {
			s.sendGesture()
		}
	case TypePointerUp:
		s.finishGesture(func() { s.machine.PointerUp(ev) })
	case TypePointerLeave:
		s.finishGesture(s.machine.PointerLeave)
	}
	return nil
}

func (s *Session) finishGesture(end func()) {
	was := s.machine.State()
	end()
	if was != interaction.Idle {
		s.sendGesture()
	}
}

func (s *Session) sendGesture() {
	p := GesturePayload{State: s.machine.State()}
	if r, ok := s.machine.Marquee(); ok {
		p.Marquee = &r
	}
	s.send(TypeGesture, p)
}
