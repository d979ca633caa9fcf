package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Network1945/backend/internal/broadcast"
	"github.com/Network1945/backend/internal/domain"
	"github.com/Network1945/backend/internal/metrics"
)

// Validation errors, detected before any store or broadcaster mutation.
var (
	ErrIdentityMissing = errors.New("identity missing")
	ErrIdentityTooLong = errors.New("identity exceeds length bound")
)

const storeCallTimeout = 5 * time.Second

// PresenceStore is the shared membership and connection-count store.
// Implemented by redis.PresenceStore.
type PresenceStore interface {
	IncrConnection(ctx context.Context, roomID, identity string) (int64, error)
	DecrConnection(ctx context.Context, roomID, identity string) (int64, error)
	Members(ctx context.Context, roomID string) ([]string, error)
	ResolveNames(ctx context.Context, identities []string) (map[string]string, error)
	SetName(ctx context.Context, identity, name string) error
}

// Broadcaster is the group fan-out fabric. Implemented by broadcast.Broadcaster.
type Broadcaster interface {
	Subscribe(group string, sub broadcast.Subscriber)
	Unsubscribe(group string, sub broadcast.Subscriber)
	Publish(ctx context.Context, group string, payload []byte) error
}

// Conn is the transport-side view of a connection: best-effort enqueue for
// outbound frames. Implemented by ws.Conn.
type Conn interface {
	Send(payload []byte)
}

// State is the session lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateJoined
	StateClosing
	StateClosed
	StateRejected
)

// Config holds the per-session policy knobs.
type Config struct {
	// TickInterval is the presence re-push interval.
	TickInterval time.Duration

	// SendToAll broadcasts each tick to the whole group instead of pushing to
	// the session's own socket only.
	SendToAll bool

	// Ephemeral marks a name-based identity chosen by the client. Only these
	// are length-bounded; authenticated identities are server-issued ids.
	Ephemeral bool
}

// Session drives one websocket through the presence lifecycle.
type Session struct {
	roomID      string
	identity    string
	displayName string
	group       string

	store       PresenceStore
	broadcaster Broadcaster
	conn        Conn
	clock       clockwork.Clock
	cfg         Config
	log         *slog.Logger

	state  State
	joined bool
	ticker *Ticker
}

// New constructs a session in the Connecting state. displayName may equal
// identity for ephemeral (name-based) connections.
func New(roomID, identity, displayName string, store PresenceStore, broadcaster Broadcaster, conn Conn, clock clockwork.Clock, cfg Config) *Session {
	return &Session{
		roomID:      roomID,
		identity:    identity,
		displayName: displayName,
		group:       domain.GroupID(roomID),
		store:       store,
		broadcaster: broadcaster,
		conn:        conn,
		clock:       clock,
		cfg:         cfg,
		log:         slog.With("room_id", roomID, "identity", identity),
		state:       StateConnecting,
	}
}

// State reports the current lifecycle state. Only the session's own task may
// call it; the state field is not shared.
func (s *Session) State() State {
	return s.state
}

// Deliver enqueues a group message onto this session's socket.
// Satisfies broadcast.Subscriber; called from the broadcaster goroutine.
func (s *Session) Deliver(payload []byte) {
	s.conn.Send(payload)
}

// Join moves the session from Connecting to Joined: validate, subscribe to the
// room group, register the connection in the store, push the initial snapshot
// to self, broadcast it to the group, and start the ticker.
//
// A store failure leaves the session un-joined so Close skips the decrement.
func (s *Session) Join(ctx context.Context) error {
	if err := s.validate(); err != nil {
		s.state = StateRejected
		return err
	}

	s.broadcaster.Subscribe(s.group, s)

	// Enrichment only; other members fall back to a synthetic name if this
	// write is lost.
	if err := s.store.SetName(ctx, s.identity, s.displayName); err != nil {
		s.log.Warn("Failed to register display name", "error", err)
	}

	count, err := s.store.IncrConnection(ctx, s.roomID, s.identity)
	if err != nil {
		s.broadcaster.Unsubscribe(s.group, s)
		s.state = StateClosed
		metrics.SessionsJoined.WithLabelValues("store_error").Inc()
		return fmt.Errorf("failed to register connection: %w", err)
	}

	s.joined = true
	s.state = StateJoined
	metrics.SessionsJoined.WithLabelValues("joined").Inc()
	metrics.ActiveSessions.Inc()
	s.log.Info("Session joined", "connections", count)

	snap, err := s.snapshot(ctx)
	if err != nil {
		// Joined but the first snapshot failed; the ticker retries shortly.
		s.log.Warn("Initial snapshot failed", "error", err)
	} else {
		s.pushSelf(snap, "join")
		s.publish(ctx, snap)
	}

	s.ticker = StartTicker(s.clock, s.cfg.TickInterval, s.tick)
	return nil
}

// HandleMessage processes one inbound client frame. Only a "who" request does
// anything: recompute the snapshot and push it to this socket alone, so one
// client's curiosity does not become traffic for the whole room.
func (s *Session) HandleMessage(ctx context.Context, data []byte) {
	if s.state != StateJoined {
		return
	}
	switch domain.ParseClientMessage(data) {
	case domain.ClientMessageWho:
		snap, err := s.snapshot(ctx)
		if err != nil {
			s.log.Warn("Snapshot for who request failed", "error", err)
			return
		}
		s.pushSelf(snap, "who")
	case domain.ClientMessageUnknown:
		// Ignored by contract.
	}
}

// Close tears the session down: unsubscribe (best-effort), stop the ticker and
// wait for it, then deregister from the store and broadcast the updated
// snapshot. Every store/broadcaster failure here is swallowed; the socket is
// already going away.
func (s *Session) Close(ctx context.Context) {
	if s.state == StateClosed || s.state == StateRejected {
		s.state = StateClosed
		return
	}
	s.state = StateClosing

	s.broadcaster.Unsubscribe(s.group, s)

	// The ticker must be fully stopped before store cleanup so no tick races
	// with the decrement.
	if s.ticker != nil {
		s.ticker.Stop()
	}

	if s.joined {
		metrics.ActiveSessions.Dec()
		count, err := s.store.DecrConnection(ctx, s.roomID, s.identity)
		if err != nil {
			s.log.Warn("Failed to deregister connection", "error", err)
		} else {
			s.log.Info("Session left", "connections", count)
			if snap, err := s.snapshot(ctx); err == nil {
				s.publish(ctx, snap)
				metrics.SnapshotPushes.WithLabelValues("disconnect").Inc()
			}
		}
	}

	s.state = StateClosed
}

func (s *Session) validate() error {
	if s.identity == "" {
		metrics.SessionsJoined.WithLabelValues("rejected_request").Inc()
		return ErrIdentityMissing
	}
	if s.cfg.Ephemeral && len(s.identity) > domain.MaxNameLength {
		metrics.SessionsJoined.WithLabelValues("rejected_request").Inc()
		return ErrIdentityTooLong
	}
	return nil
}

// snapshot computes the current presence view for the room.
func (s *Session) snapshot(ctx context.Context) (domain.Snapshot, error) {
	identities, err := s.store.Members(ctx, s.roomID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to list members: %w", err)
	}

	names, err := s.store.ResolveNames(ctx, identities)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to resolve names: %w", err)
	}

	members := make([]domain.Member, 0, len(identities))
	for _, identity := range identities {
		members = append(members, domain.Member{Identity: identity, Name: names[identity]})
	}
	return domain.NewSnapshot(s.roomID, members), nil
}

func (s *Session) pushSelf(snap domain.Snapshot, trigger string) {
	payload, err := domain.EncodePresenceUpdate(snap)
	if err != nil {
		s.log.Error("Failed to encode presence update", "error", err)
		return
	}
	s.conn.Send(payload)
	metrics.SnapshotPushes.WithLabelValues(trigger).Inc()
}

func (s *Session) publish(ctx context.Context, snap domain.Snapshot) {
	payload, err := domain.EncodePresenceUpdate(snap)
	if err != nil {
		s.log.Error("Failed to encode presence update", "error", err)
		return
	}
	if err := s.broadcaster.Publish(ctx, s.group, payload); err != nil {
		s.log.Warn("Failed to publish presence update", "error", err)
	}
}

// tick recomputes the snapshot and re-delivers it, self-healing against missed
// broadcasts. Errors skip the cycle; the next tick tries again.
func (s *Session) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
	defer cancel()

	snap, err := s.snapshot(ctx)
	if err != nil {
		s.log.Debug("Tick snapshot failed", "error", err)
		return
	}

	if s.cfg.SendToAll {
		s.publish(ctx, snap)
	} else {
		s.pushSelf(snap, "tick")
	}
}
