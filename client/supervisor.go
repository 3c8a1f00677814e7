package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/huddlechat/huddle-server/internal/proto"
)

// Config configures a Supervisor.
type Config struct {
	// URL of the server's websocket endpoint, e.g. ws://host:8080/ws.
	URL string
	// Identity is the externally issued id/name pair sent on join.
	Identity User
	// ConnectTimeout bounds each individual dial attempt. Default 10s.
	ConnectTimeout time.Duration
	// MaxAttempts caps consecutive failed dials before giving up. Default 5.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number between retries.
	// Default 1s.
	BaseDelay time.Duration
	// Dialer opens connections. Defaults to WebSocketDialer.
	Dialer Dialer
	// Logger is optional.
	Logger *zerolog.Logger
}

// ErrNotConnected is returned by Send when no connection is open.
var ErrNotConnected = errors.New("not connected")

// Supervisor owns at most one live server connection. It reconnects with
// capped linear backoff on unexpected closes and feeds every received
// event into the Store. After the retry budget is spent it stays
// disconnected until Connect is called again.
type Supervisor struct {
	cfg   Config
	store *Store

	mu         sync.Mutex
	state      ConnectionState
	conn       Conn
	cancel     context.CancelFunc
	sessionCtx context.Context // identifies the live session
	listeners  map[int]func(LifecycleEvent)
	nextSub    int

	log *zerolog.Logger
}

// New constructs a supervisor bound to store. The store is the only thing
// the supervisor mutates on received events.
func New(cfg Config, store *Store) (*Supervisor, error) {
	if cfg.URL == "" {
		return nil, errors.New("client: URL is required")
	}
	if cfg.Identity.ID == "" {
		return nil, errors.New("client: identity id is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebSocketDialer{}
	}
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Supervisor{
		cfg:       cfg,
		store:     store,
		listeners: make(map[int]func(LifecycleEvent)),
		log:       logger,
	}, nil
}

// State reports the current connection state.
func (s *Supervisor) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnLifecycle registers a listener for lifecycle notifications. The
// returned function removes it.
func (s *Supervisor) OnLifecycle(fn func(LifecycleEvent)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Connect opens the connection if none is open, blocking until the first
// dial succeeds or the retry budget is spent. If already connected or
// connecting it returns immediately. The session lives until Disconnect
// or ctx cancellation.
func (s *Supervisor) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.sessionCtx = sessionCtx
	s.state = StateConnecting
	s.mu.Unlock()

	conn, attempt, err := s.dialWithRetry(sessionCtx)
	if err != nil {
		cancel()
		if s.sessionTransition(sessionCtx, StateDisconnected) {
			s.emit(LifecycleEvent{Kind: LifecycleReconnectFailed, Attempt: attempt, Err: err})
		}
		return fmt.Errorf("connect: %w", err)
	}

	if !s.adopt(sessionCtx, conn) {
		return nil
	}
	go s.run(sessionCtx, conn)
	return nil
}

// Disconnect closes the connection and cancels any pending reconnect. It
// is safe to call in any state.
func (s *Supervisor) Disconnect() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.sessionCtx = nil
	conn := s.conn
	s.conn = nil
	changed := s.state != StateDisconnected
	s.state = StateDisconnected
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if changed {
		s.store.SetConnected(false)
		s.emit(LifecycleEvent{Kind: LifecycleDisconnected})
	}
}

// Send posts a chat message over the open connection.
func (s *Supervisor) Send(ctx context.Context, content string) error {
	s.mu.Lock()
	conn := s.conn
	state := s.state
	s.mu.Unlock()

	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(proto.SendData{Content: content})
	if err != nil {
		return err
	}
	return conn.Write(ctx, proto.Inbound{Type: proto.InboundTypeSend, Data: data})
}

func (s *Supervisor) run(ctx context.Context, conn Conn) {
	for {
		err := s.readLoop(ctx, conn)
		s.store.SetConnected(false)

		if ctx.Err() != nil {
			// Explicit disconnect or session context gone; no retry.
			if s.sessionTransition(ctx, StateDisconnected) {
				s.emit(LifecycleEvent{Kind: LifecycleDisconnected})
			}
			return
		}

		s.log.Warn().Err(err).Msg("connection lost, reconnecting")
		if s.sessionTransition(ctx, StateConnecting) {
			s.emit(LifecycleEvent{Kind: LifecycleDisconnected, Err: err})
		}

		next, attempt, dialErr := s.dialWithRetry(ctx)
		if dialErr != nil {
			if s.sessionTransition(ctx, StateDisconnected) {
				s.emit(LifecycleEvent{Kind: LifecycleReconnectFailed, Attempt: attempt, Err: dialErr})
			}
			return
		}

		if !s.adopt(ctx, next) {
			return
		}
		conn = next
	}
}

// dialWithRetry attempts up to MaxAttempts dials, sleeping
// BaseDelay × attempt between failures. The sleep is cut short by ctx so
// an explicit disconnect can never be followed by a late reconnect.
func (s *Supervisor) dialWithRetry(ctx context.Context) (Conn, int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		conn, err := s.cfg.Dialer.Dial(dialCtx, s.cfg.URL)
		cancel()
		if err == nil {
			return conn, attempt, nil
		}
		lastErr = err
		s.log.Debug().Err(err).Int("attempt", attempt).Msg("dial failed")

		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}
		if attempt == s.cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(s.cfg.BaseDelay * time.Duration(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt, ctx.Err()
		}
	}
	return nil, s.cfg.MaxAttempts, lastErr
}

// adopt installs a freshly dialed connection: state, store flag, join
// handshake, lifecycle event. A connection dialed for a session that was
// since disconnected is closed and discarded.
func (s *Supervisor) adopt(ctx context.Context, conn Conn) bool {
	s.mu.Lock()
	if s.sessionCtx != ctx {
		s.mu.Unlock()
		_ = conn.Close()
		return false
	}
	s.conn = conn
	s.state = StateConnected
	s.mu.Unlock()

	s.store.SetCurrentUser(s.cfg.Identity)
	s.store.SetConnected(true)
	s.emit(LifecycleEvent{Kind: LifecycleConnected})

	data, _ := json.Marshal(proto.JoinData{ID: s.cfg.Identity.ID, DisplayName: s.cfg.Identity.DisplayName})
	if err := s.sendFrame(conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: data}); err != nil {
		// The read loop will notice the dead connection and retry.
		s.log.Warn().Err(err).Msg("join handshake failed")
		_ = conn.Close()
	}
	return true
}

func (s *Supervisor) sendFrame(conn Conn, frame proto.Inbound) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ConnectTimeout)
	defer cancel()
	return conn.Write(ctx, frame)
}

func (s *Supervisor) readLoop(ctx context.Context, conn Conn) error {
	for {
		var frame struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := conn.Read(ctx, &frame); err != nil {
			return err
		}
		s.dispatch(frame.Type, frame.Data, frame.Error)
	}
}

// dispatch applies one received event to the store. This is the only code
// path that mutates the store.
func (s *Supervisor) dispatch(frameType string, data json.RawMessage, frameErr *proto.Error) {
	switch frameType {
	case proto.OutboundTypeHistory:
		var wire []proto.MessageData
		if err := json.Unmarshal(data, &wire); err != nil {
			s.log.Warn().Err(err).Msg("bad history payload")
			return
		}
		messages := make([]Message, 0, len(wire))
		for _, m := range wire {
			messages = append(messages, messageFromWire(m))
		}
		s.store.SetMessages(messages)
	case proto.OutboundTypeUsersList:
		var wire []proto.UserData
		if err := json.Unmarshal(data, &wire); err != nil {
			s.log.Warn().Err(err).Msg("bad users payload")
			return
		}
		users := make([]User, 0, len(wire))
		for _, u := range wire {
			users = append(users, User{ID: u.ID, DisplayName: u.DisplayName, Online: u.Online})
		}
		s.store.SetUsers(users)
	case proto.OutboundTypeMessage:
		var wire proto.MessageData
		if err := json.Unmarshal(data, &wire); err != nil {
			s.log.Warn().Err(err).Msg("bad message payload")
			return
		}
		s.store.AddMessage(messageFromWire(wire))
	case proto.OutboundTypeUserLeft:
		var wire proto.UserLeftData
		if err := json.Unmarshal(data, &wire); err != nil {
			s.log.Warn().Err(err).Msg("bad user_left payload")
			return
		}
		s.store.RemoveUser(wire.UserID)
	case proto.OutboundTypeError:
		if frameErr != nil {
			s.log.Warn().Str("code", frameErr.Code).Str("msg", frameErr.Msg).Msg("server rejected a frame")
		}
	default:
		s.log.Debug().Str("type", frameType).Msg("unknown frame ignored")
	}
}

// sessionTransition moves to state `to` only if ctx still identifies the
// live session and the state actually changes, so a stale session
// goroutine can never clobber a newer session and each lifecycle edge is
// emitted exactly once.
func (s *Supervisor) sessionTransition(ctx context.Context, to ConnectionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionCtx != ctx || s.state == to {
		return false
	}
	s.state = to
	return true
}

func (s *Supervisor) emit(ev LifecycleEvent) {
	s.mu.Lock()
	listeners := make([]func(LifecycleEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func messageFromWire(m proto.MessageData) Message {
	return Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		CreatedAt:  time.UnixMilli(m.TS),
	}
}
