package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Hub coordinates every connection in the single global room. All shared
// state (presence directory, message history, connection set) is owned by
// the goroutine running Run; registrations, disconnects and commands are
// funneled onto that goroutine through channels, so nothing in this
// package needs a lock.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	statsCh    chan chan Stats

	clients   map[*Client]struct{}
	directory *Directory
	history   *History

	historyReplay int
	now           func() time.Time
	log           *zerolog.Logger
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// DefaultHistoryReplay is how many messages a new join receives.
const DefaultHistoryReplay = 20

// NewHub constructs a hub with the given history capacity and replay size.
// Zero or negative values fall back to the defaults.
func NewHub(historyCapacity, historyReplay int, logger *zerolog.Logger) *Hub {
	if historyReplay <= 0 {
		historyReplay = DefaultHistoryReplay
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		commands:      make(chan clientCommand),
		statsCh:       make(chan chan Stats),
		clients:       make(map[*Client]struct{}),
		directory:     NewDirectory(),
		history:       NewHistory(historyCapacity),
		historyReplay: historyReplay,
		now:           time.Now,
		log:           logger,
	}
}

// RegisterClient hands a freshly accepted connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient tells the hub the connection's transport has closed.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Stats are the counters reported by the stats endpoint.
type Stats struct {
	Connections int `json:"connections"`
	UsersOnline int `json:"users_online"`
	UsersKnown  int `json:"users_known"`
	Messages    int `json:"messages"`
}

// SnapshotStats asks the hub goroutine for a consistent view of its counters.
func (h *Hub) SnapshotStats() Stats {
	reply := make(chan Stats, 1)
	h.statsCh <- reply
	return <-reply
}

// Run processes registrations, disconnects and client commands until ctx
// is cancelled. It must be started exactly once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(ctx, client)
		case client := <-h.unregister:
			h.handleClose(client)
		case cc := <-h.commands:
			h.handleCommand(cc.client, cc.cmd)
		case reply := <-h.statsCh:
			reply <- h.stats()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, client *Client) {
	h.clients[client] = struct{}{}
	h.log.Debug().Str("conn_id", client.ConnID).Int("clients", len(h.clients)).Msg("connection registered")

	// Pump this client's commands onto the hub's single serialized stream.
	go func() {
		for cmd := range client.Commands {
			select {
			case h.commands <- clientCommand{client: client, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *Hub) handleCommand(client *Client, cmd *Command) {
	if _, ok := h.clients[client]; !ok {
		// Command raced with the connection closing; its sender is gone.
		return
	}

	switch cmd.Kind {
	case CommandJoin:
		h.handleJoin(client, cmd.User)
	case CommandSendMessage:
		h.handleSend(client, cmd.Content)
	default:
		h.log.Warn().Str("conn_id", client.ConnID).Int("kind", int(cmd.Kind)).Msg("unknown command dropped")
	}
}

func (h *Hub) handleJoin(client *Client, u User) {
	if u.ID == "" {
		h.log.Warn().Str("conn_id", client.ConnID).Msg("join without user id dropped")
		return
	}
	if client.state == connBound && client.userID != u.ID {
		// A bound connection cannot switch identity; this is an
		// out-of-sequence frame.
		h.log.Warn().Str("conn_id", client.ConnID).Str("bound_user", client.userID).Str("user_id", u.ID).Msg("join with conflicting user id dropped")
		return
	}

	client.state = connBound
	client.userID = u.ID
	h.directory.Join(u, client.ConnID)

	// The joiner gets its seed state directly; everyone else just sees
	// the refreshed presence list.
	h.send(client, &Event{Kind: EventHistory, Messages: h.history.Recent(h.historyReplay)})
	h.send(client, &Event{Kind: EventUsersList, Users: h.directory.Snapshot()})
	h.broadcast(&Event{Kind: EventUsersList, Users: h.directory.Snapshot()}, client)

	h.log.Info().Str("conn_id", client.ConnID).Str("user_id", u.ID).Msg("user joined")
}

func (h *Hub) handleSend(client *Client, content string) {
	if client.state != connBound {
		h.log.Debug().Str("conn_id", client.ConnID).Msg("message from unbound connection dropped")
		return
	}

	sender, ok := h.directory.Get(client.userID)
	if !ok {
		h.log.Warn().Str("conn_id", client.ConnID).Str("user_id", client.userID).Msg("bound user missing from directory")
		return
	}

	now := h.now()
	msg := Message{
		ID:         NewMessageID(now),
		SenderID:   sender.ID,
		SenderName: sender.DisplayName,
		Content:    content,
		CreatedAt:  now,
	}
	h.history.Append(msg)

	// The sender hears its own message too: every client renders from the
	// same server-ordered stream.
	h.broadcast(&Event{Kind: EventNewMessage, Message: msg}, nil)
}

func (h *Hub) handleClose(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.state = connClosed

	user := h.directory.Leave(client.ConnID)
	if user == nil {
		// Closed before ever joining; nobody needs to hear about it.
		h.log.Debug().Str("conn_id", client.ConnID).Msg("unbound connection closed")
		return
	}

	h.broadcast(&Event{Kind: EventUserLeft, UserID: user.ID}, nil)
	h.broadcast(&Event{Kind: EventUsersList, Users: h.directory.Snapshot()}, nil)

	h.log.Info().Str("conn_id", client.ConnID).Str("user_id", user.ID).Msg("user left")
}

// broadcast delivers an event to every connection except exclude. Delivery
// is non-blocking per recipient: a dead or slow connection is skipped and
// must never stall fanout to the rest.
func (h *Hub) broadcast(event *Event, exclude *Client) {
	for client := range h.clients {
		if client == exclude {
			continue
		}
		h.send(client, event)
	}
}

func (h *Hub) send(client *Client, event *Event) {
	select {
	case client.Events <- event:
	default:
		h.log.Warn().Str("conn_id", client.ConnID).Msg("slow consumer, event dropped")
	}
}

func (h *Hub) stats() Stats {
	users := h.directory.Snapshot()
	online := 0
	for _, u := range users {
		if u.Online {
			online++
		}
	}
	return Stats{
		Connections: len(h.clients),
		UsersOnline: online,
		UsersKnown:  len(users),
		Messages:    h.history.Len(),
	}
}
