package core

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(0, 0, nil)
	go hub.Run(ctx)
	return hub
}

func joinAs(hub *Hub, connID, userID, name string) *Client {
	client := NewClient(connID)
	hub.RegisterClient(client)
	client.Commands <- &Command{Kind: CommandJoin, User: User{ID: userID, DisplayName: name}}
	return client
}

func TestHubJoinSeedsHistoryAndUsers(t *testing.T) {
	hub := startHub(t)

	alice := joinAs(hub, "c1", "u1", "alice")

	hist := mustEvent(t, alice.Events, EventHistory)
	if len(hist.Messages) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(hist.Messages))
	}

	users := mustEvent(t, alice.Events, EventUsersList)
	if len(users.Users) != 1 || users.Users[0].ID != "u1" || !users.Users[0].Online {
		t.Fatalf("unexpected users list: %+v", users.Users)
	}
}

func TestHubBroadcastIncludesSender(t *testing.T) {
	hub := startHub(t)

	alice := joinAs(hub, "c1", "u1", "alice")
	bob := joinAs(hub, "c2", "u2", "bob")

	alice.Commands <- &Command{Kind: CommandSendMessage, Content: "hi"}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventNewMessage)
		if ev.Message.Content != "hi" || ev.Message.SenderID != "u1" || ev.Message.SenderName != "alice" {
			t.Fatalf("unexpected message event: %+v", ev.Message)
		}
		if ev.Message.ID == "" {
			t.Fatal("message id not assigned")
		}
	}
}

func TestHubOrderPreserved(t *testing.T) {
	hub := startHub(t)

	alice := joinAs(hub, "c1", "u1", "alice")
	bob := joinAs(hub, "c2", "u2", "bob")
	mustEvent(t, bob.Events, EventUsersList)

	const n = 10
	for i := 0; i < n; i++ {
		alice.Commands <- &Command{Kind: CommandSendMessage, Content: fmt.Sprintf("m%d", i)}
	}

	for i := 0; i < n; i++ {
		ev := mustEvent(t, bob.Events, EventNewMessage)
		if want := fmt.Sprintf("m%d", i); ev.Message.Content != want {
			t.Fatalf("out of order: got %q, want %q", ev.Message.Content, want)
		}
	}
}

func TestHubSendBeforeJoinDropped(t *testing.T) {
	hub := startHub(t)

	stranger := NewClient("c1")
	hub.RegisterClient(stranger)
	observer := joinAs(hub, "c2", "u2", "bob")
	mustEvent(t, observer.Events, EventUsersList)

	stranger.Commands <- &Command{Kind: CommandSendMessage, Content: "sneaky"}

	noEvent(t, observer.Events, 200*time.Millisecond)
}

func TestHubIdempotentJoin(t *testing.T) {
	hub := startHub(t)

	alice := joinAs(hub, "c1", "u1", "alice")
	mustEvent(t, alice.Events, EventUsersList)

	alice.Commands <- &Command{Kind: CommandJoin, User: User{ID: "u1", DisplayName: "alice"}}

	users := mustEvent(t, alice.Events, EventUsersList)
	if len(users.Users) != 1 {
		t.Fatalf("expected one user record after double join, got %d", len(users.Users))
	}
}

func TestHubConflictingJoinDropped(t *testing.T) {
	hub := startHub(t)

	alice := joinAs(hub, "c1", "u1", "alice")
	mustEvent(t, alice.Events, EventUsersList)

	// A bound connection cannot claim a second identity.
	alice.Commands <- &Command{Kind: CommandJoin, User: User{ID: "u2", DisplayName: "mallory"}}
	noEvent(t, alice.Events, 100*time.Millisecond)

	alice.Commands <- &Command{Kind: CommandSendMessage, Content: "still me"}
	ev := mustEvent(t, alice.Events, EventNewMessage)
	if ev.Message.SenderID != "u1" || ev.Message.SenderName != "alice" {
		t.Fatalf("sender identity changed: %+v", ev.Message)
	}

	observer := joinAs(hub, "c2", "u3", "carol")
	users := mustEvent(t, observer.Events, EventUsersList)
	for _, u := range users.Users {
		if u.ID == "u2" {
			t.Fatalf("rejected identity leaked into the directory: %+v", u)
		}
	}
	if len(users.Users) != 2 {
		t.Fatalf("expected alice and carol only, got %+v", users.Users)
	}
}

func TestHubRebindOrphansOldConnection(t *testing.T) {
	hub := startHub(t)

	old := joinAs(hub, "c1", "u1", "alice")
	mustEvent(t, old.Events, EventUsersList)

	// Same user joins again from a new connection; the old handle stays
	// open but its sends stop reaching the room as that user.
	fresh := joinAs(hub, "c2", "u1", "alice")
	users := mustEvent(t, fresh.Events, EventUsersList)
	if len(users.Users) != 1 || !users.Users[0].Online {
		t.Fatalf("unexpected users after rebind: %+v", users.Users)
	}

	// Closing the orphaned connection must not mark the user offline.
	hub.UnregisterClient(old)
	noEvent(t, fresh.Events, 200*time.Millisecond)

	st := hub.SnapshotStats()
	if st.UsersOnline != 1 {
		t.Fatalf("expected user still online, stats: %+v", st)
	}
}

func TestHubCloseBroadcastsDeparture(t *testing.T) {
	hub := startHub(t)

	alice := joinAs(hub, "c1", "u1", "alice")
	bob := joinAs(hub, "c2", "u2", "bob")
	mustEvent(t, alice.Events, EventUsersList) // bob's join refresh

	hub.UnregisterClient(bob)

	left := mustEvent(t, alice.Events, EventUserLeft)
	if left.UserID != "u2" {
		t.Fatalf("unexpected user_left: %+v", left)
	}

	users := mustEvent(t, alice.Events, EventUsersList)
	if len(users.Users) != 2 {
		t.Fatalf("expected both users still known, got %d", len(users.Users))
	}
	for _, u := range users.Users {
		if u.ID == "u2" && u.Online {
			t.Fatal("departed user still marked online")
		}
	}
}

func TestHubUnboundCloseIsSilent(t *testing.T) {
	hub := startHub(t)

	observer := joinAs(hub, "c1", "u1", "alice")
	mustEvent(t, observer.Events, EventUsersList)

	stranger := NewClient("c2")
	hub.RegisterClient(stranger)
	hub.UnregisterClient(stranger)

	noEvent(t, observer.Events, 200*time.Millisecond)
}

func TestHubSlowConsumerDoesNotBlockFanout(t *testing.T) {
	hub := startHub(t)

	alice := joinAs(hub, "c1", "u1", "alice")
	stuck := joinAs(hub, "c2", "u2", "stuck")
	carol := joinAs(hub, "c3", "u3", "carol")
	mustEvent(t, carol.Events, EventUsersList)

	// Overflow the stuck client's event buffer (it never reads) while
	// staying within carol's, so drops on the stuck connection are the
	// only drops.
	flood := cap(stuck.Events) - 1
	for i := 0; i < flood; i++ {
		alice.Commands <- &Command{Kind: CommandSendMessage, Content: "flood"}
	}
	alice.Commands <- &Command{Kind: CommandSendMessage, Content: "after-flood"}

	for i := 0; i < flood; i++ {
		mustEvent(t, carol.Events, EventNewMessage)
	}
	ev := mustEvent(t, carol.Events, EventNewMessage)
	if ev.Message.Content != "after-flood" {
		t.Fatalf("healthy connection got %q, want after-flood", ev.Message.Content)
	}
}

func TestHubStats(t *testing.T) {
	hub := startHub(t)

	alice := joinAs(hub, "c1", "u1", "alice")
	bob := joinAs(hub, "c2", "u2", "bob")
	mustEvent(t, alice.Events, EventUsersList)

	alice.Commands <- &Command{Kind: CommandSendMessage, Content: "hi"}
	mustEvent(t, bob.Events, EventNewMessage)

	st := hub.SnapshotStats()
	if st.Connections != 2 || st.UsersOnline != 2 || st.UsersKnown != 2 || st.Messages != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	hub.UnregisterClient(bob)
	mustEvent(t, alice.Events, EventUserLeft)

	st = hub.SnapshotStats()
	if st.Connections != 1 || st.UsersOnline != 1 || st.UsersKnown != 2 {
		t.Fatalf("unexpected stats after leave: %+v", st)
	}
}
