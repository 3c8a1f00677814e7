package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/huddlechat/huddle-server/client"
	"github.com/huddlechat/huddle-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		url      string
		name     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "chat-cli",
		Short: "Terminal chat client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(url, name, logLevel)
		},
	}

	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ws", "websocket server URL")
	cmd.Flags().StringVar(&name, "name", "cli-user", "display name")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")

	return cmd
}

func run(url, name, logLevel string) error {
	logger := log.New(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := client.NewStore()
	sup, err := client.New(client.Config{
		URL:      url,
		Identity: client.User{ID: uuid.NewString(), DisplayName: name},
		Logger:   logger,
	}, store)
	if err != nil {
		return err
	}

	// Print new messages as the store picks them up.
	seen := 0
	unsubscribe := store.Subscribe(func(snap client.Snapshot) {
		for ; seen < len(snap.Messages); seen++ {
			m := snap.Messages[seen]
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04:05"), m.SenderName, m.Content)
		}
	})
	defer unsubscribe()

	sup.OnLifecycle(func(ev client.LifecycleEvent) {
		switch ev.Kind {
		case client.LifecycleConnected:
			fmt.Println("* connected")
		case client.LifecycleDisconnected:
			fmt.Println("* disconnected")
		case client.LifecycleReconnectFailed:
			fmt.Printf("* gave up after %d attempts: %v\n", ev.Attempt, ev.Err)
			stop()
		}
	})

	if err := sup.Connect(ctx); err != nil {
		return err
	}
	defer sup.Disconnect()

	fmt.Printf("Connected to %s as %s. Type messages, /who for presence, Ctrl+C to exit.\n", url, name)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "/who" {
				for _, u := range store.Snapshot().Users {
					status := "offline"
					if u.Online {
						status = "online"
					}
					fmt.Printf("  %s (%s)\n", u.DisplayName, status)
				}
				continue
			}
			if err := sup.Send(ctx, line); err != nil {
				fmt.Printf("* send failed: %v\n", err)
			}
		}
	}
}
