// Command client is a line-based terminal client for a ghostwire relay.
//
// It keeps every channel's history in memory, tracks who is around,
// and mirrors sent messages locally without waiting for the server
// (the relay never echoes frames back to their origin).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ghostwire/internal/client"
	"ghostwire/internal/store"
)

func main() {
	username := flag.String("username", "", "username to appear as (default ghost_<random>)")
	server := flag.String("server", "ws://localhost:8080/ws", "websocket URL of the relay")
	cache := flag.String("cache", "", "path to the roster cache db (empty disables persistence)")
	idle := flag.Duration("idle", client.DefaultIdleTimeout, "idle time after which a user is shown offline")
	flag.Parse()

	if *username == "" {
		*username = "ghost_" + uuid.NewString()[:8]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *username, *server, *cache, *idle); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("client error: %v", err)
	}
}

func run(ctx context.Context, username, server, cachePath string, idle time.Duration) error {
	roster := client.NewRoster(ctx, idle)

	var cache *store.RosterStore
	if cachePath != "" {
		var err error
		cache, err = store.Open(cachePath)
		if err != nil {
			return fmt.Errorf("open roster cache: %w", err)
		}
		defer func() { _ = cache.Close() }()

		entries, err := cache.All()
		if err != nil {
			return fmt.Errorf("read roster cache: %w", err)
		}
		for _, e := range entries {
			roster.Seed(e.Username, e.LastSeen)
		}
	}

	model := client.New(client.Config{Self: username, Roster: roster})
	session := client.NewSession(server, username)

	// Stdin is read on its own goroutine because the blocking read
	// cannot be cancelled; the loop below owns all model state.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		select {
		case lines <- "/quit":
		case <-ctx.Done():
		}
	}()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gCtx)
	})
	g.Go(func() error {
		for {
			select {
			case ev := <-session.Events():
				client.Apply(model, ev)
				if done := render(model, ev); done {
					return nil
				}
			case line := <-lines:
				if quit := handleLine(model, session, line); quit {
					session.Commands() <- client.DisconnectCommand{}
				}
			case <-gCtx.Done():
				return gCtx.Err()
			}
		}
	})

	err := g.Wait()

	if cache != nil {
		if perr := persistRoster(roster, cache); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// handleLine interprets one line of user input. Slash commands act on
// local state; anything else is sent to the active channel and echoed
// immediately.
func handleLine(model *client.Model, session *client.Session, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		session.Commands() <- client.SendCommand{Content: line, Channel: model.ActiveID()}
		msg := model.LocalEcho(line)
		printMessage(model.ActiveID(), msg)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/q":
		return true
	case "/dm":
		if arg == "" {
			fmt.Println("usage: /dm <username>")
			return false
		}
		ch := model.OpenDM(arg)
		fmt.Printf("-- now talking in %s --\n", ch.DisplayName())
	case "/ch", "/channel":
		if arg == "" {
			fmt.Println("usage: /ch <channel-id>")
			return false
		}
		model.SwitchActive(arg)
		if model.ActiveID() != arg {
			fmt.Printf("no such channel: %s\n", arg)
			return false
		}
		fmt.Printf("-- now talking in %s --\n", model.Active().DisplayName())
		for _, msg := range model.Active().Messages() {
			printMessage(model.ActiveID(), msg)
		}
	case "/users":
		for _, u := range model.Roster().Snapshot() {
			state := "offline"
			if u.Online {
				state = "online"
			}
			fmt.Printf("  %-20s %s\n", u.Username, state)
		}
	case "/channels":
		for _, id := range model.ChannelIDs() {
			ch, _ := model.Channel(id)
			marker := " "
			if id == model.ActiveID() {
				marker = "*"
			}
			if ch.Unread > 0 {
				fmt.Printf("%s %s (%d unread)\n", marker, ch.DisplayName(), ch.Unread)
			} else {
				fmt.Printf("%s %s\n", marker, ch.DisplayName())
			}
		}
	default:
		fmt.Printf("unknown command: %s\n", cmd)
	}
	return false
}

// render prints the effect of one network event and reports whether
// the session is over.
func render(model *client.Model, ev client.Event) (done bool) {
	switch ev := ev.(type) {
	case client.ConnectedEvent:
		fmt.Printf("-- connected as %s --\n", model.Self())
	case client.DisconnectedEvent:
		fmt.Println("-- disconnected --")
		return true
	case client.MessageEvent:
		channel := ev.Envelope.Channel
		if channel == model.ActiveID() {
			ch := model.Active()
			msgs := ch.Messages()
			if len(msgs) > 0 {
				printMessage(channel, msgs[len(msgs)-1])
			}
		} else if ch, ok := model.Channel(channel); ok {
			fmt.Printf("-- %s: %d unread --\n", ch.DisplayName(), ch.Unread)
		}
	case client.UserJoinedEvent:
		fmt.Printf("-- %s joined --\n", ev.Username)
	case client.UserLeftEvent:
		fmt.Printf("-- %s left --\n", ev.Username)
	case client.SystemEvent:
		fmt.Printf("-- %s --\n", ev.Content)
	case client.ErrorEvent:
		fmt.Printf("!! %s\n", ev.Message)
	}
	return false
}

func printMessage(channelID string, msg client.ChatMessage) {
	ts := msg.Timestamp.Format("15:04:05")
	if msg.System {
		fmt.Printf("[%s] -- %s --\n", ts, msg.Content)
		return
	}
	fmt.Printf("[%s] [%s] %s: %s\n", ts, channelID, msg.Sender, msg.Content)
}

func persistRoster(roster *client.Roster, cache *store.RosterStore) error {
	snapshot := roster.Snapshot()
	entries := make([]store.Entry, 0, len(snapshot))
	for _, u := range snapshot {
		entries = append(entries, store.Entry{Username: u.Username, LastSeen: u.LastSeen})
	}
	return cache.PutAll(entries)
}
