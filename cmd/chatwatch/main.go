package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pasarloka/internal/infrastructure/realtime"
	"pasarloka/pkg/config"
)

// chatwatch is a terminal companion for the realtime chat API. It joins the
// given rooms over the push socket and keeps a reconciled local projection:
// reconnects survive network drops, replayed history merges by message id,
// and unread counters follow room focus.
func main() {
	token := flag.String("token", "", "Firebase ID token for the connecting user")
	userID := flag.String("user", "", "user id of the connecting user")
	rooms := flag.String("rooms", "", "comma-separated chat room ids to watch")
	flag.Parse()

	if *token == "" || *userID == "" || *rooms == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	transport := realtime.NewWebsocketTransport(cfg.PushEndpoint, *token)
	store := realtime.NewStore(transport, *userID, time.Duration(cfg.ReconnectDelay)*time.Second)
	defer store.Shutdown()

	roomIDs := strings.Split(*rooms, ",")
	for _, roomID := range roomIDs {
		roomID = strings.TrimSpace(roomID)
		if roomID == "" {
			continue
		}
		if err := store.Join(roomID); err != nil {
			log.Fatalf("Failed to join room %s: %v", roomID, err)
		}
		fmt.Printf("watching %s\n", roomID)
	}

	// "open <room>" focuses a room and resets its unread counter; a bare
	// newline blurs focus again.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				store.Blur()
				continue
			}
			if roomID, ok := strings.CutPrefix(line, "open "); ok {
				store.Open(strings.TrimSpace(roomID))
			}
		}
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			for _, roomID := range roomIDs {
				roomID = strings.TrimSpace(roomID)
				msgs := store.Messages(roomID)
				if len(msgs) == 0 {
					continue
				}
				last := msgs[len(msgs)-1]
				fmt.Printf("[%s] %d messages, %d unread, state=%s, last: %s\n",
					roomID, len(msgs), store.Unread(roomID), store.SubscriptionState(roomID), last.Body)
			}
		case <-stop:
			return
		}
	}
}
