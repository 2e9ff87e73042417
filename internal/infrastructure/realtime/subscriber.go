package realtime

import (
	"sync"
	"time"

	"pasarloka/internal/domain/entity"
	"pasarloka/pkg/logger"
)

// State of one room subscription.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateSubscribed   State = "subscribed"
	// StateLeft is terminal and only reachable through Leave.
	StateLeft State = "left"
)

// Subscriber supervises one room's subscription: it re-establishes the
// stream after disruption on a fixed backoff and owns its reconnect timer so
// leaving the room stops it deterministically. Subscribers for different
// rooms are fully independent.
type Subscriber struct {
	channel   string
	transport Transport
	delay     time.Duration
	onEvent   func(*entity.Message)

	mu    sync.Mutex
	state State
	sub   Subscription
	retry *time.Timer
	// attempt numbers connect attempts so a stale one can tell that a newer
	// attempt owns the slot.
	attempt int
}

func NewSubscriber(transport Transport, channel string, delay time.Duration, onEvent func(*entity.Message)) *Subscriber {
	return &Subscriber{
		channel:   channel,
		transport: transport,
		delay:     delay,
		onEvent:   onEvent,
		state:     StateDisconnected,
	}
}

// Connect moves disconnected -> connecting and attempts the subscription.
// Failures schedule a reconnect; calling Connect on a left subscriber is a
// no-op.
func (s *Subscriber) Connect() {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	sub, err := s.transport.Subscribe(s.channel, s.handleEvent, s.handleState)
	if err != nil {
		logger.Warn("Subscribe failed for %s: %v", s.channel, err)
		s.scheduleReconnect()
		return
	}

	s.mu.Lock()
	if s.attempt != attempt || s.state == StateLeft || s.state == StateDisconnected {
		// Leave won the race, the stream already dropped, or a newer attempt
		// owns the slot; release the fresh subscription instead of stranding
		// its connection.
		s.mu.Unlock()
		sub.Close()
		return
	}
	s.sub = sub
	s.mu.Unlock()
}

func (s *Subscriber) handleEvent(msg *entity.Message) {
	s.mu.Lock()
	left := s.state == StateLeft
	s.mu.Unlock()
	if left {
		return
	}
	s.onEvent(msg)
}

func (s *Subscriber) handleState(subscribed bool, err error) {
	s.mu.Lock()
	if s.state == StateLeft {
		s.mu.Unlock()
		return
	}
	if subscribed {
		s.state = StateSubscribed
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected
	s.sub = nil
	s.mu.Unlock()

	if err != nil {
		logger.Warn("Subscription dropped for %s: %v", s.channel, err)
	}
	s.scheduleReconnect()
}

func (s *Subscriber) scheduleReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLeft {
		return
	}
	s.state = StateDisconnected
	if s.retry != nil {
		s.retry.Stop()
	}
	s.retry = time.AfterFunc(s.delay, s.Connect)
}

// Leave moves any state to terminal left, stops the reconnect timer
// synchronously and releases the subscription. In-flight requests elsewhere
// are unaffected; only this room's stream is torn down.
func (s *Subscriber) Leave() {
	s.mu.Lock()
	s.state = StateLeft
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// State reports the current subscription state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
