package realtime

import (
	"pasarloka/internal/domain/entity"
)

// Transport is the push/broadcast boundary. It yields an ordered stream of
// message events per channel plus subscribe-state callbacks; authentication
// and handshake belong to the implementation, not to the consumers here.
// Implementations are injected, never referenced as package globals.
type Transport interface {
	// Subscribe opens the channel and starts delivering events to onEvent in
	// stream order. onState is invoked once the subscription is live and
	// again, with an error, when it drops.
	Subscribe(channel string, onEvent func(*entity.Message), onState func(subscribed bool, err error)) (Subscription, error)
}

// Subscription is one live channel binding; Close releases it.
type Subscription interface {
	Close() error
}
