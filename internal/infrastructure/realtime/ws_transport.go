package realtime

import (
	"encoding/json"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"pasarloka/internal/domain/entity"
	"pasarloka/pkg/logger"
)

// WebsocketTransport implements Transport over a gorilla/websocket dial per
// channel. Construct it with NewWebsocketTransport and pass it in; lifecycle
// is owned by the caller.
type WebsocketTransport struct {
	endpoint string
	token    string
	dialer   *websocket.Dialer
}

func NewWebsocketTransport(endpoint, token string) *WebsocketTransport {
	return &WebsocketTransport{
		endpoint: endpoint,
		token:    token,
		dialer:   websocket.DefaultDialer,
	}
}

type wsSubscription struct {
	conn *websocket.Conn
	once sync.Once
}

func (s *wsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.conn.Close()
	})
	return err
}

type wsFrame struct {
	Type    string          `json:"type"`
	ChatID  string          `json:"chat_id,omitempty"`
	Message *entity.Message `json:"message,omitempty"`
}

func (t *WebsocketTransport) Subscribe(channel string, onEvent func(*entity.Message), onState func(subscribed bool, err error)) (Subscription, error) {
	endpoint := t.endpoint
	if t.token != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("token", t.token)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	conn, _, err := t.dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, err
	}

	join := wsFrame{Type: "join_room", ChatID: channel}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, err
	}

	sub := &wsSubscription{conn: conn}
	onState(true, nil)

	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				onState(false, err)
				return
			}

			var frame wsFrame
			if err := json.Unmarshal(raw, &frame); err != nil {
				logger.Warn("Dropping malformed push frame on %s: %v", channel, err)
				continue
			}
			if frame.Type != "message" || frame.Message == nil {
				continue
			}
			if frame.ChatID != "" && frame.ChatID != channel {
				continue
			}
			onEvent(frame.Message)
		}
	}()

	return sub, nil
}
