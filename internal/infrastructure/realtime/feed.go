package realtime

import (
	"pasarloka/internal/domain/entity"
)

// Feed is the ordered message projection of one room: an append/update-only
// view of the push stream. The server-assigned message id is the
// deduplication key; arrival order from the stream is the order of record and
// is never resorted by timestamp.
type Feed struct {
	order []*entity.Message
	index map[string]int // message id -> position in order
	temp  map[string]int // client temp id -> position of provisional entry
}

func NewFeed() *Feed {
	return &Feed{
		index: make(map[string]int),
		temp:  make(map[string]int),
	}
}

// AddProvisional records a local echo before the authoritative event arrives.
// The entry is keyed by its client-generated temp id and will be replaced,
// not duplicated, once the event carrying the real id lands.
func (f *Feed) AddProvisional(tempID string, msg *entity.Message) {
	if tempID == "" {
		return
	}
	if pos, ok := f.temp[tempID]; ok {
		f.order[pos] = msg
		return
	}
	f.temp[tempID] = len(f.order)
	f.order = append(f.order, msg)
}

// Apply reconciles one incoming event into the projection. A known id merges
// in place without reordering; an event that resolves a provisional temp id
// replaces it; anything else appends in arrival order. It reports whether the
// event produced a new entry.
func (f *Feed) Apply(msg *entity.Message) bool {
	if msg.ID != "" {
		if pos, ok := f.index[msg.ID]; ok {
			f.order[pos] = msg
			return false
		}
	}

	if msg.TempID != "" {
		if pos, ok := f.temp[msg.TempID]; ok {
			f.order[pos] = msg
			delete(f.temp, msg.TempID)
			if msg.ID != "" {
				f.index[msg.ID] = pos
			}
			return false
		}
	}

	pos := len(f.order)
	f.order = append(f.order, msg)
	if msg.ID != "" {
		f.index[msg.ID] = pos
	}
	return true
}

// Messages returns the projection in stream order.
func (f *Feed) Messages() []*entity.Message {
	out := make([]*entity.Message, len(f.order))
	copy(out, f.order)
	return out
}

// Get returns the message at id, if present.
func (f *Feed) Get(id string) (*entity.Message, bool) {
	pos, ok := f.index[id]
	if !ok {
		return nil, false
	}
	return f.order[pos], true
}

// Len reports the number of entries, provisional ones included.
func (f *Feed) Len() int {
	return len(f.order)
}
