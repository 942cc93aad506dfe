package wallet

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// AccountStream is the observable stream of connected wallet accounts. The
// core subscribes to it instead of reading connection state from a global;
// a nil account means the wallet disconnected.
type AccountStream interface {
	Subscribe(onChange func(account *common.Address)) (unsubscribe func())
}

// Broadcaster is an in-process AccountStream. Wallet connection itself is
// owned by the client; this bridges its connect/disconnect notifications to
// subscribers.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[int]func(*common.Address)
	nextID  int
	current *common.Address
}

// NewBroadcaster creates an empty account stream.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]func(*common.Address)),
	}
}

// Subscribe registers a callback and immediately replays the current
// account to it.
func (b *Broadcaster) Subscribe(onChange func(account *common.Address)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = onChange
	current := b.current
	b.mu.Unlock()

	onChange(current)

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// SetAccount publishes a new connected account, or nil on disconnect.
func (b *Broadcaster) SetAccount(account *common.Address) {
	b.mu.Lock()
	b.current = account
	callbacks := make([]func(*common.Address), 0, len(b.subs))
	for _, fn := range b.subs {
		callbacks = append(callbacks, fn)
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn(account)
	}
}
