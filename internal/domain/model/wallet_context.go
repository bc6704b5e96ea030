package model

import "sync"

// WalletContext carries the connected wallet and chain. It is created once by
// the application and handed by reference to every tip session; sessions
// subscribe to learn when the identity or chain changes.
type WalletContext struct {
	mu        sync.RWMutex
	address   string
	chainID   int
	nextID    int
	listeners map[int]func(address string, chainID int)
}

func NewWalletContext(address string, chainID int) *WalletContext {
	if chainID <= 0 {
		chainID = 1
	}
	return &WalletContext{
		address:   address,
		chainID:   chainID,
		listeners: make(map[int]func(string, int)),
	}
}

func (w *WalletContext) Identity() (string, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.address, w.chainID
}

func (w *WalletContext) Connected() bool {
	address, _ := w.Identity()
	return address != ""
}

// Set replaces the identity and notifies subscribers if anything changed.
func (w *WalletContext) Set(address string, chainID int) {
	if chainID <= 0 {
		chainID = 1
	}

	w.mu.Lock()
	if w.address == address && w.chainID == chainID {
		w.mu.Unlock()
		return
	}
	w.address = address
	w.chainID = chainID
	listeners := make([]func(string, int), 0, len(w.listeners))
	for _, fn := range w.listeners {
		listeners = append(listeners, fn)
	}
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(address, chainID)
	}
}

// Subscribe registers fn for identity changes and returns its cancel func.
func (w *WalletContext) Subscribe(fn func(address string, chainID int)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}
