package sessions

import (
	"sync"
	"time"
)

type ledgerEntry struct {
	code      string
	expiresAt time.Time
}

// CodeLedger is the tab-scoped volatile store remembering the last
// authorization code each tab exchanged. It is never persisted: entries vanish
// on restart or after ttl, mirroring storage that is cleared when a tab closes.
type CodeLedger struct {
	mu      sync.RWMutex
	entries map[string]ledgerEntry
	ttl     time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

// NewCodeLedger creates a ledger and starts its cleanup loop. Call Close to stop it.
func NewCodeLedger(ttl time.Duration) *CodeLedger {
	l := &CodeLedger{
		entries: make(map[string]ledgerEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop(time.Minute)
	return l
}

// Last returns the last code recorded for the tab, or "".
func (l *CodeLedger) Last(tabID string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, found := l.entries[tabID]
	if !found || time.Now().After(entry.expiresAt) {
		return ""
	}
	return entry.code
}

// Record remembers code as processed for the tab, replacing any previous one.
func (l *CodeLedger) Record(tabID, code string) {
	if tabID == "" || code == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[tabID] = ledgerEntry{code: code, expiresAt: time.Now().Add(l.ttl)}
}

// Forget drops the tab's entry.
func (l *CodeLedger) Forget(tabID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, tabID)
}

// Close stops the cleanup loop. Safe to call more than once.
func (l *CodeLedger) Close() {
	l.closeOnce.Do(func() { close(l.stop) })
}

// cleanup removes expired entries.
func (l *CodeLedger) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for id, entry := range l.entries {
		if now.After(entry.expiresAt) {
			delete(l.entries, id)
		}
	}
}

func (l *CodeLedger) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}
