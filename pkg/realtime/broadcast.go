package realtime

import (
	"log/slog"
	"sync"
)

// Stats receives gateway lifecycle counters. The server's metrics implement
// it; a no-op sink is used when none is provided.
type Stats interface {
	ConnectionOpened()
	ConnectionClosed()
	AdmissionRefused()
	Broadcast(delivered int)
	Pruned(n int)
}

type nopStats struct{}

func (nopStats) ConnectionOpened() {}
func (nopStats) ConnectionClosed() {}
func (nopStats) AdmissionRefused() {}
func (nopStats) Broadcast(int)     {}
func (nopStats) Pruned(int)        {}

// Broadcaster fans a message out to every session in a board's room,
// isolating per-recipient failures from the rest of the fan-out and from
// the caller.
type Broadcaster struct {
	registry *Registry
	stats    Stats
}

// NewBroadcaster creates a broadcaster over the given registry. stats may
// be nil.
func NewBroadcaster(registry *Registry, stats Stats) *Broadcaster {
	if stats == nil {
		stats = nopStats{}
	}
	return &Broadcaster{registry: registry, stats: stats}
}

// Broadcast delivers msg to every session currently in the board's room.
// Deliveries run concurrently so one slow recipient cannot delay the others,
// and all outcomes are collected before returning. Sessions whose delivery
// failed are removed from the registry and closed: a client that vanished
// without a disconnect handshake is evicted the next time anyone broadcasts
// to its room. Partial failure is expected steady-state and never surfaces
// to the caller; broadcasting to an empty or unknown room is a silent no-op.
func (b *Broadcaster) Broadcast(boardID int64, msg Message) (delivered, pruned int) {
	sessions := b.registry.Snapshot(boardID)
	if len(sessions) == 0 {
		return 0, 0
	}

	failed := make(chan *Session, len(sessions))
	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.Send(msg); err != nil {
				slog.Debug("broadcast delivery failed", "board", boardID, "session", s.Handle, "user", s.UserID, "err", err)
				failed <- s
			}
		}(s)
	}
	wg.Wait()
	close(failed)

	for s := range failed {
		b.registry.Remove(boardID, s)
		_ = s.Close()
		pruned++
	}
	delivered = len(sessions) - pruned

	b.stats.Broadcast(delivered)
	if pruned > 0 {
		b.stats.Pruned(pruned)
		slog.Info("pruned unreachable sessions", "board", boardID, "count", pruned)
	}
	return delivered, pruned
}
