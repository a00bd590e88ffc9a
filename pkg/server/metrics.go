package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
// Metrics also serves as the realtime gateway's stats sink.
type Metrics struct {
	startTime time.Time

	// Gateway counters
	ConnectionsOpened atomic.Int64 // lifetime websocket sessions admitted
	ActiveSessions    atomic.Int64 // currently connected sessions
	AdmissionsRefused atomic.Int64 // connections rejected before upgrade
	Disconnects       atomic.Int64 // sessions torn down (clean + unclean)
	BroadcastsSent    atomic.Int64 // fan-outs performed
	MessagesDelivered atomic.Int64 // individual deliveries that succeeded
	SessionsPruned    atomic.Int64 // sessions evicted on failed delivery

	// Identity counters
	UsersRegistered atomic.Int64 // accounts created during this run
	LoginsSucceeded atomic.Int64 // successful credential exchanges
	LoginsFailed    atomic.Int64 // rejected credential exchanges

	// Domain counters
	BoardsCreated atomic.Int64
	BoardsDeleted atomic.Int64
	MembersAdded  atomic.Int64
	ListsCreated  atomic.Int64
	CardsCreated  atomic.Int64
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// Gateway stats sink.

func (m *Metrics) ConnectionOpened() {
	m.ConnectionsOpened.Add(1)
	m.ActiveSessions.Add(1)
}

func (m *Metrics) ConnectionClosed() {
	m.ActiveSessions.Add(-1)
	m.Disconnects.Add(1)
}

func (m *Metrics) AdmissionRefused() {
	m.AdmissionsRefused.Add(1)
}

func (m *Metrics) Broadcast(delivered int) {
	m.BroadcastsSent.Add(1)
	m.MessagesDelivered.Add(int64(delivered))
}

func (m *Metrics) Pruned(n int) {
	m.SessionsPruned.Add(int64(n))
}

// MetricsSnapshot is a point-in-time view of all metrics as a serializable struct.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ConnectionsOpened int64 `json:"connections_opened"`
	ActiveSessions    int64 `json:"active_sessions"`
	AdmissionsRefused int64 `json:"admissions_refused"`
	Disconnects       int64 `json:"disconnects"`
	BroadcastsSent    int64 `json:"broadcasts_sent"`
	MessagesDelivered int64 `json:"messages_delivered"`
	SessionsPruned    int64 `json:"sessions_pruned"`

	UsersRegistered int64 `json:"users_registered"`
	LoginsSucceeded int64 `json:"logins_succeeded"`
	LoginsFailed    int64 `json:"logins_failed"`

	BoardsCreated int64 `json:"boards_created"`
	BoardsDeleted int64 `json:"boards_deleted"`
	MembersAdded  int64 `json:"members_added"`
	ListsCreated  int64 `json:"lists_created"`
	CardsCreated  int64 `json:"cards_created"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ConnectionsOpened: m.ConnectionsOpened.Load(),
		ActiveSessions:    m.ActiveSessions.Load(),
		AdmissionsRefused: m.AdmissionsRefused.Load(),
		Disconnects:       m.Disconnects.Load(),
		BroadcastsSent:    m.BroadcastsSent.Load(),
		MessagesDelivered: m.MessagesDelivered.Load(),
		SessionsPruned:    m.SessionsPruned.Load(),
		UsersRegistered:   m.UsersRegistered.Load(),
		LoginsSucceeded:   m.LoginsSucceeded.Load(),
		LoginsFailed:      m.LoginsFailed.Load(),
		BoardsCreated:     m.BoardsCreated.Load(),
		BoardsDeleted:     m.BoardsDeleted.Load(),
		MembersAdded:      m.MembersAdded.Load(),
		ListsCreated:      m.ListsCreated.Load(),
		CardsCreated:      m.CardsCreated.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"sessions", s.ActiveSessions,
		"connections_opened", s.ConnectionsOpened,
		"admissions_refused", s.AdmissionsRefused,
		"broadcasts", s.BroadcastsSent,
		"delivered", s.MessagesDelivered,
		"pruned", s.SessionsPruned,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
