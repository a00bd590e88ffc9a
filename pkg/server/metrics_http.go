package server

import (
	"fmt"
	"net/http"
	"time"
)

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Helper for gauge/counter lines.
	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}
	writeFloat := func(name, help, mtype string, value float64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %f\n", name, value)
	}

	writeFloat("openboard_uptime_seconds", "Server uptime in seconds.", "gauge", uptime)

	write("openboard_sessions_active", "Currently connected realtime sessions.", "gauge",
		m.ActiveSessions.Load())
	write("openboard_connections_total", "Lifetime realtime sessions admitted.", "counter",
		m.ConnectionsOpened.Load())
	write("openboard_admissions_refused_total", "Connections rejected before upgrade.", "counter",
		m.AdmissionsRefused.Load())
	write("openboard_disconnects_total", "Realtime sessions torn down.", "counter",
		m.Disconnects.Load())

	write("openboard_broadcasts_total", "Room fan-outs performed.", "counter",
		m.BroadcastsSent.Load())
	write("openboard_deliveries_total", "Individual message deliveries that succeeded.", "counter",
		m.MessagesDelivered.Load())
	write("openboard_sessions_pruned_total", "Sessions evicted on failed delivery.", "counter",
		m.SessionsPruned.Load())

	write("openboard_users_registered_total", "Accounts created.", "counter",
		m.UsersRegistered.Load())
	write("openboard_logins_success_total", "Successful credential exchanges.", "counter",
		m.LoginsSucceeded.Load())
	write("openboard_logins_failed_total", "Rejected credential exchanges.", "counter",
		m.LoginsFailed.Load())

	write("openboard_boards_created_total", "Boards created.", "counter",
		m.BoardsCreated.Load())
	write("openboard_boards_deleted_total", "Boards deleted.", "counter",
		m.BoardsDeleted.Load())
	write("openboard_members_added_total", "Board memberships granted.", "counter",
		m.MembersAdded.Load())
	write("openboard_lists_created_total", "Lists created.", "counter",
		m.ListsCreated.Load())
	write("openboard_cards_created_total", "Cards created.", "counter",
		m.CardsCreated.Load())
}
