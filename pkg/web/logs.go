package web

import "time"

const (
	maxLogs = 500

	// RecentLogs is how many entries the HUD shows.
	RecentLogs = 5

	// LogPrefix marks HUD activity lines.
	LogPrefix = "[AI_LOG]: "
)

// LogEntry is one activity line.
type LogEntry struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

// AddLog records an activity line and broadcasts it to log clients.
// It is safe to use as a recorder observer.
func (s *Server) AddLog(message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	if err := s.logHub.BroadcastJSON(entry); err != nil {
		s.logger.Warn("log broadcast failed", "error", err)
	}
}

// Logs returns a copy of the buffered entries, oldest first.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return append([]LogEntry(nil), s.logs...)
}

// Recent returns the last n lines, newest first, with the HUD prefix.
func (s *Server) Recent(n int) []string {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()

	out := make([]string, 0, n)
	for i := len(s.logs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, LogPrefix+s.logs[i].Message)
	}
	return out
}
