package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const sessionRule = "----------------------------------------"

// SessionLog keeps the interactions of one run and rewrites the whole log
// file after every entry.
type SessionLog struct {
	mu      sync.Mutex
	path    string
	entries []string
}

func NewSessionLog(path string) (*SessionLog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := CreateFolder(dir); err != nil {
			return nil, err
		}
	}
	s := &SessionLog{
		path:    path,
		entries: []string{"Session started\n" + sessionRule + "\n"},
	}
	return s, s.flush()
}

// Record appends one user/assistant exchange with its response time.
func (s *SessionLog) Record(user, assistant string, elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, fmt.Sprintf("User: %s\nAssistant: %s\nResponse time: %.2f seconds\n%s\n",
		user, assistant, elapsed.Seconds(), sessionRule))
	return s.flush()
}

func (s *SessionLog) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.entries, "")
}

func (s *SessionLog) flush() error {
	if err := os.WriteFile(s.path, []byte(strings.Join(s.entries, "")), 0o644); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	return nil
}
