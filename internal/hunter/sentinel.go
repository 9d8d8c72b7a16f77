package hunter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SentinelFileName marks a completed run at the project root. Its
// presence short-circuits future creation runs unless --force is
// given.
const SentinelFileName = ".instance_created"

// Record is the content of the sentinel file: the created instance's
// OCID and when it was created. CreatedAt is zero when the file
// predates the timestamp line or the timestamp does not parse.
type Record struct {
	InstanceID string
	CreatedAt  time.Time
}

// Sentinel reads and writes the success marker file.
type Sentinel struct {
	path string
}

// NewSentinel returns a sentinel stored at the default path under
// root.
func NewSentinel(root string) *Sentinel {
	return &Sentinel{path: filepath.Join(root, SentinelFileName)}
}

// Path returns the sentinel file location.
func (s *Sentinel) Path() string {
	return s.path
}

// Exists reports whether the sentinel file is present.
func (s *Sentinel) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read parses the sentinel file.
func (s *Sentinel) Read() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("error reading sentinel %s: %w", s.path, err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	rec := &Record{InstanceID: strings.TrimSpace(lines[0])}
	if len(lines) > 1 {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(lines[1])); err == nil {
			rec.CreatedAt = ts
		}
	}
	return rec, nil
}

// Write records the instance id and the current time.
func (s *Sentinel) Write(instanceID string) error {
	content := fmt.Sprintf("%s\n%s\n", instanceID, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("error writing sentinel %s: %w", s.path, err)
	}
	return nil
}
