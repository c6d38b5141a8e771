// Package storage persists the moderation audit trail under the data
// directory. Moderation entries themselves are deliberately not persisted;
// only the record of who did what survives a restart.
package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// maxEntries caps the audit file size.
const maxEntries = 500

// Audit is an append-style log of moderation commands and outcomes.
type Audit struct {
	path    string
	entries []string
}

// OpenAudit loads the audit log from the data directory, creating an empty
// one if the file does not exist.
func OpenAudit(dataDir string) (*Audit, error) {
	a := &Audit{path: filepath.Join(dataDir, "audit.txt")}

	file, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return a, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			a.entries = append(a.entries, line)
		}
	}
	return a, scanner.Err()
}

// Record appends an entry and rewrites the file, trimming to the newest
// maxEntries lines.
func (a *Audit) Record(entry string) error {
	a.entries = append(a.entries, entry)
	if len(a.entries) > maxEntries {
		a.entries = a.entries[len(a.entries)-maxEntries:]
	}
	return a.save()
}

// Entries returns all entries, oldest first.
func (a *Audit) Entries() []string {
	return append([]string(nil), a.entries...)
}

// Tail returns up to n of the newest entries, oldest first.
func (a *Audit) Tail(n int) []string {
	if n >= len(a.entries) {
		return a.Entries()
	}
	return append([]string(nil), a.entries[len(a.entries)-n:]...)
}

func (a *Audit) save() error {
	file, err := os.Create(a.path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range a.entries {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return w.Flush()
}
