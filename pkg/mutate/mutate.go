// Package mutate edits source files to force rebuilds, and reverts
// those edits.
package mutate

import (
	"fmt"
	"os"
	"strings"
)

// marker prefixes the injected line. Changing the trailing counter
// changes debug info, which defeats compiler and build caches.
const marker = "// CACHE-BUST:"

// Mutator prepends cache-busting lines to files and strips them again.
// The counter is owned by the instance, so two incremental benchmarks
// never share mutation state.
type Mutator struct {
	counter int
}

// NewMutator creates a Mutator with a fresh counter.
func NewMutator() *Mutator {
	return &Mutator{}
}

// Mutate prepends a unique cache-busting line to the file.
func (m *Mutator) Mutate(path string) error {
	m.counter++

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	mutated := fmt.Sprintf("%s%d\n%s", marker, m.counter, data)

	if err := os.WriteFile(path, []byte(mutated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// Revert removes every cache-busting line from the file.
func (m *Mutator) Revert(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.HasPrefix(line, marker) {
			continue
		}

		kept = append(kept, line)
	}

	restored := strings.Join(kept, "\n") + "\n"

	if err := os.WriteFile(path, []byte(restored), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
