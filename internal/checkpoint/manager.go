package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sumatoshi-tech/primefang/internal/persist"
)

// stateBasename is the checkpoint file name without extension.
const stateBasename = "primefang-checkpoint"

// checkpointDirMode is the permission mode for a created checkpoint directory.
const checkpointDirMode = 0o755

var (
	// ErrVersionMismatch is returned when a checkpoint was written by an
	// incompatible schema version.
	ErrVersionMismatch = errors.New("checkpoint: incompatible state version")

	// ErrOutputMismatch is returned when a checkpoint belongs to a different
	// output file than the one being resumed.
	ErrOutputMismatch = errors.New("checkpoint: output path does not match")
)

// Manager saves and restores run state in a checkpoint directory.
type Manager struct {
	dir       string
	persister *persist.Persister[State]
}

// NewManager creates a manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:       dir,
		persister: persist.NewPersister[State](stateBasename, persist.NewJSONCodec()),
	}
}

// Save writes the state atomically, stamping version and save time.
// The caller must have force-flushed the output file first; a checkpoint
// ahead of the durable output would create a gap on resume.
func (m *Manager) Save(state *State) error {
	err := os.MkdirAll(m.dir, checkpointDirMode)
	if err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	state.Version = StateVersion
	state.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	err = m.persister.Save(m.dir, func() *State { return state })
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	return nil
}

// Load reads the stored state and validates it against outputPath.
func (m *Manager) Load(outputPath string) (*State, error) {
	var state State

	err := m.persister.Load(m.dir, func(s *State) { state = *s })
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	if state.Version != StateVersion {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrVersionMismatch, state.Version, StateVersion)
	}

	if state.OutputPath != outputPath {
		return nil, fmt.Errorf("%w: checkpoint is for %s", ErrOutputMismatch, state.OutputPath)
	}

	return &state, nil
}

// Clear removes the stored state. Missing state is not an error.
func (m *Manager) Clear() error {
	err := os.Remove(m.statePath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear checkpoint: %w", err)
	}

	return nil
}

// Exists reports whether a checkpoint file is present.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.statePath())

	return err == nil
}

// Dir returns the checkpoint directory.
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) statePath() string {
	return filepath.Join(m.dir, stateBasename+".json")
}
