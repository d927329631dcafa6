package flowmon

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huyhayho2110/netsim/internal/model"
)

// GobWriter persists each snapshot in gob form for offline tooling.
// It implements the model.Writer interface.
type GobWriter struct {
	rootPath string
}

// NewGobWriter creates a writer that stores snapshots under rootPath.
func NewGobWriter(rootPath string) model.Writer {
	return &GobWriter{rootPath: rootPath}
}

func (w *GobWriter) Name() string { return "gob" }

// Write serializes the run's full flow table to a single file keyed by
// node count.
func (w *GobWriter) Write(snap *model.Snapshot) error {
	if err := os.MkdirAll(w.rootPath, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	fileName := fmt.Sprintf("flows-%d-nodes.gob", snap.NodeCount)
	filePath := filepath.Join(w.rootPath, fileName)

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode flows to gob for file '%s': %w", filePath, err)
	}
	return nil
}
