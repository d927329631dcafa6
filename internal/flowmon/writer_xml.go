package flowmon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/huyhayho2110/netsim/internal/model"
)

// TraceFileName returns the flow trace artifact name for a run. The
// node count is the only key, so repeating a sweep overwrites the
// previous trace for the same count.
func TraceFileName(nodeCount int) string {
	return fmt.Sprintf("flowmonitor-%d-nodes.xml", nodeCount)
}

// XMLWriter persists each snapshot as a flow trace document in the
// artifacts directory. It is the one writer every sweep carries.
type XMLWriter struct {
	dir string
}

func NewXMLWriter(dir string) model.Writer {
	return &XMLWriter{dir: dir}
}

func (w *XMLWriter) Name() string { return "xml" }

func (w *XMLWriter) Write(snap *model.Snapshot) error {
	path := filepath.Join(w.dir, TraceFileName(snap.NodeCount))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file '%s': %w", path, err)
	}
	defer file.Close()

	if err := WriteXML(file, snap); err != nil {
		return fmt.Errorf("failed to write trace file '%s': %w", path, err)
	}
	return nil
}
