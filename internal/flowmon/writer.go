package flowmon

import (
	"log"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/model"
)

// NewWriters builds the snapshot writer chain. The XML trace writer is
// always present; optional sinks from the config follow it. A sink
// that cannot be constructed is skipped with a warning so one dead
// backend never stops the sweep.
func NewWriters(defs []config.WriterDef, artifactsDir string) []model.Writer {
	writers := []model.Writer{NewXMLWriter(artifactsDir)}

	for _, writerDef := range defs {
		if !writerDef.Enabled {
			continue
		}

		switch writerDef.Type {
		case "gob":
			writers = append(writers, NewGobWriter(writerDef.Gob.RootPath))
		case "clickhouse":
			writer, err := NewClickHouseWriter(writerDef.ClickHouse)
			if err != nil {
				log.Printf("Warning: failed to create writer type '%s': %v, skipping.", writerDef.Type, err)
				continue
			}
			writers = append(writers, writer)
		default:
			log.Printf("Warning: unknown writer type '%s' in config, skipping.", writerDef.Type)
		}
	}
	return writers
}
