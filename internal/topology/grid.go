// Package topology places the nodes of a run. The layout is a fixed
// row-major grid; positions are stationary for the whole run.
package topology

import "github.com/huyhayho2110/netsim/internal/model"

// Grid layout parameters, identical for every run.
const (
	RowWidth = 6
	StepX    = 5.0
	StepY    = 10.0
)

// Build places nodeCount nodes row-major on the grid with the origin at
// (0, 0): node i sits at ((i mod RowWidth) * StepX, (i div RowWidth) * StepY).
// Pure construction, no failure modes; a non-positive count yields an
// empty topology.
func Build(nodeCount int) model.Topology {
	nodes := make([]model.Node, 0, max(nodeCount, 0))
	for i := 0; i < nodeCount; i++ {
		nodes = append(nodes, model.Node{
			ID: i,
			X:  float64(i%RowWidth) * StepX,
			Y:  float64(i/RowWidth) * StepY,
		})
	}
	return model.Topology{
		Nodes:    nodes,
		RowWidth: RowWidth,
		StepX:    StepX,
		StepY:    StepY,
	}
}
