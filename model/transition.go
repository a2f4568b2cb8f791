package model

import "fmt"

// TransitionMatrix - dense tag-to-tag transition costs. Pairs that were never
// set cost Default.
type TransitionMatrix struct {
	Size    int
	Costs   []float64
	Default float64
}

func NewTransitionMatrix(size int, dflt float64) *TransitionMatrix {
	m := &TransitionMatrix{Size: size, Costs: make([]float64, size*size), Default: dflt}
	for i := range m.Costs {
		m.Costs[i] = dflt
	}
	return m
}

// Set assigns the cost of moving from prevTagID to tagID.
func (m *TransitionMatrix) Set(prevTagID, tagID int, cost float64) error {
	if cost < 0 {
		return fmt.Errorf("negative transition cost %v", cost)
	}
	if prevTagID < 0 || tagID < 0 || prevTagID >= m.Size || tagID >= m.Size {
		return fmt.Errorf("transition %d->%d outside of a %d tag table", prevTagID, tagID, m.Size)
	}
	m.Costs[prevTagID*m.Size+tagID] = cost
	return nil
}

// Transition returns the cost of moving from prevTagID to tagID.
func (m *TransitionMatrix) Transition(prevTagID, tagID int) float64 {
	if prevTagID < 0 || tagID < 0 || prevTagID >= m.Size || tagID >= m.Size {
		return m.Default
	}
	return m.Costs[prevTagID*m.Size+tagID]
}
