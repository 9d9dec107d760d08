// Package domain contains entities without logic, just meta-data.
package domain

// StateVector is an entity's pose on the map: [x, y, z, direction, action].
// The wire format is always exactly five numbers.
type StateVector []float64

const StateVectorLen = 5

// ZeroState returns the spawn pose.
func ZeroState() StateVector {
	return make(StateVector, StateVectorLen)
}

// Clone copies the vector so a broadcastable snapshot never aliases
// the session's live state.
func (s StateVector) Clone() StateVector {
	out := make(StateVector, len(s))
	copy(out, s)
	return out
}
