package quality

import "fmt"

// Identification status values attached to published events.
const (
	StatusConfident = "confident"
	StatusUncertain = "uncertain"
)

// Gate labels identifications by confidence. Low-confidence results are
// flagged for review in downstream events but are still persisted.
type Gate struct {
	minConfidence float64
}

// NewGate creates a gate with the given minimum confidence.
func NewGate(minConfidence float64) *Gate {
	return &Gate{minConfidence: minConfidence}
}

// Assess returns the status for a confidence score, with a reason when the
// identification is flagged as uncertain.
func (g *Gate) Assess(confidence float64) (string, string) {
	if confidence < g.minConfidence {
		return StatusUncertain, fmt.Sprintf("confidence %.2f below threshold %.2f",
			confidence, g.minConfidence)
	}
	return StatusConfident, ""
}
