package attainment

import (
	"fmt"
	"math"
	"sort"
)

// GovernanceSnapshot is the full set of weights, thresholds and targets in
// effect for one computation run. It is captured once at run start and passed
// by value; the engine never reads live configuration, so a mid-flight config
// change cannot be observed by a running computation.
type GovernanceSnapshot struct {
	Version string `json:"version"`

	// Assessment category weights, percentages expected to sum to 100.
	IA1Weight float64 `json:"ia1_weight"`
	IA2Weight float64 `json:"ia2_weight"`
	EndWeight float64 `json:"end_weight"`

	// Direct/indirect blend weights, expected to sum to 1.0.
	DirectWeight   float64 `json:"direct_weight"`
	IndirectWeight float64 `json:"indirect_weight"`

	// Level bands, sorted descending by MinPercent.
	Bands []LevelBand `json:"bands"`

	// PO attainment target on the 0-3 scale. A final CO value below this
	// raises a CQI trigger.
	POTarget float64 `json:"po_target"`
}

// DefaultGovernance mirrors the usual NBA setup: 20/20/60 category split,
// 80/20 direct-indirect blend, L1>=60 L2>=70 L3>=85, target 1.8 (60% of 3).
func DefaultGovernance() GovernanceSnapshot {
	return GovernanceSnapshot{
		Version:        "default",
		IA1Weight:      20,
		IA2Weight:      20,
		EndWeight:      60,
		DirectWeight:   0.8,
		IndirectWeight: 0.2,
		Bands: []LevelBand{
			{Level: 3, MinPercent: 85},
			{Level: 2, MinPercent: 70},
			{Level: 1, MinPercent: 60},
		},
		POTarget: 1.8,
	}
}

// CategoryWeight returns the configured weight for an assessment category.
func (g GovernanceSnapshot) CategoryWeight(c Category) float64 {
	switch c {
	case CategoryIA1:
		return g.IA1Weight
	case CategoryIA2:
		return g.IA2Weight
	case CategoryEnd:
		return g.EndWeight
	}
	return 0
}

// Warnings reports non-fatal configuration inconsistencies. These never block
// a run; they are attached to the result and recorded in the audit event.
func (g GovernanceSnapshot) Warnings() []string {
	var ws []string
	if sum := g.IA1Weight + g.IA2Weight + g.EndWeight; math.Abs(sum-100) > 0.001 {
		ws = append(ws, fmt.Sprintf("category weights sum to %.2f, expected 100; scaled proportionally", sum))
	}
	if sum := g.DirectWeight + g.IndirectWeight; math.Abs(sum-1.0) > 0.001 {
		ws = append(ws, fmt.Sprintf("blend weights sum to %.3f, expected 1.0", sum))
	}
	if len(g.Bands) == 0 {
		ws = append(ws, "no level bands configured; every percentage classifies as level 0")
	}
	return ws
}

// sortedBands returns the bands in descending MinPercent order without
// mutating the snapshot.
func (g GovernanceSnapshot) sortedBands() []LevelBand {
	bands := make([]LevelBand, len(g.Bands))
	copy(bands, g.Bands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinPercent > bands[j].MinPercent })
	return bands
}
