package attainment

// Level is a discrete attainment tier, 0 (not attained) through 3 (high).
type Level int

// LevelBand maps percentages at or above MinPercent to Level.
type LevelBand struct {
	Level      Level   `json:"level"`
	MinPercent float64 `json:"min_percent"`
}

// Classify maps a percentage to the highest band whose MinPercent it meets,
// or level 0 when no band matches. Inputs outside [0,100] are clamped rather
// than rejected: upstream vagaries (rounding, over-generous weights) must
// never make classification fail, since every stage of the pipeline depends
// on it being total.
func Classify(pct float64, bands []LevelBand) Level {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	for _, b := range bands {
		if pct >= b.MinPercent {
			return b.Level
		}
	}
	return 0
}

// ClassifyScale3 classifies a value on the 0-3 scale by projecting it onto
// the percentage bands.
func ClassifyScale3(v float64, bands []LevelBand) Level {
	return Classify(v*100/3, bands)
}
