// Package metrics holds the per-team statistical profile the probability
// model reads from, the canonical normalization constants for each metric,
// and the momentum derivation. Everything here is a pure function of a
// team's raw stats (no RNG, no I/O).
package metrics

import "math"

// Key identifies one of the canonical, normalized metrics the base
// probability model consumes. Team profiles may carry additional
// descriptive fields (steal%, average height, bench minutes%, ...) that
// have no Key and are therefore invisible to the base model: unknown
// keys are always ignored.
type Key string

const (
	AdjOffensiveEfficiency Key = "adjOffensiveEfficiency"
	AdjDefensiveEfficiency Key = "adjDefensiveEfficiency"
	AdjTempo               Key = "adjTempo"
	StrengthOfSchedule     Key = "strengthOfSchedule"
	EffectiveFGPct         Key = "effectiveFGPct"
	ThreePointRate         Key = "threePointRate"
	ThreePointPct          Key = "threePointPct"
	FreeThrowRate          Key = "freeThrowRate"
	FreeThrowPct           Key = "freeThrowPct"
	OffensiveReboundPct    Key = "offensiveReboundPct"
	DefensiveReboundPct    Key = "defensiveReboundPct"
	TurnoverPct            Key = "turnoverPct"
	ExperienceRating       Key = "experienceRating"
	MomentumScore          Key = "momentumScore"
)

// Keys lists every recognized metric in a fixed, deterministic order. The
// probability model iterates weights/differentials in this order so that
// floating-point summation is reproducible across runs.
var Keys = []Key{
	AdjOffensiveEfficiency,
	AdjDefensiveEfficiency,
	AdjTempo,
	StrengthOfSchedule,
	EffectiveFGPct,
	ThreePointRate,
	ThreePointPct,
	FreeThrowRate,
	FreeThrowPct,
	OffensiveReboundPct,
	DefensiveReboundPct,
	TurnoverPct,
	ExperienceRating,
	MomentumScore,
}

// Sigma holds the canonical, empirical Division-I standard deviation for
// each recognized metric. The set must be implemented exactly.
var Sigma = map[Key]float64{
	AdjOffensiveEfficiency: 8.0,
	AdjDefensiveEfficiency: 8.0,
	AdjTempo:               4.0,
	StrengthOfSchedule:     4.0,
	EffectiveFGPct:         0.035,
	ThreePointRate:         0.06,
	ThreePointPct:          0.035,
	FreeThrowRate:          0.08,
	FreeThrowPct:           0.06,
	OffensiveReboundPct:    0.04,
	DefensiveReboundPct:    0.04,
	TurnoverPct:            0.03,
	ExperienceRating:       0.6,
	MomentumScore:          0.5,
}

// LowerIsBetter is the set of metrics whose differential must be negated
// before weighting: a team with a lower adjusted defensive efficiency or a
// lower turnover rate is the stronger team, so "v1 - v2" would otherwise
// point the wrong way.
var LowerIsBetter = map[Key]bool{
	AdjDefensiveEfficiency: true,
	TurnoverPct:            true,
}

// Record is a generic win/loss tally, reused for season, conference, and
// last-10 splits.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// WinPct returns Wins / (Wins+Losses), or 0.5 if no games have been played.
func (r Record) WinPct() float64 {
	total := r.Wins + r.Losses
	if total == 0 {
		return 0.5
	}
	return float64(r.Wins) / float64(total)
}

// Profile is the complete, directly-observable metrics record a Team
// carries. MomentumScore is not stored here; it is derived by
// Momentum() from Last10 and WinStreak every time it's needed, so it can
// never drift out of sync with the inputs it's computed from.
type Profile struct {
	AdjOffensiveEfficiency float64 `json:"adjOffensiveEfficiency"`
	AdjDefensiveEfficiency float64 `json:"adjDefensiveEfficiency"`
	AdjTempo               float64 `json:"adjTempo"`
	StrengthOfSchedule     float64 `json:"strengthOfSchedule"`

	EffectiveFGPct      float64 `json:"effectiveFGPct"`
	TurnoverPct         float64 `json:"turnoverPct"`
	OffensiveReboundPct float64 `json:"offensiveReboundPct"`
	DefensiveReboundPct float64 `json:"defensiveReboundPct"`
	FreeThrowRate       float64 `json:"freeThrowRate"`
	FreeThrowPct        float64 `json:"freeThrowPct"`
	ThreePointRate      float64 `json:"threePointRate"`
	ThreePointPct       float64 `json:"threePointPct"`

	StealPct         float64 `json:"stealPct"`
	AverageHeight    float64 `json:"averageHeight"`
	BenchMinutesPct  float64 `json:"benchMinutesPct"`
	ExperienceRating float64 `json:"experienceRating"`

	Season     Record `json:"season"`
	Conference Record `json:"conference"`
	Last10     Record `json:"last10"`
	WinStreak  int    `json:"winStreak"`
}

// Momentum derives the momentum score: recent form (last-10 win rate,
// centered at 0) plus a small, capped bonus for an active win streak.
func (p Profile) Momentum() float64 {
	bonus := clamp(float64(p.WinStreak)*0.03, 0, 0.15)
	return 2*(p.Last10.WinPct()-0.5) + bonus
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Value looks up the normalized-model value for a single recognized
// metric. Unrecognized keys (including descriptive fields with no Key
// constant) return (0, false).
func (p Profile) Value(k Key) (float64, bool) {
	switch k {
	case AdjOffensiveEfficiency:
		return p.AdjOffensiveEfficiency, true
	case AdjDefensiveEfficiency:
		return p.AdjDefensiveEfficiency, true
	case AdjTempo:
		return p.AdjTempo, true
	case StrengthOfSchedule:
		return p.StrengthOfSchedule, true
	case EffectiveFGPct:
		return p.EffectiveFGPct, true
	case ThreePointRate:
		return p.ThreePointRate, true
	case ThreePointPct:
		return p.ThreePointPct, true
	case FreeThrowRate:
		return p.FreeThrowRate, true
	case FreeThrowPct:
		return p.FreeThrowPct, true
	case OffensiveReboundPct:
		return p.OffensiveReboundPct, true
	case DefensiveReboundPct:
		return p.DefensiveReboundPct, true
	case TurnoverPct:
		return p.TurnoverPct, true
	case ExperienceRating:
		return p.ExperienceRating, true
	case MomentumScore:
		return p.Momentum(), true
	default:
		return 0, false
	}
}

// SignedDiff returns ((v1-v2)/sigma), negated for the "lower is better"
// metric set, for metric k between two profiles. It returns 0 for a key
// missing from either profile's recognized set (which cannot happen for
// keys drawn from Keys, but keeps the function total).
func SignedDiff(k Key, a, b Profile) float64 {
	va, ok1 := a.Value(k)
	vb, ok2 := b.Value(k)
	if !ok1 || !ok2 {
		return 0
	}
	sigma := Sigma[k]
	if sigma == 0 {
		return 0
	}
	diff := (va - vb) / sigma
	if LowerIsBetter[k] {
		diff = -diff
	}
	return diff
}
