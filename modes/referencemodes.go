package modes

import (
	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/probability"
)

// referenceModes lists the factories RegisterAll installs into the
// Default registry. Keyed by mode id.
var referenceModes = map[string]Factory{
	"statistical":      newStatisticalMode,
	"wildcard":         newWildcardMode,
	"coach-experience": newCoachExperienceMode,
}

// statisticalMode is the pure, unadjusted baseline: weights and variance
// config straight from probability's defaults, no per-game adjustment.
// This is the mode chalk dominance (favorites winning more often than
// not) is checked against.
type statisticalMode struct{}

func newStatisticalMode() Mode { return statisticalMode{} }

func (statisticalMode) ID() string          { return "statistical" }
func (statisticalMode) DisplayName() string { return "Statistical" }
func (statisticalMode) Description() string {
	return "Pure efficiency-and-four-factors model with no adjustment beyond the base pipeline."
}
func (statisticalMode) Category() Category     { return Research }
func (statisticalMode) Confidence() Confidence { return StatisticallyValidated }

func (statisticalMode) Weights() probability.Weights               { return probability.DefaultWeights() }
func (statisticalMode) VarianceConfig() probability.VarianceConfig { return probability.DefaultVarianceConfig() }

func (statisticalMode) Adjust(baseProb float64, team1, team2 bracket.Team, ctx Context) float64 {
	return baseProb
}

func (statisticalMode) DataSources() []DataSource { return nil }

func (statisticalMode) InitializeSimState() interface{} { return nil }
func (statisticalMode) OnGameComplete(winnerID, loserID string, round bracket.Round, state interface{}) {
}

// wildcardMode is the deliberately silly, whimsical mode: it nudges the
// base probability by a small, deterministic amount derived from mascot
// name length parity. It is still a pure function of its inputs, just not
// one anyone should bet on.
type wildcardMode struct{}

func newWildcardMode() Mode { return wildcardMode{} }

func (wildcardMode) ID() string          { return "wildcard" }
func (wildcardMode) DisplayName() string { return "Wildcard" }
func (wildcardMode) Description() string {
	return "Leans on mascot flavor as a tiebreaker. Not a serious forecast."
}
func (wildcardMode) Category() Category     { return Entertainment }
func (wildcardMode) Confidence() Confidence { return Whimsical }

func (wildcardMode) Weights() probability.Weights               { return probability.DefaultWeights() }
func (wildcardMode) VarianceConfig() probability.VarianceConfig { return probability.DefaultVarianceConfig() }

func (wildcardMode) Adjust(baseProb float64, team1, team2 bracket.Team, ctx Context) float64 {
	bump := 0.02
	if mascotNameLenEven(team1) == mascotNameLenEven(team2) {
		return baseProb
	}
	if mascotNameLenEven(team1) {
		return clamp01(baseProb + bump)
	}
	return clamp01(baseProb - bump)
}

func mascotNameLenEven(t bracket.Team) bool {
	if t.Mascot == nil {
		return false
	}
	return len(t.Mascot.Name)%2 == 0
}

func (wildcardMode) DataSources() []DataSource { return []DataSource{MascotData} }

func (wildcardMode) InitializeSimState() interface{} { return nil }
func (wildcardMode) OnGameComplete(winnerID, loserID string, round bracket.Round, state interface{}) {
}

// coachExperienceMode folds in a coaching-pedigree nudge: teams whose
// head coach has more prior tournament wins get a small deterministic
// boost. Its per-run state is a counter that OnGameComplete increments for
// every completed game of the run (not only upsets); Adjust does not read it.
type coachExperienceMode struct{}

func newCoachExperienceMode() Mode { return coachExperienceMode{} }

func (coachExperienceMode) ID() string          { return "coach-experience" }
func (coachExperienceMode) DisplayName() string { return "Coaching Pedigree" }
func (coachExperienceMode) Description() string {
	return "Blends base efficiency with a small deterministic nudge for tournament-tested coaching staffs."
}
func (coachExperienceMode) Category() Category     { return Hybrid }
func (coachExperienceMode) Confidence() Confidence { return Experimental }

func (coachExperienceMode) Weights() probability.Weights {
	return probability.DefaultWeights()
}
func (coachExperienceMode) VarianceConfig() probability.VarianceConfig {
	v := probability.DefaultVarianceConfig()
	v.SeedGapSensitivity = 0.8
	return v
}

func (coachExperienceMode) Adjust(baseProb float64, team1, team2 bracket.Team, ctx Context) float64 {
	w1, w2 := coachWins(team1), coachWins(team2)
	if w1 == w2 {
		return baseProb
	}
	// 0.005 per extra tournament win, capped at a 0.05 shift either way.
	shift := clamp(float64(w1-w2)*0.005, -0.05, 0.05)
	return clamp01(baseProb + shift)
}

func coachWins(t bracket.Team) int {
	if t.Coaching == nil {
		return 0
	}
	return t.Coaching.TournamentWins
}

func (coachExperienceMode) DataSources() []DataSource {
	return []DataSource{CoachingRatings, HistoricalResults}
}

type coachRunState struct {
	upsetsCalled int
}

func (coachExperienceMode) InitializeSimState() interface{} { return &coachRunState{} }

func (coachExperienceMode) OnGameComplete(winnerID, loserID string, round bracket.Round, state interface{}) {
	// No-op beyond bookkeeping: tracked for potential downstream reporting,
	// but Adjust intentionally stays stateless per round.
	if s, ok := state.(*coachRunState); ok && s != nil {
		s.upsetsCalled++
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp01(x float64) float64 { return clamp(x, 0, 1) }
