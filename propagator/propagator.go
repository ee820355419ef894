// Package propagator is the engine's hot path: the deterministic,
// round-by-round walk of a bracket's ready games for a single Monte
// Carlo run, with per-run state isolation and count-matrix accumulation.
package propagator

import (
	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/modes"
	"github.com/ncaaforecast/engine/probability"
	"github.com/ncaaforecast/engine/rng"
	"github.com/ncaaforecast/engine/scoremodel"
	"github.com/sirupsen/logrus"
)

// DefaultLiveStateGamma is the time-decay exponent the live-state blend
// uses absent an explicit override.
const DefaultLiveStateGamma = 0.7

// TeamIndex is a team roster keyed by id for O(1) lookup during the walk.
type TeamIndex map[string]bracket.Team

// NewTeamIndex builds a TeamIndex from a flat roster.
func NewTeamIndex(teams []bracket.Team) TeamIndex {
	idx := make(TeamIndex, len(teams))
	for _, t := range teams {
		idx[t.ID] = t
	}
	return idx
}

// CountMatrix holds per-team round-reach counts and championship counts
// accumulated across one or more Monte Carlo runs.
type CountMatrix struct {
	RoundReach   map[string]map[bracket.Round]int
	Championship map[string]int
}

// NewCountMatrix returns an empty count matrix.
func NewCountMatrix() *CountMatrix {
	return &CountMatrix{
		RoundReach:   make(map[string]map[bracket.Round]int),
		Championship: make(map[string]int),
	}
}

func (m *CountMatrix) incrementRoundReach(teamID string, round bracket.Round) {
	if m.RoundReach[teamID] == nil {
		m.RoundReach[teamID] = make(map[bracket.Round]int)
	}
	m.RoundReach[teamID][round]++
}

func (m *CountMatrix) incrementChampionship(teamID string) {
	m.Championship[teamID]++
}

// Merge adds other into m elementwise. Merge is associative and
// commutative, so workers may merge in any completion order.
func (m *CountMatrix) Merge(other *CountMatrix) {
	for team, rounds := range other.RoundReach {
		if m.RoundReach[team] == nil {
			m.RoundReach[team] = make(map[bracket.Round]int)
		}
		for round, count := range rounds {
			m.RoundReach[team][round] += count
		}
	}
	for team, count := range other.Championship {
		m.Championship[team] += count
	}
}

// Propagator runs independent Monte Carlo iterations over a shared,
// immutable bracket/team roster/mode: these are shared read-only across
// runs; only the per-run bracket-state copy is mutated.
type Propagator struct {
	base   *bracket.Bracket
	teams  TeamIndex
	mode   modes.Mode
	gamma  float64
	logger *logrus.Logger
}

// New builds a Propagator. A nil logger installs a logrus default logger.
func New(base *bracket.Bracket, teams TeamIndex, mode modes.Mode, logger *logrus.Logger) *Propagator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Propagator{base: base, teams: teams, mode: mode, gamma: DefaultLiveStateGamma, logger: logger}
}

// WithGamma overrides the live-state time-decay exponent (default 0.7).
func (p *Propagator) WithGamma(gamma float64) *Propagator {
	p.gamma = gamma
	return p
}

// RunOnce simulates one complete Monte Carlo iteration seeded
// deterministically, returning the round-reach and championship counts it
// produced.
func (p *Propagator) RunOnce(seed int64) *CountMatrix {
	state := p.base.Clone()
	source := rng.New(seed)
	gamesPlayed := make(map[string]int)
	simState := p.mode.InitializeSimState()
	counts := NewCountMatrix()

	weights := p.mode.Weights()
	varCfg := p.mode.VarianceConfig()

	for _, round := range bracket.WalkOrder {
		for _, slot := range state.Slots() {
			if slot.Round != round {
				continue
			}
			if slot.WinnerID != "" {
				continue
			}
			if slot.Team1ID == "" || slot.Team2ID == "" {
				continue
			}

			team1, ok1 := p.teams[slot.Team1ID]
			team2, ok2 := p.teams[slot.Team2ID]
			if !ok1 || !ok2 {
				p.logger.WithFields(logrus.Fields{
					"slot_id": slot.SlotID,
					"round":   round.String(),
					"team1Id": slot.Team1ID,
					"team2Id": slot.Team2ID,
				}).Warn("unknown team reference; skipping game")
				continue
			}

			counts.incrementRoundReach(team1.ID, round)
			counts.incrementRoundReach(team2.ID, round)

			ctx := modes.Context{
				Round:              round,
				Region:             slot.Region,
				TournamentType:     team1.TournamentType,
				GamesPlayedByTeam1: gamesPlayed[team1.ID],
				GamesPlayedByTeam2: gamesPlayed[team2.ID],
			}

			prob := probability.Base(weights, team1.Metrics, team2.Metrics)
			prob = probability.SeedGap(prob, team1.Seed, team2.Seed, varCfg.SeedGapSensitivity)
			prob = p.mode.Adjust(prob, team1, team2, ctx)
			if slot.LiveGame != nil && slot.LiveGame.Status != bracket.PreGame {
				prob = probability.LiveBlend(prob, slot.LiveGame, team1.ID, p.gamma)
			}
			prob = clampUnit(prob)

			team1Wins := probability.NoisySample(prob, varCfg, round, source)
			winnerID, loserID := team2.ID, team1.ID
			if team1Wins {
				winnerID, loserID = team1.ID, team2.ID
			}

			if err := state.AdvanceWinner(slot.SlotID, winnerID); err != nil {
				p.logger.WithError(err).WithField("slot_id", slot.SlotID).Warn("failed to advance winner")
				continue
			}
			gamesPlayed[team1.ID]++
			gamesPlayed[team2.ID]++
			p.mode.OnGameComplete(winnerID, loserID, round, simState)

			score1, score2, overtimePeriods := scoremodel.SimulateGame(
				team1.Metrics.AdjOffensiveEfficiency, team2.Metrics.AdjDefensiveEfficiency,
				team2.Metrics.AdjOffensiveEfficiency, team1.Metrics.AdjDefensiveEfficiency,
				team1.Metrics.AdjTempo, team2.Metrics.AdjTempo, source)
			p.logger.WithFields(logrus.Fields{
				"slot_id":         slot.SlotID,
				"round":           round.String(),
				"winner_id":       winnerID,
				"team1_score":     score1,
				"team2_score":     score2,
				"overtime_periods": overtimePeriods,
			}).Debug("game outcome")
		}
	}

	if champ, ok := state.SlotByID("championship"); ok && champ.WinnerID != "" {
		counts.incrementChampionship(champ.WinnerID)
	}
	return counts
}

// RunMany executes count runs with seeds baseSeed, baseSeed+1, ...,
// baseSeed+count-1 and merges their counts.
func (p *Propagator) RunMany(baseSeed int64, count int) *CountMatrix {
	merged := NewCountMatrix()
	for i := 0; i < count; i++ {
		merged.Merge(p.RunOnce(baseSeed + int64(i)))
	}
	return merged
}

func clampUnit(p float64) float64 {
	if p < 0.001 {
		return 0.001
	}
	if p > 0.999 {
		return 0.999
	}
	return p
}
