// Package forecast is the engine's public entry point: it wires the
// live-state blender, bracket propagator, parallel driver, and aggregator
// into a single pure function (bracket, teams, mode, simulation count,
// RNG seed, optional live-state snapshot) -> TournamentSimulationResult.
package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ncaaforecast/engine/aggregate"
	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/driver"
	"github.com/ncaaforecast/engine/livestate"
	"github.com/ncaaforecast/engine/modes"
	"github.com/ncaaforecast/engine/propagator"
	"github.com/sirupsen/logrus"
)

// TournamentSimulationResult is the engine's complete output.
type TournamentSimulationResult struct {
	RunID                 string                           `json:"runId"`
	ModeID                string                           `json:"modeId"`
	ModeName              string                           `json:"modeName"`
	TournamentType        bracket.TournamentType           `json:"tournamentType"`
	Timestamp             time.Time                        `json:"timestamp"`
	SimulationCount       int                              `json:"simulationCount"`
	PerTeam               map[string]*aggregate.TeamResult `json:"perTeam"`
	MostLikelyFinalFour   []string                         `json:"mostLikelyFinalFour"`
	MostLikelyChampion    string                           `json:"mostLikelyChampion"`
	BiggestProjectedUpset *aggregate.UpsetFinding          `json:"biggestProjectedUpset,omitempty"`
	VolatilityIndex       float64                          `json:"volatilityIndex"`
}

// Request bundles every input to a single Simulate call. LiveSnapshot and
// Logger are optional; LiveSnapshot nil skips the live-state blending
// pre-pass entirely (equivalent to every slot being pre-game). Workers <=0
// resolves to driver.Workers(). BaseSeed is the Monte Carlo seed stream's
// origin: run i is seeded baseSeed+i.
type Request struct {
	Bracket         *bracket.Bracket
	Teams           []bracket.Team
	Mode            modes.Mode
	SimulationCount int
	BaseSeed        int64
	Workers         int
	LiveSnapshot    map[string]*bracket.LiveGameState
	Logger          *logrus.Logger
}

// Simulate runs Request.SimulationCount Monte Carlo iterations over the
// (possibly live-blended) bracket and returns the aggregated forecast.
// The live-state blend, if any, is applied once before dispatch; the
// blended bracket is then immutable for the duration of the parallel
// region.
func Simulate(ctx context.Context, req Request) (*TournamentSimulationResult, error) {
	logger := req.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	workingBracket := req.Bracket
	if req.LiveSnapshot != nil {
		blender := livestate.NewBlender(req.Bracket)
		result := blender.Blend(req.LiveSnapshot)
		workingBracket = result.Bracket
	}

	workers := req.Workers
	if workers <= 0 {
		workers = driver.Workers()
	}

	teamIndex := propagator.NewTeamIndex(req.Teams)
	prop := propagator.New(workingBracket, teamIndex, req.Mode, logger)

	counts, err := driver.Run(ctx, prop, req.BaseSeed, req.SimulationCount, workers, logger)
	if err != nil {
		return nil, err
	}

	agg := aggregate.Aggregate(counts, req.Teams, req.SimulationCount)

	tournamentType := bracket.Mens
	if len(req.Teams) > 0 {
		tournamentType = req.Teams[0].TournamentType
	}

	return &TournamentSimulationResult{
		RunID:                 uuid.NewString(),
		ModeID:                req.Mode.ID(),
		ModeName:              req.Mode.DisplayName(),
		TournamentType:        tournamentType,
		Timestamp:             time.Now(),
		SimulationCount:       req.SimulationCount,
		PerTeam:               agg.PerTeam,
		MostLikelyFinalFour:   agg.MostLikelyFinalFour,
		MostLikelyChampion:    agg.MostLikelyChampion,
		BiggestProjectedUpset: agg.BiggestProjectedUpset,
		VolatilityIndex:       agg.VolatilityIndex,
	}, nil
}
