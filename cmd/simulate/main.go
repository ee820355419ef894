// Command simulate is the embedding runtime's demo: it resolves
// configuration from flags and environment variables (SIMULATIONS_PER_UPDATE,
// WORKER_THREADS, MODE_ID, RNG_SEED), builds a synthetic 64-team bracket,
// runs the engine, and prints the forecast. LIVE_STATE_GAMMA is given a
// default but is not read: the demo passes no live snapshot, and the
// engine uses propagator.DefaultLiveStateGamma. Team-data loading, HTTP
// surfaces, and persistence are out of the core's scope and are not
// reproduced here beyond this one flat demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	forecast "github.com/ncaaforecast/engine"
	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/metrics"
	"github.com/ncaaforecast/engine/modes"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func main() {
	var modeID string
	var seed int64
	flag.StringVar(&modeID, "mode", "", "mode id to simulate with (overrides MODE_ID)")
	flag.Int64Var(&seed, "seed", 0, "base RNG seed (overrides RNG_SEED)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetDefault("SIMULATIONS_PER_UPDATE", 2000)
	v.SetDefault("WORKER_THREADS", 0)
	v.SetDefault("LIVE_STATE_GAMMA", 0.7)
	v.SetDefault("MODE_ID", "statistical")
	v.SetDefault("RNG_SEED", int64(1))

	if modeID == "" {
		modeID = v.GetString("MODE_ID")
	}
	if seed == 0 {
		seed = v.GetInt64("RNG_SEED")
	}
	simCount := v.GetInt("SIMULATIONS_PER_UPDATE")
	workers := v.GetInt("WORKER_THREADS")

	logger := logrus.StandardLogger()

	if err := modes.RegisterAll(); err != nil {
		logger.WithError(err).Fatal("mode registration failed")
	}
	modes.Default.Freeze()

	mode, err := modes.Default.Lookup(modeID)
	if err != nil {
		logger.WithError(err).Fatal("unknown mode")
	}

	teams := syntheticTeams()
	b, err := bracket.NewBracketFromTeams(teams)
	if err != nil {
		logger.WithError(err).Fatal("invalid bracket")
	}

	result, err := forecast.Simulate(context.Background(), forecast.Request{
		Bracket:         b,
		Teams:           teams,
		Mode:            mode,
		SimulationCount: simCount,
		BaseSeed:        seed,
		Workers:         workers,
		Logger:          logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("simulation failed")
	}

	fmt.Printf("mode: %s (%s)\n", result.ModeName, result.ModeID)
	fmt.Printf("simulations: %d\n", result.SimulationCount)
	fmt.Printf("most likely champion: %s\n", result.MostLikelyChampion)
	fmt.Printf("most likely final four: %v\n", result.MostLikelyFinalFour)
	fmt.Printf("volatility index: %.4f\n", result.VolatilityIndex)
	if u := result.BiggestProjectedUpset; u != nil {
		fmt.Printf("biggest projected upset: %s reaching %s (surprise %.4f)\n", u.TeamID, u.Round, u.Surprise)
	}
}

// syntheticTeams builds a plausible 64-team bracket where seed determines
// strength, standing in for the external team-data loader.
func syntheticTeams() []bracket.Team {
	regions := []string{bracket.East, bracket.West, bracket.South, bracket.Midwest}
	teams := make([]bracket.Team, 0, 64)
	for _, region := range regions {
		for seed := 1; seed <= 16; seed++ {
			quality := float64(17-seed) / 16.0
			teams = append(teams, bracket.Team{
				ID:             fmt.Sprintf("%s-%02d", region, seed),
				Name:           fmt.Sprintf("%s Seed %d", region, seed),
				ShortName:      fmt.Sprintf("%.3s%02d", region, seed),
				Seed:           seed,
				Region:         region,
				TournamentType: bracket.Mens,
				Metrics: metrics.Profile{
					AdjOffensiveEfficiency: 95 + 20*quality,
					AdjDefensiveEfficiency: 108 - 20*quality,
					AdjTempo:               68,
					StrengthOfSchedule:     -6 + 12*quality,
					EffectiveFGPct:         0.48 + 0.06*quality,
					ThreePointRate:         0.36,
					ThreePointPct:          0.33 + 0.03*quality,
					FreeThrowRate:          0.3,
					FreeThrowPct:           0.7 + 0.05*quality,
					OffensiveReboundPct:    0.28,
					DefensiveReboundPct:    0.7,
					TurnoverPct:            0.18 - 0.04*quality,
					ExperienceRating:       2.0 + 1.0*quality,
				},
			})
		}
	}
	return teams
}
