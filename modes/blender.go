package modes

import (
	"fmt"
	"sort"

	"github.com/ncaaforecast/engine/bracket"
	"github.com/ncaaforecast/engine/probability"
)

type weightedComponent struct {
	mode   Mode
	weight float64 // normalized, sums to 1 across all components
}

// Blender is a composite mode: a weighted blend of two or more component
// modes, with no inheritance chain involved.
type Blender struct {
	id          string
	displayName string
	description string
	components  []weightedComponent
}

// NewBlender builds a composite mode from at least two component modes
// with non-negative weights. Weights are normalized so they sum to 1.
func NewBlender(id, displayName, description string, modes []Mode, weights []float64) (*Blender, error) {
	if len(modes) < 2 {
		return nil, fmt.Errorf("blender %q requires at least 2 component modes, got %d", id, len(modes))
	}
	if len(modes) != len(weights) {
		return nil, fmt.Errorf("blender %q: %d modes but %d weights", id, len(modes), len(weights))
	}
	var total float64
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("blender %q: negative component weight %v", id, w)
		}
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("blender %q: component weights sum to 0", id)
	}
	components := make([]weightedComponent, len(modes))
	for i, m := range modes {
		components[i] = weightedComponent{mode: m, weight: weights[i] / total}
	}
	return &Blender{id: id, displayName: displayName, description: description, components: components}, nil
}

func (b *Blender) ID() string          { return b.id }
func (b *Blender) DisplayName() string { return b.displayName }
func (b *Blender) Description() string { return b.description }

// Category follows the composite rule: any whimsical component makes
// the blend entertainment/experimental; otherwise all-research stays
// research; anything else is hybrid.
func (b *Blender) Category() Category {
	allResearch := true
	anyWhimsical := false
	for _, c := range b.components {
		if c.mode.Confidence() == Whimsical {
			anyWhimsical = true
		}
		if c.mode.Category() != Research {
			allResearch = false
		}
	}
	if anyWhimsical {
		return Entertainment
	}
	if allResearch {
		return Research
	}
	return Hybrid
}

// Confidence is statistically-validated only if every component is;
// otherwise experimental.
func (b *Blender) Confidence() Confidence {
	for _, c := range b.components {
		if c.mode.Confidence() != StatisticallyValidated {
			return Experimental
		}
	}
	return StatisticallyValidated
}

// Weights is the weight-averaged union of component weight maps; a key
// missing from a component is treated as 0 for that component.
func (b *Blender) Weights() probability.Weights {
	out := make(probability.Weights)
	for _, c := range b.components {
		for k, w := range c.mode.Weights() {
			out[k] += w * c.weight
		}
	}
	return out
}

// VarianceConfig weight-averages the scalar fields. Per-round multipliers
// are not blended: the composite's map is always empty.
func (b *Blender) VarianceConfig() probability.VarianceConfig {
	var v probability.VarianceConfig
	for _, c := range b.components {
		cv := c.mode.VarianceConfig()
		v.BaseVariance += cv.BaseVariance * c.weight
		v.UpsetMultiplier += cv.UpsetMultiplier * c.weight
		v.LiveStateWeight += cv.LiveStateWeight * c.weight
		v.SeedGapSensitivity += cv.SeedGapSensitivity * c.weight
	}
	v.RoundVarianceMultipliers = map[bracket.Round]float64{}
	return v
}

// Adjust is the weighted average of every component's Adjust output,
// exact for the two-component case.
func (b *Blender) Adjust(baseProb float64, team1, team2 bracket.Team, ctx Context) float64 {
	var sum float64
	for _, c := range b.components {
		sum += c.mode.Adjust(baseProb, team1, team2, ctx) * c.weight
	}
	return sum
}

// DataSources is the deduplicated union of every component's declared
// data sources, sorted for determinism.
func (b *Blender) DataSources() []DataSource {
	seen := make(map[DataSource]bool)
	for _, c := range b.components {
		for _, ds := range c.mode.DataSources() {
			seen[ds] = true
		}
	}
	out := make([]DataSource, 0, len(seen))
	for ds := range seen {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// blenderState holds each component's own per-run state, indexed in the
// same order as b.components.
type blenderState struct {
	componentStates []interface{}
}

func (b *Blender) InitializeSimState() interface{} {
	states := make([]interface{}, len(b.components))
	any := false
	for i, c := range b.components {
		states[i] = c.mode.InitializeSimState()
		if states[i] != nil {
			any = true
		}
	}
	if !any {
		return nil
	}
	return &blenderState{componentStates: states}
}

func (b *Blender) OnGameComplete(winnerID, loserID string, round bracket.Round, state interface{}) {
	bs, ok := state.(*blenderState)
	if !ok || bs == nil {
		for _, c := range b.components {
			c.mode.OnGameComplete(winnerID, loserID, round, nil)
		}
		return
	}
	for i, c := range b.components {
		c.mode.OnGameComplete(winnerID, loserID, round, bs.componentStates[i])
	}
}
