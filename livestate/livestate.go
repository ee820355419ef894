// Package livestate implements the engine's live-state blender: it folds
// a read-only snapshot of in-progress games into a bracket view without
// ever overwriting a result the caller has locked in permanently.
package livestate

import (
	"sort"

	"github.com/ncaaforecast/engine/bracket"
)

// Blender maintains the permanent base bracket and the set of slots whose
// result has been locked in.
type Blender struct {
	base   *bracket.Bracket
	locked map[string]bool
}

// NewBlender wraps a bracket as the permanent base for live blending.
func NewBlender(base *bracket.Bracket) *Blender {
	return &Blender{base: base, locked: make(map[string]bool)}
}

// Result is the outcome of one Blend call: a fresh bracket view plus the
// slots the snapshot made active or completed this pass.
type Result struct {
	Bracket          *bracket.Bracket
	ActiveSlotIDs    []string
	CompletedSlotIDs []string
}

func teamSetKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Blend produces a fresh bracket view from the current base plus a
// snapshot of live games keyed by gameId. Locked slots pass through
// untouched. For every other slot, a live game matching its {team1,team2}
// set drives the slot into an active or completed state.
func (l *Blender) Blend(snapshot map[string]*bracket.LiveGameState) *Result {
	byTeamSet := make(map[string]*bracket.LiveGameState, len(snapshot))
	for _, g := range snapshot {
		byTeamSet[teamSetKey(g.HomeTeamID, g.AwayTeamID)] = g
	}

	view := l.base.Clone()
	result := &Result{Bracket: view}

	for _, slot := range view.Slots() {
		if l.locked[slot.SlotID] {
			continue
		}
		if slot.Team1ID == "" || slot.Team2ID == "" {
			continue
		}
		game, ok := byTeamSet[teamSetKey(slot.Team1ID, slot.Team2ID)]
		if !ok {
			continue
		}
		switch game.Status {
		case bracket.Final:
			winner := finalWinner(game, slot)
			_ = view.AdvanceWinner(slot.SlotID, winner)
			result.CompletedSlotIDs = append(result.CompletedSlotIDs, slot.SlotID)
		case bracket.InProgress, bracket.Halftime:
			slot.LiveGame = game
			result.ActiveSlotIDs = append(result.ActiveSlotIDs, slot.SlotID)
		case bracket.PreGame:
			slot.LiveGame = game
		}
	}

	sort.Strings(result.ActiveSlotIDs)
	sort.Strings(result.CompletedSlotIDs)
	return result
}

func finalWinner(game *bracket.LiveGameState, slot *bracket.Slot) string {
	homeScore, awayScore := game.HomeScore, game.AwayScore
	if homeScore == awayScore {
		// Shouldn't happen for a final college basketball result, but stay
		// total: favor team1 rather than panic.
		return slot.Team1ID
	}
	winnerIsHome := homeScore > awayScore
	if game.HomeTeamID == slot.Team1ID {
		if winnerIsHome {
			return slot.Team1ID
		}
		return slot.Team2ID
	}
	// team1 is the away side.
	if winnerIsHome {
		return slot.Team2ID
	}
	return slot.Team1ID
}

// LockResult permanently records winnerId as the winner of slotId on the
// base bracket, propagates it into the next slot by feeder position, and
// marks slotId locked so future Blend calls never overwrite it.
func (l *Blender) LockResult(slotID, winnerID string) error {
	if err := l.base.AdvanceWinner(slotID, winnerID); err != nil {
		return err
	}
	l.locked[slotID] = true
	return nil
}

// IsLocked reports whether slotID's result has been permanently recorded.
func (l *Blender) IsLocked(slotID string) bool {
	return l.locked[slotID]
}
