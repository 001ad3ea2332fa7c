package game

import (
	"cmp"
	"slices"
)

// switchToNextPlayer hands the turn to the next player in the phase's
// direction, or ends the phase when the turn walks off the end.
func (e *Engine) switchToNextPlayer() error {
	if e.replaying {
		return nil
	}
	if e.Phase == PlantAuction {
		return e.advanceAuctionTurn()
	}

	step := 1
	if !e.Phase.Ascending() {
		step = -1
	}
	next := slices.Index(e.TurnOrder, e.turn) + step
	if next < 0 || next >= len(e.TurnOrder) {
		return e.advancePhase()
	}
	return e.emit(CurrentPlayerEvent{Player: e.TurnOrder[next]})
}

// advancePhase leaves the current phase. Leaving bureaucracy completes the
// round: either the game ends or a new round starts with a fresh turn order.
func (e *Engine) advancePhase() error {
	if e.replaying {
		return nil
	}
	if err := e.phaseEnded(e.Phase); err != nil {
		return err
	}

	if e.Phase == Bureaucracy {
		if e.opts.maxRounds > 0 && e.Round >= e.opts.maxRounds {
			return e.emit(GameEndEvent{})
		}
		if err := e.emit(RoundStartEvent{Round: e.Round + 1}); err != nil {
			return err
		}
		if err := e.emit(TurnOrderEvent{TurnOrder: e.nextTurnOrder()}); err != nil {
			return err
		}
	}

	return e.emit(PhaseChangeEvent{Phase: e.Phase.Next()})
}

// phaseStarted picks the opening player of a phase.
func (e *Engine) phaseStarted(phase RoundPhase) error {
	if len(e.TurnOrder) == 0 {
		return nil
	}
	first := e.TurnOrder[0]
	if !phase.Ascending() {
		first = e.TurnOrder[len(e.TurnOrder)-1]
	}
	return e.emit(CurrentPlayerEvent{Player: first})
}

// phaseEnded runs the clean-up of a phase before it is left.
func (e *Engine) phaseEnded(phase RoundPhase) error {
	if phase != Bureaucracy {
		return nil
	}
	refill, err := e.Board.RefillResources(len(e.Players), e.MajorPhase)
	if err != nil {
		return err
	}
	if len(refill) == 0 {
		return nil
	}
	return e.emit(FillResourcesEvent{Resources: refill})
}

func (e *Engine) nextTurnOrder() []PlayerColor {
	order := slices.Clone(e.TurnOrder)
	if e.opts.turnOrder != TurnOrderByScore {
		return order
	}
	slices.SortStableFunc(order, func(a, b PlayerColor) int {
		pa, pb := e.index[a], e.index[b]
		if c := cmp.Compare(len(pb.Cities), len(pa.Cities)); c != 0 {
			return c
		}
		return cmp.Compare(pb.HighestPlant(), pa.HighestPlant())
	})
	return order
}
