// Package game implements the rules engine: players, the round and phase
// state machine, the plant auction and commodity trading.
//
// The main type is Engine. Its state changes only through an append-only log
// of moves and events, so a game is fully described by its seed and log.
//
// # Basic Usage
//
//	e, err := game.New(3, "seed", game.WithMaxRounds(10))
//	if err != nil {
//	    return err
//	}
//	for _, ac := range e.AvailableCommands {
//	    fmt.Println(ac.Player, ac.Move, ac.Data)
//	}
//	err = e.Move(e.CurrentPlayer(), game.Command{
//	    Name: game.MoveAuction,
//	    Data: game.AuctionData{Plant: 4},
//	})
//
// # Replay
//
// Replay re-executes the moves of a log and applies its events as recorded.
// Moves are checked against the legal move set at the point they were made.
// Snapshot and Restore persist a game together with enough derived state to
// detect a log that no longer reproduces it:
//
//	snap, _ := e.Snapshot()
//	restored, err := game.Restore(snap)
//	if errors.Is(err, game.ErrReplayDiverged) {
//	    // the log and the recorded state disagree
//	}
//
// # Phases
//
// A round runs plantauction, commoditiestrading, construction and
// bureaucracy. Players act in turn order during the auction and bureaucracy,
// and in reverse turn order otherwise. Leaving bureaucracy restocks the
// commodity market and starts the next round.
package game
