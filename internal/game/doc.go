// Package game runs rounds of rock, paper, scissors against the computer.
//
// A Controller moves through Idle, Initializing, Countdown, Capturing,
// Revealing and Result. Start loads the model and opens the camera, then
// begins the first round; Restart abandons the current round and begins
// another. While the camera is open a PredictionLoop classifies every new
// frame and the latest labels are forwarded to the Presenter during the
// countdown and after the result.
//
// # Basic Usage
//
//	ctrl := game.NewController(source, classifier,
//		game.WithPresenter(p),
//		game.WithLogger(logger),
//	)
//	go ctrl.Run(ctx)
//	if err := ctrl.Start(ctx); err != nil {
//		// the camera or model failed; ctrl is back in Idle
//	}
//
// # Deterministic Testing
//
// WithClock accepts a quartz mock clock so countdown and reveal timers can be
// advanced by hand, and WithOpponent or WithRand fix the computer's moves.
package game
