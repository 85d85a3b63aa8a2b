// internal/game/types.go
//
// Core type definitions for the anagram round engine.
// Defines:
//   - State: round lifecycle (idle/running/ended).
//   - Outcome: classification of a submitted guess.
//   - Config, Result, Snapshot, DisplayWord: values exchanged with hosts.

package game

import (
	"errors"
	"time"
)

const (
	// RoundSeconds is the time budget of every round.
	RoundSeconds = 60
	// TickInterval is how often the countdown decrements.
	TickInterval = time.Second

	shortWordLength = 6
	longWordLength  = 7
)

// ErrNoCandidates is returned by StartRound when the dictionary has no word
// of the requested length.
var ErrNoCandidates = errors.New("game: no candidate words of requested length")

// State is the lifecycle stage of a round.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateEnded   State = "ended"
)

// Mode tells hosts how the secret word was selected.
type Mode string

const (
	ModeClassic Mode = "classic"
	ModeDaily   Mode = "daily"
)

// Outcome classifies a guess submission. Rejections are outcomes, not errors.
type Outcome string

const (
	OutcomeAccepted       Outcome = "accepted"
	OutcomeAlreadyGuessed Outcome = "already_guessed"
	OutcomeRejected       Outcome = "rejected_invalid"
	// OutcomeIgnored covers empty input and submissions outside a running round.
	OutcomeIgnored Outcome = "ignored"
)

// Config selects the secret word length for a round.
type Config struct {
	UseSevenLetters bool `json:"sevenLetters"`
}

// WordLength returns 7 or 6.
func (c Config) WordLength() int {
	if c.UseSevenLetters {
		return longWordLength
	}
	return shortWordLength
}

// Result reports what happened to one submitted guess.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Word    string  `json:"word"`   // normalized candidate
	Points  int     `json:"points"` // awarded by this guess (accepted only)
	Score   int     `json:"score"`  // round score after the guess
}

// Snapshot is a read-only copy of a round's observable state.
type Snapshot struct {
	ID         string   `json:"id"`
	Mode       Mode     `json:"mode"`
	State      State    `json:"state"`
	WordLength int      `json:"wordLength"`
	Letters    string   `json:"letters"`
	Score      int      `json:"score"`
	TimeLeft   int      `json:"timeLeft"`
	Guessed    []string `json:"guessed"`
	Answer     string   `json:"answer,omitempty"` // only once ended
	Play       int      `json:"play"`             // 1 for the first StartRound, +1 per restart
}

// DisplayWord is one entry of the end-of-round review.
type DisplayWord struct {
	Word    string `json:"word"`
	Points  int    `json:"points"`
	Guessed bool   `json:"guessed"`
}
