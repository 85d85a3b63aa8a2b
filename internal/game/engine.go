// internal/game/engine.go
//
// Round engine for a single anagram round.
// Responsibilities:
//   - Pick the secret word (6 or 7 letters) and scramble its letters.
//   - Run the 60 second countdown and end the round at zero.
//   - Validate and score guesses through the words package.
//   - Produce the end-of-round review of every findable word.
//   - Notify subscribers of start/tick/score/end.
//
// Notes:
//   - All state lives on the Round; there are no package-level globals.
//   - At most one countdown goroutine decrements a round. StartRound cancels
//     the previous one, and a generation counter stops a late tick from a
//     replaced countdown touching the new round.
//   - Guess handling is total: every input string maps to an Outcome.
//   - Events are queued under the lock and delivered outside it by a single
//     drainer, so listeners see them in the order the state changed, even
//     when a restart races the countdown.

package game

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/robalobadob/anagram/internal/words"
)

// Round owns one player's round state and its countdown.
type Round struct {
	id     string
	mode   Mode
	owner  string
	dict   *words.Dictionary
	rng    Rand
	picker Picker
	clock  clock.Clock
	manual bool // host calls Tick itself
	log    zerolog.Logger

	mu       sync.Mutex
	state    State
	cfg      Config
	secret   string
	letters  string
	guessed  map[string]struct{}
	score    int
	timeLeft int
	gen      uint64             // bumped by every StartRound
	cancel   context.CancelFunc // stops the active countdown
	subs     []subscription
	nextSub  int
	outbox   []Event
	draining bool
}

// Option configures a Round at construction.
type Option func(*Round)

// WithClock sets the clock driving the countdown (tests pass clock.NewMock()).
func WithClock(c clock.Clock) Option { return func(r *Round) { r.clock = c } }

// WithRand sets the randomness used for picking and scrambling.
func WithRand(rng Rand) Option { return func(r *Round) { r.rng = rng } }

// WithPicker overrides uniform random selection of the secret word.
func WithPicker(p Picker) Option { return func(r *Round) { r.picker = p } }

// WithManualTick disables the internal countdown; the host calls Tick.
func WithManualTick() Option { return func(r *Round) { r.manual = true } }

// WithListener subscribes l before the first round starts.
func WithListener(l Listener) Option {
	return func(r *Round) {
		r.nextSub++
		r.subs = append(r.subs, subscription{id: r.nextSub, l: l})
	}
}

// WithID sets the round identifier (default: random uuid).
func WithID(id string) Option { return func(r *Round) { r.id = id } }

// WithMode tags the round with how its word is chosen.
func WithMode(m Mode) Option { return func(r *Round) { r.mode = m } }

// WithOwner tags the round with the key of the player it belongs to.
func WithOwner(key string) Option { return func(r *Round) { r.owner = key } }

// WithLogger sets the logger for lifecycle messages.
func WithLogger(l zerolog.Logger) Option { return func(r *Round) { r.log = l } }

// New constructs an idle round over dict.
func New(dict *words.Dictionary, opts ...Option) *Round {
	r := &Round{
		id:      uuid.NewString(),
		mode:    ModeClassic,
		dict:    dict,
		clock:   clock.New(),
		log:     zerolog.Nop(),
		state:   StateIdle,
		guessed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = newRand()
	}
	return r
}

// StartRound resets the round with a fresh secret word and starts the
// countdown. Any countdown still running for this round is replaced.
// If the dictionary has no word of the requested length the round is left
// untouched and ErrNoCandidates is returned.
func (r *Round) StartRound(cfg Config) error {
	n := cfg.WordLength()
	candidates := r.dict.OfLength(n)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %d letters", ErrNoCandidates, n)
	}

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	gen := r.gen
	r.cfg = cfg
	r.secret = r.pick(candidates)
	r.letters = scramble(r.secret, r.rng)
	r.guessed = make(map[string]struct{})
	r.score = 0
	r.timeLeft = RoundSeconds
	r.state = StateRunning

	var ctx context.Context
	if !r.manual {
		ctx, r.cancel = context.WithCancel(context.Background())
	}
	r.emitLocked(EventStarted, nil)
	r.mu.Unlock()

	r.log.Debug().Str("roundId", r.id).Str("mode", string(r.mode)).Uint64("play", gen).Int("length", n).Msg("round started")
	r.flush()
	if ctx != nil {
		go r.countdown(ctx, gen)
	}
	return nil
}

// pick chooses the secret word. Caller holds r.mu.
func (r *Round) pick(candidates []string) string {
	if r.picker != nil {
		return r.picker.Pick(candidates)
	}
	return candidates[r.rng.IntN(len(candidates))]
}

// SubmitGuess classifies and applies one guess. The raw input is trimmed and
// lowercased first. Only accepted guesses change the score.
func (r *Round) SubmitGuess(raw string) Result {
	guess := strings.ToLower(strings.TrimSpace(raw))

	r.mu.Lock()
	res := Result{Word: guess, Score: r.score}
	switch {
	case r.state != StateRunning, guess == "":
		res.Outcome = OutcomeIgnored
	case r.isGuessedLocked(guess):
		res.Outcome = OutcomeAlreadyGuessed
	case !r.dict.IsValidGuess(guess, r.secret):
		res.Outcome = OutcomeRejected
	default:
		res.Outcome = OutcomeAccepted
		res.Points = words.Points(guess)
		r.guessed[guess] = struct{}{}
		r.score += res.Points
		res.Score = r.score
	}
	if res.Outcome != OutcomeAccepted {
		r.mu.Unlock()
		return res
	}
	r.emitLocked(EventScore, &res)
	r.mu.Unlock()

	r.flush()
	return res
}

func (r *Round) isGuessedLocked(w string) bool {
	_, ok := r.guessed[w]
	return ok
}

// Tick advances the countdown by one second and returns the time left.
// It is a no-op unless the round is running. Hosts that built the round
// with WithManualTick call it once per elapsed second.
func (r *Round) Tick() int {
	left, _ := r.tick(0)
	return left
}

// countdown ticks the round once per TickInterval until it ends or ctx is
// cancelled.
func (r *Round) countdown(ctx context.Context, gen uint64) {
	t := r.clock.Ticker(TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, running := r.tick(gen); !running {
				return
			}
		}
	}
}

// tick applies one countdown step. A non-zero gen restricts the step to
// that generation of the round.
func (r *Round) tick(gen uint64) (left int, running bool) {
	r.mu.Lock()
	if r.state != StateRunning || (gen != 0 && gen != r.gen) {
		left = r.timeLeft
		r.mu.Unlock()
		return left, false
	}
	if r.timeLeft > 0 {
		r.timeLeft--
	}
	r.emitLocked(EventTick, nil)
	if r.timeLeft == 0 {
		r.state = StateEnded
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
		r.emitLocked(EventEnded, nil)
	}
	left, running = r.timeLeft, r.state == StateRunning
	r.mu.Unlock()

	if !running {
		r.log.Debug().Str("roundId", r.id).Msg("round ended")
	}
	r.flush()
	return left, running
}

// Shuffle rearranges the displayed letters while the round is running and
// returns them. The arrangement never spells the secret word.
func (r *Round) Shuffle() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning {
		r.letters = scramble(r.secret, r.rng)
	}
	return r.letters
}

// AllWordsForDisplay lists every dictionary word that fits the secret word,
// longest first and alphabetical within a length, each with its points and
// whether the player found it. Intended for the end-of-round review.
func (r *Round) AllWordsForDisplay() []DisplayWord {
	r.mu.Lock()
	secret := r.secret
	guessed := maps.Clone(r.guessed)
	r.mu.Unlock()
	if secret == "" {
		return nil
	}

	found := r.dict.AllValidWords(secret)
	slices.SortFunc(found, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return lo.Map(found, func(w string, _ int) DisplayWord {
		_, ok := guessed[w]
		return DisplayWord{Word: w, Points: words.Points(w), Guessed: ok}
	})
}

// Subscribe registers l for future events and returns a function that
// removes it.
func (r *Round) Subscribe(l Listener) (cancel func()) {
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.subs = append(r.subs, subscription{id: id, l: l})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.id == id })
	}
}

// ------------------------------ accessors ----------------------------------

// ID returns the round identifier.
func (r *Round) ID() string { return r.id }

// Mode returns how the secret word is chosen.
func (r *Round) Mode() Mode { return r.mode }

// Owner returns the key passed to WithOwner, or "".
func (r *Round) Owner() string { return r.owner }

// State returns the lifecycle stage.
func (r *Round) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Config returns the configuration of the current round.
func (r *Round) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Score returns the current score.
func (r *Round) Score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score
}

// TimeLeft returns the seconds remaining.
func (r *Round) TimeLeft() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeLeft
}

// Letters returns the scrambled letters as displayed.
func (r *Round) Letters() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.letters
}

// Guessed returns the accepted guesses in alphabetical order.
func (r *Round) Guessed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.guessedLocked()
}

// Snapshot returns a copy of the observable state. The answer is included
// only once the round has ended.
func (r *Round) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Round) guessedLocked() []string {
	out := lo.Keys(r.guessed)
	slices.Sort(out)
	return out
}

func (r *Round) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:         r.id,
		Mode:       r.mode,
		State:      r.state,
		WordLength: len(r.secret),
		Letters:    r.letters,
		Score:      r.score,
		TimeLeft:   r.timeLeft,
		Guessed:    r.guessedLocked(),
		Play:       int(r.gen),
	}
	if r.state == StateEnded {
		s.Answer = r.secret
	}
	return s
}

// emitLocked queues an event carrying the current state.
func (r *Round) emitLocked(kind EventKind, res *Result) {
	r.outbox = append(r.outbox, Event{Kind: kind, Snapshot: r.snapshotLocked(), Result: res})
}

// flush delivers queued events. Only one goroutine drains at a time; a
// caller that finds a drain in progress leaves its events to that drainer,
// which keeps going until the queue is empty. A listener that acts on the
// round only queues more events and never deadlocks.
func (r *Round) flush() {
	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		return
	}
	r.draining = true
	for len(r.outbox) > 0 {
		batch := r.outbox
		r.outbox = nil
		subs := r.listenersLocked()
		r.mu.Unlock()
		for _, e := range batch {
			notify(subs, e)
		}
		r.mu.Lock()
	}
	r.draining = false
	r.mu.Unlock()
}

func (r *Round) listenersLocked() []Listener {
	return lo.Map(r.subs, func(s subscription, _ int) Listener { return s.l })
}

func notify(ls []Listener, e Event) {
	for _, l := range ls {
		l.OnEvent(e)
	}
}
