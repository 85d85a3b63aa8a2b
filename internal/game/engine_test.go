package game

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/anagram/internal/words"
)

func fixtureDict() *words.Dictionary {
	return words.New([]string{
		"planet", "painter",
		"plan", "plane", "plant", "plate", "panel", "petal", "pleat", "leapt",
		"pelt", "pale", "peal", "leap", "lane", "lean", "neat", "ante", "tape",
		"ant", "tan", "net", "ten", "pet", "pen", "nap", "pan", "lap", "pal", "ape",
		"pant", "pants", "planets", "xyz",
	})
}

func fixedWord(w string) Option {
	return WithPicker(PickerFunc(func([]string) string { return w }))
}

func newTestRound(t *testing.T, opts ...Option) *Round {
	t.Helper()
	opts = append([]Option{WithManualTick(), fixedWord("planet")}, opts...)
	r := New(fixtureDict(), opts...)
	require.NoError(t, r.StartRound(Config{}))
	return r
}

func sortedLetters(s string) string {
	b := []byte(s)
	slices.Sort(b)
	return string(b)
}

func TestNewRoundIsIdle(t *testing.T) {
	r := New(fixtureDict(), WithManualTick())
	assert.Equal(t, StateIdle, r.State())
	assert.Equal(t, OutcomeIgnored, r.SubmitGuess("plan").Outcome)
	assert.Equal(t, 0, r.Tick())
	assert.Nil(t, r.AllWordsForDisplay())
	assert.NotEmpty(t, r.ID())
	assert.Equal(t, ModeClassic, r.Mode())
	assert.Empty(t, r.Owner())
	assert.Equal(t, "u1", New(fixtureDict(), WithOwner("u1")).Owner())
}

func TestStartRoundResetsState(t *testing.T) {
	r := newTestRound(t)

	snap := r.Snapshot()
	assert.Equal(t, StateRunning, snap.State)
	assert.Equal(t, 6, snap.WordLength)
	assert.Equal(t, RoundSeconds, snap.TimeLeft)
	assert.Equal(t, 0, snap.Score)
	assert.Empty(t, snap.Guessed)
	assert.Empty(t, snap.Answer, "answer hidden while running")
	assert.NotEqual(t, "planet", snap.Letters)
	assert.Equal(t, sortedLetters("planet"), sortedLetters(snap.Letters))
}

func TestStartRoundPicksByLength(t *testing.T) {
	r := New(fixtureDict(), WithManualTick())
	require.NoError(t, r.StartRound(Config{UseSevenLetters: true}))
	assert.Equal(t, 7, r.Snapshot().WordLength)
	assert.Equal(t, sortedLetters("painter"), sortedLetters(r.Letters()))
	assert.True(t, r.Config().UseSevenLetters)

	require.NoError(t, r.StartRound(Config{}))
	assert.Equal(t, sortedLetters("planet"), sortedLetters(r.Letters()))
	assert.False(t, r.Config().UseSevenLetters)
}

func TestStartRoundWithoutCandidates(t *testing.T) {
	r := New(words.New([]string{"cat", "planet"}), WithManualTick())
	err := r.StartRound(Config{UseSevenLetters: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCandidates))
	assert.Contains(t, err.Error(), "7 letters")
	assert.Equal(t, StateIdle, r.State())
}

func TestSubmitGuessOutcomes(t *testing.T) {
	r := newTestRound(t)

	res := r.SubmitGuess("plan")
	assert.Equal(t, Result{Outcome: OutcomeAccepted, Word: "plan", Points: 400, Score: 400}, res)

	res = r.SubmitGuess("  PLANE ")
	assert.Equal(t, OutcomeAccepted, res.Outcome)
	assert.Equal(t, "plane", res.Word)
	assert.Equal(t, 1200, res.Points)
	assert.Equal(t, 1600, res.Score)

	res = r.SubmitGuess("Plan")
	assert.Equal(t, OutcomeAlreadyGuessed, res.Outcome)
	assert.Equal(t, 0, res.Points)
	assert.Equal(t, 1600, r.Score())

	assert.Equal(t, OutcomeRejected, r.SubmitGuess("xyz").Outcome)
	assert.Equal(t, OutcomeRejected, r.SubmitGuess("pants").Outcome, "no s in planet")
	assert.Equal(t, OutcomeRejected, r.SubmitGuess("planets").Outcome, "longer than the secret word")
	assert.Equal(t, OutcomeRejected, r.SubmitGuess("pa").Outcome)
	assert.Equal(t, OutcomeRejected, r.SubmitGuess("tnalp").Outcome, "fits but not a word")
	assert.Equal(t, OutcomeIgnored, r.SubmitGuess("   ").Outcome)
	assert.Equal(t, OutcomeIgnored, r.SubmitGuess("").Outcome)

	res = r.SubmitGuess("planet")
	assert.Equal(t, 2000, res.Points)
	assert.Equal(t, 3600, r.Score())
	assert.Equal(t, []string{"plan", "plane", "planet"}, r.Guessed())
}

func TestScoreEqualsSumOfGuessedPoints(t *testing.T) {
	r := newTestRound(t)
	for _, g := range []string{"ant", "tan", "ant", "petal", "nope", "lean", "lean"} {
		r.SubmitGuess(g)
	}
	sum := 0
	for _, g := range r.Guessed() {
		sum += words.Points(g)
	}
	assert.Equal(t, sum, r.Score())
	assert.Equal(t, 100+100+1200+400, sum)
}

func TestTickEndsRoundAfterSixtySeconds(t *testing.T) {
	r := newTestRound(t)
	r.SubmitGuess("plan")

	for i := 1; i < RoundSeconds; i++ {
		assert.Equal(t, RoundSeconds-i, r.Tick())
		assert.Equal(t, StateRunning, r.State())
	}
	assert.Equal(t, 0, r.Tick())
	assert.Equal(t, StateEnded, r.State())

	// Clamped at zero.
	assert.Equal(t, 0, r.Tick())
	assert.Equal(t, 0, r.TimeLeft())

	assert.Equal(t, OutcomeIgnored, r.SubmitGuess("plane").Outcome)
	assert.Equal(t, 400, r.Score())
	assert.Equal(t, []string{"plan"}, r.Guessed())
	assert.Equal(t, "planet", r.Snapshot().Answer)

	letters := r.Letters()
	assert.Equal(t, letters, r.Shuffle(), "shuffle is frozen once ended")
}

func TestRestartIsFullReset(t *testing.T) {
	r := newTestRound(t)
	r.SubmitGuess("plan")
	for i := 0; i < 10; i++ {
		r.Tick()
	}
	id := r.ID()

	require.NoError(t, r.StartRound(Config{}))
	assert.Equal(t, id, r.ID())
	assert.Equal(t, 0, r.Score())
	assert.Empty(t, r.Guessed())
	assert.Equal(t, RoundSeconds, r.TimeLeft())
	assert.Equal(t, OutcomeAccepted, r.SubmitGuess("plan").Outcome, "history was cleared")

	for i := 0; i < RoundSeconds; i++ {
		r.Tick()
	}
	require.Equal(t, StateEnded, r.State())
	require.NoError(t, r.StartRound(Config{}))
	assert.Equal(t, StateRunning, r.State())
}

func TestAllWordsForDisplayOrdering(t *testing.T) {
	r := newTestRound(t)
	r.SubmitGuess("plane")
	r.SubmitGuess("ant")

	got := r.AllWordsForDisplay()
	require.NotEmpty(t, got)

	var list []string
	for _, dw := range got {
		list = append(list, dw.Word)
		assert.Equal(t, words.Points(dw.Word), dw.Points)
		assert.Equal(t, dw.Word == "plane" || dw.Word == "ant", dw.Guessed, dw.Word)
	}
	assert.Equal(t, []string{
		"planet",
		"leapt", "panel", "petal", "plane", "plant", "plate", "pleat",
		"ante", "lane", "lean", "leap", "neat", "pale", "pant", "peal", "pelt", "plan", "tape",
		"ant", "ape", "lap", "nap", "net", "pal", "pan", "pen", "pet", "tan", "ten",
	}, list)
	assert.NotContains(t, list, "pants")
	assert.NotContains(t, list, "painter")
}

func TestShuffleKeepsLetters(t *testing.T) {
	r := newTestRound(t)
	for i := 0; i < 20; i++ {
		letters := r.Shuffle()
		assert.NotEqual(t, "planet", letters)
		assert.Equal(t, sortedLetters("planet"), sortedLetters(letters))
		assert.Equal(t, letters, r.Letters())
	}
}

func TestEventsAreDelivered(t *testing.T) {
	var kinds []EventKind
	var lastTick int
	r := New(fixtureDict(), WithManualTick(), fixedWord("planet"),
		WithListener(ListenerFunc(func(e Event) {
			kinds = append(kinds, e.Kind)
			if e.Kind == EventTick {
				lastTick = e.Snapshot.TimeLeft
			}
			if e.Kind == EventScore {
				require.NotNil(t, e.Result)
				assert.Equal(t, "plan", e.Result.Word)
				assert.Equal(t, 400, e.Snapshot.Score)
			}
		})))

	require.NoError(t, r.StartRound(Config{}))
	r.SubmitGuess("plan")
	r.SubmitGuess("plan") // duplicate: no event
	r.SubmitGuess("zzz")  // rejected: no event
	for i := 0; i < RoundSeconds; i++ {
		r.Tick()
	}
	r.Tick() // ended: no event

	require.Len(t, kinds, 1+1+RoundSeconds+1)
	assert.Equal(t, EventStarted, kinds[0])
	assert.Equal(t, EventScore, kinds[1])
	assert.Equal(t, EventTick, kinds[2])
	assert.Equal(t, EventEnded, kinds[len(kinds)-1])
	assert.Equal(t, 0, lastTick)
}

type seen struct {
	kind EventKind
	play int
}

func TestPlayNumberAdvancesOnRestart(t *testing.T) {
	r := New(fixtureDict(), WithManualTick(), fixedWord("planet"))
	assert.Equal(t, 0, r.Snapshot().Play)
	require.NoError(t, r.StartRound(Config{}))
	assert.Equal(t, 1, r.Snapshot().Play)
	require.NoError(t, r.StartRound(Config{}))
	assert.Equal(t, 2, r.Snapshot().Play)
}

func TestEventsQueuedDuringDrainKeepOrder(t *testing.T) {
	var got []seen
	r := newTestRound(t, WithListener(ListenerFunc(func(e Event) {
		got = append(got, seen{e.Kind, e.Snapshot.Play})
	})))
	got = nil

	// Another goroutine is mid-delivery: the countdown ends play 1 and a
	// restart begins play 2 before anything is handed to listeners.
	r.mu.Lock()
	r.draining = true
	r.timeLeft = 1
	r.mu.Unlock()
	r.Tick()
	require.NoError(t, r.StartRound(Config{}))
	assert.Empty(t, got)

	r.mu.Lock()
	r.draining = false
	r.mu.Unlock()
	r.flush()

	assert.Equal(t, []seen{
		{EventTick, 1},
		{EventEnded, 1},
		{EventStarted, 2},
	}, got)
}

func TestListenerMayRestartRound(t *testing.T) {
	var got []seen
	var r *Round
	r = New(fixtureDict(), WithManualTick(), fixedWord("planet"),
		WithListener(ListenerFunc(func(e Event) {
			got = append(got, seen{e.Kind, e.Snapshot.Play})
			if e.Kind == EventEnded && e.Snapshot.Play == 1 {
				require.NoError(t, r.StartRound(Config{}))
			}
		})))
	require.NoError(t, r.StartRound(Config{}))
	for r.Snapshot().Play == 1 {
		r.Tick()
	}

	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, []seen{{EventEnded, 1}, {EventStarted, 2}}, got[len(got)-2:])
	assert.Equal(t, StateRunning, r.State())
	assert.Equal(t, RoundSeconds, r.TimeLeft())
}

func TestSubscribeCancel(t *testing.T) {
	r := newTestRound(t)
	n := 0
	cancel := r.Subscribe(ListenerFunc(func(Event) { n++ }))
	r.Tick()
	cancel()
	r.Tick()
	assert.Equal(t, 1, n)
}
