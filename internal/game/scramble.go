package game

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// maxShuffleAttempts bounds the reshuffles spent looking for an arrangement
// that differs from the secret word before falling back to a rotation.
const maxShuffleAttempts = 10

// Rand is the randomness a Round needs. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// Picker chooses the secret word among same-length candidates.
// candidates is never empty.
type Picker interface {
	Pick(candidates []string) string
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(candidates []string) string

// Pick calls f(candidates).
func (f PickerFunc) Pick(candidates []string) string { return f(candidates) }

// newRand returns a ChaCha8 generator seeded from crypto/rand.
func newRand() Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// scramble returns a permutation of word that differs from it. Words made of
// a single repeated letter have no such permutation and come back unchanged.
func scramble(word string, rng Rand) string {
	letters := []rune(word)
	for i := 0; i < maxShuffleAttempts; i++ {
		shuffleRunes(letters, rng)
		if string(letters) != word {
			return string(letters)
		}
	}
	return rotate(word)
}

// shuffleRunes is an in-place Fisher-Yates shuffle.
func shuffleRunes(r []rune, rng Rand) {
	for i := len(r) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		r[i], r[j] = r[j], r[i]
	}
}

// rotate moves the first letter to the end.
func rotate(word string) string {
	r := []rune(word)
	if len(r) < 2 {
		return word
	}
	return string(append(r[1:], r[0]))
}
