// internal/words/words.go
//
// Dictionary management and sub-word validation for the anagram game.
//
// Responsibilities:
//   - Hold an immutable, deduplicated dictionary of lowercase words.
//   - Decide whether a candidate is a legal sub-word of a base word
//     (multiset-subset of the base letters + dictionary membership).
//   - Enumerate every legal sub-word of a base word.
//   - Score words by length.
//
// Initialization behavior (Init):
//   1. If WORDS_FILE is set, load one word per line from that file.
//   2. Otherwise fall back to the dictionary embedded in package assets.
//
// Constraints:
//   • Only alphabetic a-z words of length 3..7 are kept.
//   • The validator never normalizes its inputs; callers lowercase first.
//   • Initialization is run once (sync.Once).

package words

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/robalobadob/anagram/assets"
)

const (
	// MinWordLength is the shortest word a player may submit.
	MinWordLength = 3
	// MaxWordLength is the longest secret word the game supports.
	MaxWordLength = 7
)

// Dictionary is a read-only word collection. The zero value is empty.
type Dictionary struct {
	list []string            // load order, deduplicated
	set  map[string]struct{} // membership
}

// New builds a Dictionary from raw words. Words are trimmed, lowercased and
// deduplicated; anything that is not 3..7 ASCII letters is dropped.
func New(raw []string) *Dictionary {
	d := &Dictionary{set: make(map[string]struct{}, len(raw))}
	for _, w := range raw {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) < MinWordLength || len(w) > MaxWordLength || !isAlpha(w) {
			continue
		}
		if _, dup := d.set[w]; dup {
			continue
		}
		d.set[w] = struct{}{}
		d.list = append(d.list, w)
	}
	return d
}

// Contains reports whether w is in the dictionary, verbatim.
func (d *Dictionary) Contains(w string) bool {
	_, ok := d.set[w]
	return ok
}

// Len returns the number of words.
func (d *Dictionary) Len() int { return len(d.list) }

// Words returns a copy of the word list in load order.
func (d *Dictionary) Words() []string {
	return append([]string(nil), d.list...)
}

// OfLength returns every word with exactly n letters.
func (d *Dictionary) OfLength(n int) []string {
	return lo.Filter(d.list, func(w string, _ int) bool { return len(w) == n })
}

// CountByLength returns word counts keyed by length.
func (d *Dictionary) CountByLength() map[int]int {
	return lo.CountValuesBy(d.list, func(w string) int { return len(w) })
}

// IsValidGuess reports whether candidate can be built from base's letters
// (respecting multiplicity) and is a dictionary word.
func (d *Dictionary) IsValidGuess(candidate, base string) bool {
	if !FitsWithin(candidate, base) {
		return false
	}
	return d.Contains(candidate)
}

// AllValidWords returns every dictionary word that fits within base.
func (d *Dictionary) AllValidWords(base string) []string {
	return AllValidWords(base, d.list)
}

// AllValidWords returns the words of list whose letters form a sub-multiset
// of base, in list order. Membership of list is implied by iteration.
func AllValidWords(base string, list []string) []string {
	return lo.Filter(list, func(w string, _ int) bool { return FitsWithin(w, base) })
}

// FitsWithin is the multiset-subset check: every letter of candidate must
// consume a distinct, not yet consumed letter of base. Lengths outside
// [MinWordLength, len(base)] never fit.
func FitsWithin(candidate, base string) bool {
	if len(candidate) < MinWordLength || len(candidate) > len(base) {
		return false
	}
	remaining := make(map[rune]int, len(base))
	for _, r := range base {
		remaining[r]++
	}
	for _, r := range candidate {
		if remaining[r] == 0 {
			return false
		}
		remaining[r]--
	}
	return true
}

// Points scores a word by its length alone.
func Points(word string) int {
	switch len(word) {
	case 6:
		return 2000
	case 5:
		return 1200
	case 4:
		return 400
	case 3:
		return 100
	default:
		return 0
	}
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// --- process-wide default dictionary ---

var (
	initOnce   sync.Once
	defaultDic *Dictionary
	initialErr error
)

// ErrEmptyDictionary is returned by Init when no usable words were loaded.
var ErrEmptyDictionary = errors.New("words: dictionary is empty")

// Init loads the default dictionary exactly once.
func Init() error {
	initOnce.Do(func() {
		var raw []string
		var err error
		if path := os.Getenv("WORDS_FILE"); path != "" {
			raw, err = readWordFile(path)
		} else {
			raw, err = assets.WordList()
		}
		if err != nil {
			initialErr = err
			return
		}
		defaultDic = New(raw)
		if defaultDic.Len() == 0 {
			initialErr = ErrEmptyDictionary
		}
	})
	return initialErr
}

// Default returns the dictionary loaded by Init, or an empty one if Init
// has not succeeded.
func Default() *Dictionary {
	if defaultDic == nil {
		return New(nil)
	}
	return defaultDic
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word file: %w", err)
	}
	defer f.Close()
	return assets.ReadWords(f)
}
