// Package daily derives the shared word of the day.
//
// Every player who starts a daily round on the same UTC date and with the
// same word length gets the same secret word: the index into the sorted
// candidate list is HMAC(salt, YYYY-MM-DD) modulo its length.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"slices"
	"time"

	"github.com/robalobadob/anagram/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WordIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func WordIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Picker returns a game.Picker choosing the word of the day for date.
// Candidates are sorted first so the choice does not depend on load order.
func Picker(date time.Time, salt string) game.Picker {
	return game.PickerFunc(func(candidates []string) string {
		sorted := slices.Clone(candidates)
		slices.Sort(sorted)
		return sorted[WordIndex(date, salt, len(sorted))]
	})
}
