package variants

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
)

// UniqueID returns the canonical id of a card and template set: the hex
// SHA-256 of "{id}." for every card in ascending order followed by "T{id}."
// for every template in ascending order. Input order does not matter.
func UniqueID(cards, templates []int) string {
	h := sha256.New()
	var buf []byte
	for _, id := range sortedCopy(cards) {
		buf = strconv.AppendInt(buf[:0], int64(id), 10)
		buf = append(buf, '.')
		h.Write(buf)
	}
	for _, id := range sortedCopy(templates) {
		buf = append(buf[:0], 'T')
		buf = strconv.AppendInt(buf, int64(id), 10)
		buf = append(buf, '.')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sortedCopy(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
