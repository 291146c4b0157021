package concordance

import (
	"encoding/hex"
	"strconv"

	"github.com/zeebo/blake3"
)

// hash.go - Content hashing for change detection in snapshot and archive
// storage. The hash covers token forms, keyword indices and the reference
// string; annotation tags are deliberately excluded so re-tagging does not
// change a hit's content identity.

// ContentHash returns the BLAKE3 hash of the hit's textual content.
func (h *Hit) ContentHash() string {
	hasher := blake3.New()
	hasher.Write([]byte(h.Ref))
	hasher.Write([]byte{0})
	for _, tok := range h.Tokens {
		hasher.Write([]byte(tok.Form))
		hasher.Write([]byte{0})
	}
	for _, k := range h.Keywords {
		hasher.Write([]byte(strconv.Itoa(k)))
		hasher.Write([]byte{0})
	}
	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum)
}

// ContentHash returns the BLAKE3 hash of the whole concordance content,
// computed over the per-hit content hashes in order.
func (c *Concordance) ContentHash() string {
	hasher := blake3.New()
	for _, h := range c.Hits {
		hasher.Write([]byte(h.ContentHash()))
	}
	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum)
}
