package align

// chunk.go - block chunking for long token streams
//
// Chunking bounds the quadratic cost of the exact diff pass by splitting a
// long stream into blocks at a sentinel end-of-block token. It is purely a
// throughput measure; block boundaries carry no alignment semantics.

// SplitBlocks splits a token stream into blocks at every token whose form
// equals marker. The marker token closes its block and stays in it. An
// empty marker yields a single block.
func SplitBlocks(toks []IDToken, marker string) [][]IDToken {
	if marker == "" || len(toks) == 0 {
		if len(toks) == 0 {
			return nil
		}
		return [][]IDToken{toks}
	}
	var blocks [][]IDToken
	start := 0
	for i, tok := range toks {
		if tok.Form == marker {
			blocks = append(blocks, toks[start:i+1])
			start = i + 1
		}
	}
	if start < len(toks) {
		blocks = append(blocks, toks[start:])
	}
	return blocks
}

// AlignBlocks chunks both streams at the marker and aligns the blocks
// pairwise, concatenating the per-block correspondences. When the two
// streams chunk into different block counts the block boundaries cannot be
// trusted and the whole streams are aligned in one piece instead.
func (al *Aligner) AlignBlocks(aToks, bToks []IDToken, marker string) ([]Entry, error) {
	aBlocks := SplitBlocks(aToks, marker)
	bBlocks := SplitBlocks(bToks, marker)
	if marker == "" || len(aBlocks) != len(bBlocks) {
		return al.Align(aToks, bToks)
	}
	var entries []Entry
	for i := range aBlocks {
		blockEntries, err := al.Align(aBlocks[i], bBlocks[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, blockEntries...)
	}
	return entries, nil
}
