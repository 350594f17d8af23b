package document

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var separators = []string{"\n\n", "\n", " ", ""}

// Split breaks text into chunks of at most size runes, preferring paragraph,
// then line, then word boundaries. Consecutive chunks share up to overlap
// runes of trailing context.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return splitRecursive(text, separators, size, overlap)
}

func splitRecursive(text string, seps []string, size, overlap int) []string {
	sep := seps[len(seps)-1]
	rest := seps[len(seps)-1:]
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks, pending []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if runeLen(piece) <= size {
			pending = append(pending, piece)
			continue
		}
		chunks = append(chunks, merge(pending, sep, size, overlap)...)
		pending = nil
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, splitRecursive(piece, rest, size, overlap)...)
		}
	}
	return append(chunks, merge(pending, sep, size, overlap)...)
}

// merge packs pieces into chunks no longer than size, carrying the tail of
// each chunk into the next while it fits within overlap.
func merge(pieces []string, sep string, size, overlap int) []string {
	sepLen := runeLen(sep)
	var chunks, window []string
	total := 0

	for _, p := range pieces {
		n := runeLen(p)
		extra := 0
		if len(window) > 0 {
			extra = sepLen
		}
		if total+n+extra > size && len(window) > 0 {
			chunks = append(chunks, strings.Join(window, sep))
			for total > overlap || (total+n+sepLen > size && total > 0) {
				total -= runeLen(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, p)
		total += n
	}
	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, sep))
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
