// Package segment splits source text into bounded, order-indexed chunks of words.
package segment

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxWords is the default upper bound on words per chunk.
// Chunks of this size stay well under the output limits of the hosted models.
const DefaultMaxWords = 100

// ErrInvalidArgument is returned when the caller passes a malformed argument,
// such as a non-positive chunk size.
var ErrInvalidArgument = errors.New("invalid argument")

// Chunk is a contiguous run of words from the source text.
// Index is the chunk's position in the source and is used to put translated
// results back in order regardless of when they complete.
type Chunk struct {
	Index int
	Words []string
}

// Text returns the chunk's words joined by single spaces.
func (c Chunk) Text() string {
	return strings.Join(c.Words, " ")
}

// Split splits text on runs of whitespace and groups consecutive words into
// chunks of at most maxWords words each. The last chunk may be shorter.
//
// Empty or whitespace-only text yields no chunks. Rejoining the chunks collapses
// the source whitespace to single spaces; words are never dropped or duplicated.
func Split(text string, maxWords int) ([]Chunk, error) {
	if maxWords <= 0 {
		return nil, fmt.Errorf("%w: max words must be positive, got %d", ErrInvalidArgument, maxWords)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	chunks := make([]Chunk, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Words: words[start:end:end],
		})
	}

	return chunks, nil
}

// Words flattens chunks back into a single word sequence in index order.
func Words(chunks []Chunk) []string {
	total := 0
	for _, c := range chunks {
		total += len(c.Words)
	}

	words := make([]string, 0, total)
	for _, c := range chunks {
		words = append(words, c.Words...)
	}
	return words
}
