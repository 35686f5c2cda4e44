// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package chunker splits documents into bounded, overlap-aware text
// spans. Splitting is a pure function: no randomness, no I/O, and
// identical input with identical configuration always produces
// identical chunks.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/corpus/core"
)

// Split cuts a document into chunks of at most maxTokens tokens where
// adjacent chunks share exactly overlapTokens tokens. A token is a
// whitespace-delimited word together with its trailing whitespace, so
// concatenating chunk texts minus each chunk's leading overlap
// reproduces the document text byte for byte. A document shorter than
// maxTokens yields one chunk; a document with no words yields none.
func Split(doc core.Document, maxTokens, overlapTokens int) ([]core.Chunk, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: maxTokens %d", ErrInvalidChunkConfig, maxTokens)
	}
	if overlapTokens < 0 || overlapTokens >= maxTokens {
		return nil, fmt.Errorf("%w: overlapTokens %d with maxTokens %d",
			ErrInvalidChunkConfig, overlapTokens, maxTokens)
	}

	spans := tokenize(doc.Text)
	if len(spans) == 0 {
		return nil, nil
	}

	step := maxTokens - overlapTokens
	chunks := make([]core.Chunk, 0, (len(spans)+step-1)/step)
	for start, ordinal := 0, 0; start < len(spans); start, ordinal = start+step, ordinal+1 {
		end := start + maxTokens
		if end > len(spans) {
			end = len(spans)
		}
		chunks = append(chunks, core.Chunk{
			DocumentID: doc.ID,
			Ordinal:    ordinal,
			Text:       strings.Join(spans[start:end], ""),
			TokenCount: end - start,
		})
		if end == len(spans) {
			break
		}
	}
	return chunks, nil
}

// tokenize splits text into word spans. Each span is a word plus its
// trailing whitespace; leading whitespace belongs to the first span.
// The spans concatenate back to the original text.
func tokenize(text string) []string {
	i := skipRunes(text, 0, unicode.IsSpace)
	if i == len(text) {
		return nil
	}

	var spans []string
	start := 0
	for i < len(text) {
		i = skipRunes(text, i, func(r rune) bool { return !unicode.IsSpace(r) })
		i = skipRunes(text, i, unicode.IsSpace)
		spans = append(spans, text[start:i])
		start = i
	}
	return spans
}

// skipRunes advances from offset past runes matching the predicate.
func skipRunes(text string, offset int, match func(rune) bool) int {
	for offset < len(text) {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if !match(r) {
			return offset
		}
		offset += size
	}
	return offset
}
