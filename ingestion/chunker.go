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


package ingestion

import (
	"strings"
	"unicode"

	"github.com/poiesic/sondera/core"
)

// Chunking defaults, in estimated tokens.
const (
	DefaultTargetTokens  = 1000
	DefaultOverlapTokens = 125
	DefaultMaxTokens     = 1200
)

// Page is one page of source text, as extracted from the original document.
type Page struct {
	Number int
	Text   string
}

// EstimateTokens approximates the token count of a text.
// Four characters per token is close enough for budget decisions.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// Chunker splits paged text into sentence-aligned chunks. Chunks aim for
// the target token budget, never exceed the maximum, and overlap so that a
// sentence near a boundary appears in both neighbors.
type Chunker struct {
	targetTokens  int
	overlapTokens int
	maxTokens     int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker) error

// WithTargetTokens overrides the per-chunk token budget.
func WithTargetTokens(tokens int) ChunkerOption {
	return func(c *Chunker) error {
		if tokens > 0 {
			c.targetTokens = tokens
		}
		return nil
	}
}

// WithOverlapTokens overrides the inter-chunk overlap budget.
func WithOverlapTokens(tokens int) ChunkerOption {
	return func(c *Chunker) error {
		if tokens >= 0 {
			c.overlapTokens = tokens
		}
		return nil
	}
}

// WithMaxTokens overrides the hard per-chunk token cap.
func WithMaxTokens(tokens int) ChunkerOption {
	return func(c *Chunker) error {
		if tokens > 0 {
			c.maxTokens = tokens
		}
		return nil
	}
}

// NewChunker creates a new chunker.
func NewChunker(opts ...ChunkerOption) (*Chunker, error) {
	c := &Chunker{
		targetTokens:  DefaultTargetTokens,
		overlapTokens: DefaultOverlapTokens,
		maxTokens:     DefaultMaxTokens,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.maxTokens < c.targetTokens {
		c.maxTokens = c.targetTokens
	}
	return c, nil
}

// sentence is a chunkable unit annotated with its source page.
type sentence struct {
	text   string
	tokens int
	page   int
}

// ChunkPages splits the pages into chunks. Returned chunks carry content,
// index, page range, token estimate, and content hash; term lists and
// embeddings are filled in by the pipeline.
func (c *Chunker) ChunkPages(pages []Page) []*core.Chunk {
	var sentences []sentence
	for _, page := range pages {
		for _, text := range splitSentences(page.Text) {
			for _, piece := range c.capSentence(text) {
				sentences = append(sentences, sentence{
					text:   piece,
					tokens: EstimateTokens(piece),
					page:   page.Number,
				})
			}
		}
	}
	if len(sentences) == 0 {
		return nil
	}

	var chunks []*core.Chunk
	var current []sentence
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, buildChunk(len(chunks), current))
		current = c.overlapTail(current)
		currentTokens = 0
		for _, s := range current {
			currentTokens += s.tokens
		}
	}

	for _, s := range sentences {
		if currentTokens > 0 && currentTokens+s.tokens > c.maxTokens {
			flush()
		}
		current = append(current, s)
		currentTokens += s.tokens
		if currentTokens >= c.targetTokens {
			flush()
		}
	}

	// Emit the remainder unless it is pure overlap already covered by the
	// previous chunk.
	if len(current) > 0 && (len(chunks) == 0 || !coveredByPrevious(chunks, current)) {
		chunks = append(chunks, buildChunk(len(chunks), current))
	}

	return chunks
}

// capSentence hard-splits a sentence that alone exceeds the token cap.
func (c *Chunker) capSentence(text string) []string {
	maxChars := c.maxTokens * 4
	if len(text) <= maxChars {
		return []string{text}
	}

	var pieces []string
	runes := []rune(text)
	for len(runes) > 0 {
		n := len(runes)
		if n > maxChars {
			n = maxChars
		}
		pieces = append(pieces, strings.TrimSpace(string(runes[:n])))
		runes = runes[n:]
	}
	return pieces
}

// overlapTail returns the trailing sentences to seed the next chunk with,
// bounded by the overlap budget. The full chunk is never carried over.
func (c *Chunker) overlapTail(current []sentence) []sentence {
	if c.overlapTokens <= 0 {
		return nil
	}

	tokens := 0
	start := len(current)
	for start > 1 {
		if tokens+current[start-1].tokens > c.overlapTokens {
			break
		}
		tokens += current[start-1].tokens
		start--
	}
	if start == len(current) {
		return nil
	}
	tail := make([]sentence, len(current)-start)
	copy(tail, current[start:])
	return tail
}

func buildChunk(index int, sentences []sentence) *core.Chunk {
	texts := make([]string, len(sentences))
	pageStart := sentences[0].page
	pageEnd := sentences[0].page
	tokens := 0
	for i, s := range sentences {
		texts[i] = s.text
		tokens += s.tokens
		if s.page < pageStart {
			pageStart = s.page
		}
		if s.page > pageEnd {
			pageEnd = s.page
		}
	}

	content := strings.Join(texts, " ")
	return &core.Chunk{
		ChunkIndex:    index,
		Content:       content,
		ContentHash:   core.Fingerprint(content),
		ContentTokens: tokens,
		PageStart:     pageStart,
		PageEnd:       pageEnd,
	}
}

// coveredByPrevious reports whether every pending sentence already appears
// at the end of the last emitted chunk.
func coveredByPrevious(chunks []*core.Chunk, pending []sentence) bool {
	texts := make([]string, len(pending))
	for i, s := range pending {
		texts[i] = s.text
	}
	return strings.HasSuffix(chunks[len(chunks)-1].Content, strings.Join(texts, " "))
}

// splitSentences breaks text into sentences. A sentence ends after a run of
// terminal punctuation followed by whitespace. Whitespace-only input yields
// nothing.
func splitSentences(text string) []string {
	var sentences []string
	var current []rune

	terminal := false
	flush := func() {
		s := strings.TrimSpace(string(current))
		if s != "" {
			sentences = append(sentences, s)
		}
		current = current[:0]
	}

	for _, r := range text {
		if terminal && unicode.IsSpace(r) {
			flush()
			terminal = false
			continue
		}
		current = append(current, r)
		terminal = r == '.' || r == '!' || r == '?'
	}
	flush()

	return sentences
}
