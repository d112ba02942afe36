// ABOUTME: Header-aware document chunker with deterministic chunk IDs
// ABOUTME: Oversized sections fall back to a word-count sliding window
package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/harper/docchat-standalone/internal/models"
)

// Default chunking parameters. Window sizes are word counts; the
// minimum length is measured in characters of normalized text.
const (
	DefaultChunkSize     = 500
	DefaultChunkOverlap  = 100
	DefaultMinChunkChars = 50
)

// A header delimiter is a line of 1-3 '#' characters followed by text,
// bounded by newlines on both sides. Captured so the header stays
// attached to the section body that follows it.
var (
	headerDelimRe  = regexp.MustCompile(`\n(#{1,3}\s+.+)\n`)
	headerMarkerRe = regexp.MustCompile(`^#+\s+`)
)

// Chunker splits cleaned documents into header-scoped, size-bounded
// chunks with stable identifiers.
type Chunker struct {
	maxWords int
	overlap  int
	minChars int
}

// NewChunker creates a Chunker. Non-positive parameters fall back to
// the defaults.
func NewChunker(maxWords, overlap, minChars int) *Chunker {
	if maxWords <= 0 {
		maxWords = DefaultChunkSize
	}
	if overlap < 0 || overlap >= maxWords {
		overlap = DefaultChunkOverlap
	}
	if minChars <= 0 {
		minChars = DefaultMinChunkChars
	}
	return &Chunker{maxWords: maxWords, overlap: overlap, minChars: minChars}
}

// Chunk splits a document into an ordered sequence of chunks. Chunk IDs
// hash the document path and running ordinal, so re-chunking an
// unchanged document yields identical IDs.
//
// A document with no header lines becomes at most one chunk regardless
// of length; callers needing size limits on headerless input must
// pre-segment it.
func (c *Chunker) Chunk(content, docPath, title string) []models.DocumentChunk {
	var chunks []models.DocumentChunk

	sections := splitOnHeaders(content)

	if len(sections) == 1 {
		text := CleanMarkdown(content)
		if len(text) > c.minChars {
			chunks = append(chunks, models.DocumentChunk{
				ID:       chunkID(docPath, 0),
				DocPath:  docPath,
				Title:    title,
				Text:     text,
				Metadata: map[string]string{"section": title},
			})
		}
		return chunks
	}

	current := sections[0]

	for i := 1; i < len(sections); i += 2 {
		if i+1 >= len(sections) {
			// Trailing header with nothing after it; keep it for the
			// final pass below.
			current += sections[i]
			continue
		}

		header := strings.TrimSpace(sections[i])
		body := sections[i+1]

		// Un-headered text accumulated before this section becomes its
		// own chunk, labeled with the document title.
		if strings.TrimSpace(current) != "" {
			text := CleanMarkdown(current)
			if len(text) > c.minChars {
				chunks = append(chunks, models.DocumentChunk{
					ID:       chunkID(docPath, len(chunks)),
					DocPath:  docPath,
					Title:    title,
					Text:     text,
					Metadata: map[string]string{"section": title},
				})
			}
		}

		sectionTitle := headerMarkerRe.ReplaceAllString(header, "")
		text := CleanMarkdown(sectionTitle + "\n\n" + body)

		if wordCount(text) > c.maxWords {
			for j, window := range slidingWindow(text, c.maxWords, c.overlap) {
				chunks = append(chunks, models.DocumentChunk{
					ID:       windowChunkID(docPath, len(chunks), j),
					DocPath:  docPath,
					Title:    title + " - " + sectionTitle,
					Text:     window,
					Metadata: map[string]string{"section": sectionTitle},
				})
			}
		} else if len(text) > c.minChars {
			chunks = append(chunks, models.DocumentChunk{
				ID:       chunkID(docPath, len(chunks)),
				DocPath:  docPath,
				Title:    title + " - " + sectionTitle,
				Text:     text,
				Metadata: map[string]string{"section": sectionTitle},
			})
		}

		current = ""
	}

	// Trailing un-headered text after the last section.
	if strings.TrimSpace(current) != "" {
		text := CleanMarkdown(current)
		if len(text) > c.minChars {
			chunks = append(chunks, models.DocumentChunk{
				ID:       chunkID(docPath, len(chunks)),
				DocPath:  docPath,
				Title:    title,
				Text:     text,
				Metadata: map[string]string{"section": "Additional Content"},
			})
		}
	}

	return chunks
}

// splitOnHeaders splits content on header delimiter lines, keeping the
// captured header lines interleaved with the segments around them:
// [leading, header1, body1, header2, body2, ..., trailing].
func splitOnHeaders(content string) []string {
	var sections []string
	rest := content
	for {
		loc := headerDelimRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			sections = append(sections, rest)
			return sections
		}
		sections = append(sections, rest[:loc[0]], rest[loc[2]:loc[3]])
		rest = rest[loc[1]:]
	}
}

// slidingWindow splits text into fixed-size overlapping word windows.
func slidingWindow(text string, size, overlap int) []string {
	words := strings.Fields(text)

	var windows []string
	start := 0
	for start < len(words) {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		windows = append(windows, strings.Join(words[start:end], " "))

		if end >= len(words) {
			break
		}
		start = end - overlap
	}

	return windows
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// chunkID hashes "{docPath}:{ordinal}" into a stable identifier.
func chunkID(docPath string, ordinal int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d", docPath, ordinal)))
	return hex.EncodeToString(sum[:])
}

// windowChunkID adds the sliding-window index to the hash input.
func windowChunkID(docPath string, ordinal, window int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d:%d", docPath, ordinal, window)))
	return hex.EncodeToString(sum[:])
}
