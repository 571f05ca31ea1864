// Package text splits section text into retrievable chunks. Token counts are
// approximated at 4 characters per token so no tokenizer dependency is
// needed; the approximation only affects window sizes, not correctness.
package text

import (
	"strings"

	"edugen/internal/pdf"
	"edugen/internal/toc"
)

const charsPerToken = 4

// boundaryLookback is how far back from a window edge the chunker searches
// for a sentence boundary before giving up and cutting mid-sentence.
const boundaryLookback = 200

type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeTable ChunkType = "table"
)

// UnknownSection labels table chunks whose page falls outside every detected
// section range.
const UnknownSection = "Unknown"

// Chunk is the smallest retrievable unit, tagged with its provenance.
// Chunks are immutable once created.
type Chunk struct {
	Text         string
	FileName     string
	Type         ChunkType
	SectionTitle string
	PageStart    int
	PageEnd      int
}

// SlidingWindow splits text into overlapping chunks of at most maxTokens,
// advancing by maxTokens-overlapTokens each step. Before each cut it searches
// backward for the nearest sentence end so chunks avoid splitting
// mid-sentence. Results are trimmed; empty results are dropped.
func SlidingWindow(text string, maxTokens, overlapTokens int) []string {
	maxChars := maxTokens * charsPerToken
	overlapChars := overlapTokens * charsPerToken

	if len(text) <= maxChars {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + maxChars

		if end < len(text) {
			searchStart := max(start, end-boundaryLookback)
			// A cut so early that the next window would not advance past
			// start is ignored; better to split mid-sentence than stall.
			if cut := sentenceEnd(text, searchStart, end); cut > start && cut+1-overlapChars > start {
				end = cut + 1
			}
		}

		sliceEnd := min(end, len(text))
		if chunk := strings.TrimSpace(text[start:sliceEnd]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// A boundary cut early in the lookback window can pull end below
		// start+overlapChars; the max keeps the window advancing and in range.
		start = max(start+1, end-overlapChars)
	}

	return chunks
}

// sentenceEnd returns the last sentence-ending position in text[from:to],
// or -1. A sentence end is ".", "!" or "?" followed by a space, or a blank
// line.
func sentenceEnd(text string, from, to int) int {
	window := text[from:to]
	best := -1
	for _, marker := range []string{". ", "! ", "? ", "\n\n"} {
		if idx := strings.LastIndex(window, marker); idx > best {
			best = idx
		}
	}
	if best < 0 {
		return -1
	}
	return from + best
}

// RenderTable renders a table as pipe-delimited rows for embedding.
func RenderTable(rows [][]string) string {
	var lines []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

// BuildChunks produces the full chunk sequence for one ingestion: windowed
// text chunks per section, then one chunk per table. The order is
// deterministic (section order, then table order) for reproducible runs,
// though retrieval treats each chunk independently.
func BuildChunks(doc *pdf.Document, ranges []toc.SectionRange, fileName string, maxTokens, overlapTokens int) []Chunk {
	var chunks []Chunk

	for _, r := range ranges {
		sectionText := sectionText(doc.Pages, r)
		if strings.TrimSpace(sectionText) == "" {
			continue
		}

		for _, chunkText := range SlidingWindow(sectionText, maxTokens, overlapTokens) {
			chunks = append(chunks, Chunk{
				Text:         chunkText,
				FileName:     fileName,
				Type:         ChunkTypeText,
				SectionTitle: r.Title,
				PageStart:    r.PageStart,
				PageEnd:      r.PageEnd,
			})
		}
	}

	for _, table := range doc.Tables {
		rendered := RenderTable(table.Rows)
		if strings.TrimSpace(rendered) == "" {
			continue
		}

		section := UnknownSection
		for _, r := range ranges {
			if r.Contains(table.Page) {
				section = r.Title
				break
			}
		}

		chunks = append(chunks, Chunk{
			Text:         rendered,
			FileName:     fileName,
			Type:         ChunkTypeTable,
			SectionTitle: section,
			PageStart:    table.Page,
			PageEnd:      table.Page,
		})
	}

	return chunks
}

func sectionText(pages []pdf.Page, r toc.SectionRange) string {
	var parts []string
	for _, p := range pages {
		if r.Contains(p.Number) {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
