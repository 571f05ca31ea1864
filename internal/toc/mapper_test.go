package toc_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edugen/internal/toc"
)

func TestMapToPages_ExplicitPageNumbers(t *testing.T) {
	entries := []toc.Entry{
		{Title: "Chapter 1: Intro", SourcePage: 1},
		{Title: "Chapter 2: Methods", SourcePage: 5},
	}

	ranges := toc.MapToPages(entries, 10)

	require.Len(t, ranges, 2)
	assert.Equal(t, toc.SectionRange{Title: "Chapter 1: Intro", PageStart: 1, PageEnd: 4}, ranges[0])
	assert.Equal(t, toc.SectionRange{Title: "Chapter 2: Methods", PageStart: 5, PageEnd: 10}, ranges[1])
}

func TestMapToPages_ClampsInvertedRange(t *testing.T) {
	// Second section claims an earlier page than the third; its end is
	// clamped so page_end >= page_start still holds.
	entries := []toc.Entry{
		{Title: "A", SourcePage: 1},
		{Title: "B", SourcePage: 8},
		{Title: "C", SourcePage: 6},
	}

	ranges := toc.MapToPages(entries, 10)

	require.Len(t, ranges, 3)
	assert.Equal(t, 8, ranges[1].PageStart)
	assert.Equal(t, 8, ranges[1].PageEnd)
}

func TestMapToPages_Proportional(t *testing.T) {
	entries := []toc.Entry{{Title: "A"}, {Title: "B"}, {Title: "C"}}

	ranges := toc.MapToPages(entries, 10)

	require.Len(t, ranges, 3)
	assert.Equal(t, toc.SectionRange{Title: "A", PageStart: 1, PageEnd: 3}, ranges[0])
	assert.Equal(t, toc.SectionRange{Title: "B", PageStart: 4, PageEnd: 6}, ranges[1])
	// Last section absorbs the remainder.
	assert.Equal(t, toc.SectionRange{Title: "C", PageStart: 7, PageEnd: 10}, ranges[2])
}

func TestMapToPages_MixedPageNumbersFallBackToProportional(t *testing.T) {
	entries := []toc.Entry{
		{Title: "A", SourcePage: 1},
		{Title: "B"}, // missing page number forces even distribution
	}

	ranges := toc.MapToPages(entries, 10)

	require.Len(t, ranges, 2)
	assert.Equal(t, 1, ranges[0].PageStart)
	assert.Equal(t, 5, ranges[0].PageEnd)
	assert.Equal(t, 6, ranges[1].PageStart)
	assert.Equal(t, 10, ranges[1].PageEnd)
}

func TestMapToPages_PartitionProperty(t *testing.T) {
	// For a spread of page counts and section counts, proportional mapping
	// must partition [1, totalPages] exactly.
	for totalPages := 1; totalPages <= 40; totalPages++ {
		for sections := 1; sections <= totalPages; sections++ {
			entries := make([]toc.Entry, sections)
			for i := range entries {
				entries[i] = toc.Entry{Title: fmt.Sprintf("S%d", i)}
			}

			ranges := toc.MapToPages(entries, totalPages)

			require.Len(t, ranges, sections)
			next := 1
			for _, r := range ranges {
				require.Equal(t, next, r.PageStart,
					"gap or overlap at %d sections over %d pages", sections, totalPages)
				require.GreaterOrEqual(t, r.PageEnd, r.PageStart)
				next = r.PageEnd + 1
			}
			require.Equal(t, totalPages+1, next)
		}
	}
}

func TestMapToPages_ProportionalBlockSizes(t *testing.T) {
	// Every section except the last gets exactly totalPages/sections pages.
	entries := []toc.Entry{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}}

	ranges := toc.MapToPages(entries, 23)

	for _, r := range ranges[:3] {
		assert.Equal(t, 5, r.PageEnd-r.PageStart+1)
	}
	assert.Equal(t, 23, ranges[3].PageEnd)
}

func TestMapToPages_DegenerateInputs(t *testing.T) {
	t.Run("empty entries", func(t *testing.T) {
		ranges := toc.MapToPages(nil, 7)
		require.Len(t, ranges, 1)
		assert.Equal(t, toc.SectionRange{Title: "Content", PageStart: 1, PageEnd: 7}, ranges[0])
	})

	t.Run("zero pages", func(t *testing.T) {
		ranges := toc.MapToPages([]toc.Entry{{Title: "A"}}, 0)
		require.Len(t, ranges, 1)
		assert.Equal(t, 1, ranges[0].PageStart)
		assert.Equal(t, 1, ranges[0].PageEnd)
	})
}

func TestSectionRange_Contains(t *testing.T) {
	r := toc.SectionRange{Title: "A", PageStart: 3, PageEnd: 7}
	assert.True(t, r.Contains(3))
	assert.True(t, r.Contains(7))
	assert.False(t, r.Contains(2))
	assert.False(t, r.Contains(8))
}
