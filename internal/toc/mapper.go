package toc

// SectionRange is a section bound to a contiguous page range. Ranges produced
// by MapToPages partition [1, totalPages]: no gaps, no overlaps.
type SectionRange struct {
	Title     string
	PageStart int
	PageEnd   int
}

// MapToPages converts detected entries into page ranges. When every entry
// carries an explicit source page, ranges are derived directly from those
// numbers; otherwise pages are distributed evenly. The choice is
// all-or-nothing to avoid mixing exact and guessed boundaries.
func MapToPages(entries []Entry, totalPages int) []SectionRange {
	if totalPages < 1 {
		totalPages = 1
	}
	if len(entries) == 0 {
		return []SectionRange{{Title: CatchAllTitle, PageStart: 1, PageEnd: totalPages}}
	}

	hasPages := true
	for _, e := range entries {
		if e.SourcePage <= 0 {
			hasPages = false
			break
		}
	}

	ranges := make([]SectionRange, 0, len(entries))

	if hasPages {
		for i, e := range entries {
			start := e.SourcePage
			end := totalPages
			if i < len(entries)-1 {
				end = entries[i+1].SourcePage - 1
			}
			if end < start {
				end = start
			}
			ranges = append(ranges, SectionRange{Title: e.Title, PageStart: start, PageEnd: end})
		}
		return ranges
	}

	perSection := max(1, totalPages/len(entries))
	for i, e := range entries {
		start := i*perSection + 1
		end := (i + 1) * perSection
		if i == len(entries)-1 {
			end = totalPages // last section absorbs the remainder
		}
		if end > totalPages {
			end = totalPages
		}
		if end < start {
			end = start
		}
		ranges = append(ranges, SectionRange{Title: e.Title, PageStart: start, PageEnd: end})
	}
	return ranges
}

// Contains reports whether the given page number falls inside the range.
func (r SectionRange) Contains(page int) bool {
	return r.PageStart <= page && page <= r.PageEnd
}
