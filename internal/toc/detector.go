// Package toc infers a table of contents from raw per-page text and maps the
// detected sections onto page ranges. Detection never fails: the strategy
// chain always terminates with a usable (if coarse) structure.
package toc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"edugen/internal/pdf"
)

// Entry is one detected section. SourcePage is the page number the section
// starts on when it was read from an explicit TOC line; 0 means unknown, in
// which case pages are distributed proportionally during mapping.
type Entry struct {
	Title      string
	SourcePage int
}

// Strategy records which detection strategy produced the result, so callers
// and tests can distinguish a confident TOC from a fallback.
type Strategy int

const (
	StrategyTOCPage Strategy = iota
	StrategyHeadingScan
	StrategyCatchAll
)

func (s Strategy) String() string {
	switch s {
	case StrategyTOCPage:
		return "toc_page"
	case StrategyHeadingScan:
		return "heading_scan"
	default:
		return "catch_all"
	}
}

// Result is the detected TOC plus its provenance.
type Result struct {
	Entries  []Entry
	Strategy Strategy
}

// CatchAllTitle is the single-section title used when no structure is found.
const CatchAllTitle = "Content"

// Acceptance thresholds. These values are empirical; behavior must match
// them, so they are named constants rather than re-derived.
const (
	tocScanCap           = 20 // never scan more leading pages than this
	tocScanFloor         = 10 // always scan at least this many leading pages
	tocMarkerWindow      = 300
	minNumberedLines     = 5 // numbered lines that qualify a page as a TOC page
	minNumberedWithMark  = 3 // relaxed count when a marker phrase is present
	minTOCEntries        = 3 // strategy 1 accepted only with this many entries
	repeatStopMinEntries = 5 // repeated numbering stops extraction past this
	maxHeadings          = 20
)

var (
	numberedLineRe = regexp.MustCompile(`(?i)^\s*(?:chapter\s+)?\d+[.:)]`)

	// TOC page line shapes: "Chapter N: Title .... page" and "N[.M] Title .... page".
	tocChapterRe  = regexp.MustCompile(`(?i)^chapter\s+(\d+)[:\s]+(.+?)[\s.]+(\d+)\s*$`)
	tocNumberedRe = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)[.\s]+([A-Z].+?)[\s.]+(\d+)\s*$`)

	// Heading shapes without the trailing page number.
	headingChapterRe  = regexp.MustCompile(`(?i)^chapter\s+(\d+)[:\s]*(.*)$`)
	headingNumberedRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)[.\s]+([A-Z][A-Za-z\s]{3,60})$`)

	trailingDotsRe = regexp.MustCompile(`\.+$`)
	digitsOnlyRe   = regexp.MustCompile(`^\d+$`)
)

var markerPhrases = []string{"table of contents", "contents", "table of content"}

// Detect runs the strategy chain over the document's pages. It always
// returns at least one entry.
func Detect(pages []pdf.Page) Result {
	if toc := extractFromTOCPage(pages); len(toc) >= minTOCEntries {
		return Result{Entries: toc, Strategy: StrategyTOCPage}
	}

	if headings := scanHeadings(pages); len(headings) > 0 {
		return Result{Entries: headings, Strategy: StrategyHeadingScan}
	}

	return Result{
		Entries:  []Entry{{Title: CatchAllTitle}},
		Strategy: StrategyCatchAll,
	}
}

// extractFromTOCPage finds the first leading page that looks like an explicit
// table of contents and extracts its entries. Returns nil when no page
// qualifies.
func extractFromTOCPage(pages []pdf.Page) []Entry {
	idx := findTOCPage(pages)
	if idx < 0 {
		return nil
	}
	return parseTOCLines(pages[idx].Text)
}

func findTOCPage(pages []pdf.Page) int {
	scanLimit := min(tocScanCap, max(tocScanFloor, len(pages)/7))
	if scanLimit > len(pages) {
		scanLimit = len(pages)
	}

	for i := 0; i < scanLimit; i++ {
		text := pages[i].Text
		if text == "" {
			continue
		}

		head := strings.ToLower(text)
		if len(head) > tocMarkerWindow {
			head = head[:tocMarkerWindow]
		}
		hasMarker := false
		for _, phrase := range markerPhrases {
			if strings.Contains(head, phrase) {
				hasMarker = true
				break
			}
		}

		numbered := 0
		for _, line := range strings.Split(text, "\n") {
			if numberedLineRe.MatchString(strings.TrimSpace(line)) {
				numbered++
			}
		}

		if numbered >= minNumberedLines || (hasMarker && numbered >= minNumberedWithMark) {
			return i
		}
	}

	return -1
}

func parseTOCLines(pageText string) []Entry {
	var toc []Entry
	seen := map[string]bool{}

	for _, raw := range strings.Split(pageText, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)
		if len(line) < 10 || digitsOnlyRe.MatchString(line) ||
			lower == "contents" || lower == "table of contents" {
			continue
		}

		if m := tocChapterRe.FindStringSubmatch(line); m != nil {
			num := m[1]
			title := cleanTitle(m[2])
			page, _ := strconv.Atoi(m[3])
			if seen[num] && len(toc) >= repeatStopMinEntries {
				return toc
			}
			seen[num] = true
			if len(title) > 3 {
				toc = append(toc, Entry{
					Title:      fmt.Sprintf("Chapter %s: %s", num, title),
					SourcePage: page,
				})
				continue
			}
		}

		if m := tocNumberedRe.FindStringSubmatch(line); m != nil {
			num := strings.SplitN(m[1], ".", 2)[0]
			title := cleanTitle(m[2])
			page, _ := strconv.Atoi(m[3])
			if seen[num] && len(toc) >= repeatStopMinEntries {
				return toc
			}
			seen[num] = true
			if len(title) > 5 && startsUpper(title) {
				toc = append(toc, Entry{
					Title:      fmt.Sprintf("%s %s", m[1], title),
					SourcePage: page,
				})
			}
		}
	}

	return toc
}

// scanHeadings walks every page's lines looking for chapter and numbered
// section headings without the trailing page number requirement.
func scanHeadings(pages []pdf.Page) []Entry {
	var headings []Entry
	seen := map[string]bool{}
	rendered := map[string]bool{}

	add := func(title string) bool {
		if !rendered[title] {
			rendered[title] = true
			headings = append(headings, Entry{Title: title})
		}
		return len(headings) >= maxHeadings
	}

	for _, page := range pages {
		lines := strings.Split(page.Text, "\n")
		for i, raw := range lines {
			line := strings.TrimSpace(raw)
			if len(line) < 8 || len(line) > 100 {
				continue
			}

			if m := headingChapterRe.FindStringSubmatch(line); m != nil {
				num := m[1]
				title := strings.TrimSpace(m[2])
				if seen[num] && len(headings) >= repeatStopMinEntries {
					return headings
				}
				seen[num] = true
				heading := "Chapter " + num
				if title != "" {
					heading = fmt.Sprintf("Chapter %s: %s", num, title)
				}
				if add(heading) {
					return headings
				}
				continue
			}

			if m := headingNumberedRe.FindStringSubmatch(line); m != nil {
				num := strings.SplitN(m[1], ".", 2)[0]
				title := strings.TrimSpace(m[2])
				// Titles with clause punctuation are sentences, not headings.
				if strings.ContainsAny(title, ",;") || strings.HasSuffix(title, ".") {
					continue
				}
				// A following line that starts lowercase means this line is a
				// sentence continuation.
				if i+1 < len(lines) {
					next := strings.TrimSpace(lines[i+1])
					if next != "" && startsLower(next) {
						continue
					}
				}
				if seen[num] && len(headings) >= repeatStopMinEntries {
					return headings
				}
				seen[num] = true
				if add(fmt.Sprintf("%s %s", m[1], title)) {
					return headings
				}
			}
		}
	}

	return headings
}

func cleanTitle(s string) string {
	return strings.TrimSpace(trailingDotsRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func startsLower(s string) bool {
	for _, r := range s {
		return unicode.IsLower(r)
	}
	return false
}
