// Package outline scores the structural quality of a heading-structured
// article outline. Pure text analysis; no I/O.
package outline

import (
	"math"
	"regexp"
	"strings"
)

const checkCount = 10

// minLength is the character threshold below which an outline is considered
// too thin to write from.
const minLength = 1500

var (
	h1Line      = regexp.MustCompile(`(?m)^#\s+.+$`)
	h1Marker    = regexp.MustCompile(`(?m)^#\s+`)
	h2Marker    = regexp.MustCompile(`(?m)^##\s+`)
	h3Marker    = regexp.MustCompile(`(?m)^###\s+`)
	separator   = regexp.MustCompile(`(?m)^---+$`)
	methodology = regexp.MustCompile(`(?i)article methodology|phương pháp`)
	methodBlock = regexp.MustCompile(`(?i)\*\*Article Methodology:\*\*`)
	wordCount   = regexp.MustCompile(`(?i)word|từ|ước tính|estimated`)
	formatLang  = regexp.MustCompile(`(?i)format|định dạng`)
	examples    = regexp.MustCompile(`(?i)example|ví dụ|case study`)
	connections = regexp.MustCompile(`(?i)connect|kết nối|link|previous|next`)
)

// Checks is the fixed set of boolean quality predicates.
type Checks struct {
	HasH1            bool `json:"hasH1"`
	HasMultipleH2    bool `json:"hasMultipleH2"`
	HasH3            bool `json:"hasH3"`
	HasMethodology   bool `json:"hasMethodology"`
	HasWordCount     bool `json:"hasWordCount"`
	HasFormat        bool `json:"hasFormat"`
	HasExamples      bool `json:"hasExamples"`
	HasConnections   bool `json:"hasConnections"`
	HasSeparators    bool `json:"hasSeparators"`
	SufficientLength bool `json:"sufficientLength"`
}

func (c Checks) passed() int {
	n := 0
	for _, ok := range []bool{
		c.HasH1, c.HasMultipleH2, c.HasH3, c.HasMethodology, c.HasWordCount,
		c.HasFormat, c.HasExamples, c.HasConnections, c.HasSeparators,
		c.SufficientLength,
	} {
		if ok {
			n++
		}
	}
	return n
}

func (c Checks) all() bool { return c.passed() == checkCount }

// Counts holds the derived structural counts.
type Counts struct {
	H1Count                 int `json:"h1Count"`
	H2Count                 int `json:"h2Count"`
	H3Count                 int `json:"h3Count"`
	WordCount               int `json:"wordCount"`
	MethodologyCount        int `json:"methodologyCount"`
	SectionsWithMethodology int `json:"sectionsWithMethodology"`
}

// Report is the structured output of the scorer. Only the numeric score is
// ever surfaced past the workflow response; the report is recomputed on
// demand and never persisted.
type Report struct {
	Valid           bool     `json:"isValid"`
	Checks          Checks   `json:"checks"`
	Score           float64  `json:"score"`
	Counts          Counts   `json:"details"`
	Recommendations []string `json:"recommendations"`
}

// Score analyzes the outline text and returns its quality report.
// Deterministic and order-independent across predicates.
func Score(text string) Report {
	checks := Checks{
		HasH1:            h1Line.MatchString(text),
		HasMultipleH2:    len(h2Marker.FindAllStringIndex(text, -1)) >= 3,
		HasH3:            h3Marker.MatchString(text),
		HasMethodology:   methodology.MatchString(text),
		HasWordCount:     wordCount.MatchString(text),
		HasFormat:        formatLang.MatchString(text),
		HasExamples:      examples.MatchString(text),
		HasConnections:   connections.MatchString(text),
		HasSeparators:    separator.MatchString(text),
		SufficientLength: len(text) > minLength,
	}

	counts := Counts{
		H1Count:                 len(h1Marker.FindAllStringIndex(text, -1)),
		H2Count:                 len(h2Marker.FindAllStringIndex(text, -1)),
		H3Count:                 len(h3Marker.FindAllStringIndex(text, -1)),
		WordCount:               len(strings.Fields(text)),
		MethodologyCount:        len(methodology.FindAllStringIndex(text, -1)),
		SectionsWithMethodology: len(methodBlock.FindAllStringIndex(text, -1)),
	}

	score := math.Round(float64(checks.passed())/checkCount*1000) / 10

	return Report{
		Valid:           checks.all(),
		Checks:          checks,
		Score:           score,
		Counts:          counts,
		Recommendations: recommendations(checks, counts),
	}
}

func recommendations(c Checks, d Counts) []string {
	var recs []string
	if !c.HasH1 {
		recs = append(recs, "Missing H1 main title")
	}
	if !c.HasMultipleH2 {
		recs = append(recs, "Need at least 3 H2 sections for comprehensive coverage")
	}
	if !c.HasH3 {
		recs = append(recs, "Add H3 subsections for better structure")
	}
	if d.MethodologyCount < d.H2Count {
		recs = append(recs, "Not all H2 sections have article methodology")
	}
	if !c.HasExamples {
		recs = append(recs, "Include specific examples or case studies")
	}
	if !c.HasConnections {
		recs = append(recs, "Explain how sections connect to each other")
	}
	if !c.HasWordCount {
		recs = append(recs, "Add estimated word counts per section")
	}
	if !c.HasFormat {
		recs = append(recs, "Describe the content format for each section")
	}
	if !c.HasSeparators {
		recs = append(recs, "Separate major sections with a divider line")
	}
	if !c.SufficientLength {
		recs = append(recs, "Outline is too short to write from")
	}
	if len(recs) == 0 {
		recs = append(recs, "Outline meets all quality standards")
	}
	return recs
}
