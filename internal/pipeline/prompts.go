package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// Prompt assembly for each pipeline stage. The wording stays deliberately
// plain; what matters to the pipeline is which prior stage outputs and
// reference texts each prompt carries.

func searchIntentPrompts(keyword string, lsi []string, language string) (system, user string) {
	system = "You are a semantic SEO researcher. Analyse the search intent behind the query and explain how to fully satisfy it. Answer in Markdown."
	user = fmt.Sprintf(
		"Analyse the query %q (related terms: %s). What are users looking for when they search it, and how should content satisfy that intent?\n\nOutput language: %s",
		keyword, joinKeywords(lsi), language)
	return system, user
}

func titleMetaPrompts(keyword string, lsi []string, searchIntent, language string) (system, user string) {
	system = "You are an SEO copywriter. Produce exactly two lines:\nTitle: <article title>\nMeta: <meta description under 160 characters>"
	user = fmt.Sprintf(
		"Write an article title and meta description for the keyword %q (related terms: %s), matching this search intent:\n\n%s\n\nOutput language: %s",
		keyword, joinKeywords(lsi), searchIntent, language)
	return system, user
}

func competitorPrompts(keyword string, lsi []string, language, searchIntent string) (system, user string) {
	system = "You are a competitive content analyst. Analyse how the top-ranking pages for a query cover the topic and where they leave gaps. Answer in Markdown."
	user = fmt.Sprintf(
		"For the query %q (related terms: %s), analyse the likely top 10 competitors: shared structure, covered subtopics, and gaps relative to this search intent:\n\n%s\n\nOutput language: %s",
		keyword, joinKeywords(lsi), searchIntent, language)
	return system, user
}

func draftOutlinePrompts(searchIntent, competitorAnalysis, language string) (system, user string) {
	system = "You are a content strategist. Build a heading-structured article outline (one H1, several H2s with H3 subsections) in Markdown."
	user = fmt.Sprintf(
		"Create a basic article outline from this search intent:\n\n%s\n\nand this competitor analysis:\n\n%s\n\nOutput language: %s",
		searchIntent, competitorAnalysis, language)
	return system, user
}

type advancedOutlineInput struct {
	BrandName      string
	MainKeyword    string
	LSIKeywords    []string
	OutputLanguage string
	SearchIntent   string
	DraftOutline   string
	Guidelines     string
	Research       string
}

func advancedOutlinePrompts(in advancedOutlineInput) (system, user string) {
	var b strings.Builder
	b.WriteString("You are a senior SEO content strategist. Refine a basic outline into a detailed, ready-to-write blueprint. Every H2 section must carry an **Article Methodology:** block with content format, estimated word count, core ideas, and its connection to the search intent. Separate major sections with --- lines.\n\n")
	b.WriteString("Editorial guidelines:\n")
	b.WriteString(in.Guidelines)
	if in.Research != "" {
		b.WriteString("\n\nSupplementary research:\n")
		b.WriteString(in.Research)
	}
	system = b.String()

	user = fmt.Sprintf(
		"Brand: %q\nMain keyword: %q\nRelated terms: %s\nSearch intent:\n%s\n\nCurrent outline:\n%s\n\nConvert this outline into the final blueprint. Output language: %s. Format: Markdown.",
		in.BrandName, in.MainKeyword, joinKeywords(in.LSIKeywords),
		in.SearchIntent, in.DraftOutline, in.OutputLanguage)
	return system, user
}

func researchQuery(keyword, language string) string {
	return fmt.Sprintf("Research the latest trends and data for: %s in %s", keyword, language)
}

func researchSystemPrompt() string {
	return "You are a research assistant gathering current facts, figures, and trends for an article. Answer concisely in Markdown."
}

type contentInput struct {
	BrandName      string
	MainKeyword    string
	LSIKeywords    []string
	OutputLanguage string
	SearchIntent   string
	Outline        string
}

func contentPrompts(in contentInput) (system, user string) {
	system = "You are a long-form content writer. Write the full article following the outline exactly, section by section. Where an illustration would help, insert a marker of the form IMAGE_PLACEHOLDER: \"<image search phrase>\" on its own line."
	user = fmt.Sprintf(
		"Brand: %q\nMain keyword: %q\nRelated terms: %s\nSearch intent:\n%s\n\nOutline:\n%s\n\nWrite the complete article in Markdown. Output language: %s.",
		in.BrandName, in.MainKeyword, joinKeywords(in.LSIKeywords),
		in.SearchIntent, in.Outline, in.OutputLanguage)
	return system, user
}

func joinKeywords(kw []string) string {
	if len(kw) == 0 {
		return "none"
	}
	return strings.Join(kw, ", ")
}

var (
	mdHeading   = regexp.MustCompile(`(?m)^#+\s*`)
	mdRule      = regexp.MustCompile(`(?m)^---+\s*$`)
	mdBold      = regexp.MustCompile(`\*\*`)
	mdCitation  = regexp.MustCompile(`\[\d+\]`)
	mdTableSep  = regexp.MustCompile(`(?m)^\|-.*-\|$`)
	mdPipeStart = regexp.MustCompile(`(?m)^\|\s*`)
	mdPipeEnd   = regexp.MustCompile(`(?m)\s*\|$`)
	mdPipeMid   = regexp.MustCompile(`\s*\|\s*`)
)

// cleanMarkdown strips heading markers, emphasis, citation brackets, and
// table scaffolding from intermediate texts before they are embedded in a
// prompt, so the model sees plain prose rather than nested Markdown.
func cleanMarkdown(text string) string {
	if text == "" {
		return ""
	}
	text = mdHeading.ReplaceAllString(text, "")
	text = mdRule.ReplaceAllString(text, "")
	text = mdBold.ReplaceAllString(text, "")
	text = mdCitation.ReplaceAllString(text, "")
	text = mdTableSep.ReplaceAllString(text, "")
	text = mdPipeStart.ReplaceAllString(text, "")
	text = mdPipeEnd.ReplaceAllString(text, "")
	text = mdPipeMid.ReplaceAllString(text, " | ")
	return strings.TrimSpace(text)
}
