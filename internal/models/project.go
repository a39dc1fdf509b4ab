// Package models defines the domain types for ansuz.
package models

import (
	"strings"
	"time"
)

// Status is the pipeline state-machine value for a project. Transitions are
// monotonic forward; StatusFailed is absorbing and reachable from any
// non-terminal state. A new run may re-enter StatusProcessing.
type Status string

const (
	StatusCreated                     Status = "created"
	StatusProcessing                  Status = "processing"
	StatusSearchIntentCompleted       Status = "search_intent_completed"
	StatusCompetitorAnalysisCompleted Status = "competitor_analysis_completed"
	StatusOutlineCompleted            Status = "outline_completed"
	StatusGeneratingContent           Status = "generating_content"
	StatusContentGenerated            Status = "content_generated"
	StatusFailed                      Status = "failed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusProcessing, StatusSearchIntentCompleted,
		StatusCompetitorAnalysisCompleted, StatusOutlineCompleted,
		StatusGeneratingContent, StatusContentGenerated, StatusFailed:
		return true
	}
	return false
}

// Project is the persisted pipeline record. Input attributes are set once at
// creation; each staged attribute is written by exactly one pipeline stage.
type Project struct {
	ID                 string    `json:"id"`
	BrandName          string    `json:"brand_name"`
	MainKeyword        string    `json:"main_keyword"`
	LSIKeywords        string    `json:"lsi_keywords,omitempty"`
	SecondaryKeywords  string    `json:"secondary_keywords,omitempty"`
	OutputLanguage     string    `json:"output_language"`
	Status             Status    `json:"status"`
	SearchIntent       string    `json:"search_intent,omitempty"`
	CompetitorAnalysis string    `json:"competitor_analysis,omitempty"`
	DraftOutline       string    `json:"draft_outline,omitempty"`
	Outline            string    `json:"outline,omitempty"`
	Title              string    `json:"title,omitempty"`
	MetaDescription    string    `json:"meta_description,omitempty"`
	Content            string    `json:"content,omitempty"`
	PublishedLink      string    `json:"published_link,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// SplitKeywords turns a free-text keyword field (comma- or newline-separated)
// into an ordered list of trimmed keyword strings, so prompt assembly and
// validation operate on structured data rather than re-parsing downstream.
func SplitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
