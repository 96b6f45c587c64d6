package model

import "time"

// Report is the persisted outcome of one fetch -> translate -> compare run
type Report struct {
	Subject        string    `json:"subject"`         // Article title (e.g., "Laksa")
	SourceURL      string    `json:"source_url"`      // Article that was fetched
	SourceLanguage string    `json:"source_language"` // Language of the source article
	TargetLanguage string    `json:"target_language"` // Language it was compared against
	ComparedAt     time.Time `json:"compared_at"`

	AvailableLanguages []string `json:"available_languages,omitempty"`

	Comparison ComparisonResult `json:"comparison"`
	Stats      Stats            `json:"stats"`

	LLM *GapSummary `json:"llm,omitempty"` // Optional narrative, never alters the comparison
}

// Stats summarizes a comparison
type Stats struct {
	LeftSentences      int     `json:"left_sentences"`
	RightSentences     int     `json:"right_sentences"`
	MissingInformation int     `json:"missing_information"`
	ExtraInformation   int     `json:"extra_information"`
	Symmetry           float64 `json:"symmetry"` // Share of sentences not flagged (0-1)
}

// NewStats derives counts from a comparison
func NewStats(c ComparisonResult) Stats {
	s := Stats{
		LeftSentences:      len(c.LeftArticleArray),
		RightSentences:     len(c.RightArticleArray),
		MissingInformation: len(c.RightArticleExtraInfoIndex),
		ExtraInformation:   len(c.LeftArticleMissingInfoIndex),
	}

	total := s.LeftSentences + s.RightSentences
	if total == 0 {
		s.Symmetry = 1
		return s
	}
	flagged := s.MissingInformation + s.ExtraInformation
	s.Symmetry = float64(total-flagged) / float64(total)
	return s
}

// GapSummary contains an optional LLM-generated narrative of the gaps
type GapSummary struct {
	Enabled          bool     `json:"enabled"`
	Provider         string   `json:"provider,omitempty"`   // openai, ollama
	Model            string   `json:"model,omitempty"`      // Model name
	StrictReferences bool     `json:"strict_references"`    // Whether sentence citations were enforced
	SummaryMD        string   `json:"summary_md,omitempty"` // Markdown summary
	Warnings         []string `json:"warnings,omitempty"`
}
