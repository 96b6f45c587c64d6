package model

import (
	"fmt"
	"net/url"
	"strings"
)

// ArticleFetchResult is the backend's answer to an article fetch
type ArticleFetchResult struct {
	SourceArticle    string   `json:"sourceArticle"`    // Plain article text
	ArticleLanguages []string `json:"articleLanguages"` // Language codes the article is available in
}

// TranslationResult is the backend's answer to a translate request
type TranslationResult struct {
	TranslatedArticle string `json:"translatedArticle"`
}

// ComparisonResult pairs two sentence-tokenized texts with the indices the
// backend flagged as asymmetric
type ComparisonResult struct {
	LeftArticleArray            []string `json:"left_article_array"`
	RightArticleArray           []string `json:"right_article_array"`
	LeftArticleMissingInfoIndex []int    `json:"left_article_missing_info_index"`
	RightArticleExtraInfoIndex  []int    `json:"right_article_extra_info_index"`
}

// FlaggedSentence is one sentence selected by an index list
type FlaggedSentence struct {
	Index  int    `json:"index"`  // 0-based position in its article
	Number int    `json:"number"` // 1-based sentence number shown to users
	Text   string `json:"text"`
}

// Validate checks that every index addresses its sentence array
func (c ComparisonResult) Validate() error {
	for _, idx := range c.LeftArticleMissingInfoIndex {
		if idx < 0 || idx >= len(c.LeftArticleArray) {
			return fmt.Errorf("left missing index %d out of range [0,%d)", idx, len(c.LeftArticleArray))
		}
	}
	for _, idx := range c.RightArticleExtraInfoIndex {
		if idx < 0 || idx >= len(c.RightArticleArray) {
			return fmt.Errorf("right extra index %d out of range [0,%d)", idx, len(c.RightArticleArray))
		}
	}
	return nil
}

// MissingInformation lists right-side sentences with no counterpart on the
// left: information the source article is missing.
func (c ComparisonResult) MissingInformation() []FlaggedSentence {
	return flagged(c.RightArticleArray, c.RightArticleExtraInfoIndex)
}

// ExtraInformation lists left-side sentences with no counterpart on the
// right: information only the source article carries.
func (c ComparisonResult) ExtraInformation() []FlaggedSentence {
	return flagged(c.LeftArticleArray, c.LeftArticleMissingInfoIndex)
}

// HasDifferences reports whether either index list is non-empty
func (c ComparisonResult) HasDifferences() bool {
	return len(c.LeftArticleMissingInfoIndex) > 0 || len(c.RightArticleExtraInfoIndex) > 0
}

func flagged(sentences []string, indices []int) []FlaggedSentence {
	out := make([]FlaggedSentence, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(sentences) {
			continue
		}
		out = append(out, FlaggedSentence{
			Index:  idx,
			Number: idx + 1,
			Text:   sentences[idx],
		})
	}
	return out
}

// Handoff carries a translation into the comparison view
type Handoff struct {
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
	SourceURL      string `json:"source_url"`
	TargetLanguage string `json:"target_language"`
}

// StartResult is the outcome of a backend start request
type StartResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// LanguageFromURL returns the language subdomain of a Wikipedia URL
// (https://fr.wikipedia.org/... -> "fr"), or "en" when there is none.
func LanguageFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "en"
	}

	parts := strings.Split(parsed.Hostname(), ".")
	if len(parts) == 3 && parts[1] == "wikipedia" && parts[2] == "org" && isLanguageCode(parts[0]) {
		return parts[0]
	}
	return "en"
}

func isLanguageCode(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// SubjectFromURL extracts a human-readable subject from the URL
func SubjectFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		if parsed.Host != "" {
			return parsed.Host
		}
		return rawURL
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	// De-slugify: replace underscores with spaces
	last = strings.ReplaceAll(last, "_", " ")

	return last
}
