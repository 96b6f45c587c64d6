package ui

import "github.com/ppiankov/symmetry/internal/model"

// Messages for the tea program

// probeResultMsg carries the outcome of a liveness probe
type probeResultMsg struct {
	err error
}

// pollTickMsg schedules the next periodic probe
type pollTickMsg struct{}

// repollMsg re-probes after a backend start request
type repollMsg struct{}

// startBackendMsg carries the bridge's answer to a start request
type startBackendMsg struct {
	result model.StartResult
}

// elapsedTickMsg advances a view's elapsed counter; stale seqs are dropped
type elapsedTickMsg struct {
	view View
	seq  int
}

type articleFetchedMsg struct {
	seq       int
	sourceURL string
	article   *model.ArticleFetchResult
	err       error
}

type translatedMsg struct {
	seq      int
	language string
	result   *model.TranslationResult
	err      error
}

type comparedMsg struct {
	seq    int
	result *model.ComparisonResult
	err    error
}
