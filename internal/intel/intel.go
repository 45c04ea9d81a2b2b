package intel

import (
	"time"

	"lightsms-gateway/internal/models"
)

// Sentiment is the outcome of analyzing a reply's tone.
type Sentiment struct {
	Score    float64 `json:"score"`
	Positive bool    `json:"is_positive"`
	Negative bool    `json:"is_negative"`
	Neutral  bool    `json:"is_neutral"`
}

// Suggester proposes message drafts for an industry and purpose, each
// within maxLength characters.
type Suggester interface {
	Suggest(industry, purpose string, maxLength int) ([]string, error)
}

// SendTimePredictor picks the moment a contact is most likely to read a
// message.
type SendTimePredictor interface {
	PredictSendTime(contact models.Contact, message string) (time.Time, error)
}

// SentimentAnalyzer scores the tone of inbound reply text.
type SentimentAnalyzer interface {
	AnalyzeSentiment(text string) (Sentiment, error)
}

// Engine bundles the three capabilities behind one injection point so
// handlers can swap in a real backend without touching call sites.
type Engine struct {
	Suggester Suggester
	Predictor SendTimePredictor
	Analyzer  SentimentAnalyzer
}

// NewStandInEngine returns the deterministic local implementations.
func NewStandInEngine() *Engine {
	return &Engine{
		Suggester: NewTemplateSuggester(),
		Predictor: NewHeuristicPredictor(),
		Analyzer:  NewLexiconAnalyzer(),
	}
}
