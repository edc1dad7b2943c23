package domain

import "time"

type Strategy string

const (
	StrategyBroad    Strategy = "broad"
	StrategySpecific Strategy = "specific"
	StrategyBalanced Strategy = "balanced"
)

// SearchConfig is produced per query by the optimizer and consumed by the retriever.
type SearchConfig struct {
	NResults            int      `json:"n_results"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
	BoostKeywords       bool     `json:"boost_keywords"`
	Strategy            Strategy `json:"strategy"`
}

// Candidate is a chunk scored against one query.
type Candidate struct {
	Chunk          Chunk   `json:"chunk"`
	Similarity     float64 `json:"similarity"`
	KeywordScore   float64 `json:"keyword_score"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ScoreBreakdown itemises the re-ranker terms that produced a relevance score.
type ScoreBreakdown struct {
	KeywordMetadata float64 `json:"keyword_metadata"`
	PriorityTerms   float64 `json:"priority_terms"`
	TokenOverlap    float64 `json:"token_overlap"`
	SectionMatch    float64 `json:"section_match"`
	Structure       float64 `json:"structure"`
	Semantic        float64 `json:"semantic"`
	Lexical         float64 `json:"lexical"`
	Total           float64 `json:"total"`
}

type RankedSource struct {
	Candidate
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// SearchResult is the retrieval-only view of a query, used for debugging ranking.
type SearchResult struct {
	Query         string         `json:"query"`
	ExpandedQuery string         `json:"expanded_query,omitempty"`
	Config        SearchConfig   `json:"config"`
	Expanded      bool           `json:"expanded"`
	Unavailable   bool           `json:"unavailable"`
	Sources       []RankedSource `json:"sources"`
}

type Answer struct {
	Text      string      `json:"text"`
	Sources   []Candidate `json:"sources"`
	Strategy  Strategy    `json:"strategy"`
	Expanded  bool        `json:"expanded"`
	NoSources bool        `json:"no_sources"`
	CacheHit  bool        `json:"cache_hit"`
	Degraded  bool        `json:"degraded,omitempty"`
}

// QueryEvent is one answered question, recorded for analytics.
type QueryEvent struct {
	ID           string        `json:"id"`
	Question     string        `json:"question"`
	QuestionHash string        `json:"question_hash"`
	Strategy     Strategy      `json:"strategy"`
	SourceCount  int           `json:"source_count"`
	Expanded     bool          `json:"expanded"`
	CacheHit     bool          `json:"cache_hit"`
	NoSources    bool          `json:"no_sources"`
	Degraded     bool          `json:"degraded"`
	Duration     time.Duration `json:"duration"`
	CreatedAt    time.Time     `json:"created_at"`
}

type QuestionStat struct {
	Question      string    `json:"question"`
	Count         int       `json:"count"`
	AvgSources    float64   `json:"avg_sources"`
	NoSourceRatio float64   `json:"no_source_ratio"`
	LastAskedAt   time.Time `json:"last_asked_at"`
}
