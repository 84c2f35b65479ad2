package domain

// Chunk is a unit of previously ingested, URL-attributed text eligible
// for retrieval. Chunks are produced by the ingestion side and are
// read-only here except for RelevanceScore and SourceQuery, which the
// grading and fan-out stages attach.
type Chunk struct {
	ChunkID string `json:"chunk_id"`
	URL     string `json:"url"`
	Content string `json:"content"`
	// FullContent is the longer text sent to the model when present;
	// Content is the shorter text used for scoring. Empty means absent.
	FullContent    string  `json:"full_content,omitempty"`
	SourceQuery    string  `json:"source_query,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ScoreText returns the text the relevance scorer should see.
func (c Chunk) ScoreText() string {
	if c.FullContent != "" {
		return c.FullContent
	}
	return c.Content
}

// ScorePair is one (query, text) input to the pairwise relevance scorer.
type ScorePair struct {
	Query string
	Text  string
}

// GradedChunks partitions a candidate set by relevance bucket. Computed
// fresh per request, never persisted.
type GradedChunks struct {
	Correct   []Chunk
	Ambiguous []Chunk
	Incorrect []Chunk
}

// Action is the pipeline branch chosen from bucket counts.
type Action string

const (
	// ActionKnowledgeRefinement answers from retrieved chunks alone.
	ActionKnowledgeRefinement Action = "KNOWLEDGE_REFINEMENT"
	// ActionWebSearch escalates to the external web-search collaborator.
	ActionWebSearch Action = "WEB_SEARCH"
	// ActionHybrid mixes local partial evidence with web results.
	ActionHybrid Action = "HYBRID"
)

// WebResult is one hit from the web-search collaborator.
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}
