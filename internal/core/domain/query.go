package domain

import "time"

// QueryRequest is one user question entering the pipeline. SubQueries
// may be supplied by the caller; when empty the service either asks the
// decomposition collaborator or falls back to the question itself.
type QueryRequest struct {
	RequestID  string   `json:"-"`
	UserID     string   `json:"user_id"`
	Question   string   `json:"question"`
	SubQueries []string `json:"sub_queries,omitempty"`
}

// Verdict is the input gate decision for a single request. Never
// persisted beyond the validation call. RateLimited distinguishes a
// throttled caller from malformed or abusive input.
type Verdict struct {
	Allowed     bool   `json:"allowed"`
	RateLimited bool   `json:"rate_limited,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Generation is the typed outcome of a successful model invocation.
type Generation struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// RetrievalStats summarizes one request's retrieval for diagnostics and
// the audit trail.
type RetrievalStats struct {
	SubQueries     int `json:"sub_queries"`
	TotalRetrieved int `json:"total_retrieved"`
	AfterMerge     int `json:"after_merge"`
	Correct        int `json:"correct"`
	Ambiguous      int `json:"ambiguous"`
	Incorrect      int `json:"incorrect"`
}

// Answer is the final pipeline output for one request.
type Answer struct {
	Text       string         `json:"text"`
	Model      string         `json:"model"`
	Action     Action         `json:"action"`
	Sources    []Chunk        `json:"sources"`
	WebSources []WebResult    `json:"web_sources,omitempty"`
	Stats      RetrievalStats `json:"stats"`
}

// QueryAnsweredEvent is published after each answered request and
// consumed by the audit worker.
type QueryAnsweredEvent struct {
	EventID    string    `json:"event_id"`
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	Question   string    `json:"question"`
	Action     Action    `json:"action"`
	Model      string    `json:"model"`
	Correct    int       `json:"correct"`
	Ambiguous  int       `json:"ambiguous"`
	Incorrect  int       `json:"incorrect"`
	Merged     int       `json:"merged"`
	DurationMS int64     `json:"duration_ms"`
	AnsweredAt time.Time `json:"answered_at"`
}
