package store

import (
	"context"
	"database/sql"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match; LLM events only
	Session string    // exact session match; LLM events only
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	SessionID    string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// Lookup outcomes recorded for keyword lookup events.
const (
	OutcomeResolved = "resolved"
	OutcomeFallback = "fallback"
	OutcomeNotFound = "not_found"
)

// KeywordLookupEventData captures how one keyword was resolved against one
// catalog kind, or how a keyword extraction ended.
type KeywordLookupEventData struct {
	SessionID  string
	Keyword    string
	Kind       string
	Outcome    string
	Match      string
	PrimaryID  string
	Alternates int
}

// LookupStat aggregates keyword lookup events by kind and outcome.
type LookupStat struct {
	Kind    string
	Outcome string
	Count   int
}

// KeywordCount is how often a keyword was looked up.
type KeywordCount struct {
	Keyword string
	Count   int
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to the event log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event by id, or nil when it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// AppendKeywordLookup records a keyword lookup outcome.
	AppendKeywordLookup(ctx context.Context, data KeywordLookupEventData) error

	// KeywordLookupStats counts lookups per kind and outcome.
	KeywordLookupStats(ctx context.Context) ([]LookupStat, error)

	// TopKeywords returns the most looked-up keywords for a kind.
	TopKeywords(ctx context.Context, kind string, limit int) ([]KeywordCount, error)
}

type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}
