// Package keyword turns a student's question into a single math topic
// keyword used to look up catalog resources. A keyword the model declines to
// give, or one that names a resource type instead of a topic, is replaced by
// the last topic remembered for the session.
package keyword

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/abhisek/gilbot/internal/llm"
	"github.com/abhisek/gilbot/internal/logger"
	"github.com/abhisek/gilbot/internal/topic"
)

// DefaultPurpose is the purpose label the tutor passes when one keyword
// drives every resource lookup for a question.
const DefaultPurpose = "unified lookup"

// None is the token the model returns when nothing relevant is found.
const None = "none"

// BannedTerms are extractions that name a resource kind or decline to
// answer rather than naming a math topic.
var BannedTerms = map[string]struct{}{
	"wolfram":           {},
	"video":             {},
	"activity":          {},
	"geogebra":          {},
	"resource":          {},
	"interactive":       {},
	"lesson":            {},
	"none":              {},
	"none of the above": {},
	"none of these":     {},
}

// Outcome describes how an extraction ended.
type Outcome string

const (
	// OutcomeAccepted means the model's keyword was kept and remembered.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeBanned means the model answered with an empty, "none" or
	// banned term and the remembered topic was used instead.
	OutcomeBanned Outcome = "banned"
	// OutcomeFailed means the completion call errored and the remembered
	// topic was used instead.
	OutcomeFailed Outcome = "failed"
)

// Result is a detailed extraction result.
type Result struct {
	// Keyword is the keyword to resolve resources with. It may be empty.
	Keyword string
	// Raw is the normalized model answer, before banning.
	Raw     string
	Outcome Outcome
	Err     error
}

// Extractor asks the completion service for a keyword and maintains topic
// memory.
type Extractor struct {
	provider  llm.Provider
	memory    *topic.Memory
	log       *logger.Logger
	maxTokens int
}

// New creates an Extractor. A nil logger discards output.
func New(provider llm.Provider, memory *topic.Memory, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{provider: provider, memory: memory, log: log, maxTokens: 64}
}

// Schema is the structured-output contract for keyword extraction.
func Schema() *llm.Schema {
	return &llm.Schema{
		Name:        "math-keyword",
		Description: "A single normalized math keyword or short phrase, or 'none'.",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"keyword": map[string]any{
					"type":        "string",
					"description": "One lower-case math topic keyword or phrase, or 'none' if nothing relevant is asked.",
				},
			},
			"required":             []any{"keyword"},
			"additionalProperties": false,
		},
	}
}

// SystemPrompt is the instruction sent with every extraction.
func SystemPrompt(purpose string) string {
	return "Extract a single math keyword useful for " + purpose + ". If irrelevant, return 'none'."
}

// UserPrompt combines the question with OCR text recovered from an image.
func UserPrompt(question, ocrText string) string {
	prompt := "User question: " + question
	if ocrText != "" {
		prompt += "\n\nMathPix OCR from image:\n" + ocrText
	}
	return prompt
}

// Extract returns the keyword for a question. It never fails: when no
// usable keyword comes back the session's remembered topic is returned, then
// the global one, then "".
func (e *Extractor) Extract(ctx context.Context, question, purpose, sessionID, ocrText string) string {
	return e.ExtractDetailed(ctx, question, purpose, sessionID, ocrText).Keyword
}

// ExtractDetailed is Extract with the outcome exposed for event logging.
func (e *Extractor) ExtractDetailed(ctx context.Context, question, purpose, sessionID, ocrText string) Result {
	if purpose == "" {
		purpose = DefaultPurpose
	}

	ctx = llm.WithSession(llm.WithPurpose(ctx, llm.PurposeKeyword), sessionID)
	resp, err := e.provider.Generate(ctx, llm.Request{
		System:    SystemPrompt(purpose),
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: UserPrompt(question, ocrText)}},
		Schema:    Schema(),
		MaxTokens: e.maxTokens,
	})
	var content json.RawMessage
	var invalid *llm.ErrInvalidResponse
	switch {
	case err == nil:
		content = resp.Content
	case errors.As(err, &invalid) && len(bytes.TrimSpace(invalid.Content)) > 0:
		// Providers without structured output answer in plain text.
		content = invalid.Content
		e.log.Debug("keyword reply not structured", "session_id", sessionID, "content", string(content))
	default:
		e.log.Warn("keyword extraction failed", "session_id", sessionID, "purpose", purpose, "error", err)
		return Result{Keyword: e.memory.Recall(sessionID), Outcome: OutcomeFailed, Err: err}
	}

	raw := Normalize(parseKeyword(content))
	if IsBanned(raw) {
		kw := e.memory.Recall(sessionID)
		e.log.Debug("keyword discarded", "session_id", sessionID, "raw", raw, "fallback", kw)
		return Result{Keyword: kw, Raw: raw, Outcome: OutcomeBanned}
	}

	e.memory.Remember(sessionID, raw)
	e.log.Debug("keyword extracted", "session_id", sessionID, "keyword", raw)
	return Result{Keyword: raw, Raw: raw, Outcome: OutcomeAccepted}
}

// IsBanned reports whether a normalized extraction must be discarded.
func IsBanned(kw string) bool {
	if kw == "" {
		return true
	}
	_, banned := BannedTerms[kw]
	return banned
}

// Normalize lower-cases and trims an extraction, dropping wrapping quotes
// and a trailing period.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// parseKeyword accepts the structured {"keyword": ...} object, a bare JSON
// string, or plain text from providers without structured output.
func parseKeyword(content json.RawMessage) string {
	var obj map[string]any
	if err := json.Unmarshal(content, &obj); err == nil {
		kw, _ := obj["keyword"].(string)
		return kw
	}
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	return string(content)
}
