package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gilbot.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"llm_request_events", "keyword_lookup_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gilbot.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "reply", Success: true}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	events, err := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestLLMEvents_AppendQueryGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	in := []LLMRequestEventData{
		{Provider: "gpt-4o", Model: "gpt-4o", Purpose: "keyword", SessionID: "s1",
			InputTokens: 30, OutputTokens: 4, LatencyMs: 100, Success: true,
			RequestBody: "[user]\nUser question: what is a triangle", ResponseBody: `{"keyword":"triangle"}`},
		{Provider: "gpt-4o", Model: "gpt-4o", Purpose: "reply", SessionID: "s1",
			InputTokens: 200, OutputTokens: 80, LatencyMs: 300, Success: true},
		{Provider: "gpt-4o", Model: "gpt-4o", Purpose: "reply", SessionID: "s2",
			LatencyMs: 500, ErrorMessage: "LLM provider unavailable"},
	}
	for _, d := range in {
		if err := repo.AppendLLMRequest(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Sequence <= events[1].Sequence {
		t.Errorf("expected newest first, got sequences %d, %d", events[0].Sequence, events[1].Sequence)
	}
	if events[0].Success || events[0].ErrorMessage == "" {
		t.Errorf("newest event should be the failed reply: %+v", events[0])
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "keyword"})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(limited) != 1 || limited[0].Purpose != "keyword" {
		t.Fatalf("purpose filter = %+v", limited)
	}

	s2, err := repo.QueryLLMEvents(ctx, QueryOpts{Session: "s2"})
	if err != nil {
		t.Fatalf("query session: %v", err)
	}
	if len(s2) != 1 || s2[0].SessionID != "s2" {
		t.Fatalf("session filter = %+v", s2)
	}

	e, err := repo.GetLLMEvent(ctx, limited[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.ResponseBody != `{"keyword":"triangle"}` {
		t.Errorf("response body = %q", e.ResponseBody)
	}
	if e.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing event, got %+v", missing)
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, d := range []LLMRequestEventData{
		{Model: "gpt-4o", Purpose: "reply", InputTokens: 100, OutputTokens: 50, LatencyMs: 200},
		{Model: "gpt-4o", Purpose: "reply", InputTokens: 100, OutputTokens: 30, LatencyMs: 400},
		{Model: "gpt-4o-mini", Purpose: "keyword", InputTokens: 20, OutputTokens: 5, LatencyMs: 50},
	} {
		if err := repo.AppendLLMRequest(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	reply := byPurpose[0]
	if reply.Purpose != "reply" || reply.Calls != 2 || reply.InputTokens != 200 || reply.OutputTokens != 80 {
		t.Errorf("reply usage = %+v", reply)
	}
	if reply.AvgLatencyMs != 300 {
		t.Errorf("avg latency = %d, want 300", reply.AvgLatencyMs)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4o" || byModel[0].Calls != 2 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestKeywordLookups(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, d := range []KeywordLookupEventData{
		{SessionID: "s1", Keyword: "triangle", Kind: "lesson", Outcome: OutcomeResolved, Match: "exact", PrimaryID: "L1"},
		{SessionID: "s1", Keyword: "triangle", Kind: "diagram", Outcome: OutcomeResolved, Match: "exact", PrimaryID: "111", Alternates: 1},
		{SessionID: "s2", Keyword: "polygon", Kind: "diagram", Outcome: OutcomeFallback},
		{SessionID: "s2", Keyword: "polygon", Kind: "lesson", Outcome: OutcomeNotFound},
		{SessionID: "s3", Keyword: "triangle", Kind: "lesson", Outcome: OutcomeResolved, Match: "fuzzy", PrimaryID: "L1"},
	} {
		if err := repo.AppendKeywordLookup(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	stats, err := repo.KeywordLookupStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := []LookupStat{
		{Kind: "diagram", Outcome: OutcomeFallback, Count: 1},
		{Kind: "diagram", Outcome: OutcomeResolved, Count: 1},
		{Kind: "lesson", Outcome: OutcomeNotFound, Count: 1},
		{Kind: "lesson", Outcome: OutcomeResolved, Count: 2},
	}
	if len(stats) != len(want) {
		t.Fatalf("stats = %+v", stats)
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("stats[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}

	top, err := repo.TopKeywords(ctx, "lesson", 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].Keyword != "triangle" || top[0].Count != 2 {
		t.Errorf("top keywords = %+v", top)
	}
}
