package store

import (
	"context"
	"fmt"
	"time"
)

func (r *eventRepo) AppendKeywordLookup(ctx context.Context, data KeywordLookupEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO keyword_lookup_events (
		sequence, created_at, session_id, keyword, kind, outcome, match, primary_id, alternates
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixMilli(), data.SessionID, data.Keyword, data.Kind, data.Outcome,
		data.Match, data.PrimaryID, data.Alternates,
	)
	if err != nil {
		return fmt.Errorf("save keyword lookup event: %w", err)
	}
	return nil
}

func (r *eventRepo) KeywordLookupStats(ctx context.Context) ([]LookupStat, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, outcome, COUNT(*)
		FROM keyword_lookup_events GROUP BY kind, outcome ORDER BY kind, outcome`)
	if err != nil {
		return nil, fmt.Errorf("query lookup stats: %w", err)
	}
	defer rows.Close()

	var out []LookupStat
	for rows.Next() {
		var s LookupStat
		if err := rows.Scan(&s.Kind, &s.Outcome, &s.Count); err != nil {
			return nil, fmt.Errorf("scan lookup stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *eventRepo) TopKeywords(ctx context.Context, kind string, limit int) ([]KeywordCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT keyword, COUNT(*) AS n
		FROM keyword_lookup_events WHERE kind = ? AND keyword != ''
		GROUP BY keyword ORDER BY n DESC, keyword LIMIT ?`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query top keywords: %w", err)
	}
	defer rows.Close()

	var out []KeywordCount
	for rows.Next() {
		var k KeywordCount
		if err := rows.Scan(&k.Keyword, &k.Count); err != nil {
			return nil, fmt.Errorf("scan keyword count: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
