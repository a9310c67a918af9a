// Package resolver finds the catalog entries that best match a topic keyword.
//
// Exact tag matches always win over fuzzy ones, and within either bucket
// entries come back in catalog order. The first entry is the primary
// suggestion and the rest are alternates.
package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/abhisek/gilbot/internal/catalog"
	"github.com/abhisek/gilbot/internal/fuzzy"
)

// Default result counts per kind, primary included.
const (
	DefaultMaxLessons  = 3
	DefaultMaxDiagrams = 5
	DefaultMaxVideos   = 3
)

// DiagramFallbackURL is returned for diagram lookups that match nothing.
const DiagramFallbackURL = "https://www.geogebra.org/math/geometry"

const (
	diagramURLTemplate     = "https://www.geogebra.org/m/%s"
	computationURLTemplate = "https://www.wolframalpha.com/input?i=%s"
)

// MatchKind tells which bucket produced a result.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
	MatchNone  MatchKind = "none"
)

// Lookup outcomes, as recorded in the event log.
const (
	OutcomeResolved = "resolved"
	OutcomeFallback = "fallback"
	OutcomeNotFound = "not_found"
)

// Resolved is the outcome of resolving one keyword against one kind.
type Resolved struct {
	Kind    catalog.Kind
	Keyword string
	// Primary is nil when nothing matched.
	Primary    *catalog.Entry
	Alternates []catalog.Entry
	Match      MatchKind
	// FallbackURL is set for diagram lookups without a primary.
	FallbackURL string
}

// Found reports whether a primary entry was resolved.
func (r Resolved) Found() bool { return r.Primary != nil }

// Entries returns the primary followed by the alternates.
func (r Resolved) Entries() []catalog.Entry {
	if r.Primary == nil {
		return nil
	}
	return append([]catalog.Entry{*r.Primary}, r.Alternates...)
}

// Outcome classifies the result for lookup event logging.
func (r Resolved) Outcome() string {
	switch {
	case r.Primary != nil:
		return OutcomeResolved
	case r.FallbackURL != "":
		return OutcomeFallback
	default:
		return OutcomeNotFound
	}
}

// Resolver resolves keywords against a catalog store. It only reads the
// store and is safe for concurrent use.
type Resolver struct {
	catalog *catalog.Store
}

// New creates a Resolver over store.
func New(store *catalog.Store) *Resolver {
	return &Resolver{catalog: store}
}

// DefaultMax returns the default result count for kind.
func DefaultMax(kind catalog.Kind) int {
	switch kind {
	case catalog.KindDiagram:
		return DefaultMaxDiagrams
	case catalog.KindVideo:
		return DefaultMaxVideos
	default:
		return DefaultMaxLessons
	}
}

// Lessons resolves keyword against the lesson catalog.
func (r *Resolver) Lessons(keyword string, max int) Resolved {
	return r.resolve(r.catalog.Lessons(), keyword, max)
}

// Diagrams resolves keyword against the interactive diagram catalog.
func (r *Resolver) Diagrams(keyword string, max int) Resolved {
	return r.resolve(r.catalog.Diagrams(), keyword, max)
}

// Videos resolves keyword against the video catalog.
func (r *Resolver) Videos(keyword string, max int) Resolved {
	return r.resolve(r.catalog.Videos(), keyword, max)
}

// Resolve resolves keyword against the catalog of the given kind. A
// non-positive max uses the kind's default.
func (r *Resolver) Resolve(kind catalog.Kind, keyword string, max int) (Resolved, error) {
	t, err := r.catalog.Table(kind)
	if err != nil {
		return Resolved{}, err
	}
	return r.resolve(t, keyword, max), nil
}

func (r *Resolver) resolve(t *catalog.Table, keyword string, max int) Resolved {
	kind := t.Kind()
	if max <= 0 {
		max = DefaultMax(kind)
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	res := Resolved{Kind: kind, Keyword: keyword, Match: MatchNone}
	if keyword != "" {
		bucket, match := partition(t.Entries(), keyword)
		if len(bucket) > 0 {
			if len(bucket) > max {
				bucket = bucket[:max]
			}
			if kind == catalog.KindDiagram {
				for i := range bucket {
					if bucket[i].URL == "" {
						bucket[i].URL = DiagramURL(bucket[i].ID)
					}
				}
			}
			res.Primary = &bucket[0]
			res.Alternates = bucket[1:]
			res.Match = match
		}
	}

	if res.Primary == nil && kind == catalog.KindDiagram {
		res.FallbackURL = DiagramFallbackURL
	}
	return res
}

// partition returns the exact matches when there are any, else the fuzzy
// matches, in catalog order. The returned entries are copies.
func partition(entries []catalog.Entry, keyword string) ([]catalog.Entry, MatchKind) {
	var exact, near []catalog.Entry
	for _, e := range entries {
		switch {
		case e.HasKeyword(keyword):
			exact = append(exact, e)
		case len(exact) == 0 && fuzzy.MatchAny(keyword, e.Keywords):
			near = append(near, e)
		}
	}
	if len(exact) > 0 {
		return exact, MatchExact
	}
	if len(near) > 0 {
		return near, MatchFuzzy
	}
	return nil, MatchNone
}

// DiagramURL is the public page of an interactive diagram.
func DiagramURL(id string) string {
	return fmt.Sprintf(diagramURLTemplate, id)
}

// ComputationLink is a computation engine query for keyword, or "" for an
// empty keyword.
func ComputationLink(keyword string) string {
	if strings.TrimSpace(keyword) == "" {
		return ""
	}
	return fmt.Sprintf(computationURLTemplate, url.QueryEscape(keyword))
}
