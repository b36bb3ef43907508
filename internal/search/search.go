// Package search ranks sidebar items against a keyword query. The corpus is
// names plus one-line summaries, so lexical ranking beats anything fancier:
// exact name, name prefix, word match, then substring, with summary matches
// trailing name matches.
package search

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rustnav/rustnav/internal/db"
	"github.com/rustnav/rustnav/internal/render"
	"github.com/rustnav/rustnav/internal/rpc"
)

type Searcher struct {
	db *db.DB
}

func NewSearcher(database *db.DB) *Searcher {
	return &Searcher{db: database}
}

const (
	scoreExactName  = 1.0
	scoreNamePrefix = 0.85
	scoreNameWord   = 0.7
	scoreNameSubstr = 0.55
	scoreSummary    = 0.35
)

// Search runs a keyword query over indexed sidebar items.
func (s *Searcher) Search(query string, crateNames, kinds []string, limit int) ([]rpc.ItemResult, error) {
	if limit <= 0 {
		limit = 20
	}
	slog.Info("search", "query", query, "limit", limit, "crates", crateNames, "kinds", kinds)

	var crateIDs []int
	if len(crateNames) > 0 {
		var err error
		crateIDs, err = s.db.GetCrateIDsByNames(crateNames)
		if err != nil {
			return nil, fmt.Errorf("resolving crate names: %w", err)
		}
		if len(crateIDs) == 0 {
			return nil, nil
		}
	}

	candidates, err := s.db.SearchItems(query, crateIDs, limit*25)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	slog.Debug("candidates fetched", "count", len(candidates))
	if len(candidates) == 0 {
		return nil, nil
	}

	kindFilter := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		kindFilter[k] = true
	}

	type scored struct {
		item  db.Item
		score float32
	}
	var ranked []scored
	for _, it := range candidates {
		if len(kindFilter) > 0 && !kindFilter[it.Kind] {
			continue
		}
		sc := Score(query, it.Name, it.SummaryText)
		if sc <= 0 {
			continue
		}
		ranked = append(ranked, scored{item: it, score: sc})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item.Name < ranked[j].item.Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	itemIDs := make([]int, len(ranked))
	for i, r := range ranked {
		itemIDs[i] = r.item.ID
	}
	crateMap, err := s.db.GetCratesForItems(itemIDs)
	if err != nil {
		slog.Error("batch crate lookup failed", "error", err)
		crateMap = nil
	}

	results := make([]rpc.ItemResult, 0, len(ranked))
	for _, r := range ranked {
		crateName, crateVersion := "", ""
		if c := crateMap[r.item.ID]; c != nil {
			crateName = c.Name
			crateVersion = c.Version
		}
		results = append(results, rpc.ItemResult{
			URI:          render.ItemURI(crateName, crateVersion, r.item.Kind, r.item.Name),
			CrateName:    crateName,
			CrateVersion: crateVersion,
			Module:       r.item.Module,
			Kind:         r.item.Kind,
			Name:         r.item.Name,
			Summary:      r.item.Summary,
			Score:        r.score,
		})
	}
	return results, nil
}

// Score ranks one item against a query. Returns 0 for no match.
func Score(query, name, summaryText string) float32 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	n := strings.ToLower(name)

	switch {
	case n == q:
		return scoreExactName
	case strings.HasPrefix(n, q):
		return scoreNamePrefix
	case containsWord(n, q):
		return scoreNameWord
	case strings.Contains(n, q):
		return scoreNameSubstr
	}

	s := strings.ToLower(summaryText)
	if strings.Contains(s, q) {
		score := scoreSummary
		// Whole-word summary matches edge out substring ones.
		if containsWord(s, q) {
			score += 0.1
		}
		return float32(score)
	}
	return 0
}

// containsWord reports whether q appears in s on word boundaries. Rust
// identifiers split on underscores as well as whitespace.
func containsWord(s, q string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == ':' || r == '-' || r == '.' || r == ','
	})
	for _, w := range words {
		if w == q {
			return true
		}
	}
	return false
}
