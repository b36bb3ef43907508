package search

import (
	"path/filepath"
	"testing"

	"github.com/rustnav/rustnav/internal/db"
)

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		item    string
		summary string
		want    float32
	}{
		{"exact", "attrs", "Attrs", "", scoreExactName},
		{"prefix", "attrs", "AttrsList", "", scoreNamePrefix},
		{"word in identifier", "family", "font_family", "", scoreNameWord},
		{"substring", "trs", "Attrs", "", scoreNameSubstr},
		{"summary word", "family", "Weight", "A font family.", scoreSummary + 0.1},
		{"summary substring", "amil", "Weight", "A font family.", scoreSummary},
		{"no match", "zzz", "Attrs", "Text attributes.", 0},
		{"empty query", "", "Attrs", "", 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Score(tt.query, tt.item, tt.summary); got != tt.want {
				t.Errorf("Score(%q, %q, %q) = %v, want %v", tt.query, tt.item, tt.summary, got, tt.want)
			}
		})
	}
}

func TestScoreOrdering(t *testing.T) {
	t.Parallel()

	// Name rungs strictly dominate summary rungs.
	exact := Score("color", "Color", "")
	prefix := Score("color", "ColorSpan", "")
	summary := Score("color", "Attrs", "Text color.")
	if !(exact > prefix && prefix > summary && summary > 0) {
		t.Errorf("ordering broken: exact=%v prefix=%v summary=%v", exact, prefix, summary)
	}
}

func TestSearch(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	c, err := database.UpsertCrate("cosmic-text", "0.12.1")
	if err != nil {
		t.Fatal(err)
	}
	items := []db.Item{
		{Module: "cosmic_text", Kind: "enum", GroupOrd: 0, Ord: 0, Name: "Family", Summary: "A font family.", SummaryText: "A font family."},
		{Module: "cosmic_text", Kind: "struct", GroupOrd: 1, Ord: 0, Name: "FamilyOwned", Summary: "An owned version of [`Family`]", SummaryText: "An owned version of Family"},
		{Module: "cosmic_text", Kind: "struct", GroupOrd: 1, Ord: 1, Name: "Attrs", Summary: "Text attributes.", SummaryText: "Text attributes."},
	}
	if err := database.ReplaceItems(c.ID, items); err != nil {
		t.Fatal(err)
	}

	s := NewSearcher(database)

	results, err := s.Search("family", nil, nil, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Exact name outranks prefix.
	if results[0].Name != "Family" || results[1].Name != "FamilyOwned" {
		t.Errorf("ranking = %s, %s", results[0].Name, results[1].Name)
	}
	if results[0].CrateName != "cosmic-text" || results[0].CrateVersion != "0.12.1" {
		t.Errorf("crate identity = %s@%s", results[0].CrateName, results[0].CrateVersion)
	}
	if results[0].URI != "rsnav://cosmic-text/0.12.1/enum/Family" {
		t.Errorf("uri = %q", results[0].URI)
	}

	// Kind filter.
	results, err = s.Search("family", nil, []string{"struct"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "FamilyOwned" {
		t.Errorf("kind-filtered results = %+v", results)
	}

	// Unknown crate filter matches nothing.
	results, err = s.Search("family", []string{"absent"}, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for unknown crate", len(results))
	}
}
