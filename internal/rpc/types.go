package rpc

import "github.com/rustnav/rustnav/internal/validate"

// AddCratesRequest is the request body for POST /add-crates.
type AddCratesRequest struct {
	Crates []CrateSpec `json:"crates"`
}

type CrateSpec struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	// Dir ingests a locally built doc tree instead of fetching from docs.rs.
	Dir string `json:"dir,omitempty"`
}

// AddCratesResponse is the response body for POST /add-crates.
type AddCratesResponse struct {
	Results []CrateResult `json:"results"`
}

type CrateResult struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Modules  int    `json:"modules"`
	Items    int    `json:"items"`
	Warnings int    `json:"warnings,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ProgressLine is a single line of NDJSON streamed from the add-crates endpoint.
type ProgressLine struct {
	Type    string       `json:"type"` // "progress" or "result"
	Message string       `json:"message,omitempty"`
	Result  *CrateResult `json:"result,omitempty"`
}

// SidebarRequest is the request body for POST /sidebar. Module addresses a
// module directly; Item (optionally narrowed by Kind) resolves an item's home
// module first and serves that module's sidebar. With neither set the crate
// root is served.
type SidebarRequest struct {
	Crate   string `json:"crate"`
	Version string `json:"version,omitempty"`
	Module  string `json:"module,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Item    string `json:"item,omitempty"`
}

// SidebarResponse is the response body for POST /sidebar.
type SidebarResponse struct {
	Crate    string `json:"crate"`
	Version  string `json:"version"`
	Markdown string `json:"markdown"`
}

// ImplementorsRequest is the request body for POST /implementors.
type ImplementorsRequest struct {
	Crate   string `json:"crate"`
	Version string `json:"version,omitempty"`
	Trait   string `json:"trait"` // Rust path, e.g. "core::fmt::Debug"
}

// ImplementorsResponse is the response body for POST /implementors.
type ImplementorsResponse struct {
	Crate    string `json:"crate"`
	Version  string `json:"version"`
	Trait    string `json:"trait"`
	Entries  int    `json:"entries"`
	Markdown string `json:"markdown"`
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query  string   `json:"query"`
	Crates []string `json:"crates,omitempty"`
	Kinds  []string `json:"kinds,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// SearchResponse is the response body for POST /search.
type SearchResponse struct {
	Results []ItemResult `json:"results"`
}

type ItemResult struct {
	URI          string  `json:"uri"`
	CrateName    string  `json:"crate_name"`
	CrateVersion string  `json:"crate_version"`
	Module       string  `json:"module"`
	Kind         string  `json:"kind"`
	Name         string  `json:"name"`
	Summary      string  `json:"summary,omitempty"`
	Score        float32 `json:"score"`
}

// ValidateRequest is the request body for POST /validate.
type ValidateRequest struct {
	Crate   string `json:"crate"`
	Version string `json:"version,omitempty"`
	Strict  bool   `json:"strict,omitempty"`
}

// ValidateResponse is the response body for POST /validate.
type ValidateResponse struct {
	Crate    string             `json:"crate"`
	Version  string             `json:"version"`
	Findings []validate.Finding `json:"findings"`
	Passed   bool               `json:"passed"`
}

// RemoveCrateRequest is the request body for POST /remove-crate.
type RemoveCrateRequest struct {
	Crate   string `json:"crate"`
	Version string `json:"version,omitempty"` // "" removes the latest indexed version
}

// RemoveCrateResponse is the response body for POST /remove-crate.
type RemoveCrateResponse struct {
	Crate   string `json:"crate"`
	Version string `json:"version"`
}

// SearchCratesRequest is the request body for POST /search-crates.
type SearchCratesRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchCratesResponse is the response body for POST /search-crates.
type SearchCratesResponse struct {
	Results []CrateSearchResult `json:"results"`
}

type CrateSearchResult struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	MaxVersion     string `json:"max_version"`
	Downloads      int    `json:"downloads"`
	IndexedVersion string `json:"indexed_version,omitempty"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Crates []CrateStatus `json:"crates"`
}

type CrateStatus struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Items     int    `json:"items"`
	Traits    int    `json:"traits"`
	Processed bool   `json:"processed"`
}
