package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rustnav/rustnav/internal/cas"
	"github.com/rustnav/rustnav/internal/config"
	"github.com/rustnav/rustnav/internal/db"
	"github.com/rustnav/rustnav/internal/navdata"
	"github.com/rustnav/rustnav/internal/render"
	"github.com/rustnav/rustnav/internal/rpc"
	"github.com/rustnav/rustnav/internal/search"
	"github.com/rustnav/rustnav/internal/validate"
	"golang.org/x/sync/singleflight"
)

type versionCacheEntry struct {
	version  string // resolved real version; empty for 404s
	notFound bool
	expiry   time.Time
}

type Server struct {
	db         *db.DB
	fetcher    *navdata.Fetcher
	searcher   *search.Searcher
	converter  *render.Converter
	cfg        *config.Config
	socketPath string
	httpServer *http.Server
	listener   net.Listener

	mu         sync.Mutex
	expTimer   *time.Timer
	expiration time.Duration

	versionCache   map[string]versionCacheEntry
	versionCacheMu sync.RWMutex
	addCrateGroup  singleflight.Group
	implGroup      singleflight.Group
}

func NewServer(cfg *config.Config, database *db.DB, socketPath string) *Server {
	expSec := cfg.Daemon.ExpirationSeconds
	if expSec <= 0 {
		expSec = 600
	}

	return &Server{
		db:           database,
		fetcher:      navdata.NewFetcher(cfg.Fetch),
		searcher:     search.NewSearcher(database),
		converter:    render.NewConverter(),
		cfg:          cfg,
		socketPath:   socketPath,
		expiration:   time.Duration(expSec) * time.Second,
		versionCache: make(map[string]versionCacheEntry),
	}
}

func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("POST /add-crates", s.withExpReset(s.handleAddCrates))
	mux.HandleFunc("POST /sidebar", s.withExpReset(s.handleSidebar))
	mux.HandleFunc("POST /implementors", s.withExpReset(s.handleImplementors))
	mux.HandleFunc("POST /search", s.withExpReset(s.handleSearch))
	mux.HandleFunc("POST /validate", s.withExpReset(s.handleValidate))
	mux.HandleFunc("GET /status", s.withExpReset(s.handleStatus))
	mux.HandleFunc("POST /search-crates", s.withExpReset(s.handleSearchCrates))
	mux.HandleFunc("POST /remove-crate", s.withExpReset(s.handleRemoveCrate))
	mux.HandleFunc("POST /clear-cache", s.withExpReset(s.handleClearCache))
	mux.HandleFunc("POST /shutdown", s.handleShutdown)

	s.httpServer = &http.Server{Handler: mux}

	s.mu.Lock()
	s.expTimer = time.AfterFunc(s.expiration, s.expire)
	s.mu.Unlock()

	log.Printf("daemon: listening on %s (expires after %s of inactivity)", s.socketPath, s.expiration)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("daemon: shutdown error: %v", err)
			errs = append(errs, err)
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			log.Printf("daemon: listener close error: %v", err)
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("daemon: socket remove error: %v", err)
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		log.Printf("daemon: db close error: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) expire() {
	log.Printf("daemon: expiring due to inactivity")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	os.Exit(0)
}

func (s *Server) resetExpiration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expTimer != nil {
		s.expTimer.Stop()
		s.expTimer.Reset(s.expiration)
	}
}

func (s *Server) withExpReset(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.resetExpiration()
		handler(w, r)
	}
}

const versionCacheTTL = 10 * time.Minute

func (s *Server) getCachedVersion(name string) (versionCacheEntry, bool) {
	s.versionCacheMu.RLock()
	defer s.versionCacheMu.RUnlock()
	entry, ok := s.versionCache[name]
	if !ok || time.Now().After(entry.expiry) {
		return versionCacheEntry{}, false
	}
	return entry, true
}

func (s *Server) setCachedVersion(name, version string, notFound bool) {
	s.versionCacheMu.Lock()
	defer s.versionCacheMu.Unlock()
	s.versionCache[name] = versionCacheEntry{
		version:  version,
		notFound: notFound,
		expiry:   time.Now().Add(versionCacheTTL),
	}
}

func (s *Server) clearVersionCache() {
	s.versionCacheMu.Lock()
	defer s.versionCacheMu.Unlock()
	s.versionCache = make(map[string]versionCacheEntry)
}

func (s *Server) handleAddCrates(w http.ResponseWriter, r *http.Request) {
	var req rpc.AddCratesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(line rpc.ProgressLine) bool {
		log.Printf("daemon: %s", line.Message)
		if err := enc.Encode(line); err != nil {
			log.Printf("daemon: client disconnected: %v", err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	for _, spec := range req.Crates {
		progress := func(msg string) {
			send(rpc.ProgressLine{Type: "progress", Message: msg})
		}
		result := s.addCrate(spec, progress)
		if !send(rpc.ProgressLine{Type: "result", Result: &result}) {
			return
		}
	}
}

func (s *Server) addCrate(spec rpc.CrateSpec, progress func(string)) rpc.CrateResult {
	version := spec.Version
	if version == "" {
		if spec.Dir != "" {
			version = "local"
		} else {
			version = "latest"
		}
	}

	result := rpc.CrateResult{Name: spec.Name, Version: version}

	if spec.Dir == "" && version == "latest" {
		if entry, ok := s.getCachedVersion(spec.Name); ok {
			if entry.notFound {
				result.Error = fmt.Sprintf("crate %s not found on docs.rs (cached)", spec.Name)
				return result
			}
			existing, err := s.db.GetCrate(spec.Name, entry.version)
			if err != nil {
				result.Error = err.Error()
				return result
			}
			if existing != nil && existing.ProcessedAt != nil {
				result.Version = existing.Version
				result.Items, _ = s.db.CountItems(existing.ID)
				return result
			}
		}

		existing, err := s.db.GetLatestCrate(spec.Name)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil {
			result.Version = existing.Version
			result.Items, _ = s.db.CountItems(existing.ID)
			return result
		}
	} else if spec.Dir == "" {
		existing, err := s.db.GetCrate(spec.Name, version)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil && existing.ProcessedAt != nil {
			result.Items, _ = s.db.CountItems(existing.ID)
			return result
		}
	}

	// Singleflight: dedup concurrent ingests for the same crate@version
	key := spec.Name + "@" + version
	v, _, _ := s.addCrateGroup.Do(key, func() (interface{}, error) {
		return s.addCrateWork(spec, version, progress), nil
	})
	return v.(rpc.CrateResult)
}

func (s *Server) addCrateWork(spec rpc.CrateSpec, version string, progress func(string)) rpc.CrateResult {
	name := spec.Name
	result := rpc.CrateResult{Name: name, Version: version}

	var snap *navdata.CrateSnapshot
	if spec.Dir != "" {
		progress(fmt.Sprintf("ingesting doc tree at %s", spec.Dir))
		local, err := navdata.LoadDocDir(spec.Dir, name, version)
		if err != nil {
			result.Error = fmt.Sprintf("ingesting doc tree: %v", err)
			return result
		}
		snap = local
	} else {
		progress(fmt.Sprintf("fetching sidebars for %s@%s", name, version))
		sidebars, resolved, err := s.fetcher.WalkSidebars(name, version, progress)
		if err != nil {
			if version == "latest" {
				s.setCachedVersion(name, "", true)
			}
			result.Error = fmt.Sprintf("fetching sidebars: %v", err)
			return result
		}
		version = resolved
		result.Version = resolved
		s.setCachedVersion(name, resolved, false)

		// Resolved version may already be indexed under its real number.
		existing, err := s.db.GetCrate(name, resolved)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil && existing.ProcessedAt != nil {
			result.Items, _ = s.db.CountItems(existing.ID)
			return result
		}

		snap = &navdata.CrateSnapshot{Name: name, Version: resolved, Sidebars: sidebars}
	}

	findings := validate.Snapshot(snap, validate.Options{Strict: s.cfg.Validate.Strict})
	if validate.HasErrors(findings) {
		for _, f := range findings {
			if f.Severity == validate.SeverityError {
				log.Printf("daemon: %s: [%s] %s: %s", name, f.Check, f.Location, f.Message)
			}
		}
		result.Error = fmt.Sprintf("snapshot failed validation with %d findings", len(findings))
		return result
	}
	result.Warnings = len(findings)

	if err := navdata.SaveSnapshotCache(snap); err != nil {
		log.Printf("daemon: failed to cache snapshot for %s@%s: %v", name, version, err)
	}

	crate, err := s.db.UpsertCrate(name, version)
	if err != nil {
		result.Error = fmt.Sprintf("upserting crate: %v", err)
		return result
	}
	s.db.MarkCrateFetched(crate.ID)

	items := itemRows(snap)
	progress(fmt.Sprintf("indexing %d items across %d modules", len(items), len(snap.Sidebars)))
	if err := s.db.ReplaceItems(crate.ID, items); err != nil {
		result.Error = fmt.Sprintf("indexing items: %v", err)
		return result
	}

	s.db.DeleteImplsByCrate(crate.ID)
	for i := range snap.Impls {
		if err := s.storeImplSet(crate.ID, &snap.Impls[i]); err != nil {
			log.Printf("daemon: failed to store impls for %s: %v", snap.Impls[i].TraitPath, err)
		}
	}

	s.db.MarkCrateProcessed(crate.ID)
	result.Modules = len(snap.Sidebars)
	result.Items = len(items)
	progress(fmt.Sprintf("finished indexing %s@%s (%d items)", name, version, len(items)))
	return result
}

// itemRows flattens a snapshot's sidebars into DB rows, preserving the
// fragments' presentation order.
func itemRows(snap *navdata.CrateSnapshot) []db.Item {
	var items []db.Item
	for _, sb := range snap.Sidebars {
		for gi, g := range sb.Groups {
			for ii, it := range g.Items {
				items = append(items, db.Item{
					Module:      sb.Module,
					Kind:        g.Kind,
					GroupOrd:    gi,
					Ord:         ii,
					Name:        it.Name,
					Summary:     it.Summary,
					SummaryText: render.SummaryText(it.Summary),
				})
			}
		}
	}
	return items
}

func (s *Server) storeImplSet(crateID int, set *navdata.ImplementorSet) error {
	entries := make([]db.ImplEntry, 0, len(set.Entries))
	for i, e := range set.Entries {
		hash, err := cas.Write(e.RawMarkup)
		if err != nil {
			return fmt.Errorf("writing markup to CAS: %w", err)
		}
		entries = append(entries, db.ImplEntry{
			Library:    e.Library,
			Ord:        i,
			ImplType:   e.ImplType,
			MarkupHash: hash,
		})
	}
	return s.db.ReplaceTraitImpls(crateID, set.TraitPath, entries)
}

// resolveOrFetchCrate looks up a crate, resolving "latest" and auto-ingesting
// if needed.
func (s *Server) resolveOrFetchCrate(name, version string) (*db.Crate, error) {
	if version == "latest" || version == "" {
		existing, err := s.db.GetLatestCrate(name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	} else {
		existing, err := s.db.GetCrate(name, version)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ProcessedAt != nil {
			return existing, nil
		}
	}

	result := s.addCrate(rpc.CrateSpec{Name: name, Version: version}, func(msg string) {
		log.Printf("auto-fetch: %s", msg)
	})
	if result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}

	return s.db.GetCrate(name, result.Version)
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	var req rpc.SidebarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	crate, err := s.resolveOrFetchCrate(req.Crate, req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", req.Crate, req.Version))
		return
	}
	s.db.TouchCrate(crate.ID)

	module := navdata.CrateIdent(req.Crate)
	if req.Module != "" {
		module = module + "::" + req.Module
	}
	if req.Item != "" {
		// Resolve the item's home module; search URIs carry kind/name, not
		// the module path.
		it, err := s.db.FindItem(crate.ID, req.Kind, req.Item)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if it == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("item %s not found in %s@%s", req.Item, crate.Name, crate.Version))
			return
		}
		module = it.Module
	}

	items, err := s.db.ListItems(crate.ID, module)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("module %s not found in %s@%s", module, crate.Name, crate.Version))
		return
	}

	sidebar := sidebarFromRows(module, items)
	writeJSON(w, http.StatusOK, rpc.SidebarResponse{
		Crate:    crate.Name,
		Version:  crate.Version,
		Markdown: render.Sidebar(crate.Name, crate.Version, sidebar),
	})
}

// sidebarFromRows reassembles a ModuleSidebar from its stored rows, which
// arrive ordered by (group_ord, ord).
func sidebarFromRows(module string, items []db.Item) *navdata.ModuleSidebar {
	sidebar := &navdata.ModuleSidebar{Module: module}
	for _, it := range items {
		if n := len(sidebar.Groups); n == 0 || sidebar.Groups[n-1].Kind != it.Kind {
			sidebar.Groups = append(sidebar.Groups, navdata.SidebarGroup{Kind: it.Kind})
		}
		g := &sidebar.Groups[len(sidebar.Groups)-1]
		g.Items = append(g.Items, navdata.SidebarItem{Name: it.Name, Summary: it.Summary})
	}
	return sidebar
}

func (s *Server) handleImplementors(w http.ResponseWriter, r *http.Request) {
	var req rpc.ImplementorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Trait == "" {
		writeError(w, http.StatusBadRequest, "missing trait")
		return
	}

	crate, err := s.resolveOrFetchCrate(req.Crate, req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", req.Crate, req.Version))
		return
	}
	s.db.TouchCrate(crate.ID)

	set, err := s.implementorSet(crate, req.Trait)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if set == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no implementors of %s in %s@%s", req.Trait, crate.Name, crate.Version))
		return
	}

	markdown, err := s.converter.Implementors(set, fmt.Sprintf("%s/%s/%s", s.cfg.Fetch.BaseURL, crate.Name, crate.Version))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rpc.ImplementorsResponse{
		Crate:    crate.Name,
		Version:  crate.Version,
		Trait:    req.Trait,
		Entries:  len(set.Entries),
		Markdown: markdown,
	})
}

// implementorSet returns the stored entries for a trait, fetching and
// indexing the fragment on first request. Returns nil when the trait has no
// fragment upstream.
func (s *Server) implementorSet(crate *db.Crate, traitPath string) (*navdata.ImplementorSet, error) {
	entries, err := s.db.ListTraitImpls(crate.ID, traitPath)
	if err != nil {
		return nil, fmt.Errorf("listing impl entries: %w", err)
	}

	if len(entries) == 0 {
		key := fmt.Sprintf("%d/%s", crate.ID, traitPath)
		_, err, _ := s.implGroup.Do(key, func() (interface{}, error) {
			data, _, err := s.fetcher.FetchTraitImpl(crate.Name, crate.Version, traitPath)
			if err != nil {
				return nil, err
			}
			set, err := navdata.ParseImplementors(data, traitPath)
			if err != nil {
				return nil, fmt.Errorf("parsing trait-impl fragment: %w", err)
			}
			findings := validate.Implementors(set, validate.Options{Strict: s.cfg.Validate.Strict})
			for _, f := range findings {
				log.Printf("daemon: %s: [%s] %s: %s", crate.Name, f.Check, f.Location, f.Message)
			}
			if validate.HasErrors(findings) {
				return nil, fmt.Errorf("trait-impl fragment for %s failed validation with %d findings", traitPath, len(findings))
			}
			return nil, s.storeImplSet(crate.ID, set)
		})
		if err != nil {
			return nil, err
		}
		entries, err = s.db.ListTraitImpls(crate.ID, traitPath)
		if err != nil {
			return nil, fmt.Errorf("listing impl entries: %w", err)
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	set := &navdata.ImplementorSet{TraitPath: traitPath}
	seen := make(map[string]bool)
	for _, e := range entries {
		markup, err := cas.Read(e.MarkupHash)
		if err != nil {
			return nil, fmt.Errorf("reading markup for %s: %w", e.Library, err)
		}
		if !seen[e.Library] {
			seen[e.Library] = true
			set.Libraries = append(set.Libraries, e.Library)
		}
		set.Entries = append(set.Entries, navdata.ImplementorEntry{
			Library:   e.Library,
			ImplType:  e.ImplType,
			RawMarkup: markup,
		})
	}
	return set, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req rpc.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}

	results, err := s.searcher.Search(req.Query, req.Crates, req.Kinds, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rpc.SearchResponse{Results: results})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req rpc.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	crate, err := s.resolveOrFetchCrate(req.Crate, req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", req.Crate, req.Version))
		return
	}

	snap, err := s.snapshotForCrate(crate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	findings := validate.Snapshot(snap, validate.Options{Strict: req.Strict || s.cfg.Validate.Strict})
	writeJSON(w, http.StatusOK, rpc.ValidateResponse{
		Crate:    crate.Name,
		Version:  crate.Version,
		Findings: findings,
		Passed:   !validate.HasErrors(findings),
	})
}

// snapshotForCrate rebuilds a validation snapshot from the store: sidebars
// from the index rows, impl sets from the entry rows plus CAS markup.
func (s *Server) snapshotForCrate(crate *db.Crate) (*navdata.CrateSnapshot, error) {
	if navdata.HasSnapshotCache(crate.Name, crate.Version) {
		if snap, err := navdata.LoadSnapshotCache(crate.Name, crate.Version); err == nil {
			return snap, nil
		}
	}

	items, err := s.db.ListItems(crate.ID, "")
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	snap := &navdata.CrateSnapshot{Name: crate.Name, Version: crate.Version}
	byModule := make(map[string]int)
	for _, it := range items {
		idx, ok := byModule[it.Module]
		if !ok {
			snap.Sidebars = append(snap.Sidebars, navdata.ModuleSidebar{Module: it.Module})
			idx = len(snap.Sidebars) - 1
			byModule[it.Module] = idx
		}
		sb := &snap.Sidebars[idx]
		if n := len(sb.Groups); n == 0 || sb.Groups[n-1].Kind != it.Kind {
			sb.Groups = append(sb.Groups, navdata.SidebarGroup{Kind: it.Kind})
		}
		g := &sb.Groups[len(sb.Groups)-1]
		g.Items = append(g.Items, navdata.SidebarItem{Name: it.Name, Summary: it.Summary})
	}

	traits, err := s.db.ListTraits(crate.ID)
	if err != nil {
		return nil, fmt.Errorf("listing traits: %w", err)
	}
	for _, traitPath := range traits {
		set, err := s.implementorSet(crate, traitPath)
		if err != nil {
			return nil, err
		}
		if set != nil {
			snap.Impls = append(snap.Impls, *set)
		}
	}

	return snap, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	crates, err := s.db.ListCrates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var status []rpc.CrateStatus
	for _, c := range crates {
		items, _ := s.db.CountItems(c.ID)
		traits, _ := s.db.ListTraits(c.ID)
		status = append(status, rpc.CrateStatus{
			Name:      c.Name,
			Version:   c.Version,
			Items:     items,
			Traits:    len(traits),
			Processed: c.ProcessedAt != nil,
		})
	}

	writeJSON(w, http.StatusOK, rpc.StatusResponse{Crates: status})
}

func (s *Server) handleSearchCrates(w http.ResponseWriter, r *http.Request) {
	var req rpc.SearchCratesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}

	cratesIO, err := s.fetcher.SearchCratesIO(req.Query, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	names := make([]string, len(cratesIO))
	for i, c := range cratesIO {
		names[i] = c.Name
	}

	indexed, err := s.db.GetIndexedVersions(names)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]rpc.CrateSearchResult, len(cratesIO))
	for i, c := range cratesIO {
		results[i] = rpc.CrateSearchResult{
			Name:           c.Name,
			Description:    c.Description,
			MaxVersion:     c.MaxVersion,
			Downloads:      c.Downloads,
			IndexedVersion: indexed[c.Name],
		}
	}

	writeJSON(w, http.StatusOK, rpc.SearchCratesResponse{Results: results})
}

func (s *Server) handleRemoveCrate(w http.ResponseWriter, r *http.Request) {
	var req rpc.RemoveCrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Crate == "" {
		writeError(w, http.StatusBadRequest, "missing crate")
		return
	}

	var crate *db.Crate
	var err error
	if req.Version == "" {
		crate, err = s.db.GetLatestCrate(req.Crate)
	} else {
		crate, err = s.db.GetCrate(req.Crate, req.Version)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not indexed", req.Crate, req.Version))
		return
	}

	if err := s.db.DeleteCrate(crate.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := navdata.RemoveSnapshotCache(crate.Name, crate.Version); err != nil {
		log.Printf("daemon: failed to drop snapshot cache for %s@%s: %v", crate.Name, crate.Version, err)
	}
	log.Printf("daemon: removed %s@%s", crate.Name, crate.Version)

	writeJSON(w, http.StatusOK, rpc.RemoveCrateResponse{Crate: crate.Name, Version: crate.Version})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.clearVersionCache()
	log.Printf("daemon: version cache cleared")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
		os.Exit(0)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
