package navdata

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rustnav/rustnav/internal/config"
)

// maxModules caps the recursive sidebar walk. Crates with more modules than
// this exist (windows-sys) but are not worth walking exhaustively.
const maxModules = 512

type Fetcher struct {
	base      string
	userAgent string
	client    *http.Client
}

func NewFetcher(cfg config.FetchConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://docs.rs"
	}
	return &Fetcher{
		base:      strings.TrimSuffix(base, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// CrateIdent converts a Cargo package name to the rustdoc directory name
// (hyphens become underscores).
func CrateIdent(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// FetchSidebar downloads the sidebar fragment for one module of a crate.
// modulePath is relative to the crate root ("" fetches the root module).
// The version "latest" is resolved by docs.rs via redirect; the resolved
// version is read back from the final URL.
func (f *Fetcher) FetchSidebar(name, version, modulePath string) ([]byte, string, error) {
	if version == "" {
		version = "latest"
	}

	segments := []string{CrateIdent(name)}
	if modulePath != "" {
		segments = append(segments, strings.Split(modulePath, "::")...)
	}
	url := fmt.Sprintf("%s/%s/%s/%s/sidebar-items.js", f.base, name, version, strings.Join(segments, "/"))

	data, finalURL, err := f.get(url)
	if err != nil {
		return nil, "", err
	}
	return data, resolveVersion(finalURL, version), nil
}

// FetchTraitImpl downloads the trait-impl fragment for one trait, trying the
// current trait.impl/ layout first and falling back to the pre-1.71
// implementors/ layout.
func (f *Fetcher) FetchTraitImpl(name, version, traitPath string) ([]byte, string, error) {
	if version == "" {
		version = "latest"
	}

	segments := strings.Split(traitPath, "::")
	if len(segments) < 2 {
		return nil, "", fmt.Errorf("trait path %q needs at least a module and a trait", traitPath)
	}
	dir := strings.Join(segments[:len(segments)-1], "/")
	file := "trait." + segments[len(segments)-1] + ".js"

	for _, layout := range []string{"trait.impl", "implementors"} {
		url := fmt.Sprintf("%s/%s/%s/%s/%s/%s", f.base, name, version, layout, dir, file)
		data, finalURL, err := f.get(url)
		if err == nil {
			return data, resolveVersion(finalURL, version), nil
		}
		if !isNotFound(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no trait-impl fragment for %s in %s@%s", traitPath, name, version)
}

// WalkSidebars fetches the root sidebar and recursively the sidebars of every
// module it lists. progress may be nil.
func (f *Fetcher) WalkSidebars(name, version string, progress func(string)) ([]ModuleSidebar, string, error) {
	if progress == nil {
		progress = func(string) {}
	}

	root := CrateIdent(name)
	data, resolved, err := f.FetchSidebar(name, version, "")
	if err != nil {
		return nil, "", fmt.Errorf("fetching root sidebar: %w", err)
	}
	sidebar, err := ParseSidebar(data, root)
	if err != nil {
		return nil, "", fmt.Errorf("parsing root sidebar: %w", err)
	}

	sidebars := []ModuleSidebar{*sidebar}
	queue := make([]string, 0, len(sidebar.Modules()))
	for _, m := range sidebar.Modules() {
		queue = append(queue, m)
	}

	for len(queue) > 0 && len(sidebars) < maxModules {
		modPath := queue[0]
		queue = queue[1:]

		progress(fmt.Sprintf("fetching sidebar for %s::%s", root, modPath))
		data, _, err := f.FetchSidebar(name, resolved, modPath)
		if err != nil {
			// Some mod entries are re-exports with no directory of their own.
			if isNotFound(err) {
				continue
			}
			return nil, "", fmt.Errorf("fetching sidebar for %s: %w", modPath, err)
		}

		sub, err := ParseSidebar(data, root+"::"+modPath)
		if err != nil {
			return nil, "", fmt.Errorf("parsing sidebar for %s: %w", modPath, err)
		}
		sidebars = append(sidebars, *sub)

		for _, child := range sub.Modules() {
			queue = append(queue, modPath+"::"+child)
		}
	}

	return sidebars, resolved, nil
}

type httpStatusError struct {
	status int
	url    string
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.url, e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*httpStatusError)
	return ok && se.status == http.StatusNotFound
}

func (f *Fetcher) get(url string) ([]byte, string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", &httpStatusError{status: resp.StatusCode, url: url, body: string(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", url, err)
	}
	return data, resp.Request.URL.String(), nil
}

// resolveVersion extracts the real version from a post-redirect docs.rs URL,
// e.g. https://docs.rs/cosmic-text/0.12.1/cosmic_text/sidebar-items.js.
// Falls back to the requested version if the URL doesn't carry one.
func resolveVersion(finalURL, requested string) string {
	trimmed := finalURL
	if i := strings.Index(trimmed, "://"); i >= 0 {
		trimmed = trimmed[i+3:]
	}
	parts := strings.Split(trimmed, "/")
	// parts: host, crate, version, ...
	if len(parts) >= 3 && parts[2] != "" && parts[2] != "latest" {
		return parts[2]
	}
	return requested
}
