// Package registry queries package registries for the newest published
// versions of a set of packages.
//
// Each registry is self-describing: its index document lists resources by
// type, and the probe discovers the search endpoint from it rather than
// hard-coding per-registry URLs. Lookups fan out concurrently across every
// (registry, package) pair.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/funcfeed/funcfeed/pkg/errors"
	"github.com/funcfeed/funcfeed/pkg/httputil"
)

// searchServiceType is the declared resource type of a registry's
// search service.
const searchServiceType = "SearchQueryService"

// Source is one configured registry.
type Source struct {
	// Name identifies the registry in reports (e.g. "nuget.org").
	Name string `toml:"name"`

	// IndexURL is the registry's self-description document.
	IndexURL string `toml:"index_url"`

	// GalleryURLTemplate optionally builds a human-facing detail page for a
	// package; it must contain one %s verb for the package name.
	GalleryURLTemplate string `toml:"gallery_url_template"`
}

// PackageReport is the probe's per-package result. A package that is simply
// absent from the registry has empty version fields; absence is not an error.
type PackageReport struct {
	Name              string `json:"name"`
	Version           string `json:"version,omitempty"`
	PrereleaseVersion string `json:"prereleaseVersion,omitempty"`
	GalleryURL        string `json:"galleryUrl,omitempty"`
}

// SourceReport groups package results per registry.
type SourceReport struct {
	Source   string          `json:"source"`
	Packages []PackageReport `json:"packages"`
}

// indexDocument is the registry self-description payload.
type indexDocument struct {
	Resources []indexResource `json:"resources"`
}

type indexResource struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
}

// searchResponse is the search endpoint payload.
type searchResponse struct {
	Data []searchResult `json:"data"`
}

type searchResult struct {
	Versions []searchVersion `json:"versions"`
}

type searchVersion struct {
	Version string `json:"version"`
}

// Probe queries all configured sources for all configured packages.
type Probe struct {
	client   *httputil.Client
	sources  []Source
	packages []string
}

// NewProbe creates a Probe over the given sources and package names.
func NewProbe(sources []Source, packages []string) *Probe {
	return &Probe{
		client:   httputil.NewClient(map[string]string{"Accept": "application/json"}),
		sources:  sources,
		packages: packages,
	}
}

// Client exposes the underlying HTTP client for tuning (tests, retries).
func (p *Probe) Client() *httputil.Client { return p.client }

// ResolveSearchEndpoint fetches a registry's index document and returns the
// address of its search service. A registry without one is a structural
// failure.
func (p *Probe) ResolveSearchEndpoint(ctx context.Context, indexURL string) (string, error) {
	var doc indexDocument
	if err := p.client.GetJSON(ctx, indexURL, &doc); err != nil {
		return "", errors.Wrap(errors.ErrCodeUpstreamHTTP, err, "fetching registry index %s", indexURL)
	}
	for _, r := range doc.Resources {
		if strings.HasPrefix(r.Type, searchServiceType) {
			return r.ID, nil
		}
	}
	return "", errors.New(errors.ErrCodeUpstreamStructure,
		"registry index %s declares no %s resource", indexURL, searchServiceType)
}

// LatestVersion returns the newest version of pkg known to the search
// endpoint, or "" when the registry has no such package.
//
// The maximum is picked by plain ascending sort over the returned version
// strings; registries return fully numeric semantic versions for which that
// is sufficient.
func (p *Probe) LatestVersion(ctx context.Context, searchEndpoint, pkg string, includePrerelease bool) (string, error) {
	url := fmt.Sprintf("%s?q=PackageId:%s&prerelease=%t", searchEndpoint, pkg, includePrerelease)

	var resp searchResponse
	if err := p.client.GetJSON(ctx, url, &resp); err != nil {
		return "", errors.Wrap(errors.ErrCodeUpstreamHTTP, err, "searching for %s", pkg)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}

	var versions []string
	for _, d := range resp.Data {
		for _, v := range d.Versions {
			versions = append(versions, v.Version)
		}
	}
	if len(versions) == 0 {
		return "", nil
	}
	sort.Strings(versions)
	return versions[len(versions)-1], nil
}

// Collect fans out across every (source, package) pair concurrently and
// assembles one report per source with one entry per package.
//
// The failure policy is fail-fast: the first failing lookup cancels the rest
// and fails the whole call. There is no partial-success mode.
func (p *Probe) Collect(ctx context.Context, includePrerelease bool) ([]SourceReport, error) {
	reports := make([]SourceReport, len(p.sources))

	g, gctx := errgroup.WithContext(ctx)
	for si, src := range p.sources {
		si, src := si, src
		reports[si] = SourceReport{
			Source:   src.Name,
			Packages: make([]PackageReport, len(p.packages)),
		}

		g.Go(func() error {
			endpoint, err := p.ResolveSearchEndpoint(gctx, src.IndexURL)
			if err != nil {
				return err
			}

			pg, pctx := errgroup.WithContext(gctx)
			for pi, pkg := range p.packages {
				pi, pkg := pi, pkg
				pg.Go(func() error {
					report, err := p.lookup(pctx, endpoint, src, pkg, includePrerelease)
					if err != nil {
						return err
					}
					reports[si].Packages[pi] = report
					return nil
				})
			}
			return pg.Wait()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (p *Probe) lookup(ctx context.Context, endpoint string, src Source, pkg string, includePrerelease bool) (PackageReport, error) {
	report := PackageReport{Name: pkg}

	stable, err := p.LatestVersion(ctx, endpoint, pkg, false)
	if err != nil {
		return report, err
	}
	report.Version = stable

	if includePrerelease {
		pre, err := p.LatestVersion(ctx, endpoint, pkg, true)
		if err != nil {
			return report, err
		}
		report.PrereleaseVersion = pre
	}

	if src.GalleryURLTemplate != "" && (report.Version != "" || report.PrereleaseVersion != "") {
		report.GalleryURL = fmt.Sprintf(src.GalleryURLTemplate, pkg)
	}
	return report, nil
}
