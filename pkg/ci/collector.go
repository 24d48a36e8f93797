// Package ci collects build-artifact metadata from the CI provider.
//
// The Collector resolves project → build → job → artifact list, downloads
// per-artifact checksums, classifies artifacts by platform, and extracts the
// two version strings an aggregation run needs: the canonical build version
// embedded in the windows x86 zip's file name, and the template version
// buried inside that zip.
//
// Project, job, artifact-list, and template-version lookups are memoized in
// a shared process-wide store: one fetch per key, ever. Checksums are fetched
// fresh on every run since a run needs each checksum exactly once.
package ci

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/funcfeed/funcfeed/pkg/errors"
	"github.com/funcfeed/funcfeed/pkg/httputil"
	"github.com/funcfeed/funcfeed/pkg/memo"
)

// checksumSuffix names the sidecar file holding an artifact's checksum.
const checksumSuffix = ".sha2"

// Collector is the memoized client for the CI provider's REST API.
type Collector struct {
	client  *httputil.Client
	baseURL string
	account string

	// templatePrefix is the name prefix of the single archive entry that
	// carries the template version.
	templatePrefix string

	projects  *memo.Memo[*Project]
	jobs      *memo.Memo[[]Job]
	artifacts *memo.Memo[[]Artifact]
	templates *memo.Memo[string]
}

// Config holds the Collector's connection settings.
type Config struct {
	// BaseURL is the CI provider root, e.g. "https://ci.appveyor.com".
	BaseURL string

	// Account is the provider account that owns the projects.
	Account string

	// Token is the bearer credential for all outbound calls.
	Token string

	// TemplatePrefix is the archive-entry prefix for template-version
	// extraction, e.g. "itemTemplates.".
	TemplatePrefix string
}

// NewCollector creates a Collector backed by the given memoization store.
// The store is shared across components; the Collector namespaces its keys.
func NewCollector(cfg Config, store *memo.Store) *Collector {
	headers := map[string]string{"Accept": "application/json"}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}

	return &Collector{
		client:         httputil.NewClient(headers),
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		account:        cfg.Account,
		templatePrefix: cfg.TemplatePrefix,
		projects:       memo.NewMemo[*Project](store, "ci:project:"),
		jobs:           memo.NewMemo[[]Job](store, "ci:jobs:"),
		artifacts:      memo.NewMemo[[]Artifact](store, "ci:artifacts:"),
		templates:      memo.NewMemo[string](store, "ci:template:"),
	}
}

// Client exposes the underlying HTTP client so callers can tune it (tests,
// retry attempts).
func (c *Collector) Client() *httputil.Client { return c.client }

// ProjectByName returns the project whose name or slug matches name,
// case-insensitively. When an account is configured, projects owned by other
// accounts are skipped. A missing project is (nil, nil), not an error.
// Memoized by account and name.
func (c *Collector) ProjectByName(ctx context.Context, name string) (*Project, error) {
	key := strings.ToLower(c.account + "/" + name)
	return c.projects.Do(ctx, key, func() (*Project, error) {
		var all projectsResponse
		url := fmt.Sprintf("%s/api/projects", c.baseURL)
		if err := c.client.GetJSON(ctx, url, &all); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUpstreamHTTP, err, "listing projects")
		}
		for i := range all {
			if c.account != "" && !strings.EqualFold(all[i].AccountName, c.account) {
				continue
			}
			if strings.EqualFold(all[i].Name, name) || strings.EqualFold(all[i].Slug, name) {
				return &all[i], nil
			}
		}
		return nil, nil
	})
}

// JobsForBuild returns the jobs of the build identified by (project, version).
// Memoized by the composed key.
func (c *Collector) JobsForBuild(ctx context.Context, project *Project, buildVersion string) ([]Job, error) {
	key := project.AccountName + "/" + project.Slug + "/" + buildVersion
	return c.jobs.Do(ctx, key, func() ([]Job, error) {
		var resp buildResponse
		url := fmt.Sprintf("%s/api/projects/%s/%s/build/%s", c.baseURL, project.AccountName, project.Slug, buildVersion)
		if err := c.client.GetJSON(ctx, url, &resp); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUpstreamHTTP, err, "fetching build %s", buildVersion)
		}
		return resp.Build.Jobs, nil
	})
}

// Artifacts returns the artifact list of a job. The list is immutable once
// fetched; memoized by job id.
func (c *Collector) Artifacts(ctx context.Context, jobID string) ([]Artifact, error) {
	return c.artifacts.Do(ctx, jobID, func() ([]Artifact, error) {
		var list []Artifact
		url := fmt.Sprintf("%s/api/buildjobs/%s/artifacts", c.baseURL, jobID)
		if err := c.client.GetJSON(ctx, url, &list); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUpstreamHTTP, err, "listing artifacts of job %s", jobID)
		}
		return list, nil
	})
}

// Checksum downloads the sidecar checksum of an artifact and strips the
// literal dashes the upstream format embeds. Never memoized: a run needs
// each checksum exactly once.
func (c *Collector) Checksum(ctx context.Context, jobID, fileName string) (string, error) {
	url := c.artifactURL(jobID, fileName+checksumSuffix)
	raw, err := c.client.GetText(ctx, url)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUpstreamHTTP, err, "fetching checksum of %s", fileName)
	}
	return strings.TrimSpace(strings.ReplaceAll(raw, "-", "")), nil
}

// TemplateVersion downloads the named zip artifact, locates the single
// archive entry whose name starts with the configured prefix, and derives
// the template version by removing the prefix and the trailing file
// extension. The decompression is expensive, so the result is memoized per
// job id.
func (c *Collector) TemplateVersion(ctx context.Context, jobID, artifactName string) (string, error) {
	return c.templates.Do(ctx, jobID, func() (string, error) {
		data, err := c.client.GetBytes(ctx, c.artifactURL(jobID, artifactName))
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeUpstreamHTTP, err, "downloading artifact %s", artifactName)
		}

		archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeUpstreamStructure, err, "artifact %s is not a zip archive", artifactName)
		}

		var matches []string
		for _, f := range archive.File {
			if strings.HasPrefix(path.Base(f.Name), c.templatePrefix) {
				matches = append(matches, path.Base(f.Name))
			}
		}
		switch len(matches) {
		case 1:
			// Fall through to extraction below.
		case 0:
			return "", errors.New(errors.ErrCodeUpstreamStructure,
				"no entry with prefix %q in %s", c.templatePrefix, artifactName)
		default:
			return "", errors.New(errors.ErrCodeUpstreamStructure,
				"%d entries with prefix %q in %s, expected exactly one", len(matches), c.templatePrefix, artifactName)
		}

		name := matches[0]
		return strings.TrimSuffix(strings.TrimPrefix(name, c.templatePrefix), path.Ext(name)), nil
	})
}

func (c *Collector) artifactURL(jobID, fileName string) string {
	return fmt.Sprintf("%s/api/buildjobs/%s/artifacts/%s", c.baseURL, jobID, fileName)
}
