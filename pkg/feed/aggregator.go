package feed

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/funcfeed/funcfeed/pkg/ci"
	"github.com/funcfeed/funcfeed/pkg/errors"
	"github.com/funcfeed/funcfeed/pkg/httputil"
)

// artifactsPathPrefix is the CI-side directory prefix stripped from file
// names when building CDN download links.
const artifactsPathPrefix = "artifacts/"

// noRuntimeMarker tags the framework-dependent zip that is excluded from the
// standalone CLI array.
const noRuntimeMarker = "no-runtime"

// Config holds the Aggregator's settings.
type Config struct {
	// ProjectName is the CI project whose builds feed the document.
	ProjectName string

	// FeedURL is the published feed document.
	FeedURL string

	// CDNRoot is the download-link root; links are built as
	// <CDNRoot>/<version>/<fileName>.
	CDNRoot string

	// ItemTemplateURLTemplate and ProjectTemplateURLTemplate build the two
	// template package links; each must contain one %s verb for the
	// template version.
	ItemTemplateURLTemplate    string
	ProjectTemplateURLTemplate string
}

// Aggregator orchestrates one run: collect artifacts from CI, fetch the
// existing feed, and overlay the fresh values onto its most recent release.
type Aggregator struct {
	collector *ci.Collector
	client    *httputil.Client
	cfg       Config
}

// NewAggregator creates an Aggregator using the given collector for CI
// access and its own client for the public feed document.
func NewAggregator(collector *ci.Collector, cfg Config) *Aggregator {
	return &Aggregator{
		collector: collector,
		client:    httputil.NewClient(nil),
		cfg:       cfg,
	}
}

// Client exposes the feed-document HTTP client for tuning (tests, retries).
func (a *Aggregator) Client() *httputil.Client { return a.client }

// Run produces the updated feed entry for the given build identifier.
//
// The run never mutates the published document; it returns a new entry that
// starts from the most recent prior release and replaces exactly the fields
// derived from this build. Publishing the result is the caller's concern.
func (a *Aggregator) Run(ctx context.Context, buildVersion string) (Entry, error) {
	project, err := a.collector.ProjectByName(ctx, a.cfg.ProjectName)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "CI project %q not found", a.cfg.ProjectName)
	}

	jobs, err := a.collector.JobsForBuild(ctx, project, buildVersion)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, errors.New(errors.ErrCodeUpstreamStructure, "build %s has no jobs", buildVersion)
	}
	job := jobs[0]

	artifacts, err := a.collector.Artifacts(ctx, job.JobID)
	if err != nil {
		return nil, err
	}

	winZip, err := ci.FindWindowsX86Zip(artifacts)
	if err != nil {
		return nil, err
	}
	releaseVersion, err := ci.ExtractEmbeddedVersion(artifacts)
	if err != nil {
		return nil, err
	}

	// The template extraction, the checksum sweep, and the feed fetch are
	// independent of each other; only the artifact list above is a shared
	// prerequisite.
	var (
		templateVersion string
		standalone      []StandaloneEntry
		doc             *Document
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		templateVersion, err = a.collector.TemplateVersion(gctx, job.JobID, winZip.FileName)
		return err
	})

	g.Go(func() error {
		var err error
		standalone, err = a.classifyArtifacts(gctx, job.JobID, releaseVersion, artifacts)
		return err
	})

	g.Go(func() error {
		var err error
		doc, err = FetchDocument(gctx, a.client, a.cfg.FeedURL)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	primaryLink := a.downloadLink(releaseVersion, winZip.FileName)
	primaryChecksum := ""
	for _, e := range standalone {
		// The windows x86 zip is part of the standalone sweep; its checksum
		// doubles as the primary one, so it is fetched only once per run.
		if e.DownloadLink == primaryLink {
			primaryChecksum = e.Checksum
			break
		}
	}

	_, prior := doc.LatestRelease()
	next := prior.Clone()
	next.SetString(FieldCLI, primaryLink)
	next.SetString(FieldChecksum, primaryChecksum)
	next.SetStandalone(standalone)
	next.SetString(FieldItemTemplates, fmt.Sprintf(a.cfg.ItemTemplateURLTemplate, templateVersion))
	next.SetString(FieldProjectTemplates, fmt.Sprintf(a.cfg.ProjectTemplateURLTemplate, templateVersion))

	return next, nil
}

// classifyArtifacts builds the standalone CLI array: every zip artifact
// except the framework-dependent "no-runtime" one, classified by platform,
// with its download link and freshly fetched checksum.
func (a *Aggregator) classifyArtifacts(ctx context.Context, jobID, releaseVersion string, artifacts []ci.Artifact) ([]StandaloneEntry, error) {
	var zips []ci.Artifact
	for _, art := range artifacts {
		if !strings.HasSuffix(art.FileName, ".zip") {
			continue
		}
		if strings.Contains(art.FileName, noRuntimeMarker) {
			continue
		}
		zips = append(zips, art)
	}

	entries := make([]StandaloneEntry, len(zips))
	g, gctx := errgroup.WithContext(ctx)
	for i, art := range zips {
		i, art := i, art
		g.Go(func() error {
			sum, err := a.collector.Checksum(gctx, jobID, art.FileName)
			if err != nil {
				return err
			}
			cls := ci.Classify(art.FileName)
			entries[i] = StandaloneEntry{
				OS:              cls.OS,
				OperatingSystem: cls.OperatingSystem,
				Architecture:    cls.Architecture,
				DownloadLink:    a.downloadLink(releaseVersion, art.FileName),
				Checksum:        sum,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (a *Aggregator) downloadLink(version, fileName string) string {
	name := strings.TrimPrefix(fileName, artifactsPathPrefix)
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(a.cfg.CDNRoot, "/"), version, name)
}
