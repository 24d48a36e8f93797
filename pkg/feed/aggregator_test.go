package feed

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"

	"github.com/funcfeed/funcfeed/pkg/ci"
	"github.com/funcfeed/funcfeed/pkg/errors"
	"github.com/funcfeed/funcfeed/pkg/memo"
)

const testBuild = "3.0.12345"

// newFakeCI wires a CI provider double serving one project, one build with
// one job, the given artifact list, checksums, and zip downloads.
func newFakeCI(t *testing.T, artifacts []ci.Artifact, zipData []byte) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]ci.Project{
			{ProjectID: 1, AccountName: "funcfeed", Slug: "functions-cli", Name: "functions-cli"},
		})
	})
	mux.HandleFunc("/api/projects/funcfeed/functions-cli/build/"+testBuild, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"build": ci.Build{
				Version: testBuild,
				Status:  ci.StatusSuccess,
				Jobs:    []ci.Job{{JobID: "job-1", Status: ci.StatusSuccess}},
			},
		})
	})
	mux.HandleFunc("/api/buildjobs/job-1/artifacts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(artifacts)
	})
	mux.HandleFunc("/api/buildjobs/job-1/artifacts/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/buildjobs/job-1/artifacts/")
		if strings.HasSuffix(name, ".sha2") {
			base := path.Base(strings.TrimSuffix(name, ".sha2"))
			fmt.Fprintf(w, "SUM-OF-%s", base)
			return
		}
		w.Write(zipData)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newFakeFeed(t *testing.T, doc string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(doc))
	}))
	t.Cleanup(server.Close)
	return server
}

func templateZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("itemTemplates.3.0.2534.nupkg")
	if err != nil {
		t.Fatalf("zip entry: %v", err)
	}
	f.Write([]byte("nupkg"))
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func newTestAggregator(t *testing.T, ciServer, feedServer *httptest.Server) *Aggregator {
	t.Helper()

	collector := ci.NewCollector(ci.Config{
		BaseURL:        ciServer.URL,
		Account:        "funcfeed",
		Token:          "secret",
		TemplatePrefix: "itemTemplates.",
	}, memo.NewStore(memo.DefaultOptions()))

	return NewAggregator(collector, Config{
		ProjectName:                "functions-cli",
		FeedURL:                    feedServer.URL,
		CDNRoot:                    "https://cdn.example.com/public",
		ItemTemplateURLTemplate:    "https://gallery.example.com/item/%s",
		ProjectTemplateURLTemplate: "https://gallery.example.com/project/%s",
	})
}

func standardArtifacts() []ci.Artifact {
	return []ci.Artifact{
		{FileName: "artifacts/Functions.Cli.win-x86.3.0.1.zip"},
		{FileName: "artifacts/Functions.Cli.win-x64.3.0.1.zip"},
		{FileName: "artifacts/Functions.Cli.linux-x64.3.0.1.zip"},
		{FileName: "artifacts/Functions.Cli.osx-x64.3.0.1.zip"},
		{FileName: "artifacts/Functions.Cli.no-runtime.3.0.1.zip"},
		{FileName: "artifacts/Functions.Cli.3.0.1.msi"},
	}
}

func TestRunOverlaysLatestRelease(t *testing.T) {
	ciServer := newFakeCI(t, standardArtifacts(), templateZip(t))
	feedServer := newFakeFeed(t, `{"releases": {
		"2.2.9":  {"cli": "stale", "minimumRuntimeVersion": "1.0"},
		"3.0.0":  {"cli": "old", "sha2": "oldsum", "minimumRuntimeVersion": "2.0", "customField": "survives"}
	}}`)

	agg := newTestAggregator(t, ciServer, feedServer)

	entry, err := agg.Run(context.Background(), testBuild)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	wantCLI := "https://cdn.example.com/public/3.0.1/Functions.Cli.win-x86.3.0.1.zip"
	if got := entry.GetString(FieldCLI); got != wantCLI {
		t.Errorf("cli = %q, want %q", got, wantCLI)
	}

	// Checksum sidecars carry dashes that must be stripped.
	wantSum := "SUMOFFunctions.Cli.winx86.3.0.1.zip"
	if got := entry.GetString(FieldChecksum); got != wantSum {
		t.Errorf("sha2 = %q, want %q", got, wantSum)
	}

	if got := entry.GetString(FieldItemTemplates); got != "https://gallery.example.com/item/3.0.2534" {
		t.Errorf("itemTemplates = %q", got)
	}
	if got := entry.GetString(FieldProjectTemplates); got != "https://gallery.example.com/project/3.0.2534" {
		t.Errorf("projectTemplates = %q", got)
	}

	// Fields not owned by the run come from the most recent prior release.
	if got := entry.GetString("minimumRuntimeVersion"); got != "2.0" {
		t.Errorf("minimumRuntimeVersion = %q, want 2.0 from release 3.0.0", got)
	}
	if got := entry.GetString("customField"); got != "survives" {
		t.Errorf("customField = %q, want preserved", got)
	}
}

func TestRunStandaloneSet(t *testing.T) {
	ciServer := newFakeCI(t, standardArtifacts(), templateZip(t))
	feedServer := newFakeFeed(t, `{"releases": {}}`)

	agg := newTestAggregator(t, ciServer, feedServer)

	entry, err := agg.Run(context.Background(), testBuild)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	var standalone []StandaloneEntry
	if err := json.Unmarshal(entry[FieldStandaloneCLI], &standalone); err != nil {
		t.Fatalf("unmarshal standaloneCli: %v", err)
	}

	// Four zips: the no-runtime zip and the msi are excluded.
	if len(standalone) != 4 {
		t.Fatalf("standaloneCli has %d entries, want 4: %+v", len(standalone), standalone)
	}

	for _, e := range standalone {
		if strings.Contains(e.DownloadLink, "no-runtime") {
			t.Errorf("no-runtime zip must be excluded, got %q", e.DownloadLink)
		}
		if strings.Contains(e.DownloadLink, "artifacts/") {
			t.Errorf("download link %q should strip the artifacts/ prefix", e.DownloadLink)
		}
		if e.Checksum == "" {
			t.Errorf("entry %q has no checksum", e.DownloadLink)
		}
		if strings.Contains(e.DownloadLink, ".osx-") {
			if e.OperatingSystem != "MacOS" || e.OS != "" {
				t.Errorf("macOS entry labels = %+v", e)
			}
		}
	}
}

func TestRunMissingWindowsZipFails(t *testing.T) {
	artifacts := []ci.Artifact{
		{FileName: "artifacts/Functions.Cli.linux-x64.3.0.1.zip"},
	}
	ciServer := newFakeCI(t, artifacts, nil)
	feedServer := newFakeFeed(t, `{"releases": {}}`)

	agg := newTestAggregator(t, ciServer, feedServer)

	_, err := agg.Run(context.Background(), testBuild)
	if !errors.Is(err, errors.ErrCodeUpstreamStructure) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeUpstreamStructure)
	}
}

func TestRunUnknownProjectFails(t *testing.T) {
	ciServer := newFakeCI(t, standardArtifacts(), templateZip(t))
	feedServer := newFakeFeed(t, `{"releases": {}}`)

	collector := ci.NewCollector(ci.Config{
		BaseURL:        ciServer.URL,
		TemplatePrefix: "itemTemplates.",
	}, memo.NewStore(memo.DefaultOptions()))

	agg := NewAggregator(collector, Config{
		ProjectName:                "ghost-project",
		FeedURL:                    feedServer.URL,
		CDNRoot:                    "https://cdn.example.com",
		ItemTemplateURLTemplate:    "https://gallery.example.com/item/%s",
		ProjectTemplateURLTemplate: "https://gallery.example.com/project/%s",
	})

	_, err := agg.Run(context.Background(), testBuild)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeNotFound)
	}
}
