package feed

import (
	"context"

	"github.com/funcfeed/funcfeed/pkg/errors"
	"github.com/funcfeed/funcfeed/pkg/httputil"
	"github.com/funcfeed/funcfeed/pkg/version"
)

// Document is the published feed: the full release history keyed by version.
type Document struct {
	Releases map[string]Entry `json:"releases"`
}

// LatestRelease returns the entry with the greatest version key, ordered by
// the feed's version comparator, along with its version. A document with no
// releases returns an empty entry so a first run starts from nothing.
func (d *Document) LatestRelease() (string, Entry) {
	if len(d.Releases) == 0 {
		return "", Entry{}
	}

	versions := make([]string, 0, len(d.Releases))
	for v := range d.Releases {
		versions = append(versions, v)
	}
	latest := version.Latest(versions)
	return latest, d.Releases[latest]
}

// FetchDocument downloads the published feed document.
func FetchDocument(ctx context.Context, client *httputil.Client, url string) (*Document, error) {
	var doc Document
	if err := client.GetJSON(ctx, url, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstreamHTTP, err, "fetching feed document")
	}
	return &doc, nil
}
