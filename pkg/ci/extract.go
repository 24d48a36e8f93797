package ci

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/funcfeed/funcfeed/pkg/errors"
)

const (
	// windowsX86Marker locates the one artifact whose file name embeds the
	// canonical build version.
	windowsX86Marker = ".win-x86."

	zipSuffix = ".zip"
)

// FindWindowsX86Zip returns the windows x86 zip artifact from artifacts.
// Exactly this artifact carries the canonical build version in its name;
// its absence is a hard failure, not a best-effort miss.
func FindWindowsX86Zip(artifacts []Artifact) (Artifact, error) {
	for _, a := range artifacts {
		if strings.Contains(a.FileName, windowsX86Marker) && strings.HasSuffix(a.FileName, zipSuffix) {
			return a, nil
		}
	}
	return Artifact{}, errors.New(errors.ErrCodeUpstreamStructure,
		"no %q zip among %d artifacts; cannot determine the build version", windowsX86Marker, len(artifacts))
}

// ExtractEmbeddedVersion extracts the canonical build version from the
// windows x86 zip's file name: the token between the platform marker and the
// ".zip" suffix. The token must look like a version; a token that does not
// means the marker matched the wrong artifact.
func ExtractEmbeddedVersion(artifacts []Artifact) (string, error) {
	zip, err := FindWindowsX86Zip(artifacts)
	if err != nil {
		return "", err
	}

	name := zip.FileName
	start := strings.Index(name, windowsX86Marker) + len(windowsX86Marker)
	token := strings.TrimSuffix(name[start:], zipSuffix)

	if !validVersionToken(token) {
		return "", errors.New(errors.ErrCodeUpstreamStructure,
			"version token %q in %q is not a valid version", token, name)
	}
	return token, nil
}

// validVersionToken accepts semantic versions plus the four-segment numeric
// form some CI builds stamp on artifacts ("1.2.3.4"), which strict semver
// parsing rejects.
func validVersionToken(token string) bool {
	if _, err := semver.NewVersion(token); err == nil {
		return true
	}
	segments := strings.Split(token, ".")
	if len(segments) < 2 {
		return false
	}
	for _, s := range segments {
		if s == "" || s[0] < '0' || s[0] > '9' {
			return false
		}
	}
	return true
}
