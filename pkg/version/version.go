// Package version orders dotted version strings with mixed numeric and
// textual segments.
//
// Feed documents key their release history by version strings that are
// usually numeric ("2.2.27") but occasionally carry textual segments
// ("2.2.beta-1"). Plain lexical ordering gets "2.2.9" vs "2.2.10" wrong, and
// strict semver parsing rejects the textual segments outright, so the feed
// needs its own total order.
package version

import (
	"strconv"
	"strings"
)

// Compare returns -1, 0, or 1 ordering a relative to b.
//
// Both strings are split on ".", and segments are compared pairwise:
// numerically when both parse as integers, lexically otherwise. The first
// unequal pair decides. When one string is a prefix of the other (all shared
// segments equal), the longer string sorts greater.
func Compare(a, b string) int {
	if a == b {
		return 0
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	for i := 0; i < max(len(as), len(bs)); i++ {
		if i >= len(as) {
			return -1
		}
		if i >= len(bs) {
			return 1
		}
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(a, b string) int {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// Latest returns the greatest version in versions according to [Compare].
// Returns the empty string for an empty slice.
func Latest(versions []string) string {
	var latest string
	for i, v := range versions {
		if i == 0 || Compare(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}
