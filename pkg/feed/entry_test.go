package feed

import (
	"encoding/json"
	"testing"
)

func TestCloneOverlayPreservesUnknownFields(t *testing.T) {
	var prior Entry
	if err := json.Unmarshal([]byte(`{
		"A": "x",
		"B": "y",
		"minimumRuntimeVersion": "2.0",
		"nested": {"keep": ["me"]}
	}`), &prior); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	next := prior.Clone()
	next.SetString("B", "z")

	if got := next.GetString("A"); got != "x" {
		t.Errorf("field A = %q, want preserved %q", got, "x")
	}
	if got := next.GetString("B"); got != "z" {
		t.Errorf("field B = %q, want overlaid %q", got, "z")
	}
	if got := next.GetString("minimumRuntimeVersion"); got != "2.0" {
		t.Errorf("minimumRuntimeVersion = %q, want preserved %q", got, "2.0")
	}
	if string(next["nested"]) != `{"keep": ["me"]}` {
		t.Errorf("nested raw field changed: %s", next["nested"])
	}

	// The prior entry must be untouched.
	if got := prior.GetString("B"); got != "y" {
		t.Errorf("prior B = %q, overlay must not mutate the source entry", got)
	}
}

func TestSetStandaloneReplacesWholesale(t *testing.T) {
	var e Entry
	json.Unmarshal([]byte(`{"standaloneCli": [{"OS": "Solaris"}]}`), &e)

	e.SetStandalone([]StandaloneEntry{
		{OS: "Linux", Architecture: "x64", DownloadLink: "https://cdn/l", Checksum: "aa"},
	})

	var got []StandaloneEntry
	if err := json.Unmarshal(e[FieldStandaloneCLI], &got); err != nil {
		t.Fatalf("unmarshal standaloneCli: %v", err)
	}
	if len(got) != 1 || got[0].OS != "Linux" {
		t.Errorf("standaloneCli = %+v, want full replacement", got)
	}
}

func TestStandaloneEntryJSONShape(t *testing.T) {
	mac, _ := json.Marshal(StandaloneEntry{
		OperatingSystem: "MacOS", Architecture: "x64",
		DownloadLink: "https://cdn/osx", Checksum: "aa",
	})
	if want := `{"OperatingSystem":"MacOS","Architecture":"x64","downloadLink":"https://cdn/osx","sha2":"aa"}`; string(mac) != want {
		t.Errorf("macOS entry JSON = %s, want %s", mac, want)
	}

	linux, _ := json.Marshal(StandaloneEntry{
		OS: "Linux", Architecture: "x64",
		DownloadLink: "https://cdn/linux", Checksum: "bb",
	})
	if want := `{"OS":"Linux","Architecture":"x64","downloadLink":"https://cdn/linux","sha2":"bb"}`; string(linux) != want {
		t.Errorf("linux entry JSON = %s, want %s", linux, want)
	}
}

func TestLatestRelease(t *testing.T) {
	var doc Document
	json.Unmarshal([]byte(`{"releases": {
		"2.2.9":  {"cli": "old"},
		"2.2.10": {"cli": "newer"},
		"2.2.2":  {"cli": "oldest"}
	}}`), &doc)

	v, entry := doc.LatestRelease()
	if v != "2.2.10" {
		t.Errorf("LatestRelease() version = %q, want 2.2.10", v)
	}
	if got := entry.GetString("cli"); got != "newer" {
		t.Errorf("LatestRelease() cli = %q, want newer", got)
	}
}

func TestLatestReleaseEmptyDocument(t *testing.T) {
	doc := &Document{}
	v, entry := doc.LatestRelease()
	if v != "" {
		t.Errorf("version = %q, want empty", v)
	}
	if entry == nil {
		t.Error("entry should be an empty map, not nil")
	}
	if len(entry) != 0 {
		t.Errorf("entry = %v, want empty", entry)
	}
}
