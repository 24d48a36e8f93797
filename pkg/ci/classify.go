package ci

import "strings"

// Classification labels an artifact by operating system and CPU architecture,
// derived from its file name.
//
// The two OS fields are asymmetric on purpose: published feed entries carry
// "OperatingSystem": "MacOS" for macOS artifacts and a generic "OS" label for
// every other platform, and downstream consumers key off that exact shape.
type Classification struct {
	// OS is the generic platform label ("Windows", "Linux").
	// Empty for macOS artifacts.
	OS string

	// OperatingSystem is set to "MacOS" for macOS artifacts only.
	OperatingSystem string

	// Architecture is "x64" or "x86".
	Architecture string
}

// Platform markers embedded in artifact file names.
const (
	markerOSX   = ".osx-"
	markerWin   = ".win-"
	markerLinux = ".linux-"
	markerX64   = "-x64."
)

// Classify derives a Classification from an artifact file name.
//
// Architecture is inferred from an "-x64." marker (anything else is x86).
// The operating system is inferred from ".osx-", ".win-", or ".linux-"
// markers; file names without any marker yield empty OS fields.
func Classify(fileName string) Classification {
	c := Classification{Architecture: "x86"}
	if strings.Contains(fileName, markerX64) {
		c.Architecture = "x64"
	}

	switch {
	case strings.Contains(fileName, markerOSX):
		c.OperatingSystem = "MacOS"
	case strings.Contains(fileName, markerWin):
		c.OS = "Windows"
	case strings.Contains(fileName, markerLinux):
		c.OS = "Linux"
	}
	return c
}
