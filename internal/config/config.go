// Package config resolves the compiler's two external configuration
// surfaces: the EMOJICODE_PACKAGES_PATH environment variable spec.md
// §6 describes for locating native package binaries, and an optional
// per-project .emojicode.yaml manifest (package name, version,
// requires-native-binary flag) that the distillation's "Package" type
// (spec.md §3) otherwise has to be spelled out on the command line
// every time.
//
// Grounded on SPEC_FULL.md's ambient-stack section, which calls out
// syssam-velox's and kydenul-semantic_matcher's yaml-driven
// configuration layers as the shape to follow: a small typed struct,
// loaded with gopkg.in/yaml.v3, with defaults filled in when the file
// is absent rather than erroring.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPackagesDir is used when EMOJICODE_PACKAGES_PATH is unset, the
// same default-library-directory fallback spec.md §6 assumes.
const DefaultPackagesDir = "/usr/local/EmojicodePackages"

// PackagesEnvVar is the environment variable spec.md §6 names.
const PackagesEnvVar = "EMOJICODE_PACKAGES_PATH"

// PackagesPath returns the configured native-package library directory,
// falling back to DefaultPackagesDir when the environment variable is
// unset or empty.
func PackagesPath() string {
	if p := os.Getenv(PackagesEnvVar); p != "" {
		return p
	}
	return DefaultPackagesDir
}

// LibraryPath builds the resolved lookup path for a native package's
// shared library, spec.md §6's "<dir>/<name>-v<major>/<name>.<ext>".
func LibraryPath(name string, major uint16, ext string) string {
	return PackagesPath() + "/" + name + "-v" + strconv.Itoa(int(major)) + "/" + name + "." + ext
}

// Manifest is the optional .emojicode.yaml project manifest: a package
// name, (major, minor) version, and whether the package requires a
// native binary (spec.md §3's Package type, minus the fields that are
// only meaningful once compiled into the bytecode's package manifest).
type Manifest struct {
	Name                 string `yaml:"name"`
	Major                uint16 `yaml:"major"`
	Minor                uint16 `yaml:"minor"`
	RequiresNativeBinary bool   `yaml:"requiresNativeBinary"`
}

// LoadManifest reads and parses path. A missing file is not an error:
// it returns a zero Manifest, since most compilations (anything that
// isn't itself declaring a native package) have no manifest at all.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, nil
		}
		return Manifest{}, errors.Wrapf(err, "config: reading %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrapf(err, "config: parsing %s", path)
	}
	return m, nil
}
