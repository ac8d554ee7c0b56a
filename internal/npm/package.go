package npm

import (
	"fmt"
	"strings"
)

const tarballSuffix = ".tgz"

// Package identifies one npm package version derived from a repository asset
// path.
type Package struct {
	Name    string
	Version string
}

// Spec returns the name@version form npm commands take.
func (p Package) Spec() string {
	return p.Name + "@" + p.Version
}

// ParseAssetPath derives npm coordinates from a registry asset path. npm
// repositories lay tarballs out as <name>/-/<name>-<version>.tgz, with an
// extra leading <scope> segment for scoped packages:
//
//	/@types/node/-/node-20.11.5.tgz  -> @types/node 20.11.5
//	/lodash/-/lodash-4.17.21.tgz     -> lodash 4.17.21
//
// A leading slash is optional; Nexus listings omit it.
func ParseAssetPath(assetPath string) (Package, error) {
	parts := strings.Split(strings.Trim(assetPath, "/"), "/")
	filename := parts[len(parts)-1]
	if !strings.HasSuffix(filename, tarballSuffix) {
		return Package{}, fmt.Errorf("asset path %q is not a package tarball", assetPath)
	}

	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 3 {
			return Package{}, fmt.Errorf("scoped asset path %q is missing its name segment", assetPath)
		}
		name := parts[1]
		return Package{
			Name:    parts[0] + "/" + name,
			Version: versionFromFilename(filename, name),
		}, nil
	}

	if len(parts) < 2 {
		return Package{}, fmt.Errorf("asset path %q has no package segment", assetPath)
	}
	name := parts[0]
	return Package{
		Name:    name,
		Version: versionFromFilename(filename, name),
	}, nil
}

// versionFromFilename recovers the version from <name>-<version>.tgz.
// Stripping the name prefix keeps hyphenated prerelease versions like
// 1.0.0-beta.1 intact; a last-hyphen split is only the fallback for
// filenames that do not carry the expected prefix.
func versionFromFilename(filename, name string) string {
	base := strings.TrimSuffix(filename, tarballSuffix)
	if version, ok := strings.CutPrefix(base, name+"-"); ok {
		return version
	}
	if i := strings.LastIndex(base, "-"); i >= 0 {
		return base[i+1:]
	}
	return base
}
