package models

import "strings"

// Asset is one binary in a Nexus repository, as reported by the asset
// listing API. Checksums and identifiers ride along untouched; the sync
// engine only interprets Path, DownloadURL and LastModified.
type Asset struct {
	ID           string            `json:"id"`
	Path         string            `json:"path"`
	DownloadURL  string            `json:"downloadUrl"`
	Repository   string            `json:"repository"`
	Format       string            `json:"format"`
	LastModified string            `json:"lastModified"`
	FileSize     int64             `json:"fileSize"`
	Checksum     map[string]string `json:"checksum"`
}

// IsPackage reports whether the asset is an npm package tarball. Repository
// metadata documents such as package root JSON never are.
func (a Asset) IsPackage() bool {
	return strings.HasSuffix(a.Path, ".tgz")
}
