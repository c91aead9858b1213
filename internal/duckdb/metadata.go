package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for one input report.
type FileFingerprint struct {
	Tool    string    `json:"tool"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// StatFile fingerprints the report at path produced by tool.
func StatFile(tool, path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Tool:    tool,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
	}, nil
}
