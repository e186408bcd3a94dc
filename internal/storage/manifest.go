package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Manifest describes one written output file, published next to it.
type Manifest struct {
	Destination string    `json:"destination"`
	File        string    `json:"file"`
	Format      string    `json:"format"`
	Checksum    string    `json:"checksum"`
	RowCount    int64     `json:"row_count"`
	ByteSize    int64     `json:"byte_size"`
	Producer    Producer  `json:"producer"`
	CreatedAt   time.Time `json:"created_at"`
}

// Producer describes the software that produced the file.
type Producer struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	GitSHA  string `json:"git_sha,omitempty"`
}

// Encode returns the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Checksum computes a SHA256 checksum for the given data.
func Checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// VerifyChecksum verifies that data matches the expected checksum.
func VerifyChecksum(data []byte, expected string) bool {
	return Checksum(data) == expected
}
