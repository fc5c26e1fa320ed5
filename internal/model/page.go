package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// FetchResult describes an option page archived during the archive phase.
// It only exists for successful saves and lives for the duration of one run.
type FetchResult struct {
	// ArchiveFile is the path of the saved raw page.
	ArchiveFile string `json:"archive_file"`

	// Expiration is the expiration date the page was requested for.
	Expiration ExpirationDate `json:"expiration"`

	// CapturedAt is the Eastern timestamp taken right after the save,
	// e.g. "2017-01-03 09:45 EST". Every row parsed from the page carries it.
	CapturedAt string `json:"captured_at"`

	// URL is the page URL that was fetched.
	URL string `json:"url"`

	// Hash is the hex SHA3-256 digest of the archived bytes.
	Hash string `json:"hash"`

	// Size is the archived body size in bytes.
	Size int64 `json:"size"`
}

// ComputeHash returns the hex SHA3-256 digest of raw page content.
func ComputeHash(raw []byte) string {
	sum := sha3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
