package hierarchy

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
)

// Legacy id scheme: primary keys hashed from the document-store id, length
// bounded to the relational column widths (32/64/96 hex chars by level).
// Kept for rows written before the canonical map-derived scheme; new writes
// prefer the canonical ids.

// LegacyID32 is the class/subject scheme (md5, 32 hex chars).
func LegacyID32(mongoID string) string {
	sum := md5.Sum([]byte(mongoID))
	return hex.EncodeToString(sum[:])
}

// LegacyID64 is the topic/lesson/chunk scheme (sha256 truncated to 64).
func LegacyID64(mongoID string) string {
	sum := sha256.Sum256([]byte(mongoID))
	return hex.EncodeToString(sum[:])[:64]
}

// LegacyKeywordID hashes "<chunk pk>:<keyword name>" (sha384, 96 hex chars).
func LegacyKeywordID(chunkID, keywordName string) string {
	sum := sha512.Sum384([]byte(chunkID + ":" + keywordName))
	return hex.EncodeToString(sum[:])[:96]
}
