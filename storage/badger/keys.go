package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/sondera/core"
)

// Key prefixes for different data types
const (
	documentPrefix         = "docrec"
	documentVersionPrefix  = "docver"
	documentChecksumPrefix = "docsum"
	documentIDSeq          = "docrecseq"
	chunkPrefix            = "churec"
	chunkDocumentPrefix    = "chudoc"
	chunkIDSeq             = "churecseq"
	collectionPrefix       = "colrec"
	collectionNamePrefix   = "colnam"
	collectionIDSeq        = "colrecseq"
	collectionDocPrefix    = "coldoc"
	documentColPrefix      = "doccol"
	grantPrefix            = "gntrec"
	cacheEntryPrefix       = "embent"
	queryPrefix            = "qryrec"
	queryChunkPrefix       = "qrychu"
	queryIDSeq             = "qryrecseq"
	feedbackPrefix         = "fbkrec"
	feedbackQueryPrefix    = "fbkqry"
	feedbackIDSeq          = "fbkrecseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentVersionKey generates a composite key for the version chain index.
// Format: prefix:canonicalID:versionNum
func makeDocumentVersionKey(canonicalID core.ID, versionNum int) []byte {
	prefix := documentVersionPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// BigEndian so lexicographic order matches version order
	binary.BigEndian.PutUint64(buf[offset:], uint64(canonicalID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(versionNum))
	return buf
}

// makePartialDocumentVersionKey generates a partial key for version chain scans.
func makePartialDocumentVersionKey(canonicalID core.ID) []byte {
	prefix := documentVersionPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(canonicalID))
	return buf
}

// makeDocumentChecksumKey generates a key for the checksum index.
func makeDocumentChecksumKey(checksum string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentChecksumPrefix, checksum))
}

// makeChunkKey generates a key for a chunk by ID.
// Chunk keys are BigEndian so iteration yields ascending ID order.
func makeChunkKey(id core.ID) []byte {
	prefix := chunkPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chunkIndex
func makeChunkDocumentKey(documentID core.ID, chunkIndex int) []byte {
	prefix := chunkDocumentPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkIndex))
	return buf
}

// makePartialChunkDocumentKey generates a partial key for per-document chunk scans.
func makePartialChunkDocumentKey(documentID core.ID) []byte {
	prefix := chunkDocumentPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeCollectionKey generates a key for a collection by ID.
func makeCollectionKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", collectionPrefix, id))
}

// makeCollectionNameKey generates a key for the unique name index.
func makeCollectionNameKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionNamePrefix, name))
}

// makeCollectionDocKey generates a composite key for collection membership.
// Format: prefix:collectionID:documentID
func makeCollectionDocKey(collectionID, documentID core.ID) []byte {
	prefix := collectionDocPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(collectionID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makePartialCollectionDocKey generates a partial key for membership scans.
func makePartialCollectionDocKey(collectionID core.ID) []byte {
	prefix := collectionDocPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(collectionID))
	return buf
}

// makeDocumentColKey generates the reverse membership key.
// Format: prefix:documentID:collectionID
func makeDocumentColKey(documentID, collectionID core.ID) []byte {
	prefix := documentColPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(collectionID))
	return buf
}

// makePartialDocumentColKey generates a partial key for reverse membership scans.
func makePartialDocumentColKey(documentID core.ID) []byte {
	prefix := documentColPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeGrantKey generates a key for a grant.
// Format: prefix:subject:collectionID
func makeGrantKey(subject string, collectionID core.ID) []byte {
	prefix := fmt.Sprintf("%s:%s:", grantPrefix, subject)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(collectionID))
	return buf
}

// makePartialGrantKey generates a partial key for per-subject grant scans.
func makePartialGrantKey(subject string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", grantPrefix, subject))
}

// makeCacheEntryKey generates a key for an embedding cache entry.
// Format: prefix:modelVersion:contentHash
func makeCacheEntryKey(contentHash, modelVersion string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", cacheEntryPrefix, modelVersion, contentHash))
}

// makeQueryKey generates a key for a query record by ID.
func makeQueryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", queryPrefix, id))
}

// makeQueryChunkKey generates a composite key for query result chunks.
// Format: prefix:queryID:rank
func makeQueryChunkKey(queryID core.ID, rank int) []byte {
	prefix := queryChunkPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(queryID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(rank))
	return buf
}

// makePartialQueryChunkKey generates a partial key for per-query chunk scans.
func makePartialQueryChunkKey(queryID core.ID) []byte {
	prefix := queryChunkPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(queryID))
	return buf
}

// makeFeedbackKey generates a key for a feedback record by ID.
func makeFeedbackKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", feedbackPrefix, id))
}

// makeFeedbackQueryKey generates a composite key for the per-query feedback index.
// Format: prefix:queryID:feedbackID
func makeFeedbackQueryKey(queryID, feedbackID core.ID) []byte {
	prefix := feedbackQueryPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(queryID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(feedbackID))
	return buf
}

// makePartialFeedbackQueryKey generates a partial key for per-query feedback scans.
func makePartialFeedbackQueryKey(queryID core.ID) []byte {
	prefix := feedbackQueryPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(queryID))
	return buf
}
