package core

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Fingerprint computes a collision-resistant content fingerprint of the
// normalized text. Identical content always yields the same fingerprint,
// which makes it usable as a cache and deduplication key.
func Fingerprint(content string) string {
	normalized := strings.Join(strings.Fields(content), " ")
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentStatus identifies where a document version is in its lifecycle.
type DocumentStatus int

const (
	// StatusDraft is the initial state of an ingested document version.
	StatusDraft DocumentStatus = iota + 1
	// StatusActive marks the version as eligible for retrieval.
	StatusActive
	// StatusArchived is terminal. Archived versions never become active again.
	StatusArchived
)

// String returns the lowercase name of the status.
func (s DocumentStatus) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusActive:
		return "active"
	case StatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// Role identifies the capability level of a caller.
// Role and collection grants are independent axes: role governs admin
// capability, grants govern read visibility for non-admin callers.
type Role int

const (
	// RoleReader is the default role: read access to default and granted collections.
	RoleReader Role = iota + 1
	// RoleEditor may additionally manage documents within granted collections.
	RoleEditor
	// RoleAdmin may read and write everything, with no visibility filtering.
	RoleAdmin
)

// String returns the lowercase name of the role.
func (r Role) String() string {
	switch r {
	case RoleReader:
		return "reader"
	case RoleEditor:
		return "editor"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Principal is the caller identity attached to every read path.
// An unauthenticated principal has the empty visibility set and reads nothing.
type Principal struct {
	Subject       string
	Role          Role
	Authenticated bool
}

// Anonymous returns an unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// Document represents one version of an ingested document.
// Versions of the same logical document share a CanonicalId; (CanonicalId,
// VersionNum) is unique and SupersedesId links a version to the one it replaced.
type Document struct {
	Id           ID
	CanonicalId  ID
	VersionNum   int
	IsLatest     bool
	SupersedesId ID // 0 when this is the first version
	Status       DocumentStatus
	Title        string
	Source       string
	Category     string
	Language     string
	Checksum     string // fingerprint of the source bytes
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// Chunk is a bounded text fragment of a document, the unit of retrieval and
// citation. A chunk carries both of its precomputed representations: the dense
// vector (optional, absent until embedded) and the lexical term lists, which
// are recomputed whenever Content changes.
type Chunk struct {
	Id            ID
	DocumentId    ID
	ChunkIndex    int
	Content       string
	ContentHash   string // Fingerprint of Content
	ContentTokens int    // approximate token count
	PageStart     int
	PageEnd       int
	Section       string
	Embedding     []float32
	TermsPlain    []string // language-agnostic, unstemmed terms
	TermsStemmed  []string // language-specific, stemmed terms
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// Collection is a named access-control grouping of documents.
// Default collections are visible to every authenticated caller.
type Collection struct {
	Id          ID
	Name        string
	Description string
	IsDefault   bool
	InsertedAt  time.Time
}

// Grant ties a caller subject to a collection it may read.
type Grant struct {
	Subject      string
	CollectionId ID
	InsertedAt   time.Time
}

// EmbeddingCacheEntry maps a content fingerprint to a previously computed
// dense vector. Entries are append-only: one entry per (ContentHash,
// ModelVersion), never mutated after the first write.
type EmbeddingCacheEntry struct {
	ContentHash  string
	ModelVersion string
	Vector       []float32
	Tokens       int
	InsertedAt   time.Time
}

// Confidence buckets the strength of a retrieval result set.
type Confidence int

const (
	// ConfidenceLow signals a weak match; callers should not generate an answer.
	ConfidenceLow Confidence = iota + 1
	// ConfidenceMedium signals a usable but not strong match.
	ConfidenceMedium
	// ConfidenceHigh signals a strong match.
	ConfidenceHigh
)

// String returns the lowercase name of the confidence bucket.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

// QueryRecord is the audit row for one retrieval request.
type QueryRecord struct {
	Id           ID
	Subject      string
	CollectionId ID
	Provider     string // which search provider produced the result set
	Question     string
	Answer       string
	Confidence   Confidence
	LatencyMs    int64
	InsertedAt   time.Time
}

// QueryChunk records one chunk surfaced for a query, with its rank and score.
type QueryChunk struct {
	QueryId ID
	ChunkId ID
	Rank    int
	Score   float32
}

// Feedback is an optional rating attached to a query by its own caller.
type Feedback struct {
	Id         ID
	QueryId    ID
	Subject    string
	Rating     int    // 1-5
	IssueType  string // wrong, missing, unclear, too_long, other
	Comment    string
	InsertedAt time.Time
}

// SearchResult is a retrieved chunk with its owning document and relevance score.
type SearchResult struct {
	Chunk    *Chunk
	Document *Document
	Score    float32
}
