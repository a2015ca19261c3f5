package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for every record persisted to storage. Stored values use
// MUS: compact, deterministic, and stable across releases. Serializers are
// written directly against the mus-go primitive serializers; field order is
// part of the stored format and must not change without a migration.

var (
	IDMUS                  = idMUS{}
	DocumentMUS            = documentMUS{}
	ChunkMUS               = chunkMUS{}
	CollectionMUS          = collectionMUS{}
	GrantMUS               = grantMUS{}
	EmbeddingCacheEntryMUS = embeddingCacheEntryMUS{}
	QueryRecordMUS         = queryRecordMUS{}
	QueryChunkMUS          = queryChunkMUS{}
	FeedbackMUS            = feedbackMUS{}
)

var (
	vectorMUS = ord.NewSliceSer[float32](varint.Float32)
	termsMUS  = ord.NewSliceSer[string](ord.String)
)

// Timestamps are stored as Unix microseconds.

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) int {
	n := IDMUS.Marshal(d.Id, bs)
	n += IDMUS.Marshal(d.CanonicalId, bs[n:])
	n += varint.Int.Marshal(d.VersionNum, bs[n:])
	n += ord.Bool.Marshal(d.IsLatest, bs[n:])
	n += IDMUS.Marshal(d.SupersedesId, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Source, bs[n:])
	n += ord.String.Marshal(d.Category, bs[n:])
	n += ord.String.Marshal(d.Language, bs[n:])
	n += ord.String.Marshal(d.Checksum, bs[n:])
	n += marshalTime(d.InsertedAt, bs[n:])
	n += marshalTime(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (Document, int, error) {
	var (
		d      Document
		n      int
		status int
		err    error
	)
	if d.Id, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return d, n, err
	}
	if d.CanonicalId, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return d, n, err
	}
	if d.VersionNum, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return d, n, err
	}
	if d.IsLatest, n, err = unmarshalField(bs, n, ord.Bool.Unmarshal); err != nil {
		return d, n, err
	}
	if d.SupersedesId, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return d, n, err
	}
	if status, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return d, n, err
	}
	d.Status = DocumentStatus(status)
	if d.Title, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return d, n, err
	}
	if d.Source, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return d, n, err
	}
	if d.Category, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return d, n, err
	}
	if d.Language, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return d, n, err
	}
	if d.Checksum, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return d, n, err
	}
	if d.InsertedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return d, n, err
	}
	if d.UpdatedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return d, n, err
	}
	return d, n, nil
}

func (documentMUS) Size(d Document) int {
	size := IDMUS.Size(d.Id)
	size += IDMUS.Size(d.CanonicalId)
	size += varint.Int.Size(d.VersionNum)
	size += ord.Bool.Size(d.IsLatest)
	size += IDMUS.Size(d.SupersedesId)
	size += varint.Int.Size(int(d.Status))
	size += ord.String.Size(d.Title)
	size += ord.String.Size(d.Source)
	size += ord.String.Size(d.Category)
	size += ord.String.Size(d.Language)
	size += ord.String.Size(d.Checksum)
	size += sizeTime(d.InsertedAt)
	size += sizeTime(d.UpdatedAt)
	return size
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) int {
	n := IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.DocumentId, bs[n:])
	n += varint.Int.Marshal(c.ChunkIndex, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += ord.String.Marshal(c.ContentHash, bs[n:])
	n += varint.Int.Marshal(c.ContentTokens, bs[n:])
	n += varint.Int.Marshal(c.PageStart, bs[n:])
	n += varint.Int.Marshal(c.PageEnd, bs[n:])
	n += ord.String.Marshal(c.Section, bs[n:])
	n += vectorMUS.Marshal(c.Embedding, bs[n:])
	n += termsMUS.Marshal(c.TermsPlain, bs[n:])
	n += termsMUS.Marshal(c.TermsStemmed, bs[n:])
	n += marshalTime(c.InsertedAt, bs[n:])
	n += marshalTime(c.UpdatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (Chunk, int, error) {
	var (
		c   Chunk
		n   int
		err error
	)
	if c.Id, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return c, n, err
	}
	if c.DocumentId, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return c, n, err
	}
	if c.ChunkIndex, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return c, n, err
	}
	if c.Content, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return c, n, err
	}
	if c.ContentHash, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return c, n, err
	}
	if c.ContentTokens, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return c, n, err
	}
	if c.PageStart, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return c, n, err
	}
	if c.PageEnd, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return c, n, err
	}
	if c.Section, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return c, n, err
	}
	if c.Embedding, n, err = unmarshalField(bs, n, vectorMUS.Unmarshal); err != nil {
		return c, n, err
	}
	if c.TermsPlain, n, err = unmarshalField(bs, n, termsMUS.Unmarshal); err != nil {
		return c, n, err
	}
	if c.TermsStemmed, n, err = unmarshalField(bs, n, termsMUS.Unmarshal); err != nil {
		return c, n, err
	}
	if c.InsertedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return c, n, err
	}
	if c.UpdatedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return c, n, err
	}
	return c, n, nil
}

func (chunkMUS) Size(c Chunk) int {
	size := IDMUS.Size(c.Id)
	size += IDMUS.Size(c.DocumentId)
	size += varint.Int.Size(c.ChunkIndex)
	size += ord.String.Size(c.Content)
	size += ord.String.Size(c.ContentHash)
	size += varint.Int.Size(c.ContentTokens)
	size += varint.Int.Size(c.PageStart)
	size += varint.Int.Size(c.PageEnd)
	size += ord.String.Size(c.Section)
	size += vectorMUS.Size(c.Embedding)
	size += termsMUS.Size(c.TermsPlain)
	size += termsMUS.Size(c.TermsStemmed)
	size += sizeTime(c.InsertedAt)
	size += sizeTime(c.UpdatedAt)
	return size
}

type collectionMUS struct{}

func (collectionMUS) Marshal(c Collection, bs []byte) int {
	n := IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.Name, bs[n:])
	n += ord.String.Marshal(c.Description, bs[n:])
	n += ord.Bool.Marshal(c.IsDefault, bs[n:])
	n += marshalTime(c.InsertedAt, bs[n:])
	return n
}

func (collectionMUS) Unmarshal(bs []byte) (Collection, int, error) {
	var (
		c   Collection
		n   int
		err error
	)
	if c.Id, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return c, n, err
	}
	if c.Name, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return c, n, err
	}
	if c.Description, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return c, n, err
	}
	if c.IsDefault, n, err = unmarshalField(bs, n, ord.Bool.Unmarshal); err != nil {
		return c, n, err
	}
	if c.InsertedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return c, n, err
	}
	return c, n, nil
}

func (collectionMUS) Size(c Collection) int {
	size := IDMUS.Size(c.Id)
	size += ord.String.Size(c.Name)
	size += ord.String.Size(c.Description)
	size += ord.Bool.Size(c.IsDefault)
	size += sizeTime(c.InsertedAt)
	return size
}

type grantMUS struct{}

func (grantMUS) Marshal(g Grant, bs []byte) int {
	n := ord.String.Marshal(g.Subject, bs)
	n += IDMUS.Marshal(g.CollectionId, bs[n:])
	n += marshalTime(g.InsertedAt, bs[n:])
	return n
}

func (grantMUS) Unmarshal(bs []byte) (Grant, int, error) {
	var (
		g   Grant
		n   int
		err error
	)
	if g.Subject, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return g, n, err
	}
	if g.CollectionId, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return g, n, err
	}
	if g.InsertedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return g, n, err
	}
	return g, n, nil
}

func (grantMUS) Size(g Grant) int {
	return ord.String.Size(g.Subject) + IDMUS.Size(g.CollectionId) + sizeTime(g.InsertedAt)
}

type embeddingCacheEntryMUS struct{}

func (embeddingCacheEntryMUS) Marshal(e EmbeddingCacheEntry, bs []byte) int {
	n := ord.String.Marshal(e.ContentHash, bs)
	n += ord.String.Marshal(e.ModelVersion, bs[n:])
	n += vectorMUS.Marshal(e.Vector, bs[n:])
	n += varint.Int.Marshal(e.Tokens, bs[n:])
	n += marshalTime(e.InsertedAt, bs[n:])
	return n
}

func (embeddingCacheEntryMUS) Unmarshal(bs []byte) (EmbeddingCacheEntry, int, error) {
	var (
		e   EmbeddingCacheEntry
		n   int
		err error
	)
	if e.ContentHash, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return e, n, err
	}
	if e.ModelVersion, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return e, n, err
	}
	if e.Vector, n, err = unmarshalField(bs, n, vectorMUS.Unmarshal); err != nil {
		return e, n, err
	}
	if e.Tokens, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return e, n, err
	}
	if e.InsertedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return e, n, err
	}
	return e, n, nil
}

func (embeddingCacheEntryMUS) Size(e EmbeddingCacheEntry) int {
	size := ord.String.Size(e.ContentHash)
	size += ord.String.Size(e.ModelVersion)
	size += vectorMUS.Size(e.Vector)
	size += varint.Int.Size(e.Tokens)
	size += sizeTime(e.InsertedAt)
	return size
}

type queryRecordMUS struct{}

func (queryRecordMUS) Marshal(q QueryRecord, bs []byte) int {
	n := IDMUS.Marshal(q.Id, bs)
	n += ord.String.Marshal(q.Subject, bs[n:])
	n += IDMUS.Marshal(q.CollectionId, bs[n:])
	n += ord.String.Marshal(q.Provider, bs[n:])
	n += ord.String.Marshal(q.Question, bs[n:])
	n += ord.String.Marshal(q.Answer, bs[n:])
	n += varint.Int.Marshal(int(q.Confidence), bs[n:])
	n += varint.Int64.Marshal(q.LatencyMs, bs[n:])
	n += marshalTime(q.InsertedAt, bs[n:])
	return n
}

func (queryRecordMUS) Unmarshal(bs []byte) (QueryRecord, int, error) {
	var (
		q          QueryRecord
		n          int
		confidence int
		err        error
	)
	if q.Id, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return q, n, err
	}
	if q.Subject, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return q, n, err
	}
	if q.CollectionId, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return q, n, err
	}
	if q.Provider, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return q, n, err
	}
	if q.Question, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return q, n, err
	}
	if q.Answer, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return q, n, err
	}
	if confidence, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return q, n, err
	}
	q.Confidence = Confidence(confidence)
	if q.LatencyMs, n, err = unmarshalField(bs, n, varint.Int64.Unmarshal); err != nil {
		return q, n, err
	}
	if q.InsertedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return q, n, err
	}
	return q, n, nil
}

func (queryRecordMUS) Size(q QueryRecord) int {
	size := IDMUS.Size(q.Id)
	size += ord.String.Size(q.Subject)
	size += IDMUS.Size(q.CollectionId)
	size += ord.String.Size(q.Provider)
	size += ord.String.Size(q.Question)
	size += ord.String.Size(q.Answer)
	size += varint.Int.Size(int(q.Confidence))
	size += varint.Int64.Size(q.LatencyMs)
	size += sizeTime(q.InsertedAt)
	return size
}

type queryChunkMUS struct{}

func (queryChunkMUS) Marshal(qc QueryChunk, bs []byte) int {
	n := IDMUS.Marshal(qc.QueryId, bs)
	n += IDMUS.Marshal(qc.ChunkId, bs[n:])
	n += varint.Int.Marshal(qc.Rank, bs[n:])
	n += varint.Float32.Marshal(qc.Score, bs[n:])
	return n
}

func (queryChunkMUS) Unmarshal(bs []byte) (QueryChunk, int, error) {
	var (
		qc  QueryChunk
		n   int
		err error
	)
	if qc.QueryId, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return qc, n, err
	}
	if qc.ChunkId, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return qc, n, err
	}
	if qc.Rank, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return qc, n, err
	}
	if qc.Score, n, err = unmarshalField(bs, n, varint.Float32.Unmarshal); err != nil {
		return qc, n, err
	}
	return qc, n, nil
}

func (queryChunkMUS) Size(qc QueryChunk) int {
	return IDMUS.Size(qc.QueryId) + IDMUS.Size(qc.ChunkId) +
		varint.Int.Size(qc.Rank) + varint.Float32.Size(qc.Score)
}

type feedbackMUS struct{}

func (feedbackMUS) Marshal(f Feedback, bs []byte) int {
	n := IDMUS.Marshal(f.Id, bs)
	n += IDMUS.Marshal(f.QueryId, bs[n:])
	n += ord.String.Marshal(f.Subject, bs[n:])
	n += varint.Int.Marshal(f.Rating, bs[n:])
	n += ord.String.Marshal(f.IssueType, bs[n:])
	n += ord.String.Marshal(f.Comment, bs[n:])
	n += marshalTime(f.InsertedAt, bs[n:])
	return n
}

func (feedbackMUS) Unmarshal(bs []byte) (Feedback, int, error) {
	var (
		f   Feedback
		n   int
		err error
	)
	if f.Id, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return f, n, err
	}
	if f.QueryId, n, err = unmarshalField(bs, n, IDMUS.Unmarshal); err != nil {
		return f, n, err
	}
	if f.Subject, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return f, n, err
	}
	if f.Rating, n, err = unmarshalField(bs, n, varint.Int.Unmarshal); err != nil {
		return f, n, err
	}
	if f.IssueType, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return f, n, err
	}
	if f.Comment, n, err = unmarshalField(bs, n, ord.String.Unmarshal); err != nil {
		return f, n, err
	}
	if f.InsertedAt, n, err = unmarshalField(bs, n, unmarshalTime); err != nil {
		return f, n, err
	}
	return f, n, nil
}

func (feedbackMUS) Size(f Feedback) int {
	size := IDMUS.Size(f.Id)
	size += IDMUS.Size(f.QueryId)
	size += ord.String.Size(f.Subject)
	size += varint.Int.Size(f.Rating)
	size += ord.String.Size(f.IssueType)
	size += ord.String.Size(f.Comment)
	size += sizeTime(f.InsertedAt)
	return size
}

// unmarshalField applies a field unmarshaller at offset n and returns the new
// offset.
func unmarshalField[T any](bs []byte, n int, unmarshal func([]byte) (T, int, error)) (T, int, error) {
	v, fn, err := unmarshal(bs[n:])
	return v, n + fn, err
}
