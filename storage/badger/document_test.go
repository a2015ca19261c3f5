package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

func TestDocumentBasics(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	doc := &core.Document{
		Title:    "Heat Pump Manual",
		Source:   "heat-pump.pdf",
		Category: "technical",
		Language: "en",
		Status:   core.StatusDraft,
	}

	added, err := repos.Documents.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if added.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added.CanonicalId != added.Id {
		t.Fatalf("Expected canonical ID %d, got %d", added.Id, added.CanonicalId)
	}
	if added.VersionNum != 1 {
		t.Fatalf("Expected version 1, got %d", added.VersionNum)
	}
	if !added.IsLatest {
		t.Fatal("Expected first version to be latest")
	}

	retrieved, err := repos.Documents.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Title != "Heat Pump Manual" {
		t.Fatalf("Expected 'Heat Pump Manual', got '%s'", retrieved.Title)
	}
}

func TestAddDocumentDefaultsToDraft(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	// Ingestion inserts documents without setting a status
	added, err := repos.Documents.AddDocument(ctx, &core.Document{
		Title: "Grid Connection Guide",
	})
	if err != nil {
		t.Fatalf("Failed to add document without status: %v", err)
	}
	if added.Status != core.StatusDraft {
		t.Fatalf("Expected draft, got %s", added.Status)
	}

	retrieved, err := repos.Documents.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Status != core.StatusDraft {
		t.Fatalf("Expected stored status draft, got %s", retrieved.Status)
	}
}

func TestDocumentTimestampRoundTrip(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := repos.Documents.AddDocument(ctx, &core.Document{
		Title:  "Metering Handbook",
		Status: core.StatusDraft,
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	// Stored timestamps are microsecond precision; the returned record must
	// equal its own read-back
	retrieved, err := repos.Documents.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if !retrieved.InsertedAt.Equal(added.InsertedAt) {
		t.Fatalf("InsertedAt changed on read-back: %v != %v", retrieved.InsertedAt, added.InsertedAt)
	}
	if !retrieved.UpdatedAt.Equal(added.UpdatedAt) {
		t.Fatalf("UpdatedAt changed on read-back: %v != %v", retrieved.UpdatedAt, added.UpdatedAt)
	}
}

func TestDocumentVersionChain(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	v1, err := repos.Documents.AddDocument(ctx, &core.Document{
		Title:  "Substation Guide",
		Status: core.StatusDraft,
	})
	if err != nil {
		t.Fatalf("Failed to add v1: %v", err)
	}

	v2, err := repos.Documents.AddDocument(ctx, &core.Document{
		CanonicalId: v1.CanonicalId,
		Title:       "Substation Guide",
		Status:      core.StatusDraft,
	})
	if err != nil {
		t.Fatalf("Failed to add v2: %v", err)
	}

	if v2.VersionNum != 2 {
		t.Fatalf("Expected version 2, got %d", v2.VersionNum)
	}
	if v2.SupersedesId != v1.Id {
		t.Fatalf("Expected supersedes %d, got %d", v1.Id, v2.SupersedesId)
	}
	if !v2.IsLatest {
		t.Fatal("Expected v2 to be latest")
	}

	// The latest flag must have moved off v1
	v1Reloaded, err := repos.Documents.GetDocument(ctx, v1.Id)
	if err != nil {
		t.Fatalf("Failed to reload v1: %v", err)
	}
	if v1Reloaded.IsLatest {
		t.Fatal("Expected v1 to no longer be latest")
	}

	versions, err := repos.Documents.ListVersions(ctx, v1.CanonicalId)
	if err != nil {
		t.Fatalf("Failed to list versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	if versions[0].VersionNum != 1 || versions[1].VersionNum != 2 {
		t.Fatalf("Versions out of order: %d, %d", versions[0].VersionNum, versions[1].VersionNum)
	}
}

func TestActivateArchivesPreviousVersion(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	v1, err := repos.Documents.AddDocument(ctx, &core.Document{
		Title:  "Pricing Sheet",
		Status: core.StatusDraft,
	})
	if err != nil {
		t.Fatalf("Failed to add v1: %v", err)
	}
	if _, err := repos.Documents.Activate(ctx, v1.Id); err != nil {
		t.Fatalf("Failed to activate v1: %v", err)
	}

	v2, err := repos.Documents.AddDocument(ctx, &core.Document{
		CanonicalId: v1.CanonicalId,
		Title:       "Pricing Sheet",
		Status:      core.StatusDraft,
	})
	if err != nil {
		t.Fatalf("Failed to add v2: %v", err)
	}
	if _, err := repos.Documents.Activate(ctx, v2.Id); err != nil {
		t.Fatalf("Failed to activate v2: %v", err)
	}

	// Exactly one version may be active
	active, err := repos.Documents.ActiveVersion(ctx, v1.CanonicalId)
	if err != nil {
		t.Fatalf("Failed to get active version: %v", err)
	}
	if active.Id != v2.Id {
		t.Fatalf("Expected active version %d, got %d", v2.Id, active.Id)
	}

	v1Reloaded, err := repos.Documents.GetDocument(ctx, v1.Id)
	if err != nil {
		t.Fatalf("Failed to reload v1: %v", err)
	}
	if v1Reloaded.Status != core.StatusArchived {
		t.Fatalf("Expected v1 archived, got %s", v1Reloaded.Status)
	}
}

func TestActivateArchivedVersionFails(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Title:  "Old Manual",
		Status: core.StatusDraft,
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	if _, err := repos.Documents.Archive(ctx, doc.Id); err != nil {
		t.Fatalf("Failed to archive document: %v", err)
	}

	_, err = repos.Documents.Activate(ctx, doc.Id)
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestFindByChecksum(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	checksum := core.Fingerprint("source bytes")
	doc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Title:    "Checksummed",
		Status:   core.StatusDraft,
		Checksum: checksum,
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	found, err := repos.Documents.FindByChecksum(ctx, checksum)
	if err != nil {
		t.Fatalf("Failed to find by checksum: %v", err)
	}
	if found.Id != doc.Id {
		t.Fatalf("Expected document %d, got %d", doc.Id, found.Id)
	}

	// Re-ingesting identical source bytes is a duplicate
	_, err = repos.Documents.AddDocument(ctx, &core.Document{
		Title:    "Checksummed Again",
		Status:   core.StatusDraft,
		Checksum: checksum,
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	_, err = repos.Documents.FindByChecksum(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
