package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

func TestCollectionBasics(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	collection, err := repos.Collections.AddCollection(ctx, &core.Collection{
		Name:        "technical-docs",
		Description: "Manuals and runbooks",
		IsDefault:   true,
	})
	if err != nil {
		t.Fatalf("Failed to add collection: %v", err)
	}
	if collection.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	byName, err := repos.Collections.FindCollectionByName(ctx, "technical-docs")
	if err != nil {
		t.Fatalf("Failed to find by name: %v", err)
	}
	if byName.Id != collection.Id {
		t.Fatalf("Expected collection %d, got %d", collection.Id, byName.Id)
	}

	// Names are unique
	_, err = repos.Collections.AddCollection(ctx, &core.Collection{Name: "technical-docs"})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestListDefaultCollections(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	if _, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: "public", IsDefault: true}); err != nil {
		t.Fatalf("Failed to add collection: %v", err)
	}
	if _, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: "internal"}); err != nil {
		t.Fatalf("Failed to add collection: %v", err)
	}
	if _, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: "handbook", IsDefault: true}); err != nil {
		t.Fatalf("Failed to add collection: %v", err)
	}

	defaults, err := repos.Collections.ListDefaultCollections(ctx)
	if err != nil {
		t.Fatalf("Failed to list defaults: %v", err)
	}
	if len(defaults) != 2 {
		t.Fatalf("Expected 2 default collections, got %d", len(defaults))
	}
	for _, collection := range defaults {
		if !collection.IsDefault {
			t.Fatalf("Collection %s is not default", collection.Name)
		}
	}
}

func TestDocumentMembership(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	collection, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: "sales"})
	if err != nil {
		t.Fatalf("Failed to add collection: %v", err)
	}
	doc := addTestDocument(t, repos, "Price List")

	if err := repos.Collections.LinkDocument(ctx, collection.Id, doc.Id); err != nil {
		t.Fatalf("Failed to link document: %v", err)
	}
	// Linking twice is idempotent
	if err := repos.Collections.LinkDocument(ctx, collection.Id, doc.Id); err != nil {
		t.Fatalf("Failed to re-link document: %v", err)
	}

	docs, err := repos.Collections.DocumentsInCollection(ctx, collection.Id)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 1 || docs[0] != doc.Id {
		t.Fatalf("Expected [%d], got %v", doc.Id, docs)
	}

	collections, err := repos.Collections.CollectionsForDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to list collections: %v", err)
	}
	if len(collections) != 1 || collections[0] != collection.Id {
		t.Fatalf("Expected [%d], got %v", collection.Id, collections)
	}

	if err := repos.Collections.UnlinkDocument(ctx, collection.Id, doc.Id); err != nil {
		t.Fatalf("Failed to unlink document: %v", err)
	}
	docs, err = repos.Collections.DocumentsInCollection(ctx, collection.Id)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("Expected no documents after unlink, got %v", docs)
	}
}

func TestGrants(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	collection, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: "restricted"})
	if err != nil {
		t.Fatalf("Failed to add collection: %v", err)
	}

	grant, err := repos.Access.AddGrant(ctx, &core.Grant{
		Subject:      "anna@example.com",
		CollectionId: collection.Id,
	})
	if err != nil {
		t.Fatalf("Failed to add grant: %v", err)
	}
	if grant.InsertedAt.IsZero() {
		t.Fatal("Expected grant timestamp to be set")
	}

	// Re-granting keeps the original timestamp
	regrant, err := repos.Access.AddGrant(ctx, &core.Grant{
		Subject:      "anna@example.com",
		CollectionId: collection.Id,
	})
	if err != nil {
		t.Fatalf("Failed to re-grant: %v", err)
	}
	if !regrant.InsertedAt.Equal(grant.InsertedAt) {
		t.Fatal("Expected re-grant to keep original timestamp")
	}

	grants, err := repos.Access.GrantsForSubject(ctx, "anna@example.com")
	if err != nil {
		t.Fatalf("Failed to list grants: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("Expected 1 grant, got %d", len(grants))
	}

	// Other subjects see nothing
	grants, err = repos.Access.GrantsForSubject(ctx, "bert@example.com")
	if err != nil {
		t.Fatalf("Failed to list grants: %v", err)
	}
	if len(grants) != 0 {
		t.Fatalf("Expected no grants, got %d", len(grants))
	}

	if err := repos.Access.RevokeGrant(ctx, "anna@example.com", collection.Id); err != nil {
		t.Fatalf("Failed to revoke grant: %v", err)
	}
	err = repos.Access.RevokeGrant(ctx, "anna@example.com", collection.Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
