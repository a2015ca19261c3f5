package access

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// Resolver computes the visibility set of a principal.
type Resolver struct {
	documents   storage.DocumentRepository
	collections storage.CollectionRepository
	access      storage.AccessRepository
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewResolver creates a new resolver.
func NewResolver(
	documents storage.DocumentRepository,
	collections storage.CollectionRepository,
	access storage.AccessRepository,
	opts ...Option,
) (*Resolver, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if collections == nil {
		return nil, ErrCollectionRepositoryRequired
	}
	if access == nil {
		return nil, ErrAccessRepositoryRequired
	}

	r := &Resolver{
		documents:   documents,
		collections: collections,
		access:      access,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// VisibleCollections returns the IDs of collections the principal may read.
// Admins see every collection; other authenticated principals see default
// collections plus their explicit grants. Unauthenticated principals see none.
func (r *Resolver) VisibleCollections(ctx context.Context, principal core.Principal) ([]core.ID, error) {
	if !principal.Authenticated {
		return nil, nil
	}

	if principal.Role == core.RoleAdmin {
		all, err := r.collections.ListCollections(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]core.ID, 0, len(all))
		for _, collection := range all {
			ids = append(ids, collection.Id)
		}
		return ids, nil
	}

	visible := make(map[core.ID]bool)

	defaults, err := r.collections.ListDefaultCollections(ctx)
	if err != nil {
		return nil, err
	}
	for _, collection := range defaults {
		visible[collection.Id] = true
	}

	grants, err := r.access.GrantsForSubject(ctx, principal.Subject)
	if err != nil {
		return nil, err
	}
	for _, grant := range grants {
		visible[grant.CollectionId] = true
	}

	ids := make([]core.ID, 0, len(visible))
	for id := range visible {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// CanReadCollection reports whether the principal may read a collection.
func (r *Resolver) CanReadCollection(ctx context.Context, principal core.Principal, collectionID core.ID) (bool, error) {
	if !principal.Authenticated {
		return false, nil
	}
	if principal.Role == core.RoleAdmin {
		return true, nil
	}

	visible, err := r.VisibleCollections(ctx, principal)
	if err != nil {
		return false, err
	}
	return slices.Contains(visible, collectionID), nil
}

// ReadableDocuments returns the active document versions the principal may
// read, optionally restricted to one collection (collectionID=0 means all
// visible collections). A collection outside the principal's visibility set
// yields an empty result, indistinguishable from an empty collection.
func (r *Resolver) ReadableDocuments(ctx context.Context, principal core.Principal, collectionID core.ID) ([]*core.Document, error) {
	if !principal.Authenticated {
		return nil, nil
	}

	if principal.Role == core.RoleAdmin {
		return r.adminDocuments(ctx, collectionID)
	}

	visible, err := r.VisibleCollections(ctx, principal)
	if err != nil {
		return nil, err
	}

	if collectionID != 0 {
		if !slices.Contains(visible, collectionID) {
			r.logger.Debug("collection outside visibility set",
				"subject", principal.Subject, "collectionID", collectionID)
			return nil, nil
		}
		visible = []core.ID{collectionID}
	}

	seen := make(map[core.ID]bool)
	var results []*core.Document
	for _, colID := range visible {
		docIDs, err := r.collections.DocumentsInCollection(ctx, colID)
		if err != nil {
			return nil, err
		}
		for _, docID := range docIDs {
			if seen[docID] {
				continue
			}
			seen[docID] = true

			doc, err := r.documents.GetDocument(ctx, docID)
			if err == storage.ErrNotFound {
				continue
			}
			if err != nil {
				return nil, err
			}
			if doc.Retrievable() {
				results = append(results, doc)
			}
		}
	}
	return results, nil
}

// CanReadDocument reports whether the principal may read a document version.
// Only active versions are readable; for non-admins the version must also
// belong to a visible collection.
func (r *Resolver) CanReadDocument(ctx context.Context, principal core.Principal, documentID core.ID) (bool, error) {
	if !principal.Authenticated {
		return false, nil
	}

	doc, err := r.documents.GetDocument(ctx, documentID)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !doc.Retrievable() {
		return false, nil
	}

	if principal.Role == core.RoleAdmin {
		return true, nil
	}

	visible, err := r.VisibleCollections(ctx, principal)
	if err != nil {
		return false, err
	}
	memberOf, err := r.collections.CollectionsForDocument(ctx, documentID)
	if err != nil {
		return false, err
	}
	for _, colID := range memberOf {
		if slices.Contains(visible, colID) {
			return true, nil
		}
	}
	return false, nil
}

// adminDocuments returns every active version, optionally restricted to one
// collection. Admin visibility skips the grant machinery entirely.
func (r *Resolver) adminDocuments(ctx context.Context, collectionID core.ID) ([]*core.Document, error) {
	if collectionID != 0 {
		docIDs, err := r.collections.DocumentsInCollection(ctx, collectionID)
		if err != nil {
			return nil, err
		}
		docs, err := r.documents.GetDocuments(ctx, docIDs...)
		if err != nil {
			return nil, err
		}
		var results []*core.Document
		for _, doc := range docs {
			if doc.Retrievable() {
				results = append(results, doc)
			}
		}
		return results, nil
	}

	all, err := r.documents.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	var results []*core.Document
	for _, doc := range all {
		if doc.Retrievable() {
			results = append(results, doc)
		}
	}
	return results, nil
}
