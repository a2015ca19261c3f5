// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/sondera"
	"github.com/poiesic/sondera/ai"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/ingestion"
	"github.com/poiesic/sondera/reindex"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sondera",
		Usage: "Access-controlled document retrieval with grounded answers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "subject",
				Usage: "Caller identity for access control",
				Value: "local-admin",
			},
			&cli.StringFlag{
				Name:  "role",
				Usage: "Caller role (reader, editor, admin)",
				Value: "admin",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "OpenAI-compatible service host URL for embedding and generation",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.StringFlag{
				Name:  "generator-model",
				Usage: "Answer generation model name",
				Value: "qwen2.5:3b",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "collection",
				Usage: "Manage collections",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a collection",
						Action: collectionCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Unique collection name",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "Human-readable description",
							},
							&cli.BoolFlag{
								Name:  "default",
								Usage: "Make the collection readable by every authenticated caller",
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List all collections",
						Action: collectionListCommand,
					},
					{
						Name:   "link",
						Usage:  "Add a document version to a collection",
						Action: collectionLinkCommand,
						Flags: []cli.Flag{
							&cli.Int64Flag{
								Name:     "collection",
								Usage:    "Collection ID",
								Required: true,
							},
							&cli.Int64Flag{
								Name:     "document",
								Usage:    "Document version ID",
								Required: true,
							},
						},
					},
					{
						Name:   "unlink",
						Usage:  "Remove a document version from a collection",
						Action: collectionUnlinkCommand,
						Flags: []cli.Flag{
							&cli.Int64Flag{
								Name:     "collection",
								Usage:    "Collection ID",
								Required: true,
							},
							&cli.Int64Flag{
								Name:     "document",
								Usage:    "Document version ID",
								Required: true,
							},
						},
					},
				},
			},
			{
				Name:  "grant",
				Usage: "Manage per-subject collection grants",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Grant a subject read access to a collection",
						Action: grantAddCommand,
						Flags:  grantFlags(),
					},
					{
						Name:   "revoke",
						Usage:  "Revoke a subject's access to a collection",
						Action: grantRevokeCommand,
						Flags:  grantFlags(),
					},
					{
						Name:   "list",
						Usage:  "List a subject's grants",
						Action: grantListCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "for",
								Usage:    "Subject whose grants to list",
								Required: true,
							},
						},
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest text files as a new document version (one page per file)",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Document title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Origin of the document (path, URL, system name)",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Free-form document category",
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "Document language code",
						Value: "en",
					},
					&cli.Int64Flag{
						Name:  "canonical",
						Usage: "Canonical document ID to version (0 starts a new chain)",
					},
					&cli.Int64SliceFlag{
						Name:  "collection",
						Usage: "Collection ID to link the new version to (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "activate",
						Usage: "Activate the new version immediately",
					},
				},
			},
			{
				Name:      "activate",
				Usage:     "Activate a document version (archives the previously active one)",
				ArgsUsage: "DOCUMENT_ID",
				Action:    activateCommand,
			},
			{
				Name:      "archive",
				Usage:     "Archive a document version",
				ArgsUsage: "DOCUMENT_ID",
				Action:    archiveCommand,
			},
			{
				Name:   "documents",
				Usage:  "List all document versions",
				Action: documentsCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "canonical",
						Usage: "Show only versions of this canonical document",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Ask a question against the indexed documents",
				ArgsUsage: "QUESTION",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "collection",
						Usage: "Restrict search to one collection (0 searches everything readable)",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Answer register (technical, sales, investor)",
						Value: ai.ModeTechnical,
					},
				},
			},
			{
				Name:   "feedback",
				Usage:  "Rate a previous query",
				Action: feedbackCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "query",
						Usage:    "Query ID printed by the query command",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "rating",
						Usage:    "Rating from 1 (useless) to 5 (excellent)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "issue",
						Usage: "Issue type (wrong, missing, unclear, too_long, other)",
					},
					&cli.StringFlag{
						Name:  "comment",
						Usage: "Free-form comment",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Recompute terms and embeddings for every chunk",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "terms-only",
						Usage: "Recompute lexical terms without calling the embedding service",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func grantFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "for",
			Usage:    "Subject receiving or losing access",
			Required: true,
		},
		&cli.Int64Flag{
			Name:     "collection",
			Usage:    "Collection ID",
			Required: true,
		},
	}
}

// openEngine builds an engine from the global flags. The caller owns Close.
func openEngine(c *cli.Context) (*sondera.Engine, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := sondera.NewEngine(c.String("db"), sondera.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

// principal builds the caller identity from the global flags.
func principal(c *cli.Context) (core.Principal, error) {
	role, err := parseRole(c.String("role"))
	if err != nil {
		return core.Principal{}, err
	}
	subject := c.String("subject")
	if subject == "" {
		return core.Principal{}, fmt.Errorf("subject must not be empty")
	}
	return core.Principal{Subject: subject, Role: role, Authenticated: true}, nil
}

func parseRole(name string) (core.Role, error) {
	switch strings.ToLower(name) {
	case "reader":
		return core.RoleReader, nil
	case "editor":
		return core.RoleEditor, nil
	case "admin":
		return core.RoleAdmin, nil
	default:
		return 0, fmt.Errorf("invalid role %q: must be one of reader, editor, admin", name)
	}
}

func collectionCreateCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	collection, err := engine.Repositories().Collections.AddCollection(c.Context, &core.Collection{
		Name:        c.String("name"),
		Description: c.String("description"),
		IsDefault:   c.Bool("default"),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	fmt.Printf("Created collection %d (%s)\n", collection.Id, collection.Name)
	return nil
}

func collectionListCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	collections, err := engine.Repositories().Collections.ListCollections(c.Context)
	if err != nil {
		return err
	}

	for _, collection := range collections {
		marker := ""
		if collection.IsDefault {
			marker = " (default)"
		}
		fmt.Printf("%6d  %s%s\n", collection.Id, collection.Name, marker)
		if collection.Description != "" {
			fmt.Printf("        %s\n", collection.Description)
		}
	}
	return nil
}

func collectionLinkCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	collectionID := core.ID(c.Int64("collection"))
	documentID := core.ID(c.Int64("document"))
	if err := engine.Repositories().Collections.LinkDocument(c.Context, collectionID, documentID); err != nil {
		return fmt.Errorf("failed to link document: %w", err)
	}

	fmt.Printf("Linked document %d to collection %d\n", documentID, collectionID)
	return nil
}

func collectionUnlinkCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	collectionID := core.ID(c.Int64("collection"))
	documentID := core.ID(c.Int64("document"))
	if err := engine.Repositories().Collections.UnlinkDocument(c.Context, collectionID, documentID); err != nil {
		return fmt.Errorf("failed to unlink document: %w", err)
	}

	fmt.Printf("Unlinked document %d from collection %d\n", documentID, collectionID)
	return nil
}

func grantAddCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	grant, err := engine.Repositories().Access.AddGrant(c.Context, &core.Grant{
		Subject:      c.String("for"),
		CollectionId: core.ID(c.Int64("collection")),
	})
	if err != nil {
		return fmt.Errorf("failed to add grant: %w", err)
	}

	fmt.Printf("Granted %s read access to collection %d\n", grant.Subject, grant.CollectionId)
	return nil
}

func grantRevokeCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	subject := c.String("for")
	collectionID := core.ID(c.Int64("collection"))
	if err := engine.Repositories().Access.RevokeGrant(c.Context, subject, collectionID); err != nil {
		return fmt.Errorf("failed to revoke grant: %w", err)
	}

	fmt.Printf("Revoked %s's access to collection %d\n", subject, collectionID)
	return nil
}

func grantListCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	grants, err := engine.Repositories().Access.GrantsForSubject(c.Context, c.String("for"))
	if err != nil {
		return err
	}

	for _, grant := range grants {
		fmt.Printf("collection %d  granted %s\n", grant.CollectionId, grant.InsertedAt.Format(time.RFC3339))
	}
	return nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one input file is required")
	}

	pages := make([]ingestion.Page, 0, c.NArg())
	for i, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		pages = append(pages, ingestion.Page{Number: i + 1, Text: string(data)})
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	collections := make([]core.ID, 0)
	for _, id := range c.Int64Slice("collection") {
		collections = append(collections, core.ID(id))
	}

	doc, chunks, err := engine.Pipeline().IngestDocument(c.Context, &ingestion.IngestRequest{
		Title:       c.String("title"),
		Source:      c.String("source"),
		Category:    c.String("category"),
		Language:    c.String("language"),
		CanonicalId: core.ID(c.Int64("canonical")),
		Collections: collections,
		Pages:       pages,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested document %d (canonical %d, version %d) with %d chunks\n",
		doc.Id, doc.CanonicalId, doc.VersionNum, len(chunks))

	if c.Bool("activate") {
		if _, err := engine.Repositories().Documents.Activate(c.Context, doc.Id); err != nil {
			return fmt.Errorf("activation failed: %w", err)
		}
		fmt.Printf("Activated document %d\n", doc.Id)
	}
	return nil
}

func activateCommand(c *cli.Context) error {
	return transitionCommand(c, "Activated", func(ctx context.Context, engine *sondera.Engine, id core.ID) (*core.Document, error) {
		return engine.Repositories().Documents.Activate(ctx, id)
	})
}

func archiveCommand(c *cli.Context) error {
	return transitionCommand(c, "Archived", func(ctx context.Context, engine *sondera.Engine, id core.ID) (*core.Document, error) {
		return engine.Repositories().Documents.Archive(ctx, id)
	})
}

func transitionCommand(c *cli.Context, verb string, fn func(context.Context, *sondera.Engine, core.ID) (*core.Document, error)) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID is required")
	}
	var id core.ID
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
		return fmt.Errorf("invalid document ID %q", c.Args().First())
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	doc, err := fn(c.Context, engine, id)
	if err != nil {
		return err
	}

	fmt.Printf("%s document %d (%s, version %d)\n", verb, doc.Id, doc.Title, doc.VersionNum)
	return nil
}

func documentsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var docs []*core.Document
	if canonical := core.ID(c.Int64("canonical")); canonical != 0 {
		docs, err = engine.Repositories().Documents.ListVersions(c.Context, canonical)
	} else {
		docs, err = engine.Repositories().Documents.ListDocuments(c.Context)
	}
	if err != nil {
		return err
	}

	for _, doc := range docs {
		latest := ""
		if doc.IsLatest {
			latest = " latest"
		}
		fmt.Printf("%6d  v%-3d %-8s%s  %s\n", doc.Id, doc.VersionNum, doc.Status, latest, doc.Title)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	question := strings.Join(c.Args().Slice(), " ")

	mode := c.String("mode")
	if !ai.ValidMode(mode) {
		return fmt.Errorf("invalid mode %q: must be one of %s", mode, strings.Join(ai.Modes, ", "))
	}

	caller, err := principal(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Query(c.Context, caller, core.ID(c.Int64("collection")), question, mode)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(result.Answer)
	fmt.Println()
	fmt.Printf("outcome=%s provider=%s confidence=%s latency=%dms query=%d\n",
		result.Outcome, result.Provider, result.Confidence, result.LatencyMs, result.QueryID)

	for i, hit := range result.Results {
		title := "unknown"
		if hit.Document != nil {
			title = fmt.Sprintf("%s v%d", hit.Document.Title, hit.Document.VersionNum)
		}
		fmt.Printf("  [%d] %.3f  %s, chunk %d\n", i+1, hit.Score, title, hit.Chunk.Id)
	}
	return nil
}

func feedbackCommand(c *cli.Context) error {
	rating := c.Int("rating")
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}

	caller, err := principal(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	feedback, err := engine.AttachFeedback(c.Context, caller, &core.Feedback{
		QueryId:   core.ID(c.Int64("query")),
		Rating:    rating,
		IssueType: c.String("issue"),
		Comment:   c.String("comment"),
	})
	if err != nil {
		return fmt.Errorf("failed to attach feedback: %w", err)
	}

	fmt.Printf("Recorded feedback %d on query %d\n", feedback.Id, feedback.QueryId)
	return nil
}

func reindexCommand(c *cli.Context) error {
	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var reindexer *reindex.Reindexer
	if c.Bool("terms-only") {
		reindexer, err = reindex.NewReindexer(engine.Repositories().Chunks, nil, config, os.Stderr)
	} else {
		reindexer, err = engine.NewReindexer(config, os.Stderr)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	if !c.Bool("terms-only") {
		fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("host"))
		fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	}
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(c.Context); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
