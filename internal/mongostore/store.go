// Package mongostore is the MongoDB store backend. It reads and writes the
// collections produced by the original preprocessing scripts (emotion level
// mapping, embedded tweets, manual labels, assigned emotions) and satisfies
// the same pipeline source and sink contracts as the Postgres systems.
package mongostore

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/JaimeStill/moodmap/internal/assignments"
	"github.com/JaimeStill/moodmap/internal/categories"
	"github.com/JaimeStill/moodmap/internal/classify"
	"github.com/JaimeStill/moodmap/internal/corpus"
	"github.com/JaimeStill/moodmap/pkg/lifecycle"
)

// Store wraps a MongoDB client bound to the configured database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    Config
	logger *slog.Logger
}

// New creates the client. The driver connects lazily; Connect verifies
// the server is reachable.
func New(cfg *Config, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(
		options.Client().
			ApplyURI(cfg.URI).
			SetConnectTimeout(cfg.ConnectTimeoutDuration()),
	)
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
		cfg:    *cfg,
		logger: logger.With("system", "mongo"),
	}, nil
}

// Start registers startup and shutdown hooks with the lifecycle coordinator.
func (s *Store) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting mongo connection")

	lc.OnStartup(func() {
		if err := s.Connect(lc.Context()); err != nil {
			s.logger.Error("mongo ping failed", "error", err)
		}
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := s.Close(context.Background()); err != nil {
			s.logger.Error("mongo disconnect failed", "error", err)
		}
	})

	return nil
}

// Connect pings the server within the configured timeout.
func (s *Store) Connect(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeoutDuration())
	defer cancel()

	if err := s.client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	s.logger.Info("mongo connection established", "database", s.cfg.Database)
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	s.logger.Info("closing mongo connection")
	return s.client.Disconnect(ctx)
}

// Categories returns every mapped category in ascending cluster order.
func (s *Store) Categories(ctx context.Context) ([]categories.Category, error) {
	cur, err := s.db.Collection(s.cfg.Categories).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "cluster", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}

	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	cats := make([]categories.Category, len(docs))
	for i, d := range docs {
		cats[i] = d.category()
	}
	return cats, nil
}

// Catalog builds the classifier catalog from the mapping collection.
func (s *Store) Catalog(ctx context.Context) (*classify.Catalog, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return categories.BuildCatalog(cats)
}

// ReplaceCategories clears the mapping collection and inserts cats.
func (s *Store) ReplaceCategories(ctx context.Context, cats []categories.Category) error {
	coll := s.db.Collection(s.cfg.Categories)

	deleted, err := coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	docs := make([]any, len(cats))
	for i, c := range cats {
		docs[i] = newCategoryDoc(c)
	}
	if len(docs) > 0 {
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert categories: %w", err)
		}
	}

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cluster", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("index categories: %w", err)
	}

	s.logger.Info("categories replaced", "removed", deleted.DeletedCount, "inserted", len(docs))
	return nil
}

// Stream visits documents in ascending _id order, one keyset page at a time.
func (s *Store) Stream(ctx context.Context, opts corpus.StreamOptions, fn func(corpus.Document) error) error {
	coll, err := s.documents(opts.Collection)
	if err != nil {
		return err
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = corpus.DefaultPageSize
	}

	var (
		cursor  *bson.ObjectID
		visited int
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		limit := pageSize
		if opts.Limit > 0 {
			limit = min(limit, opts.Limit-visited)
			if limit <= 0 {
				return nil
			}
		}

		filter, err := streamFilter(opts, cursor)
		if err != nil {
			return err
		}

		page, err := findTweets(ctx, coll, filter, int64(limit))
		if err != nil {
			return fmt.Errorf("stream documents: %w", err)
		}

		for _, d := range page {
			if err := fn(d.document(opts.Collection)); err != nil {
				return err
			}
		}
		visited += len(page)

		if len(page) < limit {
			return nil
		}
		last := page[len(page)-1].ID
		cursor = &last
	}
}

// Count returns the number of documents Stream would visit, ignoring Limit.
func (s *Store) Count(ctx context.Context, opts corpus.StreamOptions) (int, error) {
	coll, err := s.documents(opts.Collection)
	if err != nil {
		return 0, err
	}
	filter, err := streamFilter(opts, nil)
	if err != nil {
		return 0, err
	}

	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return int(n), nil
}

// SetEmbedding stores the vector for one tweet.
func (s *Store) SetEmbedding(ctx context.Context, collection, id string, embedding []float32) error {
	coll, err := s.documents(collection)
	if err != nil {
		return err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"embedding": toFloat64(embedding)}},
	)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	if res.MatchedCount == 0 {
		return corpus.ErrNotFound
	}
	return nil
}

// ClearEmbeddings removes the embedding field from every tweet in the
// collection.
func (s *Store) ClearEmbeddings(ctx context.Context, collection string) (int64, error) {
	coll, err := s.documents(collection)
	if err != nil {
		return 0, err
	}

	res, err := coll.UpdateMany(ctx,
		bson.M{"embedding": bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"embedding": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("clear embeddings: %w", err)
	}

	s.logger.Info("embeddings cleared", "collection", collection, "count", res.ModifiedCount)
	return res.ModifiedCount, nil
}

// Insert stores new tweets, skipping texts already present in the
// collection or repeated within docs.
func (s *Store) Insert(ctx context.Context, docs []corpus.NewDocument) (corpus.InsertResult, error) {
	var result corpus.InsertResult
	if len(docs) == 0 {
		return result, nil
	}

	byCollection := make(map[string][]corpus.NewDocument)
	for _, d := range docs {
		byCollection[d.Collection] = append(byCollection[d.Collection], d)
	}

	for name, group := range byCollection {
		coll, err := s.documents(name)
		if err != nil {
			return result, err
		}

		existing, err := existingTexts(ctx, coll, group)
		if err != nil {
			return result, fmt.Errorf("insert documents: %w", err)
		}

		var fresh []any
		for _, d := range group {
			if _, dup := existing[d.Text]; dup {
				result.Skipped++
				continue
			}
			existing[d.Text] = struct{}{}
			fresh = append(fresh, tweetDoc{
				ID:       bson.NewObjectID(),
				Time:     d.Timestamp,
				Username: d.Author,
				Text:     d.Text,
			})
		}
		if len(fresh) == 0 {
			continue
		}

		res, err := coll.InsertMany(ctx, fresh, options.InsertMany().SetOrdered(false))
		if err != nil {
			return result, fmt.Errorf("insert documents: %w", err)
		}
		result.Inserted += len(res.InsertedIDs)
	}

	s.logger.Info("documents ingested", "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

// Labeled joins the manual labels with the collection's embedded tweets.
func (s *Store) Labeled(ctx context.Context, collection string) ([]classify.Example, error) {
	coll, err := s.documents(collection)
	if err != nil {
		return nil, err
	}

	cur, err := s.db.Collection(s.cfg.Labels).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find labels: %w", err)
	}
	var labels []labelDoc
	if err := cur.All(ctx, &labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, nil
	}

	byID := make(map[bson.ObjectID]int, len(labels))
	ids := make(bson.A, 0, len(labels))
	for _, l := range labels {
		byID[l.ID] = l.LabelIdx
		ids = append(ids, l.ID)
	}

	tweets, err := findTweets(ctx, coll, bson.M{
		"_id":       bson.M{"$in": ids},
		"embedding": bson.M{"$exists": true, "$ne": bson.A{}},
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("find labeled documents: %w", err)
	}

	examples := make([]classify.Example, 0, len(tweets))
	for _, t := range tweets {
		if len(t.Embedding) == 0 {
			continue
		}
		examples = append(examples, classify.Example{
			DocumentID: t.ID.Hex(),
			Vector:     toFloat32(t.Embedding),
			CategoryID: byID[t.ID],
		})
	}

	if missing := len(labels) - len(examples); missing > 0 {
		s.logger.Warn("labeled documents without embeddings skipped", "collection", collection, "count", missing)
	}
	return examples, nil
}

// UpsertBatch replaces the assignment for each record, keyed by document id.
func (s *Store) UpsertBatch(ctx context.Context, records []assignments.Record) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		doc, err := newAssignedDoc(rec)
		if err != nil {
			return fmt.Errorf("%w: %s", err, rec.DocumentID)
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := s.db.Collection(s.cfg.Assignments).BulkWrite(ctx, models,
		options.BulkWrite().SetOrdered(false),
	)
	if err != nil {
		return fmt.Errorf("upsert assignments: %w", err)
	}
	return nil
}

func (s *Store) documents(collection string) (*mongo.Collection, error) {
	name, err := s.cfg.DocumentCollection(collection)
	if err != nil {
		return nil, err
	}
	return s.db.Collection(name), nil
}

func findTweets(ctx context.Context, coll *mongo.Collection, filter bson.M, limit int64) ([]tweetDoc, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []tweetDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func existingTexts(ctx context.Context, coll *mongo.Collection, docs []corpus.NewDocument) (map[string]struct{}, error) {
	texts := make(bson.A, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	cur, err := coll.Find(ctx,
		bson.M{"tweets": bson.M{"$in": texts}},
		options.Find().SetProjection(bson.M{"tweets": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	seen := make(map[string]struct{})
	for cur.Next(ctx) {
		var d tweetDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		seen[d.Text] = struct{}{}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return seen, nil
}

