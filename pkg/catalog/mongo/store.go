// Package mongo serves the catalog from a MongoDB collection.
//
// Each entity is one document keyed by its display id ("component:checkout")
// with the entity fields inlined, so the filter paths "kind" and
// "spec.system" query directly. Lookups use a case-insensitive collation.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/errors"
)

// Defaults for Connect.
const (
	DefaultDatabase   = "systemgraph"
	DefaultCollection = "entities"

	connectTimeout = 10 * time.Second
)

// caseInsensitive compares strings ignoring case (ICU strength 2).
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// document is the stored form of an entity.
type document struct {
	ID             string `bson:"_id"`
	catalog.Entity `bson:",inline"`
}

// Store implements catalog.Client over a collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials uri and returns a store over database.collection. Empty
// names fall back to DefaultDatabase and DefaultCollection.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo uri is required")
	}
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	s := New(client.Database(database).Collection(collection))
	s.client = client
	return s, nil
}

// New wraps an existing collection. The caller keeps ownership of the client.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// EnsureIndexes creates the indexes used by GetEntities.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "spec.system", Value: 1}},
			Options: options.Index().SetCollation(caseInsensitive),
		},
	})
	return err
}

// GetEntities returns matching entities ordered by id.
func (s *Store) GetEntities(ctx context.Context, filter catalog.Filter) ([]catalog.Entity, error) {
	opts := options.Find().
		SetCollation(caseInsensitive).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, query(filter), opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, err, "find %s", filter)
	}
	defer cur.Close(ctx)

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, err, "decode entities")
	}
	out := make([]catalog.Entity, len(docs))
	for i, d := range docs {
		out[i] = d.Entity
	}
	return out, nil
}

// GetEntityByRef looks an entity up by its display id.
func (s *Store) GetEntityByRef(ctx context.Context, ref catalog.Ref) (*catalog.Entity, error) {
	var d document
	err := s.coll.FindOne(ctx, bson.M{"_id": catalog.DisplayID(ref)}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, catalog.NotFound(ref)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, err, "find %s", ref)
	}
	return &d.Entity, nil
}

// ImportResult reports what Import changed.
type ImportResult struct {
	Inserted int64
	Updated  int64
}

// Import upserts entities by reference. Relations should already be derived
// and stitched (see catalog.Stitch).
func (s *Store) Import(ctx context.Context, entities []catalog.Entity) (ImportResult, error) {
	if len(entities) == 0 {
		return ImportResult{}, nil
	}
	models := make([]mongo.WriteModel, len(entities))
	for i, e := range entities {
		id := catalog.DisplayID(e.Ref())
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).
			SetReplacement(document{ID: id, Entity: e}).
			SetUpsert(true)
	}

	res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return ImportResult{}, errors.Wrap(errors.ErrCodeInternal, err, "import %d entities", len(entities))
	}
	return ImportResult{Inserted: res.UpsertedCount, Updated: res.ModifiedCount}, nil
}

// Close disconnects the client if the store owns it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// query translates a catalog filter to a MongoDB query.
func query(f catalog.Filter) bson.M {
	q := bson.M{}
	if len(f.Kinds) > 0 {
		q["kind"] = bson.M{"$in": f.Kinds}
	}
	if len(f.Systems) > 0 {
		q["spec.system"] = bson.M{"$in": f.Systems}
	}
	return q
}

var _ catalog.Client = (*Store)(nil)
