// internal/rounds/mongo.go
//
// MongoDB round source. Documents keep the published shape: charadeIndex
// is stored as a string and isoDateId is the round's date key.

package rounds

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/robalobadob/charades/internal/embedding"
	"github.com/robalobadob/charades/internal/game"
)

// roundDoc is the stored document. charadeIndex is a decimal string.
type roundDoc struct {
	ID               primitive.ObjectID `bson:"_id"`
	IsoDate          time.Time          `bson:"isoDate"`
	IsoDateID        string             `bson:"isoDateId"`
	CharadeIndex     string             `bson:"charadeIndex"`
	Answer           string             `bson:"answer"`
	PromptEmbeddings []float64          `bson:"promptEmbeddings,omitempty"`
}

func (d roundDoc) round() (game.Round, error) {
	idx, err := strconv.Atoi(d.CharadeIndex)
	if err != nil {
		return game.Round{}, fmt.Errorf("round %s: bad charadeIndex %q: %w", d.ID.Hex(), d.CharadeIndex, err)
	}
	return game.Round{
		ID:        d.ID.Hex(),
		Index:     idx,
		Answer:    d.Answer,
		Date:      d.IsoDate.UTC(),
		DateID:    d.IsoDateID,
		Embedding: embedding.Float32s(d.PromptEmbeddings),
	}, nil
}

// Mongo reads rounds from a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig addresses the rounds collection.
type MongoConfig struct {
	URL        string
	Database   string
	Collection string
}

// DialMongo connects and pings.
func DialMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URL == "" {
		return nil, errors.New("MONGO_URL is required for the mongo content source")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *Mongo) findOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (game.Round, error) {
	var doc roundDoc
	err := m.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.Round{}, ErrNotFound
	}
	if err != nil {
		return game.Round{}, err
	}
	return doc.round()
}

func (m *Mongo) ByDate(ctx context.Context, dateID string) (game.Round, error) {
	return m.findOne(ctx, bson.M{"isoDateId": dateID})
}

func (m *Mongo) ByIndex(ctx context.Context, index int) (game.Round, error) {
	return m.findOne(ctx, bson.M{"charadeIndex": strconv.Itoa(index)})
}

func (m *Mongo) Latest(ctx context.Context) (game.Round, error) {
	return m.findOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "isoDate", Value: -1}}))
}

// Range queries by the string form of each index since charadeIndex is
// not numeric in storage.
func (m *Mongo) Range(ctx context.Context, from, to int) ([]game.Round, error) {
	if to < from {
		return nil, nil
	}
	ids := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	cur, err := m.coll.Find(ctx, bson.M{"charadeIndex": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []roundDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]game.Round, 0, len(docs))
	for _, d := range docs {
		r, err := d.round()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out, nil
}

func (m *Mongo) SetEmbedding(ctx context.Context, index int, vec []float32) error {
	res, err := m.coll.UpdateOne(ctx,
		bson.M{"charadeIndex": strconv.Itoa(index)},
		bson.M{"$set": bson.M{"promptEmbeddings": embedding.Float64s(vec)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, index int) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"charadeIndex": strconv.Itoa(index)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
