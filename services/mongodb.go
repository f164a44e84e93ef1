package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/go-pkgz/lgr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// episodeRecord is an episode document as stored by the editorial pipeline
type episodeRecord struct {
	ID              string    `bson:"_id"`
	Title           string    `bson:"title"`
	Description     string    `bson:"description"`
	LongDescription *string   `bson:"long_description"`
	CoverImageURL   *string   `bson:"cover_image_url"`
	AudioURL        *string   `bson:"audio_url"`
	Duration        *int      `bson:"duration"`
	EpisodeNumber   *int      `bson:"episode_number"`
	Host            *string   `bson:"host"`
	Tags            []string  `bson:"tags"`
	Category        *string   `bson:"category"`
	Status          string    `bson:"status"`
	CreatedAt       time.Time `bson:"created_at"`
}

func (r *episodeRecord) toEpisode() Episode {
	return Episode{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		LongDescription: deref(r.LongDescription),
		CoverImageURL:   deref(r.CoverImageURL),
		AudioURL:        deref(r.AudioURL),
		Duration:        r.Duration,
		EpisodeNumber:   r.EpisodeNumber,
		Host:            deref(r.Host),
		Tags:            r.Tags,
		Category:        deref(r.Category),
		CreatedAt:       r.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MongoDBService reads episodes from MongoDB Atlas
type MongoDBService struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoDBService(uri, dbName, collectionName string) (*MongoDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("[INFO] connected to MongoDB Atlas, db=%s collection=%s", dbName, collectionName)

	return &MongoDBService{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
	}, nil
}

func completedFilter() bson.M {
	return bson.M{"status": StatusCompleted}
}

// ListEpisodes returns all completed episodes, newest first
func (s *MongoDBService) ListEpisodes(ctx context.Context) ([]Episode, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, completedFilter(), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find episodes: %w", ErrUpstream, err)
	}
	defer cursor.Close(ctx)

	var records []episodeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: decode episodes: %w", ErrUpstream, err)
	}

	episodes := make([]Episode, 0, len(records))
	for i := range records {
		if records[i].Status != StatusCompleted {
			continue
		}
		episodes = append(episodes, records[i].toEpisode())
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].CreatedAt.After(episodes[j].CreatedAt)
	})

	return episodes, nil
}

// GetEpisode returns the completed episode by id, nil if it does not exist
func (s *MongoDBService) GetEpisode(ctx context.Context, id string) (*Episode, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: episode id is required", ErrInvalidInput)
	}

	filter := completedFilter()
	filter["_id"] = idMatcher(id)

	return s.findOne(ctx, filter, options.FindOne())
}

// LatestEpisode returns the newest completed episode of a category, or of all
// categories when category is empty
func (s *MongoDBService) LatestEpisode(ctx context.Context, category string) (*Episode, error) {
	filter := completedFilter()
	if category != "" {
		filter["category"] = category
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.findOne(ctx, filter, opts)
}

func (s *MongoDBService) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*Episode, error) {
	var record episodeRecord
	err := s.collection.FindOne(ctx, filter, opts).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find episode: %w", ErrUpstream, err)
	}
	if record.Status != StatusCompleted {
		return nil, nil
	}

	episode := record.toEpisode()
	return &episode, nil
}

// ListCategories returns unique non-empty categories of completed episodes, sorted
func (s *MongoDBService) ListCategories(ctx context.Context) ([]string, error) {
	filter := completedFilter()
	filter["category"] = bson.M{"$nin": bson.A{nil, ""}}

	opts := options.Find().SetProjection(bson.M{"category": 1, "status": 1})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find categories: %w", ErrUpstream, err)
	}
	defer cursor.Close(ctx)

	set := make(map[string]bool)
	for cursor.Next(ctx) {
		var record episodeRecord
		if err := cursor.Decode(&record); err != nil {
			log.Printf("[WARN] failed to decode episode category, %v", err)
			continue
		}
		if record.Status != StatusCompleted || record.Category == nil || *record.Category == "" {
			continue
		}
		set[*record.Category] = true
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate categories: %w", ErrUpstream, err)
	}

	categories := make([]string, 0, len(set))
	for cat := range set {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	return categories, nil
}

// idMatcher matches string ids and, for hex ids, documents keyed by ObjectID
func idMatcher(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$in": bson.A{id, oid}}
	}
	return id
}

func (s *MongoDBService) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
