package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/strollio/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrTourNotFound is returned when no tour matches the given id or slug under
// the caller's scope. An owner mismatch surfaces as this error too, so the
// API never confirms that a foreign tour exists.
var ErrTourNotFound = errors.New("tour not found")

// TourRepository defines the interface for tour data operations
type TourRepository interface {
	CreateTour(ctx context.Context, tour *models.Tour) error
	GetTourByID(ctx context.Context, id string, creator uint) (*models.Tour, error)
	GetToursByCreator(ctx context.Context, creator uint) ([]models.Tour, error)
	// GetPublicTourBySlug resolves a published tour. Private tours and
	// unknown slugs both return ErrTourNotFound.
	GetPublicTourBySlug(ctx context.Context, slug string) (*models.Tour, error)
	// GetTourBySlug resolves a tour by slug regardless of visibility.
	GetTourBySlug(ctx context.Context, slug string) (*models.Tour, error)
	UpdateTour(ctx context.Context, id string, creator uint, tour *models.Tour) error
	DeleteTour(ctx context.Context, id string, creator uint) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	IncrementClicks(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

// MongoTourRepository implements TourRepository for MongoDB
type MongoTourRepository struct {
	collection *mongo.Collection
}

// NewMongoTourRepository creates a new MongoTourRepository
func NewMongoTourRepository(db *mongo.Database) *MongoTourRepository {
	return &MongoTourRepository{collection: db.Collection("tours")}
}

// EnsureIndexes creates the unique sparse index on share_slug. The index is
// the correctness backstop for slug uniqueness: a generator collision makes
// the write fail instead of silently aliasing two tours.
func (r *MongoTourRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "share_slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "creator", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	})
	return err
}

// CreateTour creates a new tour in MongoDB
func (r *MongoTourRepository) CreateTour(ctx context.Context, tour *models.Tour) error {
	tour.ID = primitive.NewObjectID()
	tour.CreatedAt = time.Now()
	tour.UpdatedAt = time.Now()
	if tour.Steps == nil {
		tour.Steps = []models.Step{}
	}
	_, err := r.collection.InsertOne(ctx, tour)
	return err
}

// GetTourByID retrieves a tour by ID, scoped to its creator
func (r *MongoTourRepository) GetTourByID(ctx context.Context, id string, creator uint) (*models.Tour, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTourNotFound
	}

	var tour models.Tour
	err = r.collection.FindOne(ctx, bson.M{"_id": objID, "creator": creator}).Decode(&tour)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &tour, nil
}

// GetToursByCreator retrieves all tours belonging to a creator, most recently
// updated first
func (r *MongoTourRepository) GetToursByCreator(ctx context.Context, creator uint) ([]models.Tour, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"creator": creator}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tours := []models.Tour{}
	if err = cursor.All(ctx, &tours); err != nil {
		return nil, err
	}
	return tours, nil
}

// GetPublicTourBySlug retrieves a published tour by its share slug
func (r *MongoTourRepository) GetPublicTourBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	var tour models.Tour
	err := r.collection.FindOne(ctx, bson.M{"share_slug": slug, "is_public": true}).Decode(&tour)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &tour, nil
}

// GetTourBySlug retrieves a tour by its share slug regardless of visibility
func (r *MongoTourRepository) GetTourBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	var tour models.Tour
	err := r.collection.FindOne(ctx, bson.M{"share_slug": slug}).Decode(&tour)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &tour, nil
}

// UpdateTour replaces the mutable fields of an existing tour. The step list
// is written wholesale; concurrent editors of the same tour overwrite each
// other (single-creator ownership makes this acceptable).
func (r *MongoTourRepository) UpdateTour(ctx context.Context, id string, creator uint, tour *models.Tour) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrTourNotFound
	}

	tour.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":       tour.Title,
			"description": tour.Description,
			"steps":       tour.Steps,
			"is_public":   tour.IsPublic,
			"updated_at":  tour.UpdatedAt,
		},
	}
	// Assigned exactly once; never cleared when the tour goes private again.
	if tour.ShareSlug != "" {
		update["$set"].(bson.M)["share_slug"] = tour.ShareSlug
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID, "creator": creator}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTourNotFound
	}
	return nil
}

// DeleteTour deletes a tour by ID, scoped to its creator
func (r *MongoTourRepository) DeleteTour(ctx context.Context, id string, creator uint) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrTourNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "creator": creator})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrTourNotFound
	}
	return nil
}

// IncrementViews increments the view counter of a tour
func (r *MongoTourRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// IncrementClicks increments the click counter of a tour
func (r *MongoTourRepository) IncrementClicks(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"clicks": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	return nil
}
