package repository

import (
	"context"
	"errors"
	"time"

	"github.com/umalmyha/inquiries/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoInquiriesCollection = "inquiries"
	mongoFlagsCollection     = "feature_flags"
)

type mongoInquiryRepository struct {
	collection *mongo.Collection
}

// NewMongoInquiryRepository builds mongo InquiryRepository
func NewMongoInquiryRepository(db *mongo.Database) InquiryRepository {
	return &mongoInquiryRepository{collection: db.Collection(mongoInquiriesCollection)}
}

func (r *mongoInquiryRepository) FindAll(ctx context.Context) ([]*model.Inquiry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	inquiries := make([]*model.Inquiry, 0)
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, err
	}
	return inquiries, nil
}

func (r *mongoInquiryRepository) UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) (*model.Inquiry, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: at},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var i model.Inquiry
	if err := r.collection.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&i); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInquiryNotFound
		}
		return nil, err
	}
	return &i, nil
}
