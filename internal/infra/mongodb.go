package infra

import (
	"context"
	"fmt"

	"github.com/umalmyha/inquiries/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func Mongodb(ctx context.Context, cfg config.MongoCfg) (*mongo.Client, error) {
	credentials := ""
	if cfg.User != "" {
		credentials = fmt.Sprintf("%s:%s@", cfg.User, cfg.Password)
	}
	uri := fmt.Sprintf("mongodb://%s%s:%d/?maxPoolSize=%d", credentials, cfg.Host, cfg.Port, cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb - %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("didn't get response from mongodb after sending ping request - %w", err)
	}
	return client, nil
}
