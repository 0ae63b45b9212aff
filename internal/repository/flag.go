package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/pkg/db/transactor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v3"
)

// FlagRepository reads remote feature flag records
type FlagRepository interface {
	FindAll(context.Context) ([]*model.FlagRecord, error)
}

// AgedFlagRepository is FlagRepository which may serve records read from flag store earlier,
// readAt is the time records were read from flag store.
type AgedFlagRepository interface {
	FlagRepository
	FindAllAged(context.Context) (records []*model.FlagRecord, readAt time.Time, err error)
}

type freshReadKey struct{}

// WithFreshRead marks ctx so flag reads go to flag store skipping every shared cache
func WithFreshRead(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshReadKey{}, true)
}

// FreshRead reports whether ctx was marked with WithFreshRead
func FreshRead(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshReadKey{}).(bool)
	return fresh
}

type postgresFlagRepository struct {
	executor transactor.PgxWithinTransactionExecutor
}

// NewPostgresFlagRepository builds postgres FlagRepository
func NewPostgresFlagRepository(executor transactor.PgxWithinTransactionExecutor) FlagRepository {
	return &postgresFlagRepository{executor: executor}
}

func (r *postgresFlagRepository) FindAll(ctx context.Context) ([]*model.FlagRecord, error) {
	q := "SELECT key, enabled, rollout_percentage, safe_mode_message FROM feature_flags"

	rows, err := r.executor.Executor(ctx).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*model.FlagRecord, 0)
	for rows.Next() {
		var f model.FlagRecord
		if err := rows.Scan(&f.Key, &f.Enabled, &f.RolloutPercentage, &f.SafeModeMessage); err != nil {
			return nil, err
		}
		records = append(records, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type mongoFlagRepository struct {
	collection *mongo.Collection
}

// NewMongoFlagRepository builds mongo FlagRepository
func NewMongoFlagRepository(db *mongo.Database) FlagRepository {
	return &mongoFlagRepository{collection: db.Collection(mongoFlagsCollection)}
}

func (r *mongoFlagRepository) FindAll(ctx context.Context) ([]*model.FlagRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := make([]*model.FlagRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type fileFlags struct {
	Flags []*model.FlagRecord `yaml:"flags"`
}

type fileFlagRepository struct {
	path string
}

// NewFileFlagRepository builds FlagRepository which reads yaml file on every call,
// so file can be edited while service is running
func NewFileFlagRepository(path string) FlagRepository {
	return &fileFlagRepository{path: path}
}

func (r *fileFlagRepository) FindAll(ctx context.Context) ([]*model.FlagRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature flags file - %w", err)
	}

	var f fileFlags
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("failed to parse feature flags file %s - %w", r.path, err)
	}
	return f.Flags, nil
}
