package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"counselhub/internal/model"
)

// RunRepo handles MongoDB operations for analysis runs. Runs are append-only
// history: Append is the only write, and it must be the final step of an
// analysis so a failure upstream leaves no orphaned run.
type RunRepo interface {
	Append(ctx context.Context, run *model.AnalysisRun) error
	GetByID(ctx context.Context, counselorID, runID string) (*model.AnalysisRun, error)
	ListByCounselor(ctx context.Context, counselorID string) ([]*model.AnalysisRun, error)
}

type runRepo struct {
	collection *mongo.Collection
}

// NewRunRepo creates a new analysis-run repository.
func NewRunRepo(db *mongo.Database) RunRepo {
	return &runRepo{collection: db.Collection("analysis_runs")}
}

func (r *runRepo) Append(ctx context.Context, run *model.AnalysisRun) error {
	_, err := r.collection.InsertOne(ctx, run)
	return err
}

func (r *runRepo) GetByID(ctx context.Context, counselorID, runID string) (*model.AnalysisRun, error) {
	var run model.AnalysisRun
	err := r.collection.FindOne(ctx, bson.M{"_id": runID, "counselorId": counselorID}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepo) ListByCounselor(ctx context.Context, counselorID string) ([]*model.AnalysisRun, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"counselorId": counselorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []*model.AnalysisRun
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
