package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"counselhub/internal/model"
)

// UserRepo handles MongoDB operations for counselors and students.
type UserRepo interface {
	GetCounselor(ctx context.Context, id string) (*model.Counselor, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	ListStudentsByCounselor(ctx context.Context, counselorID string) ([]*model.Student, error)
}

type userRepo struct {
	counselors *mongo.Collection
	students   *mongo.Collection
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{
		counselors: db.Collection("counselors"),
		students:   db.Collection("students"),
	}
}

func (r *userRepo) GetCounselor(ctx context.Context, id string) (*model.Counselor, error) {
	var counselor model.Counselor
	err := r.counselors.FindOne(ctx, bson.M{"_id": id}).Decode(&counselor)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &counselor, nil
}

func (r *userRepo) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.students.FindOne(ctx, bson.M{"_id": id}).Decode(&student)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *userRepo) ListStudentsByCounselor(ctx context.Context, counselorID string) ([]*model.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}})
	cursor, err := r.students.Find(ctx, bson.M{"counselorId": counselorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var students []*model.Student
	if err = cursor.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}
