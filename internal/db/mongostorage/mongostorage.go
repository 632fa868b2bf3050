// Package mongostorage keeps every user as one MongoDB document whose log
// is an embedded array, grown with $push.
package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/patric-chuzhbe/exercisetracker/internal/models"
	"github.com/patric-chuzhbe/exercisetracker/internal/user"
)

const usersCollection = "users"

type MongoStorage struct {
	client            *mongo.Client
	users             *mongo.Collection
	connectionTimeout time.Duration
}

// New connects to uri, selects databaseName and makes sure the unique
// index on userName exists.
func New(
	ctx context.Context,
	uri string,
	databaseName string,
	connectionTimeout time.Duration,
) (*MongoStorage, error) {
	client, err := mongo.Connect(
		ctx,
		options.Client().
			ApplyURI(uri).
			SetConnectTimeout(connectionTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("mongostorage.New(): error while `mongo.Connect()` calling: %w", err)
	}

	result := &MongoStorage{
		client:            client,
		users:             client.Database(databaseName).Collection(usersCollection),
		connectionTimeout: connectionTimeout,
	}

	_, err = result.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userName", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("userName_unique"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostorage.New(): error while creating the userName index: %w", err)
	}

	return result, nil
}

func (s *MongoStorage) InsertUser(ctx context.Context, userName string) (*user.User, error) {
	usr := &user.User{
		ID:       uuid.NewString(),
		UserName: userName,
		Log:      []models.Exercise{},
	}

	if _, err := s.users.InsertOne(ctx, usr); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", err.Error(), models.ErrDuplicateKey)
		}
		return nil, err
	}

	return usr, nil
}

func (s *MongoStorage) FindAllUsers(ctx context.Context) ([]models.UserSummary, error) {
	cursor, err := s.users.Find(
		ctx,
		bson.D{},
		options.Find().SetProjection(bson.D{{Key: "userName", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}

	result := []models.UserSummary{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *MongoStorage) FindUserByID(ctx context.Context, userID string) (*user.User, error) {
	usr := &user.User{}
	err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(usr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return usr, nil
}

// PushToLog relies on findOneAndUpdate being atomic per document.
func (s *MongoStorage) PushToLog(ctx context.Context, userID string, entry models.Exercise) (*models.UserSummary, error) {
	var summary models.UserSummary
	err := s.users.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "log", Value: entry}}}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.D{{Key: "userName", Value: 1}}),
	).Decode(&summary)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &summary, nil
}

func (s *MongoStorage) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, s.connectionTimeout)
	defer cancel()

	return s.client.Ping(ctxWithTimeout, readpref.Primary())
}

func (s *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.connectionTimeout)
	defer cancel()

	return s.client.Disconnect(ctx)
}
