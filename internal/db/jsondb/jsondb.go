// Package jsondb keeps users and their logs in memory and persists the
// snapshot to a JSON file when closed.
package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/exercisetracker/internal/models"
	"github.com/patric-chuzhbe/exercisetracker/internal/user"
)

// TriesToGenerateUniqueID bounds the attempts to find an unused user id.
const TriesToGenerateUniqueID = 10

var ErrIDSpaceExhausted = errors.New("the number of attempts to generate a unique user id has been exceeded")

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

type CacheStruct struct {
	// Users is keyed by user id.
	Users map[string]*user.User

	// UserNames maps a user name onto its id and backs the uniqueness rule.
	UserNames map[string]string

	// Order keeps ids in creation order.
	Order []string
}

// NewCache returns an empty cache ready for use.
func NewCache() CacheStruct {
	return CacheStruct{
		Users:     map[string]*user.User{},
		UserNames: map[string]string{},
		Order:     []string{},
	}
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    NewCache(),
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := writeToJSONFile(fileName, db.Cache); err != nil {
			return nil, err
		}
	}
	db.repairCache()

	return db, nil
}

func (db *JSONDB) repairCache() {
	if db.Cache.Users == nil {
		db.Cache.Users = map[string]*user.User{}
	}
	if db.Cache.UserNames == nil {
		db.Cache.UserNames = map[string]string{}
	}
	for id, usr := range db.Cache.Users {
		db.Cache.UserNames[usr.UserName] = id
	}
	if len(db.Cache.Order) != len(db.Cache.Users) {
		db.Cache.Order = funk.Keys(db.Cache.Users).([]string)
	}
}

func (db *JSONDB) generateUserID() (string, error) {
	for i := 0; i < TriesToGenerateUniqueID; i++ {
		id := uuid.NewString()
		if _, exists := db.Cache.Users[id]; !exists {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}

// InsertUser stores a new user with an empty log.
func (db *JSONDB) InsertUser(ctx context.Context, userName string) (*user.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, taken := db.Cache.UserNames[userName]; taken {
		return nil, fmt.Errorf("user name %q: %w", userName, models.ErrDuplicateKey)
	}

	id, err := db.generateUserID()
	if err != nil {
		return nil, err
	}

	usr := &user.User{
		ID:       id,
		UserName: userName,
		Log:      []models.Exercise{},
	}
	db.Cache.Users[id] = usr
	db.Cache.UserNames[userName] = id
	db.Cache.Order = append(db.Cache.Order, id)

	return copyUser(usr), nil
}

func (db *JSONDB) FindAllUsers(ctx context.Context) ([]models.UserSummary, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return funk.Map(db.Cache.Order, func(id string) models.UserSummary {
		return db.Cache.Users[id].Summary()
	}).([]models.UserSummary), nil
}

// FindUserByID returns a copy of the user, or nil when the id is unknown.
func (db *JSONDB) FindUserByID(ctx context.Context, userID string) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, nil
	}

	return copyUser(usr), nil
}

// PushToLog appends entry under the write lock, so concurrent appends to
// one user never lose each other.
func (db *JSONDB) PushToLog(ctx context.Context, userID string, entry models.Exercise) (*models.UserSummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, nil
	}
	usr.Log = append(usr.Log, entry)

	summary := usr.Summary()
	return &summary, nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}

func copyUser(usr *user.User) *user.User {
	log := make([]models.Exercise, len(usr.Log))
	copy(log, usr.Log)

	return &user.User{
		ID:       usr.ID,
		UserName: usr.UserName,
		Log:      log,
	}
}
