// Package postgresdb provides a PostgreSQL-based implementation of the user
// and exercise log storage.
// Each log entry is a row of the exercises table; its sequence number keeps
// the append order.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/exercisetracker/internal/models"
	"github.com/patric-chuzhbe/exercisetracker/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the tracker storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables dropping every table before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("postgresdb.New(): error while `result.resetDB()` calling: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("postgresdb.New(): error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.UpContext(ctx, result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("postgresdb.New(): error while `goose.UpContext()` calling: %w", err)
	}

	return result, nil
}

// InsertUser creates a user with a fresh UUID. A taken name yields
// models.ErrDuplicateKey.
func (db *PostgresDB) InsertUser(ctx context.Context, userName string) (*user.User, error) {
	id := uuid.NewString()

	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO users (id, user_name) VALUES ($1, $2)`,
		id,
		userName,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, fmt.Errorf("%s: %w", pgErr.Message, models.ErrDuplicateKey)
		}
		return nil, err
	}

	return &user.User{
		ID:       id,
		UserName: userName,
		Log:      []models.Exercise{},
	}, nil
}

// FindAllUsers lists every user in creation order.
func (db *PostgresDB) FindAllUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, user_name FROM users ORDER BY created_seq`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.UserSummary{}
	for rows.Next() {
		var summary models.UserSummary
		if err := rows.Scan(&summary.ID, &summary.UserName); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// FindUserByID reads the user and the log from one snapshot.
// A missing user yields nil without error.
func (db *PostgresDB) FindUserByID(ctx context.Context, userID string) (*user.User, error) {
	transaction, err := db.database.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	usr := &user.User{}
	err = transaction.QueryRowContext(
		ctx,
		`SELECT id, user_name FROM users WHERE id = $1`,
		userID,
	).Scan(&usr.ID, &usr.UserName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	usr.Log, err = db.selectLog(ctx, transaction, userID)
	if err != nil {
		return nil, err
	}

	if err := transaction.Commit(); err != nil {
		return nil, err
	}

	return usr, nil
}

func (db *PostgresDB) selectLog(ctx context.Context, database queryer, userID string) ([]models.Exercise, error) {
	rows, err := database.QueryContext(
		ctx,
		`SELECT description, duration, date FROM exercises WHERE user_id = $1 ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	log := []models.Exercise{}
	for rows.Next() {
		var entry models.Exercise
		var duration float64
		if err := rows.Scan(&entry.Description, &duration, &entry.Date); err != nil {
			return nil, err
		}
		entry.Duration = models.Duration(duration)
		log = append(log, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return log, nil
}

// PushToLog inserts the entry and reads the owner back in a single
// statement. Nothing is inserted when the user does not exist, in which
// case nil is returned.
func (db *PostgresDB) PushToLog(ctx context.Context, userID string, entry models.Exercise) (*models.UserSummary, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			WITH target AS (
				SELECT id, user_name FROM users WHERE id = $1
			), inserted AS (
				INSERT INTO exercises (user_id, description, duration, date)
					SELECT id, $2, $3, $4 FROM target
					RETURNING user_id
			)
			SELECT target.id, target.user_name
				FROM target
					JOIN inserted ON inserted.user_id = target.id
		`,
		userID,
		entry.Description,
		float64(entry.Duration),
		entry.Date,
	)

	var summary models.UserSummary
	if err := row.Scan(&summary.ID, &summary.UserName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &summary, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf("postgresdb.resetDB(): error while `db.database.ExecContext()` calling: %w", err)
	}
	return nil
}
