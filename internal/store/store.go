package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"uk.co.dudmesh.gatehouse/internal/model"
)

type store struct {
	db *sqlx.DB
}

func New(dbPath string) (*store, error) {
	db, err := sqlx.Connect("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// sqlite allows a single writer; this also keeps :memory: databases
	// on one connection
	db.SetMaxOpenConns(1)

	datastore := &store{db}
	if err := datastore.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return datastore, nil
}

func (d *store) Close() error {
	return d.db.Close()
}

func (d *store) createTables() error {
	_, err := d.db.Exec(`create table if not exists user(
		ID              text not null primary key,
		CreatedAt       DATETIME not null,
		UpdatedAt       DATETIME null,
		Username        text not null,
		Email           text not null unique,
		Password        text not null,
		Inactive        boolean not null default 1,
		ActivationToken text null
	)`)
	if err != nil {
		return fmt.Errorf("creating user table: %w", err)
	}

	_, err = d.db.Exec(`create table if not exists token(
		Token     text not null primary key,
		UserID    text not null,
		CreatedAt DATETIME not null
	)`)
	if err != nil {
		return fmt.Errorf("creating token table: %w", err)
	}

	return nil
}

// CreateUser inserts a new user and commits only once beforeCommit has
// returned nil. A failing beforeCommit rolls the insert back, so a user row
// never outlives a failed activation dispatch. A duplicate email surfaces as
// model.ErrorEmailInUse whether caught here or by the unique index.
func (d *store) CreateUser(user *model.User, beforeCommit func() error) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	res, err := tx.NamedExec(`insert into user
		(ID, CreatedAt, Username, Email, Password, Inactive, ActivationToken)
		values(:ID, :CreatedAt, :Username, :Email, :Password, :Inactive, :ActivationToken)`, user)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return model.ErrorEmailInUse
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		tx.Rollback()
		return fmt.Errorf("getting rows affected: %w", err)
	} else if rows != 1 {
		tx.Rollback()
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}

	if beforeCommit != nil {
		if err := beforeCommit(); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user: %w", err)
	}
	return nil
}

func (d *store) GetUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	err := d.db.Get(user, `select * from user where Email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorUserNotFound
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return user, nil
}

// GetUserByID resolves an active user. Inactive users are reported as not
// found rather than forbidden.
func (d *store) GetUserByID(id model.UserID) (*model.User, error) {
	user := &model.User{}
	err := d.db.Get(user, `select * from user where ID = ? and Inactive = 0`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorUserNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return user, nil
}

func (d *store) GetUserByActivationToken(token string) (*model.User, error) {
	user := &model.User{}
	err := d.db.Get(user, `select * from user where ActivationToken = ?`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorInvalidToken
		}
		return nil, fmt.Errorf("fetching user by activation token: %w", err)
	}
	return user, nil
}

// ActivateUser clears the inactive flag and the activation token in a
// single update.
func (d *store) ActivateUser(id model.UserID) error {
	now := time.Now().UTC()
	res, err := d.db.Exec(`update user
		set Inactive = 0, ActivationToken = null, UpdatedAt = ?
		where ID = ?`, now, id)
	if err != nil {
		return fmt.Errorf("activating user: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows != 1 {
		return model.ErrorUserNotFound
	}
	return nil
}

func (d *store) UpdateUsername(id model.UserID, username string) error {
	now := time.Now().UTC()
	res, err := d.db.Exec(`update user
		set Username = ?, UpdatedAt = ?
		where ID = ?`, username, now, id)
	if err != nil {
		return fmt.Errorf("updating username: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows != 1 {
		return model.ErrorUserNotFound
	}
	return nil
}

func (d *store) CountActiveUsers(exclude model.UserID) (int, error) {
	var count int
	err := d.db.Get(&count, `select count(*) from user
		where Inactive = 0 and ID != ?`, exclude)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// ListActiveUsers pages through active users in insertion order.
func (d *store) ListActiveUsers(exclude model.UserID, limit int, offset int) ([]model.ListedUser, error) {
	users := []model.ListedUser{}
	err := d.db.Select(&users, `select ID, Username, Email from user
		where Inactive = 0 and ID != ?
		order by rowid
		limit ? offset ?`, exclude, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (d *store) CreateToken(token *model.Token) error {
	res, err := d.db.NamedExec(`insert into token
		(Token, UserID, CreatedAt)
		values(:Token, :UserID, :CreatedAt)`, token)
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	} else if rows != 1 {
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}
	return nil
}

func (d *store) GetToken(token string) (*model.Token, error) {
	record := &model.Token{}
	err := d.db.Get(record, `select * from token where Token = ?`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorInvalidToken
		}
		return nil, fmt.Errorf("fetching token: %w", err)
	}
	return record, nil
}

// DeleteToken is idempotent, deleting an unknown token is not an error.
func (d *store) DeleteToken(token string) error {
	_, err := d.db.Exec(`delete from token where Token = ?`, token)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
