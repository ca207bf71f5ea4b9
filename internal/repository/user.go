package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/errs"
	"github.com/msmirnov/school-library/internal/model"
)

type userRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewUserRepository(db *sqlx.DB, log *zap.Logger) (*userRepository, error) {
	return &userRepository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user model.User) error {
	q, args, err := qb.Insert(usersTableName).
		Columns("username", "password", "email", "role").
		Values(user.Username, user.Password, user.Email, user.Role).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *userRepository) GetUser(ctx context.Context, username string) (model.User, error) {
	q, args, err := qb.Select("id", "username", "password", "email", "role").
		From(usersTableName).
		Where(sq.Eq{"username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}
