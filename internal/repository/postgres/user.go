package postgres

import (
	"context"
	"database/sql"
	"errors"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, name, email, role, push_token FROM users WHERE id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PushToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("User %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, name, email, role, push_token FROM users WHERE role = $1 ORDER BY id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, domain.UserRoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PushToken); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
