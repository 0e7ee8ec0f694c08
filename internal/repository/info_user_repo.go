package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"panel-admin/internal/domain"
)

// InfoUserRepository expone los contactos que escribe la integracion de mensajeria.
type InfoUserRepository interface {
	List(ctx context.Context, limit, offset int) ([]domain.InfoUser, error)
	GetByID(ctx context.Context, id string) (domain.InfoUser, error)
}

type PgInfoUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgInfoUserRepository(pool *pgxpool.Pool) *PgInfoUserRepository {
	return &PgInfoUserRepository{pool: pool}
}

func (r *PgInfoUserRepository) List(ctx context.Context, limit, offset int) ([]domain.InfoUser, error) {
	const query = `
		SELECT id, name, phone, data, created_at
		FROM info_users
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.InfoUser{}
	for rows.Next() {
		user, err := scanInfoUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PgInfoUserRepository) GetByID(ctx context.Context, id string) (domain.InfoUser, error) {
	const query = `
		SELECT id, name, phone, data, created_at
		FROM info_users
		WHERE id = $1
	`
	return scanInfoUser(r.pool.QueryRow(ctx, query, id))
}

func scanInfoUser(row pgx.Row) (domain.InfoUser, error) {
	var (
		user domain.InfoUser
		name *string
		raw  []byte
	)
	if err := row.Scan(&user.ID, &name, &user.Phone, &raw, &user.CreatedAt); err != nil {
		return domain.InfoUser{}, err
	}
	if name != nil {
		user.Name = *name
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &user.Data); err != nil {
			return domain.InfoUser{}, err
		}
	}
	return user, nil
}
