package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, res *Resource) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	const query = `
		INSERT INTO public.resources
			(name, description, location, resource_type, capacity, is_available, requires_approval, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		res.Name, res.Description, res.Location, res.ResourceType, res.Capacity,
		res.IsAvailable, res.RequiresApproval, res.CreatedBy,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	const query = `
		SELECT id, name, description, location, resource_type, capacity,
		       is_available, requires_approval, created_by, created_at, updated_at
		FROM public.resources
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var res Resource
	if err := row.Scan(
		&res.ID, &res.Name, &res.Description, &res.Location, &res.ResourceType, &res.Capacity,
		&res.IsAvailable, &res.RequiresApproval, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return &res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	var args []interface{}
	queryBase := `
		SELECT id, name, description, location, resource_type, capacity,
		       is_available, requires_approval, created_by, created_at, updated_at,
		       count(*) OVER() as total_count
		FROM public.resources
		WHERE 1=1
	`
	paramIndex := 1

	if filter.ResourceType != "" {
		queryBase += fmt.Sprintf(" AND resource_type = $%d", paramIndex)
		args = append(args, filter.ResourceType)
		paramIndex++
	}
	if filter.Location != "" {
		queryBase += fmt.Sprintf(" AND location ILIKE $%d", paramIndex)
		args = append(args, "%"+filter.Location+"%")
		paramIndex++
	}
	if filter.Search != "" {
		queryBase += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", paramIndex, paramIndex)
		args = append(args, "%"+filter.Search+"%")
		paramIndex++
	}
	if filter.AvailableOnly {
		queryBase += " AND is_available = true"
	}

	queryBase += " ORDER BY name ASC"

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBase += fmt.Sprintf(" LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, filter.PageSize, offset)

	rows, err := r.pool.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	var total int

	for rows.Next() {
		var res Resource
		if err := rows.Scan(
			&res.ID, &res.Name, &res.Description, &res.Location, &res.ResourceType, &res.Capacity,
			&res.IsAvailable, &res.RequiresApproval, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, &res)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	const query = `
		UPDATE public.resources
		SET name = $1, description = $2, location = $3, capacity = $4,
		    is_available = $5, requires_approval = $6, updated_at = localtimestamp
		WHERE id = $7
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		res.Name, res.Description, res.Location, res.Capacity,
		res.IsAvailable, res.RequiresApproval, res.ID,
	).Scan(&res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update resource failed: %w", err)
	}
	return nil
}
