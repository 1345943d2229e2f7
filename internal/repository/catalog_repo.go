package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"prepboard-backend/internal/models"
)

// CatalogRepo reads the static subject catalog. The table is seeded by
// migrations and only changes on deploys, so callers load it once at
// startup.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

func (r *CatalogRepo) ListAll(ctx context.Context) (models.SubjectCatalog, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT api_name, display_name, questions, category FROM subjects ORDER BY display_name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalog models.SubjectCatalog
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.APIName, &s.DisplayName, &s.Questions, &s.Category); err != nil {
			return nil, err
		}
		catalog = append(catalog, s)
	}
	return catalog, rows.Err()
}
