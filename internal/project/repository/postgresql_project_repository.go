// Package repository provides data persistence implementations for project entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/database"
	"github.com/allisson/envstore/internal/project/domain"

	apperrors "github.com/allisson/envstore/internal/errors"
)

const postgresProjectColumns = `id, name, user_id, created_at, updated_at`

// PostgreSQLProjectRepository handles project persistence for PostgreSQL.
type PostgreSQLProjectRepository struct {
	db *sql.DB
}

// NewPostgreSQLProjectRepository creates a new PostgreSQLProjectRepository.
func NewPostgreSQLProjectRepository(db *sql.DB) *PostgreSQLProjectRepository {
	return &PostgreSQLProjectRepository{
		db: db,
	}
}

// Create inserts a new project.
func (r *PostgreSQLProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO projects (id, name, user_id, created_at, updated_at)
			  VALUES ($1, $2, $3, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, project.ID, project.Name, project.UserID)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrProjectNameTaken
		}
		return apperrors.Wrap(err, "failed to create project")
	}
	return nil
}

// Get retrieves a project by ID regardless of owner.
func (r *PostgreSQLProjectRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresProjectColumns + ` FROM projects WHERE id = $1`

	return scanPostgresProject(querier.QueryRowContext(ctx, query, id), "failed to get project by id")
}

// GetByIDAndUser retrieves a project by ID filtered by owner.
func (r *PostgreSQLProjectRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Project, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresProjectColumns + ` FROM projects WHERE id = $1 AND user_id = $2`

	return scanPostgresProject(querier.QueryRowContext(ctx, query, id, userID), "failed to get project by id and user")
}

// GetByNameAndUser retrieves a project by normalized name filtered by owner.
func (r *PostgreSQLProjectRepository) GetByNameAndUser(ctx context.Context, name string, userID uuid.UUID) (*domain.Project, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresProjectColumns + ` FROM projects WHERE name = $1 AND user_id = $2`

	return scanPostgresProject(querier.QueryRowContext(ctx, query, name, userID), "failed to get project by name and user")
}

// ListByUser retrieves the user's projects, newest first.
func (r *PostgreSQLProjectRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Project, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresProjectColumns + ` FROM projects
			  WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list projects")
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		var project domain.Project
		err := rows.Scan(&project.ID, &project.Name, &project.UserID, &project.CreatedAt, &project.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan project")
		}
		projects = append(projects, &project)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate projects")
	}

	return projects, nil
}

// UpdateName renames a project.
func (r *PostgreSQLProjectRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE projects SET name = $1, updated_at = NOW() WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, name, id)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrProjectNameTaken
		}
		return apperrors.Wrap(err, "failed to update project name")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrProjectNotFound
	}

	return nil
}

// Delete removes a project row.
func (r *PostgreSQLProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM projects WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete project")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrProjectNotFound
	}

	return nil
}

// scanPostgresProject scans a single project row.
func scanPostgresProject(row *sql.Row, wrapMsg string) (*domain.Project, error) {
	var project domain.Project

	err := row.Scan(&project.ID, &project.Name, &project.UserID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(err, wrapMsg)
	}

	return &project, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
