// Package repository provides data persistence implementations for environment entities.
// Variable maps are stored as a JSON column and marshaled at this boundary.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/database"
	"github.com/allisson/envstore/internal/environment/domain"

	apperrors "github.com/allisson/envstore/internal/errors"
)

const postgresEnvironmentColumns = `id, name, project_id, variables, created_at, updated_at`

// PostgreSQLEnvironmentRepository handles environment persistence for PostgreSQL.
type PostgreSQLEnvironmentRepository struct {
	db *sql.DB
}

// NewPostgreSQLEnvironmentRepository creates a new PostgreSQLEnvironmentRepository.
func NewPostgreSQLEnvironmentRepository(db *sql.DB) *PostgreSQLEnvironmentRepository {
	return &PostgreSQLEnvironmentRepository{
		db: db,
	}
}

// Create inserts a new environment.
func (r *PostgreSQLEnvironmentRepository) Create(ctx context.Context, environment *domain.Environment) error {
	querier := database.GetTx(ctx, r.db)

	variables, err := marshalVariables(environment.Variables)
	if err != nil {
		return err
	}

	query := `INSERT INTO environments (id, name, project_id, variables, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, environment.ID, environment.Name, environment.ProjectID, variables)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrEnvironmentNameTaken
		}
		return apperrors.Wrap(err, "failed to create environment")
	}
	return nil
}

// Get retrieves an environment by ID regardless of owner.
func (r *PostgreSQLEnvironmentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Environment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresEnvironmentColumns + ` FROM environments WHERE id = $1`

	return scanPostgresEnvironment(querier.QueryRowContext(ctx, query, id), "failed to get environment by id")
}

// GetByNameAndProject retrieves an environment by normalized name within a project.
func (r *PostgreSQLEnvironmentRepository) GetByNameAndProject(ctx context.Context, name string, projectID uuid.UUID) (*domain.Environment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresEnvironmentColumns + ` FROM environments WHERE name = $1 AND project_id = $2`

	return scanPostgresEnvironment(querier.QueryRowContext(ctx, query, name, projectID), "failed to get environment by name and project")
}

// ListByProject retrieves all environments of a project, newest first.
func (r *PostgreSQLEnvironmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Environment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresEnvironmentColumns + ` FROM environments
			  WHERE project_id = $1 ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list environments")
	}
	defer rows.Close()

	environments := []*domain.Environment{}
	for rows.Next() {
		var environment domain.Environment
		var variables []byte
		err := rows.Scan(
			&environment.ID, &environment.Name, &environment.ProjectID,
			&variables, &environment.CreatedAt, &environment.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan environment")
		}
		if environment.Variables, err = unmarshalVariables(variables); err != nil {
			return nil, err
		}
		environments = append(environments, &environment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate environments")
	}

	return environments, nil
}

// UpdateVariables replaces the variable map.
func (r *PostgreSQLEnvironmentRepository) UpdateVariables(ctx context.Context, id uuid.UUID, variables map[string]string) error {
	querier := database.GetTx(ctx, r.db)

	payload, err := marshalVariables(variables)
	if err != nil {
		return err
	}

	query := `UPDATE environments SET variables = $1, updated_at = NOW() WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, payload, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update environment variables")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrEnvironmentNotFound
	}

	return nil
}

// Delete removes an environment row.
func (r *PostgreSQLEnvironmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM environments WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete environment")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrEnvironmentNotFound
	}

	return nil
}

// DeleteByProject removes all environments of a project and reports how many
// rows went away. Zero is not an error.
func (r *PostgreSQLEnvironmentRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM environments WHERE project_id = $1`

	result, err := querier.ExecContext(ctx, query, projectID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete environments by project")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return rows, nil
}

// scanPostgresEnvironment scans a single environment row.
func scanPostgresEnvironment(row *sql.Row, wrapMsg string) (*domain.Environment, error) {
	var environment domain.Environment
	var variables []byte

	err := row.Scan(
		&environment.ID, &environment.Name, &environment.ProjectID,
		&variables, &environment.CreatedAt, &environment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEnvironmentNotFound
		}
		return nil, apperrors.Wrap(err, wrapMsg)
	}

	if environment.Variables, err = unmarshalVariables(variables); err != nil {
		return nil, err
	}

	return &environment, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
