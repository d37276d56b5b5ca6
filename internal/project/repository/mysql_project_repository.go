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

const mysqlProjectColumns = `id, name, user_id, created_at, updated_at`

// MySQLProjectRepository handles project persistence for MySQL.
type MySQLProjectRepository struct {
	db *sql.DB
}

// NewMySQLProjectRepository creates a new MySQLProjectRepository.
func NewMySQLProjectRepository(db *sql.DB) *MySQLProjectRepository {
	return &MySQLProjectRepository{
		db: db,
	}
}

// Create inserts a new project.
func (r *MySQLProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO projects (id, name, user_id, created_at, updated_at)
			  VALUES (?, ?, ?, NOW(), NOW())`

	idBytes, err := project.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	userIDBytes, err := project.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query, idBytes, project.Name, userIDBytes)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrProjectNameTaken
		}
		return apperrors.Wrap(err, "failed to create project")
	}
	return nil
}

// Get retrieves a project by ID regardless of owner.
func (r *MySQLProjectRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlProjectColumns + ` FROM projects WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLProject(querier.QueryRowContext(ctx, query, idBytes), "failed to get project by id")
}

// GetByIDAndUser retrieves a project by ID filtered by owner.
func (r *MySQLProjectRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Project, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlProjectColumns + ` FROM projects WHERE id = ? AND user_id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLProject(querier.QueryRowContext(ctx, query, idBytes, userIDBytes), "failed to get project by id and user")
}

// GetByNameAndUser retrieves a project by normalized name filtered by owner.
func (r *MySQLProjectRepository) GetByNameAndUser(ctx context.Context, name string, userID uuid.UUID) (*domain.Project, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlProjectColumns + ` FROM projects WHERE name = ? AND user_id = ?`

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLProject(querier.QueryRowContext(ctx, query, name, userIDBytes), "failed to get project by name and user")
}

// ListByUser retrieves the user's projects, newest first.
func (r *MySQLProjectRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Project, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlProjectColumns + ` FROM projects
			  WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	rows, err := querier.QueryContext(ctx, query, userIDBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list projects")
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		var project domain.Project
		var idBytes, ownerBytes []byte
		err := rows.Scan(&idBytes, &project.Name, &ownerBytes, &project.CreatedAt, &project.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan project")
		}
		if err := project.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := project.UserID.UnmarshalBinary(ownerBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		projects = append(projects, &project)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate projects")
	}

	return projects, nil
}

// UpdateName renames a project.
func (r *MySQLProjectRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE projects SET name = ?, updated_at = NOW() WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, name, idBytes)
	if err != nil {
		if isMySQLUniqueViolation(err) {
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
func (r *MySQLProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM projects WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, idBytes)
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

// scanMySQLProject scans a single project row, converting BINARY(16) ids back to UUIDs.
func scanMySQLProject(row *sql.Row, wrapMsg string) (*domain.Project, error) {
	var project domain.Project
	var idBytes, ownerBytes []byte

	err := row.Scan(&idBytes, &project.Name, &ownerBytes, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(err, wrapMsg)
	}

	if err := project.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := project.UserID.UnmarshalBinary(ownerBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &project, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
