package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/oyucel/timeledger/internal/repository"
)

type DirectoryRepository struct {
	db *sql.DB
}

func NewDirectoryRepository(db *sql.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) TaskExists(ctx context.Context, taskID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`,
		taskID,
	).Scan(&exists)

	return exists, err
}

func (r *DirectoryRepository) TaskProjectID(ctx context.Context, taskID string) (string, error) {
	var projectID string
	err := r.db.QueryRowContext(
		ctx,
		`SELECT project_id FROM tasks WHERE id = $1`,
		taskID,
	).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}

	return projectID, err
}

func (r *DirectoryRepository) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks SET status = $1 WHERE id = $2`,
		status,
		taskID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *DirectoryRepository) CountProjectTasks(ctx context.Context, projectID string) (int, int, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $2)
		FROM tasks
		WHERE project_id = $1
	`

	var total, completed int
	err := r.db.QueryRowContext(ctx, query, projectID, repository.TaskStatusCompleted).
		Scan(&total, &completed)

	return total, completed, err
}

func (r *DirectoryRepository) SetProjectProgress(ctx context.Context, projectID string, progress int) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE projects SET progress = $1 WHERE id = $2`,
		progress,
		projectID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *DirectoryRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`,
		userID,
	).Scan(&exists)

	return exists, err
}

func (r *DirectoryRepository) GetUser(ctx context.Context, userID string) (*repository.User, error) {
	var u repository.User
	err := r.db.QueryRowContext(
		ctx,
		`SELECT id, first_name, email FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *DirectoryRepository) ListUsers(ctx context.Context) ([]repository.User, error) {
	query := `
		SELECT id, first_name, email
		FROM users
		WHERE id != '1'
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var users []repository.User
	for rows.Next() {
		var u repository.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}

		users = append(users, u)
	}

	return users, rows.Err()
}
