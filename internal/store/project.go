package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harjot20022001/bug-tracker/types"
	"github.com/lib/pq"
)

// ProjectRepository handles persistence for projects.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectSelect = `
		SELECT p.id, p.name, p.description, p.owner_id,
			COALESCE(o.name, ''), COALESCE(o.email, ''),
			p.members, p.created_at
		FROM projects p
		LEFT JOIN users o ON o.id = p.owner_id`

func scanProject(row interface{ Scan(...any) error }) (types.Project, error) {
	var project types.Project
	var members []string
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Owner.ID,
		&project.Owner.Name,
		&project.Owner.Email,
		pq.Array(&members),
		&project.CreatedAt,
	); err != nil {
		return types.Project{}, err
	}
	if members == nil {
		members = []string{}
	}
	project.Members = members
	return project, nil
}

// List returns every project, newest first.
func (r *ProjectRepository) List(ctx context.Context) ([]types.Project, error) {
	const query = projectSelect + `
		ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]types.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (types.Project, error) {
	const query = projectSelect + `
		WHERE p.id = $1`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Project{}, ErrNotFound
		}
		return types.Project{}, err
	}
	return project, nil
}

// Create inserts project and returns it with owner resolved.
func (r *ProjectRepository) Create(ctx context.Context, project types.Project) (types.Project, error) {
	project.ID = uuid.NewString()
	project.CreatedAt = time.Now().UTC()
	if project.Members == nil {
		project.Members = []string{}
	}

	const query = `
		INSERT INTO projects (id, name, description, owner_id, members, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		project.ID,
		project.Name,
		project.Description,
		project.Owner.ID,
		pq.Array(project.Members),
		project.CreatedAt,
	); err != nil {
		return types.Project{}, mapError(err)
	}
	return r.Get(ctx, project.ID)
}

// Update writes name, description and members. The owner is never changed.
func (r *ProjectRepository) Update(ctx context.Context, project types.Project) (types.Project, error) {
	if project.Members == nil {
		project.Members = []string{}
	}

	const query = `
		UPDATE projects
		SET name = $1,
			description = $2,
			members = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		project.Name,
		project.Description,
		pq.Array(project.Members),
		project.ID,
	)
	if err != nil {
		return types.Project{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Project{}, err
	}
	if affected == 0 {
		return types.Project{}, ErrNotFound
	}
	return r.Get(ctx, project.ID)
}

// Delete removes the project. Its tickets and their attachment rows go with it.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM projects WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
