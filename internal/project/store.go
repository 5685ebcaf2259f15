package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists projects and their document snapshots. Lookups of a missing
// project return ErrNotFound.
type Store interface {
	CreateProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	// CreateSnapshot stores snap with the next version number for its project
	// and returns it with Version and CreatedAt filled in.
	CreateSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error)
	LatestSnapshot(ctx context.Context, projectID string) (Snapshot, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	version    INTEGER NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (project_id, version)
);
`

// NewPool connects to Postgres and checks the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the projects and snapshots tables if they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, p Project) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Project, error) {
		var p Project
		err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan projects: %w", err)
	}
	return projects, nil
}

func (s *PostgresStore) CreateSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Locking the project row serialises version allocation per project.
	var updated time.Time
	err = tx.QueryRow(ctx,
		`UPDATE projects SET updated_at = now() WHERE id = $1 RETURNING updated_at`, snap.ProjectID,
	).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("touch project: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO snapshots (id, project_id, version, document, created_at)
		 SELECT $1::text, $2::text, COALESCE(MAX(version), 0) + 1, $3::jsonb, $4::timestamptz
		 FROM snapshots WHERE project_id = $2
		 RETURNING version`,
		snap.ID, snap.ProjectID, []byte(snap.Document), updated,
	).Scan(&snap.Version)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	snap.CreatedAt = updated

	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	snap := Snapshot{ProjectID: projectID}
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, version, document, created_at FROM snapshots
		 WHERE project_id = $1 ORDER BY version DESC LIMIT 1`, projectID,
	).Scan(&snap.ID, &snap.Version, &doc, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snap.Document = doc
	return snap, nil
}

// DirStore keeps each project in its own directory under root:
//
//	<root>/<project id>/project.json
//	<root>/<project id>/v000001.json
//	<root>/<project id>/v000002.json
//
// Snapshot files hold the bare document so they can be opened by hand.
type DirStore struct {
	root string

	mu sync.Mutex
}

func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &DirStore{root: root}, nil
}

type projectFile struct {
	Project
	Snapshots []snapshotEntry `json:"snapshots"`
}

type snapshotEntry struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *DirStore) dir(id string) string {
	return filepath.Join(s.root, filepath.Base(id))
}

func snapshotFile(version int) string {
	return fmt.Sprintf("v%06d.json", version)
}

func (s *DirStore) readProject(id string) (projectFile, error) {
	var pf projectFile
	data, err := os.ReadFile(filepath.Join(s.dir(id), "project.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pf, ErrNotFound
		}
		return pf, fmt.Errorf("read project: %w", err)
	}
	if err := json.Unmarshal(data, &pf); err != nil {
		return pf, fmt.Errorf("decode project %s: %w", id, err)
	}
	return pf, nil
}

func (s *DirStore) writeProject(pf projectFile) error {
	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dir(pf.ID), "project.json"), data)
}

func (s *DirStore) CreateProject(ctx context.Context, p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Mkdir(s.dir(p.ID), 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	return s.writeProject(projectFile{Project: p, Snapshots: []snapshotEntry{}})
}

func (s *DirStore) GetProject(ctx context.Context, id string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pf, err := s.readProject(id)
	if err != nil {
		return Project{}, err
	}
	return pf.Project, nil
}

func (s *DirStore) ListProjects(ctx context.Context) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := []Project{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pf, err := s.readProject(entry.Name())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		projects = append(projects, pf.Project)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (s *DirStore) CreateSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pf, err := s.readProject(snap.ProjectID)
	if err != nil {
		return Snapshot{}, err
	}

	snap.Version = len(pf.Snapshots) + 1
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	path := filepath.Join(s.dir(pf.ID), snapshotFile(snap.Version))
	if err := writeFileAtomic(path, snap.Document); err != nil {
		return Snapshot{}, err
	}

	pf.Snapshots = append(pf.Snapshots, snapshotEntry{ID: snap.ID, Version: snap.Version, CreatedAt: snap.CreatedAt})
	pf.UpdatedAt = snap.CreatedAt
	if err := s.writeProject(pf); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *DirStore) LatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pf, err := s.readProject(projectID)
	if err != nil {
		return Snapshot{}, err
	}
	if len(pf.Snapshots) == 0 {
		return Snapshot{}, ErrNotFound
	}
	last := pf.Snapshots[len(pf.Snapshots)-1]
	doc, err := os.ReadFile(filepath.Join(s.dir(pf.ID), snapshotFile(last.Version)))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return Snapshot{
		ID:        last.ID,
		ProjectID: pf.ID,
		Version:   last.Version,
		Document:  doc,
		CreatedAt: last.CreatedAt,
	}, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
