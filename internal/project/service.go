package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/typeid"
)

var (
	ErrNotFound    = errors.New("project not found")
	ErrInvalidName = errors.New("name is required")
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Snapshot struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	Version   int             `json:"version"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (s *Service) Create(ctx context.Context, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	now := time.Now().UTC()
	p := Project{ID: typeid.NewProjectID(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	// Seed empty document snapshot
	docJSON, err := document.NewEmptyDocument().Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}
	_, err = s.store.CreateSnapshot(ctx, Snapshot{
		ID:        typeid.NewSnapshotID(),
		ProjectID: p.ID,
		Document:  docJSON,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	slog.Info("project created", "project", p.ID, "name", p.Name)
	return &p, nil
}

func (s *Service) Get(ctx context.Context, projectID string) (*Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) List(ctx context.Context) ([]Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// SaveSnapshot validates data as a document and stores it as the project's
// next version. Invalid documents are rejected with document.ErrInvalidDocument
// and nothing is written.
func (s *Service) SaveSnapshot(ctx context.Context, projectID string, data []byte) (*Snapshot, error) {
	doc, err := document.Parse(data)
	if err != nil {
		return nil, err
	}
	return s.SaveDocument(ctx, projectID, doc)
}

// SaveDocument stores an already-validated document as the next version.
func (s *Service) SaveDocument(ctx context.Context, projectID string, doc *document.Document) (*Snapshot, error) {
	docJSON, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	snap, err := s.store.CreateSnapshot(ctx, Snapshot{
		ID:        typeid.NewSnapshotID(),
		ProjectID: projectID,
		Document:  docJSON,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	slog.Info("snapshot saved", "project", projectID, "version", snap.Version, "points", len(doc.Points))
	return &snap, nil
}

func (s *Service) LatestSnapshot(ctx context.Context, projectID string) (*Snapshot, error) {
	snap, err := s.store.LatestSnapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// LatestDocument decodes the latest snapshot of a project.
func (s *Service) LatestDocument(ctx context.Context, projectID string) (*document.Document, error) {
	snap, err := s.LatestSnapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	doc, err := document.Parse(snap.Document)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return doc, nil
}
