package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/repomanager"
)

// MocInput carries the writable fields of a to-do item.
type MocInput struct {
	Title       string
	Description string
	Completed   bool
}

type MocService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewMocService(db *sql.DB, m repomanager.RepositoryManager) *MocService {
	return &MocService{db: db, repomanager: m}
}

func (s *MocService) List(ctx context.Context) ([]models.Moc, error) {
	return s.repomanager.Mocs(s.db).List(ctx)
}

func (s *MocService) Get(ctx context.Context, id int64) (*models.Moc, error) {
	return s.repomanager.Mocs(s.db).Get(ctx, id)
}

func (s *MocService) Create(ctx context.Context, in MocInput) (*models.Moc, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, common.ErrorValidation
	}
	return s.repomanager.Mocs(s.db).Create(ctx, &models.Moc{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Completed:   in.Completed,
	})
}

func (s *MocService) Update(ctx context.Context, id int64, in MocInput) (*models.Moc, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Mocs(s.db)
	m, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Title, m.Description, m.Completed = strings.TrimSpace(in.Title), in.Description, in.Completed

	if err := repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MocService) Delete(ctx context.Context, id int64) error {
	return s.repomanager.Mocs(s.db).Delete(ctx, id)
}
