// Package mocs stores simple to-do items.
package mocs

import (
	"context"

	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
)

type Repository interface {
	// List returns all items, newest first.
	List(ctx context.Context) ([]models.Moc, error)
	Create(ctx context.Context, m *models.Moc) (*models.Moc, error)
	Get(ctx context.Context, id int64) (*models.Moc, error)
	Update(ctx context.Context, m *models.Moc) error
	Delete(ctx context.Context, id int64) error
}
