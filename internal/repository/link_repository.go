package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"favlinks/internal/models"

	"gorm.io/gorm"
)

type LinkRepository struct {
	pool *Pool
}

func NewLinkRepository(pool *Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

// List returns every link, most recent first.
func (r *LinkRepository) List(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.pool.DB(ctx).Order("created_at desc").Order("id desc").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (r *LinkRepository) FindByID(ctx context.Context, id uint) (*models.Link, error) {
	var link models.Link
	if err := r.pool.DB(ctx).First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find link %d: %w", id, err)
	}
	return &link, nil
}

func (r *LinkRepository) Create(ctx context.Context, link *models.Link) error {
	if err := r.pool.DB(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// Update overwrites title, url and description of the link with the given
// id. It returns ErrNotFound when no row matched.
func (r *LinkRepository) Update(ctx context.Context, id uint, link models.Link) error {
	res := r.pool.DB(ctx).Model(&models.Link{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":       link.Title,
		"url":         link.URL,
		"description": link.Description,
		"updated_at":  time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("update link %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the link with the given id and reports how many rows matched.
func (r *LinkRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.pool.DB(ctx).Delete(&models.Link{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("delete link %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}
