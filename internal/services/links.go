package services

import (
	"context"
	"errors"
	"strconv"

	"favlinks/internal/models"
	"favlinks/internal/repository"
)

// ErrLinkNotFound is returned when no link matches the requested id.
var ErrLinkNotFound = errors.New("link not found")

// LinkInput is a validated, trimmed link submission.
type LinkInput struct {
	Title       string
	URL         string
	Description string
}

type LinkService struct {
	links        *repository.LinkRepository
	auditService *AuditService
}

func NewLinkService(links *repository.LinkRepository, auditService *AuditService) *LinkService {
	return &LinkService{
		links:        links,
		auditService: auditService,
	}
}

func (s *LinkService) List(ctx context.Context) ([]models.Link, error) {
	return s.links.List(ctx)
}

func (s *LinkService) Get(ctx context.Context, id uint) (*models.Link, error) {
	link, err := s.links.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	return link, err
}

func (s *LinkService) Create(ctx context.Context, input LinkInput, actor *uint, meta RequestMeta) (*models.Link, error) {
	link := &models.Link{
		Title:       input.Title,
		URL:         input.URL,
		Description: input.Description,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}

	s.auditService.LogAction(actor, "CREATE_LINK", strconv.FormatUint(uint64(link.ID), 10), map[string]interface{}{
		"url": link.URL,
	}, meta)
	return link, nil
}

func (s *LinkService) Update(ctx context.Context, id uint, input LinkInput, actor *uint, meta RequestMeta) error {
	err := s.links.Update(ctx, id, models.Link{
		Title:       input.Title,
		URL:         input.URL,
		Description: input.Description,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrLinkNotFound
	}
	if err != nil {
		return err
	}

	s.auditService.LogAction(actor, "UPDATE_LINK", strconv.FormatUint(uint64(id), 10), map[string]interface{}{
		"url": input.URL,
	}, meta)
	return nil
}

// Delete removes the link if it exists. A missing link is not an error.
func (s *LinkService) Delete(ctx context.Context, id uint, actor *uint, meta RequestMeta) error {
	n, err := s.links.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		s.auditService.LogAction(actor, "DELETE_LINK", strconv.FormatUint(uint64(id), 10), nil, meta)
	}
	return nil
}
