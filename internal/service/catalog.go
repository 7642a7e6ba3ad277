package service

import (
	"context"
	"elearning-storefront/internal/client"
	"elearning-storefront/internal/model"
	"fmt"
)

type CatalogService interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
}

type catalogServiceImpl struct {
	store client.WordPressClient
}

func NewCatalogService(store client.WordPressClient) CatalogService {
	return &catalogServiceImpl{store: store}
}

func (s *catalogServiceImpl) ListCourses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list courses: %v", ErrUpstream, err)
	}
	return courses, nil
}
