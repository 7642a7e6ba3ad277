package service

import (
	"context"
	"elearning-storefront/internal/client"
	"elearning-storefront/internal/dto"
	"elearning-storefront/internal/model"
	"fmt"

	"go.uber.org/zap"
)

type AccountService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
}

type accountServiceImpl struct {
	store  client.WordPressClient
	logger *zap.SugaredLogger
}

func NewAccountService(store client.WordPressClient, logger *zap.SugaredLogger) AccountService {
	return &accountServiceImpl{
		store:  store,
		logger: logger,
	}
}

func (s *accountServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrInvalidPayload)
	}

	user, err := s.store.CreateUser(ctx, &model.NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Roles:    []string{"subscriber"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create wordpress user: %v", ErrUpstream, err)
	}

	s.logger.Infow("user registered", "user_id", user.ID, "username", req.Username)

	return &dto.RegisterResponse{
		Success: true,
		UserID:  user.ID,
	}, nil
}
