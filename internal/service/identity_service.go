package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
)

// Identity 凭证解析结果；角色与启用状态以数据库为准，不信任令牌中的副本
type Identity struct {
	UserID   uint
	Email    string
	Role     model.UserRole
	IsActive bool
}

func (i *Identity) IsAdmin() bool {
	return i.Role == model.Admin
}

type IdentityService struct {
	Users  *repository.UserRepository
	Secret string
}

func NewIdentityService(users *repository.UserRepository, secret string) *IdentityService {
	return &IdentityService{Users: users, Secret: secret}
}

func (s *IdentityService) ResolveUser(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := util.ParseJWT(credential, s.Secret)
	if err != nil {
		return nil, ErrUnauthenticated.WithDetail("%v", err)
	}

	user, err := s.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, notFoundOr(err, ErrUnauthenticated, "load user")
	}
	return &Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		IsActive: user.IsActive(),
	}, nil
}
