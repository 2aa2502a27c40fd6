package user

import (
	"time"

	"gorm.io/gorm"
)

type UserContainer struct {
	Repo    UserRepository
	Service UserService
	Handler *Handler
}

func NewUserContainer(db *gorm.DB, tokenTTL time.Duration, hooks ...RegisterHook) *UserContainer {
	repo := NewRepository(db)
	service := NewService(repo, tokenTTL, hooks...)
	handler := NewHandler(service)

	return &UserContainer{
		Repo:    repo,
		Service: service,
		Handler: handler,
	}
}
