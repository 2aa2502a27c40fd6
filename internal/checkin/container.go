package checkin

import (
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
)

type CheckInContainer struct {
	Repo    Repository
	Service Service
	Handler *Handler
}

func NewCheckInContainer(db *gorm.DB, clock util.Clock) *CheckInContainer {
	repo := NewRepository(db)
	service := NewService(repo, clock)
	handler := NewHandler(service)

	return &CheckInContainer{
		Repo:    repo,
		Service: service,
		Handler: handler,
	}
}
