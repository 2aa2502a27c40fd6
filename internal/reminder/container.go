package reminder

import (
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
)

type ReminderContainer struct {
	Repo    Repository
	Service Service
	Handler *Handler
}

func NewReminderContainer(db *gorm.DB, commitments *commitment.CommitmentContainer, clock util.Clock, opts Options) *ReminderContainer {
	repo := NewRepository(db)
	service := NewService(repo, commitments.Repo, commitments.Service, clock, opts)
	handler := NewHandler(service)

	return &ReminderContainer{
		Repo:    repo,
		Service: service,
		Handler: handler,
	}
}
