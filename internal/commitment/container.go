package commitment

import (
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
)

type CommitmentContainer struct {
	Repo    Repository
	Service Service
	Handler *Handler
}

func NewCommitmentContainer(db *gorm.DB, clock util.Clock) *CommitmentContainer {
	repo := NewRepository(db)
	service := NewService(repo, clock)
	handler := NewHandler(service)

	return &CommitmentContainer{
		Repo:    repo,
		Service: service,
		Handler: handler,
	}
}
