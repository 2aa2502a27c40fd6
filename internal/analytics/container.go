package analytics

import (
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
)

type AnalyticsContainer struct {
	Service Service
	Handler *Handler
}

func NewAnalyticsContainer(repo commitment.Repository, clock util.Clock) *AnalyticsContainer {
	service := NewService(repo, clock)
	handler := NewHandler(service)

	return &AnalyticsContainer{
		Service: service,
		Handler: handler,
	}
}
