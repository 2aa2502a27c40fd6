package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/saulo-duarte/commitments-api/internal/container"
	"github.com/sirupsen/logrus"
)

// Background jobs do not run here; schedule them with the api binary or an
// EventBridge rule instead.
func main() {
	c, err := container.New(context.Background())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start")
	}

	adapter := httpadapter.New(c.Router())
	lambda.Start(adapter.ProxyWithContext)
}
