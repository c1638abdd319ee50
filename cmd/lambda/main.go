package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/deppfellow/produto-service/internal/app"
	"github.com/deppfellow/produto-service/internal/config"
	"github.com/deppfellow/produto-service/internal/logger"
	"github.com/deppfellow/produto-service/internal/router"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	application, err := app.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	handler := router.NewLambdaHandler(application.Pipeline, application.Handlers.Routes(), &log)

	lambda.Start(handler.Handle)
}
