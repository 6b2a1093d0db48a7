package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/application/services"
	"github.com/tbui88/pdf-tts/config"
	"github.com/tbui88/pdf-tts/domain"
	"github.com/tbui88/pdf-tts/infrastructure/adapters"
	"github.com/tbui88/pdf-tts/infrastructure/gin_interface/controllers"
	"github.com/tbui88/pdf-tts/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using process environment")
	}

	serverConfig, err := config.GetServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get server config")
	}

	miniMaxConfig, err := config.GetMiniMaxConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get minimax config")
	}

	pipelineConfig, err := config.GetPipelineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get pipeline config")
	}

	storageConfig, err := config.GetStorageConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get storage config")
	}

	logger := adapters.NewZerologWrapper()

	panicHandler := func(p interface{}) {
		logger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(serverConfig.WorkerPoolSize, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	// The synthesis pool's capacity is the process-wide cap on in-flight
	// voice-service calls; Submit blocks when it is saturated.
	synthPool, err := ants.NewPool(pipelineConfig.MaxConcurrent, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create synthesis pool")
	}
	defer synthPool.Release()

	audioStore, err := buildAudioStore(storageConfig, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create audio store")
	}

	jobStore := adapters.NewMemoryJobStore(storageConfig.Retention, func(job domain.Job) {
		if job.OutputRef == "" {
			return
		}
		if err := audioStore.RemoveArtifact(context.Background(), job.OutputRef); err != nil {
			logger.ErrorWithFields(err, "failed to reclaim artifact", map[string]interface{}{
				"job_id": job.ID,
			})
		}
	}, logger)
	defer jobStore.Close()

	fetcher := adapters.NewContentFetcher(logger)

	var synthesizer outbound.SpeechSynthesizerPort
	if miniMaxConfig.ApiKey == "" {
		logger.Warn("MINIMAX_API_KEY not set, using mock synthesizer")
		synthesizer = adapters.NewMockSynthesizer(logger)
	} else {
		synthesizer = adapters.NewMiniMaxSynthesizer(fetcher, miniMaxConfig, logger)
	}

	extractor := adapters.NewFitzExtractor(logger)

	chunker := services.NewTextChunker(pipelineConfig.MaxChunkChars, pipelineConfig.MinChunkChars, logger)

	retryPolicy := services.RetryPolicy{
		MaxAttempts: pipelineConfig.MaxAttempts,
		BaseDelay:   pipelineConfig.RetryBaseDelay,
		MaxDelay:    pipelineConfig.RetryMaxDelay,
	}

	chunkSynthesizer := services.NewChunkSynthesizer(synthesizer, audioStore, synthPool, retryPolicy, logger)

	assembler := services.NewAudioAssembler(audioStore, logger)

	orchestrator := services.NewConversionOrchestrator(jobStore, extractor, chunker, chunkSynthesizer,
		assembler, audioStore, workerPool, logger)

	conversionController := controllers.NewConversionController(logger, orchestrator, jobStore,
		audioStore, serverConfig.MaxUploadBytes)

	router := gin.Default()

	if err := router.SetTrustedProxies(nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	router.Use(middleware.CORS())
	router.MaxMultipartMemory = serverConfig.MaxUploadBytes

	conversionController.RegisterRoutes(router)

	if err := router.Run(":" + serverConfig.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}

// buildAudioStore selects S3-backed storage when a bucket is configured,
// local disk otherwise.
func buildAudioStore(cfg *config.StorageConfig, logger outbound.LoggerPort) (outbound.AudioStorePort, error) {
	if cfg.S3Bucket == "" {
		return adapters.NewLocalAudioStore(cfg.AudioDir, logger)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(cfg.S3Region)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}
	return adapters.NewS3AudioStore(s3.New(sess), cfg, logger), nil
}
