package controllers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbui88/pdf-tts/application/ports/inbound"
	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/domain"
	"github.com/tbui88/pdf-tts/infrastructure/gin_interface/dto"
)

// voiceCatalog is the static voice list exposed to clients.
var voiceCatalog = []dto.VoiceResponse{
	{VoiceID: "female-qn-qingse", Name: "清澈女声", Description: "Clear female voice", Language: "zh-CN"},
	{VoiceID: "male-qn-qingse", Name: "清澈男声", Description: "Clear male voice", Language: "zh-CN"},
	{VoiceID: "female-shaonv", Name: "少女音", Description: "Young female voice", Language: "zh-CN"},
	{VoiceID: "male-youthful", Name: "青年男声", Description: "Youthful male voice", Language: "zh-CN"},
}

type ConversionController interface {
	RegisterRoutes(g *gin.Engine)
}

type conversionController struct {
	logger         outbound.LoggerPort
	orchestrator   inbound.ConversionOrchestratorPort
	jobStore       outbound.JobStorePort
	audioStore     outbound.AudioStorePort
	maxUploadBytes int64
}

func NewConversionController(logger outbound.LoggerPort, orchestrator inbound.ConversionOrchestratorPort,
	jobStore outbound.JobStorePort, audioStore outbound.AudioStorePort, maxUploadBytes int64) ConversionController {
	return &conversionController{
		logger:         logger,
		orchestrator:   orchestrator,
		jobStore:       jobStore,
		audioStore:     audioStore,
		maxUploadBytes: maxUploadBytes,
	}
}

func (cc *conversionController) RegisterRoutes(g *gin.Engine) {
	g.GET("/health", cc.Health)

	api := g.Group("/api")
	{
		api.POST("/convert", cc.Convert)
		api.GET("/status/:jobID", cc.Status)
		api.GET("/download/:jobID", cc.Download)
		api.DELETE("/jobs/:jobID", cc.Cleanup)
		api.GET("/voices", cc.Voices)
	}
}

// Convert validates the upload, creates a queued job and hands it to the
// orchestrator as background work. The caller polls /api/status with the
// returned identifier.
func (cc *conversionController) Convert(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a PDF file upload is required"})
		return
	}

	if vErr := cc.validateUpload(header.Filename, header.Size); vErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	document, err := io.ReadAll(io.LimitReader(file, cc.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}
	if int64(len(document)) > cc.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file size too large"})
		return
	}

	jobID, err := cc.orchestrator.Start(c.Request.Context(), inbound.StartConversionParams{
		SourceName: filepath.Base(header.Filename),
		Document:   document,
		VoiceID:    c.PostForm("voice_id"),
	})
	if err != nil {
		cc.logger.Error(err, "failed to start conversion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start conversion"})
		return
	}

	c.JSON(http.StatusAccepted, dto.ConvertResponse{
		JobID:   jobID,
		Status:  string(domain.JobStatusQueued),
		Message: "Conversion started",
	})
}

func (cc *conversionController) Status(c *gin.Context) {
	job, err := cc.jobStore.Get(c.Param("jobID"))
	if err != nil {
		if errors.Is(err, outbound.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read job"})
		return
	}

	c.JSON(http.StatusOK, dto.StatusFromJob(job))
}

// Download streams the assembled artifact. The record is pinned against
// eviction for the lifetime of the response body.
func (cc *conversionController) Download(c *gin.Context) {
	jobID := c.Param("jobID")

	job, err := cc.jobStore.Get(jobID)
	if err != nil {
		if errors.Is(err, outbound.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read job"})
		return
	}
	if job.Status != domain.JobStatusCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversion not completed"})
		return
	}

	ref, release, err := cc.jobStore.AcquireArtifact(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audio file not found"})
		return
	}
	defer release()

	reader, size, err := cc.audioStore.OpenArtifact(c.Request.Context(), ref)
	if err != nil {
		cc.logger.ErrorWithFields(err, "failed to open artifact", map[string]interface{}{
			"job_id": jobID,
		})
		c.JSON(http.StatusNotFound, gin.H{"error": "audio file not found"})
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, size, "audio/mpeg", reader, map[string]string{
		"Content-Disposition": `attachment; filename="` + job.OutputName + `"`,
	})
}

// Cleanup evicts the job record and reclaims its artifact. Records pinned
// by an in-flight download are left alone.
func (cc *conversionController) Cleanup(c *gin.Context) {
	jobID := c.Param("jobID")

	job, ok := cc.jobStore.Evict(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found or still in use"})
		return
	}

	if job.OutputRef != "" {
		if err := cc.audioStore.RemoveArtifact(c.Request.Context(), job.OutputRef); err != nil {
			cc.logger.ErrorWithFields(err, "failed to remove artifact", map[string]interface{}{
				"job_id": jobID,
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job cleaned up successfully"})
}

func (cc *conversionController) Voices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"voices": voiceCatalog})
}

func (cc *conversionController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"services": gin.H{
			"extractor":   "ready",
			"synthesizer": "ready",
			"assembler":   "ready",
		},
	})
}

func (cc *conversionController) validateUpload(filename string, size int64) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return &domain.ValidationError{Reason: "only PDF files are supported"}
	}
	if size > cc.maxUploadBytes {
		return &domain.ValidationError{
			Reason: "file size too large (max " + strconv.FormatInt(cc.maxUploadBytes/(1024*1024), 10) + "MB)",
		}
	}
	if size == 0 {
		return &domain.ValidationError{Reason: "uploaded file is empty"}
	}
	return nil
}
