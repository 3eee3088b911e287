package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learninghouse/console/internal/models"
)

func (h HandlerSet) ListBrains(c *gin.Context) {
	brains, err := h.api.ListBrainInfos(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": brains})
}

func (h HandlerSet) GetBrain(c *gin.Context) {
	info, err := h.api.BrainInfo(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h HandlerSet) Predict(c *gin.Context) {
	var data models.SensorsData
	if err := c.ShouldBindJSON(&data); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.api.Predict(c.Request.Context(), c.Param("name"), data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Retrain trains the brain again on the data the service already has.
func (h HandlerSet) Retrain(c *gin.Context) {
	info, err := h.api.RetrainBrain(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type trainRequest struct {
	DependentValue any                `json:"dependent_value"`
	SensorsData    models.SensorsData `json:"sensors_data" binding:"required"`
}

func (h HandlerSet) Train(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	// false and 0 are valid dependent values, only a missing one is not.
	if req.DependentValue == nil {
		badRequest(c, errMissingDependentValue)
		return
	}

	info, err := h.api.TrainBrain(c.Request.Context(), c.Param("name"), models.TrainingRequest{
		DependentValue: req.DependentValue,
		SensorsData:    req.SensorsData,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type enqueueJobRequest struct {
	Type        models.JobType     `json:"type" binding:"required,oneof=training prediction"`
	SensorsData models.SensorsData `json:"sensorsData"`
}

var (
	errPredictionNeedsData   = errors.New("prediction jobs need sensorsData")
	errMissingDependentValue = errors.New("dependent_value is required")
)

func (h HandlerSet) EnqueueJob(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorMessage{Error: "queue_unavailable", Description: "No job queue is configured."})
		return
	}

	var req enqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Type == models.JobTypePrediction && len(req.SensorsData) == 0 {
		badRequest(c, errPredictionNeedsData)
		return
	}

	job, err := h.queue.Enqueue(c.Request.Context(), req.Type, c.Param("name"), req.SensorsData, h.sessions.Role().String())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (h HandlerSet) ListJobs(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorMessage{Error: "history_unavailable", Description: "No job history is configured."})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}

	runs, err := h.history.ListByBrain(c.Request.Context(), c.Param("name"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs})
}
