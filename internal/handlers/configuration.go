package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learninghouse/console/internal/models"
)

func (h HandlerSet) ListSensors(c *gin.Context) {
	sensors, err := h.api.ListSensors(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sensors})
}

func (h HandlerSet) GetSensor(c *gin.Context) {
	sensor, err := h.api.GetSensor(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sensor)
}

func (h HandlerSet) CreateSensor(c *gin.Context) {
	var sensor models.Sensor
	if err := c.ShouldBindJSON(&sensor); err != nil {
		badRequest(c, err)
		return
	}

	created, err := h.api.CreateSensor(c.Request.Context(), sensor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateSensor takes the sensor name from the path.
func (h HandlerSet) UpdateSensor(c *gin.Context) {
	sensor := models.Sensor{Name: c.Param("name")}
	if err := c.ShouldBindJSON(&sensor); err != nil {
		badRequest(c, err)
		return
	}
	sensor.Name = c.Param("name")

	updated, err := h.api.UpdateSensor(c.Request.Context(), sensor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h HandlerSet) DeleteSensor(c *gin.Context) {
	result, err := h.api.DeleteSensor(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) ListBrainConfigurations(c *gin.Context) {
	brains, err := h.api.ListBrainInfos(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	configurations := make([]models.BrainConfiguration, 0, len(brains))
	for _, brain := range brains {
		configuration := brain.Configuration
		if configuration.Name == "" {
			configuration.Name = brain.Name
		}
		configurations = append(configurations, configuration)
	}
	c.JSON(http.StatusOK, gin.H{"items": configurations})
}

func (h HandlerSet) GetBrainConfiguration(c *gin.Context) {
	brain, err := h.api.GetBrainConfiguration(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, brain)
}

func (h HandlerSet) CreateBrain(c *gin.Context) {
	var brain models.BrainConfiguration
	if err := c.ShouldBindJSON(&brain); err != nil {
		badRequest(c, err)
		return
	}

	created, err := h.api.CreateBrain(c.Request.Context(), brain)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h HandlerSet) UpdateBrain(c *gin.Context) {
	brain := models.BrainConfiguration{Name: c.Param("name")}
	if err := c.ShouldBindJSON(&brain); err != nil {
		badRequest(c, err)
		return
	}
	brain.Name = c.Param("name")

	updated, err := h.api.UpdateBrain(c.Request.Context(), brain)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h HandlerSet) DeleteBrain(c *gin.Context) {
	result, err := h.api.DeleteBrain(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
