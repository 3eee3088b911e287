package client

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"learninghouse/console/internal/models"
)

func (c *Client) ListSensors(ctx context.Context) ([]models.Sensor, error) {
	var sensors []models.Sensor
	err := c.do(ctx, http.MethodGet, "/sensors/configuration", nil, &sensors)
	return sensors, err
}

func (c *Client) GetSensor(ctx context.Context, name string) (models.Sensor, error) {
	var sensor models.Sensor
	err := c.do(ctx, http.MethodGet, "/sensor/"+url.PathEscape(name)+"/configuration", nil, &sensor)
	return sensor, err
}

func (c *Client) CreateSensor(ctx context.Context, sensor models.Sensor) (models.Sensor, error) {
	var created models.Sensor
	err := c.do(ctx, http.MethodPost, "/sensor/configuration", sensor, &created)
	return created, err
}

func (c *Client) UpdateSensor(ctx context.Context, sensor models.Sensor) (models.Sensor, error) {
	var updated models.Sensor
	err := c.do(ctx, http.MethodPut, "/sensor/"+url.PathEscape(sensor.Name)+"/configuration", sensor, &updated)
	return updated, err
}

func (c *Client) DeleteSensor(ctx context.Context, name string) (models.SensorDeleteResult, error) {
	var result models.SensorDeleteResult
	err := c.do(ctx, http.MethodDelete, "/sensor/"+url.PathEscape(name)+"/configuration", nil, &result)
	return result, err
}

// ListBrainInfos flattens the name keyed map returned by the service into a
// slice ordered by brain name.
func (c *Client) ListBrainInfos(ctx context.Context) ([]models.BrainInfo, error) {
	var byName map[string]models.BrainInfo
	if err := c.do(ctx, http.MethodGet, "/brains/info", nil, &byName); err != nil {
		return nil, err
	}

	brains := make([]models.BrainInfo, 0, len(byName))
	for name, info := range byName {
		if info.Name == "" {
			info.Name = name
		}
		brains = append(brains, info)
	}
	sort.Slice(brains, func(i, j int) bool { return brains[i].Name < brains[j].Name })
	return brains, nil
}

func (c *Client) BrainInfo(ctx context.Context, name string) (models.BrainInfo, error) {
	var info models.BrainInfo
	err := c.do(ctx, http.MethodGet, brainPath(name, "info"), nil, &info)
	return info, err
}

func (c *Client) GetBrainConfiguration(ctx context.Context, name string) (models.BrainConfiguration, error) {
	var brain models.BrainConfiguration
	err := c.do(ctx, http.MethodGet, brainPath(name, "configuration"), nil, &brain)
	return brain, err
}

func (c *Client) CreateBrain(ctx context.Context, brain models.BrainConfiguration) (models.BrainConfiguration, error) {
	var created models.BrainConfiguration
	err := c.do(ctx, http.MethodPost, "/brain/configuration", brain, &created)
	return created, err
}

func (c *Client) UpdateBrain(ctx context.Context, brain models.BrainConfiguration) (models.BrainConfiguration, error) {
	var updated models.BrainConfiguration
	err := c.do(ctx, http.MethodPut, brainPath(brain.Name, "configuration"), brain, &updated)
	return updated, err
}

func (c *Client) DeleteBrain(ctx context.Context, name string) (models.BrainDeleteResult, error) {
	var result models.BrainDeleteResult
	err := c.do(ctx, http.MethodDelete, brainPath(name, "configuration"), nil, &result)
	return result, err
}

// RetrainBrain trains the brain again with the data it already has.
func (c *Client) RetrainBrain(ctx context.Context, name string) (models.BrainInfo, error) {
	var info models.BrainInfo
	err := c.do(ctx, http.MethodPost, brainPath(name, "training"), struct{}{}, &info)
	return info, err
}

// TrainBrain adds one labelled data point and trains the brain.
func (c *Client) TrainBrain(ctx context.Context, name string, request models.TrainingRequest) (models.BrainInfo, error) {
	var info models.BrainInfo
	err := c.do(ctx, http.MethodPut, brainPath(name, "training"), request, &info)
	return info, err
}

func (c *Client) Predict(ctx context.Context, name string, data models.SensorsData) (models.PredictionResult, error) {
	var result models.PredictionResult
	err := c.do(ctx, http.MethodPost, brainPath(name, "prediction"), data, &result)
	return result, err
}

func brainPath(name string, resource string) string {
	return "/brain/" + url.PathEscape(name) + "/" + resource
}
