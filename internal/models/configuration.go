package models

type SensorType string

const (
	SensorTypeNumerical   SensorType = "numerical"
	SensorTypeCategorical SensorType = "categorical"
)

func (t SensorType) Valid() bool {
	return t == SensorTypeNumerical || t == SensorTypeCategorical
}

type Sensor struct {
	Name  string     `json:"name" binding:"required"`
	Typed SensorType `json:"typed" binding:"required,oneof=numerical categorical"`
}

type SensorDeleteResult struct {
	Name string `json:"name"`
}

type EstimatorType string

const (
	EstimatorClassifier EstimatorType = "classifier"
	EstimatorRegressor  EstimatorType = "regressor"
)

func (t EstimatorType) Valid() bool {
	return t == EstimatorClassifier || t == EstimatorRegressor
}

type EstimatorConfiguration struct {
	Typed       EstimatorType `json:"typed" binding:"required,oneof=classifier regressor"`
	Estimators  *int          `json:"estimators,omitempty" binding:"omitempty,min=100,max=1000"`
	MaxDepth    *int          `json:"max_depth,omitempty" binding:"omitempty,min=4,max=10"`
	RandomState *int          `json:"random_state,omitempty"`
}

type BrainConfiguration struct {
	Name            string                 `json:"name" binding:"required"`
	Estimator       EstimatorConfiguration `json:"estimator"`
	Dependent       string                 `json:"dependent" binding:"required"`
	DependentEncode *bool                  `json:"dependent_encode,omitempty"`
	TestSize        float64                `json:"test_size" binding:"gt=0,lt=1"`
}

type BrainDeleteResult struct {
	Name string `json:"name"`
}
