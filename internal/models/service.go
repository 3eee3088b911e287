package models

type ServiceMode string

const (
	ServiceModeInitial     ServiceMode = "initial"
	ServiceModeDevelopment ServiceMode = "development"
	ServiceModeProduction  ServiceMode = "production"
	ServiceModeUnknown     ServiceMode = "unknown"
)

type Versions struct {
	Service  string `json:"service"`
	FastAPI  string `json:"fastapi"`
	Pydantic string `json:"pydantic"`
	Uvicorn  string `json:"uvicorn"`
	Sklearn  string `json:"sklearn"`
	Numpy    string `json:"numpy"`
	Pandas   string `json:"pandas"`
	JWT      string `json:"jwt"`
	Passlib  string `json:"passlib"`
	Loguru   string `json:"loguru"`
}

// ErrorMessage is the error body returned by the learninghouse service.
type ErrorMessage struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}
