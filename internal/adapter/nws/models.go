package nws

// NWS API response types. Only the fields the pipeline reads are decoded;
// pointers and validate tags make absent fields detectable.

type pointResponse struct {
	Properties *pointProperties `json:"properties"`
}

type pointProperties struct {
	GridID   string `json:"gridId"`
	GridX    int    `json:"gridX"`
	GridY    int    `json:"gridY"`
	Forecast string `json:"forecast" validate:"required,url"`
}

type forecastResponse struct {
	Properties *forecastProperties `json:"properties"`
}

type forecastProperties struct {
	Periods []period `json:"periods"`
}

type period struct {
	Number           int      `json:"number"`
	Name             string   `json:"name" validate:"required"`
	Temperature      *float64 `json:"temperature" validate:"required"`
	TemperatureUnit  string   `json:"temperatureUnit"`
	IsDaytime        bool     `json:"isDaytime"`
	Icon             string   `json:"icon" validate:"omitempty,url"`
	ShortForecast    string   `json:"shortForecast" validate:"required_without=DetailedForecast"`
	DetailedForecast string   `json:"detailedForecast"`
	StartTime        string   `json:"startTime" validate:"required"`
	EndTime          string   `json:"endTime" validate:"required"`
}
