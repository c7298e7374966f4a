package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool is one model-invokable function.
type Tool interface {
	Definition() openai.Tool
	Invoke(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

// WeatherTool fetches current conditions from the Open-Meteo forecast API.
type WeatherTool struct {
	baseURL string
	client  *http.Client
}

func NewWeatherTool() *WeatherTool {
	return &WeatherTool{
		baseURL: "https://api.open-meteo.com/v1/forecast",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *WeatherTool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "getWeather",
			Description: "Get the current weather at a location",
			Parameters: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"latitude":  {Type: jsonschema.Number},
					"longitude": {Type: jsonschema.Number},
				},
				Required: []string{"latitude", "longitude"},
			},
		},
	}
}

func (t *WeatherTool) Invoke(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var params struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid getWeather arguments: %w", err)
	}

	url := fmt.Sprintf(
		"%s?latitude=%f&longitude=%f&current=temperature_2m&hourly=temperature_2m&daily=sunrise,sunset&timezone=auto",
		t.baseURL, params.Latitude, params.Longitude,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo bad status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}
