package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

const DefaultWeatherBaseURL = "http://api.weatherapi.com/v1"

const weatherNotConfigured = "Error: Weather API key is not configured."

type WeatherInput struct {
	City string `json:"city" jsonschema_description:"Name of the city to get the weather for."`
}

var WeatherInputSchema = GenerateSchema[WeatherInput]()

// WeatherTool looks up current conditions on WeatherAPI.com.
type WeatherTool struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewWeatherTool(apiKey, baseURL string, client *http.Client) *WeatherTool {
	if baseURL == "" {
		baseURL = DefaultWeatherBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WeatherTool{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (w *WeatherTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_weather",
		Description: "A tool that fetches the current weather for a specified city.",
		InputSchema: WeatherInputSchema,
		Function:    w.Run,
	}
}

func (w *WeatherTool) Run(ctx context.Context, input json.RawMessage) (string, error) {
	var in WeatherInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", errors.Wrap(err, "decode get_weather input")
	}
	return w.Current(ctx, in.City), nil
}

// Current returns a one-line description of the weather in city.
// Every failure is reported as text; Current never makes a request without an API key.
func (w *WeatherTool) Current(ctx context.Context, city string) string {
	if w.apiKey == "" {
		return weatherNotConfigured
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return "Error: a city name is required."
	}

	endpoint := w.baseURL + "/current.json"
	q := url.Values{}
	q.Set("key", w.apiKey)
	q.Set("q", city)
	q.Set("aqi", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return unexpectedWeatherError(err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return unexpectedWeatherError(stripURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return unexpectedWeatherError(err)
	}

	// WeatherAPI reports unknown cities as an error payload, usually with a 400.
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return fmt.Sprintf("Could not fetch weather for %s: %s", city, msg.String())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Sprintf("HTTP error fetching weather: %s for url: %s", resp.Status, endpoint)
	}
	if !gjson.ValidBytes(body) {
		return unexpectedWeatherError(errors.New("weather response is not valid JSON"))
	}

	paths := []string{"location.name", "current.condition.text", "current.temp_c"}
	fields := gjson.GetManyBytes(body, paths...)
	for i, f := range fields {
		if !f.Exists() {
			return unexpectedWeatherError(errors.Newf("weather response is missing %s", paths[i]))
		}
	}
	return fmt.Sprintf("The current weather in %s is %s with a temperature of %s°C.",
		fields[0].String(), fields[1].String(), fields[2].Raw)
}

func unexpectedWeatherError(err error) string {
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}

// stripURL drops the request URL from transport errors so API keys in the
// query string never reach the transcript.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
