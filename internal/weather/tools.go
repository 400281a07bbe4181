package weather

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scoutagent/scout/internal/tools"
)

// SystemPrompt instructs the model how to use the weather tool pair.
const SystemPrompt = `Be concise, reply with one sentence.
Use the get_lat_lng tool to get the latitude and longitude of the locations,
then use the get_weather tool to get the weather.`

// retryNoLocation classifies an empty geocoder result as retryable:
// the model gets the hint and can try a different query string.
func retryNoLocation() error {
	return tools.Retry(ErrNoLocation)
}

// RegisterTools adds the weather tool pair to the registry.
func RegisterTools(r *tools.Registry, c *Client) {
	r.Register(&tools.Tool{
		Name:        "get_lat_lng",
		Description: "Get the latitude and longitude of a location from a free-text description.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location_description": map[string]any{
					"type":        "string",
					"description": "The location description, e.g. a city or address.",
				},
			},
			"required": []string{"location_description"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			loc := tools.StringArg(args, "location_description")
			coords, err := c.Geocode(ctx, loc)
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(coords)
			if err != nil {
				return "", fmt.Errorf("encode coordinates: %w", err)
			}
			return string(out), nil
		},
	})

	r.Register(&tools.Tool{
		Name:        "get_weather",
		Description: "Get the current weather at a latitude/longitude.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"lat": map[string]any{
					"type":        "number",
					"description": "Latitude of the location.",
				},
				"lng": map[string]any{
					"type":        "number",
					"description": "Longitude of the location.",
				},
			},
			"required": []string{"lat", "lng"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			report, err := c.Current(ctx, tools.FloatArg(args, "lat"), tools.FloatArg(args, "lng"))
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(report)
			if err != nil {
				return "", fmt.Errorf("encode report: %w", err)
			}
			return string(out), nil
		},
	})
}
