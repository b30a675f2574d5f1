// Package tools defines tool contracts and implementations.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - HTTP tools: google_search (Google Custom Search), get_weather (WeatherAPI.com).
//   - Handlers flatten provider failures into text for the model; a returned error
//     means the input itself could not be decoded.
package tools
