package openapi

import "maps"

// Components holds reusable schemas and responses.
type Components struct {
	Schemas   map[string]*Schema   `json:"schemas,omitempty"`
	Responses map[string]*Response `json:"responses,omitempty"`
}

// NewComponents seeds the pagination and error shapes every module shares.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:       "object",
				Properties: map[string]*Schema{"error": {Type: "string"}},
				Required:   []string{"error"},
			},
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "1-indexed page", Example: 1},
					"page_size": {Type: "integer", Description: "Rows per page", Example: 20},
					"search":    {Type: "string"},
					"sort":      {Type: "string", Description: "Comma-separated fields, - prefix for descending", Example: "-created_at"},
				},
			},
		},
		Responses: map[string]*Response{},
	}

	for name, desc := range map[string]string{
		"BadRequest":      "Invalid request",
		"Unauthorized":    "Missing or invalid bearer token",
		"NotFound":        "Resource not found",
		"Conflict":        "Resource conflict",
		"PayloadTooLarge": "Upload exceeds the configured size limit",
	} {
		c.Responses[name] = ResponseJSON(desc, "Error")
	}
	return c
}

func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
