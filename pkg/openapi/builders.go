package openapi

const (
	mediaJSON      = "application/json"
	mediaMultipart = "multipart/form-data"

	schemaPrefix   = "#/components/schemas/"
	responsePrefix = "#/components/responses/"
)

// SchemaRef points at a named component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: schemaPrefix + name}
}

// ResponseRef points at a named component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: responsePrefix + name}
}

func jsonContent(schema string) Content {
	return Content{mediaJSON: {Schema: SchemaRef(schema)}}
}

// RequestBodyJSON is a JSON body of the named component schema.
func RequestBodyJSON(schema string, required bool) *RequestBody {
	return &RequestBody{Required: required, Content: jsonContent(schema)}
}

// ResponseJSON is a JSON response of the named component schema.
func ResponseJSON(description, schema string) *Response {
	return &Response{Description: description, Content: jsonContent(schema)}
}

// MultipartBody is a required form upload. Fields with format "binary"
// are files.
func MultipartBody(fields map[string]*Schema, required ...string) *RequestBody {
	form := &Schema{Type: "object", Properties: fields, Required: required}
	return &RequestBody{
		Required: true,
		Content:  Content{mediaMultipart: {Schema: form}},
	}
}

// PathParam is always required. format may be empty.
func PathParam(name, typ, format, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          InPath,
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: typ, Format: format},
	}
}

func QueryParam(name, typ, description string, required bool) *Parameter {
	return &Parameter{
		Name:        name,
		In:          InQuery,
		Required:    required,
		Description: description,
		Schema:      &Schema{Type: typ},
	}
}
