package api

import (
	"net/http"

	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/pkg/openapi"
)

var (
	pageParams = []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
		openapi.QueryParam("page_size", "integer", "Results per page", false),
		openapi.QueryParam("search", "string", "Search query", false),
		openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
	}
	uuidParam = openapi.PathParam("id", "string", "uuid", "Resource ID")
)

func newSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(&cfg.API.OpenAPI, cfg.Version)
	spec.AddServer(cfg.API.BasePath)

	spec.AddTag("categories", "Emotion categories and their reference terms")
	spec.AddTag("documents", "Imported posts, embeddings, and ground-truth labels")
	spec.AddTag("assignments", "Assigned categories with scoring diagnostics")
	spec.AddTag("runs", "Training and assignment runs")
	spec.AddTag("models", "Archived model snapshots")

	spec.Components.AddSchemas(schemas())
	spec.AddPaths(paths())
	return spec
}

func serveSpec(cfg *config.Config) (http.HandlerFunc, error) {
	data, err := openapi.MarshalJSON(newSpec(cfg))
	if err != nil {
		return nil, err
	}
	return openapi.ServeSpec(data), nil
}

func paths() map[string]*openapi.PathItem {
	return map[string]*openapi.PathItem{
		"/categories": {
			Get: &openapi.Operation{
				Summary:   "List categories",
				Tags:      []string{"categories"},
				Responses: map[int]*openapi.Response{200: arrayJSON("Categories", "Category")},
			},
		},
		"/categories/{id}": {
			Get: &openapi.Operation{
				Summary:    "Find a category",
				Tags:       []string{"categories"},
				Parameters: []*openapi.Parameter{openapi.PathParam("id", "integer", "", "Category ID")},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Category", "Category"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/documents": {
			Get: &openapi.Operation{
				Summary: "List documents",
				Tags:    []string{"documents"},
				Parameters: append(pageParams,
					openapi.QueryParam("collection", "string", "Collection name", false),
					openapi.QueryParam("author", "string", "Author filter", false),
					openapi.QueryParam("label", "integer", "Ground-truth category filter", false),
					openapi.QueryParam("labeled", "boolean", "Only labeled or unlabeled documents", false),
					openapi.QueryParam("embedded", "boolean", "Only embedded or unembedded documents", false),
				),
				Responses: map[int]*openapi.Response{200: openapi.ResponseJSON("Document page", "DocumentPage")},
			},
		},
		"/documents/{id}": {
			Get: &openapi.Operation{
				Summary:    "Find a document",
				Tags:       []string{"documents"},
				Parameters: []*openapi.Parameter{uuidParam},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Document", "Document"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/documents/import": {
			Post: &openapi.Operation{
				Summary: "Import a CSV export",
				Tags:    []string{"documents"},
				RequestBody: openapi.MultipartBody(map[string]*openapi.Schema{
					"file":       {Type: "string", Format: "binary"},
					"collection": {Type: "string"},
					"encoding":   {Type: "string", Enum: []any{"utf-8", "latin1"}},
				}, "file", "collection"),
				Responses: map[int]*openapi.Response{
					201: openapi.ResponseJSON("Import result", "ImportResult"),
					400: openapi.ResponseRef("BadRequest"),
					401: openapi.ResponseRef("Unauthorized"),
					413: openapi.ResponseRef("PayloadTooLarge"),
				},
			},
		},
		"/documents/{id}/label": {
			Put: &openapi.Operation{
				Summary:     "Set a document's ground-truth label",
				Tags:        []string{"documents"},
				Parameters:  []*openapi.Parameter{uuidParam},
				RequestBody: openapi.RequestBodyJSON("LabelCommand", true),
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Labeled document", "Document"),
					400: openapi.ResponseRef("BadRequest"),
					401: openapi.ResponseRef("Unauthorized"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
			Delete: &openapi.Operation{
				Summary:    "Remove a document's label",
				Tags:       []string{"documents"},
				Parameters: []*openapi.Parameter{uuidParam},
				Responses: map[int]*openapi.Response{
					204: {Description: "Label removed"},
					401: openapi.ResponseRef("Unauthorized"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/assignments": {
			Get: &openapi.Operation{
				Summary: "List assignments",
				Tags:    []string{"assignments"},
				Parameters: append(pageParams,
					openapi.QueryParam("collection", "string", "Collection name", false),
					openapi.QueryParam("category_id", "integer", "Assigned category", false),
					openapi.QueryParam("label", "string", "Assigned label", false),
					openapi.QueryParam("author", "string", "Author filter", false),
				),
				Responses: map[int]*openapi.Response{200: openapi.ResponseJSON("Assignment page", "AssignmentPage")},
			},
		},
		"/assignments/distribution": {
			Get: &openapi.Operation{
				Summary:    "Count assignments per category",
				Tags:       []string{"assignments"},
				Parameters: []*openapi.Parameter{openapi.QueryParam("collection", "string", "Collection name", false)},
				Responses:  map[int]*openapi.Response{200: arrayJSON("Distribution", "CategoryCount")},
			},
		},
		"/assignments/{documentId}": {
			Get: &openapi.Operation{
				Summary:    "Find the assignment for a document",
				Tags:       []string{"assignments"},
				Parameters: []*openapi.Parameter{openapi.PathParam("documentId", "string", "", "Document ID")},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Assignment", "Assignment"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/runs": {
			Get: &openapi.Operation{
				Summary: "List assignment runs",
				Tags:    []string{"runs"},
				Parameters: append(pageParams,
					openapi.QueryParam("status", "string", "Run status", false),
					openapi.QueryParam("trigger", "string", "Run trigger", false),
					openapi.QueryParam("collection", "string", "Collection name", false),
				),
				Responses: map[int]*openapi.Response{200: openapi.ResponseJSON("Run page", "RunPage")},
			},
			Post: &openapi.Operation{
				Summary:     "Start an assignment run",
				Tags:        []string{"runs"},
				RequestBody: openapi.RequestBodyJSON("StartRun", false),
				Responses: map[int]*openapi.Response{
					202: openapi.ResponseJSON("Run started", "Run"),
					400: openapi.ResponseRef("BadRequest"),
					401: openapi.ResponseRef("Unauthorized"),
					409: openapi.ResponseRef("Conflict"),
				},
			},
		},
		"/runs/{id}": {
			Get: &openapi.Operation{
				Summary:    "Find a run",
				Tags:       []string{"runs"},
				Parameters: []*openapi.Parameter{uuidParam},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Run", "Run"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/models": {
			Get: &openapi.Operation{
				Summary: "List archived model snapshots",
				Tags:    []string{"models"},
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("collection", "string", "Collection name", false),
					openapi.QueryParam("marker", "string", "Continuation marker", false),
					openapi.QueryParam("max_results", "integer", "Page size", false),
				},
				Responses: map[int]*openapi.Response{
					200: {Description: "Snapshot blobs"},
					400: openapi.ResponseRef("BadRequest"),
				},
			},
		},
		"/models/latest/{collection}": {
			Get: &openapi.Operation{
				Summary:    "Load the latest snapshot for a collection",
				Tags:       []string{"models"},
				Parameters: []*openapi.Parameter{openapi.PathParam("collection", "string", "", "Collection name")},
				Responses: map[int]*openapi.Response{
					200: {Description: "Model snapshot"},
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
	}
}

func schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Category": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "integer"},
				"label":      {Type: "string"},
				"color":      {Type: "string", Example: "#FFD700"},
				"dimensions": {Type: "integer"},
				"references": {Type: "array", Items: &openapi.Schema{
					Type:       "object",
					Properties: map[string]*openapi.Schema{"term": {Type: "string"}},
				}},
			},
		},
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"collection": {Type: "string"},
				"author":     {Type: "string"},
				"timestamp":  {Type: "string"},
				"text":       {Type: "string"},
				"dimensions": {Type: "integer"},
				"label":      {Type: "integer"},
				"created_at": {Type: "string", Format: "date-time"},
			},
		},
		"DocumentPage": pageOf("Document"),
		"ImportResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"rows":     {Type: "integer"},
				"dropped":  {Type: "integer"},
				"inserted": {Type: "integer"},
				"skipped":  {Type: "integer"},
			},
		},
		"LabelCommand": {
			Type:     "object",
			Required: []string{"category_id"},
			Properties: map[string]*openapi.Schema{
				"category_id": {Type: "integer"},
				"labeled_by":  {Type: "string"},
			},
		},
		"Assignment": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id": {Type: "string"},
				"collection":  {Type: "string"},
				"title":       {Type: "string"},
				"text":        {Type: "string"},
				"author":      {Type: "string"},
				"timestamp":   {Type: "string"},
				"category_id": {Type: "integer"},
				"label":       {Type: "string"},
				"color":       {Type: "string"},
				"score":       {Type: "number"},
				"diagnostics": {Type: "object", Description: "Method, reducer, per-category scores, and stage agreement"},
			},
		},
		"AssignmentPage": pageOf("Assignment"),
		"CategoryCount": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"category_id": {Type: "integer"},
				"label":       {Type: "string"},
				"color":       {Type: "string"},
				"count":       {Type: "integer"},
			},
		},
		"StartRun": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"collection": {Type: "string", Default: string(config.CollectionTweets)},
			},
		},
		"Run": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"status":       {Type: "string", Enum: []any{"running", "completed", "failed"}},
				"trigger":      {Type: "string", Enum: []any{"api", "schedule", "cli"}},
				"collection":   {Type: "string"},
				"summary":      {Type: "object"},
				"report":       {Type: "object"},
				"error":        {Type: "string"},
				"started_at":   {Type: "string", Format: "date-time"},
				"completed_at": {Type: "string", Format: "date-time"},
			},
		},
		"RunPage": pageOf("Run"),
	}
}

func pageOf(item string) *openapi.Schema {
	return &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef(item)},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	}
}

func arrayJSON(description, item string) *openapi.Response {
	return &openapi.Response{
		Description: description,
		Content: openapi.Content{
			"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef(item)}},
		},
	}
}
