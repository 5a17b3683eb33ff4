package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"api-doc-explorer/internal/types"

	"github.com/getkin/kin-openapi/openapi3"
)

// maxSchemaDepth bounds body flattening for deeply nested or recursive schemas
const maxSchemaDepth = 32

// addedDateExtension is the vendor extension carrying the date a parameter was introduced
const addedDateExtension = "x-added"

// SwaggerParser handles parsing of Swagger/OpenAPI specifications
type SwaggerParser struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	doc     *openapi3.T
}

// NewSwaggerParser creates a new instance of SwaggerParser
func NewSwaggerParser(baseURL string, logger *slog.Logger) *SwaggerParser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SwaggerParser{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Document returns the loaded OpenAPI document, if any
func (p *SwaggerParser) Document() *openapi3.T {
	return p.doc
}

// ParseEndpoints fetches the OpenAPI documentation from the well-known
// locations under the base URL and extracts its endpoints
func (p *SwaggerParser) ParseEndpoints(ctx context.Context) ([]types.Endpoint, error) {
	// A base URL that already names a document is tried on its own
	urls := []string{p.baseURL}
	if !looksLikeDocument(p.baseURL) {
		urls = []string{
			fmt.Sprintf("%s/swagger/v1/swagger.json", p.baseURL),
			fmt.Sprintf("%s/swagger.json", p.baseURL),
			fmt.Sprintf("%s/openapi.json", p.baseURL),
			fmt.Sprintf("%s/openapi.yaml", p.baseURL),
			fmt.Sprintf("%s/v1/swagger.json", p.baseURL),
			fmt.Sprintf("%s/api/swagger.json", p.baseURL),
			fmt.Sprintf("%s/api/v1/swagger.json", p.baseURL),
			fmt.Sprintf("%s/swagger/v1/swagger", p.baseURL),
			fmt.Sprintf("%s/swagger", p.baseURL),
		}
	}

	var lastErr error
	for _, url := range urls {
		p.logger.Debug("fetching OpenAPI documentation", "url", url)
		doc, err := p.fetchOpenAPIDoc(ctx, url)
		if err == nil {
			p.logger.Info("fetched OpenAPI documentation", "url", url)
			p.doc = doc
			break
		}
		lastErr = err
		p.logger.Debug("failed to fetch OpenAPI documentation", "url", url, "error", err)
	}

	if p.doc == nil {
		return nil, fmt.Errorf("failed to fetch OpenAPI documentation from any known URL: %w", lastErr)
	}

	return p.extractEndpoints(), nil
}

// ParseFile loads an OpenAPI document from disk and extracts its endpoints
func (p *SwaggerParser) ParseFile(path string) ([]types.Endpoint, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI doc %s: %w", path, err)
	}
	p.doc = doc
	return p.extractEndpoints(), nil
}

// ParseData parses an OpenAPI document held in memory
func (p *SwaggerParser) ParseData(data []byte) ([]types.Endpoint, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI doc: %w", err)
	}
	p.doc = doc
	return p.extractEndpoints(), nil
}

func looksLikeDocument(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

// fetchOpenAPIDoc fetches the OpenAPI documentation from the given URL
func (p *SwaggerParser) fetchOpenAPIDoc(ctx context.Context, url string) (*openapi3.T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI doc: %w", err)
	}

	return doc, nil
}

// extractEndpoints extracts endpoints from the OpenAPI documentation in
// path then method order
func (p *SwaggerParser) extractEndpoints() []types.Endpoint {
	var endpoints []types.Endpoint
	if p.doc == nil || p.doc.Paths == nil {
		return endpoints
	}

	paths := p.doc.Paths.Map()
	routes := make([]string, 0, len(paths))
	for route := range paths {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	for _, route := range routes {
		pathItem := paths[route]
		operations := pathItem.Operations()
		methods := make([]string, 0, len(operations))
		for method := range operations {
			methods = append(methods, method)
		}
		sort.Strings(methods)

		for _, method := range methods {
			operation := operations[method]
			endpoint := types.Endpoint{
				Path:        route,
				Method:      strings.ToUpper(method),
				OperationID: operation.OperationID,
				Summary:     operation.Summary,
				Description: operation.Description,
				Parameters:  make([]types.Parameter, 0),
				Responses:   make(map[int]types.Response),
			}

			// Path level parameters apply unless the operation overrides them
			seen := make(map[string]bool)
			for _, params := range []openapi3.Parameters{operation.Parameters, pathItem.Parameters} {
				for _, param := range params {
					if param == nil || param.Value == nil {
						continue
					}
					id := param.Value.In + ":" + param.Value.Name
					if seen[id] {
						continue
					}
					seen[id] = true
					endpoint.Parameters = append(endpoint.Parameters, p.convertParameter(param.Value))
				}
			}

			// Extract request body if present, preferring JSON
			if operation.RequestBody != nil && operation.RequestBody.Value != nil {
				content := operation.RequestBody.Value.Content
				contentType, media := pickMediaType(content)
				if media != nil && media.Schema != nil {
					endpoint.ContentType = contentType
					endpoint.Body = p.flattenBody(media.Schema)
				}
			}

			// Extract responses
			if operation.Responses != nil {
				for statusCode, response := range operation.Responses.Map() {
					code, err := strconv.Atoi(statusCode)
					if err != nil || response == nil || response.Value == nil {
						continue
					}
					description := ""
					if response.Value.Description != nil {
						description = *response.Value.Description
					}
					endpoint.Responses[code] = types.Response{Description: description}
				}
			}

			endpoints = append(endpoints, endpoint)
		}
	}

	return endpoints
}

func (p *SwaggerParser) convertParameter(param *openapi3.Parameter) types.Parameter {
	out := types.Parameter{
		Name:        param.Name,
		In:          param.In,
		Required:    param.Required,
		Description: param.Description,
		AddedDate:   addedDate(param.Extensions),
	}
	if schema := p.resolve(param.Schema); schema != nil {
		out.Type = schemaType(schema)
		out.Format = schema.Format
		if out.Description == "" {
			out.Description = schema.Description
		}
	}
	return out
}

func pickMediaType(content openapi3.Content) (string, *openapi3.MediaType) {
	if media, ok := content["application/json"]; ok && media != nil {
		return "application/json", media
	}
	contentTypes := make([]string, 0, len(content))
	for ct := range content {
		contentTypes = append(contentTypes, ct)
	}
	sort.Strings(contentTypes)
	for _, ct := range contentTypes {
		if content[ct] != nil {
			return ct, content[ct]
		}
	}
	return "", nil
}

// resolve returns the schema behind a reference, falling back to the
// document components when the loader left it unresolved
func (p *SwaggerParser) resolve(ref *openapi3.SchemaRef) *openapi3.Schema {
	if ref == nil {
		return nil
	}
	if ref.Value != nil {
		return ref.Value
	}
	if ref.Ref != "" && p.doc != nil && p.doc.Components != nil {
		name := strings.TrimPrefix(ref.Ref, "#/components/schemas/")
		if resolved, ok := p.doc.Components.Schemas[name]; ok && resolved != nil {
			return resolved.Value
		}
	}
	return nil
}

// flattenBody turns a request body schema into path-addressed fields.
// Objects with properties become containing paths; arrays are fields whose
// item properties nest under them.
func (p *SwaggerParser) flattenBody(ref *openapi3.SchemaRef) []types.BodyField {
	schema := p.resolve(ref)
	if schema == nil {
		return nil
	}

	var fields []types.BodyField
	visiting := make(map[*openapi3.Schema]bool)
	switch {
	case len(p.properties(schema)) > 0:
		p.flattenObject(schema, nil, visiting, &fields)
	case schema.Type != nil && schema.Type.Is("array"):
		if items := p.resolve(schema.Items); items != nil && len(p.properties(items)) > 0 {
			p.flattenObject(items, nil, visiting, &fields)
		} else {
			fields = append(fields, types.BodyField{Name: "body", Type: "array", Required: true, Description: schema.Description})
		}
	default:
		fields = append(fields, types.BodyField{Name: "body", Type: schemaType(schema), Required: true, Description: schema.Description})
	}
	return fields
}

func (p *SwaggerParser) flattenObject(schema *openapi3.Schema, path []string, visiting map[*openapi3.Schema]bool, out *[]types.BodyField) {
	if len(path) >= maxSchemaDepth || visiting[schema] {
		return
	}
	visiting[schema] = true
	defer delete(visiting, schema)

	required := make(map[string]bool)
	for _, name := range p.requiredNames(schema) {
		required[name] = true
	}

	props := p.properties(schema)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := p.resolve(props[name])
		if prop == nil {
			continue
		}
		childPath := append(append([]string(nil), path...), name)

		// Plain objects only contribute their properties
		if len(p.properties(prop)) > 0 && !(prop.Type != nil && prop.Type.Is("array")) {
			if visiting[prop] {
				*out = append(*out, p.bodyField(path, name, prop, required[name]))
				continue
			}
			p.flattenObject(prop, childPath, visiting, out)
			continue
		}

		*out = append(*out, p.bodyField(path, name, prop, required[name]))

		if prop.Type != nil && prop.Type.Is("array") {
			if items := p.resolve(prop.Items); items != nil && len(p.properties(items)) > 0 {
				p.flattenObject(items, childPath, visiting, out)
			}
		}
	}
}

func (p *SwaggerParser) bodyField(path []string, name string, schema *openapi3.Schema, required bool) types.BodyField {
	return types.BodyField{
		Path:        append([]string(nil), path...),
		Name:        name,
		Type:        schemaType(schema),
		Required:    required,
		Description: schema.Description,
		AddedDate:   addedDate(schema.Extensions),
	}
}

// properties merges a schema's own properties with those of its allOf
// members. Members already merged along the chain are skipped.
func (p *SwaggerParser) properties(schema *openapi3.Schema) openapi3.Schemas {
	return p.mergeProperties(schema, make(map[*openapi3.Schema]bool))
}

func (p *SwaggerParser) mergeProperties(schema *openapi3.Schema, seen map[*openapi3.Schema]bool) openapi3.Schemas {
	if len(schema.AllOf) == 0 {
		return schema.Properties
	}
	seen[schema] = true
	merged := make(openapi3.Schemas, len(schema.Properties))
	for _, member := range schema.AllOf {
		if m := p.resolve(member); m != nil && !seen[m] {
			for name, prop := range p.mergeProperties(m, seen) {
				merged[name] = prop
			}
		}
	}
	for name, prop := range schema.Properties {
		merged[name] = prop
	}
	return merged
}

func (p *SwaggerParser) requiredNames(schema *openapi3.Schema) []string {
	return p.collectRequired(schema, make(map[*openapi3.Schema]bool))
}

func (p *SwaggerParser) collectRequired(schema *openapi3.Schema, seen map[*openapi3.Schema]bool) []string {
	seen[schema] = true
	names := append([]string(nil), schema.Required...)
	for _, member := range schema.AllOf {
		if m := p.resolve(member); m != nil && !seen[m] {
			names = append(names, p.collectRequired(m, seen)...)
		}
	}
	return names
}

func schemaType(schema *openapi3.Schema) string {
	if schema.Type != nil {
		if names := schema.Type.Slice(); len(names) > 0 {
			return names[0]
		}
	}
	if len(schema.Properties) > 0 || len(schema.AllOf) > 0 {
		return "object"
	}
	return ""
}

func addedDate(extensions map[string]any) time.Time {
	raw, ok := extensions[addedDateExtension].(string)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
