package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"api-doc-explorer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstore = `
openapi: 3.0.3
info:
  title: Pets
  version: "1.0"
paths:
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: string
        description: Pet identifier
    get:
      summary: Get a pet
      parameters:
        - name: X-Trace
          in: header
          schema:
            type: string
      responses:
        "200":
          description: The pet
        default:
          description: Error
    put:
      summary: Replace a pet
      parameters:
        - name: dryRun
          in: query
          x-added: "2024-03-01"
          schema:
            type: boolean
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/Pet"
      responses:
        "204":
          description: Replaced
components:
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        name:
          type: string
          description: Display name
        owner:
          type: object
          properties:
            email:
              type: string
              format: email
            address:
              type: object
              properties:
                city:
                  type: string
        tags:
          type: array
          items:
            type: object
            properties:
              label:
                type: string
        parent:
          $ref: "#/components/schemas/Pet"
`

func TestParseData(t *testing.T) {
	p := NewSwaggerParser("", nil)
	endpoints, err := p.ParseData([]byte(petstore))
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	require.NotNil(t, p.Document())

	get, put := endpoints[0], endpoints[1]
	assert.Equal(t, "GET /pets/{petId}", get.Key())
	assert.Equal(t, "PUT /pets/{petId}", put.Key())
	assert.Equal(t, "Get a pet", get.Summary)

	assert.Equal(t, []types.Parameter{
		{Name: "X-Trace", In: "header", Type: "string"},
		{Name: "petId", In: "path", Required: true, Type: "string", Description: "Pet identifier"},
	}, get.Parameters)
	assert.Equal(t, "The pet", get.Responses[200].Description)
	assert.NotContains(t, get.Responses, 0)

	require.Len(t, put.Parameters, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), put.Parameters[0].AddedDate)
	assert.Equal(t, "application/json", put.ContentType)

	var got []string
	for _, f := range put.Body {
		got = append(got, joinPath(f.Path, f.Name)+":"+f.Type)
	}
	assert.Equal(t, []string{
		"name:string",
		"owner.address.city:string",
		"owner.email:string",
		"parent:object",
		"tags:array",
		"tags.label:string",
	}, got)
	assert.True(t, put.Body[0].Required)
	assert.Equal(t, "Display name", put.Body[0].Description)
}

func joinPath(path []string, name string) string {
	out := ""
	for _, seg := range path {
		out += seg + "."
	}
	return out + name
}

func TestFlattenPrimitiveBody(t *testing.T) {
	spec := `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /echo:
    post:
      requestBody:
        content:
          text/plain:
            schema:
              type: string
              description: Raw text
      responses:
        "200": {description: ok}
`
	endpoints, err := NewSwaggerParser("", nil).ParseData([]byte(spec))
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "text/plain", endpoints[0].ContentType)
	assert.Equal(t, []types.BodyField{{Name: "body", Type: "string", Required: true, Description: "Raw text"}}, endpoints[0].Body)
}

func TestParseEndpointsProbesKnownLocations(t *testing.T) {
	var hits []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		if r.URL.Path != "/openapi.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"openapi":"3.0.3","info":{"title":"t","version":"1"},"paths":{"/ping":{"get":{"responses":{"200":{"description":"pong"}}}}}}`))
	}))
	defer server.Close()

	p := NewSwaggerParser(server.URL+"/", nil)
	endpoints, err := p.ParseEndpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "GET /ping", endpoints[0].Key())
	assert.Equal(t, []string{"/swagger/v1/swagger.json", "/swagger.json", "/openapi.json"}, hits)
}

func TestParseEndpointsFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewSwaggerParser(server.URL+"/spec.json", nil).ParseEndpoints(context.Background())
	assert.ErrorContains(t, err, "unexpected status code: 404")
}

func TestFlattenMutuallyRecursiveAllOf(t *testing.T) {
	spec := `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /nodes:
    post:
      requestBody:
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/A"
      responses:
        "200": {description: ok}
components:
  schemas:
    A:
      required: [alpha]
      allOf:
        - $ref: "#/components/schemas/B"
      properties:
        alpha:
          type: string
    B:
      required: [beta]
      allOf:
        - $ref: "#/components/schemas/A"
      properties:
        beta:
          type: integer
`
	endpoints, err := NewSwaggerParser("", nil).ParseData([]byte(spec))
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, []types.BodyField{
		{Name: "alpha", Type: "string", Required: true},
		{Name: "beta", Type: "integer", Required: true},
	}, endpoints[0].Body)
}
