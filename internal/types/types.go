package types

import "time"

// Endpoint represents a documented API operation
type Endpoint struct {
	Method      string
	Path        string
	OperationID string
	Summary     string
	Description string
	Parameters  []Parameter
	Body        []BodyField
	ContentType string
	Responses   map[int]Response
}

// Key returns the "METHOD /path" form used to address an endpoint
func (e Endpoint) Key() string {
	return e.Method + " " + e.Path
}

// Parameter represents a path, query or header parameter
type Parameter struct {
	Name        string
	In          string
	Required    bool
	Type        string
	Format      string
	Description string
	AddedDate   time.Time
}

// BodyField represents one property of the request body. Path addresses the
// containing object; it is empty for top level properties.
type BodyField struct {
	Path        []string
	Name        string
	Type        string
	Required    bool
	Description string
	AddedDate   time.Time
}

// Response represents an API response
type Response struct {
	Description string
}
