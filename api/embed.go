// Package api carries the OpenAPI document served at /api/docs/openapi.yaml.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3.0 description of the HTTP API.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
