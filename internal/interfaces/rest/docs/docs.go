// Package docs publishes the HTTP API description. The document is registered
// with swag so it can be served by name, and loaded with kin-openapi for
// request validation.
package docs

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

// InstanceName is the swag registry key of this document.
const InstanceName = "bridge"

//go:embed openapi.yaml
var document []byte

type registered struct{}

func (registered) ReadDoc() string {
	return string(document)
}

func init() {
	swag.Register(InstanceName, registered{})
}

// Read returns the registered document.
func Read() (string, error) {
	return swag.ReadDoc(InstanceName)
}

// Load parses and validates the document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}
