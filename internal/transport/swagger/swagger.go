package swagger

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.yml
var openapiYAML []byte

// Document is the API description served at /openapi.yml.
type Document struct {
	raw []byte
	doc *openapi3.T
}

// Load parses and validates the embedded document so that a broken
// description fails at startup rather than in the browser.
func Load(ctx context.Context) (*Document, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiYAML)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return &Document{raw: openapiYAML, doc: doc}, nil
}

func (d *Document) Version() string {
	return d.doc.Info.Version
}

// Paths returns the number of documented paths.
func (d *Document) Paths() int {
	return d.doc.Paths.Len()
}

func (d *Document) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(d.raw)
}

func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}
