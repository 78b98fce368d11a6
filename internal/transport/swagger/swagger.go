package swagger

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	// The UI fetches the document served by the router at /openapi.yml.
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}

// Load reads the OpenAPI document at path and validates it before it is served.
func Load(ctx context.Context, path string) ([]byte, *openapi3.T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read openapi document: %w", err)
	}

	doc, err := Parse(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, doc, nil
}

func Parse(ctx context.Context, raw []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}
