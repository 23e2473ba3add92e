package validator

import (
	_ "embed"
	"fmt"
	"net/http"

	apperrors "characterai/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// Schema is the OpenAPI document describing the HTTP API
//
//go:embed openapi.yaml
var Schema []byte

// OpenAPIValidator validates requests against the OpenAPI document
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
}

// New creates a validator from the embedded schema
func New() (*OpenAPIValidator, error) {
	return NewFromData(Schema)
}

// NewFromData creates a validator from a YAML or JSON document
func NewFromData(data []byte) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI schema: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}

	return &OpenAPIValidator{doc: doc, router: router}, nil
}

// Document returns the parsed schema
func (v *OpenAPIValidator) Document() *openapi3.T {
	return v.doc
}

// Middleware returns a Gin middleware that rejects requests not matching
// the schema. Routes the schema does not describe pass through.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route, pathParams, err := v.router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			_ = c.Error(apperrors.NewBadRequestError(apperrors.CodeValidation, "Invalid request.").
				WithDetails(err.Error()))
			c.Abort()
			return
		}

		c.Next()
	}
}

// ServeSchema writes the embedded document
func ServeSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", Schema)
}
