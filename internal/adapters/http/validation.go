package httpadapter

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed openapi.yaml
var openAPISpec []byte

// requestValidator checks requests to documented routes against openapi.yaml.
// Undocumented routes pass through untouched.
type requestValidator struct {
	router routers.Router
}

func newRequestValidator() (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &requestValidator{router: router}, nil
}

func (v *requestValidator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				MultiError:         false,
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeError(w, r, http.StatusBadRequest, validationMessage(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validationMessage(err error) string {
	if reqErr, ok := err.(*openapi3filter.RequestError); ok {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("invalid parameter %q: %v", reqErr.Parameter.Name, reqErr.Err)
		}
		if reqErr.Err != nil {
			return fmt.Sprintf("invalid request body: %v", reqErr.Err)
		}
	}
	return err.Error()
}
