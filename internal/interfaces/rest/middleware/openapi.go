package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// OpenAPIValidator rejects requests whose parameters or bodies do not match
// the published document. Paths the document does not describe fall through
// to the mux untouched.
func OpenAPIValidator(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				fields := domain.FieldErrors{}
				collectFieldErrors(fields, "body", err)
				rest.WriteError(w, fields.Err(), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// collectFieldErrors flattens kin-openapi's nested errors into field messages.
// MultiError is matched by type switch because its As method would otherwise
// surface only the first element.
func collectFieldErrors(fields domain.FieldErrors, field string, err error) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collectFieldErrors(fields, field, inner)
		}
	case *openapi3filter.RequestError:
		if e.Parameter != nil {
			field = e.Parameter.Name
		}
		if e.Err == nil {
			fields.Add(field, e.Reason)
			return
		}
		collectFieldErrors(fields, field, e.Err)
	case *openapi3.SchemaError:
		if ptr := e.JSONPointer(); len(ptr) > 0 && field == "body" {
			field = strings.Join(ptr, ".")
		}
		fields.Add(field, e.Reason)
	case *openapi3filter.ParseError:
		fields.Add(field, e.Reason)
	default:
		fields.Add(field, err.Error())
	}
}
