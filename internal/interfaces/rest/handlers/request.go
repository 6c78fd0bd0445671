package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest"
	"github.com/go-playground/validator"
	"github.com/oapi-codegen/runtime"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into dst and runs its validate tags. An empty
// body leaves dst at its zero value when allowEmpty is set.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if !(errors.Is(err, io.EOF) && allowEmpty) {
			return domain.NewValidationError("body", "request body must be a valid JSON object")
		}
	}

	return h.validateStruct(dst)
}

func (h *Handlers) validateStruct(dst any) error {
	err := h.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return application.NewInternalError(err)
	}

	fields := domain.FieldErrors{}
	for _, fe := range validationErrs {
		fields.Add(fe.Field(), "failed "+fe.Tag()+" validation")
	}
	return fields.Err()
}

// pathParam binds a simple-style path segment into dest.
func pathParam(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, r.PathValue(name), dest, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil {
		return domain.NewValidationError(name, err.Error())
	}
	return nil
}

func pageParams(r *http.Request) (postgres.Page, error) {
	var page postgres.Page
	fields := domain.FieldErrors{}
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &page.Limit); err != nil {
		fields.Add("limit", "must be an integer")
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &page.Offset); err != nil {
		fields.Add("offset", "must be an integer")
	}

	if err := fields.Err(); err != nil {
		return postgres.Page{}, err
	}
	return page.Normalize(), nil
}

// principal is always present behind the authentication middleware.
func (h *Handlers) principal(w http.ResponseWriter, r *http.Request) (*services.Principal, bool) {
	p, ok := rest.PrincipalFrom(r.Context())
	if !ok {
		rest.WriteError(w, application.NewAuthenticationFailedError(""), h.logger)
	}
	return p, ok
}
