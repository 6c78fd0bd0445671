package stripe

import (
	"errors"
	"fmt"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	stripego "github.com/stripe/stripe-go/v81"
)

// translateError converts SDK failures into application.ProcessorError so the
// rest of the code never sees stripe types.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		return &application.ProcessorError{
			Code:       errorCode(stripeErr),
			Message:    stripeErr.Msg,
			StatusCode: stripeErr.HTTPStatusCode,
			Declined:   stripeErr.Type == stripego.ErrorTypeCard,
			Err:        fmt.Errorf("%s: %w", op, err),
		}
	}

	return &application.ProcessorError{
		Code:    "api_connection_error",
		Message: err.Error(),
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

func errorCode(err *stripego.Error) string {
	if err.Code != "" {
		return string(err.Code)
	}
	return string(err.Type)
}
