package tooluse

import "errors"

// Validatable is implemented by typed parameter structs that need business validation.
// Bind calls Validate after parameters are resolved from either protocol and before
// Execute.
type Validatable interface {
	Validate() error
}

// validateParams runs Validatable on params (value receiver) or on &params (pointer
// receiver). A failure that is not already a ClientError is wrapped as one.
func validateParams[P any](params P) error {
	var err error
	if v, ok := any(params).(Validatable); ok {
		err = v.Validate()
	} else if v, ok := any(&params).(Validatable); ok {
		err = v.Validate()
	}
	if err == nil || IsClientError(err) {
		return err
	}
	var mp *MissingParamError
	if errors.As(err, &mp) {
		return err
	}
	return &ClientError{Reason: err.Error(), Err: ErrInvalidParams}
}
