// Package checkout validates the shipping form and tracks the errors shown to
// the shopper until they are dismissed or expire.
package checkout

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hamperland/storefront/internal/orders"
)

var validate = validator.New()

// shippingForm carries the validation rules of the shipping form. Field order
// is the order errors are reported in.
type shippingForm struct {
	Name    string `validate:"required"`
	Phone   string `validate:"required,number,len=10"`
	Address string `validate:"required"`
	City    string `validate:"required"`
	State   string `validate:"required"`
	Pincode string `validate:"required,number,len=6"`
}

type fieldMessages struct {
	required string
	invalid  string
}

var messagesByField = map[string]fieldMessages{
	"Name":    {required: MsgNameRequired},
	"Phone":   {required: MsgPhoneRequired, invalid: MsgPhoneInvalid},
	"Address": {required: MsgAddressRequired},
	"City":    {required: MsgCityRequired},
	"State":   {required: MsgStateRequired},
	"Pincode": {required: MsgPincodeRequired, invalid: MsgPincodeInvalid},
}

const (
	MsgNameRequired    = "Full name is required."
	MsgPhoneRequired   = "Phone number is required."
	MsgPhoneInvalid    = "Phone number must be exactly 10 digits."
	MsgAddressRequired = "Address is required."
	MsgCityRequired    = "City is required."
	MsgStateRequired   = "State is required."
	MsgPincodeRequired = "Pincode is required."
	MsgPincodeInvalid  = "Pincode must be exactly 6 digits."
)

// FormError is one problem with the shipping form.
type FormError struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// ValidationError blocks submission of an invalid form.
type ValidationError struct {
	Errors []FormError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, formErr := range e.Errors {
		messages = append(messages, formErr.Message)
	}
	return "invalid shipping details: " + strings.Join(messages, " ")
}

var errorSeq atomic.Int64

// newFormError stamps message with an ID built from the current millisecond
// and a process-wide sequence, unique within the process.
func newFormError(message string) FormError {
	return FormError{
		ID:      time.Now().UnixMilli()<<20 | errorSeq.Add(1)&(1<<20-1),
		Message: message,
	}
}

// Trim returns a copy of addr with surrounding whitespace removed from every
// field.
func Trim(addr orders.ShippingAddress) orders.ShippingAddress {
	return orders.ShippingAddress{
		Name:    strings.TrimSpace(addr.Name),
		Phone:   strings.TrimSpace(addr.Phone),
		Address: strings.TrimSpace(addr.Address),
		City:    strings.TrimSpace(addr.City),
		State:   strings.TrimSpace(addr.State),
		Pincode: strings.TrimSpace(addr.Pincode),
	}
}

// Validate checks every field of addr and returns all problems found, in form
// order. An empty result means the form can be submitted.
func Validate(addr orders.ShippingAddress) []FormError {
	addr = Trim(addr)
	form := shippingForm{
		Name:    addr.Name,
		Phone:   addr.Phone,
		Address: addr.Address,
		City:    addr.City,
		State:   addr.State,
		Pincode: addr.Pincode,
	}

	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []FormError{newFormError(err.Error())}
	}

	errs := make([]FormError, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		messages := messagesByField[fieldErr.Field()]
		message := messages.required
		if fieldErr.Tag() != "required" {
			message = messages.invalid
		}
		errs = append(errs, newFormError(message))
	}
	return errs
}
