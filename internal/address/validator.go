// Package address tracks postal-code (CEP) validation for a form field.
package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/naveenspark/projectdesk/pkg/client"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

var (
	// ErrEmpty is returned when validation is attempted on a blank field.
	ErrEmpty = errors.New("enter a CEP")
	// ErrNotFound is returned when the lookup does not know the code.
	ErrNotFound = errors.New("invalid or unknown CEP")
)

// Lookup resolves a normalized postal code. *client.Client satisfies it.
type Lookup interface {
	LookupCEP(ctx context.Context, cep string) (*domain.Address, error)
}

// Validator holds the state of one CEP field: the value being edited, the
// last lookup outcome, and the sequence number of the lookup in flight.
// Only the result of the most recent Begin is ever applied.
//
// Not safe for concurrent use.
type Validator struct {
	field     string
	attempted string
	validated string
	addr      *domain.Address
	valid     bool
	loading   bool
	err       error
	seq       uint64
}

// New returns an empty, unvalidated field.
func New() *Validator {
	return &Validator{}
}

// SetCEP records the field value as typed. Validity only holds while the
// field matches the last validated code.
func (v *Validator) SetCEP(cep string) {
	v.field = cep
}

// CEP returns the field value as typed.
func (v *Validator) CEP() string { return v.field }

// Normalized returns the field value reduced to digits.
func (v *Validator) Normalized() string { return domain.NormalizeCEP(v.field) }

// Address returns the resolved address, or nil.
func (v *Validator) Address() *domain.Address {
	if !v.Valid() {
		return nil
	}
	return v.addr
}

// Valid reports whether the current field value has been resolved.
func (v *Validator) Valid() bool {
	return v.valid && v.validated != "" && v.Normalized() == v.validated
}

// Loading reports whether a lookup is in flight.
func (v *Validator) Loading() bool { return v.loading }

// Err returns the error of the last lookup, if it failed.
func (v *Validator) Err() error { return v.err }

// Message is the human-readable outcome of the last lookup, empty on success.
func (v *Validator) Message() string {
	if v.err == nil {
		return ""
	}
	return v.err.Error()
}

// NeedsLookup reports whether the field holds a non-empty code that has not
// been looked up yet. The form uses it to re-validate when the field loses
// focus.
func (v *Validator) NeedsLookup() bool {
	n := v.Normalized()
	return n != "" && n != v.attempted
}

// Begin starts a lookup for cep and returns its sequence number. A blank
// code fails immediately with ErrEmpty and no sequence is issued.
func (v *Validator) Begin(cep string) (uint64, error) {
	v.field = cep
	n := domain.NormalizeCEP(cep)
	if n == "" {
		v.seq++ // drop anything still in flight
		v.loading = false
		v.fail(ErrEmpty)
		v.attempted = ""
		return 0, ErrEmpty
	}
	v.seq++
	v.loading = true
	v.attempted = n
	return v.seq, nil
}

// Resolve applies a lookup outcome. It returns false, leaving the state
// untouched, when seq is not the latest issued sequence.
func (v *Validator) Resolve(seq uint64, addr *domain.Address, err error) bool {
	if seq == 0 || seq != v.seq {
		return false
	}
	v.loading = false
	if err == nil && addr == nil {
		err = ErrNotFound
	}
	if err != nil {
		v.fail(classify(err))
		return true
	}
	v.addr = addr
	v.valid = true
	v.validated = v.attempted
	v.err = nil
	return true
}

// Validate runs Begin, the lookup and Resolve in one call. Every call looks
// the code up again.
func (v *Validator) Validate(ctx context.Context, lookup Lookup, cep string) error {
	seq, err := v.Begin(cep)
	if err != nil {
		return err
	}
	addr, err := lookup.LookupCEP(ctx, v.attempted)
	v.Resolve(seq, addr, err)
	return v.err
}

// Preload marks a stored address as validated without a lookup. A nil
// address, or one without a code, resets the field.
func (v *Validator) Preload(addr *domain.Address) {
	v.seq++
	v.loading = false
	v.err = nil
	if addr == nil || domain.NormalizeCEP(addr.CEP) == "" {
		v.field, v.attempted, v.validated = "", "", ""
		v.addr, v.valid = nil, false
		return
	}
	v.field = addr.CEP
	v.attempted = domain.NormalizeCEP(addr.CEP)
	v.validated = v.attempted
	v.addr = addr
	v.valid = true
}

func (v *Validator) fail(err error) {
	v.addr = nil
	v.valid = false
	v.validated = ""
	v.err = err
}

// classify maps lookup errors onto the messages shown next to the field.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), client.IsNotFound(err):
		return ErrNotFound
	case client.IsUnauthorized(err):
		return err
	}
	return fmt.Errorf("could not reach the CEP service: %w", err)
}
