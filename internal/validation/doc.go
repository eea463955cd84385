// Package validation validates JSON payloads against declarative schemas.
//
// A Schema lists fields and the rules each one carries. Rules are tagged
// variants interpreted by one generic validator; the individual checks are
// delegated to go-playground/validator and the messages come from the locale
// catalog bound with Bind. Validate fails with ErrUnbound until Bind has run.
package validation
