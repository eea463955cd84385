// Package locale holds the message catalog: human-readable status lines and
// validation messages for every supported locale, resolved through
// go-playground/universal-translator.
package locale
