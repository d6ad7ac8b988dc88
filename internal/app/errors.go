package app

import (
	"errors"
	"fmt"

	"github.com/Guilhem-Bonnet/course-player/internal/ports"
)

var (
	ErrNotFound        = ports.ErrNotFound
	ErrInvalidArgument = ports.ErrInvalidArgument
)

// Codes d'erreur stables, renvoyés tels quels par l'API.
const (
	CodeInvalidParams = "invalid_params"
	CodeIOError       = "io_error"
	CodeScanFailed    = "scan_failed"
)

// CodedError porte un code d'erreur stable à côté du message.
//
// Exemples de codes: invalid_params, io_error, scan_failed.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

// ErrorCode renvoie le code porté par err, ou "" s'il n'y en a pas.
func ErrorCode(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func invalidParams(msg string) error {
	return &CodedError{Code: CodeInvalidParams, Message: msg, Err: ErrInvalidArgument}
}

// ScanError : la racine du cours est illisible, aucun modèle ne peut être construit.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
