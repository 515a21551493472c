// Package errors provides standardized error handling for rawcull.
// It defines the error kinds raised while cataloguing, decoding, rating and
// exporting images, plus helpers for creating, wrapping and classifying them.
package errors

import (
	"errors"
	"fmt"
)

// Re-exported from the standard errors package so callers need one import.
var (
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// ErrorKind classifies an ApplicationError.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	DirectoryNotFound
	FileAccessDenied
	InvalidPath
	DecodeFailed
	UnsupportedFormat
	ExportFailed
	InvalidRating
	InvalidConfig
	ConfigNotFound
	DatabaseOperationFailed
)

var kindNames = map[ErrorKind]string{
	DirectoryNotFound:       "directory_not_found",
	FileAccessDenied:        "file_access_denied",
	InvalidPath:             "invalid_path",
	DecodeFailed:            "decode_failed",
	UnsupportedFormat:       "unsupported_format",
	ExportFailed:            "export_failed",
	InvalidRating:           "invalid_rating",
	InvalidConfig:           "invalid_config",
	ConfigNotFound:          "config_not_found",
	DatabaseOperationFailed: "database_operation_failed",
}

// String returns a short name for the kind, used in log fields.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Sentinels for errors.Is checks. They match any error of the same kind.
var (
	ErrDirectoryNotFound = NewFileError("directory not found", "", DirectoryNotFound, nil)
	ErrNoEmbeddedPreview = NewDecodeError("no embedded preview", "", UnsupportedFormat, nil)
	ErrInvalidRating     = NewRatingError(-1)
	ErrInvalidConfig     = NewConfigError("invalid configuration", "", InvalidConfig, nil)
)

// ApplicationError is the base of every rawcull error. It renders as
// "msg: subject: cause", omitting the parts that are empty.
type ApplicationError struct {
	kind    ErrorKind
	msg     string
	subject string
	err     error
}

func base(kind ErrorKind, msg, subject string, err error) ApplicationError {
	return ApplicationError{kind: kind, msg: msg, subject: subject, err: err}
}

func (e *ApplicationError) Error() string {
	s := e.msg
	if e.subject != "" {
		s += ": " + e.subject
	}
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

func (e *ApplicationError) Unwrap() error { return e.err }

func (e *ApplicationError) Kind() ErrorKind { return e.kind }

// Is matches errors of the same non-Unknown kind, so ErrDirectoryNotFound
// matches every missing-directory error.
func (e *ApplicationError) Is(target error) bool {
	var t interface{ Kind() ErrorKind }
	if errors.As(target, &t) {
		return t.Kind() != Unknown && t.Kind() == e.kind
	}
	return false
}

// FileError is a failure to read a directory or file.
type FileError struct {
	ApplicationError
}

func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{base(kind, msg, path, err)}
}

// Path is the file or directory involved.
func (e *FileError) Path() string { return e.subject }

// DecodeError is returned when a RAW file cannot be turned into a bitmap.
type DecodeError struct {
	ApplicationError
}

func NewDecodeError(msg string, path string, kind ErrorKind, err error) *DecodeError {
	return &DecodeError{base(kind, msg, path, err)}
}

// Path is the RAW file that failed to decode.
func (e *DecodeError) Path() string { return e.subject }

// ExportError is returned for a single file that could not be exported.
type ExportError struct {
	ApplicationError
	destination string
}

func NewExportError(msg string, source, destination string, err error) *ExportError {
	return &ExportError{base(ExportFailed, msg, source, err), destination}
}

// Path is the source RAW file.
func (e *ExportError) Path() string { return e.subject }

// Destination is the JPEG that was being written, if known.
func (e *ExportError) Destination() string { return e.destination }

// RatingError is returned for a rating outside 0..5.
type RatingError struct {
	ApplicationError
	value int
}

func NewRatingError(value int) *RatingError {
	msg := fmt.Sprintf("rating %d out of range 0-5", value)
	return &RatingError{base(InvalidRating, msg, "", nil), value}
}

func (e *RatingError) Value() int { return e.value }

// ConfigError names the configuration key that was rejected.
type ConfigError struct {
	ApplicationError
}

func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{base(kind, msg, param, err)}
}

func (e *ConfigError) Param() string { return e.subject }

// DatabaseError is a failure in the ratings database.
type DatabaseError struct {
	ApplicationError
	operation string
}

func NewDatabaseError(msg string, err error) *DatabaseError {
	return &DatabaseError{ApplicationError: base(DatabaseOperationFailed, msg, "", err)}
}

// WithOperation records which database step failed.
func (e *DatabaseError) WithOperation(operation string) *DatabaseError {
	e.operation = operation
	e.subject = "operation=" + operation
	return e
}

func (e *DatabaseError) Operation() string { return e.operation }

// New creates an error of Unknown kind.
func New(msg string) error {
	return &ApplicationError{msg: msg}
}

func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap adds context to err. A nil err stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{msg: msg, err: err}
}

func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first kinded error in err's chain.
func KindOf(err error) ErrorKind {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Unknown
}

func IsDirectoryNotFound(err error) bool {
	var fileErr *FileError
	return errors.As(err, &fileErr) && fileErr.kind == DirectoryNotFound
}

func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

func IsExportError(err error) bool {
	var exportErr *ExportError
	return errors.As(err, &exportErr)
}

func IsInvalidRating(err error) bool {
	var ratingErr *RatingError
	return errors.As(err, &ratingErr)
}

func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr) && configErr.kind == InvalidConfig
}

func IsDatabaseError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr)
}
