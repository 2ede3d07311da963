// Package errors provides structured error handling for widgetry.
//
// Every failure raised by the composition engine is a [WidgetError] carrying
// the operation, the widget path and an [ErrorKind]. Each kind has a sentinel
// so callers can branch with [Is]:
//
//	if errors.Is(err, errors.ErrNoMatchingVariant) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindNotFound indicates access to a name that is not registered.
	KindNotFound
	// KindNoMatchingVariant indicates a conditional switch with no match and no default.
	KindNoMatchingVariant
	// KindNoApplicableVersion indicates a version below every threshold without a floor.
	KindNoApplicableVersion
	// KindAmbiguousParameters indicates a parameter supplied both positionally and by name,
	// or a template declaring the same parameter twice.
	KindAmbiguousParameters
	// KindInvalidArguments indicates missing, unknown or surplus parameter values.
	KindInvalidArguments
	// KindNotSupported indicates an operation the target cannot perform.
	KindNotSupported
	// KindTimeout indicates a bounded wait that expired.
	KindTimeout
	// KindNameCollision indicates two declarations sharing one name.
	KindNameCollision
	// KindDefinition indicates any other malformed declaration.
	KindDefinition
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNoMatchingVariant:
		return "no_matching_variant"
	case KindNoApplicableVersion:
		return "no_applicable_version"
	case KindAmbiguousParameters:
		return "ambiguous_parameters"
	case KindInvalidArguments:
		return "invalid_arguments"
	case KindNotSupported:
		return "not_supported"
	case KindTimeout:
		return "timeout"
	case KindNameCollision:
		return "name_collision"
	case KindDefinition:
		return "definition"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Sentinels matched by [WidgetError.Is] for the corresponding kind.
var (
	ErrNotFound            = stderrors.New("not found")
	ErrNoMatchingVariant   = stderrors.New("no matching variant")
	ErrNoApplicableVersion = stderrors.New("no applicable version")
	ErrAmbiguousParameters = stderrors.New("ambiguous parameters")
	ErrInvalidArguments    = stderrors.New("invalid arguments")
	ErrNotSupported        = stderrors.New("not supported")
	ErrTimeout             = stderrors.New("timeout")
	ErrNameCollision       = stderrors.New("name collision")
	ErrDefinition          = stderrors.New("invalid definition")
)

// ErrSkipRead may be returned by a widget's Read to leave it out of the
// enclosing view's read result.
var ErrSkipRead = stderrors.New("skip read")

func sentinel(k ErrorKind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindNoMatchingVariant:
		return ErrNoMatchingVariant
	case KindNoApplicableVersion:
		return ErrNoApplicableVersion
	case KindAmbiguousParameters:
		return ErrAmbiguousParameters
	case KindInvalidArguments:
		return ErrInvalidArguments
	case KindNotSupported:
		return ErrNotSupported
	case KindTimeout:
		return ErrTimeout
	case KindNameCollision:
		return ErrNameCollision
	case KindDefinition:
		return ErrDefinition
	default:
		return nil
	}
}

// WidgetError represents a structured error raised while defining, binding,
// reading or filling widgets.
type WidgetError struct {
	// Op is the operation that failed (e.g., "core.View.Get").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Name is the dotted widget path, if applicable.
	Name string
	// Err is the underlying error.
	Err error
}

// Errorf builds a WidgetError whose underlying error is formatted from format and args.
func Errorf(op string, kind ErrorKind, name string, format string, args ...any) *WidgetError {
	return &WidgetError{Op: op, Kind: kind, Name: name, Err: fmt.Errorf(format, args...)}
}

// Wrap builds a WidgetError around err. It returns nil when err is nil.
func Wrap(op string, kind ErrorKind, name string, err error) error {
	if err == nil {
		return nil
	}
	return &WidgetError{Op: op, Kind: kind, Name: name, Err: err}
}

func (e *WidgetError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s [%s] name=%s: %v", e.Op, e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *WidgetError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *WidgetError) Is(target error) bool {
	s := sentinel(e.Kind)
	return s != nil && target == s
}

// KindOf returns the kind of the first WidgetError in err's chain.
func KindOf(err error) ErrorKind {
	var we *WidgetError
	if stderrors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join returns an error that wraps the given errors, or nil if all are nil.
func Join(errs ...error) error { return stderrors.Join(errs...) }

// New returns an error that formats as the given text.
func New(text string) error { return stderrors.New(text) }

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.View.Fill").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// FillReport describes the non-fatal anomalies of one fill call.
type FillReport struct {
	// View is the dotted path of the filled view.
	View string
	// Ignored lists mapping keys that matched no child.
	Ignored []string
	// Skipped lists children that had a value but no fill capability.
	Skipped []string
	// Timestamp is when the fill finished.
	Timestamp time.Time
}

// Empty reports whether the fill had no anomalies.
func (r *FillReport) Empty() bool {
	return len(r.Ignored) == 0 && len(r.Skipped) == 0
}

// ErrorHandler receives errors reported by widgetry.
type ErrorHandler interface {
	// HandleError is called when an error is reported.
	HandleError(err *WidgetError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleFillReport is called when a fill ignored keys or skipped children.
	HandleFillReport(report *FillReport)
}
