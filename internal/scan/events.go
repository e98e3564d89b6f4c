package scan

import (
	"errors"
	"fmt"
)

// ErrRootInaccessible marks a fatal failure to read the scan root. Per-entry
// failures deeper in the tree are recoverable and reported as ErrorEvents.
var ErrRootInaccessible = errors.New("scan root inaccessible")

// ErrorCategory buckets recoverable failures for the final summary so an
// operator can judge how complete a scan was.
type ErrorCategory string

const (
	// CategoryEnumeration covers unreadable or vanished directory entries.
	CategoryEnumeration ErrorCategory = "enumeration"
	// CategoryHeaderRead covers files whose header bytes could not be
	// sniffed; classification degrades to extension-only.
	CategoryHeaderRead ErrorCategory = "header_read"
	// CategoryPlan covers matches whose destination could not be derived.
	CategoryPlan ErrorCategory = "plan"
	// CategoryCopy covers destination write failures.
	CategoryCopy ErrorCategory = "copy"
)

// ErrorEvent is a recoverable failure attributed to a specific path. Events
// are aggregated, never silently dropped, and never abort the run.
type ErrorEvent struct {
	Category ErrorCategory
	Path     string
	Err      error
}

func (e ErrorEvent) String() string {
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Path, e.Err)
}
