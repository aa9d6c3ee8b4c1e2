package register

import "fmt"

// The register surfaces every failure as one of four typed errors and never
// retries or substitutes defaults; callers decide how to degrade.

// ResolutionError reports a failed find-or-create of a remote container.
type ResolutionError struct {
	Kind string
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// EncodingError reports an entry that cannot be encoded for its schema.
type EncodingError struct {
	Type  RecordType
	Field string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s entry: missing or invalid field %q", e.Type, e.Field)
}

// RemoteIOError reports a failed read or write against the remote store.
// Type is set for record operations and empty for document operations.
type RemoteIOError struct {
	Op   string // "append", "fetch", "upload", or "delete"
	Type RecordType
	Err  error
}

func (e *RemoteIOError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s for %s records: %v", e.Op, e.Type, e.Err)
}

func (e *RemoteIOError) Unwrap() error { return e.Err }

// UnknownRecordTypeError reports a type missing from the schema registry.
type UnknownRecordTypeError struct {
	Value string
}

func (e *UnknownRecordTypeError) Error() string {
	return fmt.Sprintf("unknown record type %q", e.Value)
}
