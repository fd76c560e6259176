package gateway

import (
	"errors"
	"fmt"

	"github.com/3leaps/godrives/pkg/provider"
)

// ErrorKind classifies a gateway failure for the hosting layer.
type ErrorKind string

// Gateway error kinds.
const (
	KindContents ErrorKind = "contents"
	KindCreate   ErrorKind = "create"
	KindSave     ErrorKind = "save"
	KindRename   ErrorKind = "rename"
	KindDelete   ErrorKind = "delete"
	KindCopy     ErrorKind = "copy"
	KindNotFound ErrorKind = "not_found"
	KindList     ErrorKind = "list"
)

// kindMessages maps each kind to its user-facing phrasing.
var kindMessages = map[ErrorKind]string{
	KindContents: "retrieving the contents",
	KindCreate:   "creating the object",
	KindSave:     "saving the file",
	KindRename:   "renaming the object",
	KindDelete:   "deleting the object",
	KindCopy:     "copying the object",
	KindNotFound: "locating the object",
	KindList:     "listing the drives",
}

// Error is a classified gateway failure carrying its originating cause.
//
// Causes are never swallowed: the underlying adapter or transport error
// remains reachable through errors.Is/As.
type Error struct {
	Kind  ErrorKind
	Drive string
	Path  string
	Err   error
}

func (e *Error) Error() string {
	if e.Kind == KindNotFound {
		return fmt.Sprintf("object %s does not exist within drive %s", e.Path, e.Drive)
	}
	return fmt.Sprintf("the following error occurred when %s: %v", kindMessages[e.Kind], e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapOp classifies an adapter failure, promoting missing-object causes to
// KindNotFound for the operations where the distinction is user-visible.
func wrapOp(kind ErrorKind, drive, path string, err error, notFoundAware bool) error {
	if notFoundAware && errors.Is(err, provider.ErrNotFound) {
		return &Error{Kind: KindNotFound, Drive: drive, Path: path, Err: err}
	}
	return &Error{Kind: kind, Drive: drive, Path: path, Err: err}
}

// IsKind reports whether err is a gateway error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == kind
}
