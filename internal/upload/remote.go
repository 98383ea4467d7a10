// Package upload mirrors local division files to remote storage. Files are scheduled while a
// session runs and uploaded once when it ends.
package upload

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies remote failures.
type ErrorKind string

const (
	KindRemoteAuth ErrorKind = "remote_auth_failure"
	KindRemoteIO   ErrorKind = "remote_io_failure"
)

// RemoteError wraps a failure talking to remote storage.
type RemoteError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// KindOf returns the kind of a RemoteError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// Folder is a resolved remote location for one year/month/gender/division.
type Folder struct {
	ID   string
	Path string
}

// RemoteStore is the storage backend files are mirrored to. UploadOrUpdate replaces a
// same-named file in the folder if one exists.
type RemoteStore interface {
	EnsureFolderPath(ctx context.Context, year, month, gender, division string) (Folder, error)
	UploadOrUpdate(ctx context.Context, localPath string, folder Folder) (string, error)
	FileExists(ctx context.Context, name string, folder Folder) (string, bool, error)
}
