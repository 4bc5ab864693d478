//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/threads/internal/errors"
)

// openFileNoFollowRead opens an export file. O_NOFOLLOW does not exist on
// Windows; resolvePath has already rejected symlinks.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewInternal(err)
	}
	return f, nil
}
