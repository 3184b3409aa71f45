//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/suhba/internal/errors"
)

// openFixture opens an import file read-only. Windows has no O_NOFOLLOW;
// ValidateImportPath has already rejected symlinks.
func openFixture(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewInternal(err)
	}
	return f, nil
}
