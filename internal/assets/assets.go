package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// MissingResourceError reports a static asset that is not on disk at startup.
type MissingResourceError struct {
	Path    string
	Runtime string
	Err     error
}

func (e *MissingResourceError) Error() string {
	if e.Runtime == "" {
		return fmt.Sprintf("resource %q could not be found", e.Path)
	}
	return fmt.Sprintf("resource %q could not be found, exiting %q startup", e.Path, e.Runtime)
}

func (e *MissingResourceError) Unwrap() error { return e.Err }

// ResourceExists checks that path exists. runtimeName only labels the error.
func ResourceExists(path, runtimeName string) error {
	if _, err := os.Stat(path); err != nil {
		log.Error().Err(err).Str("path", path).Str("runtime", runtimeName).Msg("resource path does not exist")
		return &MissingResourceError{Path: path, Runtime: runtimeName, Err: err}
	}
	return nil
}

// ResolveIndex returns root/index after checking it names a regular file.
func ResolveIndex(root, index, runtimeName string) (string, error) {
	if index == "" {
		index = "index.html"
	}
	p := filepath.Join(root, index)
	fi, err := os.Stat(p)
	if err != nil {
		log.Error().Err(err).Str("path", p).Str("runtime", runtimeName).Msg("resource path does not exist")
		return "", &MissingResourceError{Path: p, Runtime: runtimeName, Err: err}
	}
	if fi.IsDir() {
		log.Error().Str("path", p).Msg("default file is a directory")
		return "", &MissingResourceError{Path: p, Runtime: runtimeName, Err: fmt.Errorf("%s is a directory", p)}
	}
	return p, nil
}
