package loader

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/roach88/kiln/internal/definition"
	"github.com/roach88/kiln/internal/parameter"
)

// EnvPrefix prefixes the parameters created from dotenv files.
const EnvPrefix = "env."

// LoadEnv reads a dotenv file and sets each variable NAME as parameter
// env.name. Values are escaped, so a % in them is never a placeholder.
func (l *Loader) LoadEnv(path string) error {
	vars, err := godotenv.Read(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &LoadError{Code: ErrCodeNotFound, File: path, Message: "file not found", Err: err}
	case err != nil:
		return &LoadError{Code: ErrCodeLoadFailed, File: path, Message: err.Error(), Err: err}
	}

	l.files = append(l.files, path)
	for _, name := range sortedKeys(vars) {
		key := EnvParameter(name)
		if err := l.builder.SetParameter(key, parameter.EscapeValue(vars[name])); err != nil {
			return err
		}
	}
	l.logger.Debug("loaded environment file", "file", path, "variables", len(vars))
	return nil
}

// EnvParameter returns the parameter name of environment variable name.
func EnvParameter(name string) string {
	return definition.NormalizeID(EnvPrefix + name)
}
