package kdl

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sblinch/kdl-go"
)

// Unmarshal decodes the KDL document at path on top of defaultCfg, so keys
// missing from the file keep their default values.
func Unmarshal[T any](path string, defaultCfg T) (T, error) {
	var nilT T
	data, err := os.ReadFile(path)
	if err != nil {
		return nilT, errors.Wrap(err, "read config file")
	}
	if err := kdl.Unmarshal(data, &defaultCfg); err != nil {
		return nilT, errors.Wrapf(err, "decode %s", path)
	}
	return defaultCfg, nil
}
