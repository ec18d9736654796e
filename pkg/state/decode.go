package state

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode materializes the subtree at path into a typed struct using
// mapstructure tags. The empty path decodes the whole tree. Weak typing is
// enabled so numeric widths from JSON/YAML round trips do not matter.
func Decode(t *Tree, path string, out any) error {
	v, ok := t.Get(path)
	if !ok {
		return fmt.Errorf("no value at path %q", path)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode %q: %w", path, err)
	}
	return nil
}
