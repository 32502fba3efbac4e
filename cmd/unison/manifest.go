package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/modkit-go/unison/pkg/errors"
)

// ModuleSpec describes one simulated extension module and the library copy it
// embeds.
type ModuleSpec struct {
	// Name identifies the module in logs and the result table.
	Name string `toml:"name"`
	// Version is the dotted-numeric version of the module's embedded library copy.
	Version string `toml:"version"`
	// FailInit makes the copy's initializer return an error if it is elected.
	FailInit bool `toml:"fail_init"`
	// PanicInit makes the copy's initializer panic if it is elected.
	PanicInit bool `toml:"panic_init"`
}

// Manifest is the TOML description of a simulated load sequence.
type Manifest struct {
	Modules []ModuleSpec `toml:"module"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "cannot read manifest %s", path)
	}

	var manifest Manifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot parse manifest %s", path)
	}

	if len(manifest.Modules) == 0 {
		return nil, errors.Newf(errors.ErrInvalidInput, "manifest %s declares no modules", path)
	}
	for i, m := range manifest.Modules {
		if m.Name == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, "module %d in %s has no name", i, path)
		}
	}

	return &manifest, nil
}
