// Package yaml loads structural marker overrides from YAML files.
package yaml

import (
	"errors"
	"io"
	"os"

	"github.com/fwojciec/threadmark"
	"gopkg.in/yaml.v3"
)

// LoadMarkers reads a marker file and overlays it on the default markers.
// Keys absent from the file keep their default values; unknown keys are an
// error so typos do not silently fall back to defaults.
func LoadMarkers(path string) (*threadmark.Markers, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, threadmark.Errorf(threadmark.EINVALID, "open markers: %v", err)
	}
	defer f.Close()
	return DecodeMarkers(f)
}

// DecodeMarkers reads markers from r, overlaid on the defaults.
func DecodeMarkers(r io.Reader) (*threadmark.Markers, error) {
	m := threadmark.DefaultMarkers()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, threadmark.Errorf(threadmark.EINVALID, "decode markers: %v", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
