package mock

import "github.com/fwojciec/threadmark"

var _ threadmark.Converter = (*Converter)(nil)

// Converter is a mock implementation of threadmark.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
