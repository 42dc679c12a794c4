package mock

import "github.com/fwojciec/threadmark"

var _ threadmark.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of threadmark.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*threadmark.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*threadmark.ExtractResult, error) {
	return e.ExtractFn(html)
}
