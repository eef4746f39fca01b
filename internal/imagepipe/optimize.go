package imagepipe

import (
	"bytes"
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/svg"
)

// Optimizer shrinks an SVG document.
type Optimizer interface {
	Optimize(data []byte) ([]byte, error)
}

// SVGOptimizer minifies SVG markup: comments, metadata, redundant whitespace
// and excess coordinate precision are removed.
type SVGOptimizer struct {
	m *minify.M
}

// NewSVGOptimizer creates an optimizer. precision is the number of
// significant digits kept in numbers; 0 keeps them all.
func NewSVGOptimizer(precision int) *SVGOptimizer {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add(SVGMediaType, &svg.Minifier{Precision: precision})
	return &SVGOptimizer{m: m}
}

// Optimize implements Optimizer.
func (o *SVGOptimizer) Optimize(data []byte) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty svg document")
	}
	out, err := o.m.Bytes(SVGMediaType, data)
	if err != nil {
		return nil, fmt.Errorf("minify svg: %w", err)
	}
	return out, nil
}
