package vector

import (
	"bufio"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/samber/lo"
	xmlparser "github.com/tamerh/xml-stream-parser"

	"line-art-processing/internal/core"
)

// Elements whose path children are never rendered directly.
var skippedContainers = []string{"defs", "clipPath", "mask", "symbol", "pattern", "marker"}

// LoadShape reads and parses an SVG file.
func LoadShape(path string, mode ParseMode) (*Shape, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithMessage(core.ErrMaskGeneration, err.Error())
	}
	defer f.Close()

	shape, err := ParseSVG(f, mode)
	if err != nil {
		return nil, errors.WithMessagef(err, "shape %s", path)
	}
	shape.source = path
	return shape, nil
}

// ParseSVG reads the natural size from viewBox (or width/height) of the
// outermost svg element and collects the d attribute of every path below
// it. Points are shifted so the viewBox origin maps to (0, 0). Transforms
// and presentation attributes are ignored.
func ParseSVG(r io.Reader, mode ParseMode) (*Shape, error) {
	br := bufio.NewReaderSize(r, 4096*4)
	parser := xmlparser.NewXMLParser(br, "svg")

	var root *xmlparser.XMLElement
	var streamErr error
	for element := range parser.Stream() {
		// Drain the stream so the parser goroutine can finish.
		if element.Err != nil {
			if streamErr == nil {
				streamErr = element.Err
			}
			continue
		}
		if root == nil {
			root = element
		}
	}
	if root == nil {
		if streamErr != nil {
			return nil, errors.WithMessagef(core.ErrMaskGeneration, "invalid svg document: %v", streamErr)
		}
		return nil, errors.WithMessage(core.ErrMaskGeneration, "no svg element found")
	}

	minX, minY, width, height, err := naturalBox(root.Attrs)
	if err != nil {
		return nil, err
	}

	var subpaths []Subpath
	for _, d := range collectPathData(*root) {
		var parsed []Subpath
		if mode == ModeRaw {
			parsed, err = ParseRaw(d)
		} else {
			parsed, err = ParsePath(d)
		}
		if err != nil {
			return nil, err
		}
		subpaths = append(subpaths, parsed...)
	}

	for _, sp := range subpaths {
		for i := range sp {
			sp[i].X -= minX
			sp[i].Y -= minY
		}
	}

	return NewShape(subpaths, width, height)
}

// ParseSVGString is ParseSVG over an in-memory document.
func ParseSVGString(doc string, mode ParseMode) (*Shape, error) {
	return ParseSVG(strings.NewReader(doc), mode)
}

func naturalBox(attrs map[string]string) (minX, minY, width, height float64, err error) {
	if viewBox, ok := attrs["viewBox"]; ok && strings.TrimSpace(viewBox) != "" {
		tokens, err := Tokenize(viewBox)
		if err != nil {
			return 0, 0, 0, 0, errors.WithMessagef(err, "viewBox %q", viewBox)
		}
		numbers := lo.FilterMap(tokens, func(tok Token, _ int) (float64, bool) {
			return tok.Value, tok.Kind == TokenNumber
		})
		if len(numbers) != 4 || len(tokens) != 4 {
			return 0, 0, 0, 0, errors.WithMessagef(core.ErrMaskGeneration, "viewBox needs 4 numbers: %q", viewBox)
		}
		if numbers[2] <= 0 || numbers[3] <= 0 {
			return 0, 0, 0, 0, errors.WithMessagef(core.ErrMaskGeneration, "viewBox has non-positive size: %q", viewBox)
		}
		return numbers[0], numbers[1], numbers[2], numbers[3], nil
	}

	w, okW := attrs["width"]
	h, okH := attrs["height"]
	if !okW || !okH {
		return 0, 0, 0, 0, errors.WithMessage(core.ErrMaskGeneration, "svg has neither viewBox nor width and height")
	}
	if width, err = parseLength(w); err != nil {
		return 0, 0, 0, 0, err
	}
	if height, err = parseLength(h); err != nil {
		return 0, 0, 0, 0, err
	}
	return 0, 0, width, height, nil
}

// parseLength accepts a plain number or a number with an absolute unit
// suffix. Percentages have no natural size and are rejected.
func parseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		return 0, errors.WithMessagef(core.ErrMaskGeneration, "relative length %q", s)
	}
	for _, unit := range []string{"px", "pt", "pc", "mm", "cm", "in"} {
		s = strings.TrimSuffix(s, unit)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || value <= 0 {
		return 0, errors.WithMessagef(core.ErrMaskGeneration, "invalid length %q", s)
	}
	return value, nil
}

// collectPathData walks the element tree depth first. Child groups are
// visited in name order since the parser does not keep sibling order
// across different element names.
func collectPathData(element xmlparser.XMLElement) []string {
	var data []string
	names := lo.Keys(element.Childs)
	slices.Sort(names)
	for _, name := range names {
		if slices.Contains(skippedContainers, name) {
			continue
		}
		for _, child := range element.Childs[name] {
			if name == "path" {
				if d := strings.TrimSpace(child.Attrs["d"]); d != "" {
					data = append(data, d)
				}
			}
			data = append(data, collectPathData(child)...)
		}
	}
	return data
}
