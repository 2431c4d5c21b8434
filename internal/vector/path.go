package vector

import (
	"math"

	"emperror.dev/errors"

	"line-art-processing/internal/core"
)

// Point is a coordinate in the shape's natural space.
type Point struct {
	X, Y float64
}

// Subpath is a closed polygon approximation of one path contour.
type Subpath []Point

// DefaultCurveSegments is the number of line segments each curve or arc is
// flattened into.
const DefaultCurveSegments = 16

// ParseMode selects how path data is turned into polygons.
type ParseMode int

const (
	// ModeFlatten interprets every command and flattens curves and arcs.
	ModeFlatten ParseMode = iota
	// ModeRaw ignores commands and pairs consecutive numbers as (x, y).
	// Curves are approximated by their raw control and end coordinates.
	// Single-argument commands (H, V) and the flag arguments of arcs shift
	// the pairing; a trailing unpaired number is dropped.
	ModeRaw
)

func (m ParseMode) String() string {
	if m == ModeRaw {
		return "raw"
	}
	return "flatten"
}

// ParsePath flattens path data with DefaultCurveSegments per curve.
func ParsePath(d string) ([]Subpath, error) {
	return ParsePathSegments(d, DefaultCurveSegments)
}

// ParsePathSegments flattens path data. Every moveto starts a new subpath
// and every closepath ends one.
func ParsePathSegments(d string, segments int) ([]Subpath, error) {
	tokens, err := Tokenize(d)
	if err != nil {
		return nil, err
	}
	if segments < 1 {
		segments = 1
	}

	p := &pathParser{tokens: tokens, segments: segments}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.subpaths, nil
}

// ParseRaw extracts every number in d and pairs them as (x, y) into a single
// subpath, ignoring the command letters. With an odd count the last number
// is dropped.
func ParseRaw(d string) ([]Subpath, error) {
	tokens, err := Tokenize(d)
	if err != nil {
		return nil, err
	}

	numbers := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == TokenNumber {
			numbers = append(numbers, tok.Value)
		}
	}
	// An unpaired trailing number, as left by H, V or arc arguments, has
	// no partner coordinate and is dropped.
	numbers = numbers[:len(numbers)&^1]
	if len(numbers) == 0 {
		return nil, nil
	}

	subpath := make(Subpath, 0, len(numbers)/2)
	for i := 0; i < len(numbers); i += 2 {
		subpath = append(subpath, Point{X: numbers[i], Y: numbers[i+1]})
	}
	return []Subpath{subpath}, nil
}

var argCounts = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7, 'Z': 0,
}

type pathParser struct {
	tokens   []Token
	pos      int
	segments int

	subpaths []Subpath
	current  Subpath

	cur, start Point
	ctrl       Point // last control point for S/T reflection
	prev       byte  // previous upper-case command
}

func (p *pathParser) run() error {
	if len(p.tokens) == 0 {
		return nil
	}
	if p.tokens[0].Kind != TokenCommand {
		return errors.WithMessage(core.ErrMaskGeneration, "path data must start with a command")
	}
	if upper(p.tokens[0].Command) != 'M' {
		return errors.WithMessagef(core.ErrMaskGeneration, "path data must start with moveto, got %q", p.tokens[0].Command)
	}

	var cmd byte
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Kind == TokenCommand {
			cmd = tok.Command
			p.pos++
			if upper(cmd) == 'Z' {
				p.closePath()
				continue
			}
		} else if upper(cmd) == 'Z' {
			return errors.WithMessagef(core.ErrMaskGeneration, "number after closepath at offset %d", tok.Offset)
		}

		args, err := p.take(argCounts[upper(cmd)])
		if err != nil {
			return err
		}
		p.apply(cmd, args)

		// Extra coordinate pairs after a moveto are implicit linetos.
		switch cmd {
		case 'M':
			cmd = 'L'
		case 'm':
			cmd = 'l'
		}
	}

	p.flush()
	return nil
}

func (p *pathParser) take(n int) ([]float64, error) {
	if p.pos+n > len(p.tokens) {
		return nil, errors.WithMessage(core.ErrMaskGeneration, "path data ends in the middle of a command")
	}
	args := make([]float64, n)
	for i := 0; i < n; i++ {
		tok := p.tokens[p.pos+i]
		if tok.Kind != TokenNumber {
			return nil, errors.WithMessagef(core.ErrMaskGeneration, "expected number at offset %d, got %q", tok.Offset, tok.Command)
		}
		args[i] = tok.Value
	}
	p.pos += n
	return args, nil
}

func (p *pathParser) apply(cmd byte, a []float64) {
	relative := cmd >= 'a' && cmd <= 'z'
	abs := func(x, y float64) Point {
		if relative {
			return Point{X: p.cur.X + x, Y: p.cur.Y + y}
		}
		return Point{X: x, Y: y}
	}

	switch upper(cmd) {
	case 'M':
		p.flush()
		p.cur = abs(a[0], a[1])
		p.start = p.cur
		p.current = Subpath{p.cur}
	case 'L':
		p.lineTo(abs(a[0], a[1]))
	case 'H':
		x := a[0]
		if relative {
			x += p.cur.X
		}
		p.lineTo(Point{X: x, Y: p.cur.Y})
	case 'V':
		y := a[0]
		if relative {
			y += p.cur.Y
		}
		p.lineTo(Point{X: p.cur.X, Y: y})
	case 'C':
		p.cubicTo(abs(a[0], a[1]), abs(a[2], a[3]), abs(a[4], a[5]))
	case 'S':
		c1 := p.cur
		if p.prev == 'C' || p.prev == 'S' {
			c1 = reflect(p.ctrl, p.cur)
		}
		p.cubicTo(c1, abs(a[0], a[1]), abs(a[2], a[3]))
	case 'Q':
		p.quadTo(abs(a[0], a[1]), abs(a[2], a[3]))
	case 'T':
		c := p.cur
		if p.prev == 'Q' || p.prev == 'T' {
			c = reflect(p.ctrl, p.cur)
		}
		p.quadTo(c, abs(a[0], a[1]))
	case 'A':
		end := abs(a[5], a[6])
		for _, pt := range arcPoints(p.cur, a[0], a[1], a[2], a[3] != 0, a[4] != 0, end, p.segments) {
			p.appendPoint(pt)
		}
		p.cur = end
	}
	p.prev = upper(cmd)
}

func (p *pathParser) lineTo(pt Point) {
	p.appendPoint(pt)
	p.cur = pt
}

func (p *pathParser) cubicTo(c1, c2, end Point) {
	start := p.cur
	for i := 1; i <= p.segments; i++ {
		t := float64(i) / float64(p.segments)
		mt := 1 - t
		p.appendPoint(Point{
			X: mt*mt*mt*start.X + 3*mt*mt*t*c1.X + 3*mt*t*t*c2.X + t*t*t*end.X,
			Y: mt*mt*mt*start.Y + 3*mt*mt*t*c1.Y + 3*mt*t*t*c2.Y + t*t*t*end.Y,
		})
	}
	p.cur = end
	p.ctrl = c2
}

func (p *pathParser) quadTo(c, end Point) {
	start := p.cur
	for i := 1; i <= p.segments; i++ {
		t := float64(i) / float64(p.segments)
		mt := 1 - t
		p.appendPoint(Point{
			X: mt*mt*start.X + 2*mt*t*c.X + t*t*end.X,
			Y: mt*mt*start.Y + 2*mt*t*c.Y + t*t*end.Y,
		})
	}
	p.cur = end
	p.ctrl = c
}

// appendPoint adds pt to the open subpath, reopening one at the last
// subpath start after a closepath.
func (p *pathParser) appendPoint(pt Point) {
	if len(p.current) == 0 {
		p.current = Subpath{p.cur}
	}
	p.current = append(p.current, pt)
}

func (p *pathParser) closePath() {
	p.flush()
	p.cur = p.start
	p.prev = 'Z'
}

func (p *pathParser) flush() {
	if len(p.current) > 0 {
		p.subpaths = append(p.subpaths, p.current)
	}
	p.current = nil
}

func reflect(ctrl, about Point) Point {
	return Point{X: 2*about.X - ctrl.X, Y: 2*about.Y - ctrl.Y}
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// arcPoints flattens an elliptical arc from p0 to p1 using the endpoint to
// center conversion of SVG 1.1 appendix F.6.5. The result excludes p0 and
// ends exactly at p1.
func arcPoints(p0 Point, rx, ry, rotation float64, largeArc, sweep bool, p1 Point, segments int) []Point {
	if p0 == p1 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []Point{p1}
	}

	phi := rotation * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx2 := (p0.X - p1.X) / 2
	dy2 := (p0.Y - p1.Y) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	// Scale radii up when they cannot span the endpoints.
	if lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den > 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if largeArc == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (p0.X+p1.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p0.Y+p1.Y)/2

	ux, uy := (x1p-cxp)/rx, (y1p-cyp)/ry
	vx, vy := (-x1p-cxp)/rx, (-y1p-cyp)/ry
	theta1 := math.Atan2(uy, ux)
	delta := math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	points := make([]Point, 0, segments)
	for i := 1; i < segments; i++ {
		t := theta1 + delta*float64(i)/float64(segments)
		cosT, sinT := math.Cos(t), math.Sin(t)
		points = append(points, Point{
			X: cosPhi*rx*cosT - sinPhi*ry*sinT + cx,
			Y: sinPhi*rx*cosT + cosPhi*ry*sinT + cy,
		})
	}
	return append(points, p1)
}
