// Package scene reads scene files and loads them into the world.
//
// A scene file holds one record per line. Values are separated by
// whitespace or commas, '#' starts a comment and blank lines are skipped.
//
//	x y width height angle   static obstacle
//	x y angle                robot start pose
//	a b c d                  decoration, drawn by renderers, ignored by physics
package scene

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/models"
)

// Obstacle is a static rectangle centred at (X, Y), rotated by Angle degrees.
type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`
}

// Decoration is a four-value record kept only for renderers.
type Decoration [4]float64

// Scene is one parsed scene file.
type Scene struct {
	Obstacles   []Obstacle     `json:"obstacles"`
	Start       *geometry.Pose `json:"start,omitempty"`
	Decorations []Decoration   `json:"decorations,omitempty"`

	// Fingerprint is the xxhash of the source bytes.
	Fingerprint uint64 `json:"fingerprint"`
}

// Default is the scene used when no file is configured.
func Default() *Scene {
	start := geometry.NewPose(250, 250, 0)
	return &Scene{
		Obstacles: []Obstacle{{X: 300, Y: 100, Width: 150, Height: 30, Angle: 20}},
		Start:     &start,
	}
}

// Parse reads records from data. If several start poses are given the
// last one wins.
func Parse(data []byte) (*Scene, error) {
	s := &Scene{Fingerprint: xxhash.Sum64(data)}
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		values, err := parseLine(sc.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		switch len(values) {
		case 0:
		case 3:
			start := geometry.NewPose(values[0], values[1], values[2])
			s.Start = &start
		case 4:
			s.Decorations = append(s.Decorations, Decoration{values[0], values[1], values[2], values[3]})
		case 5:
			s.Obstacles = append(s.Obstacles, Obstacle{
				X: values[0], Y: values[1], Width: values[2], Height: values[3], Angle: values[4],
			})
		default:
			return nil, errors.Wrapf(ErrInvalidRecord, "line %d: %d values", line, len(values))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan scene")
	}
	return s, nil
}

// Read parses everything r yields.
func Read(r io.Reader) (*Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read scene")
	}
	return Parse(data)
}

// Load parses the file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load scene %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return s, nil
}

func parseLine(text string) ([]float64, error) {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(ErrInvalidRecord, "value %q", f)
		}
		values[i] = v
	}
	return values, nil
}

// Bodies builds the obstacle bodies, numbered from 1 in file order.
func (s *Scene) Bodies() ([]*models.Body, error) {
	out := make([]*models.Body, 0, len(s.Obstacles))
	for i, o := range s.Obstacles {
		b, err := models.NewObstacle(models.EntityID(i+1), o.X, o.Y, o.Width, o.Height, o.Angle)
		if err != nil {
			return nil, errors.Wrapf(err, "obstacle %d", i+1)
		}
		out = append(out, b)
	}
	return out, nil
}

// Target is what a scene is loaded into.
type Target interface {
	SetObstacles(bodies []*models.Body) error
	SetStartPose(x, y, angle float64) error
}

// Apply replaces t's obstacles with the scene's, then restarts t at the
// scene's start pose if it has one. Nothing is applied when an obstacle is
// invalid.
func Apply(t Target, s *Scene) error {
	bodies, err := s.Bodies()
	if err != nil {
		return err
	}
	if err = t.SetObstacles(bodies); err != nil {
		return err
	}
	if s.Start != nil {
		p := s.Start
		if err = t.SetStartPose(p.Position.X, p.Position.Y, p.Heading); err != nil {
			return err
		}
	}
	return nil
}
