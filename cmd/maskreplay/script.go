package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/d1alecttt/mini-app/internal/editor"
	"github.com/d1alecttt/mini-app/pkg/geometry"

	"gopkg.in/yaml.v3"
)

// Script is a recorded editing session. Points are in view coordinates,
// which equal raster coordinates until a pinch step changes the view.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one action. Exactly one of Points, Undo, Tool, Pinch or
// ResetBrush is set; Thickness may accompany Points or stand alone.
type Step struct {
	Thickness  float64      `yaml:"thickness,omitempty"`
	Points     [][2]float64 `yaml:"points,omitempty"`
	Undo       bool         `yaml:"undo,omitempty"`
	Tool       string       `yaml:"tool,omitempty"`
	Pinch      *Pinch       `yaml:"pinch,omitempty"`
	ResetBrush bool         `yaml:"resetBrush,omitempty"`
}

// Pinch moves touch points From onto To.
type Pinch struct {
	From [][2]float64 `yaml:"from"`
	To   [][2]float64 `yaml:"to"`
}

// ParseScript decodes and validates a YAML script.
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

func (st Step) validate() error {
	actions := 0
	for _, set := range []bool{len(st.Points) > 0, st.Undo, st.Tool != "", st.Pinch != nil, st.ResetBrush} {
		if set {
			actions++
		}
	}
	switch {
	case actions > 1:
		return errors.New("more than one action")
	case actions == 0 && st.Thickness == 0:
		return errors.New("empty step")
	case st.Tool != "" && st.Tool != "draw" && st.Tool != "pan":
		return fmt.Errorf("unknown tool %q", st.Tool)
	case st.Pinch != nil && len(st.Pinch.From) != len(st.Pinch.To):
		return errors.New("pinch point counts differ")
	}
	return nil
}

// Apply replays the steps against s.
func (sc *Script) Apply(s *editor.Session) error {
	for i, st := range sc.Steps {
		if st.Thickness != 0 {
			s.SetBrushThickness(st.Thickness)
		}
		switch {
		case len(st.Points) > 0:
			pts := toPoints(st.Points)
			s.PointerDown(pts[0])
			for _, p := range pts[1:] {
				s.PointerMove(p)
			}
			s.PointerUp()
		case st.Undo:
			s.Undo()
		case st.Tool == "pan":
			s.SetTool(editor.ToolPan)
		case st.Tool == "draw":
			s.SetTool(editor.ToolDraw)
		case st.Pinch != nil:
			if err := s.Pinch(toPoints(st.Pinch.From), toPoints(st.Pinch.To)); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		case st.ResetBrush:
			s.ResetBrush()
		}
	}
	return nil
}

func toPoints(raw [][2]float64) []geometry.Point2D {
	pts := make([]geometry.Point2D, len(raw))
	for i, p := range raw {
		pts[i] = geometry.NewPoint2D(p[0], p[1])
	}
	return pts
}
