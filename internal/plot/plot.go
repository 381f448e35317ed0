// Package plot draws the partition overview and one picture per tied test
// observation in the plane of the two selected features.
package plot

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/go-sod/tiebreak/pkg/rworker"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var ErrNotPlanar = errors.New("plots need exactly two features")

const size = 6 * vg.Inch

// Frame is what every picture shares: the feature names of the two axes, the
// class order that fixes colours, and the training observations.
type Frame struct {
	Features []string
	Classes  []string
	Train    []dataset.Observation
}

func (f Frame) validate() error {
	if len(f.Features) != 2 {
		return fmt.Errorf("%w: got %d", ErrNotPlanar, len(f.Features))
	}
	return nil
}

// Tie is one tied test observation with the predictions of both models.
type Tie struct {
	Query dataset.Observation
	KNN   classifier.Prediction
	KKNN  classifier.Prediction
}

// Overview plots train points as filled dots and test points as rings, one
// colour per class.
func Overview(path string, frame Frame, test []dataset.Observation) error {
	if err := frame.validate(); err != nil {
		return err
	}
	p := newPlot(frame, "train (dots) and test (rings)")
	if err := addClasses(p, frame, frame.Train, draw.CircleGlyph{}, "train"); err != nil {
		return err
	}
	if err := addClasses(p, frame, test, draw.RingGlyph{}, "test"); err != nil {
		return err
	}
	if err := p.Save(size, size, path); err != nil {
		return fmt.Errorf("unable to save overview %s: %w", path, err)
	}
	return nil
}

// Draw plots the training points, the query as a cross and the voters of the
// unweighted model joined to it by lines.
func Draw(path string, frame Frame, tie Tie) error {
	if err := frame.validate(); err != nil {
		return err
	}
	title := fmt.Sprintf("obs %d (%s): knn %s %.2f, kknn %s %.2f",
		tie.Query.ID, tie.Query.Label,
		tie.KNN.Label, tie.KNN.Prob,
		tie.KKNN.Label, tie.KKNN.Prob,
	)
	p := newPlot(frame, title)
	if err := addClasses(p, frame, frame.Train, draw.CircleGlyph{}, "train"); err != nil {
		return err
	}

	byID := make(map[int]dataset.Observation, len(frame.Train))
	for _, o := range frame.Train {
		byID[o.ID] = o
	}
	qx, qy := tie.Query.Values[0], tie.Query.Values[1]
	voters := make(plotter.XYs, 0, len(tie.KNN.Neighbors))
	for _, n := range tie.KNN.Neighbors {
		o, ok := byID[n.ID]
		if !ok {
			return fmt.Errorf("neighbor %d of observation %d is not a training point", n.ID, tie.Query.ID)
		}
		voters = append(voters, plotter.XY{X: o.Values[0], Y: o.Values[1]})
		l, err := plotter.NewLine(plotter.XYs{{X: qx, Y: qy}, {X: o.Values[0], Y: o.Values[1]}})
		if err != nil {
			return fmt.Errorf("unable to draw neighbor line: %w", err)
		}
		l.LineStyle.Width = vg.Points(0.5)
		l.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(l)
	}
	if len(voters) > 0 {
		s, err := plotter.NewScatter(voters)
		if err != nil {
			return fmt.Errorf("unable to draw voters: %w", err)
		}
		s.GlyphStyle.Shape = draw.RingGlyph{}
		s.GlyphStyle.Radius = vg.Points(6)
		s.GlyphStyle.Color = color.Black
		p.Add(s)
		p.Legend.Add("voters", s)
	}

	q, err := plotter.NewScatter(plotter.XYs{{X: qx, Y: qy}})
	if err != nil {
		return fmt.Errorf("unable to draw query: %w", err)
	}
	q.GlyphStyle.Shape = draw.CrossGlyph{}
	q.GlyphStyle.Radius = vg.Points(6)
	q.GlyphStyle.Color = color.Black
	p.Add(q)
	p.Legend.Add(fmt.Sprintf("obs %d", tie.Query.ID), q)

	if err := p.Save(size, size, path); err != nil {
		return fmt.Errorf("unable to save tie plot %s: %w", path, err)
	}
	return nil
}

// DrawAll renders at most limit tie plots into dir, concurrency at a time, and
// returns the written paths in the order of ties.
func DrawAll(ctx context.Context, dir string, frame Frame, ties []Tie, limit, concurrency int) ([]string, error) {
	if err := frame.validate(); err != nil {
		return nil, err
	}
	if limit >= 0 && len(ties) > limit {
		logging.FromContext(ctx).Infof("plotting %d of %d tied observations", limit, len(ties))
		ties = ties[:limit]
	}
	var (
		paths = make([]string, len(ties))
		pool  = rworker.New(concurrency)
	)
	for i := range ties {
		i := i
		paths[i] = filepath.Join(dir, fmt.Sprintf("tie_%03d.png", ties[i].Query.ID))
		pool.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return Draw(paths[i], frame, ties[i])
		})
	}
	if err := pool.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func newPlot(frame Frame, title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = frame.Features[0]
	p.Y.Label.Text = frame.Features[1]
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func addClasses(p *plot.Plot, frame Frame, obs []dataset.Observation, shape draw.GlyphDrawer, kind string) error {
	for i, class := range frame.Classes {
		var xys plotter.XYs
		for _, o := range obs {
			if o.Label == class {
				xys = append(xys, plotter.XY{X: o.Values[0], Y: o.Values[1]})
			}
		}
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("unable to draw %s %s points: %w", kind, class, err)
		}
		s.GlyphStyle.Shape = shape
		s.GlyphStyle.Color = plotutil.Color(i)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("%s %s", kind, class), s)
	}
	return nil
}
