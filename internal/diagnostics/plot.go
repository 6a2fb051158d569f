package diagnostics

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const plotSizeInches = 4

func constellationPlot(points []ConstellationPoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Prompt I/Q constellation"
	p.X.Label.Text = "I"
	p.Y.Label.Text = "Q"

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = pt.I
		xys[i].Y = pt.Q
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("constellation scatter: %w", err)
	}
	p.Add(scatter)
	return p, nil
}

func discriminatorPlot(title string, code, carrier []DiscriminatorSample) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "discriminator output"

	if len(code) > 0 {
		line, err := plotter.NewLine(samplesToXYs(code))
		if err != nil {
			return nil, fmt.Errorf("code discriminator line: %w", err)
		}
		p.Add(line)
		p.Legend.Add("code", line)
	}
	if len(carrier) > 0 {
		line, err := plotter.NewLine(samplesToXYs(carrier))
		if err != nil {
			return nil, fmt.Errorf("carrier discriminator line: %w", err)
		}
		p.Add(line)
		p.Legend.Add("carrier", line)
	}
	return p, nil
}

func samplesToXYs(s []DiscriminatorSample) plotter.XYs {
	xys := make(plotter.XYs, len(s))
	for i, v := range s {
		xys[i].X = v.TimeSeconds
		xys[i].Y = v.Value
	}
	return xys
}

func acquisitionSurfacePlot(a *AcquisitionSurface) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("PRN %02d acquisition surface", a.PRN)
	p.X.Label.Text = "code delay (chips)"
	p.Y.Label.Text = "Doppler (Hz)"

	grid := acquisitionGrid{a}
	heatmap := plotter.NewHeatMap(grid, palette.Heat(32, 1))
	p.Add(heatmap)
	return p, nil
}

// acquisitionGrid adapts AcquisitionSurface to plotter.GridXYZ.
type acquisitionGrid struct {
	s *AcquisitionSurface
}

func (g acquisitionGrid) Dims() (c, r int) {
	return len(g.s.CodeBinsChips), len(g.s.DopplerBinsHz)
}

func (g acquisitionGrid) X(c int) float64 { return g.s.CodeBinsChips[c] }
func (g acquisitionGrid) Y(r int) float64 { return g.s.DopplerBinsHz[r] }
func (g acquisitionGrid) Z(c, r int) float64 {
	return g.s.Magnitude[r][c]
}

func savePNG(p *plot.Plot, path string) error {
	if err := p.Save(plotSizeInches*vg.Inch, plotSizeInches*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
