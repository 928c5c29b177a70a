/*
DESCRIPTION
  plot.go renders a per-POC timeline of delta_qp and pyramid_layer to a PNG,
  for offline tuning of the ALTR/AREF/APQ heuristics against a recorded run.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package diagnostics

import (
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ausocean/aenc/frame"
)

// PlotTimeline renders a two-panel PNG at path: delta_qp and pyramid_layer,
// each against POC, in emission order. frames must be non-empty.
func PlotTimeline(frames []frame.Output, path string, width, height vg.Length) error {
	deltaQP := plot.New()
	deltaQP.Title.Text = "delta_qp by POC"
	deltaQP.X.Label.Text = "poc"
	deltaQP.Y.Label.Text = "delta_qp"

	layer := plot.New()
	layer.Title.Text = "pyramid_layer by POC"
	layer.X.Label.Text = "poc"
	layer.Y.Label.Text = "pyramid_layer"

	qpPts := make(plotter.XYs, len(frames))
	layerPts := make(plotter.XYs, len(frames))
	for i, f := range frames {
		qpPts[i].X = float64(f.POC)
		qpPts[i].Y = float64(f.DeltaQP)
		layerPts[i].X = float64(f.POC)
		layerPts[i].Y = float64(f.PyramidLayer)
	}

	qpLine, err := plotter.NewLine(qpPts)
	if err != nil {
		return err
	}
	deltaQP.Add(qpLine)

	layerLine, err := plotter.NewLine(layerPts)
	if err != nil {
		return err
	}
	layer.Add(layerLine)

	img := vgimg.New(width, height)
	dc := draw.New(img)
	top := draw.Crop(dc, 0, 0, height/2, 0)
	bottom := draw.Crop(dc, 0, 0, 0, -height/2)
	deltaQP.Draw(top)
	layer.Draw(bottom)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	_, err = png.WriteTo(f)
	return err
}
