package gdocai

import (
	"math"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/scanforge/pkg/layout"
)

// bboxFromLayout returns the axis-aligned box around a bounding polygon in
// page pixels. Layouts without usable vertices return layout.NoBBox.
func bboxFromLayout(lay *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) layout.BBox {
	if lay == nil || lay.BoundingPoly == nil {
		return layout.NoBBox
	}
	poly := lay.BoundingPoly

	var xs, ys []float64
	switch {
	case len(poly.Vertices) > 0:
		for _, v := range poly.Vertices {
			xs = append(xs, float64(v.X))
			ys = append(ys, float64(v.Y))
		}
	case len(poly.NormalizedVertices) > 0 && dim != nil && dim.Width > 0 && dim.Height > 0:
		for _, v := range poly.NormalizedVertices {
			xs = append(xs, float64(v.X)*float64(dim.Width))
			ys = append(ys, float64(v.Y)*float64(dim.Height))
		}
	default:
		return layout.NoBBox
	}

	box := layout.BBox{X1: math.Inf(1), Y1: math.Inf(1), X2: math.Inf(-1), Y2: math.Inf(-1)}
	for i := range xs {
		box.X1 = math.Min(box.X1, xs[i])
		box.Y1 = math.Min(box.Y1, ys[i])
		box.X2 = math.Max(box.X2, xs[i])
		box.Y2 = math.Max(box.Y2, ys[i])
	}
	return layout.NewBBox(box.X1, box.Y1, box.X2, box.Y2)
}
