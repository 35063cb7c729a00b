//go:build withcv
// +build withcv

/*
DESCRIPTION
  match.go scores a vehicle template against a search window using
  normalised template matching on colour, and optionally on edges.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lane

import (
	"image"

	"gocv.io/x/gocv"
)

// matcher finds the best position of a template in a search window.
type matcher struct {
	edges bool // Also match gradient magnitude images.

	result gocv.Mat
	noMask gocv.Mat

	// Edge images and scratch.
	searchEdges gocv.Mat
	tplEdges    gocv.Mat
	gray        gocv.Mat
	dx          gocv.Mat
	dy          gocv.Mat
	adx         gocv.Mat
	ady         gocv.Mat
}

func newMatcher(edges bool) *matcher {
	return &matcher{
		edges:       edges,
		result:      gocv.NewMat(),
		noMask:      gocv.NewMat(),
		searchEdges: gocv.NewMat(),
		tplEdges:    gocv.NewMat(),
		gray:        gocv.NewMat(),
		dx:          gocv.NewMat(),
		dy:          gocv.NewMat(),
		adx:         gocv.NewMat(),
		ady:         gocv.NewMat(),
	}
}

// match returns the peak normalised correlation coefficient of tpl within
// search and the offset of the peak from the window origin. With edges on,
// the edge modality is used when it gives the higher peak.
func (m *matcher) match(search, tpl gocv.Mat) (float64, image.Point) {
	score, loc := m.peak(search, tpl)
	if !m.edges {
		return score, loc
	}

	m.edgeImage(search, &m.searchEdges)
	m.edgeImage(tpl, &m.tplEdges)
	es, el := m.peak(m.searchEdges, m.tplEdges)
	if es > score {
		return es, el
	}
	return score, loc
}

func (m *matcher) peak(search, tpl gocv.Mat) (float64, image.Point) {
	gocv.MatchTemplate(search, tpl, &m.result, gocv.TmCcoeffNormed, m.noMask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(m.result)
	return float64(maxVal), maxLoc
}

// edgeImage writes the Sobel gradient magnitude of src to dst.
func (m *matcher) edgeImage(src gocv.Mat, dst *gocv.Mat) {
	gocv.CvtColor(src, &m.gray, gocv.ColorBGRToGray)
	gocv.Sobel(m.gray, &m.dx, gocv.MatTypeCV16S, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(m.gray, &m.dy, gocv.MatTypeCV16S, 0, 1, 3, 1, 0, gocv.BorderDefault)
	gocv.ConvertScaleAbs(m.dx, &m.adx, 1, 0)
	gocv.ConvertScaleAbs(m.dy, &m.ady, 1, 0)
	gocv.AddWeighted(m.adx, 0.5, m.ady, 0.5, 0, dst)
}

func (m *matcher) close() error {
	for _, mat := range []*gocv.Mat{&m.result, &m.noMask, &m.searchEdges, &m.tplEdges, &m.gray, &m.dx, &m.dy, &m.adx, &m.ady} {
		mat.Close()
	}
	return nil
}
