package analysis

import "github.com/san-kum/episim/internal/dynamo"

type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// GeneratePhasePortrait projects a recorded trajectory onto two
// compartments, e.g. S against I.
func GeneratePhasePortrait(result *dynamo.Result, xIdx, yIdx int) *PhasePortrait2D {
	if len(result.States) == 0 || xIdx < 0 || yIdx < 0 {
		return nil
	}
	if xIdx >= len(result.States[0]) || yIdx >= len(result.States[0]) {
		return nil
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, len(result.States)),
	}
	for _, x := range result.States {
		portrait.Points = append(portrait.Points, Point{X: x[xIdx], Y: x[yIdx]})
	}
	return portrait
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.05
	rangeX *= 1.1
	rangeY *= 1.1

	canvas := blank(width, height)
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// compartments are non-negative, so the axes sit on the lower left edge
	if minX <= 0 {
		col := int(-minX / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 {
		row := height - 1 - int(-minY/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	return render(canvas)
}

// Crossing is an upward passage of a compartment through a threshold.
type Crossing struct {
	Time  float64
	State dynamo.State
}

// Crossings records every sample where compartment idx rises through
// threshold, linearly interpolating the crossing time. In recurrent
// stochastic epidemics these mark the start of each outbreak.
func Crossings(result *dynamo.Result, idx int, threshold float64) []Crossing {
	out := make([]Crossing, 0)
	for k := 1; k < len(result.States); k++ {
		prev := result.States[k-1][idx]
		curr := result.States[k][idx]
		if prev < threshold && curr >= threshold {
			frac := (threshold - prev) / (curr - prev)
			t := result.Times[k-1] + frac*(result.Times[k]-result.Times[k-1])
			out = append(out, Crossing{Time: t, State: result.States[k].Clone()})
		}
	}
	return out
}
