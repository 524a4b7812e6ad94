package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/models"
)

// ThresholdPoint is the long-run outcome for one parameter value.
type ThresholdPoint struct {
	Param float64
	R0    float64
	Peak  float64
	Final float64
}

// ThresholdDiagram sweeps a parameter and records the peak and final value
// of one compartment. The model's parameter is restored afterwards.
func ThresholdDiagram(
	ctx context.Context,
	m models.Model,
	integ dynamo.Integrator,
	paramName string,
	paramMin, paramMax float64,
	paramSteps int,
	compartment string,
	cfg dynamo.Config,
) ([]ThresholdPoint, error) {
	original, ok := m.GetParams()[paramName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, paramName)
	}
	idx := indexOf(m.Compartments(), compartment)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCompartment, compartment)
	}
	defer m.SetParam(paramName, original)

	if paramSteps < 2 {
		paramSteps = 2
	}
	stepSize := (paramMax - paramMin) / float64(paramSteps-1)

	points := make([]ThresholdPoint, 0, paramSteps)
	for i := 0; i < paramSteps; i++ {
		param := paramMin + float64(i)*stepSize
		if err := m.SetParam(paramName, param); err != nil {
			return points, err
		}

		result, err := dynamo.New(m, integ).Run(ctx, m.DefaultState(), cfg)
		if err != nil {
			return points, err
		}
		if len(result.Errors) > 0 {
			return points, result.Errors[0]
		}

		p := ThresholdPoint{
			Param: param,
			Peak:  FindPeak(result.Series(idx), result.Times).Value,
			Final: result.Final()[idx],
		}
		if r, ok := m.(models.Reproducing); ok {
			p.R0 = r.BasicReproduction()
		}
		points = append(points, p)
	}
	return points, nil
}

// EpidemicThreshold returns the first swept value at which R0 rises from
// below 1 to at least 1. It reports false when the sweep never crosses,
// including sweeps that start above threshold.
func EpidemicThreshold(points []ThresholdPoint) (float64, bool) {
	for k := 1; k < len(points); k++ {
		if points[k-1].R0 < 1 && points[k].R0 >= 1 {
			return points[k].Param, true
		}
	}
	return 0, false
}

// ThresholdToASCII plots final values against the swept parameter.
func ThresholdToASCII(data []ThresholdPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := data[0].Final, data[0].Final
	for _, p := range data {
		if p.Final < minVal {
			minVal = p.Final
		}
		if p.Final > maxVal {
			maxVal = p.Final
		}
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := blank(width, height)
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		row := height - 1 - int((p.Final-minVal)/(maxVal-minVal)*float64(height-1))
		if row >= 0 && row < height {
			canvas[row][col] = '•'
		}
	}
	return render(canvas)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func blank(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}
	return canvas
}

func render(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
