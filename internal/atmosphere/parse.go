package atmosphere

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ParseWindFunction parses a "a,b,c;d,e,f;g,h,i" wind matrix and a
// "x,y,z" wind bias, the ServerConfig.WindMatrix/WindBias string
// formats from spec.md §6.
func ParseWindFunction(matrixStr, biasStr string) (*mat.Dense, r3.Vec, error) {
	rows := strings.Split(matrixStr, ";")
	if len(rows) != 3 {
		return nil, r3.Vec{}, fmt.Errorf("wind matrix must have 3 rows, got %d", len(rows))
	}
	vals := make([]float64, 0, 9)
	for _, row := range rows {
		cols := strings.Split(row, ",")
		if len(cols) != 3 {
			return nil, r3.Vec{}, fmt.Errorf("wind matrix row %q must have 3 components", row)
		}
		for _, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if err != nil {
				return nil, r3.Vec{}, fmt.Errorf("parse wind matrix component %q: %w", c, err)
			}
			vals = append(vals, v)
		}
	}
	matrix := mat.NewDense(3, 3, vals)

	biasParts := strings.Split(biasStr, ",")
	if len(biasParts) != 3 {
		return nil, r3.Vec{}, fmt.Errorf("wind bias must have 3 components, got %d", len(biasParts))
	}
	biasVals := make([]float64, 3)
	for i, p := range biasParts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, r3.Vec{}, fmt.Errorf("parse wind bias component %q: %w", p, err)
		}
		biasVals[i] = v
	}
	bias := r3.Vec{X: biasVals[0], Y: biasVals[1], Z: biasVals[2]}

	return matrix, bias, nil
}
