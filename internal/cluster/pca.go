package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/fastfish-data/merch.report/internal/monitoring"
)

// PCA projects the points onto their leading principal components and
// returns the projected points plus the fraction of variance explained by
// each kept component. The projection is also what the scatter reports
// plot, so the first two components are always available in the output
// when the input has at least two dimensions.
func PCA(points [][]float64, components int) ([][]float64, []float64, error) {
	n := len(points)
	if n == 0 {
		return nil, nil, fmt.Errorf("pca: no points")
	}
	d := len(points[0])
	if components < 1 {
		return nil, nil, fmt.Errorf("pca: components must be at least 1, got %d", components)
	}
	if components > d {
		components = d
	}
	if components > n {
		monitoring.Logf("pca: %d components exceeds %d samples, clamping", components, n)
		components = n
	}

	m := mat.NewDense(n, d, nil)
	for i, row := range points {
		if len(row) != d {
			return nil, nil, fmt.Errorf("pca: point %d has dimension %d, want %d", i, len(row), d)
		}
		m.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return nil, nil, fmt.Errorf("pca: decomposition failed")
	}

	var vec mat.Dense
	pc.VectorsTo(&vec)

	var proj mat.Dense
	proj.Mul(m, vec.Slice(0, d, 0, components))

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, components)
		mat.Row(out[i], i, &proj)
	}

	vars := pc.VarsTo(nil)
	var totalVar float64
	for _, v := range vars {
		totalVar += v
	}
	explained := make([]float64, components)
	if totalVar > 0 {
		for i := 0; i < components; i++ {
			explained[i] = vars[i] / totalVar
		}
	}

	return out, explained, nil
}
