package dataset

import (
	"bytes"
	_ "embed"
)

//go:embed testdata/Iris.csv
var irisCSV []byte

// Iris loads the bundled 150-row Iris flower table.
func Iris() (*Handle, error) {
	return Load(bytes.NewReader(irisCSV), WithSource("Iris.csv"))
}
