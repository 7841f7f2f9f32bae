package schema

import (
	"reflect"
	"testing"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// First rows of the Iris CSV, five per species.
var irisCSV = []byte(`Id,SepalLengthCm,SepalWidthCm,PetalLengthCm,PetalWidthCm,Species
1,5.1,3.5,1.4,0.2,Iris-setosa
2,4.9,3.0,1.4,0.2,Iris-setosa
3,4.7,3.2,1.3,0.2,Iris-setosa
4,4.6,3.1,1.5,0.2,Iris-setosa
5,5.0,3.6,1.4,0.2,Iris-setosa
51,7.0,3.2,4.7,1.4,Iris-versicolor
52,6.4,3.2,4.5,1.5,Iris-versicolor
53,6.9,3.1,4.9,1.5,Iris-versicolor
54,5.5,2.3,4.0,1.3,Iris-versicolor
55,6.5,2.8,4.6,1.5,Iris-versicolor
101,6.3,3.3,6.0,2.5,Iris-virginica
102,5.8,2.7,5.1,1.9,Iris-virginica
103,7.1,3.0,5.9,2.1,Iris-virginica
104,6.3,2.9,5.6,1.8,Iris-virginica
105,6.5,3.0,5.8,2.2,Iris-virginica
`)

// Palmer penguins sample: two categorical columns, integer measurements.
var penguinsCSV = []byte(`rowid,species,island,bill_length_mm,bill_depth_mm,flipper_length_mm,body_mass_g,sex
1,Adelie,Torgersen,39.1,18.7,181,3750,male
2,Adelie,Torgersen,39.5,17.4,186,3800,female
3,Adelie,Torgersen,40.3,18.0,195,3250,female
4,Adelie,Biscoe,36.7,19.3,193,3450,female
5,Gentoo,Biscoe,46.1,13.2,211,4500,female
6,Gentoo,Biscoe,50.0,16.3,230,5700,male
7,Gentoo,Biscoe,48.7,14.1,210,4450,female
8,Gentoo,Biscoe,50.0,15.2,218,5700,male
9,Chinstrap,Dream,46.5,17.9,192,3500,female
10,Chinstrap,Dream,50.0,19.5,196,3900,male
11,Chinstrap,Dream,51.3,19.2,193,3650,male
12,Chinstrap,Dream,45.4,18.7,188,3525,female
`)

func TestDiscoverIrisCSV(t *testing.T) {
	config, err := DiscoverFromCSV(irisCSV, DiscoverOptions{Name: "Iris"})
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	if config.Identifier != "Id" {
		t.Errorf("Identifier = %q, want Id", config.Identifier)
	}
	if config.Label.Key != "Species" {
		t.Errorf("Label = %q, want Species", config.Label.Key)
	}

	want := []string{"SepalLengthCm", "SepalWidthCm", "PetalLengthCm", "PetalWidthCm"}
	if got := config.MeasureKeys(); !reflect.DeepEqual(got, want) {
		t.Errorf("MeasureKeys = %v, want %v", got, want)
	}

	// Same shape as the hand-written schema, modulo descriptions
	iris := Iris()
	for i, m := range config.Measures {
		if m != iris.Measures[i] {
			t.Errorf("measure %d = %+v, want %+v", i, m, iris.Measures[i])
		}
	}
	if !reflect.DeepEqual(config.Label.Values, iris.Label.Values) {
		t.Errorf("label values = %v, want %v", config.Label.Values, iris.Label.Values)
	}
	if len(config.SkippedColumns) != 0 {
		t.Errorf("nothing should be skipped, got %+v", config.SkippedColumns)
	}
}

func TestDiscoverPenguinsCSV(t *testing.T) {
	config, err := DiscoverFromCSV(penguinsCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	if config.Identifier != "rowid" {
		t.Errorf("Identifier = %q, want rowid", config.Identifier)
	}
	// sex has the fewest distinct values
	if config.Label.Key != "sex" {
		t.Errorf("Label = %q, want sex", config.Label.Key)
	}

	measKeys := config.MeasureKeys()
	assertContains(t, measKeys, "bill_length_mm", "bill length should be a measure")
	assertContains(t, measKeys, "flipper_length_mm", "integer flipper length should be a measure")
	assertContains(t, measKeys, "body_mass_g", "integer body mass should be a measure")

	for _, m := range config.Measures {
		if m.Key == "body_mass_g" {
			if m.DisplayName != "Body Mass" || m.Unit != "g" {
				t.Errorf("body_mass_g display = %q unit = %q", m.DisplayName, m.Unit)
			}
		}
	}

	skipped := make([]string, len(config.SkippedColumns))
	for i, s := range config.SkippedColumns {
		skipped[i] = s.Column
		if !s.Recoverable {
			t.Errorf("%s should be recoverable as a label", s.Column)
		}
	}
	assertContains(t, skipped, "species", "species is an additional categorical column")
	assertContains(t, skipped, "island", "island is an additional categorical column")
}

func TestDiscoverForcedLabel(t *testing.T) {
	config, err := DiscoverFromCSV(penguinsCSV, DiscoverOptions{Label: "species"})
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	if config.Label.Key != "species" {
		t.Fatalf("Label = %q, want species", config.Label.Key)
	}
	want := []string{"Adelie", "Gentoo", "Chinstrap"}
	if !reflect.DeepEqual(config.Label.Values, want) {
		t.Errorf("label values = %v, want first-seen order %v", config.Label.Values, want)
	}

	if _, err := DiscoverFromCSV(penguinsCSV, DiscoverOptions{Label: "colour"}); err == nil {
		t.Error("unknown forced label should fail")
	}
}

func TestDiscoverRejectsEmpty(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no input", []byte("")},
		{"header only", []byte("a,b,c\n")},
		{"no numbers", []byte("a,b\nx,y\nz,w\n")},
	}
	for _, tt := range tests {
		if _, err := DiscoverFromCSV(tt.data); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SepalLengthCm", "Sepal Length Cm"},
		{"petal_width", "Petal Width"},
		{"Species", "Species"},
		{"ID", "ID"},
		{"flipper-length", "Flipper Length"},
	}

	for _, tt := range tests {
		got := toDisplayName(tt.input)
		if got != tt.expected {
			t.Errorf("toDisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSplitUnit(t *testing.T) {
	tests := []struct {
		input, name, unit string
	}{
		{"SepalLengthCm", "Sepal Length", "cm"},
		{"body_mass_g", "Body Mass", "g"},
		{"Time Spent (hours)", "Time Spent", "h"},
		{"Species", "Species", ""},
	}
	for _, tt := range tests {
		name, unit := splitUnit(tt.input)
		if name != tt.name || unit != tt.unit {
			t.Errorf("splitUnit(%q) = (%q, %q), want (%q, %q)", tt.input, name, unit, tt.name, tt.unit)
		}
	}
}

func TestConfigHelpers(t *testing.T) {
	c := Iris()

	want := []string{"Id", "SepalLengthCm", "SepalWidthCm", "PetalLengthCm", "PetalWidthCm", "Species"}
	if got := c.RequiredColumns(); !reflect.DeepEqual(got, want) {
		t.Errorf("RequiredColumns = %v, want %v", got, want)
	}
	if c.DisplayName("PetalWidthCm") != "Petal Width" {
		t.Errorf("DisplayName(PetalWidthCm) = %q", c.DisplayName("PetalWidthCm"))
	}
	if c.DisplayName("Id") != "Id" {
		t.Errorf("DisplayName falls back to the key")
	}
	if !c.AllowsLabel("Iris-virginica") || c.AllowsLabel("Iris-unknown") || c.AllowsLabel("") {
		t.Error("AllowsLabel mismatch")
	}
	if c.IsMeasure("Id") || c.IsMeasure("Species") {
		t.Error("Id and Species are not measures")
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func assertContains(t *testing.T, slice []string, item string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			return
		}
	}
	t.Errorf("%s: %q not found in %v", msg, item, slice)
}
