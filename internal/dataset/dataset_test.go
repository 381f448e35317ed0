package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-sod/tiebreak/internal/geom"
)

const vertebralARFF = `% vertebral column, two classes
@relation column_2C_weka

@attribute pelvic_incidence numeric
@attribute pelvic_tilt numeric
@attribute lumbar_lordosis_angle numeric
@attribute sacral_slope numeric
@attribute pelvic_radius numeric
@attribute degree_spondylolisthesis numeric
@attribute class {Abnormal,Normal}

@data
63.0278175,22.55258597,39.60911701,40.47523153,98.67291675,-0.254399986,Abnormal
39.05695098,10.06099147,25.01537822,28.99595951,114.4054254,4.564258645,Abnormal
68.83202098,22.21848205,50.09219357,46.61353893,105.9851355,-3.530317314,Abnormal
47.90356517,13.61668819,36,34.28687698,117.4490622,-4.245395422,Normal
`

const numericOnlyARFF = `@relation numbers
@attribute a numeric
@attribute b numeric
@data
1,2
3,4
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.arff")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	ds, err := Load(writeFile(t, vertebralARFF))
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if ds.Relation != "column_2C_weka" {
		t.Errorf("relation got: %q, expected: %q", ds.Relation, "column_2C_weka")
	}
	if ds.Dimensions() != 6 {
		t.Fatalf("dimensions got: %d, expected: 6 (%v)", ds.Dimensions(), ds.Attributes)
	}
	if ds.Attributes[4] != "pelvic_radius" {
		t.Errorf("attribute 4 got: %q, expected: pelvic_radius", ds.Attributes[4])
	}
	if len(ds.Classes) != 2 || ds.Classes[0] != "Abnormal" || ds.Classes[1] != "Normal" {
		t.Errorf("classes got: %v, expected: [Abnormal Normal]", ds.Classes)
	}
	if ds.Len() != 4 {
		t.Fatalf("rows got: %d, expected: 4", ds.Len())
	}
	first := ds.Observations[0]
	if first.ID != 1 || first.Label != "Abnormal" {
		t.Errorf("first observation got: %s", spew.Sdump(first))
	}
	if math.Abs(first.Values[0]-63.0278175) > 1e-9 {
		t.Errorf("first value got: %v, expected: 63.0278175", first.Values[0])
	}
	if last := ds.Observations[3]; last.ID != 4 || last.Label != "Normal" {
		t.Errorf("last observation got: %s", spew.Sdump(last))
	}
	counts := ds.ClassCounts()
	if counts["Abnormal"] != 3 || counts["Normal"] != 1 {
		t.Errorf("class counts got: %v", counts)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		expected error
	}{
		{
			name:     "missing_file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.arff") },
			expected: os.ErrNotExist,
		},
		{
			name:     "no_class",
			path:     func(t *testing.T) string { return writeFile(t, numericOnlyARFF) },
			expected: ErrNoClass,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(test.path(t))
			if !errors.Is(err, test.expected) {
				t.Errorf("load error got: %v, expected: %v", err, test.expected)
			}
		})
	}
}

func TestLoad_AttributeTypes(t *testing.T) {
	const mixed = `@relation mixed
@ATTRIBUTE count INTEGER
@attribute ratio REAL
@attribute angle Numeric
@attribute class {Abnormal,Normal}
@data
3,0.5,12.25,Normal
7,1.5,-4,Abnormal
`
	ds, err := Load(writeFile(t, mixed))
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	expected := []string{"count", "ratio", "angle"}
	if !reflect.DeepEqual(ds.Attributes, expected) {
		t.Errorf("attributes got: %v, expected: %v", ds.Attributes, expected)
	}
	if got := ds.Observations[1].Values; !reflect.DeepEqual(got, geom.Point{7, 1.5, -4}) {
		t.Errorf("second observation got: %v, expected: [7 1.5 -4]", got)
	}
}

func TestRealAttributes(t *testing.T) {
	in := "@relation r\n@attribute a numeric\n@attribute b integer\n@attribute c {x,y}\n@data\n1,2,x\n"
	expected := "@relation r\n@attribute a real\n@attribute b real\n@attribute c {x,y}\n@data\n1,2,x\n"
	if got := string(realAttributes([]byte(in))); got != expected {
		t.Errorf("rewritten header got: %q, expected: %q", got, expected)
	}
	if got := relationOf([]byte(in)); got != "r" {
		t.Errorf("relation got: %q, expected: %q", got, "r")
	}
}

func sample() *Dataset {
	return &Dataset{
		Relation:   "sample",
		Attributes: []string{"a", "b", "c"},
		Classes:    []string{"Abnormal", "Normal"},
		Observations: []Observation{
			{ID: 1, Values: geom.Point{0, 10, 5}, Label: "Abnormal"},
			{ID: 2, Values: geom.Point{5, 20, 5}, Label: "Normal"},
			{ID: 3, Values: geom.Point{10, 30, 5}, Label: "Abnormal"},
		},
	}
}

func TestDataset_Project(t *testing.T) {
	ds := sample()
	out, err := ds.Project("c", "a")
	if err != nil {
		t.Fatalf("unexpected project error: %v", err)
	}
	if !reflect.DeepEqual(out.Observations[1].Values, geom.Point{5, 5}) {
		t.Errorf("projected values got: %v, expected: [5 5]", out.Observations[1].Values)
	}
	if out.Attributes[0] != "c" || out.Attributes[1] != "a" {
		t.Errorf("projected attributes got: %v", out.Attributes)
	}
	out.Observations[0].Values[0] = 99
	if ds.Observations[0].Values[2] != 5 {
		t.Errorf("projection must not alias the source")
	}

	if _, err := ds.Project("missing"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("project of an unknown feature got: %v, expected: %v", err, ErrUnknownFeature)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		method   NormalizeMethod
		expected []geom.Point
	}{
		{
			name:     "minmax",
			method:   NormalizeMinMax,
			expected: []geom.Point{{0, 0, 0}, {0.5, 0.5, 0}, {1, 1, 0}},
		},
		{
			name:     "zscore",
			method:   "zscore",
			expected: []geom.Point{{-1, -1, 0}, {0, 0, 0}, {1, 1, 0}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ds := sample()
			out, scaler, err := Normalize(ds, test.method)
			if err != nil {
				t.Fatalf("unexpected normalize error: %v", err)
			}
			for i, o := range out.Observations {
				for j := range o.Values {
					if math.Abs(o.Values[j]-test.expected[i][j]) > 1e-12 {
						t.Errorf("row %d got: %v, expected: %v", i, o.Values, test.expected[i])
						break
					}
				}
			}
			if ds.Observations[1].Values[0] != 5 {
				t.Errorf("normalize must not modify the source dataset")
			}

			got, err := scaler.ApplyNamed(map[string]float64{"a": 5, "b": 20, "c": 1})
			if err != nil {
				t.Fatalf("unexpected apply error: %v", err)
			}
			if math.Abs(got[0]-test.expected[1][0]) > 1e-12 || got[2] != 0 {
				t.Errorf("apply named got: %v", got)
			}
			if _, err := scaler.ApplyNamed(map[string]float64{"a": 1}); err == nil {
				t.Errorf("missing measurements must be rejected")
			}
		})
	}

	if _, _, err := Normalize(sample(), "LOG"); err == nil {
		t.Errorf("unknown method must be rejected")
	}
}

func TestSplit(t *testing.T) {
	ds := &Dataset{Attributes: []string{"a"}, Classes: []string{"x"}}
	for i := 0; i < 300; i++ {
		ds.Observations = append(ds.Observations, Observation{ID: i + 1, Values: geom.Point{float64(i)}, Label: "x"})
	}

	p, err := Split(ds, 1234, 0.67)
	if err != nil {
		t.Fatalf("unexpected split error: %v", err)
	}
	if len(p.Train)+len(p.Test) != ds.Len() {
		t.Errorf("split must be exhaustive, got %d + %d", len(p.Train), len(p.Test))
	}
	side := p.IsTrain()
	if len(side) != ds.Len() {
		t.Errorf("split must be disjoint, got %d distinct ids", len(side))
	}
	if len(p.Train) < 150 || len(p.Train) > 250 {
		t.Errorf("train size %d is far from the requested fraction", len(p.Train))
	}

	again, _ := Split(ds, 1234, 0.67)
	if len(again.Train) != len(p.Train) {
		t.Fatalf("same seed must give the same split")
	}
	for i := range again.Train {
		if again.Train[i].ID != p.Train[i].ID {
			t.Fatalf("same seed must give the same split, differs at %d", i)
		}
	}

	for _, frac := range []float64{0, 1, -0.5, math.NaN()} {
		if _, err := Split(ds, 1, frac); err == nil {
			t.Errorf("fraction %v must be rejected", frac)
		}
	}

	single := &Dataset{Observations: ds.Observations[:1]}
	if _, err := Split(single, 1, 0.5); !errors.Is(err, ErrEmptyPartition) {
		t.Errorf("split of one row got: %v, expected: %v", err, ErrEmptyPartition)
	}
}
