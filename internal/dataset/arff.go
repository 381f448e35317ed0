package dataset

import (
	"fmt"
	"os"
	"strings"

	"github.com/sjwhitworth/golearn/base"
)

const classAttributeName = "class"

// Load reads an ARFF file. Numeric attributes become the observation values;
// the nominal attribute named "class", or else the last nominal attribute,
// becomes the label.
func Load(path string) (ds *Dataset, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open dataset: %w", err)
	}

	// golearn only knows the real attribute type
	tmp, err := os.CreateTemp("", "tiebreak-*.arff")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary dataset: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(realAttributes(data)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("unable to write temporary dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("unable to write temporary dataset: %w", err)
	}

	// golearn panics on malformed headers
	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, fmt.Errorf("unable to parse arff file %s: %v", path, r)
		}
	}()

	inst, err := base.ParseDenseARFFToInstances(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("unable to parse arff file %s: %w", path, err)
	}

	return fromInstances(inst, relationOf(data))
}

// realAttributes rewrites numeric and integer attribute declarations of the
// header to real. Data lines are left untouched.
func realAttributes(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.EqualFold(fields[0], "@data") {
			break
		}
		if len(fields) != 3 || !strings.EqualFold(fields[0], "@attribute") {
			continue
		}
		switch strings.ToLower(fields[2]) {
		case "numeric", "integer":
			lines[i] = fields[0] + " " + fields[1] + " real"
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

func fromInstances(inst *base.DenseInstances, relation string) (*Dataset, error) {
	attrs := inst.AllAttributes()

	classIdx := -1
	for i, a := range attrs {
		if _, ok := a.(*base.CategoricalAttribute); !ok {
			continue
		}
		if strings.EqualFold(a.GetName(), classAttributeName) {
			classIdx = i
			break
		}
		classIdx = i
	}
	if classIdx < 0 {
		return nil, ErrNoClass
	}
	classAttr := attrs[classIdx].(*base.CategoricalAttribute)
	classSpec, err := inst.GetAttribute(classAttr)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve class attribute: %w", err)
	}

	var (
		features []*base.FloatAttribute
		specs    []base.AttributeSpec
		names    []string
	)
	for i, a := range attrs {
		if i == classIdx {
			continue
		}
		fa, ok := a.(*base.FloatAttribute)
		if !ok {
			return nil, fmt.Errorf("attribute %s is not numeric", a.GetName())
		}
		spec, err := inst.GetAttribute(fa)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve attribute %s: %w", a.GetName(), err)
		}
		features = append(features, fa)
		specs = append(specs, spec)
		names = append(names, fa.GetName())
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("dataset has no numeric attributes")
	}

	_, rows := inst.Size()
	ds := &Dataset{
		Relation:     relation,
		Attributes:   names,
		Classes:      append([]string(nil), classAttr.GetValues()...),
		Observations: make([]Observation, rows),
	}
	for row := 0; row < rows; row++ {
		values := make([]float64, len(features))
		for i, fa := range features {
			values[i] = fa.GetFloatFromSysVal(inst.Get(specs[i], row))
		}
		ds.Observations[row] = Observation{
			ID:     row + 1,
			Values: values,
			Label:  classAttr.GetStringFromSysVal(inst.Get(classSpec, row)),
		}
	}
	return ds, nil
}

// relationOf finds the @relation line; golearn does not keep it.
func relationOf(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.EqualFold(fields[0], "@relation") {
			return strings.Trim(strings.Join(fields[1:], " "), `'"`)
		}
	}
	return ""
}
