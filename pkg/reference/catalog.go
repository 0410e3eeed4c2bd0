package reference

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Range is the clinical reference band for one metric. Either bound may be
// absent: HDL has no upper bound, for example. Values outside the band are
// not errors, they are findings.
type Range struct {
	Min  *float64 `yaml:"min" json:"min"`
	Max  *float64 `yaml:"max" json:"max"`
	Unit string   `yaml:"unit" json:"unit"`
}

// Catalog maps metric names to their reference ranges. It is built once at
// startup and passed to the analytics components; nothing mutates it after
// Load returns.
type Catalog struct {
	Ranges map[string]Range `yaml:"ranges" json:"ranges"`
}

func Load(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.Ranges) == 0 {
		return Catalog{}, fmt.Errorf("reference range catalog empty")
	}
	return cat, nil
}

// Lookup returns the range for a metric. Matching is exact: metric names are
// canonical strings produced by extraction ("HbA1c", "Fasting Blood Sugar"),
// not free text.
func (c Catalog) Lookup(metric string) (Range, bool) {
	if c.Ranges == nil {
		return Range{}, false
	}
	r, ok := c.Ranges[metric]
	return r, ok
}

// Below returns true when v falls under the lower bound, if one exists.
func (r Range) Below(v float64) bool {
	return r.Min != nil && v < *r.Min
}

// Above returns true when v exceeds the upper bound, if one exists.
func (r Range) Above(v float64) bool {
	return r.Max != nil && v > *r.Max
}

// Outside returns true when v breaches either existing bound.
func (r Range) Outside(v float64) bool {
	return r.Below(v) || r.Above(v)
}

// String renders the band for insight copy, e.g. "90-120" or "40-".
func (r Range) String() string {
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("%g-%g", *r.Min, *r.Max)
	case r.Min != nil:
		return fmt.Sprintf("%g-", *r.Min)
	case r.Max != nil:
		return fmt.Sprintf("-%g", *r.Max)
	default:
		return ""
	}
}

// DefaultCatalog carries the built-in ranges for the lab metrics the
// extraction pipeline produces.
func DefaultCatalog() Catalog {
	return Catalog{Ranges: map[string]Range{
		"HbA1c":                    {Min: bound(4.0), Max: bound(5.6), Unit: "%"},
		"Fasting Blood Sugar":      {Min: bound(70), Max: bound(100), Unit: "mg/dL"},
		"Blood Pressure Systolic":  {Min: bound(90), Max: bound(120), Unit: "mmHg"},
		"Blood Pressure Diastolic": {Min: bound(60), Max: bound(80), Unit: "mmHg"},
		"Total Cholesterol":        {Min: bound(0), Max: bound(200), Unit: "mg/dL"},
		"HDL Cholesterol":          {Min: bound(40), Unit: "mg/dL"}, // higher is better
		"LDL Cholesterol":          {Min: bound(0), Max: bound(100), Unit: "mg/dL"},
		"Triglycerides":            {Min: bound(0), Max: bound(150), Unit: "mg/dL"},
		"Hemoglobin":               {Min: bound(12), Max: bound(17.5), Unit: "g/dL"},
		"WBC Count":                {Min: bound(4000), Max: bound(11000), Unit: "/cumm"},
		"Platelet Count":           {Min: bound(150000), Max: bound(450000), Unit: "/cumm"},
		"Creatinine":               {Min: bound(0.6), Max: bound(1.2), Unit: "mg/dL"},
		"ALT":                      {Min: bound(7), Max: bound(56), Unit: "U/L"},
		"AST":                      {Min: bound(10), Max: bound(40), Unit: "U/L"},
	}}
}

func bound(v float64) *float64 {
	return &v
}
