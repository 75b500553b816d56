package calendar

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type tableFile struct {
	Departments []Department `yaml:"departments"`
}

// Decode reads a YAML department table:
//
//	departments:
//	  - name: VIP CALLS
//	    shifts:
//	      - {start: "08:00", end: "17:00"}
func Decode(r io.Reader) (*Calendar, error) {
	var tf tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("calendar: decode yaml: %w", err)
	}
	return New(tf.Departments)
}

// LoadFile builds the Calendar from path, or the default table when path is empty.
func LoadFile(path string) (*Calendar, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
