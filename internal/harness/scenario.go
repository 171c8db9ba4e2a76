package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one scripted run: a patch, a frame schedule, the
// external inputs fed to each frame, and the edits installed along the
// way.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed
	// by it.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Patch is the path to the CUE patch file, relative to the
	// scenario file.
	Patch string `yaml:"patch"`

	// Frames is the number of frames to advance.
	Frames int `yaml:"frames"`

	// Start is the timestamp of the first frame.
	Start float64 `yaml:"start,omitempty"`

	// DT is the frame period in seconds.
	DT float64 `yaml:"dt"`

	// Inputs are external input samples, applied at exactly the frame
	// they name. Frames with no entry sample every input as absent.
	Inputs []InputStep `yaml:"inputs,omitempty"`

	// Edits are patch swaps. Each edit compiles its patch and installs
	// it before the named frame advances.
	Edits []EditStep `yaml:"edits,omitempty"`

	// Tokens are fixed revision tokens, consumed in install order. One
	// is needed for the initial install plus one per edit; when empty,
	// deterministic defaults are generated.
	Tokens []string `yaml:"tokens,omitempty"`
}

// InputStep provides one external input's lanes for one frame.
type InputStep struct {
	Frame  int       `yaml:"frame"`
	Name   string    `yaml:"name"`
	Values []float64 `yaml:"values"`
}

// EditStep swaps in a new patch before the named frame.
type EditStep struct {
	Frame int    `yaml:"frame"`
	Patch string `yaml:"patch"`
}

// LoadScenario reads and parses a scenario YAML file. Patch paths are
// resolved relative to the scenario file's directory. Unknown fields
// are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	base := filepath.Dir(path)
	if sc.Patch != "" && !filepath.IsAbs(sc.Patch) {
		sc.Patch = filepath.Join(base, sc.Patch)
	}
	for i := range sc.Edits {
		if p := sc.Edits[i].Patch; p != "" && !filepath.IsAbs(p) {
			sc.Edits[i].Patch = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func validateScenario(sc *Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if sc.Patch == "" {
		return fmt.Errorf("patch is required")
	}
	if _, err := os.Stat(sc.Patch); os.IsNotExist(err) {
		return fmt.Errorf("patch file not found: %s", sc.Patch)
	}
	if sc.Frames <= 0 {
		return fmt.Errorf("frames must be positive")
	}
	if sc.DT <= 0 {
		return fmt.Errorf("dt must be positive")
	}
	for i, in := range sc.Inputs {
		if in.Name == "" {
			return fmt.Errorf("inputs[%d]: name is required", i)
		}
		if in.Frame < 0 || in.Frame >= sc.Frames {
			return fmt.Errorf("inputs[%d]: frame %d outside run of %d frames", i, in.Frame, sc.Frames)
		}
		if len(in.Values) == 0 {
			return fmt.Errorf("inputs[%d]: values is required", i)
		}
	}
	for i, ed := range sc.Edits {
		if ed.Patch == "" {
			return fmt.Errorf("edits[%d]: patch is required", i)
		}
		if _, err := os.Stat(ed.Patch); os.IsNotExist(err) {
			return fmt.Errorf("edits[%d]: patch file not found: %s", i, ed.Patch)
		}
		if ed.Frame <= 0 || ed.Frame >= sc.Frames {
			return fmt.Errorf("edits[%d]: frame %d outside run of %d frames", i, ed.Frame, sc.Frames)
		}
	}
	if len(sc.Tokens) > 0 && len(sc.Tokens) < 1+len(sc.Edits) {
		return fmt.Errorf("tokens: need %d, got %d", 1+len(sc.Edits), len(sc.Tokens))
	}
	return nil
}
