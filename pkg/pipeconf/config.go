package pipeconf

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// PipelineConfig is the root structure for one pipeline definition.
type PipelineConfig struct {
	Name string `yaml:"name"`

	// OnCancel names the cancel behavior: "uncancellable" (the default),
	// "discard" or "return".
	OnCancel string `yaml:"on_cancel"`

	Stages []StageRef `yaml:"stages"`
}

// StageRef is a single stage entry: either a plain name or name plus options.
// In YAML a stage can be written as:
//   - fetch
//   - name: parse
//     timeout: 60s
type StageRef struct {
	Name string `yaml:"name"`

	// Timeout bounds the stage's context deadline, e.g. "60s". Zero means
	// no deadline.
	Timeout Duration `yaml:"timeout"`
}

// UnmarshalYAML allows a stage to be a string (stage name only) or a struct.
func (s *StageRef) UnmarshalYAML(value *yaml.Node) error {
	var nameOnly string
	if err := value.Decode(&nameOnly); err == nil {
		s.Name = nameOnly
		return nil
	}
	type raw StageRef
	return value.Decode((*raw)(s))
}

// Duration is a time.Duration that unmarshals from YAML strings such as
// "60s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the standard time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Parse parses YAML bytes into a single PipelineConfig.
func Parse(data []byte) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MultiPipelineConfig is the root structure for a file defining several
// pipelines under a top-level "pipelines" map.
type MultiPipelineConfig struct {
	Pipelines map[string]PipelineConfig `yaml:"pipelines"`
}

// ParseMulti parses YAML bytes containing a "pipelines" map from name to
// pipeline config. Example:
//
//	pipelines:
//	  ingest:
//	    stages: [fetch, parse]
//	  notify:
//	    on_cancel: discard
//	    stages: [validate, send]
func ParseMulti(data []byte) (*MultiPipelineConfig, error) {
	var cfg MultiPipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
