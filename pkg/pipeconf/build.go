package pipeconf

import (
	"fmt"

	"github.com/pipevine/pipevine/pkg/pipe"
)

// Build constructs a pipeline from a parsed config, resolving stage names
// through the registry. Stage timeouts from the config are applied with
// pipe.WithTimeout; the configured cancel behavior is set on the result.
func Build[T any](reg *Registry[T], cfg *PipelineConfig) (*pipe.Pipeline[T], error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeconf: config is nil")
	}

	behavior, err := pipe.ParseCancelBehavior(cfg.OnCancel)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", cfg.Name, err)
	}

	p := pipe.New[T](cfg.Name)
	if err := p.SetCancelBehavior(behavior); err != nil {
		return nil, err
	}

	for i, ref := range cfg.Stages {
		if ref.Name == "" {
			return nil, fmt.Errorf("pipeline %q: stage %d: name required", cfg.Name, i)
		}
		stage, ok := reg.Get(ref.Name)
		if !ok {
			return nil, fmt.Errorf("pipeline %q: stage %d: %q not in registry", cfg.Name, i, ref.Name)
		}
		p.AddStage(pipe.WithTimeout(stage, ref.Timeout.Duration()))
	}
	return p, nil
}

// BuildAll builds one pipeline per entry in multi. When a pipeline config's
// Name is empty the map key is used as the pipeline name.
func BuildAll[T any](reg *Registry[T], multi *MultiPipelineConfig) (map[string]*pipe.Pipeline[T], error) {
	if multi == nil {
		return nil, fmt.Errorf("pipeconf: multi config is nil")
	}
	out := make(map[string]*pipe.Pipeline[T], len(multi.Pipelines))
	for name, cfg := range multi.Pipelines {
		if cfg.Name == "" {
			cfg.Name = name
		}
		p, err := Build(reg, &cfg)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}
