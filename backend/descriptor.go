package backend

import (
	"fmt"
	"strings"
	"time"
)

// Descriptor kinds.
const (
	KindStdio = "stdio"
	KindLocal = "local"
)

// Descriptor identifies how to reach one tool-providing backend.
type Descriptor struct {
	// Name is the unique backend name. It prefixes every qualified tool
	// name exposed to the model.
	Name string

	// Kind selects the Connector. Empty means KindStdio.
	Kind string

	// Command and Args launch the backend process (stdio kind).
	Command string
	Args    []string

	// Env holds extra environment variables for the process, appended to
	// the parent environment.
	Env map[string]string

	// Dir is the working directory of the process.
	Dir string

	// Timeout bounds connect, list and call operations.
	// Zero means DefaultTimeout.
	Timeout time.Duration
}

// EffectiveKind returns Kind, defaulting to KindStdio.
func (d Descriptor) EffectiveKind() string {
	if d.Kind == "" {
		return KindStdio
	}
	return d.Kind
}

// EffectiveTimeout returns Timeout, defaulting to DefaultTimeout.
func (d Descriptor) EffectiveTimeout() time.Duration {
	if d.Timeout <= 0 {
		return DefaultTimeout
	}
	return d.Timeout
}

// Environ renders Env as KEY=VALUE pairs.
func (d Descriptor) Environ() []string {
	if len(d.Env) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.Env))
	for k, v := range d.Env {
		out = append(out, k+"="+v)
	}
	return out
}

// Validate checks the descriptor for required fields.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("backend name is required")
	}
	if d.EffectiveKind() == KindStdio && strings.TrimSpace(d.Command) == "" {
		return fmt.Errorf("backend %s: command is required for %s backends", d.Name, KindStdio)
	}
	return nil
}
