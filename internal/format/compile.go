package format

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue/cuecontext"
)

//go:embed default.cue
var defaultCUE []byte

var (
	defaultOnce    sync.Once
	defaultProfile *Profile
	defaultErr     error
)

// Default returns the embedded profile describing the single observed
// replay layout. The result is compiled once and shared; treat it as
// read-only.
func Default() (*Profile, error) {
	defaultOnce.Do(func() {
		defaultProfile, defaultErr = compile(nil)
	})
	return defaultProfile, defaultErr
}

// MustDefault is Default for contexts where the embedded profile failing
// to compile is a build defect, not a runtime condition.
func MustDefault() *Profile {
	p, err := Default()
	if err != nil {
		panic(err)
	}
	return p
}

// Load compiles the profile at path, unified over the embedded default.
// The override only needs to restate fields that differ from the default;
// CUE unification rejects contradictions rather than silently picking one.
func Load(path string) (*Profile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load format profile: %w", err)
	}
	return compile(src)
}

// compile evaluates the default CUE document, optionally unified with an
// override, validates it, and decodes it into a Profile.
func compile(override []byte) (*Profile, error) {
	ctx := cuecontext.New()

	v := ctx.CompileBytes(defaultCUE)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile default profile: %w", err)
	}

	if len(override) > 0 {
		o := ctx.CompileBytes(override)
		if err := o.Err(); err != nil {
			return nil, fmt.Errorf("compile profile override: %w", err)
		}
		v = v.Unify(o)
	}

	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("validate profile: %w", err)
	}

	var raw rawProfile
	if err := v.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return raw.build()
}
