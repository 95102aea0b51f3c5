// ==============================================================================================
// FILE: internal/engineopts/engineopts.go
// ==============================================================================================
// PACKAGE: engineopts
// PURPOSE: Engine-wide configuration, generalized from the constructor-option idiom
//          object.NewEnvironment/NewEnclosedEnvironment establishes for nested runtime state —
//          here realized as functional options over one Options value instead of a chain of
//          enclosing-environment constructors, since an engine run has no nesting to thread.
// ==============================================================================================

package engineopts

// Goal records spec.md §4.2's script/module distinction. internal/executor only logs it; the
// parser always starts from the grammar's single Program goal, so both goals parse identically.
type Goal int

const (
	GoalScript Goal = iota
	GoalModule
)

func (g Goal) String() string {
	if g == GoalModule {
		return "module"
	}
	return "script"
}

// Options is the engine's configuration record: everything a run(program_id, optimize) call and
// its surrounding driver need that is not itself program text.
type Options struct {
	Goal Goal

	// Optimize is forwarded to internal/jit's run(program_id, optimize) lowering, per spec.md
	// §4.6. With it off, every binary operator routes through the runtime-bridge coercion call
	// instead of the specialized Number+Number fast path.
	Optimize bool

	// ScopeCheckerEnabled turns on spec.md §9's scope-cleanup checker: internal/jit emits
	// push/pop scope-id instructions internal/runtime asserts are perfectly nested at execution
	// time, and internal/executor logs the finished scope tree at debug level.
	ScopeCheckerEnabled bool

	// ArenaHint seeds the runtime's global-binding map capacity up front (spec.md §9's "bump
	// allocator" sizing, applied to the one Go map standing in for it) instead of growing it one
	// rehash at a time.
	ArenaHint int
}

// Option mutates an Options value during construction.
type Option func(*Options)

// Default returns the engine's baseline configuration: script goal, optimization on, scope
// checker off.
func Default() Options {
	return Options{Goal: GoalScript, Optimize: true}
}

// New builds an Options from Default with opts applied in order.
func New(opts ...Option) Options {
	o := Default()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithGoal(g Goal) Option { return func(o *Options) { o.Goal = g } }

func WithOptimize(v bool) Option { return func(o *Options) { o.Optimize = v } }

func WithScopeCheckerEnabled(v bool) Option { return func(o *Options) { o.ScopeCheckerEnabled = v } }

func WithArenaHint(n int) Option { return func(o *Options) { o.ArenaHint = n } }
