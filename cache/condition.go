package cache

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// ConditionEvaluator decides whether a policy's condition expression holds
// for a specific invocation. The dispatcher only consults it for non-empty
// expressions.
type ConditionEvaluator interface {
	Evaluate(expr string, method string, args []any) (bool, error)
}

// celEvaluator evaluates condition expressions with CEL. Two variables are
// in scope: `method` (the registered method name) and `args` (the
// intercepted argument values). Expressions compile once and the resulting
// program is reused for every invocation.
//
//	args[0] != ""            // skip caching for empty keys
//	size(args[1]) <= 100     // only cache small batches
type celEvaluator struct {
	env      *cel.Env
	programs *xsync.MapOf[string, cel.Program]
}

// NewCELEvaluator builds the default condition evaluator.
func NewCELEvaluator() (ConditionEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("method", cel.StringType),
		cel.Variable("args", cel.ListType(cel.DynType)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating CEL environment")
	}
	return &celEvaluator{
		env:      env,
		programs: xsync.NewMapOf[string, cel.Program](),
	}, nil
}

func (e *celEvaluator) Evaluate(expr string, method string, args []any) (bool, error) {
	prg, ok := e.programs.Load(expr)
	if !ok {
		var err error
		prg, err = e.compile(expr)
		if err != nil {
			return false, err
		}
		// Losing the race just means both goroutines compiled the same
		// expression; either program works.
		prg, _ = e.programs.LoadOrStore(expr, prg)
	}

	out, _, err := prg.Eval(map[string]any{
		"method": method,
		"args":   args,
	})
	if err != nil {
		return false, errors.Wrapf(err, "evaluating condition %q", expr)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("condition %q is not boolean", expr)
	}
	return result, nil
}

func (e *celEvaluator) compile(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "compiling condition %q", expr)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "building program for condition %q", expr)
	}
	return prg, nil
}
