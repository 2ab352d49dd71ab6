// Package privacy decides whether a render request may run.
//
// A Policy is an ordered list of rules. Each rule returns one of the
// decision errors below, or nil which is the same as Skip. Evaluation
// stops at the first Allow or Deny; a policy where every rule skips
// allows the request.
package privacy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/dbscope/locator"
)

// Policy decision sentinel errors. Check them with errors.Is:
//
//	if errors.Is(err, privacy.Deny) { ... }
var (
	// Allow terminates the evaluation with an allow decision.
	Allow = errors.New("dbscope/privacy: allow rule")

	// Deny terminates the evaluation with a deny decision.
	Deny = errors.New("dbscope/privacy: deny rule")

	// Skip continues the evaluation with the next rule.
	Skip = errors.New("dbscope/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Request is a render about to run.
type Request struct {
	Locator locator.Locator
	// Type is the object type after alias resolution.
	Type    string
	Command string
}

// Rule decides on a request.
type Rule interface {
	EvalRender(context.Context, Request) error
}

// RuleFunc adapts a function to a Rule.
type RuleFunc func(context.Context, Request) error

// EvalRender calls f(ctx, r).
func (f RuleFunc) EvalRender(ctx context.Context, r Request) error {
	return f(ctx, r)
}

// AlwaysAllowRule returns a rule that always allows.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always denies.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalRender(context.Context, Request) error {
	return f.decision
}

// ContextRule creates a rule from a context evaluation function.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ Request) error {
		return eval(ctx)
	})
}

// DenyCommandRule denies requests running one of the commands.
func DenyCommandRule(cmds ...string) Rule {
	return RuleFunc(func(_ context.Context, r Request) error {
		if slices.Contains(cmds, r.Command) {
			return Denyf("dbscope/privacy: command %q is not allowed on %s", r.Command, r.Type)
		}
		return Skip
	})
}

// OnType evaluates rule only for requests of the given object types.
func OnType(rule Rule, types ...string) Rule {
	return RuleFunc(func(ctx context.Context, r Request) error {
		if slices.Contains(types, r.Type) {
			return rule.EvalRender(ctx, r)
		}
		return Skip
	})
}

// Policy is an ordered list of rules.
type Policy []Rule

// Eval evaluates the rules in order. A decision attached to ctx with
// DecisionContext takes precedence over the rules.
func (p Policy) Eval(ctx context.Context, r Request) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range p {
		switch decision := rule.EvalRender(ctx, r); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

type decisionCtxKey struct{}

// DecisionContext returns a copy of parent carrying a policy decision.
// Skip and nil decisions leave parent unchanged.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
// An Allow decision is reported as nil.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}
