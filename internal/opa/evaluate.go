// Package opa evaluates optional rego rules that extend the built-in domain deny-lists.
package opa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// DomainPolicyQuery is the rule a domain policy file must define.
const DomainPolicyQuery = "data.email.domain.decision"

const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// ErrUndefined is returned by Evaluate when the query produced no value.
var ErrUndefined = errors.New("policy result undefined")

// PreparedPolicy holds a compiled policy ready for evaluation
type PreparedPolicy struct {
	query rego.PreparedEvalQuery
}

// PreparePolicy compiles a policy and query for later evaluation.
func PreparePolicy(ctx context.Context, policy string, query string) (*PreparedPolicy, error) {
	r := rego.New(
		rego.Query(query),
		rego.Module("policy.rego", policy),
		rego.SetRegoVersion(ast.RegoV1),
	)

	pq, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy: %w", err)
	}

	return &PreparedPolicy{query: pq}, nil
}

// Evaluate runs the prepared policy against the given input and returns the result as type T
func Evaluate[T any](ctx context.Context, pp *PreparedPolicy, input any) (*T, error) {
	rs, err := pp.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, ErrUndefined
	}

	return decode[T](rs[0].Expressions[0].Value)
}

func decode[T any](raw any) (*T, error) {
	bs, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy result: %w", err)
	}

	var out T
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy result: %w", err)
	}

	return &out, nil
}

func ReadPolicy(path string) (string, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy file: %w", err)
	}

	return string(p), nil
}

type DomainPolicyInput struct {
	Email  string `json:"email"`
	Domain string `json:"domain"`
}

type DomainDecision struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// DomainPolicy is a compiled policy deciding whether a domain may be used.
type DomainPolicy struct {
	pp *PreparedPolicy
}

func NewDomainPolicy(ctx context.Context, policy string) (*DomainPolicy, error) {
	pp, err := PreparePolicy(ctx, policy, DomainPolicyQuery)
	if err != nil {
		return nil, err
	}
	return &DomainPolicy{pp: pp}, nil
}

func LoadDomainPolicy(ctx context.Context, path string) (*DomainPolicy, error) {
	policy, err := ReadPolicy(path)
	if err != nil {
		return nil, err
	}
	return NewDomainPolicy(ctx, policy)
}

// Decide evaluates the policy for one address. An undefined decision is
// treated as allow.
func (p *DomainPolicy) Decide(ctx context.Context, email, domain string) (*DomainDecision, error) {
	d, err := Evaluate[DomainDecision](ctx, p.pp, DomainPolicyInput{Email: email, Domain: domain})
	if errors.Is(err, ErrUndefined) {
		return &DomainDecision{Action: ActionAllow}, nil
	}
	if err != nil {
		return nil, err
	}
	if d.Action == "" {
		d.Action = ActionAllow
	}
	return d, nil
}
