package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/metrics"
)

// Operation types.
const (
	OperationQuery        = "query"
	OperationMutation     = "mutation"
	OperationSubscription = "subscription"
)

// Request is a GraphQL request as sent by clients over any transport.
type Request struct {
	Query         string                 `json:"query" form:"query"`
	OperationName string                 `json:"operationName" form:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Executor runs requests against the schema.
type Executor struct {
	schema graphql.Schema
}

// NewExecutor builds the schema around r.
func NewExecutor(r *Resolver) (*Executor, error) {
	schema, err := NewSchema(r)
	if err != nil {
		return nil, err
	}
	return &Executor{schema: schema}, nil
}

// Execute runs a query or mutation. ctx must carry a RequestContext.
func (e *Executor) Execute(ctx context.Context, req Request) *graphql.Result {
	opType, _ := OperationType(req.Query, req.OperationName)

	result := graphql.Do(graphql.Params{
		Schema:         e.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	observeResult(opType, result)
	return result
}

// Subscribe starts a subscription. The returned channel is closed when the
// stream ends or ctx is done; callers must drain it.
func (e *Executor) Subscribe(ctx context.Context, req Request) <-chan *graphql.Result {
	results := graphql.Subscribe(graphql.Params{
		Schema:         e.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	out := make(chan *graphql.Result)
	go func() {
		defer close(out)
		for result := range results {
			observeResult(OperationSubscription, result)
			select {
			case out <- result:
			case <-ctx.Done():
				// let the engine goroutine finish
				for range results {
				}
				return
			}
		}
	}()
	return out
}

func observeResult(opType string, result *graphql.Result) {
	if opType == "" {
		opType = "unknown"
	}
	outcome := "success"
	if result.HasErrors() {
		outcome = "error"
	}
	metrics.GraphQLOperations.WithLabelValues(opType, outcome).Inc()
}

// ErrorResult wraps a transport level failure in the response envelope.
func ErrorResult(err error) *graphql.Result {
	return &graphql.Result{
		Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)},
	}
}

var errNoOperation = errors.New("no operation found in document")

// OperationType parses query and returns the type of the operation that
// operationName selects, or of the only operation when the name is empty.
func OperationType(query, operationName string) (string, error) {
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{
			Body: []byte(query),
			Name: "GraphQL request",
		}),
	})
	if err != nil {
		return "", err
	}

	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName == "" {
			if found != nil {
				return "", fmt.Errorf("must provide operation name if query contains multiple operations")
			}
			found = op
			continue
		}
		if op.Name != nil && op.Name.Value == operationName {
			found = op
			break
		}
	}
	if found == nil {
		return "", errNoOperation
	}
	return found.Operation, nil
}
