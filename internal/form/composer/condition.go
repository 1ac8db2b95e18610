/*
 * Copyright (c) 2025, Feathery, Inc. (https://feathery.io).
 *
 * Feathery, Inc. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package composer

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// ConditionEnvFields is the environment key exposing field values to
// condition expressions.
const ConditionEnvFields = "fields"

// ConditionEnvTrigger is the environment key exposing trigger metadata to
// condition expressions.
const ConditionEnvTrigger = "trigger"

// ConditionEnvRepeatIndex is the environment key exposing the repeat index to
// hide-rule expressions.
const ConditionEnvRepeatIndex = "repeatIndex"

// CompileCondition compiles a boolean predicate over field values and trigger
// metadata, and returns the set of field keys the expression references.
func CompileCondition(expression string) (*vm.Program, []string, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile condition %q: %w", expression, err)
	}

	fieldKeys, err := referencedFieldKeys(expression)
	if err != nil {
		return nil, nil, err
	}
	return program, fieldKeys, nil
}

// EvalCondition runs a compiled predicate against the given environment.
func EvalCondition(program *vm.Program, env map[string]interface{}) (bool, error) {
	output, err := vm.Run(program, env)
	if err != nil {
		return false, err
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not evaluate to a boolean")
	}
	return result, nil
}

// referencedFieldKeys re-parses the expression and collects the string keys
// accessed on the fields environment value.
func referencedFieldKeys(expression string) ([]string, error) {
	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to parse condition %q: %w", expression, err)
	}

	collector := &fieldKeyCollector{keys: make(map[string]bool)}
	ast.Walk(&tree.Node, collector)

	keys := make([]string, 0, len(collector.keys))
	for key := range collector.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// fieldKeyCollector records member accesses of the form fields.key and
// fields["key"].
type fieldKeyCollector struct {
	keys map[string]bool
}

func (c *fieldKeyCollector) Visit(node *ast.Node) {
	member, ok := (*node).(*ast.MemberNode)
	if !ok {
		return
	}
	base, ok := member.Node.(*ast.IdentifierNode)
	if !ok || base.Value != ConditionEnvFields {
		return
	}
	if property, ok := member.Property.(*ast.StringNode); ok {
		c.keys[property.Value] = true
	}
}
