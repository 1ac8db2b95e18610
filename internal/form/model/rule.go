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

package model

import (
	"github.com/feathery-org/formflow/internal/form/constants"
)

// LogicRule is a user-authored, event-scoped script executed by the engine at
// defined lifecycle points. Rules are evaluated, never mutated, at runtime;
// disabled or invalid rules are filtered out by the composer before reaching
// the runner.
type LogicRule struct {
	// ID is the backend identifier of the rule.
	ID string
	// Name is the author-facing rule name used in error logs.
	Name string
	// TriggerEvent is the lifecycle event the rule attaches to.
	TriggerEvent constants.Event
	// Phase places an action-event rule before or after the chain.
	Phase constants.RulePhase
	// Code is the rule body executed in the sandbox.
	Code string
	// StepKeys scopes the rule to specific steps; empty means all steps.
	StepKeys []string
	// ElementIDs scopes the rule to specific elements; empty means all elements.
	ElementIDs []string
	// Enabled disables the rule without deleting it.
	Enabled bool
	// Index is the declaration order used for sequential execution.
	Index int
}

// InScope reports whether the rule applies to the given step and element.
// Empty scope lists match everything.
func (r *LogicRule) InScope(stepKey, elementID string) bool {
	if len(r.StepKeys) > 0 && !containsString(r.StepKeys, stepKey) {
		return false
	}
	if elementID != "" && len(r.ElementIDs) > 0 && !containsString(r.ElementIDs, elementID) {
		return false
	}
	return true
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
