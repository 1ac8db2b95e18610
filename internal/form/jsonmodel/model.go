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

// Package jsonmodel provides the structure for representing a form definition in JSON format.
// The definition is externally produced and consumed read-only.
package jsonmodel

// FormDefinition represents the form description fetched from the backend.
type FormDefinition struct {
	ID           string           `json:"id"`
	Key          string           `json:"key"`
	FirstStepKey string           `json:"first_step_key"`
	Steps        []StepDefinition `json:"steps"`
	Rules        []RuleDefinition `json:"logic_rules,omitempty"`
}

// StepDefinition represents one step of the form definition.
type StepDefinition struct {
	ID             string                `json:"id"`
	Key            string                `json:"key"`
	ServarFields   []FieldDefinition     `json:"servar_fields"`
	Buttons        []ButtonDefinition    `json:"buttons"`
	Containers     []ContainerDefinition `json:"containers,omitempty"`
	HideRules      []HideRuleDefinition  `json:"hide_rules,omitempty"`
	NextConditions []NextConditionDef    `json:"next_conditions"`
}

// FieldDefinition represents a servar field binding in a step.
type FieldDefinition struct {
	ID            string                 `json:"id"`
	Key           string                 `json:"key"`
	Type          string                 `json:"type"`
	Repeated      bool                   `json:"repeated,omitempty"`
	Required      bool                   `json:"required,omitempty"`
	AlwaysChecked bool                   `json:"always_checked,omitempty"`
	MaxLength     int                    `json:"max_length,omitempty"`
	Options       []string               `json:"options,omitempty"`
	Properties    map[string]interface{} `json:"properties,omitempty"`
}

// ButtonDefinition represents a button element in a step.
type ButtonDefinition struct {
	ID      string             `json:"id"`
	Text    string             `json:"text"`
	Submit  bool               `json:"submit,omitempty"`
	Actions []ActionDefinition `json:"actions"`
}

// ActionDefinition represents one declared action of an element.
type ActionDefinition struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// ContainerDefinition represents a container of the step's grid tree.
type ContainerDefinition struct {
	ID        string                `json:"id"`
	Repeated  bool                  `json:"repeated,omitempty"`
	FieldKeys []string              `json:"field_keys,omitempty"`
	Children  []ContainerDefinition `json:"children,omitempty"`
}

// HideRuleDefinition represents a conditional-visibility rule for an element.
type HideRuleDefinition struct {
	ElementID string `json:"element_id"`
	// Expression is the hide predicate over field values; the element is
	// hidden while it evaluates to true.
	Expression string `json:"expression"`
}

// NextConditionDef represents one ordered predicate→target navigation rule.
type NextConditionDef struct {
	NextStepKey string `json:"next_step_key"`
	// Expression is the navigation predicate; empty matches unconditionally.
	Expression string `json:"expression,omitempty"`
}

// RuleDefinition represents a user-authored logic rule attached to the form.
type RuleDefinition struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TriggerEvent string `json:"trigger_event"`
	// Phase places an action-event rule before or after the chain;
	// empty defaults to before.
	Phase    string   `json:"phase,omitempty"`
	Code     string   `json:"code"`
	Steps    []string `json:"steps,omitempty"`
	Elements []string `json:"elements,omitempty"`
	Enabled  bool     `json:"enabled"`
}
