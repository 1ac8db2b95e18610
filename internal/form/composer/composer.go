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

// Package composer translates the JSON form definition into the runtime model:
// it seals the field binding table, compiles condition expressions, and
// pre-filters logic rules.
package composer

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr/vm"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/jsonmodel"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/log"
)

const loggerComponentName = "FormComposer"

// supportedActionTypes is the closed set accepted from definitions.
var supportedActionTypes = func() map[constants.ActionType]bool {
	types := make(map[constants.ActionType]bool)
	for _, actionType := range constants.AllActionTypes() {
		types[actionType] = true
	}
	return types
}()

// supportedEvents are the lifecycle events logic rules may attach to.
var supportedEvents = map[constants.Event]bool{
	constants.EventLoad:     true,
	constants.EventChange:   true,
	constants.EventAction:   true,
	constants.EventSubmit:   true,
	constants.EventError:    true,
	constants.EventView:     true,
	constants.EventComplete: true,
}

// DecodeForm decodes a raw JSON form definition.
func DecodeForm(raw []byte) (*jsonmodel.FormDefinition, error) {
	var def jsonmodel.FormDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("failed to decode form definition: %w", err)
	}
	return &def, nil
}

// ComposeForm builds the runtime form from a decoded definition. The returned
// form owns compiled condition programs and the filtered rule list; the
// definition itself is not retained.
func ComposeForm(def *jsonmodel.FormDefinition) (*model.Form, error) {
	if def == nil {
		return nil, fmt.Errorf("form definition is nil")
	}

	form := &model.Form{
		ID:           def.ID,
		Key:          def.Key,
		FirstStepKey: def.FirstStepKey,
		Steps:        make(map[string]*model.Step, len(def.Steps)),
	}

	for i := range def.Steps {
		step, err := composeStep(&def.Steps[i])
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", def.Steps[i].Key, err)
		}
		form.Steps[step.Key] = step
	}
	if form.FirstStepKey == "" && len(def.Steps) > 0 {
		form.FirstStepKey = def.Steps[0].Key
	}
	if form.StepByKey(form.FirstStepKey) == nil {
		return nil, fmt.Errorf("first step %q not found in the definition", form.FirstStepKey)
	}

	form.Rules = composeRules(def.Rules)
	return form, nil
}

// composeStep builds one runtime step, compiling its hide rules and
// navigation conditions.
func composeStep(def *jsonmodel.StepDefinition) (*model.Step, error) {
	step := &model.Step{
		ID:  def.ID,
		Key: def.Key,
	}

	for i := range def.ServarFields {
		fieldDef := &def.ServarFields[i]
		step.Fields = append(step.Fields, &model.Field{
			ID:            fieldDef.ID,
			Key:           fieldDef.Key,
			Type:          constants.FieldType(fieldDef.Type),
			Repeated:      fieldDef.Repeated,
			Required:      fieldDef.Required,
			AlwaysChecked: fieldDef.AlwaysChecked,
			MaxLength:     fieldDef.MaxLength,
			Options:       append([]string(nil), fieldDef.Options...),
			Properties:    fieldDef.Properties,
		})
	}

	for i := range def.Buttons {
		button, err := composeButton(&def.Buttons[i])
		if err != nil {
			return nil, err
		}
		step.Buttons = append(step.Buttons, button)
	}

	step.Containers = composeContainers(def.Containers)

	for _, ruleDef := range def.HideRules {
		program, fieldKeys, err := CompileCondition(ruleDef.Expression)
		if err != nil {
			return nil, fmt.Errorf("hide rule for element %q: %w", ruleDef.ElementID, err)
		}
		step.HideRules = append(step.HideRules, model.HideRule{
			ElementID: ruleDef.ElementID,
			Source:    ruleDef.Expression,
			Program:   program,
			FieldKeys: fieldKeys,
		})
	}

	for _, condDef := range def.NextConditions {
		var program *vm.Program
		var fieldKeys []string
		if condDef.Expression != "" {
			var err error
			program, fieldKeys, err = CompileCondition(condDef.Expression)
			if err != nil {
				return nil, fmt.Errorf("next condition to %q: %w", condDef.NextStepKey, err)
			}
		}
		step.NextConditions = append(step.NextConditions, model.NextCondition{
			NextStepKey: condDef.NextStepKey,
			Source:      condDef.Expression,
			Program:     program,
			FieldKeys:   fieldKeys,
		})
	}

	return step, nil
}

// composeButton builds a runtime button, rejecting actions outside the closed set.
func composeButton(def *jsonmodel.ButtonDefinition) (*model.Button, error) {
	button := &model.Button{
		ID:     def.ID,
		Text:   def.Text,
		Submit: def.Submit,
	}
	for _, actionDef := range def.Actions {
		actionType := constants.ActionType(actionDef.Type)
		if !supportedActionTypes[actionType] {
			return nil, fmt.Errorf("button %q: unsupported action type %q", def.ID, actionDef.Type)
		}
		button.Actions = append(button.Actions, model.Action{
			Type:   actionType,
			Params: actionDef.Params,
		})
	}
	return button, nil
}

func composeContainers(defs []jsonmodel.ContainerDefinition) []model.Container {
	containers := make([]model.Container, 0, len(defs))
	for _, def := range defs {
		containers = append(containers, model.Container{
			ID:        def.ID,
			Repeated:  def.Repeated,
			FieldKeys: append([]string(nil), def.FieldKeys...),
			Children:  composeContainers(def.Children),
		})
	}
	return containers
}

// composeRules filters disabled and invalid rules and freezes declaration order.
func composeRules(defs []jsonmodel.RuleDefinition) []*model.LogicRule {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	rules := make([]*model.LogicRule, 0, len(defs))
	for i, def := range defs {
		if !def.Enabled || def.Code == "" {
			continue
		}
		event := constants.Event(def.TriggerEvent)
		if !supportedEvents[event] {
			logger.Warn("Skipping logic rule with unsupported trigger event",
				log.String(log.LoggerKeyRuleName, def.Name), log.String("triggerEvent", def.TriggerEvent))
			continue
		}
		phase := constants.RulePhase(def.Phase)
		if phase == "" {
			phase = constants.RulePhaseBefore
		}
		rules = append(rules, &model.LogicRule{
			ID:           def.ID,
			Name:         def.Name,
			TriggerEvent: event,
			Phase:        phase,
			Code:         def.Code,
			StepKeys:     append([]string(nil), def.Steps...),
			ElementIDs:   append([]string(nil), def.Elements...),
			Enabled:      true,
			Index:        i,
		})
	}
	return rules
}
