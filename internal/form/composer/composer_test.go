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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/jsonmodel"
)

const formJSON = `{
	"id": "form-1",
	"key": "onboarding",
	"first_step_key": "intro",
	"steps": [
		{
			"id": "step-1",
			"key": "intro",
			"servar_fields": [
				{"id": "el-name", "key": "name", "type": "text", "required": true},
				{"id": "el-age", "key": "age", "type": "integer"}
			],
			"buttons": [
				{
					"id": "el-next",
					"text": "Next",
					"submit": true,
					"actions": [{"type": "NEXT"}]
				}
			],
			"hide_rules": [
				{"element_id": "el-age", "expression": "fields.name == \"\""}
			],
			"next_conditions": [
				{"next_step_key": "details"}
			]
		},
		{
			"id": "step-2",
			"key": "details",
			"servar_fields": [],
			"buttons": [],
			"next_conditions": []
		}
	],
	"logic_rules": [
		{
			"id": "rule-1",
			"name": "greet",
			"trigger_event": "load",
			"code": "feathery.getFieldValue(\"name\")",
			"enabled": true
		},
		{
			"id": "rule-2",
			"name": "disabled",
			"trigger_event": "load",
			"code": "feathery.getFieldValue(\"name\")",
			"enabled": false
		},
		{
			"id": "rule-3",
			"name": "bad-event",
			"trigger_event": "teleport",
			"code": "1",
			"enabled": true
		},
		{
			"id": "rule-4",
			"name": "after-chain",
			"trigger_event": "action",
			"phase": "after",
			"code": "1",
			"enabled": true
		}
	]
}`

type ComposerTestSuite struct {
	suite.Suite
}

func TestComposerSuite(t *testing.T) {
	suite.Run(t, new(ComposerTestSuite))
}

func (suite *ComposerTestSuite) TestDecodeAndCompose() {
	def, err := DecodeForm([]byte(formJSON))
	assert.NoError(suite.T(), err)

	form, err := ComposeForm(def)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "form-1", form.ID)
	assert.Equal(suite.T(), "intro", form.FirstStepKey)
	assert.Len(suite.T(), form.Steps, 2)

	intro := form.StepByKey("intro")
	assert.NotNil(suite.T(), intro)
	assert.Len(suite.T(), intro.Fields, 2)
	assert.True(suite.T(), intro.Fields[0].Required)
	assert.Equal(suite.T(), constants.FieldTypeInteger, intro.Fields[1].Type)

	assert.Len(suite.T(), intro.Buttons, 1)
	assert.True(suite.T(), intro.Buttons[0].Submit)
	assert.Equal(suite.T(), constants.ActionNext, intro.Buttons[0].Actions[0].Type)

	assert.Len(suite.T(), intro.HideRules, 1)
	assert.NotNil(suite.T(), intro.HideRules[0].Program)
	assert.Equal(suite.T(), []string{"name"}, intro.HideRules[0].FieldKeys)

	// The unconditional next condition compiles to a nil program.
	assert.Len(suite.T(), intro.NextConditions, 1)
	assert.Nil(suite.T(), intro.NextConditions[0].Program)
	assert.Equal(suite.T(), "details", intro.NextConditions[0].NextStepKey)
}

func (suite *ComposerTestSuite) TestRuleFiltering() {
	def, err := DecodeForm([]byte(formJSON))
	assert.NoError(suite.T(), err)
	form, err := ComposeForm(def)
	assert.NoError(suite.T(), err)

	// Disabled and unsupported-event rules are filtered out.
	assert.Len(suite.T(), form.Rules, 2)
	assert.Equal(suite.T(), "greet", form.Rules[0].Name)
	assert.Equal(suite.T(), constants.RulePhaseBefore, form.Rules[0].Phase)
	assert.Equal(suite.T(), "after-chain", form.Rules[1].Name)
	assert.Equal(suite.T(), constants.RulePhaseAfter, form.Rules[1].Phase)
	assert.Less(suite.T(), form.Rules[0].Index, form.Rules[1].Index)
}

func (suite *ComposerTestSuite) TestUnsupportedActionRejected() {
	def := &jsonmodel.FormDefinition{
		ID:           "form-2",
		Key:          "bad",
		FirstStepKey: "intro",
		Steps: []jsonmodel.StepDefinition{
			{
				ID:  "step-1",
				Key: "intro",
				Buttons: []jsonmodel.ButtonDefinition{
					{ID: "el-b", Actions: []jsonmodel.ActionDefinition{{Type: "TELEPORT"}}},
				},
			},
		},
	}
	_, err := ComposeForm(def)
	assert.Error(suite.T(), err)
}

func (suite *ComposerTestSuite) TestMissingFirstStepRejected() {
	def := &jsonmodel.FormDefinition{
		ID:           "form-3",
		Key:          "bad",
		FirstStepKey: "nowhere",
		Steps: []jsonmodel.StepDefinition{
			{ID: "step-1", Key: "intro"},
		},
	}
	_, err := ComposeForm(def)
	assert.Error(suite.T(), err)
}

func (suite *ComposerTestSuite) TestFirstStepDefaultsToDeclarationOrder() {
	def := &jsonmodel.FormDefinition{
		ID:  "form-4",
		Key: "defaulted",
		Steps: []jsonmodel.StepDefinition{
			{ID: "step-1", Key: "alpha"},
			{ID: "step-2", Key: "beta"},
		},
	}
	form, err := ComposeForm(def)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alpha", form.FirstStepKey)
}

func (suite *ComposerTestSuite) TestBadHideRuleExpressionRejected() {
	def := &jsonmodel.FormDefinition{
		ID:           "form-5",
		Key:          "bad",
		FirstStepKey: "intro",
		Steps: []jsonmodel.StepDefinition{
			{
				ID:  "step-1",
				Key: "intro",
				HideRules: []jsonmodel.HideRuleDefinition{
					{ElementID: "el-a", Expression: "fields.name =="},
				},
			},
		},
	}
	_, err := ComposeForm(def)
	assert.Error(suite.T(), err)
}

type ConditionTestSuite struct {
	suite.Suite
}

func TestConditionSuite(t *testing.T) {
	suite.Run(t, new(ConditionTestSuite))
}

func (suite *ConditionTestSuite) TestEvalAgainstFields() {
	program, fieldKeys, err := CompileCondition(`fields.age >= 18 && fields.country == "US"`)
	assert.NoError(suite.T(), err)
	assert.ElementsMatch(suite.T(), []string{"age", "country"}, fieldKeys)

	match, err := EvalCondition(program, map[string]interface{}{
		ConditionEnvFields: map[string]interface{}{"age": 21, "country": "US"},
	})
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), match)

	match, err = EvalCondition(program, map[string]interface{}{
		ConditionEnvFields: map[string]interface{}{"age": 12, "country": "US"},
	})
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), match)
}

func (suite *ConditionTestSuite) TestNonBooleanResultRejected() {
	program, _, err := CompileCondition(`fields.age`)
	assert.NoError(suite.T(), err)

	_, err = EvalCondition(program, map[string]interface{}{
		ConditionEnvFields: map[string]interface{}{"age": 21},
	})
	assert.Error(suite.T(), err)
}
