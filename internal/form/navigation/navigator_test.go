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

package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/feathery-org/formflow/internal/form/composer"
	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/model"
)

type NavigatorTestSuite struct {
	suite.Suite
	form      *model.Form
	navigator *Navigator
}

func TestNavigatorSuite(t *testing.T) {
	suite.Run(t, new(NavigatorTestSuite))
}

func (suite *NavigatorTestSuite) SetupTest() {
	suite.form = navigatorForm(suite.T())
	suite.navigator = NewNavigator(suite.form, nil)
}

func compileNextCondition(t *testing.T, target, expression string) model.NextCondition {
	if expression == "" {
		return model.NextCondition{NextStepKey: target}
	}
	program, fieldKeys, err := composer.CompileCondition(expression)
	if err != nil {
		t.Fatalf("failed to compile condition %q: %v", expression, err)
	}
	return model.NextCondition{
		NextStepKey: target,
		Source:      expression,
		Program:     program,
		FieldKeys:   fieldKeys,
	}
}

func navigatorForm(t *testing.T) *model.Form {
	intro := &model.Step{
		ID:  "step-1",
		Key: "intro",
		NextConditions: []model.NextCondition{
			compileNextCondition(t, "minor-exit", `fields.age < 18 && trigger.id == "el-next"`),
			compileNextCondition(t, "details", ""),
		},
	}
	details := &model.Step{
		ID:  "step-2",
		Key: "details",
		NextConditions: []model.NextCondition{
			compileNextCondition(t, "done", ""),
		},
	}
	done := &model.Step{ID: "step-3", Key: "done"}
	minorExit := &model.Step{ID: "step-4", Key: "minor-exit"}
	return &model.Form{
		ID:           "form-1",
		Key:          "onboarding",
		FirstStepKey: "intro",
		Steps: map[string]*model.Step{
			"intro":      intro,
			"details":    details,
			"done":       done,
			"minor-exit": minorExit,
		},
	}
}

func buttonTrigger(id string) *model.Trigger {
	return &model.Trigger{ID: id, Type: constants.TriggerTypeButton, RepeatIndex: -1}
}

func (suite *NavigatorTestSuite) TestResolveNextFirstMatchWins() {
	step := suite.form.Steps["intro"]

	next := suite.navigator.ResolveNext(step, buttonTrigger("el-next"), map[string]interface{}{"age": 15})
	assert.Equal(suite.T(), "minor-exit", next)

	next = suite.navigator.ResolveNext(step, buttonTrigger("el-next"), map[string]interface{}{"age": 30})
	assert.Equal(suite.T(), "details", next)
}

func (suite *NavigatorTestSuite) TestResolveNextNoConditions() {
	next := suite.navigator.ResolveNext(suite.form.Steps["done"], buttonTrigger("el-next"), map[string]interface{}{})
	assert.Equal(suite.T(), "", next)
}

func (suite *NavigatorTestSuite) TestResolveNextSkipsBrokenCondition() {
	step := &model.Step{
		ID:  "step-x",
		Key: "broken",
		NextConditions: []model.NextCondition{
			compileNextCondition(suite.T(), "nowhere", `fields.age + "x" > 3`),
			compileNextCondition(suite.T(), "fallback", ""),
		},
	}
	next := suite.navigator.ResolveNext(step, buttonTrigger("el-next"), map[string]interface{}{"age": 5})
	assert.Equal(suite.T(), "fallback", next)
}

type testAuthGate struct {
	override    string
	nonTerminal bool
}

func (g *testAuthGate) OverrideNext(step *model.Step, trigger *model.Trigger) string {
	return g.override
}

func (g *testAuthGate) NonTerminal(step *model.Step) bool {
	return g.nonTerminal
}

func (suite *NavigatorTestSuite) TestAuthGateOverridesConditions() {
	navigator := NewNavigator(suite.form, &testAuthGate{override: "done"})
	next := navigator.ResolveNext(suite.form.Steps["intro"], buttonTrigger("el-next"), map[string]interface{}{"age": 15})
	assert.Equal(suite.T(), "done", next)
}

func (suite *NavigatorTestSuite) TestAuthGateNonTerminal() {
	navigator := NewNavigator(suite.form, &testAuthGate{nonTerminal: true})
	assert.False(suite.T(), navigator.Terminal(suite.form.Steps["done"]))
	assert.True(suite.T(), suite.navigator.Terminal(suite.form.Steps["done"]))
}

func (suite *NavigatorTestSuite) TestBackNavRecordsParent() {
	suite.navigator.RecordTransition("intro", "details", false)
	suite.navigator.SetCurrent("details")

	target, ok := suite.navigator.BackTarget()
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "intro", target)
}

func (suite *NavigatorTestSuite) TestRedirectSkipsRedirectingStep() {
	suite.navigator.RecordTransition("intro", "details", false)
	suite.navigator.RecordTransition("details", "done", true)
	suite.navigator.SetCurrent("done")

	target, ok := suite.navigator.BackTarget()
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "intro", target)
}

func (suite *NavigatorTestSuite) TestSelfTransitionNotRecorded() {
	suite.navigator.RecordTransition("intro", "intro", false)
	suite.navigator.SetCurrent("intro")

	_, ok := suite.navigator.BackTarget()
	assert.False(suite.T(), ok)
}

func (suite *NavigatorTestSuite) TestBackNavUnchangedByBackNavigation() {
	suite.navigator.RecordTransition("intro", "details", false)
	suite.navigator.SetCurrent("details")

	// Going back re-enters without recording, so forward again still maps
	// details back to intro.
	suite.navigator.SetCurrent("intro")
	suite.navigator.SetCurrent("details")

	target, ok := suite.navigator.BackTarget()
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "intro", target)
}

func (suite *NavigatorTestSuite) TestMarkCompletedIdempotent() {
	assert.True(suite.T(), suite.navigator.MarkCompleted())
	assert.False(suite.T(), suite.navigator.MarkCompleted())
	assert.True(suite.T(), suite.navigator.Completed())
	assert.Equal(suite.T(), constants.SessionStatusFinished, suite.navigator.Status())
}

func (suite *NavigatorTestSuite) TestTurnOffOnlyFromActive() {
	suite.navigator.MarkCompleted()
	suite.navigator.TurnOff(constants.OffReasonClosed)
	assert.Equal(suite.T(), constants.SessionStatusFinished, suite.navigator.Status())

	fresh := NewNavigator(suite.form, nil)
	fresh.TurnOff(constants.OffReasonClosed)
	assert.Equal(suite.T(), constants.SessionStatusOff, fresh.Status())
	assert.Equal(suite.T(), constants.OffReasonClosed, fresh.OffReason())
}

func (suite *NavigatorTestSuite) TestResetClearsState() {
	suite.navigator.RecordTransition("intro", "details", false)
	suite.navigator.SetCurrent("details")
	suite.navigator.MarkCompleted()

	suite.navigator.Reset()

	assert.Equal(suite.T(), "", suite.navigator.CurrentStepKey())
	assert.False(suite.T(), suite.navigator.Completed())
	assert.Equal(suite.T(), constants.SessionStatusActive, suite.navigator.Status())
	assert.Empty(suite.T(), suite.navigator.BackNav())
}

func (suite *NavigatorTestSuite) TestRestoreRoundTrip() {
	suite.navigator.RecordTransition("intro", "details", false)
	snapshot := suite.navigator.BackNav()

	restored := NewNavigator(suite.form, nil)
	restored.RestoreBackNav(snapshot)
	restored.RestoreCompleted(true)
	restored.SetCurrent("details")

	target, ok := restored.BackTarget()
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "intro", target)
	assert.True(suite.T(), restored.Completed())
	assert.Equal(suite.T(), constants.SessionStatusFinished, restored.Status())
}
