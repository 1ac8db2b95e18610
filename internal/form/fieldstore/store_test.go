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

package fieldstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/model"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store

	rerenders    []bool
	validates    int
	clearedKeys  [][]string
	changeEvents []map[string]interface{}
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	suite.rerenders = nil
	suite.validates = 0
	suite.clearedKeys = nil
	suite.changeEvents = nil

	suite.store = NewStore(Hooks{
		OnRerender: func(immediate bool) {
			suite.rerenders = append(suite.rerenders, immediate)
		},
		OnValidate: func() {
			suite.validates++
		},
		OnClearErrors: func(keys []string) {
			suite.clearedKeys = append(suite.clearedKeys, keys)
		},
		OnChange: func(changes map[string]interface{}) {
			suite.changeEvents = append(suite.changeEvents, changes)
		},
		DependencyKeys: func() map[string]bool {
			return map[string]bool{"age": true}
		},
	})
	suite.store.Seal(testForm())
}

func testForm() *model.Form {
	step := &model.Step{
		ID:  "step-1",
		Key: "intro",
		Fields: []*model.Field{
			{ID: "el-name", Key: "name", Type: constants.FieldTypeText},
			{ID: "el-age", Key: "age", Type: constants.FieldTypeInteger},
			{ID: "el-agree", Key: "agree", Type: constants.FieldTypeCheckbox, AlwaysChecked: true},
			{ID: "el-phone", Key: "phone", Type: constants.FieldTypeText, Repeated: true},
			{ID: "el-doc", Key: "doc", Type: constants.FieldTypeFile},
		},
		Containers: []model.Container{
			{ID: "el-contacts", Repeated: true, FieldKeys: []string{"phone"}},
		},
	}
	return &model.Form{
		ID:           "form-1",
		Key:          "onboarding",
		FirstStepKey: "intro",
		Steps:        map[string]*model.Step{"intro": step},
	}
}

func (suite *StoreTestSuite) TestSealDefaults() {
	name, ok := suite.store.Value("name")
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "", name)

	agree, _ := suite.store.Value("agree")
	assert.Equal(suite.T(), true, agree)

	phone, _ := suite.store.Value("phone")
	assert.Equal(suite.T(), []interface{}{""}, phone)

	age, _ := suite.store.Value("age")
	assert.Nil(suite.T(), age)
}

func (suite *StoreTestSuite) TestUpdateReturnsFalseWhenNothingChanges() {
	changed := suite.store.Update(map[string]interface{}{"name": ""}, UpdateOptions{})
	assert.False(suite.T(), changed)
	assert.Empty(suite.T(), suite.rerenders)
	assert.Empty(suite.T(), suite.changeEvents)
}

func (suite *StoreTestSuite) TestUpdateAppliesChange() {
	changed := suite.store.Update(map[string]interface{}{"name": "ada"}, UpdateOptions{})
	assert.True(suite.T(), changed)

	value, _ := suite.store.Value("name")
	assert.Equal(suite.T(), "ada", value)
	assert.Len(suite.T(), suite.changeEvents, 1)
}

func (suite *StoreTestSuite) TestNumericCoercion() {
	suite.store.Update(map[string]interface{}{"age": "42"}, UpdateOptions{})
	value, _ := suite.store.Value("age")
	assert.Equal(suite.T(), float64(42), value)
}

func (suite *StoreTestSuite) TestEmptyNumericNotCoerced() {
	suite.store.Update(map[string]interface{}{"age": "7"}, UpdateOptions{})
	suite.store.Update(map[string]interface{}{"age": ""}, UpdateOptions{})
	value, _ := suite.store.Value("age")
	assert.Equal(suite.T(), "", value)
}

func (suite *StoreTestSuite) TestAlwaysCheckedForcesTrue() {
	changed := suite.store.Update(map[string]interface{}{"agree": false}, UpdateOptions{})
	assert.False(suite.T(), changed)
	value, _ := suite.store.Value("agree")
	assert.Equal(suite.T(), true, value)
}

func (suite *StoreTestSuite) TestSingleUploadUnwrapped() {
	suite.store.Update(map[string]interface{}{"doc": []interface{}{"a.pdf"}}, UpdateOptions{})
	value, _ := suite.store.Value("doc")
	assert.Equal(suite.T(), "a.pdf", value)

	suite.store.Update(map[string]interface{}{"doc": []interface{}{}}, UpdateOptions{})
	value, _ = suite.store.Value("doc")
	assert.Nil(suite.T(), value)
}

func (suite *StoreTestSuite) TestPreviouslyEmptyValueRerendersImmediately() {
	suite.store.Update(map[string]interface{}{"name": "ada"}, UpdateOptions{})
	assert.Equal(suite.T(), []bool{true}, suite.rerenders)
}

func (suite *StoreTestSuite) TestDependencyChangeDefersRerender() {
	suite.store.Update(map[string]interface{}{"age": 30}, UpdateOptions{})
	suite.rerenders = nil

	suite.store.Update(map[string]interface{}{"age": 31}, UpdateOptions{})
	assert.Equal(suite.T(), []bool{false}, suite.rerenders)
}

func (suite *StoreTestSuite) TestValidateOnlyWithAutoValidateAndTriggerErrors() {
	suite.store.Update(map[string]interface{}{"name": "a"}, UpdateOptions{TriggerErrors: true})
	assert.Equal(suite.T(), 0, suite.validates)

	suite.store.SetAutoValidate(true)
	suite.store.Update(map[string]interface{}{"name": "b"}, UpdateOptions{})
	assert.Equal(suite.T(), 0, suite.validates)

	suite.store.Update(map[string]interface{}{"name": "c"}, UpdateOptions{TriggerErrors: true})
	assert.Equal(suite.T(), 1, suite.validates)
}

func (suite *StoreTestSuite) TestClearErrorsHook() {
	suite.store.Update(map[string]interface{}{"name": "ada"}, UpdateOptions{ClearErrors: true})
	assert.Len(suite.T(), suite.clearedKeys, 1)
	assert.Equal(suite.T(), []string{"name"}, suite.clearedKeys[0])
}

func (suite *StoreTestSuite) TestResetToDefault() {
	suite.store.Update(map[string]interface{}{"name": "ada"}, UpdateOptions{})
	changed := suite.store.ResetToDefault("name", UpdateOptions{})
	assert.True(suite.T(), changed)
	value, _ := suite.store.Value("name")
	assert.Equal(suite.T(), "", value)
}

func (suite *StoreTestSuite) TestResetAllRestoresDefaults() {
	suite.store.Update(map[string]interface{}{"name": "ada", "age": 9}, UpdateOptions{})
	suite.store.SetAutoValidate(true)

	suite.store.ResetAll()

	name, _ := suite.store.Value("name")
	assert.Equal(suite.T(), "", name)
	cart, _ := suite.store.Value(constants.CartFieldKey)
	assert.Equal(suite.T(), map[string]interface{}{}, cart)
	assert.False(suite.T(), suite.store.AutoValidate())
}

func (suite *StoreTestSuite) TestRepeatedRowsStayInLockStep() {
	form := testForm()
	container := form.Steps["intro"].ContainerByID("el-contacts")

	assert.Equal(suite.T(), 1, suite.store.RepetitionCount(container))

	suite.store.InsertRepeatedRow(container, UpdateOptions{})
	assert.Equal(suite.T(), 2, suite.store.RepetitionCount(container))
	phone, _ := suite.store.Value("phone")
	assert.Len(suite.T(), phone, 2)

	suite.store.RemoveRepeatedRow(container, 0, UpdateOptions{})
	assert.Equal(suite.T(), 1, suite.store.RepetitionCount(container))
	phone, _ = suite.store.Value("phone")
	assert.Len(suite.T(), phone, 1)
}

func (suite *StoreTestSuite) TestRemoveLastRowIsNoOp() {
	form := testForm()
	container := form.Steps["intro"].ContainerByID("el-contacts")

	changed := suite.store.RemoveRepeatedRow(container, 0, UpdateOptions{})
	assert.False(suite.T(), changed)
	assert.Equal(suite.T(), 1, suite.store.RepetitionCount(container))
}
