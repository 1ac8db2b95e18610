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

package store

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/database/client"
)

const (
	testSessionID = "session-1"
	testFormID    = "form-1"
)

type SessionStoreTestSuite struct {
	suite.Suite
	mockDB *sql.DB
	mock   sqlmock.Sqlmock
	store  *SessionStore
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreTestSuite))
}

func (suite *SessionStoreTestSuite) SetupTest() {
	var err error
	suite.mockDB, suite.mock, err = sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.store = NewSessionStore(client.NewDBClient(suite.mockDB))
}

func (suite *SessionStoreTestSuite) TearDownTest() {
	if suite.mock != nil {
		if err := suite.mock.ExpectationsWereMet(); err != nil {
			suite.T().Fatalf("There were unfulfilled expectations: %v", err)
		}
	}
}

func testState() *model.SessionState {
	return &model.SessionState{
		CurrentStepKey: "details",
		FieldValues:    map[string]interface{}{"name": "ada"},
		BackNav:        map[string]string{"details": "intro"},
		Completed:      false,
	}
}

func (suite *SessionStoreTestSuite) TestStoreSnapshotUpdatesExistingRow() {
	suite.mock.ExpectExec(regexp.QuoteMeta(queryUpdateSessionSnapshot)).
		WithArgs(testSessionID, "details", `{"name":"ada"}`, `{"details":"intro"}`, false, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := suite.store.StoreSessionSnapshot(testSessionID, testFormID, testState())
	assert.NoError(suite.T(), err)
}

func (suite *SessionStoreTestSuite) TestStoreSnapshotInsertsWhenMissing() {
	suite.mock.ExpectExec(regexp.QuoteMeta(queryUpdateSessionSnapshot)).
		WithArgs(testSessionID, "details", `{"name":"ada"}`, `{"details":"intro"}`, false, "").
		WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectExec(regexp.QuoteMeta(queryCreateSessionSnapshot)).
		WithArgs(testSessionID, testFormID, "details", `{"name":"ada"}`, `{"details":"intro"}`, false, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := suite.store.StoreSessionSnapshot(testSessionID, testFormID, testState())
	assert.NoError(suite.T(), err)
}

func (suite *SessionStoreTestSuite) TestGetSnapshotRoundTrip() {
	columns := []string{"session_id", "form_id", "current_step_key", "field_values", "back_nav", "completed", "off_reason"}
	rows := sqlmock.NewRows(columns).
		AddRow(testSessionID, testFormID, "details", `{"name":"ada"}`, `{"details":"intro"}`, true, "CLOSED")
	suite.mock.ExpectQuery(regexp.QuoteMeta(queryGetSessionSnapshot)).
		WithArgs(testSessionID).
		WillReturnRows(rows)

	state, err := suite.store.GetSessionSnapshot(testSessionID)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), state)
	assert.Equal(suite.T(), "details", state.CurrentStepKey)
	assert.Equal(suite.T(), "ada", state.FieldValues["name"])
	assert.Equal(suite.T(), "intro", state.BackNav["details"])
	assert.True(suite.T(), state.Completed)
	assert.Equal(suite.T(), constants.OffReasonClosed, state.OffReason)
}

func (suite *SessionStoreTestSuite) TestGetSnapshotNotFound() {
	columns := []string{"session_id", "form_id", "current_step_key", "field_values", "back_nav", "completed", "off_reason"}
	suite.mock.ExpectQuery(regexp.QuoteMeta(queryGetSessionSnapshot)).
		WithArgs(testSessionID).
		WillReturnRows(sqlmock.NewRows(columns))

	state, err := suite.store.GetSessionSnapshot(testSessionID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), state)
}

func (suite *SessionStoreTestSuite) TestGetSnapshotQueryError() {
	suite.mock.ExpectQuery(regexp.QuoteMeta(queryGetSessionSnapshot)).
		WithArgs(testSessionID).
		WillReturnError(errors.New("connection reset"))

	state, err := suite.store.GetSessionSnapshot(testSessionID)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), state)
}

func (suite *SessionStoreTestSuite) TestDeleteSnapshotRemovesQueuedWrites() {
	suite.mock.ExpectExec(regexp.QuoteMeta(queryDeletePendingWrites)).
		WithArgs(testSessionID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	suite.mock.ExpectExec(regexp.QuoteMeta(queryDeleteSessionSnapshot)).
		WithArgs(testSessionID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := suite.store.DeleteSessionSnapshot(testSessionID)
	assert.NoError(suite.T(), err)
}

func (suite *SessionStoreTestSuite) TestQueuePendingWrite() {
	suite.mock.ExpectExec(regexp.QuoteMeta(queryCreatePendingWrite)).
		WithArgs(testSessionID, "name", `"ada"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	suite.store.QueuePendingWrite(testSessionID, "name", "ada")
}

func (suite *SessionStoreTestSuite) TestQueuePendingWriteSwallowsFailure() {
	suite.mock.ExpectExec(regexp.QuoteMeta(queryCreatePendingWrite)).
		WithArgs(testSessionID, "name", `"ada"`).
		WillReturnError(errors.New("disk full"))

	// Queueing is best effort; a failure must not propagate.
	suite.store.QueuePendingWrite(testSessionID, "name", "ada")
}

func (suite *SessionStoreTestSuite) TestDrainPendingWrites() {
	columns := []string{"field_key", "field_value"}
	rows := sqlmock.NewRows(columns).
		AddRow("name", `"ada"`).
		AddRow("age", `42`).
		AddRow("name", `"grace"`)
	suite.mock.ExpectQuery(regexp.QuoteMeta(queryGetPendingWrites)).
		WithArgs(testSessionID).
		WillReturnRows(rows)
	suite.mock.ExpectExec(regexp.QuoteMeta(queryDeletePendingWrites)).
		WithArgs(testSessionID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	writes, err := suite.store.DrainPendingWrites(testSessionID)
	assert.NoError(suite.T(), err)
	// Later writes for the same key overwrite earlier ones.
	assert.Equal(suite.T(), "grace", writes["name"])
	assert.Equal(suite.T(), float64(42), writes["age"])
}

type SnapshotModelTestSuite struct {
	suite.Suite
}

func TestSnapshotModelSuite(t *testing.T) {
	suite.Run(t, new(SnapshotModelTestSuite))
}

func (suite *SnapshotModelTestSuite) TestStateConversionRoundTrip() {
	state := &model.SessionState{
		CurrentStepKey: "details",
		FieldValues:    map[string]interface{}{"name": "ada", "age": float64(30)},
		BackNav:        map[string]string{"details": "intro"},
		Completed:      true,
		OffReason:      constants.OffReasonClosed,
	}

	dbModel, err := FromSessionState(testSessionID, testFormID, state)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), testSessionID, dbModel.SessionID)

	restored, err := dbModel.ToSessionState()
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), state, restored)
}

func (suite *SnapshotModelTestSuite) TestEmptyDocumentsTolerated() {
	dbModel := &SessionSnapshotDB{SessionID: testSessionID, FormID: testFormID}
	state, err := dbModel.ToSessionState()
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), state.FieldValues)
	assert.Empty(suite.T(), state.BackNav)
}
