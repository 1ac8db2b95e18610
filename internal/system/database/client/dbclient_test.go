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

package client

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type DBClientTestSuite struct {
	suite.Suite
	mockDB   *sql.DB
	mock     sqlmock.Sqlmock
	dbClient DBClientInterface
}

func TestDBClientSuite(t *testing.T) {
	suite.Run(t, new(DBClientTestSuite))
}

func (suite *DBClientTestSuite) SetupTest() {
	var err error
	suite.mockDB, suite.mock, err = sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.dbClient = NewDBClient(suite.mockDB)
}

func (suite *DBClientTestSuite) TearDownTest() {
	if suite.mock != nil {
		if err := suite.mock.ExpectationsWereMet(); err != nil {
			suite.T().Fatalf("There were unfulfilled expectations: %v", err)
		}
	}
}

func (suite *DBClientTestSuite) TestQuerySuccess() {
	columns := []string{"session_id", "current_step_key"}
	rows := sqlmock.NewRows(columns).
		AddRow("session-1", "intro").
		AddRow("session-2", "details")
	suite.mock.ExpectQuery("SELECT session_id, current_step_key FROM sessions").
		WillReturnRows(rows)

	results, err := suite.dbClient.Query("SELECT session_id, current_step_key FROM sessions")

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), results, 2)
	assert.Equal(suite.T(), "session-1", results[0]["session_id"])
	assert.Equal(suite.T(), "details", results[1]["current_step_key"])
}

func (suite *DBClientTestSuite) TestQueryEmptyResults() {
	columns := []string{"session_id"}
	suite.mock.ExpectQuery("SELECT session_id FROM sessions").
		WillReturnRows(sqlmock.NewRows(columns))

	results, err := suite.dbClient.Query("SELECT session_id FROM sessions")

	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), results)
}

func (suite *DBClientTestSuite) TestQueryDatabaseError() {
	expectedErr := errors.New("table not found")
	suite.mock.ExpectQuery("SELECT session_id FROM missing").
		WillReturnError(expectedErr)

	results, err := suite.dbClient.Query("SELECT session_id FROM missing")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), results)
}

func (suite *DBClientTestSuite) TestExecuteReturnsAffectedRows() {
	suite.mock.ExpectExec("DELETE FROM sessions").
		WillReturnResult(sqlmock.NewResult(0, 3))

	rowsAffected, err := suite.dbClient.Execute("DELETE FROM sessions")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), rowsAffected)
}

func (suite *DBClientTestSuite) TestExecuteDatabaseError() {
	suite.mock.ExpectExec("DELETE FROM sessions").
		WillReturnError(errors.New("locked"))

	rowsAffected, err := suite.dbClient.Execute("DELETE FROM sessions")

	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), int64(0), rowsAffected)
}

func (suite *DBClientTestSuite) TestClose() {
	suite.mock.ExpectClose()
	assert.NoError(suite.T(), suite.dbClient.Close())
}
