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

// Package store provides the implementation for session snapshot persistence
// operations.
package store

const (
	// queryCreateSessionSnapshot is the query to create a new session snapshot.
	queryCreateSessionSnapshot = "INSERT INTO FORM_SESSION (SESSION_ID, FORM_ID, CURRENT_STEP_KEY, " +
		"FIELD_VALUES, BACK_NAV, COMPLETED, OFF_REASON) VALUES ($1, $2, $3, $4, $5, $6, $7)"

	// queryUpdateSessionSnapshot is the query to update a session snapshot.
	queryUpdateSessionSnapshot = "UPDATE FORM_SESSION SET CURRENT_STEP_KEY = $2, FIELD_VALUES = $3, " +
		"BACK_NAV = $4, COMPLETED = $5, OFF_REASON = $6, UPDATED_AT = CURRENT_TIMESTAMP WHERE SESSION_ID = $1"

	// queryGetSessionSnapshot is the query to get a session snapshot.
	queryGetSessionSnapshot = "SELECT SESSION_ID, FORM_ID, CURRENT_STEP_KEY, FIELD_VALUES, BACK_NAV, " +
		"COMPLETED, OFF_REASON FROM FORM_SESSION WHERE SESSION_ID = $1"

	// queryDeleteSessionSnapshot is the query to delete a session snapshot.
	queryDeleteSessionSnapshot = "DELETE FROM FORM_SESSION WHERE SESSION_ID = $1"

	// queryCreatePendingWrite is the query to queue a pending field write.
	queryCreatePendingWrite = "INSERT INTO PENDING_FIELD_WRITE (SESSION_ID, FIELD_KEY, FIELD_VALUE) " +
		"VALUES ($1, $2, $3)"

	// queryGetPendingWrites is the query to get queued field writes in queue order.
	queryGetPendingWrites = "SELECT FIELD_KEY, FIELD_VALUE FROM PENDING_FIELD_WRITE " +
		"WHERE SESSION_ID = $1 ORDER BY ID"

	// queryDeletePendingWrites is the query to drop flushed field writes.
	queryDeletePendingWrites = "DELETE FROM PENDING_FIELD_WRITE WHERE SESSION_ID = $1"
)
