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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/database/client"
	"github.com/feathery-org/formflow/internal/system/log"
)

const loggerComponentName = "SessionStore"

// SessionStore persists session snapshots and the best-effort pending field
// write queue over the configured database.
type SessionStore struct {
	dbClient client.DBClientInterface
}

// NewSessionStore creates a session store over the given database client.
func NewSessionStore(dbClient client.DBClientInterface) *SessionStore {
	return &SessionStore{dbClient: dbClient}
}

// StoreSessionSnapshot stores the session snapshot, updating the existing row
// when the session was snapshotted before.
func (s *SessionStore) StoreSessionSnapshot(sessionID, formID string, state *model.SessionState) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	dbModel, err := FromSessionState(sessionID, formID, state)
	if err != nil {
		logger.Error("Failed to convert session state to database model", log.Error(err))
		return fmt.Errorf("failed to convert session state to database model: %w", err)
	}

	logger.Debug("Storing session snapshot",
		log.String(log.LoggerKeySessionID, dbModel.SessionID),
		log.String(log.LoggerKeyStepKey, dbModel.CurrentStepKey))

	rowsAffected, err := s.dbClient.Execute(queryUpdateSessionSnapshot,
		dbModel.SessionID, dbModel.CurrentStepKey, dbModel.FieldValues,
		dbModel.BackNav, dbModel.Completed, dbModel.OffReason)
	if err != nil {
		logger.Error("Failed to update session snapshot", log.Error(err))
		return fmt.Errorf("failed to update session snapshot: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	_, err = s.dbClient.Execute(queryCreateSessionSnapshot,
		dbModel.SessionID, dbModel.FormID, dbModel.CurrentStepKey,
		dbModel.FieldValues, dbModel.BackNav, dbModel.Completed, dbModel.OffReason)
	if err != nil {
		logger.Error("Failed to create session snapshot", log.Error(err))
		return fmt.Errorf("failed to create session snapshot: %w", err)
	}
	return nil
}

// GetSessionSnapshot retrieves the session snapshot, nil when none exists.
func (s *SessionStore) GetSessionSnapshot(sessionID string) (*model.SessionState, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	results, err := s.dbClient.Query(queryGetSessionSnapshot, sessionID)
	if err != nil {
		logger.Error("Failed to execute query", log.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	if len(results) == 0 {
		logger.Debug("Session snapshot not found", log.String(log.LoggerKeySessionID, sessionID))
		return nil, nil
	}
	if len(results) != 1 {
		logger.Error("Unexpected number of results", log.Int("resultCount", len(results)))
		return nil, fmt.Errorf("unexpected number of results: %d", len(results))
	}

	dbModel, err := buildSnapshotFromResultRow(results[0])
	if err != nil {
		return nil, err
	}
	return dbModel.ToSessionState()
}

// DeleteSessionSnapshot removes the session snapshot and its queued writes.
func (s *SessionStore) DeleteSessionSnapshot(sessionID string) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))
	logger.Debug("Deleting session snapshot", log.String(log.LoggerKeySessionID, sessionID))

	if _, err := s.dbClient.Execute(queryDeletePendingWrites, sessionID); err != nil {
		logger.Error("Failed to delete pending field writes", log.Error(err))
		return fmt.Errorf("failed to delete pending field writes: %w", err)
	}
	if _, err := s.dbClient.Execute(queryDeleteSessionSnapshot, sessionID); err != nil {
		logger.Error("Failed to delete session snapshot", log.Error(err))
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}
	return nil
}

// QueuePendingWrite queues one field value for the next flush. Failures are
// logged and swallowed; the queue is best effort and must never interrupt the
// interaction that produced the write.
func (s *SessionStore) QueuePendingWrite(sessionID, fieldKey string, value interface{}) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	valueJSON, err := json.Marshal(value)
	if err != nil {
		logger.Error("Failed to marshal pending field value",
			log.String(log.LoggerKeyFieldKey, fieldKey), log.Error(err))
		return
	}
	if _, err := s.dbClient.Execute(queryCreatePendingWrite, sessionID, fieldKey, string(valueJSON)); err != nil {
		logger.Error("Failed to queue pending field write",
			log.String(log.LoggerKeyFieldKey, fieldKey), log.Error(err))
	}
}

// DrainPendingWrites returns the queued field writes in queue order and
// removes them. Later writes for the same key overwrite earlier ones.
func (s *SessionStore) DrainPendingWrites(sessionID string) (map[string]interface{}, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	results, err := s.dbClient.Query(queryGetPendingWrites, sessionID)
	if err != nil {
		logger.Error("Failed to query pending field writes", log.Error(err))
		return nil, fmt.Errorf("failed to query pending field writes: %w", err)
	}

	writes := make(map[string]interface{}, len(results))
	for _, row := range results {
		fieldKey, ok := row["field_key"].(string)
		if !ok {
			return nil, errors.New("failed to parse field_key as string")
		}
		rawValue := parseOptionalString(row["field_value"])
		if rawValue == nil {
			writes[fieldKey] = nil
			continue
		}
		var value interface{}
		if err := json.Unmarshal([]byte(*rawValue), &value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pending field value: %w", err)
		}
		writes[fieldKey] = value
	}

	if _, err := s.dbClient.Execute(queryDeletePendingWrites, sessionID); err != nil {
		logger.Error("Failed to delete flushed field writes", log.Error(err))
		return nil, fmt.Errorf("failed to delete flushed field writes: %w", err)
	}
	return writes, nil
}

// buildSnapshotFromResultRow builds a SessionSnapshotDB from a database result row.
func buildSnapshotFromResultRow(row map[string]interface{}) (*SessionSnapshotDB, error) {
	sessionID, ok := row["session_id"].(string)
	if !ok {
		return nil, errors.New("failed to parse session_id as string")
	}
	formID, ok := row["form_id"].(string)
	if !ok {
		return nil, errors.New("failed to parse form_id as string")
	}

	currentStepKey := parseOptionalString(row["current_step_key"])
	fieldValues := parseOptionalString(row["field_values"])
	backNav := parseOptionalString(row["back_nav"])
	offReason := parseOptionalString(row["off_reason"])
	completed := parseBoolean(row["completed"])

	snapshot := &SessionSnapshotDB{
		SessionID: sessionID,
		FormID:    formID,
		Completed: completed,
	}
	if currentStepKey != nil {
		snapshot.CurrentStepKey = *currentStepKey
	}
	if fieldValues != nil {
		snapshot.FieldValues = *fieldValues
	}
	if backNav != nil {
		snapshot.BackNav = *backNav
	}
	if offReason != nil {
		snapshot.OffReason = *offReason
	}
	return snapshot, nil
}

// parseOptionalString safely parses an optional string field from the database row.
func parseOptionalString(value interface{}) *string {
	if value == nil {
		return nil
	}
	if str, ok := value.(string); ok {
		return &str
	}
	if raw, ok := value.([]byte); ok {
		str := string(raw)
		return &str
	}
	return nil
}

// parseBoolean safely parses a boolean field from the database row with type
// conversion support for drivers that surface integers.
func parseBoolean(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}
