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
	"fmt"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/model"
)

// SessionSnapshotDB is the database representation of a session snapshot.
// Field values and the back-navigation map are stored as JSON documents.
type SessionSnapshotDB struct {
	SessionID      string
	FormID         string
	CurrentStepKey string
	FieldValues    string
	BackNav        string
	Completed      bool
	OffReason      string
}

// FromSessionState converts session state into the database model.
func FromSessionState(sessionID, formID string, state *model.SessionState) (*SessionSnapshotDB, error) {
	fieldValuesJSON, err := json.Marshal(state.FieldValues)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field values: %w", err)
	}
	backNavJSON, err := json.Marshal(state.BackNav)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal back navigation map: %w", err)
	}

	return &SessionSnapshotDB{
		SessionID:      sessionID,
		FormID:         formID,
		CurrentStepKey: state.CurrentStepKey,
		FieldValues:    string(fieldValuesJSON),
		BackNav:        string(backNavJSON),
		Completed:      state.Completed,
		OffReason:      string(state.OffReason),
	}, nil
}

// ToSessionState converts the database model back into session state.
func (s *SessionSnapshotDB) ToSessionState() (*model.SessionState, error) {
	fieldValues := make(map[string]interface{})
	if s.FieldValues != "" {
		if err := json.Unmarshal([]byte(s.FieldValues), &fieldValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field values: %w", err)
		}
	}
	backNav := make(map[string]string)
	if s.BackNav != "" {
		if err := json.Unmarshal([]byte(s.BackNav), &backNav); err != nil {
			return nil, fmt.Errorf("failed to unmarshal back navigation map: %w", err)
		}
	}

	return &model.SessionState{
		CurrentStepKey: s.CurrentStepKey,
		FieldValues:    fieldValues,
		BackNav:        backNav,
		Completed:      s.Completed,
		OffReason:      constants.OffReason(s.OffReason),
	}, nil
}
