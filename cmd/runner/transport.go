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

package main

import (
	"context"

	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/log"
)

// localTransport is a loopback transport for offline runs. Every operation
// succeeds and is logged so a scripted session can execute without a backend.
type localTransport struct{}

func (t *localTransport) FetchForm(_ context.Context, formKey string) ([]byte, error) {
	log.GetLogger().Debug("Local transport: form fetch skipped", log.String("formKey", formKey))
	return nil, nil
}

func (t *localTransport) FetchSession(_ context.Context, formKey string) (*model.SessionState, error) {
	log.GetLogger().Debug("Local transport: no stored session", log.String("formKey", formKey))
	return nil, nil
}

func (t *localTransport) SubmitStep(_ context.Context, stepKey string, payload map[string]interface{}) error {
	log.GetLogger().Info("Local transport: step submitted",
		log.String(log.LoggerKeyStepKey, stepKey), log.Int("fieldCount", len(payload)))
	return nil
}

func (t *localTransport) RegisterEvent(_ context.Context, event string, _ map[string]interface{}) error {
	log.GetLogger().Debug("Local transport: event registered", log.String("event", event))
	return nil
}

func (t *localTransport) SubmitCustom(_ context.Context, values map[string]interface{}) error {
	log.GetLogger().Debug("Local transport: custom fields submitted", log.Int("fieldCount", len(values)))
	return nil
}

func (t *localTransport) FlushCustomFields(_ context.Context) error {
	return nil
}
