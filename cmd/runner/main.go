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

// Package main is the entry point for the formflow session runner. It loads
// a form definition, starts a session, and replays a scripted interaction
// against it, printing the resulting state.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/feathery-org/formflow/internal/form/composer"
	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/engine"
	"github.com/feathery-org/formflow/internal/form/model"
	formstore "github.com/feathery-org/formflow/internal/form/store"
	"github.com/feathery-org/formflow/internal/system/config"
	"github.com/feathery-org/formflow/internal/system/database/provider"
	"github.com/feathery-org/formflow/internal/system/log"
)

func main() {
	logger := log.GetLogger()
	defer logger.Sync()

	formPath := flag.String("form", "", "Path to the form definition JSON file")
	configPath := flag.String("config", "", "Path to the runtime configuration file")
	scriptPath := flag.String("script", "", "Path to a session script JSON file to replay")
	flag.Parse()

	if *formPath == "" {
		logger.Fatal("A form definition file is required; pass -form")
	}

	cfg := loadConfiguration(logger, *configPath)
	form := loadForm(logger, *formPath)

	opts := engine.Options{
		Config:    cfg,
		Transport: &localTransport{},
	}
	if cfg.Database.Type != "" {
		dbClient, err := provider.NewDBProvider(cfg.Database).GetDBClient()
		if err != nil {
			logger.Fatal("Failed to initialize database client", log.Error(err))
		}
		defer func() {
			if closeErr := dbClient.Close(); closeErr != nil {
				logger.Error("Failed to close database client", log.Error(closeErr))
			}
		}()
		opts.SessionStore = formstore.NewSessionStore(dbClient)
	}

	session, svcErr := engine.NewSession(form, opts)
	if svcErr != nil {
		logger.Fatal("Failed to create session", log.String("description", svcErr.ErrorDescription))
	}

	ctx := context.Background()
	if svcErr := session.Start(ctx); svcErr != nil {
		logger.Fatal("Failed to start session", log.String("description", svcErr.ErrorDescription))
	}

	if *scriptPath != "" {
		replayScript(ctx, logger, session, *scriptPath)
	}

	printState(session)
}

// loadConfiguration loads the runtime configuration, falling back to the
// defaults when no file is given.
func loadConfiguration(logger *log.Logger, path string) *config.Config {
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Fatal("Failed to load configuration", log.String("path", path), log.Error(err))
	}
	return cfg
}

// loadForm reads and composes the form definition.
func loadForm(logger *log.Logger, path string) *model.Form {
	raw, err := os.ReadFile(path) // #nosec G304 - path is an operator-supplied argument
	if err != nil {
		logger.Fatal("Failed to read form definition", log.String("path", path), log.Error(err))
	}
	def, err := composer.DecodeForm(raw)
	if err != nil {
		logger.Fatal("Failed to decode form definition", log.Error(err))
	}
	form, err := composer.ComposeForm(def)
	if err != nil {
		logger.Fatal("Failed to compose form", log.Error(err))
	}
	return form
}

// scriptEvent is one replayed interaction.
type scriptEvent struct {
	Type      string                 `json:"type"`
	ElementID string                 `json:"element_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// replayScript replays the scripted interactions in order.
func replayScript(ctx context.Context, logger *log.Logger, session *engine.Session, path string) {
	raw, err := os.ReadFile(path) // #nosec G304 - path is an operator-supplied argument
	if err != nil {
		logger.Fatal("Failed to read session script", log.String("path", path), log.Error(err))
	}
	var events []scriptEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		logger.Fatal("Failed to decode session script", log.Error(err))
	}

	for i, event := range events {
		switch event.Type {
		case "change":
			session.HandleFieldChange(ctx, event.Fields)
		case "trigger":
			trigger := &model.Trigger{
				ID:          event.ElementID,
				Type:        constants.TriggerTypeButton,
				RepeatIndex: -1,
			}
			if svcErr := session.HandleTrigger(ctx, trigger); svcErr != nil {
				logger.Warn("Trigger rejected", log.Int("event", i),
					log.String("description", svcErr.ErrorDescription))
			}
		case "view":
			session.HandleView(event.ElementID)
		default:
			logger.Warn("Skipping unknown script event type", log.String("type", event.Type))
		}
	}
}

// printState prints the session's final step, status, and field values.
func printState(session *engine.Session) {
	state := map[string]interface{}{
		"session_id": session.ID(),
		"step_key":   session.CurrentStepKey(),
		"status":     session.Status(),
		"fields":     session.Values(),
		"errors":     session.InlineErrors(),
	}
	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		fmt.Println("failed to render session state:", err)
		return
	}
	fmt.Println(string(out))
}
