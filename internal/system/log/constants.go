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

package log

// LogLevelEnvironmentVariable is the environment variable used to configure the log level.
const LogLevelEnvironmentVariable = "FORMFLOW_LOG_LEVEL"

const (
	// LoggerKeyComponentName is the key used to identify the component name in the logger.
	LoggerKeyComponentName = "component"
	// LoggerKeySessionID is the key used to identify the form session ID in the logger.
	LoggerKeySessionID = "sessionId"
	// LoggerKeyStepKey is the key used to identify the step key in the logger.
	LoggerKeyStepKey = "stepKey"
	// LoggerKeyElementID is the key used to identify the triggering element ID in the logger.
	LoggerKeyElementID = "elementId"
	// LoggerKeyRuleName is the key used to identify the logic rule name in the logger.
	LoggerKeyRuleName = "ruleName"
	// LoggerKeyFieldKey is the key used to identify the field key in the logger.
	LoggerKeyFieldKey = "fieldKey"
	// LoggerKeyActionType is the key used to identify the action type in the logger.
	LoggerKeyActionType = "actionType"
)
