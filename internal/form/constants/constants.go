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

// Package constants defines the constants used across the form orchestration engine.
package constants

// SessionStatus defines the lifecycle status of a form session.
type SessionStatus string

const (
	// SessionStatusActive indicates that the session has a step loaded and accepts triggers.
	SessionStatusActive SessionStatus = "ACTIVE"
	// SessionStatusFinished indicates that the session reached a terminal step.
	SessionStatusFinished SessionStatus = "FINISHED"
	// SessionStatusOff indicates that the session was turned off before completion.
	SessionStatusOff SessionStatus = "OFF"
)

// OffReason sub-types the SessionStatusOff terminal outcome.
type OffReason string

const (
	// OffReasonClosed indicates the form was closed by the embedding application.
	OffReasonClosed OffReason = "CLOSED"
	// OffReasonCollaborationCompleted indicates the collaborator already completed their part.
	OffReasonCollaborationCompleted OffReason = "COLLABORATION_COMPLETED"
	// OffReasonCollaborationDisabled indicates collaboration is disabled for the submission.
	OffReasonCollaborationDisabled OffReason = "COLLABORATION_DISABLED"
	// OffReasonIneligibleEmail indicates the authenticated email is not eligible for the form.
	OffReasonIneligibleEmail OffReason = "INELIGIBLE_EMAIL"
)

// Event defines the lifecycle events that logic rules and callbacks can attach to.
type Event string

const (
	// EventLoad fires after a step is entered and its visibility is computed.
	EventLoad Event = "load"
	// EventChange fires when a field value changes through the store.
	EventChange Event = "change"
	// EventAction fires around an action chain execution.
	EventAction Event = "action"
	// EventSubmit fires when a submit trigger passes validation.
	EventSubmit Event = "submit"
	// EventError fires when an action chain reports an error.
	EventError Event = "error"
	// EventView fires when an element scrolls into view.
	EventView Event = "view"
	// EventComplete fires once when a terminal step is reached.
	EventComplete Event = "complete"
)

// RulePhase distinguishes the two action-event invocations around a chain.
type RulePhase string

const (
	// RulePhaseBefore runs before the first action of a chain executes.
	RulePhaseBefore RulePhase = "before"
	// RulePhaseAfter runs after the chain completes, errors out, or suspends.
	RulePhaseAfter RulePhase = "after"
)

// TriggerType defines the kind of element that initiated an action chain.
type TriggerType string

const (
	// TriggerTypeButton identifies a button element trigger.
	TriggerTypeButton TriggerType = "button"
	// TriggerTypeText identifies a text element trigger.
	TriggerTypeText TriggerType = "text"
	// TriggerTypeField identifies a field element trigger.
	TriggerTypeField TriggerType = "field"
	// TriggerTypeContainer identifies a container element trigger.
	TriggerTypeContainer TriggerType = "container"
)

// FieldType defines the declared type of a field.
type FieldType string

const (
	// FieldTypeText represents a free text field.
	FieldTypeText FieldType = "text"
	// FieldTypeInteger represents a numeric field.
	FieldTypeInteger FieldType = "integer"
	// FieldTypeCheckbox represents a boolean checkbox field.
	FieldTypeCheckbox FieldType = "checkbox"
	// FieldTypeSelect represents an option-list field.
	FieldTypeSelect FieldType = "select"
	// FieldTypeFile represents a file upload field.
	FieldTypeFile FieldType = "file"
	// FieldTypeHidden represents a pass-through field never rendered to the user.
	FieldTypeHidden FieldType = "hidden"
	// FieldTypePayment represents a payment method field.
	FieldTypePayment FieldType = "payment"
)

// CartFieldKey is the reserved hidden field holding the purchase cart as a
// product ID to quantity map. Commerce actions mutate it through the store's
// update entrypoint like any other field.
const CartFieldKey = "feathery.cart"
