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

package model

import (
	"github.com/feathery-org/formflow/internal/form/constants"
)

// Action is one tagged variant of the closed action set, declared per element
// and immutable once loaded. Type-specific parameters stay in Params and are
// decoded by the executing handler.
type Action struct {
	// Type tags the variant.
	Type constants.ActionType
	// Params carries the type-specific parameters of the action.
	Params map[string]interface{}
}

// ChainActionTypes lists the action types of a chain in execution order.
func ChainActionTypes(actions []Action) []constants.ActionType {
	types := make([]constants.ActionType, len(actions))
	for i, act := range actions {
		types[i] = act.Type
	}
	return types
}

// Trigger is the initiating entity attached to every action execution and
// every logic-rule invocation for that event.
type Trigger struct {
	// ID is the element identifier that initiated the chain.
	ID string
	// Type is the kind of initiating element.
	Type constants.TriggerType
	// Text is the label of the initiating element, when it has one.
	Text string
	// RepeatIndex is the repetition the element was rendered in, -1 outside
	// repeating containers.
	RepeatIndex int
}

// StoreFieldParams are the decoded parameters of a STORE_FIELD action.
type StoreFieldParams struct {
	// FieldKey is the key of the field to write.
	FieldKey string `mapstructure:"field_key"`
	// Value is the value to store.
	Value interface{} `mapstructure:"value"`
	// Toggle resets the field to its type default when the stored value
	// already equals Value.
	Toggle bool `mapstructure:"toggle"`
}

// RepeatedRowParams are the decoded parameters of the repeated-row actions.
type RepeatedRowParams struct {
	// ContainerID identifies the repeating container to mutate.
	ContainerID string `mapstructure:"container_id"`
	// Index is the repetition to remove; append when adding and negative.
	Index int `mapstructure:"index"`
}

// URLParams are the decoded parameters of a URL action.
type URLParams struct {
	// URL is the navigation target.
	URL string `mapstructure:"url"`
	// NewTab opens the target without leaving the form.
	NewTab bool `mapstructure:"new_tab"`
}

// ProductParams are the decoded parameters of the commerce actions.
type ProductParams struct {
	// ProductID identifies the product to add or remove.
	ProductID string `mapstructure:"product_id"`
	// Quantity is the cart quantity, defaulting to one.
	Quantity int `mapstructure:"quantity"`
}

// CollaboratorParams are the decoded parameters of the collaboration actions.
type CollaboratorParams struct {
	// EmailFieldKey is the field holding the collaborator email address.
	EmailFieldKey string `mapstructure:"email_field_key"`
	// TemplateID selects the invitation template.
	TemplateID string `mapstructure:"template_id"`
}
