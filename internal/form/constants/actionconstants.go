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

package constants

// ActionType defines the closed set of action types the executor supports.
type ActionType string

const (
	// ActionNext navigates to the step resolved from the current step's conditions.
	ActionNext ActionType = "NEXT"
	// ActionBack navigates to the step recorded in the back-navigation map.
	ActionBack ActionType = "BACK"
	// ActionAddRepeatedRow appends a repetition to a repeating container.
	ActionAddRepeatedRow ActionType = "ADD_REPEATED_ROW"
	// ActionRemoveRepeatedRow removes a repetition from a repeating container.
	ActionRemoveRepeatedRow ActionType = "REMOVE_REPEATED_ROW"
	// ActionStoreField writes a value into a field through the store.
	ActionStoreField ActionType = "STORE_FIELD"
	// ActionVerifyIdentity hands off to the identity verification provider.
	ActionVerifyIdentity ActionType = "VERIFY_IDENTITY"
	// ActionLinkPlaid hands off to the Plaid bank-link provider.
	ActionLinkPlaid ActionType = "LINK_PLAID"
	// ActionLinkArgyle hands off to the Argyle bank-link provider.
	ActionLinkArgyle ActionType = "LINK_ARGYLE"
	// ActionLinkPinwheel hands off to the Pinwheel bank-link provider.
	ActionLinkPinwheel ActionType = "LINK_PINWHEEL"
	// ActionLinkPaymentMethod hands off to the payment provider to collect a payment method.
	ActionLinkPaymentMethod ActionType = "LINK_PAYMENT_METHOD"
	// ActionGenerateEnvelopes generates e-signature envelopes for configured documents.
	ActionGenerateEnvelopes ActionType = "GENERATE_ENVELOPES"
	// ActionGenerateDocuments fills templated documents from field values.
	ActionGenerateDocuments ActionType = "GENERATE_DOCUMENTS"
	// ActionAIExtraction runs AI document extraction into field values.
	ActionAIExtraction ActionType = "AI_EXTRACTION"
	// ActionSendSMSMessage sends a plain SMS message.
	ActionSendSMSMessage ActionType = "SEND_SMS_MESSAGE"
	// ActionSendSMSCode sends a one-time code over SMS.
	ActionSendSMSCode ActionType = "SEND_SMS_CODE"
	// ActionVerifySMSCode verifies a one-time code received over SMS.
	ActionVerifySMSCode ActionType = "VERIFY_SMS_CODE"
	// ActionSendEmailCode sends a one-time code over email.
	ActionSendEmailCode ActionType = "SEND_EMAIL_CODE"
	// ActionVerifyEmailCode verifies a one-time code received over email.
	ActionVerifyEmailCode ActionType = "VERIFY_EMAIL_CODE"
	// ActionSendMagicLink sends a magic sign-in link over email.
	ActionSendMagicLink ActionType = "SEND_MAGIC_LINK"
	// ActionSelectProduct adds a product to the purchase cart.
	ActionSelectProduct ActionType = "SELECT_PRODUCT_TO_PURCHASE"
	// ActionRemoveProduct removes a product from the purchase cart.
	ActionRemoveProduct ActionType = "REMOVE_PRODUCT_FROM_PURCHASE"
	// ActionPurchaseProducts completes the purchase of the carted products.
	ActionPurchaseProducts ActionType = "PURCHASE_PRODUCTS"
	// ActionInviteCollaborator invites a collaborator to the submission.
	ActionInviteCollaborator ActionType = "INVITE_COLLABORATOR"
	// ActionVerifyCollaborator verifies the identity of an invited collaborator.
	ActionVerifyCollaborator ActionType = "VERIFY_COLLABORATOR"
	// ActionRewindCollaboration rewinds the collaboration to an earlier participant.
	ActionRewindCollaboration ActionType = "REWIND_COLLABORATION"
	// ActionNewSubmission starts a fresh submission for the current form.
	ActionNewSubmission ActionType = "NEW_SUBMISSION"
	// ActionLogout signs the user out of the session.
	ActionLogout ActionType = "LOGOUT"
	// ActionOAuthLogin initiates an OAuth login with a configured provider.
	ActionOAuthLogin ActionType = "OAUTH_LOGIN"
	// ActionURL navigates the embedding application to a URL.
	ActionURL ActionType = "URL"
)

// actionRanks is the total order over action types used to sort a chain before
// execution. Form-state mutations run before navigation, navigation before
// external handoffs, and URL navigation last since it leaves the form.
var actionRanks = map[ActionType]int{
	ActionStoreField:          10,
	ActionSelectProduct:       15,
	ActionRemoveProduct:       15,
	ActionAddRepeatedRow:      20,
	ActionRemoveRepeatedRow:   20,
	ActionSendSMSMessage:      30,
	ActionSendSMSCode:         30,
	ActionVerifySMSCode:       31,
	ActionSendEmailCode:       30,
	ActionVerifyEmailCode:     31,
	ActionSendMagicLink:       32,
	ActionInviteCollaborator:  35,
	ActionVerifyCollaborator:  35,
	ActionRewindCollaboration: 36,
	ActionNewSubmission:       40,
	ActionLogout:              41,
	ActionOAuthLogin:          42,
	ActionBack:                50,
	ActionNext:                51,
	ActionPurchaseProducts:    60,
	ActionLinkPaymentMethod:   61,
	ActionVerifyIdentity:      62,
	ActionLinkPlaid:           63,
	ActionLinkArgyle:          63,
	ActionLinkPinwheel:        63,
	ActionAIExtraction:        64,
	ActionGenerateDocuments:   65,
	ActionGenerateEnvelopes:   66,
	ActionURL:                 90,
}

// ActionRank returns the execution rank of an action type. Unknown types sort
// last so a malformed definition cannot starve declared actions.
func ActionRank(actionType ActionType) int {
	if rank, ok := actionRanks[actionType]; ok {
		return rank
	}
	return 100
}

// AllActionTypes returns every action type the executor supports.
func AllActionTypes() []ActionType {
	types := make([]ActionType, 0, len(actionRanks))
	for actionType := range actionRanks {
		types = append(types, actionType)
	}
	return types
}

// IsExternalFlowAction reports whether the action hands control to a
// third-party flow provider and resumes the chain asynchronously.
func IsExternalFlowAction(actionType ActionType) bool {
	switch actionType {
	case ActionVerifyIdentity, ActionLinkPlaid, ActionLinkArgyle, ActionLinkPinwheel,
		ActionLinkPaymentMethod, ActionGenerateEnvelopes, ActionGenerateDocuments,
		ActionAIExtraction, ActionPurchaseProducts, ActionOAuthLogin:
		return true
	default:
		return false
	}
}
