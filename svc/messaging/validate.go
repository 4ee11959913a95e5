package messaging

import (
	"strings"
	"unicode/utf8"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

const (
	MaxIDLength      = 200
	MaxMessageLength = 5000
)

func idRules(field, id string) []validator.Rule {
	return []validator.Rule{
		validator.RequiredString(field, id),
		validator.MaxRunes(field, id, MaxIDLength),
	}
}

func kindRule(field string, kind directory.Kind) validator.Rule {
	return validator.OneOf(field, kind, directory.TenantKinds)
}

// ValidateUserConversation checks the company a user wants to contact.
func ValidateUserConversation(tenantID string) error {
	return validator.Apply(idRules("tenantId", strings.TrimSpace(tenantID))...)
}

// ValidateBusinessConversation checks both sides of a tenant to tenant
// conversation. A tenant cannot open a conversation with itself.
func ValidateBusinessConversation(fromKind directory.Kind, fromID string, toKind directory.Kind, toID string) error {
	fromID, toID = strings.TrimSpace(fromID), strings.TrimSpace(toID)

	rules := []validator.Rule{kindRule("fromType", fromKind)}
	rules = append(rules, idRules("fromId", fromID)...)
	rules = append(rules, kindRule("toType", toKind))
	rules = append(rules, idRules("toId", toID)...)
	rules = append(rules, validator.NotEqual("toId",
		directory.TenantRef{Kind: toKind, ID: toID},
		directory.TenantRef{Kind: fromKind, ID: fromID},
	))
	return validator.Apply(rules...)
}

// ValidateConversationID checks an id taken from a path.
func ValidateConversationID(id string) error {
	return validator.Apply(idRules("conversationId", id)...)
}

// ValidateMessageText trims text and checks it is between 1 and
// MaxMessageLength characters. It returns the trimmed text.
func ValidateMessageText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	err := validator.Apply(
		validator.Rule{
			Check: func() bool { return trimmed != "" },
			Error: validator.ValidationError{
				Field:          "text",
				Message:        "message requires text",
				TranslationKey: "messages.text_required",
			},
		},
		validator.Rule{
			Check: func() bool { return utf8.RuneCountInString(trimmed) <= MaxMessageLength },
			Error: validator.ValidationError{
				Field:             "text",
				Message:           "message is too long",
				TranslationKey:    "messages.text_too_long",
				TranslationValues: map[string]any{"max": MaxMessageLength},
			},
		},
	)
	if err != nil {
		return "", err
	}
	return trimmed, nil
}

var sides = []directory.Kind{directory.KindUser, directory.KindCompany, directory.KindSupplier}

// ParseSide reads the side a principal acts as in a conversation: "user",
// a tenant kind, or empty for whichever single side the principal holds.
func ParseSide(s string) (directory.Kind, error) {
	kind := directory.Kind(strings.ToLower(strings.TrimSpace(s)))
	if kind == "" {
		return "", nil
	}
	if err := validator.Apply(validator.OneOf("as", kind, sides)); err != nil {
		return "", err
	}
	return kind, nil
}
