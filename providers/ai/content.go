package ai

import (
	"fmt"
	"slices"
)

// partKind names a part variant as it appears on the wire.
func partKind(part Part) string {
	switch part.(type) {
	case TextPart:
		return "text"
	case InlineDataPart:
		return "inlineData"
	case FunctionCallPart:
		return "functionCall"
	case FunctionResponsePart:
		return "functionResponse"
	case FileDataPart:
		return "fileData"
	case ExecutableCodePart:
		return "executableCode"
	case CodeExecutionResultPart:
		return "codeExecutionResult"
	default:
		return fmt.Sprintf("%T", part)
	}
}

// FormatNewContent turns the parts of one outgoing message into a turn. The
// role is "function" when every part is a function response and "user"
// otherwise; mixing the two is invalid-content.
func FormatNewContent(parts ...Part) (Content, error) {
	var userParts, functionParts Parts
	for _, part := range parts {
		if part == nil {
			return Content{}, NewError(ErrorCodeInvalidContent, "part is nil")
		}
		if _, ok := part.(FunctionResponsePart); ok {
			functionParts = append(functionParts, part)
		} else {
			userParts = append(userParts, part)
		}
	}

	switch {
	case len(userParts) > 0 && len(functionParts) > 0:
		return Content{}, NewError(ErrorCodeInvalidContent,
			"Within a single message, FunctionResponse cannot be mixed with other type of Part in the request for sending chat message.")
	case len(userParts) > 0:
		return Content{Role: RoleUser, Parts: userParts}, nil
	case len(functionParts) > 0:
		return Content{Role: RoleFunction, Parts: functionParts}, nil
	default:
		return Content{}, NewError(ErrorCodeInvalidContent, "No Content is provided for sending chat message.")
	}
}

var validPartsPerRole = map[string][]string{
	RoleUser:     {"text", "inlineData", "fileData"},
	RoleFunction: {"functionResponse"},
	RoleModel:    {"text", "inlineData", "functionCall", "executableCode", "codeExecutionResult"},
	RoleSystem:   {"text"},
}

var validPreviousRoles = map[string][]string{
	RoleUser:     {RoleModel},
	RoleFunction: {RoleModel},
	RoleModel:    {RoleUser, RoleFunction},
	RoleSystem:   {},
}

// ValidateChatHistory checks that history starts with a user turn, that
// roles alternate legally and that every turn only holds parts its role may
// carry. Thought parts are accepted from the model only.
func ValidateChatHistory(history []Content) error {
	var previous *Content
	for i := range history {
		current := &history[i]

		if previous == nil && current.Role != RoleUser {
			return NewError(ErrorCodeInvalidContent, fmt.Sprintf("First Content should be with role 'user', got %s", current.Role))
		}
		validParts, known := validPartsPerRole[current.Role]
		if !known {
			return NewError(ErrorCodeInvalidContent, fmt.Sprintf(
				"Each item should include role field. Got %s but valid roles are: [\"user\",\"model\",\"function\",\"system\"]", current.Role))
		}
		if len(current.Parts) == 0 {
			return NewError(ErrorCodeInvalidContent, "Each Content should have at least one part")
		}

		for _, part := range current.Parts {
			if part == nil {
				return NewError(ErrorCodeInvalidContent, "part is nil")
			}
			kind := partKind(part)
			if !slices.Contains(validParts, kind) {
				return NewError(ErrorCodeInvalidContent, fmt.Sprintf("Content with role '%s' can't contain '%s' part", current.Role, kind))
			}
			if part.Meta().Thought && current.Role != RoleModel {
				return NewError(ErrorCodeInvalidContent, fmt.Sprintf("Content with role '%s' can't contain 'thought' part", current.Role))
			}
		}

		if previous != nil && !slices.Contains(validPreviousRoles[current.Role], previous.Role) {
			return NewError(ErrorCodeInvalidContent, fmt.Sprintf("Content with role '%s' can't follow '%s'", current.Role, previous.Role))
		}
		previous = current
	}
	return nil
}
