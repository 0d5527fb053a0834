package gemini

import (
	"errors"
	"fmt"
)

// FallbackReply is returned when the API answered 2xx but the response shape
// carried no usable text.
const FallbackReply = "Sorry, I couldn't understand that."

// StatusError reports a non-2xx response from the completion API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini http status %d", e.Code)
}

// UserMessage converts a Generate failure into the text of the assistant turn
// shown to the user. Raw transport errors never reach the conversation.
func UserMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("API request failed with status %d", statusErr.Code)
	}
	return "Oops! Something went wrong while getting the answer."
}
