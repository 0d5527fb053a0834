package chat

import (
	"github.com/chatpdfy/chatpdfy/internal/conversation"
	"github.com/chatpdfy/chatpdfy/internal/gemini"
)

// ContextSuffixMarker introduces injected document context in the final
// payload element.
const ContextSuffixMarker = "\n\n---\nPDF Content:\n"

// BuildPayload projects the conversation log into the upstream request.
// File-summary turns are excluded: their extracted text only ever reaches the
// model through the corpus injection. When a corpus is present it is appended
// to the text of the last element, which is always the user turn that
// triggered the send.
func BuildPayload(turns []conversation.Turn, corpus string) []gemini.Content {
	contents := make([]gemini.Content, 0, len(turns))
	for _, t := range turns {
		if t.Kind == conversation.KindFileSummary {
			continue
		}
		role := "model"
		if t.Role == conversation.RoleUser {
			role = "user"
		}
		contents = append(contents, gemini.Content{
			Role:  role,
			Parts: []gemini.Part{{Text: t.Content}},
		})
	}

	if corpus != "" && len(contents) > 0 {
		last := &contents[len(contents)-1]
		last.Parts[0].Text += ContextSuffixMarker + corpus
	}
	return contents
}
