package translation

import "polyglot/internal/models"

// SystemPrompt instructs the backend to behave as a translator that returns bare text.
const SystemPrompt = "You are a highly accurate and fluent language translator. " +
	"Your task is to translate the given sentence into the specified target language. " +
	"Provide only the translated text, without any additional commentary, explanations, or formatting."

// BuildPrompt renders the system and user instructions for req. The sentence is quoted
// verbatim; embedded quotes are left as they are.
func BuildPrompt(req Request) []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: SystemPrompt},
		{Role: models.RoleUser, Content: UserPrompt(req)},
	}
}

// UserPrompt returns the user instruction for req.
func UserPrompt(req Request) string {
	return "Translate the following sentence into " + req.TargetLanguage + ":\n\n\"" + req.Sentence + "\""
}
