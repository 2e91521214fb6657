package provider

import (
	"encoding/json"

	"github.com/pet-assistant/backend/internal/search"
)

// ServiceLookupToolName is the function the model calls to search the catalog.
const ServiceLookupToolName = "get_pet_service_from_query"

// ServiceLookupTool declares the catalog lookup to the model.
func ServiceLookupTool() Tool {
	return Tool{
		Name: ServiceLookupToolName,
		Description: "Use this tool when a user describes a pet-related need or situation that might require a service. " +
			"This includes travel, illness, behavior problems, grooming, sitting, or general care. " +
			"Always use this tool when the user asks for help without naming a specific service.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_query": map[string]any{
					"type":        "string",
					"description": "A short user message describing their pet's issue or need, like 'my dog is aggressive'.",
				},
			},
			"required": []string{"user_query"},
		},
	}
}

// BuildServicePrompt asks the model to present the matched service to the user.
func BuildServicePrompt(userQuery string, result search.MatchResult) string {
	return "The user's message was: '" + userQuery + "'.\n" +
		"The best-matching service is:\n\n" +
		"Title: " + result.Title + "\n" +
		"Description: " + result.Description + "\n\n" +
		"Please explain this service naturally to the user."
}

// ResultPayload is the tool result sent back to the model.
func ResultPayload(result search.MatchResult) map[string]any {
	return map[string]any{
		"result": map[string]any{
			"title":       result.Title,
			"description": result.Description,
		},
	}
}

func formatPayload(payload map[string]any) string {
	body, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(body)
}
