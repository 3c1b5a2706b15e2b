package adapter

// GeminiAPIVersion is the generateContent API surface the adapter targets.
const GeminiAPIVersion = "v1beta"

// GeminiRequest represents a Gemini generateContent request.
type GeminiRequest struct {
	Contents       []GeminiContent       `json:"contents"`
	SafetySettings []GeminiSafetySetting `json:"safetySettings,omitempty"`
}

// GeminiContent represents a content block in Gemini format.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of a content block.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiSafetySetting configures content safety filtering.
type GeminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// DefaultGeminiSafetySettings relaxes the harassment filter only.
var DefaultGeminiSafetySettings = []GeminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
}
