package ai

/*
	##### REQUEST #####
*/

// Role values used in [Content].
const (
	RoleUser     = "user"
	RoleModel    = "model"
	RoleFunction = "function"
	RoleSystem   = "system"
)

// Content is one turn of a conversation: a role tag and an ordered list of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts Parts  `json:"parts"`
}

// NewUserContent builds a user turn from the given parts.
func NewUserContent(parts ...Part) Content {
	return Content{Role: RoleUser, Parts: parts}
}

// GenerateContentRequest is the canonical generation request.
type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	ToolConfig        *ToolConfig       `json:"toolConfig,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
}

// GenerationConfig holds sampling and output parameters.
// TopK is a float because callers may pass non-integral values; the Google AI
// dialect rounds it.
type GenerationConfig struct {
	CandidateCount     *int            `json:"candidateCount,omitempty"`
	MaxOutputTokens    *int            `json:"maxOutputTokens,omitempty"`
	Temperature        *float64        `json:"temperature,omitempty"`
	TopP               *float64        `json:"topP,omitempty"`
	TopK               *float64        `json:"topK,omitempty"`
	PresencePenalty    *float64        `json:"presencePenalty,omitempty"`
	FrequencyPenalty   *float64        `json:"frequencyPenalty,omitempty"`
	StopSequences      []string        `json:"stopSequences,omitempty"`
	ResponseMimeType   string          `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema         `json:"responseSchema,omitempty"`
	ResponseModalities []string        `json:"responseModalities,omitempty"`
	ThinkingConfig     *ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// ThinkingConfig controls model reasoning.
type ThinkingConfig struct {
	ThinkingBudget  *int `json:"thinkingBudget,omitempty"`
	IncludeThoughts bool `json:"includeThoughts,omitempty"`
}

// Response modalities.
const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
	ModalityAudio = "AUDIO"
)

// SafetySetting adjusts blocking for one harm category. Method is only
// understood by the Vertex AI backend.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
	Method    string `json:"method,omitempty"`
}

// Tool declares functions or built-in tools the model may use.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         *GoogleSearch         `json:"googleSearch,omitempty"`
	CodeExecution        *CodeExecutionTool    `json:"codeExecution,omitempty"`
	URLContext           *URLContextTool       `json:"urlContext,omitempty"`
}

// GoogleSearch enables search grounding.
type GoogleSearch struct{}

// CodeExecutionTool enables the code execution sandbox.
type CodeExecutionTool struct{}

// URLContextTool enables URL context retrieval.
type URLContextTool struct{}

// FunctionDeclaration describes a callable function.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// ToolConfig configures how the model uses tools.
type ToolConfig struct {
	FunctionCallingConfig *FunctionCallingConfig `json:"functionCallingConfig,omitempty"`
}

// FunctionCallingConfig selects the function calling mode.
type FunctionCallingConfig struct {
	Mode                 string   `json:"mode,omitempty"` // AUTO, ANY, NONE
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

// CountTokensRequest is the canonical token counting request.
type CountTokensRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

/*
	##### RESPONSE #####
*/

// GenerateContentResponse is the canonical generation response.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
}

// Candidate is one generated alternative. Index is always encoded because one
// backend omits it when it is zero.
type Candidate struct {
	Index              int                 `json:"index"`
	Content            *Content            `json:"content,omitempty"`
	FinishReason       string              `json:"finishReason,omitempty"`
	FinishMessage      string              `json:"finishMessage,omitempty"`
	SafetyRatings      []SafetyRating      `json:"safetyRatings,omitempty"`
	CitationMetadata   *CitationMetadata   `json:"citationMetadata,omitempty"`
	GroundingMetadata  *GroundingMetadata  `json:"groundingMetadata,omitempty"`
	URLContextMetadata *URLContextMetadata `json:"urlContextMetadata,omitempty"`
}

// Finish reasons.
const (
	FinishReasonStop       = "STOP"
	FinishReasonMaxTokens  = "MAX_TOKENS"
	FinishReasonSafety     = "SAFETY"
	FinishReasonRecitation = "RECITATION"
	FinishReasonOther      = "OTHER"
)

// HarmSeverityUnsupported fills severities the Google AI backend does not report.
const HarmSeverityUnsupported = "HARM_SEVERITY_UNSUPPORTED"

// SafetyRating is the rating of one harm category.
type SafetyRating struct {
	Category         string  `json:"category"`
	Probability      string  `json:"probability"`
	Severity         string  `json:"severity"`
	ProbabilityScore float64 `json:"probabilityScore"`
	SeverityScore    float64 `json:"severityScore"`
	Blocked          bool    `json:"blocked,omitempty"`
}

// CitationMetadata lists the sources cited by a candidate.
type CitationMetadata struct {
	Citations []Citation `json:"citations"`
}

// Citation is one cited source.
type Citation struct {
	StartIndex      int          `json:"startIndex,omitempty"`
	EndIndex        int          `json:"endIndex,omitempty"`
	URI             string       `json:"uri,omitempty"`
	License         string       `json:"license,omitempty"`
	Title           string       `json:"title,omitempty"`
	PublicationDate *DateMessage `json:"publicationDate,omitempty"`
}

// DateMessage is a calendar date.
type DateMessage struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// GroundingMetadata describes search grounding for a candidate.
type GroundingMetadata struct {
	SearchEntryPoint  *SearchEntryPoint  `json:"searchEntryPoint,omitempty"`
	GroundingChunks   []GroundingChunk   `json:"groundingChunks,omitempty"`
	GroundingSupports []GroundingSupport `json:"groundingSupports,omitempty"`
	WebSearchQueries  []string           `json:"webSearchQueries,omitempty"`
}

// SearchEntryPoint carries the rendered search suggestion HTML.
type SearchEntryPoint struct {
	RenderedContent string `json:"renderedContent,omitempty"`
}

// GroundingChunk is one grounding source.
type GroundingChunk struct {
	Web *WebGroundingChunk `json:"web,omitempty"`
}

// WebGroundingChunk is a web grounding source.
type WebGroundingChunk struct {
	URI    string `json:"uri,omitempty"`
	Title  string `json:"title,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// GroundingSupport links a text segment to grounding chunks.
type GroundingSupport struct {
	Segment               *Segment `json:"segment,omitempty"`
	GroundingChunkIndices []int    `json:"groundingChunkIndices,omitempty"`
}

// Segment is a span of generated text.
type Segment struct {
	PartIndex  int    `json:"partIndex,omitempty"`
	StartIndex int    `json:"startIndex,omitempty"`
	EndIndex   int    `json:"endIndex,omitempty"`
	Text       string `json:"text,omitempty"`
}

// URLContextMetadata reports URL retrieval results.
type URLContextMetadata struct {
	URLMetadata []URLMetadata `json:"urlMetadata,omitempty"`
}

// URLMetadata is the retrieval status of one URL.
type URLMetadata struct {
	RetrievedURL       string `json:"retrievedUrl,omitempty"`
	URLRetrievalStatus string `json:"urlRetrievalStatus,omitempty"`
}

// PromptFeedback reports prompt-level blocking.
type PromptFeedback struct {
	BlockReason        string         `json:"blockReason,omitempty"`
	BlockReasonMessage string         `json:"blockReasonMessage,omitempty"`
	SafetyRatings      []SafetyRating `json:"safetyRatings,omitempty"`
}

// UsageMetadata holds token counts.
type UsageMetadata struct {
	PromptTokenCount        int                  `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount    int                  `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount         int                  `json:"totalTokenCount,omitempty"`
	ThoughtsTokenCount      int                  `json:"thoughtsTokenCount,omitempty"`
	ToolUsePromptTokenCount int                  `json:"toolUsePromptTokenCount,omitempty"`
	CachedContentTokenCount int                  `json:"cachedContentTokenCount,omitempty"`
	PromptTokensDetails     []ModalityTokenCount `json:"promptTokensDetails,omitempty"`
	CandidatesTokensDetails []ModalityTokenCount `json:"candidatesTokensDetails,omitempty"`
}

// ModalityTokenCount is a per-modality token count.
type ModalityTokenCount struct {
	Modality   string `json:"modality"`
	TokenCount int    `json:"tokenCount"`
}

// CountTokensResponse is the result of a token count.
type CountTokensResponse struct {
	TotalTokens             int                  `json:"totalTokens"`
	TotalBillableCharacters int                  `json:"totalBillableCharacters,omitempty"`
	PromptTokensDetails     []ModalityTokenCount `json:"promptTokensDetails,omitempty"`
}
