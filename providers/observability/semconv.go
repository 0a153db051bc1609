package observability

// Attribute keys, span names, event names and metric names shared by the
// client, the HTTP pipeline and the live session.

// --- Generation attributes ---

const (
	// AttrBackend is the wire dialect ("vertexai" or "googleai").
	AttrBackend = "genai.backend"

	// AttrModel is the normalised model resource name.
	AttrModel = "genai.model"

	// AttrTemplate is the server prompt template id.
	AttrTemplate = "genai.template"

	// AttrTask is the endpoint task (generateContent, countTokens, ...).
	AttrTask = "genai.task"

	// AttrFinishReason is the first candidate's finish reason.
	AttrFinishReason = "genai.finish_reason"

	// AttrCandidateCount is the number of candidates in a response.
	AttrCandidateCount = "genai.candidates"

	// AttrStreamFrames is the number of frames read from a stream.
	AttrStreamFrames = "genai.stream.frames"

	// AttrRequestContents is the number of contents in a request.
	AttrRequestContents = "genai.request.contents"

	// AttrRetryAttempt is the 1-based attempt number of a retried call.
	AttrRetryAttempt = "genai.retry.attempt"
)

// --- Token usage ---

const (
	AttrTokensPrompt     = "genai.tokens.prompt"     // #nosec G101 -- model tokens
	AttrTokensCandidates = "genai.tokens.candidates" // #nosec G101 -- model tokens
	AttrTokensThoughts   = "genai.tokens.thoughts"   // #nosec G101 -- model tokens
	AttrTokensTotal      = "genai.tokens.total"      // #nosec G101 -- model tokens

	// AttrCostEstimate is the estimated request price in USD.
	AttrCostEstimate = "genai.cost.estimate_usd"
)

// --- HTTP ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
	AttrHTTPDuration         = "http.request.duration"
)

// --- Live session ---

const (
	// AttrLiveMessageType is the classified type of an inbound live message.
	AttrLiveMessageType = "live.message.type"

	// AttrLiveModalities lists the response modalities requested at setup.
	AttrLiveModalities = "live.response_modalities"

	// AttrLiveCloseCode is the close code sent to the transport.
	AttrLiveCloseCode = "live.close.code"
)

// --- General ---

const (
	AttrError             = "error"
	AttrErrorCode         = "error.code"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span names ---

const (
	SpanGenerateContent       = "genai.generate_content"
	SpanStreamGenerateContent = "genai.stream_generate_content"
	SpanCountTokens           = "genai.count_tokens"
	SpanGenerateImages        = "genai.generate_images"
	SpanChatSendMessage       = "genai.chat.send_message"
	SpanLiveSession           = "genai.live.session"
)

// --- Event names ---

const (
	EventHTTPRequestPrepared  = "http.request.prepared"
	EventHTTPRequestError     = "http.request.error"
	EventHTTPResponseReceived = "http.response.received"
	EventStreamFrame          = "genai.stream.frame"
	EventStreamDone           = "genai.stream.done"
	EventRetry                = "genai.retry"
	EventLiveSetupComplete    = "live.setup_complete"
	EventLiveMessage          = "live.message"
	EventLiveClosed           = "live.closed"
)

// --- Metric names ---

const (
	MetricRequestCount    = "fireai.request.count"
	MetricRequestDuration = "fireai.request.duration"
	MetricRequestErrors   = "fireai.request.errors"
	MetricTokensTotal     = "fireai.tokens.total"  // #nosec G101 -- model tokens
	MetricTokensPrompt    = "fireai.tokens.prompt" // #nosec G101 -- model tokens
	MetricCostEstimate    = "fireai.cost.estimate_usd"
)
