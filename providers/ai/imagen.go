package ai

import (
	"encoding/json"
	"fmt"
)

// Aspect ratios accepted by Imagen models.
const (
	ImagenAspectRatioSquare        = "1:1"
	ImagenAspectRatioPortrait3x4   = "3:4"
	ImagenAspectRatioLandscape4x3  = "4:3"
	ImagenAspectRatioLandscape16x9 = "16:9"
	ImagenAspectRatioPortrait9x16  = "9:16"
)

// Safety filter levels for Imagen requests.
const (
	ImagenSafetyFilterBlockLowAndAbove    = "block_low_and_above"
	ImagenSafetyFilterBlockMediumAndAbove = "block_medium_and_above"
	ImagenSafetyFilterBlockOnlyHigh       = "block_only_high"
	ImagenSafetyFilterBlockNone           = "block_none"
)

// Person generation policies for Imagen requests.
const (
	ImagenPersonAllowAll   = "allow_all"
	ImagenPersonAllowAdult = "allow_adult"
	ImagenPersonDontAllow  = "dont_allow"
)

// ImagenImageFormat selects the output encoding. CompressionQuality applies
// to JPEG only.
type ImagenImageFormat struct {
	MimeType           string `json:"mimeType"`
	CompressionQuality *int   `json:"compressionQuality,omitempty"`
}

// ImagenGenerationConfig holds per-model generation parameters.
type ImagenGenerationConfig struct {
	NegativePrompt string
	NumberOfImages int
	AspectRatio    string
	ImageFormat    *ImagenImageFormat
	AddWatermark   *bool
}

// ImagenSafetySettings holds the safety and person filters.
type ImagenSafetySettings struct {
	SafetyFilterLevel string
	PersonFilterLevel string
}

// ImagenInlineImage is an image returned as base64 data.
type ImagenInlineImage struct {
	MimeType           string `json:"mimeType"`
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

// ImagenGCSImage is an image written to Cloud Storage.
type ImagenGCSImage struct {
	MimeType string `json:"mimeType"`
	GCSURI   string `json:"gcsUri"`
}

// ImagenImage constrains the two image result shapes.
type ImagenImage interface {
	ImagenInlineImage | ImagenGCSImage
}

// ImagenGenerationResponse is the result of a predict call. FilteredReason is
// set when some or all images were removed by safety filtering.
type ImagenGenerationResponse[T ImagenImage] struct {
	Images         []T
	FilteredReason string
}

// PredictRequest is the wire body of the predict task.
type PredictRequest struct {
	Instances  []PredictInstance `json:"instances"`
	Parameters PredictParameters `json:"parameters"`
}

type PredictInstance struct {
	Prompt string `json:"prompt"`
}

type PredictParameters struct {
	StorageURI              string             `json:"storageUri,omitempty"`
	SampleCount             int                `json:"sampleCount"`
	AspectRatio             string             `json:"aspectRatio,omitempty"`
	OutputOptions           *ImagenImageFormat `json:"outputOptions,omitempty"`
	NegativePrompt          string             `json:"negativePrompt,omitempty"`
	AddWatermark            *bool              `json:"addWatermark,omitempty"`
	SafetySetting           string             `json:"safetySetting,omitempty"`
	PersonGeneration        string             `json:"personGeneration,omitempty"`
	IncludeRAIReason        bool               `json:"includeRaiReason"`
	IncludeSafetyAttributes bool               `json:"includeSafetyAttributes"`
}

// NewPredictRequest builds the predict body for prompt. An empty gcsURI asks
// for inline images. NumberOfImages defaults to 1.
func NewPredictRequest(prompt, gcsURI string, config ImagenGenerationConfig, safety ImagenSafetySettings) *PredictRequest {
	sampleCount := config.NumberOfImages
	if sampleCount <= 0 {
		sampleCount = 1
	}
	return &PredictRequest{
		Instances: []PredictInstance{{Prompt: prompt}},
		Parameters: PredictParameters{
			StorageURI:              gcsURI,
			SampleCount:             sampleCount,
			AspectRatio:             config.AspectRatio,
			OutputOptions:           config.ImageFormat,
			NegativePrompt:          config.NegativePrompt,
			AddWatermark:            config.AddWatermark,
			SafetySetting:           safety.SafetyFilterLevel,
			PersonGeneration:        safety.PersonFilterLevel,
			IncludeRAIReason:        true,
			IncludeSafetyAttributes: true,
		},
	}
}

type imagenPrediction struct {
	MimeType           string          `json:"mimeType"`
	BytesBase64Encoded string          `json:"bytesBase64Encoded"`
	GCSURI             string          `json:"gcsUri"`
	RAIFilteredReason  string          `json:"raiFilteredReason"`
	SafetyAttributes   json.RawMessage `json:"safetyAttributes"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
}

// ParseImagenResponse decodes a predict response body into images of type T.
// Safety attribute entries are skipped. An empty prediction list, or a
// prediction that is neither an image of the requested kind nor a filter
// notice, is a response-error.
func ParseImagenResponse[T ImagenImage](body []byte) (*ImagenGenerationResponse[T], error) {
	var response predictResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, WrapError(ErrorCodeParseFailed, "Failed to parse predict response body", err)
	}
	if len(response.Predictions) == 0 {
		return nil, NewError(ErrorCodeResponseError, "No predictions or filtered reason received from the backend.")
	}

	result := &ImagenGenerationResponse[T]{}
	for _, raw := range response.Predictions {
		var prediction imagenPrediction
		if err := json.Unmarshal(raw, &prediction); err != nil {
			return nil, WrapError(ErrorCodeParseFailed, "Failed to parse prediction", err)
		}

		switch {
		case prediction.RAIFilteredReason != "":
			result.FilteredReason = prediction.RAIFilteredReason
		case prediction.MimeType != "" && prediction.BytesBase64Encoded != "":
			image, ok := any(ImagenInlineImage{MimeType: prediction.MimeType, BytesBase64Encoded: prediction.BytesBase64Encoded}).(T)
			if !ok {
				return nil, unexpectedPrediction(raw)
			}
			result.Images = append(result.Images, image)
		case prediction.MimeType != "" && prediction.GCSURI != "":
			image, ok := any(ImagenGCSImage{MimeType: prediction.MimeType, GCSURI: prediction.GCSURI}).(T)
			if !ok {
				return nil, unexpectedPrediction(raw)
			}
			result.Images = append(result.Images, image)
		case len(prediction.SafetyAttributes) > 0:
		default:
			return nil, unexpectedPrediction(raw)
		}
	}
	return result, nil
}

func unexpectedPrediction(raw json.RawMessage) error {
	return NewError(ErrorCodeResponseError, fmt.Sprintf("Unexpected element in 'predictions' array in response: '%s'", string(raw)))
}
