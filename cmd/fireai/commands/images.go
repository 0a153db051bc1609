package commands

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/fireai/core/client"
	"github.com/leofalp/fireai/providers/ai"
)

var (
	imagesModel    string
	imagesCount    int
	imagesAspect   string
	imagesNegative string
	imagesOutDir   string
	imagesGCS      string
	imagesSafety   string
)

var imagesCmd = &cobra.Command{
	Use:   "images [prompt...]",
	Short: "Generate images with Imagen",
	Long: `Generate images with Imagen. Inline images are written to --out as
image-1.png, image-2.png, ...; with --gcs the backend writes them to Cloud
Storage and their URIs are printed.

Examples:
  fireai images --count 2 --aspect 16:9 "A lighthouse at dawn"
  fireai images --gcs gs://my-bucket/renders/ "A lighthouse at dawn"`,
	RunE: runImages,
}

func init() {
	imagesCmd.Flags().StringVar(&imagesModel, "imagen-model", "imagen-3.0-generate-002", "Imagen model id")
	imagesCmd.Flags().IntVarP(&imagesCount, "count", "n", 1, "Number of images")
	imagesCmd.Flags().StringVar(&imagesAspect, "aspect", "", "Aspect ratio (1:1, 3:4, 4:3, 16:9, 9:16)")
	imagesCmd.Flags().StringVar(&imagesNegative, "negative", "", "Negative prompt")
	imagesCmd.Flags().StringVarP(&imagesOutDir, "out", "o", ".", "Directory for inline images")
	imagesCmd.Flags().StringVar(&imagesGCS, "gcs", "", "Cloud Storage URI prefix for the output")
	imagesCmd.Flags().StringVar(&imagesSafety, "safety", "", "Safety filter level (block_low_and_above|block_medium_and_above|block_only_high|block_none)")
}

func runImages(cmd *cobra.Command, args []string) error {
	prompt, err := promptFrom(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	model, err := rt.client.ImagenModel(imagesModel, rt.modelOptions(
		client.WithImagenConfig(ai.ImagenGenerationConfig{
			NumberOfImages: imagesCount,
			AspectRatio:    imagesAspect,
			NegativePrompt: imagesNegative,
		}),
		client.WithImagenSafetySettings(ai.ImagenSafetySettings{SafetyFilterLevel: imagesSafety}),
	)...)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if imagesGCS != "" {
		response, err := model.GenerateImagesGCS(ctx, prompt, imagesGCS)
		if err != nil {
			return err
		}
		for _, image := range response.Images {
			fmt.Fprintf(out, "%s (%s)\n", image.GCSURI, image.MimeType)
		}
		printFiltered(cmd, response.FilteredReason)
		return nil
	}

	response, err := model.GenerateImages(ctx, prompt)
	if err != nil {
		return err
	}
	paths, err := writeImages(imagesOutDir, response.Images)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintln(out, path)
	}
	printFiltered(cmd, response.FilteredReason)
	return nil
}

func printFiltered(cmd *cobra.Command, reason string) {
	if reason != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "some images were filtered: %s\n", reason)
	}
}

// writeImages decodes images into dir and returns the written paths.
func writeImages(dir string, images []ai.ImagenInlineImage) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(images))
	for i, image := range images {
		data, err := base64.StdEncoding.DecodeString(image.BytesBase64Encoded)
		if err != nil {
			return paths, fmt.Errorf("decode image %d: %w", i+1, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("image-%d%s", i+1, extensionFor(image.MimeType)))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
