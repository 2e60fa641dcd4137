package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/detection"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
)

func detectCommand(deps Deps, opts *globalOptions) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "detect <image>",
		Short: "Classify a leaf image and optionally save the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tag := opts.tag()
			p := newPrompter(cmd)

			img, err := loadImage(args[0])
			if err != nil {
				return err
			}
			sc, err := resolveContext(ctx, deps.Client, opts.identity, tag)
			if err != nil {
				return displayError(tag, "submitted.error_aadhar_missing", err)
			}

			hub := detection.NewController(deps.Client, newEngine(deps), tag)
			if err := hub.Enter(ctx, sc); err != nil {
				p.say("%s", hub.HistoryMessage())
			}
			if err := hub.Select(img); err != nil {
				return displayError(tag, "submitted.no_file_selected", err)
			}
			if _, err := hub.Upload(ctx); err != nil {
				return &DisplayError{Text: hub.Message(), Err: err}
			}
			text, _ := hub.ClipboardText()
			p.say("%s", text)

			if !save {
				return nil
			}
			if err := hub.Save(ctx); err != nil {
				return &DisplayError{Text: hub.Message(), Err: err}
			}
			printDetections(p, hub.Detections(), hub.EmptyMessage())
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save the result to the farmer's history")
	return cmd
}

// loadImage reads path and guesses its content type from the extension,
// falling back to sniffing the bytes.
func loadImage(path string) (model.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Image{}, fmt.Errorf("read image: %w", err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return model.Image{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}
