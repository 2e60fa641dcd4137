package cli

import (
	"github.com/spf13/cobra"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
)

func historyCommand(deps Deps, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show past chats and detections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tag := opts.tag()
			p := newPrompter(cmd)

			if err := model.ValidateIdentity(opts.identity); err != nil {
				return displayError(tag, "submitted.error_aadhar_missing", err)
			}
			engine := newEngine(deps)
			engine.Bind(ctx, opts.identity)
			h, err := engine.Fetch(ctx, tag)
			if err != nil {
				p.say("%s", engine.ErrorMessage(tag, "submitted.error_fetch_history"))
			}
			printChats(p, tag, h.Chats, i18n.T(tag, "chatbot.no_chats"))
			printDetections(p, h.Detections, i18n.T(tag, "submitted.no_detections"))
			return nil
		},
	}
}
