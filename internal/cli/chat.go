package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/chat"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/dictation"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
)

func chatCommand(deps Deps, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the farming assistant; without a question, start a conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tag := opts.tag()
			p := newPrompter(cmd)

			var sc model.SessionContext
			if opts.identity != "" {
				var err error
				if sc, err = resolveContext(ctx, deps.Client, opts.identity, tag); err != nil {
					return displayError(tag, "chatbot.error_chat_request", err)
				}
			}
			pipeline, err := chat.BuildPipeline(ctx, deps.Client)
			if err != nil {
				return err
			}
			c := chat.NewController(pipeline, newEngine(deps), tag)
			if err := c.Enter(ctx, sc); err != nil {
				p.say("%s", c.Message())
			}

			if len(args) > 0 {
				ex, err := c.Ask(ctx, strings.Join(args, " "))
				if err != nil {
					return &DisplayError{Text: c.Message(), Err: err}
				}
				p.say("%s", ex.Answer)
				return nil
			}
			printChats(p, tag, c.Chats(), c.EmptyMessage())
			unit, _ := dictation.New(deps.Recognizer)
			err = chatLoop(ctx, p, c, unit, tag, nil)
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		},
	}
}

// chatLoop reads questions until EOF or an empty line. A slash command for
// which onCommand returns true ends the loop without an error.
func chatLoop(ctx context.Context, p *prompter, c *chat.Controller, unit *dictation.Unit, tag language.Tag, onCommand func(string) bool) error {
	for {
		line, err := p.ask(i18n.T(tag, "chatbot.question_label"))
		if err != nil {
			return err
		}
		switch {
		case line == "":
			return errQuit
		case line == "/speak":
			if unit == nil {
				p.say("%s", i18n.T(tag, "chatbot.speech_not_supported"))
				continue
			}
			if err := listen(ctx, p, unit, i18n.SpeechLanguage(tag), true, c.AppendDictation); err != nil {
				p.say("%s", i18n.Localize(tag, "chatbot.speech_not_supported", err))
				continue
			}
			p.say("> %s", c.Question())
		case strings.HasPrefix(line, "/") && onCommand != nil && onCommand(line):
			return nil
		default:
			c.SetQuestion(line)
		}

		ex, err := c.Submit(ctx)
		if err != nil {
			p.say("%s", c.Message())
			continue
		}
		p.say("%s: %s", i18n.T(tag, "chatbot.answer_label"), ex.Answer)
	}
}
