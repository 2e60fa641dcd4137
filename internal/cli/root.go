// Package cli is the terminal front end: each view of the farmer client is
// reachable as a subcommand, and `run` walks through all of them.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/dictation"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/history"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
)

// Deps are the collaborators shared by every command.
type Deps struct {
	Client        api.Client
	HistoryCache  model.HistoryCache
	Snapshots     model.SnapshotStore
	Navigation    model.NavigationSource
	Map           model.MapConfig
	Recognizer    dictation.Recognizer
	DefaultLocale string
}

type globalOptions struct {
	locale   string
	identity string
}

// RootCommand builds the command tree.
func RootCommand(deps Deps) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "farmer",
		Short:         "Krishi Drishti farmer client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.locale, "locale", deps.DefaultLocale, "display language (en, hi)")
	rootCmd.PersistentFlags().StringVar(&opts.identity, "identity", "", "12 character Aadhar number")

	rootCmd.AddCommand(
		runCommand(deps, opts),
		loginCommand(deps, opts),
		registerCommand(deps, opts),
		detectCommand(deps, opts),
		chatCommand(deps, opts),
		historyCommand(deps, opts),
		mapCommand(deps, opts),
	)
	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, deps Deps, args []string) error {
	cmd := RootCommand(deps)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (o *globalOptions) tag() language.Tag {
	return i18n.Parse(o.locale)
}

// prompter reads one answer per line from the command's input.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: cmd.OutOrStdout()}
}

// errQuit ends an interactive session without an error.
var errQuit = errors.New("quit")

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *prompter) say(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// resolveContext builds a context for a known identity, carrying the stored
// profile when there is one.
func resolveContext(ctx context.Context, client api.Client, identity string, locale language.Tag) (model.SessionContext, error) {
	if err := model.ValidateIdentity(identity); err != nil {
		return model.SessionContext{}, err
	}
	profile, err := client.Lookup(ctx, identity, i18n.Code(locale))
	if err != nil {
		return model.SessionContext{}, err
	}
	if profile == nil {
		return model.NewSessionContext(identity, model.Profile{}, model.OriginNone)
	}
	return model.NewSessionContext(identity, *profile, model.OriginLookup)
}

func newEngine(deps Deps) *history.Engine {
	return history.NewEngine(deps.Client, deps.HistoryCache)
}

func printDetections(p *prompter, entries []model.DetectionHistoryEntry, empty string) {
	if len(entries) == 0 {
		p.say("  %s", empty)
		return
	}
	for _, e := range entries {
		ts := e.Timestamp
		if t, ok := e.Time(); ok {
			ts = t.Format("2006-01-02 15:04")
		}
		p.say("  %s  %-20s %s", ts, e.Disease, model.FormatConfidence(e.Confidence))
	}
}

func printChats(p *prompter, tag language.Tag, chats []model.ChatExchange, empty string) {
	if len(chats) == 0 {
		p.say("  %s", empty)
		return
	}
	for _, c := range chats {
		p.say("  %s: %s", i18n.T(tag, "chatbot.question_label"), c.Question)
		p.say("  %s: %s", i18n.T(tag, "chatbot.answer_label"), c.Answer)
	}
}
