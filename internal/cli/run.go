package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/chat"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/detection"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/dictation"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/session"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/wizard"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

func runCommand(deps Deps, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Walk through login, profile wizard, detection hub, chat and map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r, err := newRunner(ctx, deps, opts.tag(), newPrompter(cmd))
			if err != nil {
				return err
			}
			if opts.identity != "" {
				if err := r.resume(ctx, opts.identity); err != nil {
					return displayError(r.tag, loginErrorKey(err), err)
				}
			}
			err = r.loop(ctx)
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		},
	}
}

// runner moves between views through the bridge; each view starts from the
// handoff it was given.
type runner struct {
	deps   Deps
	tag    language.Tag
	p      *prompter
	bridge *session.Bridge
	gate   *session.Gate
	hub    *detection.Controller
	chat   *chat.Controller
	mapv   *session.MapView
	unit   *dictation.Unit
}

func newRunner(ctx context.Context, deps Deps, tag language.Tag, p *prompter) (*runner, error) {
	pipeline, err := chat.BuildPipeline(ctx, deps.Client)
	if err != nil {
		return nil, err
	}
	bridge := session.NewBridge()
	r := &runner{
		deps:   deps,
		tag:    tag,
		p:      p,
		bridge: bridge,
		gate:   session.NewGate(deps.Client, tag),
		hub:    detection.NewController(deps.Client, newEngine(deps), tag),
		chat:   chat.NewController(pipeline, newEngine(deps), tag),
		mapv:   session.NewMapView(deps.Map, deps.Snapshots, deps.Navigation, bridge),
	}
	if unit, err := dictation.New(deps.Recognizer); err == nil {
		r.unit = unit
	}
	return r, nil
}

// resume skips the login view for a known identity.
func (r *runner) resume(ctx context.Context, identity string) error {
	sc, err := resolveContext(ctx, r.deps.Client, identity, r.tag)
	if err != nil {
		return err
	}
	route := session.RouteWizard
	if sc.Origin() == model.OriginLookup {
		route = session.RouteHub
	}
	_, err = r.bridge.Navigate(route, sc)
	return err
}

func (r *runner) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := r.bridge.Current()
		logx.Debug().Str("route", string(h.Route)).Uint64("seq", h.Seq).Msg("entering view")

		var err error
		switch h.Route {
		case session.RouteLogin:
			err = r.loginView(ctx)
		case session.RouteSearch, session.RouteWizard:
			err = r.wizardView(ctx, h.Context)
		case session.RouteHub:
			err = r.hubView(ctx, h.Context)
		case session.RouteChat:
			err = r.chatView(ctx, h.Context)
		case session.RouteMap:
			_, err = awaitMapExit(ctx, r.mapv, r.bridge)
		default:
			return fmt.Errorf("no view for route %q", h.Route)
		}
		if err != nil {
			return err
		}
	}
}

func (r *runner) navigate(route session.Route, sc model.SessionContext) error {
	_, err := r.bridge.Navigate(route, sc)
	return err
}

// ===== Login =====

func (r *runner) loginView(ctx context.Context) error {
	choice, err := r.p.ask("[l]ogin / [r]egister")
	if err != nil {
		return err
	}
	creds, err := askCredentials(r.p, "")
	if err != nil {
		return err
	}

	var h session.Handoff
	switch strings.ToLower(choice) {
	case "r", "register":
		h, err = r.gate.Register(ctx, creds)
		if err == nil {
			r.p.say("%s", i18n.T(r.tag, "register.success_register"))
		} else {
			r.p.say("%s", i18n.Localize(r.tag, "register.error_generic", err))
		}
	default:
		h, err = r.gate.Login(ctx, creds)
		if err != nil {
			r.p.say("%s", i18n.Localize(r.tag, loginErrorKey(err), err))
		}
	}
	if err != nil {
		return nil
	}
	return r.navigate(h.Route, h.Context)
}

// ===== Wizard =====

func (r *runner) wizardView(ctx context.Context, sc model.SessionContext) error {
	if !sc.HasIdentity() {
		r.p.say("%s", i18n.T(r.tag, "form.error_aadhar_missing"))
		return r.navigate(session.RouteLogin, model.SessionContext{})
	}
	w, err := wizard.New(sc.Identity(), wizard.FarmerFields())
	if err != nil {
		return err
	}
	if r.unit == nil {
		r.p.say("%s", i18n.T(r.tag, "form.speech_not_supported"))
	}
	r.p.say("%s", i18n.T(r.tag, "form.confirm_hint"))

	// Answers stay on the field until an empty line confirms it, so typed
	// text and dictation can be combined.
	for {
		f := w.Current()
		step, total := w.Progress()
		label := i18n.T(r.tag, "form.current_step", step, total) + "  " + f.Label
		if f.Kind == wizard.KindChoice {
			label += " (" + strings.Join(f.Choices, ", ") + ")"
		}
		if v := w.Value(f.Name); v != "" {
			label += " [" + v + "]"
		}
		answer, err := r.p.ask(label)
		if err != nil {
			return err
		}

		switch {
		case answer == "/speak" && r.unit == nil:
			r.p.say("%s", i18n.T(r.tag, "form.speech_not_supported"))
			continue
		case answer == "/speak":
			err = listen(ctx, r.p, r.unit, i18n.SpeechLanguage(r.tag), false, func(text string) {
				if derr := w.Dictate(f.Name, text); derr != nil {
					r.p.say("%s", i18n.Localize(r.tag, "form.error_save_failed", derr))
				}
			})
			if err != nil {
				r.p.say("%s", i18n.Localize(r.tag, "form.speech_not_supported", err))
			}
			r.p.say("> %s", w.Value(f.Name))
			continue
		case answer != "":
			if err := w.SetFieldValue(f.Name, answer); err != nil {
				r.p.say("%s", i18n.Localize(r.tag, "form.error_save_failed", err))
			}
			continue
		}

		if !w.IsLast() {
			if err := w.Advance(); err != nil {
				r.p.say("%s", i18n.Localize(r.tag, "form.error_save_failed", err))
			}
			continue
		}
		next, err := w.Finish()
		if err != nil {
			r.p.say("%s", i18n.Localize(r.tag, "form.error_save_failed", err))
			continue
		}
		return r.navigate(session.RouteHub, next)
	}
}

// listen captures one dictation session, ended by the next input line.
func listen(ctx context.Context, p *prompter, unit *dictation.Unit, lang string, continuous bool, apply func(string)) error {
	if err := unit.StartCapture(ctx, lang, continuous); err != nil {
		return err
	}
	fmt.Fprintln(p.out, "...")
	p.in.Scan()
	text, err := unit.StopCapture()
	if err != nil {
		return err
	}
	apply(text)
	return nil
}

// ===== Detection hub =====

func (r *runner) hubView(ctx context.Context, sc model.SessionContext) error {
	if err := r.hub.Enter(ctx, sc); err != nil {
		if msg := r.hub.Message(); msg != "" {
			r.p.say("%s", msg)
		}
		if msg := r.hub.HistoryMessage(); msg != "" {
			r.p.say("%s", msg)
		}
	}
	printDetections(r.p, r.hub.Detections(), r.hub.EmptyMessage())

	for {
		line, err := r.p.ask("upload <file> | save | copy | chat | map | history | quit")
		if err != nil {
			return err
		}
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "upload":
			if arg != "" {
				img, err := loadImage(strings.TrimSpace(arg))
				if err != nil {
					r.p.say("%s", err)
					continue
				}
				if err := r.hub.Select(img); err != nil {
					r.p.say("%s", i18n.Localize(r.tag, "submitted.no_file_selected", err))
					continue
				}
			}
			if _, err := r.hub.Upload(ctx); err != nil {
				r.p.say("%s", r.hub.Message())
				continue
			}
			text, _ := r.hub.ClipboardText()
			r.p.say("%s", text)
		case "save":
			if err := r.hub.Save(ctx); err != nil {
				r.p.say("%s", r.hub.Message())
				continue
			}
			printDetections(r.p, r.hub.Detections(), r.hub.EmptyMessage())
			if msg := r.hub.HistoryMessage(); msg != "" {
				r.p.say("%s", msg)
			}
		case "copy":
			if text, ok := r.hub.ClipboardText(); ok {
				r.p.say("%s", text)
			}
		case "history":
			printDetections(r.p, r.hub.Detections(), r.hub.EmptyMessage())
		case "chat":
			return r.navigate(session.RouteChat, r.hub.Context())
		case "map":
			if err := r.mapv.Enter(ctx, r.hub.Context(), r.tag); err != nil {
				r.p.say("%s", i18n.Localize(r.tag, "map.error_snapshot", err))
				continue
			}
			r.p.say("%s", r.deps.Map.URL)
			return nil
		case "", "quit", "q":
			return errQuit
		}
	}
}

// ===== Chat =====

func (r *runner) chatView(ctx context.Context, sc model.SessionContext) error {
	if err := r.chat.Enter(ctx, sc); err != nil {
		r.p.say("%s", r.chat.Message())
	}
	printChats(r.p, r.tag, r.chat.Chats(), r.chat.EmptyMessage())

	var navErr error
	err := chatLoop(ctx, r.p, r.chat, r.unit, r.tag, func(line string) bool {
		switch line {
		case "/hub":
			navErr = r.navigate(session.RouteHub, r.chat.Context())
			return true
		case "/map":
			if err := r.mapv.Enter(ctx, r.chat.Context(), r.tag); err != nil {
				r.p.say("%s", i18n.Localize(r.tag, "map.error_snapshot", err))
			}
			return true
		}
		return false
	})
	if err != nil {
		return err
	}
	return navErr
}
