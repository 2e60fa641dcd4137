package cli

import (
	"github.com/spf13/cobra"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/session"
)

func loginCommand(deps Deps, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and show where the farmer would land",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(cmd)
			creds, err := askCredentials(p, opts.identity)
			if err != nil {
				return err
			}
			tag := opts.tag()
			h, err := session.NewGate(deps.Client, tag).Login(cmd.Context(), creds)
			if err != nil {
				return displayError(tag, loginErrorKey(err), err)
			}
			p.say("%s -> %s", h.Context.Identity(), h.Route)
			return nil
		},
	}
}

func registerCommand(deps Deps, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(cmd)
			creds, err := askCredentials(p, opts.identity)
			if err != nil {
				return err
			}
			tag := opts.tag()
			if _, err := session.NewGate(deps.Client, tag).Register(cmd.Context(), creds); err != nil {
				return displayError(tag, "register.error_generic", err)
			}
			p.say("%s", i18n.T(tag, "register.success_register"))
			return nil
		},
	}
}

func askCredentials(p *prompter, identity string) (session.Credentials, error) {
	var err error
	if identity == "" {
		if identity, err = p.ask("Aadhar"); err != nil {
			return session.Credentials{}, err
		}
	}
	secret, err := p.ask("Password")
	if err != nil {
		return session.Credentials{}, err
	}
	return session.Credentials{Identity: identity, Secret: secret}, nil
}
