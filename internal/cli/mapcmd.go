package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/session"
)

func mapCommand(deps Deps, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Hand the farmer's context to the map view and wait for it to navigate back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tag := opts.tag()
			p := newPrompter(cmd)

			sc, err := resolveContext(ctx, deps.Client, opts.identity, tag)
			if err != nil {
				return displayError(tag, "map.error_snapshot", err)
			}
			bridge := session.NewBridge()
			view := session.NewMapView(deps.Map, deps.Snapshots, deps.Navigation, bridge)
			if err := view.Enter(ctx, sc, tag); err != nil {
				return displayError(tag, "map.error_snapshot", err)
			}
			p.say("%s", deps.Map.URL)

			h, err := awaitMapExit(ctx, view, bridge)
			if err != nil {
				return err
			}
			p.say("%s", h.Route)
			return nil
		},
	}
}

// awaitMapExit listens for the map's navigation message and returns the
// handoff it triggered. It returns early if the command is cancelled.
func awaitMapExit(ctx context.Context, view *session.MapView, bridge *session.Bridge) (session.Handoff, error) {
	entered := bridge.Current().Seq
	lctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- view.Listen(lctx) }()

	stop := func() {
		cancel()
		<-done
	}
	for {
		select {
		case <-ctx.Done():
			stop()
			return session.Handoff{}, ctx.Err()
		case err := <-done:
			cancel()
			if err == nil {
				err = ctx.Err()
			}
			if err == nil {
				err = errors.New("map listener stopped")
			}
			return session.Handoff{}, err
		case h := <-bridge.Changes():
			if h.Seq > entered && h.Route != session.RouteMap {
				stop()
				return h, nil
			}
		}
	}
}
