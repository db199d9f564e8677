package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/arterrin/lvrpc/client"
	"github.com/arterrin/lvrpc/conn"
	"github.com/arterrin/lvrpc/eventbus"
	"github.com/arterrin/lvrpc/internal/debugsrv"
	"github.com/arterrin/lvrpc/procedure"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Watch server-pushed events",
}

var eventsWatchMetricsAddr string

func init() {
	eventsWatchCmd.Flags().StringVar(&eventsWatchMetricsAddr, "metrics-addr", "",
		"if set, serve /healthz and /metrics on this address while watching")
	eventsCmd.AddCommand(eventsWatchCmd)
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Subscribe to domain lifecycle events and print them as they arrive",
	Long: `watch registers for every domain's lifecycle events
(CONNECT_DOMAIN_EVENT_CALLBACK_REGISTER_ANY with a nil domain filter) and
prints each one as it's delivered, demonstrating the event fan-out bus. Ctrl-C
stops watching and deregisters cleanly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if eventsWatchMetricsAddr != "" {
			srv, err := debugsrv.New(eventsWatchMetricsAddr)
			if err != nil {
				fail(err)
				return nil
			}
			go srv.Start(ctx)
		}

		c, err := open(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		defer func() { _ = conn.Close(ctx, c) }()

		reply, err := c.Call(ctx, procedure.ProcConnectDomainEventCallbackRegisterAny,
			procedure.DomainEventCallbackRegisterAnyArgs{EventID: procedure.EventDomainLifecycle})
		if err != nil {
			fail(err)
			return nil
		}
		callbackID := reply.(procedure.DomainEventCallbackRegisterAnyReply).CallbackID
		defer func() {
			_, _ = c.Call(ctx, procedure.ProcConnectDomainEventCallbackDeregisterAny,
				procedure.DomainEventCallbackDeregisterAnyArgs{CallbackID: callbackID})
		}()

		bus := eventbus.New()
		stop := make(chan struct{})
		go bus.Pump(c, stop)
		sub, unsubscribe := bus.Subscribe()
		defer unsubscribe()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		defer signal.Stop(sig)

		out := cmd.OutOrStdout()
		for {
			select {
			case ev := <-sub:
				printEvent(out, ev)
			case <-sig:
				close(stop)
				return nil
			case <-ctx.Done():
				close(stop)
				return nil
			}
		}
	},
}

func printEvent(out io.Writer, ev client.Event) {
	if life, ok := ev.Payload.(procedure.DomainLifecycleEvent); ok {
		fmt.Fprintf(out, "domain=%s event=%d detail=%d\n", life.Domain.Name, life.Event, life.Detail)
		return
	}
	fmt.Fprintf(out, "procedure=%d (unrecognized)\n", ev.Procedure)
}
