package commands

import (
	"github.com/spf13/cobra"

	"github.com/arterrin/lvrpc/conn"
	"github.com/arterrin/lvrpc/procedure"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open a connection, print the host summary, and close it",
	Long: `connect round-trips CONNECT_OPEN and CONNECT_CLOSE against the URI
named by --connect, printing NODE_GET_INFO's host summary in between to
confirm the RPC handshake succeeded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := open(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		defer func() { _ = conn.Close(ctx, c) }()

		reply, err := c.Call(ctx, procedure.ProcNodeGetInfo, nil)
		if err != nil {
			fail(err)
			return nil
		}
		info := reply.(procedure.NodeInfoReply)

		return renderPairs(cmd.OutOrStdout(), [][2]string{
			{"connection", Flags.Connect},
			{"cpus", fmtInt(int64(info.CPUs))},
			{"mhz", fmtInt(int64(info.MHz))},
			{"nodes", fmtInt(int64(info.Nodes))},
			{"memory", fmtBytes(info.Memory * 1024)},
		})
	},
}
