package commands

import (
	"github.com/spf13/cobra"

	"github.com/arterrin/lvrpc/conn"
	"github.com/arterrin/lvrpc/procedure"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Inspect libvirt secrets (usage metadata only, never the secret value)",
}

func init() {
	secretCmd.AddCommand(secretLookupCmd)
}

var secretLookupCmd = &cobra.Command{
	Use:   "lookup <uuid>",
	Short: "Resolve a secret's UUID to its usage type and id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := procedure.ParseUUID(args[0])
		if err != nil {
			fail(err)
			return nil
		}

		ctx := cmd.Context()
		c, err := open(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		defer func() { _ = conn.Close(ctx, c) }()

		reply, err := c.Call(ctx, procedure.ProcSecretLookupByUUID, procedure.SecretLookupByUUIDArgs{UUID: id})
		if err != nil {
			fail(err)
			return nil
		}
		s := reply.(procedure.SecretLookupByUUIDReply).Secret

		return renderPairs(cmd.OutOrStdout(), [][2]string{
			{"uuid", s.UUID.String()},
			{"usage type", fmtInt(int64(s.UsageType))},
			{"usage id", s.UsageID},
		})
	},
}
