package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arterrin/lvrpc/conn"
	"github.com/arterrin/lvrpc/procedure"
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Inspect domains on the connected host",
}

var domainStates = map[uint8]string{
	0: "nostate",
	1: "running",
	2: "blocked",
	3: "paused",
	4: "shutdown",
	5: "shutoff",
	6: "crashed",
	7: "pmsuspended",
}

func init() {
	domainCmd.AddCommand(domainListCmd)
	domainCmd.AddCommand(domainLookupCmd)
	domainCmd.AddCommand(domainInfoCmd)
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every domain the host knows about",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := open(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		defer func() { _ = conn.Close(ctx, c) }()

		reply, err := c.Call(ctx, procedure.ProcConnectListAllDomains, procedure.ConnectListAllDomainsArgs{NeedResults: 1})
		if err != nil {
			fail(err)
			return nil
		}
		domains := reply.(procedure.ConnectListAllDomainsReply).Domains

		return renderTable(cmd.OutOrStdout(), domainTable{domains: domains})
	},
}

type domainTable struct {
	domains []procedure.Domain
}

func (t domainTable) Headers() []string { return []string{"Name", "UUID", "ID"} }

func (t domainTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.domains))
	for _, d := range t.domains {
		rows = append(rows, []string{d.Name, d.UUID.String(), fmtInt(int64(d.ID))})
	}
	return rows
}

var domainLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Resolve a domain name to its handle (name, UUID, id)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := open(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		defer func() { _ = conn.Close(ctx, c) }()

		reply, err := c.Call(ctx, procedure.ProcDomainLookupByName, procedure.DomainLookupByNameArgs{Name: args[0]})
		if err != nil {
			fail(err)
			return nil
		}
		d := reply.(procedure.DomainLookupByNameReply).Domain

		return renderPairs(cmd.OutOrStdout(), [][2]string{
			{"name", d.Name},
			{"uuid", d.UUID.String()},
			{"id", fmtInt(int64(d.ID))},
		})
	},
}

var domainInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show a domain's runtime state, memory, and CPU usage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := open(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		defer func() { _ = conn.Close(ctx, c) }()

		lookup, err := c.Call(ctx, procedure.ProcDomainLookupByName, procedure.DomainLookupByNameArgs{Name: args[0]})
		if err != nil {
			fail(err)
			return nil
		}
		domain := lookup.(procedure.DomainLookupByNameReply).Domain

		reply, err := c.Call(ctx, procedure.ProcDomainGetInfo, procedure.DomainGetInfoArgs{Domain: domain})
		if err != nil {
			fail(err)
			return nil
		}
		info := reply.(procedure.DomainGetInfoReply)

		state := domainStates[info.State]
		if state == "" {
			state = fmt.Sprintf("unknown(%d)", info.State)
		}

		return renderPairs(cmd.OutOrStdout(), [][2]string{
			{"name", domain.Name},
			{"state", state},
			{"max memory", fmtBytes(info.MaxMem * 1024)},
			{"memory", fmtBytes(info.Memory * 1024)},
			{"vcpus", fmtInt(int64(info.NrVirtCPU))},
			{"cpu time", fmt.Sprintf("%.2fs", float64(info.CPUTime)/1e9)},
		})
	},
}
