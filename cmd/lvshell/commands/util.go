package commands

import (
	"io"
	"strconv"

	"github.com/arterrin/lvrpc/internal/bytesize"
	"github.com/arterrin/lvrpc/internal/cliutil"
)

func fmtInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func fmtBytes(n uint64) string {
	return bytesize.ByteSize(n).String()
}

// renderPairs prints pairs as a key:value table, or as YAML when --output
// yaml is set, converting the pairs to a map first.
func renderPairs(w io.Writer, pairs [][2]string) error {
	if Flags.Output != "yaml" {
		cliutil.SimpleTable(w, pairs)
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p[0]] = p[1]
	}
	return cliutil.PrintYAML(w, m)
}

// renderTable prints data as a table, or as YAML when --output yaml is set.
func renderTable(w io.Writer, data cliutil.TableRenderer) error {
	if Flags.Output != "yaml" {
		cliutil.PrintTable(w, data)
		return nil
	}
	headers := data.Headers()
	rows := data.Rows()
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				m[h] = row[i]
			}
		}
		out = append(out, m)
	}
	return cliutil.PrintYAML(w, out)
}
