package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arterrin/lvrpc/client"
	"github.com/arterrin/lvrpc/conn"
	"github.com/arterrin/lvrpc/internal/bytesize"
	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/stream"
)

var volCmd = &cobra.Command{
	Use:   "vol",
	Short: "Upload or download a storage volume's contents",
}

var (
	volPool string
	volName string
)

func init() {
	volCmd.PersistentFlags().StringVar(&volPool, "pool", "", "storage pool name")
	volCmd.PersistentFlags().StringVar(&volName, "name", "", "volume name")
	_ = volCmd.MarkPersistentFlagRequired("pool")
	_ = volCmd.MarkPersistentFlagRequired("name")
	volCmd.AddCommand(volUploadCmd)
	volCmd.AddCommand(volDownloadCmd)
}

// lookupStorageVol resolves --pool/--name to a StorageVol handle.
func lookupStorageVol(ctx context.Context, c *client.Connection) (procedure.StorageVol, error) {
	reply, err := c.Call(ctx, procedure.ProcStorageVolLookupByName, procedure.StorageVolLookupByNameArgs{
		Pool: volPool,
		Name: volName,
	})
	if err != nil {
		return procedure.StorageVol{}, err
	}
	return reply.(procedure.StorageVolLookupByNameReply).Vol, nil
}

var volUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a local file's contents to a storage volume",
	Long: `upload drives the stream sub-protocol's write side. Runs of zero
bytes at least one read-chunk long are sent as STREAM_HOLE markers instead
of data, so a sparse local file produces a sparse remote volume.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := os.Open(args[0])
		if err != nil {
			fail(err)
			return nil
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil {
			fail(err)
			return nil
		}

		c, err := open(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		defer func() { _ = conn.Close(ctx, c) }()

		vol, err := lookupStorageVol(ctx, c)
		if err != nil {
			fail(err)
			return nil
		}

		up, err := c.UploadVolume(ctx, procedure.StorageVolUploadArgs{
			Vol:    vol,
			Offset: 0,
			Length: uint64(fi.Size()),
		})
		if err != nil {
			fail(err)
			return nil
		}

		n, err := copySparse(up, f)
		if err != nil {
			_ = up.Abort(err.Error())
			fail(err)
			return nil
		}
		if err := up.Close(); err != nil {
			fail(err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", bytesize.ByteSize(n))
		return nil
	},
}

var volDownloadCmd = &cobra.Command{
	Use:   "download <file>",
	Short: "Download a storage volume's contents to a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out, err := os.Create(args[0])
		if err != nil {
			fail(err)
			return nil
		}
		defer out.Close()

		c, err := open(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		defer func() { _ = conn.Close(ctx, c) }()

		vol, err := lookupStorageVol(ctx, c)
		if err != nil {
			fail(err)
			return nil
		}

		down, err := c.DownloadVolume(ctx, procedure.StorageVolDownloadArgs{Vol: vol})
		if err != nil {
			fail(err)
			return nil
		}

		var offset int64
		for {
			chunk, err := down.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				fail(err)
				return nil
			}
			if chunk.IsHole {
				// Seek past the hole rather than writing zeros, producing
				// a sparse file on filesystems that support it.
				if _, err := out.Seek(chunk.HoleLength, io.SeekCurrent); err != nil {
					fail(err)
					return nil
				}
				offset += chunk.HoleLength
				continue
			}
			n, err := out.WriteAt(chunk.Data, offset)
			if err != nil {
				fail(err)
				return nil
			}
			offset += int64(n)
		}
		if err := out.Truncate(offset); err != nil {
			fail(err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s\n", bytesize.ByteSize(offset))
		return nil
	},
}

// sparseUploader is the subset of *client's upload handle copySparse needs.
type sparseUploader interface {
	io.Writer
	Skip(int64) error
}

// copySparse writes r's bytes to up, detecting runs of stream-chunk-sized
// zero bytes and emitting them as Skip calls instead of Write calls.
func copySparse(up sparseUploader, r io.Reader) (int64, error) {
	buf := make([]byte, stream.MaxChunk)
	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if isZero(chunk) {
				if err := up.Skip(int64(n)); err != nil {
					return total, err
				}
			} else if _, err := up.Write(chunk); err != nil {
				return total, err
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

func isZero(b []byte) bool {
	return bytes.Count(b, []byte{0}) == len(b)
}
