package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/dock/command"
	"github.com/Zereker/dock/nsof"
)

func frameCmd() *cobra.Command {
	var (
		isHex   bool
		from    string
		version int
	)

	cmd := &cobra.Command{
		Use:   "frame [file]",
		Short: "Print the commands in a dock stream",
		Long: `Split a captured dock stream into commands and print each one. NSOF
payloads are decoded and printed below their command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir command.Direction
			switch from {
			case "device":
				dir = command.FromDevice
			case "desktop":
				dir = command.FromDesktop
			default:
				return errors.Errorf("--from must be device or desktop, got %q", from)
			}

			data, err := readInput(cmd, args, isHex)
			if err != nil {
				return err
			}
			return printFrames(cmd.OutOrStdout(), data, command.ForVersion(version, dir))
		},
	}

	cmd.Flags().BoolVarP(&isHex, "hex", "x", false, "Input is hex text")
	cmd.Flags().StringVar(&from, "from", "device", "Sender of the stream (device or desktop)")
	cmd.Flags().IntVar(&version, "protocol", command.ProtocolVersion2, "Protocol version of the stream")
	return cmd
}

func printFrames(w io.Writer, data []byte, reg *command.Registry) error {
	r := bytes.NewReader(data)
	for i := 0; ; i++ {
		c, err := command.Read(r, reg, 0)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.WithMessagef(err, "command %d", i)
		}

		payload, err := c.MarshalPayload()
		if err != nil {
			return err
		}
		known := ""
		if _, ok := reg.Lookup(c.Tag()); !ok {
			known = " (unknown)"
		}
		fmt.Fprintf(w, "%d: %s %d bytes%s\n", i, describe(c), len(payload), known)
		if obj, ok := c.(*command.Object); ok {
			fmt.Fprintln(w, nsof.Dump(obj.Value))
		}
	}
}

// describe prints a command by its String method, or by its tag.
func describe(c command.Command) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return string(c.Tag())
}
