package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/dock/nsof"
)

func decodeCmd() *cobra.Command {
	var isHex bool

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Print an NSOF object",
		Long: `Decode one NSOF object from a file, or standard input, and print it.
Shared objects are printed once. Later occurrences print as <#n>, where n
numbers the printed objects in order of appearance. These are not the
precedent ids carried in the input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args, isHex)
			if err != nil {
				return err
			}
			obj, err := nsof.Unmarshal(data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), nsof.Dump(obj))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&isHex, "hex", "x", false, "Input is hex text")
	return cmd
}

// readInput reads the named file, or standard input when no file is
// given. Hex input may contain whitespace.
func readInput(cmd *cobra.Command, args []string, isHex bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	if !isHex {
		return data, nil
	}

	text := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(data))
	out, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "hex input")
	}
	return out, nil
}
