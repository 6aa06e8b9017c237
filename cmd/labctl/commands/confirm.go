package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/medlab/internal/application/services"
)

// confirmation approves without asking when yes is set and otherwise asks
// on the command's input
func confirmation(cmd *cobra.Command, yes bool) services.Confirmation {
	if yes {
		return services.Confirmed
	}
	return prompt(cmd.InOrStdin(), cmd.ErrOrStderr())
}

func prompt(in io.Reader, out io.Writer) services.Confirmation {
	reader := bufio.NewReader(in)
	return func(_ context.Context, action string) (bool, error) {
		fmt.Fprintf(out, "This will %s. Continue? [y/N] ", action)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// declined turns a refused confirmation into a plain message
func declined(cmd *cobra.Command, err error) error {
	if errors.Is(err, services.ErrNotConfirmed) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}
	return err
}
