// Command ask sends one prompt to a running chat server and prints the
// answer as it streams in.
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/render"
)

const defaultServer = "http://localhost:5000/"

// errShown marks failures the view has already printed.
var errShown = errors.New("shown")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errShown) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		server string
		html   bool
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Stream an answer from the chat server",
		Long: `Send a prompt to the chat server and print the answer while it streams.
With no arguments the prompt is read from stdin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if len(args) == 0 {
				in, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				prompt = strings.TrimRight(string(in), "\n")
			}

			view := newTerminalView(cmd.OutOrStdout(), cmd.ErrOrStderr(), html)
			if err := render.New(view).Submit(cmd.Context(), &http.Client{}, server, prompt); err != nil {
				return fmt.Errorf("%w: %w", errShown, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", defaultServer, "chat server URL")
	cmd.Flags().BoolVar(&html, "html", false, "print the rendered HTML instead of the raw text")
	return cmd
}
