// Command wsclient is an interactive client for the /ws endpoint.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	ws "github.com/satriahrh/cocoa-fruit/ollama-chat/adapters/websocket"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:          "wsclient",
		Short:        "Chat with the server over its websocket endpoint",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", serverURL, err)
			}
			defer conn.Close()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				closeConn(conn)
				os.Exit(0)
			}()

			return chat(conn, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&serverURL, "server", "s", "ws://localhost:5000/ws", "websocket endpoint")
	return cmd
}

// chat sends each input line as a prompt and prints the answer before reading
// the next line.
func chat(conn *websocket.Conn, in io.Reader, out io.Writer) error {
	defer closeConn(conn)

	reader := bufio.NewReader(in)
	fmt.Fprintln(out, "Enter prompts (type 'exit' to quit):")
	for {
		fmt.Fprint(out, "> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		text = strings.TrimRight(text, "\r\n")
		if text == "exit" {
			return nil
		}
		if err := conn.WriteJSON(ws.PromptMessage{Prompt: text}); err != nil {
			return fmt.Errorf("sending prompt: %w", err)
		}
		if err := printAnswer(conn, out); err != nil {
			return err
		}
	}
}

func printAnswer(conn *websocket.Conn, out io.Writer) error {
	for {
		var frame ws.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("reading answer: %w", err)
		}
		switch frame.Type {
		case ws.FrameFragment:
			fmt.Fprint(out, frame.Text)
		case ws.FrameError:
			fmt.Fprintf(out, "\n%s", frame.Text)
		case ws.FrameDone:
			fmt.Fprintln(out)
			return nil
		}
	}
}

func closeConn(conn *websocket.Conn) {
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
