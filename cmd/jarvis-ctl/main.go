package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"jarvis/internal/config"
	"jarvis/internal/ipc"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: jarvis-ctl [--socket path] trigger | say <text> | quit\n")
	cli.PrintDefaults()
}

func main() {
	socket := cli.StringP("socket", "s", config.Default().SocketPath, "Control socket path")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: args[0]}
	switch msg.Cmd {
	case ipc.CmdTrigger, ipc.CmdQuit:
	case ipc.CmdSay:
		msg.Text = strings.Join(args[1:], " ")
		if msg.Text == "" {
			usage()
			os.Exit(2)
		}
	default:
		usage()
		os.Exit(2)
	}

	if err := ipc.Send(*socket, msg); err != nil {
		fmt.Fprintln(os.Stderr, "jarvis not running:", err)
		os.Exit(1)
	}
}
