package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// runConsole reads operator commands from in until "stop" or EOF.
// It returns true when the operator asked the server to stop.
func runConsole(in io.Reader, out io.Writer, srv *Server) bool {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Server console ready. Type 'help' for commands.")
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			fmt.Fprintln(out, "Available commands: status, stop")
		case "status":
			st := srv.Stats()
			fmt.Fprintf(out, "Listening on %s. Posts: %d, registrations: %d, failures: %d\n",
				srv.config.Addr(), st.Posts, st.Registrations, st.Failures)
		case "stop":
			fmt.Fprintln(out, "Stopping server...")
			return true
		default:
			fmt.Fprintln(out, "Unknown command.")
		}
	}
	return false
}
