// File: cli/repl.go
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/system"
	"github.com/protean-io/protean/universal"
)

var (
	promptColor = color.New(color.FgCyan)
	okColor     = color.New(color.FgGreen)
	failColor   = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive loop: free text transforms the current actor",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sys, err := newSystem()
		if err != nil {
			return err
		}
		defer sys.Shutdown()
		return runRepl(sys)
	},
}

func runRepl(sys *system.System) error {
	rl, err := readline.New(promptColor.Sprint("protean> "))
	if err != nil {
		return err
	}
	defer rl.Close()

	_, current, err := sys.Spawn("")
	if err != nil {
		return err
	}
	okColor.Printf("spawned %s — plain text transforms it, /help lists commands\n", current)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			next, quit := runCommand(sys, current, line)
			if quit {
				return nil
			}
			current = next
			continue
		}

		transform(sys, current, line)
	}
}

// transform sends the description to the current actor and waits for the
// outcome, bounded by the backend round-trip budget plus the repair retry.
func transform(sys *system.System, id core.ActorId, description string) {
	pid := sys.Engine.Lookup(string(id))
	if pid == nil {
		failColor.Printf("actor %s is gone\n", id)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*sys.Config.TransformTimeout+time.Second)
	defer cancel()

	reply, err := sys.Engine.Ask(ctx, pid, universal.TransformViaDescription{Description: description}, nil)
	if err != nil {
		failColor.Printf("transform error: %v\n", err)
		return
	}

	switch m := reply.(type) {
	case universal.Transformed:
		md, _ := sys.Store.Lookup(m.ID)
		okColor.Printf("%s is now a %s", m.ID, md.Type)
		if len(md.Capabilities) > 0 {
			dimColor.Printf(" (capabilities: %v)", md.Capabilities)
		}
		fmt.Println()
	case universal.TransformFailed:
		failColor.Printf("transform failed: %s\n", m.Reason)
	default:
		dimColor.Printf("unexpected reply: %#v\n", reply)
	}
}

func runCommand(sys *system.System, current core.ActorId, line string) (core.ActorId, bool) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/help":
		fmt.Println(`/spawn [id]      spawn a new actor and switch to it
/use <id>        switch the current actor
/actors          list live actors
/state [id]      show an actor's state
/events [n]      show the n most recent events
/backend [name]  show backends, or pin selection to one
/quit            exit`)

	case "/spawn":
		_, id, err := sys.Spawn(arg)
		if err != nil {
			failColor.Printf("spawn failed: %v\n", err)
			return current, false
		}
		okColor.Printf("spawned %s\n", id)
		return id, false

	case "/use":
		if arg == "" || sys.Engine.Lookup(arg) == nil {
			failColor.Printf("no such actor %q\n", arg)
			return current, false
		}
		return core.ActorId(arg), false

	case "/actors":
		for _, pid := range sys.Engine.PIDs() {
			kind := "untransformed"
			if md, ok := sys.Store.Lookup(core.ActorId(pid.ID)); ok {
				kind = md.Type
			}
			marker := " "
			if pid.ID == string(current) {
				marker = "*"
			}
			fmt.Printf("%s %s (%s)\n", marker, pid.ID, kind)
		}

	case "/state":
		id := string(current)
		if arg != "" {
			id = arg
		}
		showState(sys, id)

	case "/events":
		n := 10
		fmt.Sscanf(arg, "%d", &n)
		for _, e := range sys.Store.GetRecent(n) {
			payload, _ := json.Marshal(e.Payload)
			dimColor.Printf("[%d] ", e.TimestampMs)
			fmt.Printf("%s %s %s\n", e.ID, e.Kind, payload)
		}

	case "/backend":
		if arg != "" {
			sys.Chain.SetOverride(arg)
			okColor.Printf("backend pinned to %s\n", arg)
			return current, false
		}
		for _, st := range sys.Chain.Backends() {
			mark := failColor.Sprint("down")
			if st.Available {
				mark = okColor.Sprint("up")
			}
			fmt.Printf("%-12s %s\n", st.Name, mark)
		}

	case "/quit", "/exit":
		return current, true

	default:
		failColor.Printf("unknown command %s\n", fields[0])
	}
	return current, false
}

func showState(sys *system.System, id string) {
	pid := sys.Engine.Lookup(id)
	if pid == nil {
		failColor.Printf("no such actor %q\n", id)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sys.Config.CapabilityTimeout)
	defer cancel()

	reply, err := sys.Engine.Ask(ctx, pid, universal.GetState{Token: "repl"}, nil)
	if err != nil {
		failColor.Printf("state query failed: %v\n", err)
		return
	}
	if snapshot, ok := reply.(universal.StateSnapshot); ok {
		raw, _ := json.MarshalIndent(snapshot.State, "", "  ")
		fmt.Println(string(raw))
	}
}
