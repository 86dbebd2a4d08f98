// Package sh provides the interactive shell of the mesh simulator.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/sim"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Speed       float64

	Shell *ishell.Shell
	Mesh  *sim.Mesh

	cancel func()
}

const (
	shellKey      = "$shell"
	pausedPrompt  = "[paused] > "
	runningPrompt = "[running] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	speed      = 1.0

	// commands
	commands = []*ishell.Cmd{
		&StatusCmd,
		&StepCmd,
		&RunCmd,
		&PauseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.Float64Var(&speed, "speed", speed, "Simulation speed relative to real time.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(m *sim.Mesh) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Speed:       speed,

		Shell: ishell.New(),
		Mesh:  m,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(pausedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Print prints v as JSON or with its String method.
func Print(c *ishell.Context, v interface{}) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(v)
}

// ParseAddress parses a node address in decimal or 0x hex.
func ParseAddress(s string) (mesh.NodeAddress, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return mesh.NodeAddress(v), nil
}

// FormatStatus prints a node status into friendly string for display.
func FormatStatus(st sim.NodeStatus) string {
	var w strings.Builder
	fmt.Fprintf(&w, "%s %-4s", st.Address, st.Role)
	if st.Hops == mesh.Unreachable {
		w.WriteString(" no route")
	} else {
		fmt.Fprintf(&w, " hops %d", st.Hops)
		if st.Parent.IsResolved() {
			fmt.Fprintf(&w, " via %s", st.Parent)
		}
	}
	fmt.Fprintf(&w, " period %dms sent %d frames %d drops %d relayed %d",
		st.Period, st.Router.Sent, st.Dispatch.Frames, st.Dispatch.ChecksumDrops, st.Dispatch.Relayed)
	return w.String()
}

// Running reports whether the mesh runs in the background.
func (s *Shell) Running() bool {
	return s.cancel != nil
}

// Start runs the mesh in the background.
func (s *Shell) Start() {
	if s.cancel != nil {
		return
	}
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go s.Mesh.Run(ctx, s.Speed)
	s.Shell.SetPrompt(runningPrompt)
}

// Pause stops the background run.
func (s *Shell) Pause() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.Shell.SetPrompt(pausedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		s.Pause()
		return
	}
	log.Fatalln("command expected")
}

var (
	// StatusCmd lists nodes with their routes.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"nodes", "s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			list := s.Mesh.Status()
			if s.OutputJSON {
				Print(c, list)
				return
			}
			c.Printf("t=%s medium %+v\n", s.Mesh.Elapsed(), s.Mesh.Medium.Stats())
			for _, st := range list {
				c.Println(FormatStatus(st))
			}
		},
	}

	// StepCmd advances virtual time.
	StepCmd = ishell.Cmd{
		Name:    "step",
		Aliases: []string{"st"},
		Help:    "[DURATION]",
		Func: func(c *ishell.Context) {
			d := time.Second
			if len(c.Args) > 0 {
				var err error
				if d, err = time.ParseDuration(c.Args[0]); err != nil {
					c.Err(fmt.Errorf("Invalid DURATION: %v", err))
					return
				}
			}
			s := ShellFrom(c)
			s.Mesh.Advance(d)
			c.Printf("t=%s\n", s.Mesh.Elapsed())
		},
	}

	// RunCmd runs the mesh in the background.
	RunCmd = ishell.Cmd{
		Name: "run",
		Help: "[SPEED]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				val, err := strconv.ParseFloat(c.Args[0], 64)
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("Invalid SPEED: %s", c.Args[0]))
					return
				}
				s.Pause()
				s.Speed = val
			}
			s.Start()
		},
	}

	// PauseCmd stops the background run.
	PauseCmd = ishell.Cmd{
		Name:    "pause",
		Aliases: []string{"p"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Pause()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	m, err := sim.NewConfig().NewMesh()
	if err != nil {
		log.Fatalln(err)
	}
	New(m).Run(flag.Args()...)
}
