// Package meshcmd adds mesh commands to the simulator shell.
package meshcmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/meshnode/pkg/cli/sh"
	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/sim"
)

func parseByte(name, s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: %v", name, err)
	}
	return byte(v), nil
}

func parsePair(c *ishell.Context) (a, b mesh.NodeAddress, err error) {
	if len(c.Args) < 2 {
		return 0, 0, fmt.Errorf("ADDR1 ADDR2 required")
	}
	if a, err = sh.ParseAddress(c.Args[0]); err != nil {
		return
	}
	b, err = sh.ParseAddress(c.Args[1])
	return
}

func pushCommand(c *ishell.Context, cmd mesh.Command) {
	sent, err := sh.ShellFrom(c).Mesh.SendCommand(cmd)
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("queued seq %d\n", sent.Seq)
}

var (
	// CommandCmd floods a raw command from the sink.
	CommandCmd = ishell.Cmd{
		Name:    "command",
		Aliases: []string{"cmd"},
		Help:    "TARGET OP ARG",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("TARGET OP ARG required"))
				return
			}
			var cmd mesh.Command
			var err error
			if cmd.Target, err = sh.ParseAddress(c.Args[0]); err != nil {
				c.Err(err)
				return
			}
			if cmd.Op, err = parseByte("OP", c.Args[1]); err != nil {
				c.Err(err)
				return
			}
			if cmd.Arg, err = parseByte("ARG", c.Args[2]); err != nil {
				c.Err(err)
				return
			}
			pushCommand(c, cmd)
		},
	}

	// PeriodCmd changes the sampling period of a node.
	PeriodCmd = ishell.Cmd{
		Name:    "period",
		Aliases: []string{"per"},
		Help:    "TARGET PERIOD(ms)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("TARGET PERIOD required"))
				return
			}
			target, err := sh.ParseAddress(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			ms, err := strconv.Atoi(c.Args[1])
			if err != nil || ms < 100 || ms > 25500 {
				c.Err(fmt.Errorf("Invalid PERIOD: %s", c.Args[1]))
				return
			}
			pushCommand(c, mesh.Command{Target: target, Op: mesh.OpSetSamplingPeriod, Arg: byte(ms / 100)})
		},
	}

	// LinkCmd makes two nodes hear each other.
	LinkCmd = ishell.Cmd{
		Name:    "link",
		Aliases: []string{"ln"},
		Help:    "ADDR1 ADDR2",
		Func: func(c *ishell.Context) {
			a, b, err := parsePair(c)
			if err != nil {
				c.Err(err)
				return
			}
			m := sh.ShellFrom(c).Mesh
			m.Do(func() { m.Medium.Link(a, b) })
		},
	}

	// UnlinkCmd separates two nodes.
	UnlinkCmd = ishell.Cmd{
		Name:    "unlink",
		Aliases: []string{"ul"},
		Help:    "ADDR1 ADDR2",
		Func: func(c *ishell.Context) {
			a, b, err := parsePair(c)
			if err != nil {
				c.Err(err)
				return
			}
			m := sh.ShellFrom(c).Mesh
			m.Do(func() { m.Medium.Unlink(a, b) })
		},
	}

	// TempCmd sets the temperature seen by a node's sensor.
	TempCmd = ishell.Cmd{
		Name: "temp",
		Help: "ADDR CELSIUS",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("ADDR CELSIUS required"))
				return
			}
			addr, err := sh.ParseAddress(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			val, err := strconv.ParseFloat(c.Args[1], 64)
			if err != nil {
				c.Err(fmt.Errorf("Invalid CELSIUS: %v", err))
				return
			}
			m := sh.ShellFrom(c).Mesh
			mem := m.Member(addr)
			if mem == nil {
				c.Err(fmt.Errorf("no node %s", addr))
				return
			}
			m.Do(func() { mem.Temp = val })
		},
	}

	// ReadingsCmd prints the latest telemetry received by the sink.
	ReadingsCmd = ishell.Cmd{
		Name:    "readings",
		Aliases: []string{"r"},
		Help:    "",
		Func: func(c *ishell.Context) {
			latest := sh.ShellFrom(c).Mesh.Recorder.Latest()
			list := make([]sim.Reading, 0, len(latest))
			for _, rd := range latest {
				list = append(list, rd)
			}
			sort.Slice(list, func(i, j int) bool { return list[i].Source < list[j].Source })
			if sh.ShellFrom(c).OutputJSON {
				sh.Print(c, list)
				return
			}
			if len(list) == 0 {
				c.Println("No readings")
				return
			}
			for _, rd := range list {
				c.Printf("%s at %s\n", rd.Point, rd.At.Format("15:04:05.000"))
			}
		},
	}

	// AcksCmd prints the acks received by the sink.
	AcksCmd = ishell.Cmd{
		Name:    "acks",
		Aliases: []string{"a"},
		Help:    "",
		Func: func(c *ishell.Context) {
			acks := sh.ShellFrom(c).Mesh.Recorder.Acks()
			if sh.ShellFrom(c).OutputJSON {
				if acks == nil {
					acks = []mesh.Ack{}
				}
				sh.Print(c, acks)
				return
			}
			for _, ack := range acks {
				c.Printf("%s seq %d status %d\n", ack.Source, ack.Seq, ack.Status)
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&CommandCmd,
		&PeriodCmd,
		&LinkCmd,
		&UnlinkCmd,
		&TempCmd,
		&ReadingsCmd,
		&AcksCmd,
	)
}
