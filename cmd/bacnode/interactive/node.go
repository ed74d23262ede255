// Package interactive provides the interactive command-line interface
// for the bacnode command.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
	"github.com/bacnode-protocol/bacnode-go/pkg/discovery"
	"github.com/bacnode-protocol/bacnode-go/pkg/node"
	"github.com/bacnode-protocol/bacnode-go/pkg/remote"
	"github.com/bacnode-protocol/bacnode-go/pkg/subscription"
	"github.com/bacnode-protocol/bacnode-go/pkg/version"
)

// commandTimeout bounds every remote operation issued from the shell.
const commandTimeout = 30 * time.Second

// Session is the view of the running node the shell needs. The node handle
// behind it changes on reset, which is why the shell never holds one.
type Session interface {
	Node() *node.Node
	Accessor() *remote.Accessor
	Discovery() *discovery.Service
	Reset(overrides node.Config) error
	Save() (*node.Backup, error)
}

// Shell handles interactive mode for bacnode.
type Shell struct {
	session Session
	rl      *readline.Instance
}

// New creates a new interactive shell.
func New(session Session) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bacnode> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{session: session, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "status":
			s.cmdStatus()

		case "whois":
			s.cmdWhoIs(args)

		case "whohas":
			s.cmdWhoHas(args)

		case "devices", "ls":
			s.cmdDevices()

		case "objects":
			s.cmdObjects(args)

		case "read", "r":
			s.cmdRead(args)

		case "write", "w":
			s.cmdWrite(args)

		case "create":
			s.cmdCreate(args)

		case "delete":
			s.cmdDelete(args)

		case "subscribe", "sub":
			s.cmdSubscribe(args)

		case "unsubscribe", "unsub":
			s.cmdUnsubscribe(args)

		case "subs":
			s.cmdSubs()

		case "local":
			s.cmdLocal(args)

		case "save":
			s.cmdSave()

		case "reset":
			s.cmdReset(args)

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
BACnode Commands:
  Discovery:
    whois [low high]                - Broadcast WhoIs and list responders
    whohas <object|name>            - Broadcast WhoHas for an object
    devices                         - List discovered devices

  Remote objects:
    objects <device-id>             - Walk a device's object list
    read <device-id> <object> [prop]    - Read a property (default: all)
    write <device-id> <object> <prop> <value> - Write a property
    create <device-id> <object>     - Create an object
    delete <device-id> <object>     - Delete an object

  Subscriptions:
    subscribe <device-id> <object>  - Subscribe to change-of-value reports
    unsubscribe <process-id>        - Cancel a subscription
    subs                            - List active subscriptions

  Local device:
    status                          - Show node state
    local [add <object> <prop> <value> | remove <object>] - Manage local objects
    save                            - Persist config and objects
    reset [device-id] [port]        - Replace the node instance

  Other:
    help                            - Show this help
    quit                            - Exit`)
}

func (s *Shell) cmdStatus() {
	n := s.session.Node()
	cfg := n.Config()
	fmt.Fprintf(s.rl.Stdout(), "Device ID:  %d\n", n.DeviceID())
	fmt.Fprintf(s.rl.Stdout(), "Protocol:   %s\n", version.Current)
	fmt.Fprintf(s.rl.Stdout(), "State:      %s\n", n.State())
	fmt.Fprintf(s.rl.Stdout(), "Port:       %d\n", cfg.Port)
	fmt.Fprintf(s.rl.Stdout(), "Broadcast:  %s\n", cfg.BroadcastAddress)
	fmt.Fprintf(s.rl.Stdout(), "Session:    %s\n", n.SessionID())
	fmt.Fprintf(s.rl.Stdout(), "Objects:    %d local, %d subscriptions\n",
		len(n.Objects()), n.Subscriptions().Count())
}

func (s *Shell) cmdWhoIs(args []string) {
	var rng *discovery.Range
	if len(args) == 2 {
		low, err1 := strconv.ParseUint(args[0], 10, 32)
		high, err2 := strconv.ParseUint(args[1], 10, 32)
		if err1 != nil || err2 != nil {
			fmt.Fprintln(s.rl.Stdout(), "Usage: whois [low high]")
			return
		}
		rng = &discovery.Range{Low: uint32(low), High: uint32(high)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	fmt.Fprintln(s.rl.Stdout(), "Discovering...")
	ids, err := s.session.Discovery().FindDevices(ctx, rng)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Discovery failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%d device(s) known:\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(s.rl.Stdout(), "  %d\n", id)
	}
}

func (s *Shell) cmdWhoHas(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: whohas <type:instance | object-name>")
		return
	}

	var err error
	if oid, perr := bacnet.ParseObjectIdentifier(args[0]); perr == nil {
		err = s.session.Discovery().SendWhoHasID(oid, nil)
	} else {
		err = s.session.Discovery().SendWhoHasName(args[0], nil)
	}
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "WhoHas failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "WhoHas sent; check 'devices' for responders")
}

func (s *Shell) cmdDevices() {
	devices := s.session.Node().Transport().RemoteDevices()
	if len(devices) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No devices discovered (try 'whois')")
		return
	}
	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(s.rl.Stdout(), "  %-8d %-24s %s\n", d.DeviceID, name, d.Address)
	}
}

func (s *Shell) cmdObjects(args []string) {
	deviceID, ok := s.parseDeviceID(args, 1, "Usage: objects <device-id>")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	records, err := s.session.Accessor().ReadAllObjects(ctx, deviceID)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Walk failed: %v\n", err)
		return
	}
	for _, rec := range records {
		fmt.Fprintf(s.rl.Stdout(), "%s\n", rec.ID)
		for prop, value := range rec.Properties {
			fmt.Fprintf(s.rl.Stdout(), "    %-28s %v\n", prop, value)
		}
	}
}

func (s *Shell) cmdRead(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: read <device-id> <type:instance> [property]")
		return
	}
	deviceID, ok := s.parseDeviceID(args, 2, "")
	if !ok {
		return
	}
	oid, err := bacnet.ParseObjectIdentifier(args[1])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid object: %v\n", err)
		return
	}

	prop := bacnet.PropAll
	if len(args) > 2 {
		if prop, err = bacnet.ParsePropertyIdentifier(args[2]); err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Invalid property: %v\n", err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	values, err := s.session.Accessor().ReadProperties(ctx, deviceID, oid, prop)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Read failed: %v\n", err)
		return
	}
	for p, v := range values {
		fmt.Fprintf(s.rl.Stdout(), "%s %s = %v\n", oid, p, v)
	}
}

func (s *Shell) cmdWrite(args []string) {
	if len(args) != 4 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: write <device-id> <type:instance> <property> <value>")
		fmt.Fprintln(s.rl.Stdout(), "  Example: write 1001 analog-value:1 present-value 72.5")
		return
	}
	deviceID, ok := s.parseDeviceID(args, 4, "")
	if !ok {
		return
	}
	oid, err := bacnet.ParseObjectIdentifier(args[1])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid object: %v\n", err)
		return
	}
	prop, err := bacnet.ParsePropertyIdentifier(args[2])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid property: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	err = s.session.Accessor().WriteProperties(ctx, deviceID, bacnet.ObjectRecord{
		ID:         oid,
		Properties: bacnet.PropertyMap{prop: parseValue(args[3])},
	})
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Write failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

func (s *Shell) cmdCreate(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: create <device-id> <type:instance>")
		return
	}
	deviceID, ok := s.parseDeviceID(args, 2, "")
	if !ok {
		return
	}
	oid, err := bacnet.ParseObjectIdentifier(args[1])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid object: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := s.session.Accessor().CreateObject(ctx, deviceID, bacnet.ObjectRecord{ID: oid}); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Create failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

func (s *Shell) cmdDelete(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: delete <device-id> <type:instance>")
		return
	}
	deviceID, ok := s.parseDeviceID(args, 2, "")
	if !ok {
		return
	}
	oid, err := bacnet.ParseObjectIdentifier(args[1])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid object: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := s.session.Accessor().DeleteObject(ctx, deviceID, oid); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Delete failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

func (s *Shell) cmdSubscribe(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: subscribe <device-id> <type:instance>")
		return
	}
	deviceID, ok := s.parseDeviceID(args, 2, "")
	if !ok {
		return
	}
	oid, err := bacnet.ParseObjectIdentifier(args[1])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid object: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out := s.rl.Stdout()
	pid, err := s.session.Accessor().SubscribeCOV(ctx, deviceID, oid, remote.SubscribeOptions{},
		func(n subscription.Notification) {
			for prop, value := range n.Values {
				fmt.Fprintf(out, "[COV] device %d %s %s = %v\n", n.DeviceID, n.Object, prop, value)
			}
		})
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Subscribe failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Subscribed (process ID %d)\n", pid)
}

func (s *Shell) cmdUnsubscribe(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: unsubscribe <process-id>")
		return
	}
	pid, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid process ID: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := s.session.Accessor().UnsubscribeCOV(ctx, uint32(pid)); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Unsubscribe failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

func (s *Shell) cmdSubs() {
	subs := s.session.Node().Subscriptions().All()
	if len(subs) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No active subscriptions")
		return
	}
	for _, sub := range subs {
		lifetime := "indefinite"
		if sub.Lifetime > 0 {
			lifetime = sub.Lifetime.String()
		}
		fmt.Fprintf(s.rl.Stdout(), "  process %-5d device %-8d %-20s %s\n",
			sub.ProcessID, sub.DeviceID, sub.Object, lifetime)
	}
}

func (s *Shell) cmdLocal(args []string) {
	n := s.session.Node()

	if len(args) == 0 {
		objects := n.Objects()
		if len(objects) == 0 {
			fmt.Fprintln(s.rl.Stdout(), "No local objects")
			return
		}
		for _, rec := range objects {
			fmt.Fprintf(s.rl.Stdout(), "%s\n", rec.ID)
			for prop, value := range rec.Properties {
				fmt.Fprintf(s.rl.Stdout(), "    %-28s %v\n", prop, value)
			}
		}
		return
	}

	switch args[0] {
	case "add":
		if len(args) != 4 {
			fmt.Fprintln(s.rl.Stdout(), "Usage: local add <type:instance> <property> <value>")
			return
		}
		oid, err := bacnet.ParseObjectIdentifier(args[1])
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Invalid object: %v\n", err)
			return
		}
		prop, err := bacnet.ParsePropertyIdentifier(args[2])
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Invalid property: %v\n", err)
			return
		}
		rec, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
			ID:         oid,
			Properties: bacnet.PropertyMap{prop: parseValue(args[3])},
		})
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Add failed: %v\n", err)
			return
		}
		fmt.Fprintf(s.rl.Stdout(), "%s now has %d propert(ies)\n", rec.ID, len(rec.Properties))

	case "remove":
		if len(args) != 2 {
			fmt.Fprintln(s.rl.Stdout(), "Usage: local remove <type:instance>")
			return
		}
		oid, err := bacnet.ParseObjectIdentifier(args[1])
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Invalid object: %v\n", err)
			return
		}
		if err := n.RemoveObject(oid); err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Remove failed: %v\n", err)
			return
		}
		fmt.Fprintln(s.rl.Stdout(), "OK")

	default:
		fmt.Fprintf(s.rl.Stdout(), "Unknown subcommand: %s\n", args[0])
	}
}

func (s *Shell) cmdSave() {
	b, err := s.session.Save()
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Save failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Saved %d object(s)\n", len(b.Objects))
}

func (s *Shell) cmdReset(args []string) {
	var overrides node.Config
	if len(args) > 0 {
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Fprintln(s.rl.Stdout(), "Usage: reset [device-id] [port]")
			return
		}
		overrides.DeviceID = uint32(id)
	}
	if len(args) > 1 {
		p, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			fmt.Fprintln(s.rl.Stdout(), "Usage: reset [device-id] [port]")
			return
		}
		overrides.Port = uint16(p)
	}

	if err := s.session.Reset(overrides); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Reset failed: %v\n", err)
		return
	}
	n := s.session.Node()
	fmt.Fprintf(s.rl.Stdout(), "Node replaced: device %d on port %d (session %s)\n",
		n.DeviceID(), n.Config().Port, n.SessionID())
}

func (s *Shell) parseDeviceID(args []string, want int, usage string) (uint32, bool) {
	if len(args) < want {
		if usage != "" {
			fmt.Fprintln(s.rl.Stdout(), usage)
		}
		return 0, false
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid device ID: %v\n", err)
		return 0, false
	}
	return uint32(id), true
}

// parseValue interprets a shell argument as a bool, number or string.
func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
