package handler

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wartactics/server/internal/net"
	"github.com/wartactics/server/internal/tactics"
)

// Deps holds shared dependencies injected into all terminal handlers.
type Deps struct {
	Game         *tactics.Session
	Broadcast    *Broadcaster
	PasswordHash string // bcrypt; empty disables the login prompt
	Log          *zap.Logger
}

// CommandFunc handles one terminal command. args are the words after the
// command name, original case preserved.
type CommandFunc func(sess *net.Session, args []string, deps *Deps)

type commandEntry struct {
	name  string
	usage string
	fn    CommandFunc
}

// Registry maps command names to handlers. Names may be two words
// ("end turn"); the longest registered prefix wins.
type Registry struct {
	commands map[string]*commandEntry
	order    []string
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		commands: make(map[string]*commandEntry),
		log:      log,
	}
}

// Register maps a lower-case command name to a handler.
func (reg *Registry) Register(name, usage string, fn CommandFunc) {
	if _, dup := reg.commands[name]; !dup {
		reg.order = append(reg.order, name)
	}
	reg.commands[name] = &commandEntry{name: name, usage: usage, fn: fn}
}

// Lookup finds the handler for line.
func (reg *Registry) Lookup(line string) (CommandFunc, []string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil, false
	}
	if len(fields) >= 2 {
		if e, ok := reg.commands[strings.ToLower(fields[0]+" "+fields[1])]; ok {
			return e.fn, fields[2:], true
		}
	}
	if e, ok := reg.commands[strings.ToLower(fields[0])]; ok {
		return e.fn, fields[1:], true
	}
	return nil, nil, false
}

// Usages lists registered commands in registration order.
func (reg *Registry) Usages() []string {
	out := make([]string, 0, len(reg.order))
	for _, name := range reg.order {
		out = append(out, reg.commands[name].usage)
	}
	return out
}

// Names returns the registered command names, sorted.
func (reg *Registry) Names() []string {
	out := append([]string(nil), reg.order...)
	sort.Strings(out)
	return out
}

// HandleLine routes one line from a terminal: the password until the
// session is authenticated, then meta commands, then tactical orders.
func HandleLine(sess *net.Session, line string, reg *Registry, deps *Deps) {
	if !sess.Authed {
		handleLogin(sess, line, deps)
		return
	}
	if fn, args, ok := reg.Lookup(line); ok {
		fn(sess, args, deps)
		return
	}
	issueOrder(sess, line, deps)
}

// RegisterAll registers every terminal command.
func RegisterAll(reg *Registry) {
	reg.Register("help", "help                              list commands", func(sess *net.Session, _ []string, deps *Deps) {
		cmdHelp(sess, reg)
	})
	reg.Register("start", "start                             initialize and start the mission", cmdStart)
	reg.Register("pause", "pause                             pause the game", cmdPause)
	reg.Register("resume", "resume                            resume a paused game", cmdResume)
	reg.Register("tick", "tick                              advance one tick (turn-based)", cmdTick)
	reg.Register("end turn", "end turn                          end the turn", cmdEndTurn)
	reg.Register("realtime", "realtime on|off                   switch real-time mode", cmdRealTime)
	reg.Register("speed", "speed <ms>                        set the tick duration", cmdSpeed)
	reg.Register("status", "status                            game and mission status", cmdStatus)
	reg.Register("units", "units                             list units", cmdUnits)
	reg.Register("zones", "zones                             list terrain and who holds it", cmdZones)
	reg.Register("log", "log [n]                           recent game log", cmdLog)
	reg.Register("sitrep", "sitrep [unit]                     request a situation report", cmdSitRep)
	reg.Register("intel", "intel <source> <conf> <text>      file an intelligence report", cmdIntel)
	reg.Register("recon", "recon <uav|scout> <zone> <text>   file a recon report", cmdRecon)
	reg.Register("analyze", "analyze                           analyze gathered intel", cmdAnalyze)
	reg.Register("jam", "jam                               jam communications", cmdJam)
	reg.Register("restore", "restore                           restore communications", cmdRestore)
	reg.Register("resupply", "resupply [unit]                   resupply one or all units", cmdResupply)
	reg.Register("reset", "reset                             drop the mission", cmdReset)
	reg.Register("quit", "quit                              close this terminal", cmdQuit)
}
