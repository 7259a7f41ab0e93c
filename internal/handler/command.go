package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wartactics/server/internal/logic"
	"github.com/wartactics/server/internal/loop"
	"github.com/wartactics/server/internal/net"
	"github.com/wartactics/server/internal/tactics"
	"github.com/wartactics/server/internal/world"
)

const defaultLogLines = 10

var orderUsage = []string{
	"Orders:",
	"  move <unit> to <zone> [before <HHMMZ|dawn|dusk|noon|midnight>] [under <modifier>]",
	"  attack <target> with <unit> [using <modifier>]",
	"  defend <zone> with <unit>",
	"  retreat <unit> [to <zone>] [when <condition>]",
}

func cmdHelp(sess *net.Session, reg *Registry) {
	sess.Send("Commands:")
	for _, u := range reg.Usages() {
		sess.Send("  " + u)
	}
	for _, l := range orderUsage {
		sess.Send(l)
	}
}

// sendLoop delivers ev and answers when the current state refuses it.
func sendLoop(sess *net.Session, deps *Deps, ev loop.Event, ok string) {
	if !deps.Game.SendLoop(ev) {
		sess.Send(fmt.Sprintf("Not available while %s", deps.Game.Loop().State()))
		return
	}
	if ok != "" {
		sess.Send(ok)
	}
}

func sendLogic(sess *net.Session, deps *Deps, ev logic.Event) {
	if !deps.Game.SendLogic(ev) {
		sess.Send(fmt.Sprintf("Not available while command is %s", deps.Game.Logic().State()))
	}
}

func cmdStart(sess *net.Session, _ []string, deps *Deps) {
	sendLoop(sess, deps, loop.StartGame{}, "Mission starting")
}

func cmdPause(sess *net.Session, _ []string, deps *Deps) {
	sendLoop(sess, deps, loop.PauseGame{}, "Game paused")
}

func cmdResume(sess *net.Session, _ []string, deps *Deps) {
	sendLoop(sess, deps, loop.ResumeGame{}, "Game resumed")
}

func cmdTick(sess *net.Session, _ []string, deps *Deps) {
	sendLoop(sess, deps, loop.AdvanceTick{}, "")
}

func cmdEndTurn(sess *net.Session, _ []string, deps *Deps) {
	sendLoop(sess, deps, loop.EndTurn{}, fmt.Sprintf("Turn %d ended", deps.Game.Loop().Snapshot().TurnCount))
}

func cmdReset(sess *net.Session, _ []string, deps *Deps) {
	sendLoop(sess, deps, loop.ResetGame{}, "")
}

func cmdRealTime(sess *net.Session, args []string, deps *Deps) {
	if len(args) != 1 {
		sess.Send("Usage: realtime on|off")
		return
	}
	switch strings.ToLower(args[0]) {
	case "on":
		sendLoop(sess, deps, loop.SetRealTime{Enabled: true}, "Real-time mode on")
	case "off":
		sendLoop(sess, deps, loop.SetRealTime{Enabled: false}, "Turn-based mode on")
	default:
		sess.Send("Usage: realtime on|off")
	}
}

func cmdSpeed(sess *net.Session, args []string, deps *Deps) {
	if len(args) != 1 {
		sess.Send("Usage: speed <ms>")
		return
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		sess.Send("Tick speed must be a non-negative number of milliseconds")
		return
	}
	d := time.Duration(ms) * time.Millisecond
	sendLoop(sess, deps, loop.ChangeTickSpeed{Duration: d}, fmt.Sprintf("Tick speed set to %dms", ms))
}

func cmdStatus(sess *net.Session, _ []string, deps *Deps) {
	snap := deps.Game.Snapshot()
	l, g := snap.Loop, snap.Logic
	sess.Send(fmt.Sprintf("Game: %s  Command: %s  Comms: %s", l.State, g.State, g.Comms))
	if !l.HasWorld {
		sess.Send("No mission loaded. Type 'start'.")
		return
	}
	mode := "turn-based"
	if l.IsRealTime {
		mode = "real-time"
	}
	sess.Send(fmt.Sprintf("Tick %d  Turn %d  Mission time %s  %s at %dms",
		l.CurrentTick, l.TurnCount, l.MissionTime, mode, l.TickDuration.Milliseconds()))
	limit := "none"
	if l.MissionTimeLimit > 0 {
		limit = fmt.Sprintf("%d/%d ticks", l.MissionTimer, l.MissionTimeLimit)
	}
	sess.Send(fmt.Sprintf("Victory condition: %s  Time limit: %s", l.VictoryCondition, limit))
	sess.Send(fmt.Sprintf("Orders: %d pending, %d held, %d completed", len(l.PendingOrders), g.Backlog, len(l.CompletedOrders)))
	if w := deps.Game.Loop().World(); w != nil {
		sess.Send(fmt.Sprintf("Forces: friendly %d, hostile %d", w.CountUnits(world.Friendly), w.CountUnits(world.Hostile)))
	}
	if l.Outcome.Decided() {
		sess.Send(fmt.Sprintf("Outcome: %s (%s)", l.Outcome.Outcome, l.Outcome.Reason))
	}
	if l.Error != "" {
		sess.Send("Error: " + l.Error)
	}
}

func cmdUnits(sess *net.Session, _ []string, deps *Deps) {
	w := deps.Game.Loop().World()
	if w == nil {
		sess.Send("No mission loaded.")
		return
	}
	supplies := deps.Game.Logic().Snapshot().Supplies
	w.EachUnit(func(u *world.Unit) {
		line := fmt.Sprintf("%-14s %-9s %-8s %-14s %-10s morale %3.0f",
			u.Name, u.Type, u.Faction, u.Zone, u.State, u.Morale)
		if s, ok := supplies[u.Name]; ok {
			line += fmt.Sprintf("  ammo %3d%%  fuel %3d%%", s.Ammunition, s.Fuel)
		}
		sess.Send(line)
	})
}

func cmdZones(sess *net.Session, _ []string, deps *Deps) {
	w := deps.Game.Loop().World()
	if w == nil {
		sess.Send("No mission loaded.")
		return
	}
	for _, t := range w.Terrains() {
		var friendly, hostile int
		for _, u := range w.UnitsIn(t.ID) {
			switch u.Faction {
			case world.Friendly:
				friendly++
			case world.Hostile:
				hostile++
			}
		}
		line := fmt.Sprintf("%-14s %-9s cover %3.0f  friendly %d  hostile %d", t.ID, t.Type, t.Cover, friendly, hostile)
		if t.Properties.IsObjective {
			line += "  [objective]"
		}
		sess.Send(line)
	}
}

func cmdLog(sess *net.Session, args []string, deps *Deps) {
	n := defaultLogLines
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			sess.Send("Usage: log [n]")
			return
		}
		n = v
	}
	logs := deps.Game.Loop().Snapshot().Logs
	if len(logs) > n {
		logs = logs[len(logs)-n:]
	}
	for _, l := range logs {
		sess.Send(l)
	}
}

func cmdSitRep(sess *net.Session, args []string, deps *Deps) {
	sendLogic(sess, deps, logic.GenerateSitRep{Unit: strings.Join(args, " ")})
}

func cmdIntel(sess *net.Session, args []string, deps *Deps) {
	if len(args) < 3 {
		sess.Send("Usage: intel <visual|sigint|humint|uav|recon> <confidence> <text>")
		return
	}
	src := logic.IntelSource(strings.ToLower(args[0]))
	if !src.Valid() {
		sess.Send(fmt.Sprintf("Unknown intel source %q", args[0]))
		return
	}
	conf, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
	if err != nil {
		sess.Send("Confidence must be a number from 0 to 100")
		return
	}
	sendLogic(sess, deps, logic.UpdateIntel{Source: src, Confidence: conf, Content: strings.Join(args[2:], " ")})
}

func cmdRecon(sess *net.Session, args []string, deps *Deps) {
	if len(args) < 3 {
		sess.Send("Usage: recon <uav|scout> <zone> <findings>")
		return
	}
	kind := logic.ReconType(strings.ToLower(args[0]))
	if kind != logic.ReconUAV && kind != logic.ReconScout {
		sess.Send(fmt.Sprintf("Unknown recon asset %q", args[0]))
		return
	}
	sendLogic(sess, deps, logic.ReconReport{
		Source:   kind,
		Location: world.ZoneID(args[1]),
		Findings: strings.Join(args[2:], " "),
	})
}

func cmdAnalyze(sess *net.Session, _ []string, deps *Deps) {
	sendLogic(sess, deps, logic.AnalyzeIntel{})
}

func cmdJam(sess *net.Session, _ []string, deps *Deps) {
	sendLogic(sess, deps, logic.CommunicationJammed{})
}

func cmdRestore(sess *net.Session, _ []string, deps *Deps) {
	sendLogic(sess, deps, logic.CommunicationRestored{})
}

func cmdResupply(sess *net.Session, args []string, deps *Deps) {
	unit := strings.Join(args, " ")
	if !deps.Game.SendLogic(logic.Resupply{Unit: unit}) {
		if unit != "" && deps.Game.Logic().State() != logic.Idle {
			sess.Send(fmt.Sprintf("Unit %q not found", unit))
			return
		}
		sess.Send(fmt.Sprintf("Not available while command is %s", deps.Game.Logic().State()))
	}
}

func cmdQuit(sess *net.Session, _ []string, _ *Deps) {
	sess.Send("Signing off.")
	sess.FlushOutput()
	sess.Close()
}

func issueOrder(sess *net.Session, line string, deps *Deps) {
	o, err := deps.Game.Issue(line)
	switch {
	case err == nil:
		sess.Send("Order received: " + o.String())
	case errors.Is(err, tactics.ErrNotRecognized):
		sess.Send("Command not recognized. Type 'help' for commands.")
	case errors.Is(err, tactics.ErrNotRunning):
		sess.Send("No mission running. Type 'start' first.")
	case errors.Is(err, tactics.ErrBusy):
		sess.Send("Order backlog full. Stand by.")
	default:
		sess.Send("Order rejected: " + err.Error())
	}
}
