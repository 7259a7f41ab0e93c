package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM running mission scripts.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script in dir, then in
// dir/missions. Missing directories are skipped.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, d := range []string{dir, filepath.Join(dir, "missions")} {
		if err := e.loadDir(d); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// InjectionKind names what a script asks the game to do.
type InjectionKind string

const (
	InjectIntel    InjectionKind = "intel"
	InjectRecon    InjectionKind = "recon"
	InjectJam      InjectionKind = "jam"
	InjectRestore  InjectionKind = "restore"
	InjectSitRep   InjectionKind = "sitrep"
	InjectResupply InjectionKind = "resupply"
)

// Injection is one scripted event. Fields not used by Kind are empty.
type Injection struct {
	Kind       InjectionKind
	Source     string
	Confidence int
	Content    string
	Location   string
	Unit       string
}

// UnitInfo is the per-unit view handed to scripts.
type UnitInfo struct {
	Name    string
	Faction string
	Zone    string
	State   string
	Morale  float64
}

// TickInfo is the context table passed to on_tick.
type TickInfo struct {
	Tick        int
	Turn        int
	MissionTime string // HHMMZ
	Comms       string
	Friendly    int
	Hostile     int
	Units       []UnitInfo
}

// MissionInfo is the context table passed to on_start.
type MissionInfo struct {
	Name     string
	Briefing string
}

// OnStart calls the Lua on_start(ctx) hook when a mission begins.
func (e *Engine) OnStart(info MissionInfo) []Injection {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(info.Name))
	t.RawSetString("briefing", lua.LString(info.Briefing))
	return e.callHook("on_start", t)
}

// OnTick calls the Lua on_tick(ctx) hook after every processed tick.
func (e *Engine) OnTick(info TickInfo) []Injection {
	t := e.vm.NewTable()
	t.RawSetString("tick", lua.LNumber(info.Tick))
	t.RawSetString("turn", lua.LNumber(info.Turn))
	t.RawSetString("mission_time", lua.LString(info.MissionTime))
	t.RawSetString("comms", lua.LString(info.Comms))
	t.RawSetString("friendly", lua.LNumber(info.Friendly))
	t.RawSetString("hostile", lua.LNumber(info.Hostile))

	units := e.vm.NewTable()
	for i, u := range info.Units {
		row := e.vm.NewTable()
		row.RawSetString("name", lua.LString(u.Name))
		row.RawSetString("faction", lua.LString(u.Faction))
		row.RawSetString("zone", lua.LString(u.Zone))
		row.RawSetString("state", lua.LString(u.State))
		row.RawSetString("morale", lua.LNumber(u.Morale))
		units.RawSetInt(i+1, row)
	}
	t.RawSetString("units", units)
	return e.callHook("on_tick", t)
}

// callHook runs a hook returning an array of injection tables. A missing
// hook or a script error yields no injections.
func (e *Engine) callHook(name string, ctx *lua.LTable) []Injection {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, ctx); err != nil {
		e.log.Error("lua hook error", zap.String("hook", name), zap.Error(err))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []Injection
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		inj := Injection{
			Kind:       InjectionKind(lStr(row, "type")),
			Source:     lStr(row, "source"),
			Confidence: lInt(row, "confidence"),
			Content:    lStr(row, "content"),
			Location:   lStr(row, "location"),
			Unit:       lStr(row, "unit"),
		}
		switch inj.Kind {
		case InjectIntel, InjectRecon, InjectJam, InjectRestore, InjectSitRep, InjectResupply:
			out = append(out, inj)
		default:
			e.log.Warn("unknown lua injection", zap.String("hook", name), zap.String("type", string(inj.Kind)))
		}
	})
	return out
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
