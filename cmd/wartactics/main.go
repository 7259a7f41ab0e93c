package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wartactics/server/internal/config"
	"github.com/wartactics/server/internal/data"
	"github.com/wartactics/server/internal/logic"
	"github.com/wartactics/server/internal/loop"
	"github.com/wartactics/server/internal/mission"
	gonet "github.com/wartactics/server/internal/net"
	"github.com/wartactics/server/internal/persist"
	"github.com/wartactics/server/internal/scripting"
	"github.com/wartactics/server/internal/tactics"
	"github.com/wartactics/server/internal/terminal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  +-------------------------------------------+\033[0m")
	fmt.Println("\033[36;1m  |\033[0m        WARTACTICS  command server         \033[36;1m|\033[0m")
	fmt.Println("\033[36;1m  +-------------------------------------------+\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mMission:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m-- %s %s\033[0m\n", title, strings.Repeat("-", lineLen))
}

func printStat(label string, count int) {
	num := fmt.Sprintf("%d", count)
	dots := max(42-len(label)-len(num), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat(".", dots), num)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m+\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m>\033[0m %s\n", msg)
}

func run() error {
	// 1. Config
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Scenario
	scenario, err := data.LoadScenario(cfg.Scenario.Path)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	printBanner(scenario.Name)

	printSection("Scenario")
	printStat("Zones", len(scenario.Terrain))
	printStat("Units", len(scenario.Units))
	fmt.Println()

	// 4. Mission recorder
	var recorder *persist.Recorder
	if cfg.Database.Enabled {
		printSection("Database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.Open(ctx, cfg.Database, log.Named("db"))
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected, migrations applied")
		fmt.Println()

		recorder = persist.NewRecorder(persist.NewMissionRepo(db), cfg.Database.FlushInterval, log.Named("recorder"))
	}

	// 5. Mission scripts
	var script *scripting.Engine
	if cfg.Scripting.Dir != "" {
		script, err = scripting.NewEngine(cfg.Scripting.Dir, log.Named("script"))
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer script.Close()
	}

	// 6. Game session
	game := tactics.New(sessionOptions(cfg, scenario, script, recorder), log)

	// 7. Terminal server
	netServer, err := gonet.NewServer(cfg.Terminal.BindAddress, gonet.Options{
		InQueueSize:  cfg.Terminal.InQueueSize,
		OutQueueSize: cfg.Terminal.OutQueueSize,
		ReadTimeout:  cfg.Terminal.ReadTimeout,
		WriteTimeout: cfg.Terminal.WriteTimeout,
	}, log.Named("net"))
	if err != nil {
		return fmt.Errorf("terminal server: %w", err)
	}
	go netServer.AcceptLoop()

	runner, sessions := terminal.NewRunner(netServer, game, cfg.Terminal.PasswordHash, cfg.Terminal.MaxLinesPerTick, log.Named("terminal"))
	if cfg.Terminal.PasswordHash == "" {
		log.Warn("terminal password not set, terminals are not authenticated")
	}

	// 8. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.FrameRate)
	defer ticker.Stop()

	printSection("Ready")
	printReady(fmt.Sprintf("Terminal listening on %s", netServer.Addr()))
	printReady(fmt.Sprintf("Frame loop started (frame: %s, tick: %s)", cfg.Game.FrameRate, cfg.Game.TickDuration))
	fmt.Println()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			runner.Tick(now.Sub(last))
			last = now
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			netServer.Shutdown()
			sessions.CloseAll()
			if recorder != nil {
				recorder.Flush()
			}
			log.Info("server stopped")
			return nil
		}
	}
}

// sessionOptions merges the config with the scenario. Scenario values win
// where both are set.
func sessionOptions(cfg *config.Config, sc *data.Scenario, script *scripting.Engine, rec *persist.Recorder) tactics.Options {
	cond := sc.Condition(mission.Condition(cfg.Game.VictoryCondition))
	start := cfg.Game.MissionStartTime()
	if sc.MissionStart != "" {
		if d, err := mission.ParseTime(sc.MissionStart); err == nil {
			start = d
		}
	}
	limit := cfg.Game.MissionTimeLimit
	if sc.MissionTimeLimit > 0 {
		limit = sc.MissionTimeLimit
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	opts := tactics.Options{
		Name:     sc.Name,
		Briefing: sc.Briefing,
		Loop: loop.Config{
			TickDuration:     cfg.Game.TickDuration,
			RealTime:         cfg.Game.RealTime,
			VictoryCondition: cond,
			MissionTimeLimit: limit,
			SurvivalTurns:    cfg.Game.SurvivalTurns,
			MissionStart:     start,
			InitDelay:        cfg.Game.InitDelay,
			TickSettle:       cfg.Game.TickSettle,
			NewWorld:         sc.NewWorld,
		},
		Logic: logic.Config{
			VictoryCondition: cond,
			SurvivalTurns:    cfg.Game.SurvivalTurns,
			MissionStart:     start,
			AdaptChance:      cfg.Game.AdaptChance,
			Rand:             rand.New(rand.NewSource(seed)),
			Personalities:    sc.Personalities(),
			Supplies:         sc.Supplies(),
		},
	}
	// Typed nils must not reach the session's optional interfaces.
	if script != nil {
		opts.Script = script
	}
	if rec != nil {
		opts.Recorder = rec
	}
	return opts
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
