package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/encounter/internal/config"
	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/core/event"
	coresys "github.com/l1jgo/encounter/internal/core/system"
	"github.com/l1jgo/encounter/internal/data"
	"github.com/l1jgo/encounter/internal/persist"
	"github.com/l1jgo/encounter/internal/script"
	"github.com/l1jgo/encounter/internal/script/blackmorass"
	"github.com/l1jgo/encounter/internal/script/toc5"
	"github.com/l1jgo/encounter/internal/scripting"
	"github.com/l1jgo/encounter/internal/system"
	"github.com/l1jgo/encounter/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, id int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            encsim  v0.1.0                 \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        副本事件模擬 · instance scripts    \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m模擬器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", name, id)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main logic ─────────────────────────────────────────────────────

type tables struct {
	creatures *data.CreatureTable
	spawns    []data.SpawnEntry
	instances *data.InstanceTable
}

func run() error {
	scenario := flag.String("scenario", "", "run a Lua scenario against a fresh instance and exit")
	mapFlag := flag.Uint("map", 0, "map for -scenario (default: first configured map)")
	watch := flag.Bool("watch", false, "with -scenario, re-run whenever the file changes")
	flag.Parse()

	// 1. Load config
	cfgPath := "config/encsim.toml"
	if p := os.Getenv("ENCSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Data tables
	printSection("資料載入")
	tbl, err := loadTables(cfg.Simulation.DataDir)
	if err != nil {
		return err
	}
	printStat("生物模板", tbl.creatures.Count())
	printStat("固定生成", len(tbl.spawns))
	printStat("副本", tbl.instances.Count())

	// 4. Scripts
	reg := script.NewRegistry(log)
	if err := blackmorass.Register(reg); err != nil {
		return fmt.Errorf("register black morass: %w", err)
	}
	if err := toc5.Register(reg, log); err != nil {
		return fmt.Errorf("register trial of the champion: %w", err)
	}
	printStat("腳本", len(reg.Names()))
	fmt.Println()

	if *scenario != "" {
		mapID := uint32(*mapFlag)
		if mapID == 0 && len(cfg.Simulation.Maps) > 0 {
			mapID = cfg.Simulation.Maps[0]
		}
		return runScenario(cfg, tbl, reg, log, resolveScenario(cfg, *scenario), mapID, *watch)
	}
	return runLoop(cfg, tbl, reg, log)
}

func loadTables(dir string) (*tables, error) {
	creatures, err := data.LoadCreatureTable(filepath.Join(dir, "creature_template.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load creature table: %w", err)
	}
	spawns, err := data.LoadSpawnList(filepath.Join(dir, "creature_spawn.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load spawn list: %w", err)
	}
	instances, err := data.LoadInstanceTable(filepath.Join(dir, "instance_template.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load instance table: %w", err)
	}
	return &tables{creatures: creatures, spawns: spawns, instances: instances}, nil
}

// resolveScenario looks a bare scenario name up in the scenario directory.
func resolveScenario(cfg *config.Config, path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if !strings.HasSuffix(path, ".lua") {
		path += ".lua"
	}
	return filepath.Join(cfg.Simulation.ScenarioDir, path)
}

func seed(cfg *config.Config) int64 {
	if cfg.Simulation.Seed != 0 {
		return cfg.Simulation.Seed
	}
	return time.Now().UnixNano()
}

// heroic applies the configured difficulty only where the map has one.
func heroic(cfg *config.Config, tbl *tables, mapID uint32) bool {
	t := tbl.instances.Get(mapID)
	return cfg.Simulation.Heroic && t != nil && t.Heroic
}

// runScenario plays a Lua scenario against a fresh instance. With watch it
// keeps running and replays the scenario on every save.
func runScenario(cfg *config.Config, tbl *tables, reg *script.Registry, log *zap.Logger, path string, mapID uint32, watch bool) error {
	runOnce := func() error {
		ws := world.NewState(log, reg, world.Options{Creatures: tbl.creatures, Spawns: tbl.spawns})
		inst, err := ws.CreateInstance(world.InstanceConfig{
			MapID:  mapID,
			Heroic: heroic(cfg, tbl, mapID),
			Seed:   seed(cfg),
		})
		if err != nil {
			return err
		}
		e := scripting.NewEngine(inst, cfg.Simulation.TickRate, log)
		defer e.Close()
		if err := e.RunFile(path); err != nil {
			return err
		}
		printOK(fmt.Sprintf("%s 完成 (模擬 %s)", filepath.Base(path), inst.Elapsed()))
		return nil
	}

	printSection("情境")
	if !watch {
		return runOnce()
	}
	if err := runOnce(); err != nil {
		log.Error("scenario failed", zap.Error(err))
	}

	w, err := scripting.NewWatcher(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	printReady(fmt.Sprintf("監看 %s", path))

	want := filepath.Clean(path)
	for {
		select {
		case changed, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(changed) != want {
				continue
			}
			log.Info("scenario changed, re-running", zap.String("file", changed))
			if err := runOnce(); err != nil {
				log.Error("scenario failed", zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if ok {
				log.Warn("watch error", zap.Error(err))
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

// runLoop drives the configured instances in real time until interrupted.
func runLoop(cfg *config.Config, tbl *tables, reg *script.Registry, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 5. Storage
	printSection("資料庫")
	var (
		store system.InstanceStore
		repo  *persist.InstanceRepo
	)
	if cfg.Database.Enabled {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("資料庫遷移完成")
		repo = persist.NewInstanceRepo(db)
		store = repo
	} else {
		store = system.NewMemoryStore()
		printOK("未啟用資料庫，存檔僅保留於記憶體")
	}
	fmt.Println()

	// 6. World and instances
	bus := event.NewBus()
	ecsWorld := ecs.NewWorld()
	ws := world.NewState(log, reg, world.Options{
		Creatures: tbl.creatures,
		Spawns:    tbl.spawns,
		Bus:       bus,
		ECS:       ecsWorld,
	})

	printSection("副本")
	for _, mapID := range cfg.Simulation.Maps {
		saved := ""
		if repo != nil {
			sv, err := repo.LoadByMap(ctx, mapID)
			if err != nil {
				return fmt.Errorf("load save for map %d: %w", mapID, err)
			}
			if sv != nil {
				saved = sv.Data
			}
		}
		inst, err := ws.CreateInstance(world.InstanceConfig{
			MapID:     mapID,
			Heroic:    heroic(cfg, tbl, mapID),
			Seed:      seed(cfg),
			SavedData: saved,
		})
		if err != nil {
			return fmt.Errorf("create instance %d: %w", mapID, err)
		}
		name := fmt.Sprintf("map %d", mapID)
		if t := tbl.instances.Get(mapID); t != nil {
			name = t.Name
		}
		printStat(name, inst.CreatureCount())
	}
	fmt.Println()

	// 7. Systems
	const saveInterval = 150 // 150 ticks × 200ms = 30 seconds
	persistSys := system.NewPersistenceSystem(bus, store, log, saveInterval)

	runner := coresys.NewRunner()
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewInstanceSystem(ws))
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(ecsWorld))

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("模擬就緒")
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			// deliver saves emitted during the last tick before the final write
			bus.SwapBuffers()
			bus.DispatchAll()
			persistSys.Flush()
			log.Info("simulation stopped")
			return nil
		}
	}
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
