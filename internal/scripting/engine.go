package scripting

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/handler"
	"github.com/l1jgo/encounter/internal/net/packet"
	"github.com/l1jgo/encounter/internal/script"
	"github.com/l1jgo/encounter/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM that drives one instance through a
// scenario script. Gossip goes through the client packet handlers the way a
// real client's clicks would. Single-goroutine access only (game loop).
type Engine struct {
	vm      *lua.LState
	log     *zap.Logger
	inst    *world.Instance
	step    time.Duration
	players map[string]*world.Player
	pkts    *packet.Registry
}

// NewEngine creates a Lua engine bound to inst. Time advanced by the script
// is ticked in increments of step.
func NewEngine(inst *world.Instance, step time.Duration, log *zap.Logger) *Engine {
	e := &Engine{
		vm:      lua.NewState(),
		log:     log,
		inst:    inst,
		step:    step,
		players: make(map[string]*world.Player),
		pkts:    packet.NewRegistry(log),
	}
	handler.RegisterAll(e.pkts, &handler.Deps{Log: log})
	e.registerAPI()
	return e
}

// Instance returns the instance the scenario drives.
func (e *Engine) Instance() *world.Instance { return e.inst }

// Player returns a player created by player_enter, or nil.
func (e *Engine) Player(name string) *world.Player { return e.players[name] }

// RunFile executes a scenario file.
func (e *Engine) RunFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return scenarioError(filepath.Base(path), err)
	}
	e.log.Debug("scenario finished", zap.String("file", path), zap.Duration("elapsed", e.inst.Elapsed()))
	return nil
}

// RunString executes scenario source; name labels errors.
func (e *Engine) RunString(name, src string) error {
	if err := e.vm.DoString(src); err != nil {
		return scenarioError(name, err)
	}
	return nil
}

func scenarioError(name string, err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		msg := apiErr.Object.String()
		if apiErr.StackTrace != "" {
			msg += "\n" + apiErr.StackTrace
		}
		return fmt.Errorf("scenario %s: %s", name, msg)
	}
	return fmt.Errorf("scenario %s: %w", name, err)
}

func (e *Engine) registerAPI() {
	api := map[string]lua.LGFunction{
		"advance":         e.luaAdvance,
		"player_enter":    e.luaPlayerEnter,
		"player_leave":    e.luaPlayerLeave,
		"set_quest":       e.luaSetQuest,
		"quest_status":    e.luaQuestStatus,
		"mount":           e.luaMount,
		"set_data":        e.luaSetData,
		"get_data":        e.luaGetData,
		"set_boss_state":  e.luaSetBossState,
		"boss_state":      e.luaBossState,
		"spawn":           e.luaSpawn,
		"creatures":       e.luaCreatures,
		"kill":            e.luaKill,
		"despawn":         e.luaDespawn,
		"damage":          e.luaDamage,
		"movement_inform": e.luaMovementInform,
		"gossip_hello":    e.luaGossipHello,
		"gossip_select":   e.luaGossipSelect,
		"gossip_open":     e.luaGossipOpen,
		"world_state":     e.luaWorldState,
		"log":             e.luaLog,
	}
	for name, fn := range api {
		e.vm.SetGlobal(name, e.vm.NewFunction(fn))
	}
}

// advance(ms)
func (e *Engine) luaAdvance(L *lua.LState) int {
	ms := L.CheckInt64(1)
	if ms < 0 {
		L.ArgError(1, "negative duration")
	}
	e.inst.Advance(time.Duration(ms)*time.Millisecond, e.step)
	return 0
}

// player_enter(name [, gm]) -> guid
func (e *Engine) luaPlayerEnter(L *lua.LState) int {
	name := L.CheckString(1)
	gm := L.OptBool(2, false)
	p, ok := e.players[name]
	if !ok {
		p = world.NewPlayer(name, gm)
		e.players[name] = p
	}
	e.inst.AddPlayer(p)
	L.Push(guidValue(p.GUID()))
	return 1
}

// player_leave(name)
func (e *Engine) luaPlayerLeave(L *lua.LState) int {
	e.inst.RemovePlayer(e.checkPlayer(L, 1))
	return 0
}

// set_quest(name, quest, status)
func (e *Engine) luaSetQuest(L *lua.LState) int {
	p := e.checkPlayer(L, 1)
	p.SetQuestStatus(uint32(L.CheckInt(2)), script.QuestStatus(L.CheckInt(3)))
	return 0
}

// quest_status(name, quest) -> status
func (e *Engine) luaQuestStatus(L *lua.LState) int {
	p := e.checkPlayer(L, 1)
	L.Push(lua.LNumber(p.QuestStatus(uint32(L.CheckInt(2)))))
	return 1
}

// mount(name, in_vehicle)
func (e *Engine) luaMount(L *lua.LState) int {
	e.checkPlayer(L, 1).SetInVehicle(L.CheckBool(2))
	return 0
}

// set_data(key, value)
func (e *Engine) luaSetData(L *lua.LState) int {
	e.inst.Script().SetData(checkUint32(L, 1), checkUint32(L, 2))
	return 0
}

// get_data(key) -> value
func (e *Engine) luaGetData(L *lua.LState) int {
	L.Push(lua.LNumber(e.inst.Script().Data(checkUint32(L, 1))))
	return 1
}

// set_boss_state(id, state) -> accepted
func (e *Engine) luaSetBossState(L *lua.LState) int {
	ok := e.inst.Script().SetBossState(checkUint32(L, 1), script.EncounterState(L.CheckInt(2)))
	L.Push(lua.LBool(ok))
	return 1
}

// boss_state(id) -> state
func (e *Engine) luaBossState(L *lua.LState) int {
	L.Push(lua.LNumber(e.inst.Script().BossState(checkUint32(L, 1))))
	return 1
}

// spawn(entry, x, y, z [, o]) -> guid
func (e *Engine) luaSpawn(L *lua.LState) int {
	pos := script.Position{
		X: float64(L.CheckNumber(2)),
		Y: float64(L.CheckNumber(3)),
		Z: float64(L.CheckNumber(4)),
		O: float64(L.OptNumber(5, 0)),
	}
	c := e.inst.Spawn(checkUint32(L, 1), pos)
	L.Push(guidValue(c.GUID()))
	return 1
}

// creatures([entry...]) -> { {guid=, entry=, alive=, health=, x=, y=}, ... }
func (e *Engine) luaCreatures(L *lua.LState) int {
	entries := make([]uint32, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		entries = append(entries, checkUint32(L, i))
	}
	out := L.NewTable()
	for _, c := range e.inst.CreaturesByEntry(entries...) {
		t := L.NewTable()
		t.RawSetString("guid", guidValue(c.GUID()))
		t.RawSetString("entry", lua.LNumber(c.Entry()))
		t.RawSetString("alive", lua.LBool(c.IsAlive()))
		t.RawSetString("health", lua.LNumber(c.Health()))
		pos := c.Position()
		t.RawSetString("x", lua.LNumber(pos.X))
		t.RawSetString("y", lua.LNumber(pos.Y))
		out.Append(t)
	}
	L.Push(out)
	return 1
}

// kill(guid)
func (e *Engine) luaKill(L *lua.LState) int {
	e.checkCreature(L, 1).KillSelf()
	return 0
}

// despawn(guid [, respawn_ms])
func (e *Engine) luaDespawn(L *lua.LState) int {
	c := e.checkCreature(L, 1)
	c.DespawnOrUnsummon(0, time.Duration(L.OptInt64(2, 0))*time.Millisecond)
	return 0
}

// damage(guid, amount) -> applied
func (e *Engine) luaDamage(L *lua.LState) int {
	c := e.checkCreature(L, 1)
	L.Push(lua.LNumber(e.inst.DealDamage(nil, c.GUID(), checkUint32(L, 2))))
	return 1
}

// movement_inform(guid, motion, point)
func (e *Engine) luaMovementInform(L *lua.LState) int {
	c := e.checkCreature(L, 1)
	e.inst.MovementInform(c.GUID(), script.MotionType(checkUint32(L, 2)), uint32(L.OptInt(3, 0)))
	return 0
}

// gossip_hello(name, guid) -> menu_open
func (e *Engine) luaGossipHello(L *lua.LState) int {
	p := e.checkPlayer(L, 1)
	c := e.checkCreature(L, 2)
	e.dispatch(L, p, packet.GossipHello(uint64(c.GUID())))
	L.Push(lua.LBool(p.GossipOpen()))
	return 1
}

// gossip_select(name, guid, action [, sender])
func (e *Engine) luaGossipSelect(L *lua.LState) int {
	p := e.checkPlayer(L, 1)
	c := e.checkCreature(L, 2)
	action := checkUint32(L, 3)
	sender := uint32(L.OptInt(4, int(script.GossipSenderMain)))
	e.dispatch(L, p, packet.GossipSelect(uint64(c.GUID()), sender, action))
	return 0
}

// gossip_open(name) -> bool
func (e *Engine) luaGossipOpen(L *lua.LState) int {
	L.Push(lua.LBool(e.checkPlayer(L, 1).GossipOpen()))
	return 1
}

// dispatch feeds a client packet from p through the handler registry.
// Players outside the instance are still loading and may not send gossip.
func (e *Engine) dispatch(L *lua.LState, p *world.Player, pkt []byte) {
	state := packet.StateInWorld
	if p.Instance() == nil {
		state = packet.StateLoading
	}
	if err := e.pkts.Dispatch(p, state, pkt); err != nil {
		L.RaiseError("%s: %v", p.Name(), err)
	}
}

// world_state(id) -> value | nil
func (e *Engine) luaWorldState(L *lua.LState) int {
	v, ok := e.inst.WorldState(checkUint32(L, 1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v))
	return 1
}

// log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1), zap.Duration("at", e.inst.Elapsed()))
	return 0
}

// --- Lua helpers ---

func (e *Engine) checkPlayer(L *lua.LState, n int) *world.Player {
	name := L.CheckString(n)
	p, ok := e.players[name]
	if !ok {
		L.ArgError(n, fmt.Sprintf("unknown player %q", name))
	}
	return p
}

func (e *Engine) checkCreature(L *lua.LState, n int) *world.Creature {
	guid := ecs.EntityID(uint64(L.CheckNumber(n)))
	c := e.inst.Lookup(guid)
	if c == nil {
		L.ArgError(n, fmt.Sprintf("no creature %s", guid))
	}
	return c
}

func checkUint32(L *lua.LState, n int) uint32 {
	v := L.CheckInt64(n)
	if v < 0 || v > int64(^uint32(0)) {
		L.ArgError(n, "out of uint32 range")
	}
	return uint32(v)
}

func guidValue(id ecs.EntityID) lua.LNumber { return lua.LNumber(uint64(id)) }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
