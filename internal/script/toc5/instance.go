// Package toc5 scripts the tournament dungeon: its instance data and the
// announcer NPC that opens each stage through gossip.
package toc5

import (
	"github.com/l1jgo/encounter/internal/script"
	"go.uber.org/zap"
)

// Instance keeps the tournament progress. Stage fights themselves are run by
// the host; this controller only tracks where the group is.
type Instance struct {
	*script.Base

	log       *zap.Logger
	skipIntro bool
	stages    int // announcer options taken
}

// Register adds the instance controller and the announcer script.
func Register(reg *script.Registry, log *zap.Logger) error {
	if err := reg.AddInstanceScript(ScriptName, MapID, New); err != nil {
		return err
	}
	return reg.AddCreatureScript(NewAnnouncer(log.Named("toc5")))
}

// New is the registry factory.
func New(m script.InstanceMap, log *zap.Logger) script.InstanceScript {
	inst := &Instance{
		Base: script.NewBase(m, dataHeader, int(EncounterCount), nil),
		log:  log,
	}
	inst.Base.SetData(DataTeamInInstance, TeamNeutral)
	inst.Base.SetData(DataInstanceProgress, ProgressInitial)
	return inst
}

// SkipIntro reports whether the group asked to skip the opening speech.
func (i *Instance) SkipIntro() bool { return i.skipIntro }

// StagesStarted returns how many stages the announcer has opened.
func (i *Instance) StagesStarted() int { return i.stages }

func (i *Instance) SetData(key, value uint32) {
	switch key {
	case DataAnnouncerGossipSelect:
		i.stages++
		if i.Data(DataInstanceProgress) == ProgressInitial {
			i.skipIntro = value == 1
		}
		i.log.Info("stage started",
			zap.Uint32("progress", i.Data(DataInstanceProgress)),
			zap.Bool("skip_intro", i.skipIntro),
		)
	case DataInstanceProgress:
		// progress never goes back
		if value > i.Data(DataInstanceProgress) {
			i.Base.SetData(key, value)
		}
	default:
		i.Base.SetData(key, value)
	}
}

// SetBossState moves progress forward when a stage boss is beaten.
func (i *Instance) SetBossState(id uint32, state script.EncounterState) bool {
	if !i.Base.SetBossState(id, state) {
		return false
	}
	if state != script.Done {
		return true
	}
	switch id {
	case BossGrandChampions:
		i.SetData(DataInstanceProgress, ProgressChampionsDead)
	case BossArgentChallenge:
		i.SetData(DataInstanceProgress, ProgressArgentChallengeDied)
	case BossBlackKnight:
		i.SetData(DataInstanceProgress, ProgressDone)
	}
	return true
}
