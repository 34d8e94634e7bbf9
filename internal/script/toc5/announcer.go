package toc5

import (
	"github.com/l1jgo/encounter/internal/script"
	"go.uber.org/zap"
)

// Announcer is the gossip NPC that starts each stage of the tournament.
type Announcer struct {
	log *zap.Logger
}

func NewAnnouncer(log *zap.Logger) *Announcer {
	return &Announcer{log: log}
}

func (a *Announcer) Name() string { return AnnouncerScript }

// OnGossipHello shows the menu for the current stage. Stages without a
// choice send nothing.
func (a *Announcer) OnGossipHello(p script.Player, c script.Creature) bool {
	if !c.HasNpcFlag(script.NpcFlagGossip) {
		return true
	}
	inst := c.InstanceData()
	if inst == nil {
		return true
	}

	var textID uint32
	switch inst.Data(DataInstanceProgress) {
	case ProgressInitial:
		if !p.InVehicle() {
			textID = textAlliance
			if inst.Data(DataTeamInInstance) == TeamHorde {
				textID = textHorde
			}
			break
		}
		textID = textMounted
		addOption(p, gossipStart, actionStart)
		addOption(p, gossipStartSkipIntro, actionStartSkipIntro)
	case ProgressChampionsDead:
		textID = textChampionsDead
		addOption(p, gossipNextChallenge, actionNextChallenge)
	case ProgressArgentChallengeDied:
		textID = textArgentDefeated
		addOption(p, gossipBlackKnight, actionBlackKnight)
	default:
		return true
	}

	p.SendGossipMenu(textID, c.GUID())
	return true
}

func addOption(p script.Player, text string, action uint32) {
	p.AddGossipItem(script.GossipIconChat, text, script.GossipSenderMain, script.GossipActionInfoDef+action)
}

// OnGossipSelect signals the instance for any of the stage options and
// closes the menu in every case.
func (a *Announcer) OnGossipSelect(p script.Player, c script.Creature, _ uint32, action uint32) bool {
	if !c.HasNpcFlag(script.NpcFlagGossip) {
		return true
	}
	inst := c.InstanceData()
	if inst == nil {
		return true
	}

	switch action - script.GossipActionInfoDef {
	case actionStart, actionStartSkipIntro, actionNextChallenge, actionBlackKnight:
		skipIntro := uint32(0)
		if action == script.GossipActionInfoDef+actionStartSkipIntro {
			skipIntro = 1
		}
		inst.SetData(DataAnnouncerGossipSelect, skipIntro)
		c.RemoveNpcFlag(script.NpcFlagGossip)
		a.log.Debug("announcer option chosen",
			zap.String("player", p.Name()),
			zap.Uint32("action", action),
		)
	}

	p.CloseGossipMenu()
	return true
}

func (a *Announcer) NewAI(c script.Creature) script.CreatureAI {
	return &announcerAI{me: c}
}

type announcerAI struct {
	script.NullAI
	me script.Creature
}

func (ai *announcerAI) Reset() {
	inst := ai.me.InstanceData()
	if inst == nil {
		return
	}
	if inst.Data(DataTeamInInstance) == TeamAlliance {
		ai.me.UpdateEntry(NpcArelas)
	}
	ai.me.SetUnitFlag(script.UnitFlagNonAttackable) // cleared for the black knight scene
}

// DamageTaken leaves the announcer at 1 health; he dies only by script.
func (ai *announcerAI) DamageTaken(_ script.Creature, damage *uint32) {
	if hp := ai.me.Health(); *damage >= hp {
		*damage = hp - 1
	}
}

// MovementInform kills the announcer when the black knight's knockback lands.
func (ai *announcerAI) MovementInform(motion script.MotionType, _ uint32) {
	if motion != script.MotionEffect {
		return
	}
	inst := ai.me.InstanceData()
	if inst == nil {
		return
	}
	if inst.Data(DataInstanceProgress) < ProgressArgentChallengeDied {
		return
	}
	ai.me.KillSelf()
}
