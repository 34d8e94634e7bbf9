package toc5

const (
	MapID      uint32 = 650
	ScriptName        = "instance_trial_of_the_champion"
	AnnouncerScript   = "npc_announcer_toc5"
	dataHeader        = "TC"
)

// Boss encounter ids.
const (
	BossGrandChampions uint32 = iota
	BossArgentChallenge
	BossBlackKnight
	EncounterCount
)

// Instance data keys.
const (
	DataInstanceProgress      uint32 = 1
	DataTeamInInstance        uint32 = 2
	DataAnnouncerGossipSelect uint32 = 3
)

// Team ids stored under DataTeamInInstance.
const (
	TeamAlliance uint32 = 0
	TeamHorde    uint32 = 1
	TeamNeutral  uint32 = 2 // no player has entered yet
)

// Progress values stored under DataInstanceProgress.
const (
	ProgressInitial uint32 = iota
	ProgressIntroDone
	ProgressChampionGroupDied1
	ProgressChampionGroupDied2
	ProgressChampionGroupDied3
	ProgressChampionsUnmounted
	ProgressChampionsDead
	ProgressArgentSoldiersDied
	ProgressArgentChallengeDied
	ProgressDone
)

const (
	NpcJaeren uint32 = 35004 // horde announcer, the template entry
	NpcArelas uint32 = 35005 // alliance announcer
)

// Gossip text ids.
const (
	textHorde          uint32 = 15043
	textAlliance       uint32 = 14757
	textMounted        uint32 = 14688
	textChampionsDead  uint32 = 14737
	textArgentDefeated uint32 = 14738
)

// Gossip actions, offset from script.GossipActionInfoDef.
const (
	actionStart          uint32 = 1338
	actionNextChallenge  uint32 = 1339
	actionBlackKnight    uint32 = 1340
	actionStartSkipIntro uint32 = 1341
)

const (
	gossipStart          = "我準備好了。"
	gossipStartSkipIntro = "我準備好了。另外請跳過介紹。"
	gossipNextChallenge  = "我準備好接受下一個挑戰了。"
	gossipBlackKnight    = "我準備好了。"
)
