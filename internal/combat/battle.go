package combat

import (
	"time"

	"emberfall/sim/internal/terrain"
)

// Phase is the battle lifecycle: preparing until the first step, inProgress
// while rounds resolve, completed once a winner is decided.
type Phase string

const (
	PhasePreparing  Phase = "preparing"
	PhaseInProgress Phase = "inProgress"
	PhaseCompleted  Phase = "completed"
)

// ActionKind tags a battle log entry.
type ActionKind string

const (
	ActionAttack   ActionKind = "attack"
	ActionSkill    ActionKind = "skill"
	ActionHeal     ActionKind = "heal"
	ActionBuff     ActionKind = "buff"
	ActionDebuff   ActionKind = "debuff"
	ActionStun     ActionKind = "stun"
	ActionStunned  ActionKind = "stunned"
	ActionMove     ActionKind = "move"
	ActionDeath    ActionKind = "death"
	ActionComplete ActionKind = "complete"
)

// LogEntry is one resolved action. The battle log is reverse-chronological:
// newest entries sit at index zero.
type LogEntry struct {
	Round    int        `json:"round"`
	Time     time.Time  `json:"time"`
	ActorID  string     `json:"actorId"`
	Action   ActionKind `json:"action"`
	TargetID string     `json:"targetId,omitempty"`
	Value    int        `json:"value,omitempty"`
	Message  string     `json:"message"`
}

// BattleState is the full observable state of one battle. It is owned by
// exactly one Resolver and mutated only through Step; external consumers only
// ever see defensive copies.
type BattleState struct {
	Round   int         `json:"round"`
	Phase   Phase       `json:"phase"`
	SideA   []Unit      `json:"sideA"`
	SideB   []Unit      `json:"sideB"`
	Terrain terrain.Map `json:"terrain"`
	Log     []LogEntry  `json:"log"`
	Winner  Side        `json:"winner,omitempty"`
}

func (s *BattleState) clone() BattleState {
	cloned := BattleState{
		Round:   s.Round,
		Phase:   s.Phase,
		Terrain: s.Terrain.Clone(),
		Winner:  s.Winner,
	}
	cloned.SideA = make([]Unit, len(s.SideA))
	for i := range s.SideA {
		cloned.SideA[i] = s.SideA[i].clone()
	}
	cloned.SideB = make([]Unit, len(s.SideB))
	for i := range s.SideB {
		cloned.SideB[i] = s.SideB[i].clone()
	}
	cloned.Log = append([]LogEntry(nil), s.Log...)
	return cloned
}

func (s *BattleState) living(side Side) int {
	count := 0
	for i := range s.roster(side) {
		if s.roster(side)[i].Alive() {
			count++
		}
	}
	return count
}

func (s *BattleState) roster(side Side) []Unit {
	if side == SideA {
		return s.SideA
	}
	return s.SideB
}
