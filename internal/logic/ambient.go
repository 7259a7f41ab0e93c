package logic

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/world"
)

// onTick is the GAME_LOOP_TICK handler shared by every non-idle state.
func (m *Machine) onTick(e GameLoopTick) {
	if e.World != nil {
		m.world = e.World
	}
	m.tick = e.Tick
	m.turn = e.Turn
	m.missionTimer = e.MissionTimer
	m.clock = e.MissionTime

	m.syncUnits()
	m.checkVictory()
	m.degradeSupplies()
	m.spotEnemies()
	m.report(KindStatus, "", fmt.Sprintf("All units reporting. Communications %s.", m.comms), SeverityInfo, true)
}

// syncUnits tracks logistics and personality for every unit in the world
// and refreshes the recon asset list.
func (m *Machine) syncUnits() {
	if m.world == nil {
		return
	}
	seen := make(map[string]bool)
	m.recon = m.recon[:0]
	for _, u := range m.world.AllUnits() {
		seen[u.Name] = true
		if _, ok := m.supplies[u.Name]; !ok {
			s := InitialSupplies(m.clock.Stamp())
			if o, ok := m.cfg.Supplies[u.Name]; ok {
				s = o
				s.LastResupply = m.clock.Stamp()
			}
			m.supplies[u.Name] = &s
		}
		if _, ok := m.personalities[u.Name]; !ok {
			p := PersonalityFor(u.Type)
			if o, ok := m.cfg.Personalities[u.Name]; ok {
				p = o
			}
			m.personalities[u.Name] = p
		}
		if u.Faction != world.Friendly {
			continue
		}
		var rt ReconType
		switch u.Type {
		case world.UAV:
			rt = ReconUAV
		case world.Recon:
			rt = ReconScout
		default:
			continue
		}
		m.recon = append(m.recon, ReconAsset{ID: u.ID, Type: rt, Location: u.Zone, Status: string(u.State)})
	}
	for name := range m.supplies {
		if !seen[name] {
			delete(m.supplies, name)
			delete(m.personalities, name)
		}
	}
}

// degradeSupplies consumes one tick of logistics. Jamming doubles the rate.
func (m *Machine) degradeSupplies() {
	if m.world == nil {
		return
	}
	rate := 1
	if m.comms == CommJammed {
		rate = 2
	}
	for _, u := range m.world.AllUnits() {
		s, ok := m.supplies[u.Name]
		if !ok {
			continue
		}
		s.Ammunition = max(s.Ammunition-rate, 0)
		s.Fuel = max(s.Fuel-rate, 0)
		s.Fatigue = min(s.Fatigue+rate, 100)
		if s.Ammunition < supplyFloor || s.Fuel < supplyFloor {
			s.Morale = max(s.Morale-2, 0)
		}
		if m.comms == CommJammed {
			s.Morale = max(s.Morale-1, 0)
			s.Communications = false
		} else {
			s.Communications = true
		}
		if s.Ammunition < supplyCritical {
			m.fileSitRep(KindSupply, u.Name,
				fmt.Sprintf("%s: CRITICAL ammunition shortage (%d%%)", u.Name, s.Ammunition), SeverityCritical)
		}
	}
}

// allShort reports whether every friendly unit is low on supplies.
func (m *Machine) allShort() bool {
	if m.world == nil {
		return false
	}
	n := 0
	for _, u := range m.world.Units(world.Friendly) {
		s, ok := m.supplies[u.Name]
		if !ok {
			continue
		}
		if !s.Short() {
			return false
		}
		n++
	}
	return n > 0
}

func (m *Machine) resupply(unit string) bool {
	stamp := m.clock.Stamp()
	if unit == "" {
		for _, s := range m.supplies {
			s.Ammunition, s.Fuel, s.LastResupply = 100, 100, stamp
		}
		m.fileSitRep(KindSupply, "", "All units resupplied.", SeverityInfo)
	} else {
		s, ok := m.supplies[unit]
		if !ok {
			return false
		}
		s.Ammunition, s.Fuel, s.LastResupply = 100, 100, stamp
		m.fileSitRep(KindSupply, unit, unit+": Resupplied. Ammunition and fuel at 100%.", SeverityInfo)
	}
	if m.state == SupplyShortage && !m.allShort() {
		m.timers.Cancel(timerShortage)
		m.enterActive()
	}
	return true
}

// spotEnemies records hostile units sharing a zone with friendly forces.
func (m *Machine) spotEnemies() {
	if m.world == nil {
		return
	}
	for _, u := range m.world.Units(world.Friendly) {
		for _, other := range m.world.UnitsIn(u.Zone) {
			if other.Faction == world.Hostile {
				m.enemies[u.Zone] = Sighting{Confidence: 100, LastSeen: m.clock.Stamp()}
				break
			}
		}
	}
}

func (m *Machine) addIntel(src IntelSource, confidence int, content, location string) {
	confidence = min(max(confidence, 0), 100)
	r := IntelReport{
		ID:         uuid.NewString(),
		Source:     src,
		Confidence: confidence,
		Timestamp:  m.clock.Stamp(),
		Content:    content,
		Location:   location,
		Priority:   PriorityFor(confidence),
	}
	m.intel.Push(r)
	if location != "" {
		m.enemies[location] = Sighting{Confidence: confidence, LastSeen: r.Timestamp}
	}
	sev := SeverityInfo
	if confidence > 80 {
		sev = SeverityCritical
	}
	m.fileSitRep(KindIntel, "", fmt.Sprintf("[%s] %s", ConfidenceTag(confidence), content), sev)
}

func (m *Machine) reconReport(e ReconReport) {
	src, conf := SourceUAV, 90
	if e.Source != ReconUAV {
		src, conf = SourceVisual, 70
	}
	m.addIntel(src, conf, e.Findings, e.Location)
}

func (m *Machine) analyzeIntel() {
	reports := m.intel.Slice()
	high := 0
	for _, r := range reports {
		if r.Confidence > 80 {
			high++
		}
	}
	m.fileSitRep(KindIntel, "",
		fmt.Sprintf("Intel analysis: Processed %d reports, %d high confidence", len(reports), high), SeverityInfo)
}

// unitSitRep answers GENERATE_SITREP.
func (m *Machine) unitSitRep(unit string) {
	if unit == "" {
		m.fileSitRep(KindStatus, "", fmt.Sprintf("All units reporting. Communications %s.", m.comms), SeverityInfo)
		return
	}
	s, ok := m.supplies[unit]
	switch {
	case !ok:
		m.fileSitRep(KindStatus, unit, unit+": No report. Unit not in contact.", SeverityWarning)
	case s.Ammunition < supplyFloor:
		m.fileSitRep(KindSupply, unit, fmt.Sprintf("%s: Ammunition low (%d%%)", unit, s.Ammunition), SeverityWarning)
	case s.Morale < 30:
		m.fileSitRep(KindStatus, unit, fmt.Sprintf("%s: Morale critical (%d%%)", unit, s.Morale), SeverityCritical)
	default:
		m.fileSitRep(KindStatus, unit, unit+": Operational. Status green.", SeverityInfo)
	}
}

// processCombat runs one combat pass on the world and reports every
// exchange. Reports are less certain when communications are not clear.
func (m *Machine) processCombat(delta float64) {
	if m.world == nil {
		return
	}
	type exchange struct {
		attacker, target *world.Unit
		damage           float64
	}
	var fired []exchange
	for _, a := range m.world.AllUnits() {
		if a.State != world.StateEngaged {
			continue
		}
		cover := 0.0
		if t, ok := m.world.Terrain(a.Zone); ok {
			cover = t.Cover
		}
		for _, t := range m.world.UnitsIn(a.Zone) {
			if a.Faction.Opposes(t.Faction) {
				fired = append(fired, exchange{a, t, world.EffectiveDamage(a.Firepower, cover) * delta})
			}
		}
	}
	world.Combat(m.world, delta)
	if len(fired) == 0 {
		return
	}

	base := 60
	if m.comms == CommClear {
		base = 85
	}
	conf := max(30, base-10)
	for _, x := range fired {
		res := Hit
		switch {
		case x.target.Morale <= 0:
			res = Killed
		case x.damage <= 0:
			res = Miss
		}
		m.combat.Push(CombatResult{
			Tick:       m.tick,
			Attacker:   x.attacker.Name,
			Target:     x.target.Name,
			Result:     res,
			Confidence: conf,
		})
	}
	tag := "UNCONFIRMED"
	if base > 80 {
		tag = "CONFIRMED"
	}
	m.fileSitRep(KindCombat, "", fmt.Sprintf("[%s] Contact reported. Engaging hostile forces.", tag), SeverityCritical)
}

func (m *Machine) jam() {
	m.comms = CommJammed
	for _, s := range m.supplies {
		s.Communications = false
	}
	m.fileSitRep(KindStatus, "", "COMMUNICATIONS JAMMED - Orders may be delayed or fail", SeverityCritical)
	m.timers.After(timerBlackout, BlackoutTimeout, blackoutExpired{})
	if m.state == Active {
		m.state = CommunicationBlackout
	}
	m.log.Info("communications jammed")
}

// restore ends a jam. status is clear for an explicit restore and degraded
// when the blackout simply timed out.
func (m *Machine) restore(status CommStatus) {
	if m.comms == status || (m.comms == CommClear && status == CommDegraded) {
		return
	}
	m.timers.Cancel(timerBlackout)
	m.comms = status
	for _, s := range m.supplies {
		s.Communications = true
	}
	if status == CommClear {
		m.fileSitRep(KindStatus, "", "Communications restored - Normal operations resumed", SeverityInfo)
	} else {
		m.fileSitRep(KindStatus, "", "Communications degraded - Blackout expired without confirmed restoration", SeverityWarning)
	}
	m.log.Info("communications restored", zap.String("status", string(status)))
	if m.state == CommunicationBlackout {
		m.enterActive()
	}
}

func (m *Machine) fileSitRep(kind SitRepKind, unit, content string, sev Severity) {
	m.report(kind, unit, content, sev, false)
}

// report files a sitrep. Routine reports are the per-tick status line.
func (m *Machine) report(kind SitRepKind, unit, content string, sev Severity, routine bool) {
	r := SitRep{
		ID:        uuid.NewString(),
		Timestamp: m.clock.Stamp(),
		Kind:      kind,
		Unit:      unit,
		Content:   content,
		Severity:  sev,
	}
	if unit != "" && m.world != nil {
		if u, ok := m.world.UnitByName(unit); ok {
			r.Location = u.Zone
		}
	}
	m.sitreps.Push(r)
	m.emit(SitRepFiled{SitRep: r, Routine: routine})
}

// Snapshot is a read-only copy of the machine's context.
type Snapshot struct {
	State            string
	Comms            CommStatus
	Tick             int
	Turn             int
	MissionTime      string
	CurrentOrder     *orders.Order
	ValidationErrors []string
	Backlog          int
	Intel            []IntelReport
	SitReps          []SitRep
	Combat           []CombatResult
	Supplies         map[string]SupplyState
	Personalities    map[string]Personality
	KnownEnemies     map[string]Sighting
	Recon            []ReconAsset
	Verdict          string
}

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		State:            m.state.String(),
		Comms:            m.comms,
		Tick:             m.tick,
		Turn:             m.turn,
		MissionTime:      m.clock.Stamp(),
		ValidationErrors: append([]string(nil), m.validationErrors...),
		Backlog:          len(m.backlog),
		Intel:            m.intel.Slice(),
		SitReps:          m.sitreps.Slice(),
		Combat:           m.combat.Slice(),
		Supplies:         make(map[string]SupplyState, len(m.supplies)),
		Personalities:    maps.Clone(m.personalities),
		KnownEnemies:     maps.Clone(m.enemies),
		Recon:            append([]ReconAsset(nil), m.recon...),
		Verdict:          m.verdict.Outcome.String(),
	}
	if m.current != nil {
		o := *m.current
		s.CurrentOrder = &o
	}
	for k, v := range m.supplies {
		s.Supplies[k] = *v
	}
	return s
}
