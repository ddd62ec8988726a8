// pkg/wal/planner.go
package wal

import "sort"

// ActionKind identifies what a checkpoint Action does.
type ActionKind int

const (
	CopyToDataFile ActionKind = iota
	CopyToTempFile
	ClearPage
)

func (k ActionKind) String() string {
	switch k {
	case CopyToDataFile:
		return "copy_to_data_file"
	case CopyToTempFile:
		return "copy_to_temp_file"
	case ClearPage:
		return "clear_page"
	default:
		return "unknown"
	}
}

// Action is one step of a checkpoint plan (spec §4.H).
type Action struct {
	Kind             ActionKind
	PositionID       uint32 // source slot (for copy actions) or the slot to clear
	TargetPositionID uint32 // destination slot (for copy actions); unused for ClearPage
	MustClear        bool   // whether, after the copy, the source slot must be zeroed
}

// Planner converts a journal snapshot plus the confirmed-transaction set
// into an ordered checkpoint action list (spec §4.H).
type Planner struct {
	journal *Journal
}

// NewPlanner builds a Planner over journal.
func NewPlanner(journal *Journal) *Planner {
	return &Planner{journal: journal}
}

// Plan builds the ordered action list for a checkpoint starting at
// lastPageID, with startTempPositionID as the first free temp slot.
// tempPages accumulates positionID -> temp slot for any source relocated to
// break a cycle, for the executor and tests to inspect afterward.
// Plan does not know the allocation-map geometry: each CopyToDataFile
// targets the winning header's PageID as given, and a PageID that falls on
// an AM slot is not filtered out.
func (p *Planner) Plan(lastPageID, startTempPositionID uint32, tempPages map[uint32]uint32) []Action {
	headers := p.journal.Snapshot()

	// Group by PageID, keeping only the per-PageID list so we can find the
	// winning (greatest-position, confirmed) entry and identify losers.
	byPageID := make(map[uint32][]LogPageHeader)
	for _, h := range headers {
		byPageID[h.PageID] = append(byPageID[h.PageID], h)
	}

	winners := make(map[uint32]LogPageHeader) // PageID -> winning header
	var loserPositions []uint32

	pageIDs := make([]uint32, 0, len(byPageID))
	for pageID := range byPageID {
		pageIDs = append(pageIDs, pageID)
	}
	sort.Slice(pageIDs, func(i, j int) bool { return pageIDs[i] < pageIDs[j] })

	for _, pageID := range pageIDs {
		group := byPageID[pageID]
		var winner *LogPageHeader
		for i := range group {
			h := &group[i]
			if !p.journal.IsConfirmed(h.TransactionID) {
				loserPositions = append(loserPositions, h.PositionID)
				continue
			}
			// Tie-break: the greatest PositionID wins (append order).
			if winner == nil || h.PositionID > winner.PositionID {
				if winner != nil {
					loserPositions = append(loserPositions, winner.PositionID)
				}
				winner = h
			} else {
				loserPositions = append(loserPositions, h.PositionID)
			}
		}
		if winner != nil {
			winners[pageID] = *winner
		}
	}

	// bySourcePosition maps a winner's current PositionID to the PageID it
	// belongs to, so we can detect a source/target collision: some other
	// winner's target (its own PageID) equals this PositionID, meaning the
	// CopyToDataFile write to that target would clobber data this winner
	// still needs to read.
	bySourcePosition := make(map[uint32]uint32, len(winners))
	for pageID, w := range winners {
		if w.PositionID > lastPageID {
			bySourcePosition[w.PositionID] = pageID
		}
	}

	var actions []Action
	relocated := make(map[uint32]uint32) // PageID -> temp slot its source was relocated to

	for _, pageID := range pageIDs {
		w, ok := winners[pageID]
		if !ok || w.PositionID <= lastPageID {
			continue // already resident in the data region, nothing to do
		}
		collidingPageID, collides := bySourcePosition[pageID]
		if !collides || collidingPageID == pageID {
			continue
		}
		if _, already := relocated[collidingPageID]; already {
			continue
		}
		tempPos := startTempPositionID + uint32(len(tempPages))
		tempPages[pageID] = tempPos
		relocated[collidingPageID] = tempPos
		actions = append(actions, Action{
			Kind:             CopyToTempFile,
			PositionID:       pageID,
			TargetPositionID: tempPos,
			MustClear:        false,
		})
	}

	// Track every slot that is itself the target of some action in this
	// plan: if a winner's source position will be overwritten anyway, its
	// MustClear is redundant.
	overwritten := make(map[uint32]bool, len(winners))
	for pageID := range winners {
		overwritten[pageID] = true
	}

	for _, pageID := range pageIDs {
		w, ok := winners[pageID]
		if !ok || w.PositionID <= lastPageID {
			continue
		}
		source := w.PositionID
		if tempPos, ok := relocated[pageID]; ok {
			source = tempPos
		}
		actions = append(actions, Action{
			Kind:             CopyToDataFile,
			PositionID:       source,
			TargetPositionID: pageID,
			MustClear:        !overwritten[source],
		})
	}

	// Slots that never made it into a winning entry (unconfirmed, or
	// superseded confirmed) and were not consumed as a temp-relocation
	// source get cleared outright.
	relocatedSources := make(map[uint32]bool, len(relocated))
	for pageID := range relocated {
		relocatedSources[winners[pageID].PositionID] = true
	}
	seenClear := make(map[uint32]bool)
	for _, pos := range loserPositions {
		if relocatedSources[pos] || seenClear[pos] {
			continue
		}
		seenClear[pos] = true
		actions = append(actions, Action{Kind: ClearPage, PositionID: pos})
	}

	return actions
}
