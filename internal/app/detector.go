package app

import (
	"github.com/SerhatHacioglu/trumptakip/clients/hyperliquid"
)

// sizeEpsilon is the dust filter: size differences at or below this are
// treated as unchanged.
const sizeEpsilon = 0.0001

// ChangeKind classifies a detected difference between two snapshots.
type ChangeKind int

const (
	ChangeBotStarted ChangeKind = iota
	ChangeBaseline
	ChangeOpened
	ChangeClosed
	ChangeResized
	ChangePriceMoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeBotStarted:
		return "bot_started"
	case ChangeBaseline:
		return "baseline"
	case ChangeOpened:
		return "opened"
	case ChangeClosed:
		return "closed"
	case ChangeResized:
		return "resized"
	case ChangePriceMoved:
		return "price_moved"
	}
	return "unknown"
}

// Change is a raw candidate difference between two snapshots of the same
// wallet. Resized and PriceMoved candidates are not yet thresholded; the
// engine decides whether they clear the notification thresholds.
type Change struct {
	Kind     ChangeKind
	Position hyperliquid.Position // New state (old state for Closed)
	Old      hyperliquid.Position // Previous state (matched Resized/PriceMoved only)
	Count    int                  // Position count (BotStarted only)
}

// DetectChanges diffs two position snapshots by identity key.
//
// When established is false the wallet has never produced a non-empty
// snapshot, so a first non-empty snapshot yields BotStarted plus one
// Baseline per position instead of Opened events. Once a wallet is
// established, every later appearance is a real Opened, including
// positions re-opened after the wallet went fully flat.
func DetectChanges(oldPositions, newPositions []hyperliquid.Position, established bool) []Change {
	var changes []Change

	if !established {
		if len(newPositions) == 0 {
			return nil
		}
		changes = append(changes, Change{Kind: ChangeBotStarted, Count: len(newPositions)})
		for _, p := range newPositions {
			changes = append(changes, Change{Kind: ChangeBaseline, Position: p})
		}
		return changes
	}

	oldByKey := make(map[string]hyperliquid.Position, len(oldPositions))
	for _, p := range oldPositions {
		oldByKey[p.Key()] = p
	}
	newByKey := make(map[string]hyperliquid.Position, len(newPositions))
	for _, p := range newPositions {
		newByKey[p.Key()] = p
	}

	// Opened: in new but not old, in new-snapshot order.
	for _, p := range newPositions {
		if _, ok := oldByKey[p.Key()]; !ok {
			changes = append(changes, Change{Kind: ChangeOpened, Position: p})
		}
	}

	// Closed: in old but not new, in old-snapshot order.
	for _, p := range oldPositions {
		if _, ok := newByKey[p.Key()]; !ok {
			changes = append(changes, Change{Kind: ChangeClosed, Position: p})
		}
	}

	// Matched keys: size and price candidates, in new-snapshot order.
	for _, p := range newPositions {
		old, ok := oldByKey[p.Key()]
		if !ok {
			continue
		}
		if diff := p.Size - old.Size; diff > sizeEpsilon || diff < -sizeEpsilon {
			changes = append(changes, Change{Kind: ChangeResized, Position: p, Old: old})
		}
		changes = append(changes, Change{Kind: ChangePriceMoved, Position: p, Old: old})
	}

	return changes
}
