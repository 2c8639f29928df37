package plan

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
)

// Default levels applied when a plan names an entry but no stop or targets.
const (
	defaultStopPct   = 0.95 // -5%
	defaultTargetPct = 1.10 // +10%
)

// ErrNoEntryPrice means the plan text names no usable entry level; such a
// plan cannot be tracked.
var ErrNoEntryPrice = errors.New("no entry price in plan content")

// Plan bodies are AI-generated prose. Levels appear as labelled prices in
// either Chinese or English, e.g. "买入价: 185.50" or "Stop loss: 172".
var (
	entryRe  = regexp.MustCompile(`(?i)(?:买入价|入场价|entry(?:\s+price)?|buy(?:\s+price)?)[：:\s]*\$?(\d+(?:\.\d+)?)`)
	stopRe   = regexp.MustCompile(`(?i)(?:止损价?|stop(?:[\s-]?loss)?)[：:\s]*\$?(\d+(?:\.\d+)?)`)
	targetRe = regexp.MustCompile(`(?i)(?:止盈价?|目标价?|target(?:\s+price)?|take[\s-]?profit)[：:\s]*\$?(\d+(?:\.\d+)?)`)
)

// Levels are the tradable thresholds extracted from a plan body.
type Levels struct {
	BuyPrice float64
	StopLoss float64
	Targets  []float64
}

// ParseLevels extracts entry, stop-loss and target levels from plan text.
// Missing stop and targets fall back to -5% / +10% of the entry. Targets
// are de-duplicated and sorted ascending.
func ParseLevels(content string) (Levels, error) {
	var lv Levels

	if m := entryRe.FindStringSubmatch(content); m != nil {
		lv.BuyPrice, _ = strconv.ParseFloat(m[1], 64)
	}
	if lv.BuyPrice <= 0 {
		return Levels{}, ErrNoEntryPrice
	}

	if m := stopRe.FindStringSubmatch(content); m != nil {
		lv.StopLoss, _ = strconv.ParseFloat(m[1], 64)
	}
	if lv.StopLoss <= 0 {
		lv.StopLoss = lv.BuyPrice * defaultStopPct
	}

	seen := make(map[float64]bool)
	for _, m := range targetRe.FindAllStringSubmatch(content, -1) {
		v, _ := strconv.ParseFloat(m[1], 64)
		if v > 0 && !seen[v] {
			seen[v] = true
			lv.Targets = append(lv.Targets, v)
		}
	}
	if len(lv.Targets) == 0 {
		lv.Targets = []float64{lv.BuyPrice * defaultTargetPct}
	}
	sort.Float64s(lv.Targets)

	return lv, nil
}
