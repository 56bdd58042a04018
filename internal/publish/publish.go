// Package publish decides whether a cluster gets an initial publication, a
// revision, or nothing this cycle. The actual synthesis and store writes are
// orchestrated elsewhere; this package owns only the trigger rules.
package publish

import (
	"time"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
)

// Action is the publisher's verdict for one cluster.
type Action string

const (
	ActionPublish Action = "publish"
	ActionRevise  Action = "revise"
	ActionSkip    Action = "skip"
)

// State is what the store remembers about a cluster's last publication.
// A zero State means the cluster has never been published.
type State struct {
	Published            bool
	SourceCountAtPublish int
	LastRevisedAt        time.Time
}

// Decider applies the publish and revision trigger rules.
type Decider struct {
	minSources  int
	highScore   int
	sourceDelta int
	cooldown    time.Duration
}

// NewDecider creates a decider from config.
func NewDecider(cfg config.Publish) *Decider {
	return &Decider{
		minSources:  cfg.MinSources,
		highScore:   cfg.HighScore,
		sourceDelta: cfg.SourceDelta,
		cooldown:    cfg.Cooldown,
	}
}

// Decide returns the action for a cluster plus a short reason for the log.
// topNewScore is the highest admission score among members attached since the
// last publication (0 when none).
func (d *Decider) Decide(cluster core.Cluster, st State, topNewScore int, now time.Time) (Action, string) {
	if !st.Published {
		if cluster.SourceCount < d.minSources {
			return ActionSkip, "below minimum source count"
		}
		return ActionPublish, "first publication"
	}

	// Closed clusters keep their last published form.
	if cluster.Status == core.ClusterClosed {
		return ActionSkip, "cluster closed"
	}
	if now.Sub(st.LastRevisedAt) < d.cooldown {
		return ActionSkip, "within revision cooldown"
	}

	if topNewScore >= d.highScore && d.highScore > 0 {
		return ActionRevise, "high-value member attached"
	}
	if cluster.SourceCount-st.SourceCountAtPublish >= d.sourceDelta {
		return ActionRevise, "source count grew"
	}
	return ActionSkip, "no revision trigger"
}
