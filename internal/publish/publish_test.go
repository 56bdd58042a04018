package publish

import (
	"testing"
	"time"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
)

func testDecider() *Decider {
	return NewDecider(config.Publish{
		MinSources:  2,
		HighScore:   85,
		SourceDelta: 4,
		Cooldown:    30 * time.Minute,
	})
}

func TestDecide(t *testing.T) {
	now := time.Date(2024, 10, 14, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * time.Minute)
	stale := now.Add(-2 * time.Hour)

	tests := []struct {
		name        string
		cluster     core.Cluster
		state       State
		topNewScore int
		want        Action
	}{
		{
			"first publication",
			core.Cluster{Status: core.ClusterActive, SourceCount: 3},
			State{}, 0,
			ActionPublish,
		},
		{
			"below minimum sources",
			core.Cluster{Status: core.ClusterActive, SourceCount: 1},
			State{}, 0,
			ActionSkip,
		},
		{
			"closed cluster never revises",
			core.Cluster{Status: core.ClusterClosed, SourceCount: 9},
			State{Published: true, SourceCountAtPublish: 2, LastRevisedAt: stale}, 99,
			ActionSkip,
		},
		{
			"high-value member triggers revision",
			core.Cluster{Status: core.ClusterActive, SourceCount: 3},
			State{Published: true, SourceCountAtPublish: 2, LastRevisedAt: stale}, 90,
			ActionRevise,
		},
		{
			"source growth triggers revision",
			core.Cluster{Status: core.ClusterActive, SourceCount: 7},
			State{Published: true, SourceCountAtPublish: 3, LastRevisedAt: stale}, 40,
			ActionRevise,
		},
		{
			"source growth below delta",
			core.Cluster{Status: core.ClusterActive, SourceCount: 6},
			State{Published: true, SourceCountAtPublish: 3, LastRevisedAt: stale}, 40,
			ActionSkip,
		},
		{
			"cooldown blocks high-value revision",
			core.Cluster{Status: core.ClusterActive, SourceCount: 3},
			State{Published: true, SourceCountAtPublish: 2, LastRevisedAt: recent}, 95,
			ActionSkip,
		},
		{
			"cooldown blocks source-growth revision",
			core.Cluster{Status: core.ClusterActive, SourceCount: 12},
			State{Published: true, SourceCountAtPublish: 2, LastRevisedAt: recent}, 0,
			ActionSkip,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := testDecider().Decide(tt.cluster, tt.state, tt.topNewScore, now)
			if got != tt.want {
				t.Errorf("Decide = %s (%s), want %s", got, reason, tt.want)
			}
		})
	}
}

func TestDecideCooldownBoundary(t *testing.T) {
	now := time.Date(2024, 10, 14, 12, 0, 0, 0, time.UTC)
	st := State{Published: true, SourceCountAtPublish: 1, LastRevisedAt: now.Add(-30 * time.Minute)}
	cluster := core.Cluster{Status: core.ClusterActive, SourceCount: 8}

	if got, _ := testDecider().Decide(cluster, st, 0, now); got != ActionRevise {
		t.Errorf("exactly at cooldown boundary should allow revision, got %s", got)
	}
}
