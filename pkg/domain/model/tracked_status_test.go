package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

func TestNextNoticeLevel(t *testing.T) {
	tests := []struct {
		name        string
		daysLeft    int
		notified    types.UrgencyLevel
		hasNotified bool
		want        types.UrgencyLevel
		pending     bool
	}{
		{name: "fresh pair far out", daysLeft: 45, want: types.Level30Days, pending: true},
		{name: "fresh pair inside 30d window", daysLeft: 20, want: types.Level14Days, pending: true},
		{name: "notified 30d, waiting for 14d", daysLeft: 20, notified: types.Level30Days, hasNotified: true, want: types.Level14Days, pending: true},
		{name: "notified 14d, waiting for 3d", daysLeft: 10, notified: types.Level14Days, hasNotified: true, want: types.Level3Days, pending: true},
		{name: "notified 3d, waiting for 1d", daysLeft: 2, notified: types.Level3Days, hasNotified: true, want: types.Level1Day, pending: true},
		{name: "notified 1d, expiry notice next", daysLeft: 1, notified: types.Level1Day, hasNotified: true, want: types.LevelExpired, pending: true},
		{name: "fully escalated", daysLeft: -1, notified: types.LevelExpired, hasNotified: true, pending: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := model.NextNoticeLevel(tt.daysLeft, tt.notified, tt.hasNotified)
			gt.Value(t, ok).Equal(tt.pending)
			if tt.pending {
				gt.Value(t, level).Equal(tt.want)
			}
		})
	}
}
