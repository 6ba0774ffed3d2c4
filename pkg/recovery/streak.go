package recovery

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stillpath/recovery-engine/pkg/clock"
)

// ComputeStreak derives the sobriety snapshot from a profile and the
// full slip-up list for that user. It performs no I/O and returns nil
// when the profile has no sobriety date (a legitimate "not configured"
// state, not an error). Unparseable stored dates are skipped; boundary
// validation is the store layer's job.
func ComputeStreak(profile Profile, slipUps []SlipUp, now time.Time) *StreakSnapshot {
	if !profile.HasSobrietyDate() {
		return nil
	}

	loc := clock.ResolveLocation(profile.Timezone)

	journeyStart, err := clock.ParseDateInLocation(profile.SobrietyDate, loc)
	if err != nil {
		logrus.Errorf("unparseable sobriety date %q for user %s: %v", profile.SobrietyDate, profile.ID, err)
		return nil
	}

	streakStart := journeyStart
	latest := latestSlipUp(slipUps, loc)
	if latest != nil {
		restart, err := clock.ParseDateInLocation(latest.RecoveryRestartDate, loc)
		if err != nil {
			logrus.Errorf("unparseable restart date %q on slip-up %s: %v", latest.RecoveryRestartDate, latest.ID, err)
		} else {
			streakStart = restart
		}
	}

	days := clock.DaysBetween(streakStart, now, loc)
	if days < 0 {
		// Same-day restarts and clock skew clamp to zero.
		days = 0
	}

	return &StreakSnapshot{
		DaysSober:    days,
		JourneyStart: journeyStart,
		StreakStart:  streakStart,
		HasSlipUps:   latest != nil,
	}
}

// latestSlipUp returns the slip-up with the maximum recovery restart
// date. Ties break on CreatedAt: the most recently recorded wins.
func latestSlipUp(slipUps []SlipUp, loc *time.Location) *SlipUp {
	var best *SlipUp
	var bestRestart time.Time

	for i := range slipUps {
		restart, err := clock.ParseDateInLocation(slipUps[i].RecoveryRestartDate, loc)
		if err != nil {
			logrus.Warnf("skipping slip-up %s with unparseable restart date %q", slipUps[i].ID, slipUps[i].RecoveryRestartDate)
			continue
		}

		if best == nil ||
			restart.After(bestRestart) ||
			(restart.Equal(bestRestart) && slipUps[i].CreatedAt.After(best.CreatedAt)) {
			best = &slipUps[i]
			bestRestart = restart
		}
	}

	return best
}
