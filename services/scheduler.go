package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartCampaignScheduler sweeps airdrop campaigns every few minutes:
// reservations that never completed are released, then spent or expired
// campaigns are archived so they stop showing up as claimable.
func (s *AirdropService) StartCampaignScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			// Release first so restored amounts keep campaigns claimable.
			released, err := s.ReleaseStaleClaims(time.Now().UTC())
			if err != nil {
				log.Printf("[Scheduler] Failed to release stale claims: %v", err)
			} else if released > 0 {
				log.Printf("✅ Released %d stale airdrop claim(s)", released)
			}

			archived, err := s.ArchiveSpentCampaigns()
			if err != nil {
				log.Printf("[Scheduler] Failed to archive campaigns: %v", err)
				return
			}
			if archived > 0 {
				log.Printf("✅ Archived %d spent airdrop campaign(s)", archived)
			}
		}),
	)
}
