package workers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"token-airdrop-system/services"
	"token-airdrop-system/utils"
)

// PollSettlement drives periodic settlement runs. Each tick settles up to
// limit eligible users and archives the run report; a failed run is logged
// and retried on the next tick.
func PollSettlement(ctx context.Context, settlement *services.SettlementService, interval time.Duration, limit int) {
	log.Printf("Starting settlement polling (every %s, limit %d)...", interval, limit)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Settlement polling stopped.")
			return
		case <-ticker.C:
			runAt := time.Now().UTC()
			results, err := settlement.Run(ctx, limit)
			if err != nil {
				log.Printf("❌ Settlement run failed: %v", err)
				continue
			}
			if len(results) == 0 {
				continue
			}

			report, err := json.Marshal(struct {
				RanAt   time.Time               `json:"ran_at"`
				Results []services.PayoutResult `json:"results"`
			}{RanAt: runAt, Results: results})
			if err != nil {
				log.Printf("⚠️ Failed to encode settlement report: %v", err)
				continue
			}

			key := "settlements/" + runAt.Format("2006-01-02T15-04-05") + ".json"
			url, err := utils.UploadReport(key, report)
			if err != nil {
				// Report archival is best-effort; the run itself committed
				// per recipient.
				log.Printf("⚠️ Failed to archive settlement report: %v", err)
				continue
			}
			log.Printf("📄 Settlement report archived: %s", url)
		}
	}
}
