package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/logger"
	"github.com/ohmynofan/tipverse/pkg/utils"
)

const DefaultDelay = 2 * time.Second

// Simulated settles every tip after a fixed delay without touching a chain.
// The transaction hash is random.
type Simulated struct {
	Delay time.Duration
	Now   func() time.Time
	log   *logger.ClassLogger
}

func NewSimulated(delay time.Duration, session *model.Session) *Simulated {
	if delay < 0 {
		delay = DefaultDelay
	}
	s := &Simulated{Delay: delay, Now: time.Now}
	s.log = logger.NewLogger(s, session)
	return s
}

func (s *Simulated) Settle(ctx context.Context, sub model.TipSubmission) (model.TipReceipt, error) {
	scope := "[Settle] Error :"
	if s.log != nil {
		s.log.JustLog(fmt.Sprintf("Simulating %s %s to @%s", sub.Amount, sub.Token.Symbol, sub.Recipient.Username))
	}

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.TipReceipt{}, fmt.Errorf("%s settlement interrupted: %w", scope, ctx.Err())
		case <-timer.C:
		}
	}

	hash, err := utils.GenerateRandomHex(32)
	if err != nil {
		return model.TipReceipt{}, fmt.Errorf("%s %w", scope, err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return model.TipReceipt{
		SubmissionID: sub.ID,
		TxHash:       "0x" + hash,
		SettledAt:    now().UTC(),
		XP:           sub.ProjectedXP,
	}, nil
}
