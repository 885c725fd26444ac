package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReconciliationUseCase audits the conservation invariant across the fleet:
// every account's balance must equal the sum of remaining points on its live
// accruals. Drift means a bug or manual surgery somewhere; the scan only
// reports, it never repairs.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	query       *QueryUseCase
	logger      zerolog.Logger
}

func NewReconciliationUseCase(
	accountRepo AccountRepository,
	query *QueryUseCase,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		query:       query,
		logger:      logger,
	}
}

// DriftReport aggregates one reconciliation pass.
type DriftReport struct {
	RunID   string
	Checked int
	// Drifted holds the verification results of inconsistent accounts.
	Drifted []VerifyResult
	Failed  []SweepFailure
}

// Clean reports whether the pass found no drift and no failures.
func (r *DriftReport) Clean() bool {
	return len(r.Drifted) == 0 && len(r.Failed) == 0
}

// VerifyAll re-verifies up to limit accounts, page by page. Each account is
// checked under its own lock; a failing account is recorded and skipped, the
// pass keeps going.
func (uc *ReconciliationUseCase) VerifyAll(ctx context.Context, limit int) (*DriftReport, error) {
	if limit <= 0 {
		limit = DefaultSweepAccountLimit
	}

	report := &DriftReport{RunID: uuid.NewString()}
	log := uc.logger.With().Str("run_id", report.RunID).Logger()

	for offset := 0; report.Checked < limit; {
		page := ReconcilePageSize
		if rest := limit - report.Checked; rest < page {
			page = rest
		}

		accounts, err := uc.accountRepo.List(ctx, page, offset)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			break
		}

		for _, account := range accounts {
			result, err := uc.query.Verify(ctx, account.ID)
			report.Checked++
			if err != nil {
				report.Failed = append(report.Failed, SweepFailure{AccountID: account.ID, Err: err})
				log.Warn().Err(err).Str("account_id", account.ID).Msg("reconciliation: account failed")
				continue
			}
			if !result.Consistent {
				report.Drifted = append(report.Drifted, *result)
				log.Warn().
					Str("account_id", account.ID).
					Int64("balance", result.Balance).
					Int64("computed", result.Computed).
					Int64("drift", result.Drift).
					Msg("reconciliation: drift detected")
			}
		}

		if len(accounts) < page {
			break
		}
		offset += len(accounts)
	}

	log.Info().
		Int("checked", report.Checked).
		Int("drifted", len(report.Drifted)).
		Int("failed", len(report.Failed)).
		Msg("reconciliation finished")

	return report, nil
}
