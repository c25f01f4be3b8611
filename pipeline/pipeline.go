package pipeline

import (
	"context"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/narasim-teja/tars/assess"
	"github.com/narasim-teja/tars/enrich"
	"github.com/narasim-teja/tars/evidence"
	"github.com/narasim-teja/tars/ledger"
	"github.com/narasim-teja/tars/publish"
	"github.com/narasim-teja/tars/types"
	"github.com/narasim-teja/tars/verify"
)

// Pipeline runs one evidence item through normalize, verify, enrich,
// score and publish. All collaborators are injected at construction;
// there is no runtime lookup. Any number of pipelines may run
// concurrently for different evidence; the dedup ledger is the single
// exclusive gate for identical evidence.
type Pipeline struct {
	normalizer  *evidence.Normalizer
	verifier    *verify.Verifier
	enricher    *enrich.Orchestrator
	analyzer    assess.Analyzer
	dedup       *ledger.Ledger
	publisher   *publish.Publisher
	baseAmount  uint64
	beneficiary common.Address
	logger      log.Logger
}

type Config struct {
	Normalizer  *evidence.Normalizer
	Verifier    *verify.Verifier
	Enricher    *enrich.Orchestrator
	Analyzer    assess.Analyzer
	Ledger      *ledger.Ledger
	Publisher   *publish.Publisher
	BaseAmount  uint64
	Beneficiary common.Address
}

func New(cfg Config, logger log.Logger) *Pipeline {
	return &Pipeline{
		normalizer:  cfg.Normalizer,
		verifier:    cfg.Verifier,
		enricher:    cfg.Enricher,
		analyzer:    cfg.Analyzer,
		dedup:       cfg.Ledger,
		publisher:   cfg.Publisher,
		baseAmount:  cfg.BaseAmount,
		beneficiary: cfg.Beneficiary,
		logger:      logger.With("module", "pipeline"),
	}
}

// Process turns raw image bytes into at most one governance proposal.
// Validation failures reject the item before any ledger claim; once the
// claim is held, every exit path resolves it to success or failed, never
// leaving a dangling claim behind.
func (p *Pipeline) Process(ctx context.Context, raw []byte, hint string) types.Outcome {
	ev, err := p.normalizer.Normalize(raw, hint)
	if err != nil {
		return types.Outcome{Status: types.OutcomeFailed, Reason: err.Error()}
	}
	if err := ev.Validate(); err != nil {
		return types.Outcome{Status: types.OutcomeFailed, ContentHash: ev.ContentHash, Reason: err.Error()}
	}

	claimed, prior, err := p.dedup.Claim(ev.ContentHash)
	if err != nil {
		return types.Outcome{Status: types.OutcomeFailed, ContentHash: ev.ContentHash, Reason: err.Error()}
	}
	if !claimed {
		p.logger.Info("duplicate evidence", "hash", ev.ContentHash.Hex(),
			"prior", prior.Outcome, "proposal", prior.ProposalId)
		return types.Outcome{
			Status:      types.OutcomeDuplicate,
			ContentHash: ev.ContentHash,
			ProposalID:  common.HexToHash(prior.ProposalId),
			TxRef:       prior.TxRef,
			Reason:      "already processed with outcome " + prior.Outcome,
		}
	}

	out, reason := p.run(ctx, ev)
	if reason != "" {
		if mErr := p.dedup.MarkFailed(ev.ContentHash, reason); mErr != nil {
			p.logger.Error("mark failed fail", "hash", ev.ContentHash.Hex(), "err", mErr)
		}
		return types.Outcome{Status: types.OutcomeFailed, ContentHash: ev.ContentHash, Reason: reason}
	}
	if err := p.dedup.MarkSuccess(ev.ContentHash, out.ProposalID, out.TxRef); err != nil {
		p.logger.Error("mark success fail", "hash", ev.ContentHash.Hex(), "err", err)
	}
	return *out
}

// run executes the post-claim stages. A non-empty reason means the claim
// must be released as failed.
func (p *Pipeline) run(ctx context.Context, ev *types.Evidence) (*types.Outcome, string) {
	if err := ctx.Err(); err != nil {
		return nil, err.Error()
	}

	rec, err := p.verifier.Verify(ctx, ev)
	if err != nil {
		return nil, "verify: " + err.Error()
	}
	if err := ctx.Err(); err != nil {
		return nil, err.Error()
	}

	ctxRec := p.enricher.Enrich(ctx, ev)
	if err := ctx.Err(); err != nil {
		return nil, err.Error()
	}

	var analysis *assess.Analysis
	if p.analyzer != nil {
		analysis, err = p.analyzer.Analyze(ctx, ev)
		if err != nil {
			// analysis is a context collaborator: absence degrades the
			// score, it does not abort the run
			p.logger.Info("analysis absent", "hash", ev.ContentHash.Hex(), "err", err)
			analysis = nil
		}
	}

	assessment := assess.Score(ev, analysis, ctxRec, p.baseAmount)
	if err := ctx.Err(); err != nil {
		return nil, err.Error()
	}

	res, err := p.publisher.Publish(ctx, &publish.Input{
		Evidence:     ev,
		Verification: rec,
		Context:      ctxRec,
		Assessment:   assessment,
		Beneficiary:  p.beneficiary,
	})
	if err != nil {
		return nil, "publish: " + err.Error()
	}

	p.logger.Info("evidence processed", "hash", ev.ContentHash.Hex(),
		"proposal", res.ProposalID.Hex(), "score", assessment.TotalScore,
		"mechanism", assessment.Mechanism)
	return &types.Outcome{
		Status:      types.OutcomeSuccess,
		ContentHash: ev.ContentHash,
		ProposalID:  res.ProposalID,
		DocumentCID: res.DocumentCID,
		ImageCID:    res.ImageCID,
		TxRef:       res.TxRef,
	}, ""
}
