package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/narasim-teja/tars/types"
)

// Submitter carries a createProposal transaction to the governance
// ledger.
type Submitter interface {
	CreateProposal(ctx context.Context, description string, beneficiary common.Address, amount uint64, contentRef common.Hash) (proposalID common.Hash, txRef string, err error)
}

// Input is the enriched, scored record the publisher turns into an
// on-chain proposal.
type Input struct {
	Evidence     *types.Evidence
	Verification *types.VerificationRecord
	Context      *types.ContextRecord
	Assessment   types.ImpactAssessment
	Beneficiary  common.Address
}

type Result struct {
	ProposalID  common.Hash
	TxRef       string
	ImageCID    string
	DocumentCID string
	Description string
}

// Publisher pins the canonical image and the full analysis document to
// content-addressed storage and submits the governance proposal
// referencing them.
type Publisher struct {
	pinner     Pinner
	submitter  Submitter
	gatewayUrl string
	logger     log.Logger
}

func NewPublisher(pinner Pinner, submitter Submitter, gatewayUrl string, logger log.Logger) *Publisher {
	return &Publisher{
		pinner:     pinner,
		submitter:  submitter,
		gatewayUrl: gatewayUrl,
		logger:     logger.With("module", "publish"),
	}
}

// analysisDocument is the pinned full-analysis record.
type analysisDocument struct {
	Meta         types.CaptureMetadata     `json:"meta"`
	Verification *types.VerificationRecord `json:"verification"`
	Context      *types.ContextRecord      `json:"context"`
	Assessment   types.ImpactAssessment    `json:"assessment"`
	ImageCID     string                    `json:"imageCid"`
}

func (p *Publisher) Publish(ctx context.Context, in *Input) (*Result, error) {
	hash := in.Evidence.ContentHash
	shortHash := hash.Hex()[2:10]

	imageCID, err := p.pinner.Pin(ctx, in.Evidence.Canonical,
		fmt.Sprintf("evidence-%s.jpg", shortHash),
		map[string]string{"contentHash": hash.Hex()})
	if err != nil {
		return nil, fmt.Errorf("pin image: %w", err)
	}

	doc := analysisDocument{
		Meta:         in.Evidence.Meta,
		Verification: in.Verification,
		Context:      in.Context,
		Assessment:   in.Assessment,
		ImageCID:     imageCID,
	}
	docBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	docCID, err := p.pinner.Pin(ctx, docBytes,
		fmt.Sprintf("analysis-%s.json", shortHash),
		map[string]string{"contentHash": hash.Hex(), "imageCid": imageCID})
	if err != nil {
		return nil, fmt.Errorf("pin analysis: %w", err)
	}

	description := p.buildDescription(in, imageCID, docCID)

	proposalID, txRef, err := p.submitter.CreateProposal(ctx, description, in.Beneficiary, in.Assessment.FundingAmount, hash)
	if err != nil {
		return nil, fmt.Errorf("submit proposal: %w", err)
	}
	p.logger.Info("proposal published", "proposal", proposalID.Hex(),
		"image", imageCID, "analysis", docCID, "tx", txRef)

	return &Result{
		ProposalID:  proposalID,
		TxRef:       txRef,
		ImageCID:    imageCID,
		DocumentCID: docCID,
		Description: description,
	}, nil
}

func (p *Publisher) buildDescription(in *Input, imageCID, docCID string) string {
	d := &Description{
		Location:    in.Context.Location,
		Coordinates: in.Evidence.Meta.Location,
		ImpactScore: in.Assessment.TotalScore,
		Urgency:     in.Assessment.Urgency,
		Category:    in.Assessment.Category,
		ImageCID:    imageCID,
		Summary:     in.Assessment.Description,
		Weather:     in.Context.Weather,
		Actions:     in.Assessment.Actions,
		AnalysisURL: p.gatewayUrl + "/" + docCID,
		Confidence:  int(math.Round(in.Verification.Confidence * 100)),
	}
	return EncodeDescription(d)
}
