package main

import (
	"os"

	"cosmossdk.io/log"

	"github.com/narasim-teja/tars/assess"
	"github.com/narasim-teja/tars/config"
	"github.com/narasim-teja/tars/crypto"
	"github.com/narasim-teja/tars/enrich"
	"github.com/narasim-teja/tars/evidence"
	"github.com/narasim-teja/tars/gov"
	"github.com/narasim-teja/tars/ledger"
	"github.com/narasim-teja/tars/pipeline"
	"github.com/narasim-teja/tars/publish"
	"github.com/narasim-teja/tars/resiliency"
	"github.com/narasim-teja/tars/verify"
)

// node bundles the local stores and the operator identity that every
// command needs.
type node struct {
	cfg      *config.Config
	logger   log.Logger
	pv       *crypto.PV
	records  *ledger.Ledger
	chain    *gov.StateDB
	operator *gov.Operator
}

func openNode(home string) (*node, error) {
	if home == "" {
		home = os.ExpandEnv("$HOME/.tars")
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	logger := log.NewLogger(os.Stderr)

	pv, err := crypto.LoadFilePV(cfg.KeyFile())
	if err != nil {
		return nil, err
	}
	records, err := ledger.NewLedger(cfg.LedgerFile(), logger)
	if err != nil {
		return nil, err
	}
	chain, err := gov.NewStateDB(cfg.DataDir(), cfg.ChainId, cfg.VotingWindow(), logger)
	if err != nil {
		records.Close()
		return nil, err
	}
	operator := gov.NewOperator(chain, pv.Key(), records, logger)
	return &node{
		cfg:      cfg,
		logger:   logger,
		pv:       pv,
		records:  records,
		chain:    chain,
		operator: operator,
	}, nil
}

func (n *node) close() {
	if err := n.chain.Close(); err != nil {
		n.logger.Error("close chain", "err", err)
	}
	if err := n.records.Close(); err != nil {
		n.logger.Error("close ledger", "err", err)
	}
}

// buildPipeline wires the evidence collaborators around the node stores.
// Collaborators with no configured endpoint stay disabled; the pipeline
// degrades instead of failing.
func (n *node) buildPipeline() (*pipeline.Pipeline, error) {
	cfg := n.cfg
	httpCli := resiliency.NewClient(cfg.Http.Timeout, int(cfg.Http.MaxRetries), n.logger)

	var avs verify.AttestationService
	if cfg.Verify.AVSUrl != "" {
		cli, err := verify.NewAVSClient(cfg.Verify.AVSUrl, cfg.Verify.AVSApiKey, httpCli, n.logger)
		if err != nil {
			return nil, err
		}
		avs = cli
	}
	verifier := verify.NewVerifier(avs, cfg.Verify.TrustedDevices, n.logger)

	var geocoder enrich.Geocoder
	if cfg.Enrich.GeocodeUrl != "" {
		geocoder = enrich.NewGeocodeClient(cfg.Enrich.GeocodeUrl, httpCli, n.logger)
	}
	var weather enrich.WeatherService
	if cfg.Enrich.WeatherUrl != "" {
		weather = enrich.NewWeatherClient(cfg.Enrich.WeatherUrl, cfg.Enrich.WeatherCurrentUrl, httpCli, n.logger)
	}
	var news enrich.NewsService
	if cfg.Enrich.NewsUrl != "" {
		news = enrich.NewNewsClient(cfg.Enrich.NewsUrl, cfg.Enrich.NewsApiKey, httpCli, n.logger)
	}
	enricher := enrich.NewOrchestrator(geocoder, weather, news, n.logger)

	var analyzer assess.Analyzer
	if cfg.Enrich.VisionUrl != "" {
		analyzer = assess.NewVisionClient(cfg.Enrich.VisionUrl, cfg.Enrich.VisionApiKey, httpCli, n.logger)
	}

	pinner, err := publish.NewPinClient(cfg.Pinning.Url, cfg.Pinning.Jwt, httpCli, n.logger)
	if err != nil {
		return nil, err
	}
	publisher := publish.NewPublisher(pinner, n.operator, cfg.Pinning.GatewayUrl, n.logger)

	return pipeline.New(pipeline.Config{
		Normalizer:  evidence.NewNormalizer(n.logger),
		Verifier:    verifier,
		Enricher:    enricher,
		Analyzer:    analyzer,
		Ledger:      n.records,
		Publisher:   publisher,
		BaseAmount:  cfg.BaseAmount,
		Beneficiary: n.pv.Address(),
	}, n.logger), nil
}
