package types

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNoEvidence     = errors.New("evidence is empty")
	ErrNoContentHash  = errors.New("content hash is empty")
	ErrBadCoordinates = errors.New("coordinates out of range")
)

// GeoPoint is a WGS84 coordinate pair extracted from capture metadata.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (g GeoPoint) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 || g.Longitude < -180 || g.Longitude > 180 {
		return ErrBadCoordinates
	}
	return nil
}

// CaptureMetadata holds fields extracted from the embedded capture record
// of the original image. All fields except Timestamp are optional.
type CaptureMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	DeviceMake  string    `json:"deviceMake"`
	DeviceModel string    `json:"deviceModel"`
	Location    *GeoPoint `json:"location,omitempty"`
	FNumber     string    `json:"fNumber,omitempty"`
	Exposure    string    `json:"exposure,omitempty"`
	ISO         string    `json:"iso,omitempty"`
}

// Evidence is the canonical form of one submitted image. Immutable once
// produced by the normalizer.
type Evidence struct {
	ContentHash common.Hash     `json:"contentHash"`
	Canonical   []byte          `json:"-"`
	Format      string          `json:"format"`
	Meta        CaptureMetadata `json:"meta"`
}

func (e *Evidence) Validate() error {
	if e == nil || len(e.Canonical) == 0 {
		return ErrNoEvidence
	}
	if e.ContentHash == (common.Hash{}) {
		return ErrNoContentHash
	}
	if e.Meta.Location != nil {
		return e.Meta.Location.Validate()
	}
	return nil
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

// VerificationRecord is the audit trail of the authenticity checks run for
// one piece of evidence. Task status transitions are owned by the external
// attestation service; this record only stores what was submitted and the
// local check results.
type VerificationRecord struct {
	TaskID           string             `json:"taskId"`
	ContentHash      common.Hash        `json:"contentHash"`
	MetadataHash     common.Hash        `json:"metadataHash"`
	DeviceSignature  []byte             `json:"deviceSignature,omitempty"`
	Status           VerificationStatus `json:"status"`
	MetadataValid    bool               `json:"metadataValid"`
	DeviceTrusted    bool               `json:"deviceTrusted"`
	AttestationOK    bool               `json:"attestationOk"`
	AttestationError string             `json:"attestationError,omitempty"`
	Confidence       float64            `json:"confidence"`
}

// LocationInfo is the reverse-geocoded place of capture.
type LocationInfo struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// WeatherInfo describes conditions at the capture site. Fallback marks that
// historical data was unavailable and current conditions were used instead.
type WeatherInfo struct {
	Conditions   string  `json:"conditions"`
	TemperatureC float64 `json:"temperatureC"`
	Fallback     bool    `json:"fallback,omitempty"`
}

type Headline struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ContextRecord is the assembled enrichment result. Every field is
// optional; a nil field means the lookup returned nothing or failed.
// Skipped marks that no lookups were attempted because the evidence
// carried no geolocation, which is distinct from "attempted and absent".
type ContextRecord struct {
	Skipped  bool          `json:"skipped,omitempty"`
	Location *LocationInfo `json:"location,omitempty"`
	Weather  *WeatherInfo  `json:"weather,omitempty"`
	News     []Headline    `json:"news,omitempty"`
}

type Mechanism string

const (
	MechanismCommunityVote Mechanism = "community-vote"
	MechanismHybrid        Mechanism = "hybrid"
	MechanismTraditional   Mechanism = "traditional"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// SubScores are the five category components of an impact assessment,
// each in [0,100].
type SubScores struct {
	Infrastructure int `json:"infrastructure"`
	Environment    int `json:"environment"`
	Safety         int `json:"safety"`
	CommunityNeed  int `json:"communityNeed"`
	Economic       int `json:"economic"`
}

// ImpactAssessment is the scored view of one piece of evidence plus its
// context. Produced by a pure function; identical inputs yield identical
// assessments.
type ImpactAssessment struct {
	TotalScore         int       `json:"totalScore"`
	SubScores          SubScores `json:"subScores"`
	Category           string    `json:"category"`
	Urgency            Urgency   `json:"urgency"`
	AffectedPopulation uint64    `json:"affectedPopulation"`
	Mechanism          Mechanism `json:"mechanism"`
	FundingAmount      uint64    `json:"fundingAmount"`
	Milestones         []string  `json:"milestones"`
	Stakeholders       []string  `json:"stakeholders"`
	Description        string    `json:"description"`
	Actions            []string  `json:"actions"`
}

type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeDuplicate OutcomeStatus = "duplicate"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is the per-item result of a pipeline run.
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	ContentHash common.Hash   `json:"contentHash"`
	ProposalID  common.Hash   `json:"proposalId,omitempty"`
	DocumentCID string        `json:"documentCid,omitempty"`
	ImageCID    string        `json:"imageCid,omitempty"`
	TxRef       string        `json:"txRef,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}
