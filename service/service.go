package service

import (
	"io"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/narasim-teja/tars/gov"
	"github.com/narasim-teja/tars/ledger"
	"github.com/narasim-teja/tars/pipeline"
	"github.com/narasim-teja/tars/types"
)

type Service struct {
	engine     *gin.Engine
	pipe       *pipeline.Pipeline
	chain      *gov.StateDB
	records    *ledger.Ledger
	listenAddr string
	logger     log.Logger
}

func NewService(listenAddr string, pipe *pipeline.Pipeline, chain *gov.StateDB, records *ledger.Ledger, logger log.Logger) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		pipe:       pipe,
		chain:      chain,
		records:    records,
		listenAddr: listenAddr,
		logger:     logger.With("module", "service"),
	}
	s.engine.POST("/submitEvidence", s.handleSubmitEvidence)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getMembers", s.handleGetMembers)
	s.engine.POST("/getRecords", s.handleGetRecords)
	s.engine.POST("/getEvents", s.handleGetEvents)
	return s
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

const maxUploadBytes = 32 << 20

func (s *Service) handleSubmitEvidence(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(raw) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	hint := c.PostForm("hint")
	if hint == "" {
		hint = header.Filename
	}

	out := s.pipe.Process(c.Request.Context(), raw, hint)
	switch out.Status {
	case types.OutcomeSuccess:
		c.JSON(http.StatusOK, out)
	case types.OutcomeDuplicate:
		c.JSON(http.StatusConflict, out)
	default:
		c.JSON(http.StatusUnprocessableEntity, out)
	}
}

type GetProposalsReq struct {
	ProposalId string `json:"proposalId"`
}

type ProposalInfo struct {
	Proposal *gov.Proposal      `json:"proposal"`
	Status   gov.ProposalStatus `json:"status"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     int            `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now := time.Now()

	if requestData.ProposalId != "" {
		p, status, err := s.chain.GetProposal(common.HexToHash(requestData.ProposalId), now)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: p, Status: status})
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	proposals, err := s.chain.ListProposals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, p := range proposals {
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: p, Status: p.Status(now)})
	}
	response.Total = len(response.Proposals)
	c.JSON(http.StatusOK, response)
}

type GetMembersResponse struct {
	Members []*gov.Member `json:"members"`
	Total   int           `json:"total"`
}

func (s *Service) handleGetMembers(c *gin.Context) {
	members, err := s.chain.ListMembers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetMembersResponse{Members: members, Total: len(members)})
}

type GetRecordsReq struct {
	ContentHash string `json:"contentHash"`
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
}

type GetRecordsResponse struct {
	Records []ledger.ProcessedRecord `json:"records"`
	Total   uint64                   `json:"total"`
}

func (s *Service) handleGetRecords(c *gin.Context) {
	var response GetRecordsResponse
	response.Records = make([]ledger.ProcessedRecord, 0)
	var requestData GetRecordsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.ContentHash != "" {
		record, err := s.records.GetRecord(common.HexToHash(requestData.ContentHash))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		response.Records = append(response.Records, *record)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	records, total, err := s.records.GetRecords(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Records = records
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetEventsReq struct {
	Type     string `json:"type"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetEventsResponse struct {
	Events []ledger.EventRecord `json:"events"`
	Total  uint64               `json:"total"`
}

func (s *Service) handleGetEvents(c *gin.Context) {
	var response GetEventsResponse
	response.Events = make([]ledger.EventRecord, 0)
	var requestData GetEventsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, total, err := s.records.GetEvents(requestData.Type, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Events = events
	response.Total = total
	c.JSON(http.StatusOK, response)
}
