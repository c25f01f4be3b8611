package ledger

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/narasim-teja/tars/types"
)

const (
	outcomePending = "pending"
	outcomeSuccess = "success"
	outcomeFailed  = "failed"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrNotClaimed     = errors.New("content hash not claimed")
)

// Ledger is the durable exactly-once gate keyed by content hash, plus the
// governance event index backing the query API.
type Ledger struct {
	db     *gorm.DB
	logger log.Logger
}

func NewLedger(dbPath string, logger log.Logger) (*Ledger, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ProcessedRecord{}, &EventRecord{}).Error; err != nil {
		return nil, err
	}
	return &Ledger{
		db:     db,
		logger: logger.With("module", "ledger"),
	}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Claim attempts to take ownership of a content hash. Exactly one caller
// may claim a given hash: the insert rides on the unique index, so
// concurrent claims for the same hash resolve in the database, never via
// a read-then-write sequence. A previously failed hash may be re-claimed;
// any other prior row is returned as the duplicate reference.
func (l *Ledger) Claim(hash common.Hash) (claimed bool, prior *ProcessedRecord, err error) {
	now := time.Now().Unix()
	rec := ProcessedRecord{
		ContentHash: hash.Hex(),
		Outcome:     outcomePending,
		CreatedUnix: now,
		UpdatedUnix: now,
	}
	createErr := l.db.Create(&rec).Error
	if createErr == nil {
		l.logger.Debug("claimed", "hash", hash.Hex())
		return true, nil, nil
	}
	if !isUniqueViolation(createErr) {
		return false, nil, createErr
	}
	// the hash is held; take it over only if the prior run failed
	res := l.db.Model(&ProcessedRecord{}).
		Where("content_hash = ? AND outcome = ?", hash.Hex(), outcomeFailed).
		Updates(map[string]interface{}{"outcome": outcomePending, "reason": "", "updated_unix": now})
	if res.Error != nil {
		return false, nil, res.Error
	}
	if res.RowsAffected == 1 {
		l.logger.Info("re-claimed after prior failure", "hash", hash.Hex())
		return true, nil, nil
	}
	var existing ProcessedRecord
	if err := l.db.Where("content_hash = ?", hash.Hex()).First(&existing).Error; err != nil {
		return false, nil, err
	}
	return false, &existing, nil
}

// IsProcessed reports whether the hash has already produced a proposal.
func (l *Ledger) IsProcessed(hash common.Hash) (bool, error) {
	var rec ProcessedRecord
	err := l.db.Where("content_hash = ? AND outcome = ?", hash.Hex(), outcomeSuccess).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkSuccess commits the claim with the resulting proposal reference.
func (l *Ledger) MarkSuccess(hash common.Hash, proposalID common.Hash, txRef string) error {
	res := l.db.Model(&ProcessedRecord{}).
		Where("content_hash = ? AND outcome = ?", hash.Hex(), outcomePending).
		Updates(map[string]interface{}{
			"outcome":      outcomeSuccess,
			"proposal_id":  proposalID.Hex(),
			"tx_ref":       txRef,
			"updated_unix": time.Now().Unix(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotClaimed
	}
	return nil
}

// MarkFailed releases the claim with a retained failure reason, so a later
// retry for the same hash is permitted instead of silently skipped.
func (l *Ledger) MarkFailed(hash common.Hash, reason string) error {
	res := l.db.Model(&ProcessedRecord{}).
		Where("content_hash = ? AND outcome = ?", hash.Hex(), outcomePending).
		Updates(map[string]interface{}{
			"outcome":      outcomeFailed,
			"reason":       reason,
			"updated_unix": time.Now().Unix(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotClaimed
	}
	return nil
}

func (l *Ledger) GetRecord(hash common.Hash) (*ProcessedRecord, error) {
	var rec ProcessedRecord
	err := l.db.Where("content_hash = ?", hash.Hex()).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (l *Ledger) GetRecords(page, pageSize int) ([]ProcessedRecord, uint64, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	var total uint64
	if err := l.db.Model(&ProcessedRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var recs []ProcessedRecord
	err := l.db.Order("id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// AppendEvents indexes governance events for the query API.
func (l *Ledger) AppendEvents(events []types.Event) error {
	now := time.Now().Unix()
	for _, ev := range events {
		row := EventRecord{Type: ev.Type, CreatedUnix: now}
		for _, attr := range ev.Attributes {
			switch attr.Key {
			case "proposal":
				row.Proposal = attr.Value
			case "address", "voter":
				row.Member = attr.Value
			}
		}
		dat, err := json.Marshal(ev.Attributes)
		if err != nil {
			return err
		}
		row.Attributes = string(dat)
		if err := l.db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) GetEvents(eventType string, page, pageSize int) ([]EventRecord, uint64, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	q := l.db.Model(&EventRecord{})
	if eventType != "" {
		q = q.Where("type = ?", eventType)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []EventRecord
	err := q.Order("id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
