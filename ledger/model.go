package ledger

// sqlite models

// ProcessedRecord is one row per content hash that entered publication.
// The unique index on ContentHash is what makes the claim atomic: the
// ledger is the sole source of truth for "has this evidence already
// become a proposal".
type ProcessedRecord struct {
	Id          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ContentHash string `gorm:"unique_index;not null" json:"content_hash"`
	ProposalId  string `json:"proposal_id"`
	TxRef       string `json:"tx_ref"`
	Outcome     string `json:"outcome"`
	Reason      string `json:"reason"`
	CreatedUnix int64  `json:"created_unix"`
	UpdatedUnix int64  `json:"updated_unix"`
}

// EventRecord is an indexed governance event.
type EventRecord struct {
	Id          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Type        string `json:"type"`
	Proposal    string `json:"proposal"`
	Member      string `json:"member"`
	Attributes  string `json:"attributes"`
	CreatedUnix int64  `json:"created_unix"`
}
