package model

type BuddyPairStatus string

const (
	BuddyPairStatusActive   BuddyPairStatus = "active"
	BuddyPairStatusInactive BuddyPairStatus = "inactive"
)

// BuddyPair links two participations. A participation holds at most
// one active pair at a time; assignment enforces it.
type BuddyPair struct {
	BaseModel
	ParticipationAID int64           `gorm:"not null;index" json:"participation_a_id"`
	ParticipationBID int64           `gorm:"not null;index" json:"participation_b_id"`
	Status           BuddyPairStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
}

func (BuddyPair) TableName() string {
	return "buddy_pairs"
}

// PartnerOf returns the other participation of the pair, or 0 when the
// given participation is not part of it.
func (p *BuddyPair) PartnerOf(participationID int64) int64 {
	switch participationID {
	case p.ParticipationAID:
		return p.ParticipationBID
	case p.ParticipationBID:
		return p.ParticipationAID
	}
	return 0
}
