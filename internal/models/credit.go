package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credit economy policy constants
const (
	CreditRefillInterval   = 5 * time.Minute
	BaseMaxCredits         = 20
	GuestMaxCredits        = 10
	ChoiceCreditCost       = 1
	CompletionCreditReward = 3
	ReviewCreditReward     = 2
)

// Credit ledger entry types
const (
	CreditEntrySpend  = "spend"
	CreditEntryEarn   = "earn"
	CreditEntryRefund = "refund"
	CreditEntryBonus  = "bonus"
)

// CreditLedgerEntry records one balance mutation
type CreditLedgerEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type      string             `bson:"type" json:"type"`
	Amount    int                `bson:"amount" json:"amount"`
	Balance   int                `bson:"balance" json:"balance"`
	Source    string             `bson:"source" json:"source"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
