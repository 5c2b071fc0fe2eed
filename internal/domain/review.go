package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is an append-only product rating tied to a purchase. The
// purchased-product precondition is checked by the caller, not here.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"userId" gorm:"not null;index;size:36"`
	ProductID string    `json:"productId" gorm:"not null;index;size:36"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment,omitempty" gorm:"size:1024"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func NewReview(userID, productID string, rating int, comment string) *Review {
	return &Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
}
