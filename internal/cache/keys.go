package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func ReceiptStatusKey(receiptID uuid.UUID) string {
	return fmt.Sprintf("receipt:%s", receiptID)
}
