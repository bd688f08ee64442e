package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskTypeLowStockScan walks the catalog for products under the
	// reorder threshold and fans out reorder emails.
	TaskTypeLowStockScan = "inventory:low_stock_scan"
	// TaskTypeReorderEmail notifies a supplier that a product needs
	// restocking.
	TaskTypeReorderEmail = "inventory:reorder_email"
)

// ReorderEmailPayload carries everything needed to draft a reorder email.
type ReorderEmailPayload struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	StockQuantity int    `json:"stock_quantity"`
	SupplierName  string `json:"supplier_name"`
	SupplierEmail string `json:"supplier_email"`
}

// NewLowStockScanTask builds the periodic scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeLowStockScan, nil)
}

// NewReorderEmailTask builds a reorder email task for one product.
func NewReorderEmailTask(payload ReorderEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReorderEmail, data, asynq.MaxRetry(3)), nil
}
