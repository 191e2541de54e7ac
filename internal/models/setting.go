package models

import "time"

// Setting is a row in the system_settings key/value table. Secret values are
// stored encrypted at rest and flagged so reads know to decrypt.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Secret    bool      `json:"secret"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known setting keys.
const (
	SettingMaintenanceMode        = "maintenance_mode"
	SettingMinimumBulkOrderPaise  = "minimum_bulk_order_amount"
	SettingShippingFlatRatePaise  = "shipping_flat_rate_paise"
	SettingTaxRateBasisPoints     = "tax_rate_basis_points"
	SettingUPIVirtualPaymentAddr  = "upi_vpa"
	SettingEmailProviderAPIKey    = "email_api_key"
)
