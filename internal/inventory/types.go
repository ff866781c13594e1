// Package inventory implements the data-inventory domain: organization-scoped
// sources, assets, classifications, and flows, with an append-only audit
// trail. Field validation happens here; persistence sits behind Store.
package inventory

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no record matches the id/organization pair.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a payload, naming the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type SourceType string

const (
	SourceDatabase     SourceType = "database"
	SourceFileSystem   SourceType = "file_system"
	SourceAPI          SourceType = "api"
	SourceCloudStorage SourceType = "cloud_storage"
	SourceOther        SourceType = "other"
)

type SourceStatus string

const (
	StatusActive   SourceStatus = "active"
	StatusInactive SourceStatus = "inactive"
	StatusError    SourceStatus = "error"
)

type AssetType string

const (
	AssetTable      AssetType = "table"
	AssetCollection AssetType = "collection"
	AssetFile       AssetType = "file"
	AssetField      AssetType = "field"
	AssetFolder     AssetType = "folder"
	AssetBucket     AssetType = "bucket"
	AssetOther      AssetType = "other"
)

type AssetCategory string

const (
	CategoryPersonal    AssetCategory = "personal"
	CategorySensitive   AssetCategory = "sensitive"
	CategoryFinancial   AssetCategory = "financial"
	CategoryOperational AssetCategory = "operational"
	CategoryOther       AssetCategory = "other"
)

type ClassificationType string

const (
	ClassPII               ClassificationType = "pii"
	ClassSensitivePersonal ClassificationType = "sensitive_personal"
	ClassFinancial         ClassificationType = "financial"
	ClassHealth            ClassificationType = "health"
	ClassOther             ClassificationType = "other"
)

type FlowFrequency string

const (
	FreqRealTime FlowFrequency = "real_time"
	FreqHourly   FlowFrequency = "hourly"
	FreqDaily    FlowFrequency = "daily"
	FreqWeekly   FlowFrequency = "weekly"
	FreqMonthly  FlowFrequency = "monthly"
	FreqOnDemand FlowFrequency = "on_demand"
	FreqOther    FlowFrequency = "other"
)

type TransferMethod string

const (
	TransferAPI          TransferMethod = "api"
	TransferFile         TransferMethod = "file_transfer"
	TransferDatabaseSync TransferMethod = "database_sync"
	TransferManual       TransferMethod = "manual"
	TransferOther        TransferMethod = "other"
)

// DataSource is an external system being inventoried.
type DataSource struct {
	ID                string         `json:"id"`
	OrganizationID    string         `json:"organization_id"`
	Name              string         `json:"name"`
	Type              SourceType     `json:"type"`
	ConnectionDetails map[string]any `json:"connection_details,omitempty"`
	Status            SourceStatus   `json:"status"`
	LastScannedAt     *time.Time     `json:"last_scanned_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// DataAsset is a discovered unit of data within a source. DataSourceID is a
// weak reference: deleting a source does not cascade.
type DataAsset struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organization_id"`
	DataSourceID   string        `json:"data_source_id,omitempty"`
	Name           string        `json:"name"`
	Path           string        `json:"path,omitempty"`
	Type           AssetType     `json:"type"`
	Category       AssetCategory `json:"category,omitempty"`
	Description    string        `json:"description,omitempty"`
	SizeBytes      *int64        `json:"size_bytes,omitempty"`
	RowCount       *int64        `json:"row_count,omitempty"`
	LastAccessedAt *time.Time    `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// DataClassification is a sensitivity label attached to an asset.
// DetectedFields maps a field name to a confidence label.
type DataClassification struct {
	ID                 string             `json:"id"`
	OrganizationID     string             `json:"organization_id"`
	DataAssetID        string             `json:"data_asset_id"`
	ClassificationType ClassificationType `json:"classification_type"`
	ConfidenceScore    *float64           `json:"confidence_score,omitempty"`
	DetectedFields     map[string]string  `json:"detected_fields,omitempty"`
	Reviewed           bool               `json:"reviewed"`
	ReviewedBy         string             `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time         `json:"reviewed_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// DataFlow is a directed movement of data between two assets.
type DataFlow struct {
	ID                 string         `json:"id"`
	OrganizationID     string         `json:"organization_id"`
	SourceAssetID      string         `json:"source_asset_id"`
	DestinationAssetID string         `json:"destination_asset_id"`
	Purpose            string         `json:"purpose,omitempty"`
	Frequency          FlowFrequency  `json:"frequency,omitempty"`
	TransferMethod     TransferMethod `json:"transfer_method,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type AuditAction string

const (
	ActionCreate   AuditAction = "CREATE"
	ActionUpdate   AuditAction = "UPDATE"
	ActionDelete   AuditAction = "DELETE"
	ActionClassify AuditAction = "CLASSIFY"
	ActionScan     AuditAction = "SCAN"
	ActionExport   AuditAction = "EXPORT"
	ActionImport   AuditAction = "IMPORT"
)

type EntityType string

const (
	EntitySource         EntityType = "DataSource"
	EntityAsset          EntityType = "DataAsset"
	EntityClassification EntityType = "DataClassification"
	EntityFlow           EntityType = "DataFlow"
	EntityPolicy         EntityType = "Policy"
	EntityConsent        EntityType = "Consent"
)

// AuditLog records who did what to which entity, when, from where.
// Entries are append-only; the service never mutates or deletes them.
type AuditLog struct {
	ID             string         `json:"id"`
	Action         AuditAction    `json:"action"`
	EntityType     EntityType     `json:"entity_type"`
	EntityID       string         `json:"entity_id"`
	UserID         string         `json:"user_id"`
	OrganizationID string         `json:"organization_id"`
	Details        map[string]any `json:"details,omitempty"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Actor carries request metadata recorded in audit entries.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}
