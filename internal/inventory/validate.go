package inventory

import (
	"strings"
	"time"
)

var (
	sourceTypes = map[SourceType]struct{}{
		SourceDatabase: {}, SourceFileSystem: {}, SourceAPI: {}, SourceCloudStorage: {}, SourceOther: {},
	}
	sourceStatuses = map[SourceStatus]struct{}{
		StatusActive: {}, StatusInactive: {}, StatusError: {},
	}
	assetTypes = map[AssetType]struct{}{
		AssetTable: {}, AssetCollection: {}, AssetFile: {}, AssetField: {}, AssetFolder: {}, AssetBucket: {}, AssetOther: {},
	}
	assetCategories = map[AssetCategory]struct{}{
		CategoryPersonal: {}, CategorySensitive: {}, CategoryFinancial: {}, CategoryOperational: {}, CategoryOther: {},
	}
	classificationTypes = map[ClassificationType]struct{}{
		ClassPII: {}, ClassSensitivePersonal: {}, ClassFinancial: {}, ClassHealth: {}, ClassOther: {},
	}
	flowFrequencies = map[FlowFrequency]struct{}{
		FreqRealTime: {}, FreqHourly: {}, FreqDaily: {}, FreqWeekly: {}, FreqMonthly: {}, FreqOnDemand: {}, FreqOther: {},
	}
	transferMethods = map[TransferMethod]struct{}{
		TransferAPI: {}, TransferFile: {}, TransferDatabaseSync: {}, TransferManual: {}, TransferOther: {},
	}
)

// CreateSourceInput is the accepted payload for registering a data source.
type CreateSourceInput struct {
	Name              string         `json:"name"`
	Type              SourceType     `json:"type"`
	ConnectionDetails map[string]any `json:"connection_details,omitempty"`
	Status            SourceStatus   `json:"status,omitempty"`
}

func (in *CreateSourceInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if _, ok := sourceTypes[in.Type]; !ok {
		return invalid("type", "must be one of database, file_system, api, cloud_storage, other")
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if _, ok := sourceStatuses[in.Status]; !ok {
		return invalid("status", "must be one of active, inactive, error")
	}
	return nil
}

// UpdateSourceInput is a partial payload; nil fields are left untouched.
type UpdateSourceInput struct {
	Name              *string        `json:"name,omitempty"`
	Type              *SourceType    `json:"type,omitempty"`
	Status            *SourceStatus  `json:"status,omitempty"`
	ConnectionDetails map[string]any `json:"connection_details,omitempty"`
}

func (in *UpdateSourceInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if in.Type != nil {
		if _, ok := sourceTypes[*in.Type]; !ok {
			return invalid("type", "must be one of database, file_system, api, cloud_storage, other")
		}
	}
	if in.Status != nil {
		if _, ok := sourceStatuses[*in.Status]; !ok {
			return invalid("status", "must be one of active, inactive, error")
		}
	}
	return nil
}

func (in *UpdateSourceInput) apply(src *DataSource) {
	if in.Name != nil {
		src.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		src.Type = *in.Type
	}
	if in.Status != nil {
		src.Status = *in.Status
	}
	if in.ConnectionDetails != nil {
		src.ConnectionDetails = in.ConnectionDetails
	}
}

// CreateAssetInput is the accepted payload for recording a data asset.
type CreateAssetInput struct {
	DataSourceID string        `json:"data_source_id,omitempty"`
	Name         string        `json:"name"`
	Path         string        `json:"path,omitempty"`
	Type         AssetType     `json:"type"`
	Category     AssetCategory `json:"category,omitempty"`
	Description  string        `json:"description,omitempty"`
	SizeBytes    *int64        `json:"size_bytes,omitempty"`
	RowCount     *int64        `json:"row_count,omitempty"`
}

func (in *CreateAssetInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if _, ok := assetTypes[in.Type]; !ok {
		return invalid("type", "must be one of table, collection, file, field, folder, bucket, other")
	}
	if in.Category != "" {
		if _, ok := assetCategories[in.Category]; !ok {
			return invalid("category", "must be one of personal, sensitive, financial, operational, other")
		}
	}
	if in.SizeBytes != nil && *in.SizeBytes < 0 {
		return invalid("size_bytes", "must not be negative")
	}
	if in.RowCount != nil && *in.RowCount < 0 {
		return invalid("row_count", "must not be negative")
	}
	return nil
}

// UpdateAssetInput is a partial payload; nil fields are left untouched.
type UpdateAssetInput struct {
	Name        *string        `json:"name,omitempty"`
	Type        *AssetType     `json:"type,omitempty"`
	Category    *AssetCategory `json:"category,omitempty"`
	Description *string        `json:"description,omitempty"`
	SizeBytes   *int64         `json:"size_bytes,omitempty"`
	RowCount    *int64         `json:"row_count,omitempty"`
}

func (in *UpdateAssetInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if in.Type != nil {
		if _, ok := assetTypes[*in.Type]; !ok {
			return invalid("type", "must be one of table, collection, file, field, folder, bucket, other")
		}
	}
	if in.Category != nil && *in.Category != "" {
		if _, ok := assetCategories[*in.Category]; !ok {
			return invalid("category", "must be one of personal, sensitive, financial, operational, other")
		}
	}
	if in.SizeBytes != nil && *in.SizeBytes < 0 {
		return invalid("size_bytes", "must not be negative")
	}
	if in.RowCount != nil && *in.RowCount < 0 {
		return invalid("row_count", "must not be negative")
	}
	return nil
}

func (in *UpdateAssetInput) apply(asset *DataAsset) {
	if in.Name != nil {
		asset.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		asset.Type = *in.Type
	}
	if in.Category != nil {
		asset.Category = *in.Category
	}
	if in.Description != nil {
		asset.Description = *in.Description
	}
	if in.SizeBytes != nil {
		asset.SizeBytes = in.SizeBytes
	}
	if in.RowCount != nil {
		asset.RowCount = in.RowCount
	}
}

// CreateClassificationInput is the accepted payload for labeling an asset.
type CreateClassificationInput struct {
	DataAssetID        string             `json:"data_asset_id"`
	ClassificationType ClassificationType `json:"classification_type"`
	ConfidenceScore    *float64           `json:"confidence_score,omitempty"`
	DetectedFields     map[string]string  `json:"detected_fields,omitempty"`
}

func (in *CreateClassificationInput) validate() error {
	if strings.TrimSpace(in.DataAssetID) == "" {
		return invalid("data_asset_id", "is required")
	}
	if _, ok := classificationTypes[in.ClassificationType]; !ok {
		return invalid("classification_type", "must be one of pii, sensitive_personal, financial, health, other")
	}
	if in.ConfidenceScore != nil && (*in.ConfidenceScore < 0 || *in.ConfidenceScore > 1) {
		return invalid("confidence_score", "must lie in [0,1]")
	}
	return nil
}

// UpdateClassificationInput is a partial payload; nil fields are left untouched.
type UpdateClassificationInput struct {
	ClassificationType *ClassificationType `json:"classification_type,omitempty"`
	ConfidenceScore    *float64            `json:"confidence_score,omitempty"`
	DetectedFields     map[string]string   `json:"detected_fields,omitempty"`
	Reviewed           *bool               `json:"reviewed,omitempty"`
	ReviewedBy         *string             `json:"reviewed_by,omitempty"`
}

func (in *UpdateClassificationInput) validate() error {
	if in.ClassificationType != nil {
		if _, ok := classificationTypes[*in.ClassificationType]; !ok {
			return invalid("classification_type", "must be one of pii, sensitive_personal, financial, health, other")
		}
	}
	if in.ConfidenceScore != nil && (*in.ConfidenceScore < 0 || *in.ConfidenceScore > 1) {
		return invalid("confidence_score", "must lie in [0,1]")
	}
	return nil
}

func (in *UpdateClassificationInput) apply(cls *DataClassification, now func() time.Time) {
	if in.ClassificationType != nil {
		cls.ClassificationType = *in.ClassificationType
	}
	if in.ConfidenceScore != nil {
		cls.ConfidenceScore = in.ConfidenceScore
	}
	if in.DetectedFields != nil {
		cls.DetectedFields = in.DetectedFields
	}
	if in.ReviewedBy != nil {
		cls.ReviewedBy = *in.ReviewedBy
	}
	if in.Reviewed != nil {
		cls.Reviewed = *in.Reviewed
		if *in.Reviewed {
			t := now().UTC()
			cls.ReviewedAt = &t
		} else {
			cls.ReviewedAt = nil
		}
	}
}

// CreateFlowInput is the accepted payload for recording a data flow.
type CreateFlowInput struct {
	SourceAssetID      string         `json:"source_asset_id"`
	DestinationAssetID string         `json:"destination_asset_id"`
	Purpose            string         `json:"purpose,omitempty"`
	Frequency          FlowFrequency  `json:"frequency,omitempty"`
	TransferMethod     TransferMethod `json:"transfer_method,omitempty"`
}

func (in *CreateFlowInput) validate() error {
	if strings.TrimSpace(in.SourceAssetID) == "" {
		return invalid("source_asset_id", "is required")
	}
	if strings.TrimSpace(in.DestinationAssetID) == "" {
		return invalid("destination_asset_id", "is required")
	}
	if in.SourceAssetID == in.DestinationAssetID {
		return invalid("destination_asset_id", "must differ from source_asset_id")
	}
	if in.Frequency != "" {
		if _, ok := flowFrequencies[in.Frequency]; !ok {
			return invalid("frequency", "must be one of real_time, hourly, daily, weekly, monthly, on_demand, other")
		}
	}
	if in.TransferMethod != "" {
		if _, ok := transferMethods[in.TransferMethod]; !ok {
			return invalid("transfer_method", "must be one of api, file_transfer, database_sync, manual, other")
		}
	}
	return nil
}

// UpdateFlowInput is a partial payload; nil fields are left untouched.
type UpdateFlowInput struct {
	SourceAssetID      *string         `json:"source_asset_id,omitempty"`
	DestinationAssetID *string         `json:"destination_asset_id,omitempty"`
	Purpose            *string         `json:"purpose,omitempty"`
	Frequency          *FlowFrequency  `json:"frequency,omitempty"`
	TransferMethod     *TransferMethod `json:"transfer_method,omitempty"`
}

func (in *UpdateFlowInput) validate() error {
	if in.SourceAssetID != nil && strings.TrimSpace(*in.SourceAssetID) == "" {
		return invalid("source_asset_id", "must not be empty")
	}
	if in.DestinationAssetID != nil && strings.TrimSpace(*in.DestinationAssetID) == "" {
		return invalid("destination_asset_id", "must not be empty")
	}
	if in.Frequency != nil && *in.Frequency != "" {
		if _, ok := flowFrequencies[*in.Frequency]; !ok {
			return invalid("frequency", "must be one of real_time, hourly, daily, weekly, monthly, on_demand, other")
		}
	}
	if in.TransferMethod != nil && *in.TransferMethod != "" {
		if _, ok := transferMethods[*in.TransferMethod]; !ok {
			return invalid("transfer_method", "must be one of api, file_transfer, database_sync, manual, other")
		}
	}
	return nil
}

func (in *UpdateFlowInput) apply(flow *DataFlow) {
	if in.SourceAssetID != nil {
		flow.SourceAssetID = *in.SourceAssetID
	}
	if in.DestinationAssetID != nil {
		flow.DestinationAssetID = *in.DestinationAssetID
	}
	if in.Purpose != nil {
		flow.Purpose = *in.Purpose
	}
	if in.Frequency != nil {
		flow.Frequency = *in.Frequency
	}
	if in.TransferMethod != nil {
		flow.TransferMethod = *in.TransferMethod
	}
}
