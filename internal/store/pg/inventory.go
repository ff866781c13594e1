package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"datenwacht.org/internal/inventory"
)

func (s *Store) Sources(ctx context.Context) inventory.SourceStore          { return (*srcStore)(s) }
func (s *Store) Assets(ctx context.Context) inventory.AssetStore            { return (*assetStore)(s) }
func (s *Store) Classifications(ctx context.Context) inventory.ClassificationStore {
	return (*clsStore)(s)
}
func (s *Store) Flows(ctx context.Context) inventory.FlowStore { return (*flowStore)(s) }

// CheckSource satisfies inventory.ReferenceChecker: the database can enforce
// that a referenced source exists within the caller's organization.
func (s *Store) CheckSource(ctx context.Context, orgID, sourceID string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`select 1 from data_sources where id=$1 and organization_id=$2`, sourceID, orgID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &inventory.ValidationError{Field: "data_source_id", Reason: "references an unknown data source"}
	}
	return err
}

func (s *Store) CheckAsset(ctx context.Context, orgID, assetID string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`select 1 from data_assets where id=$1 and organization_id=$2`, assetID, orgID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &inventory.ValidationError{Field: "data_asset_id", Reason: "references an unknown data asset"}
	}
	return err
}

// --- data sources ---

type srcStore Store

const sourceColumns = `id, organization_id, name, type, connection_details, status, last_scanned_at, created_at, updated_at`

func scanSource(row interface{ Scan(...any) error }) (inventory.DataSource, error) {
	var src inventory.DataSource
	var details []byte
	var lastScanned sql.NullTime
	err := row.Scan(&src.ID, &src.OrganizationID, &src.Name, &src.Type, &details, &src.Status, &lastScanned, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return inventory.DataSource{}, err
	}
	if err := unmarshalJSONB(details, &src.ConnectionDetails); err != nil {
		return inventory.DataSource{}, fmt.Errorf("decode connection_details: %w", err)
	}
	if lastScanned.Valid {
		t := lastScanned.Time
		src.LastScannedAt = &t
	}
	return src, nil
}

func (s *srcStore) List(ctx context.Context, orgID string) ([]inventory.DataSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+sourceColumns+` from data_sources
		where organization_id=$1
		order by created_at desc, id desc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.DataSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *srcStore) Get(ctx context.Context, id, orgID string) (inventory.DataSource, error) {
	src, err := scanSource(s.db.QueryRowContext(ctx, `
		select `+sourceColumns+` from data_sources where id=$1 and organization_id=$2
	`, id, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.DataSource{}, inventory.ErrNotFound
	}
	return src, err
}

func (s *srcStore) Create(ctx context.Context, src inventory.DataSource) (inventory.DataSource, error) {
	details, err := jsonbOrNil(src.ConnectionDetails)
	if err != nil {
		return inventory.DataSource{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into data_sources(id, organization_id, name, type, connection_details, status, last_scanned_at, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, src.ID, src.OrganizationID, src.Name, src.Type, details, src.Status, src.LastScannedAt, src.CreatedAt, src.UpdatedAt)
	if err != nil {
		return inventory.DataSource{}, err
	}
	return src, nil
}

func (s *srcStore) Update(ctx context.Context, src inventory.DataSource) (inventory.DataSource, error) {
	details, err := jsonbOrNil(src.ConnectionDetails)
	if err != nil {
		return inventory.DataSource{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		update data_sources
		set name=$3, type=$4, connection_details=$5, status=$6, last_scanned_at=$7, updated_at=$8
		where id=$1 and organization_id=$2
	`, src.ID, src.OrganizationID, src.Name, src.Type, details, src.Status, src.LastScannedAt, src.UpdatedAt)
	if err != nil {
		return inventory.DataSource{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.DataSource{}, inventory.ErrNotFound
	}
	return src, nil
}

func (s *srcStore) Delete(ctx context.Context, id, orgID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from data_sources where id=$1 and organization_id=$2`, id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// --- data assets ---

type assetStore Store

const assetColumns = `id, organization_id, coalesce(data_source_id,''), name, coalesce(path,''), type, coalesce(category,''), coalesce(description,''), size_bytes, row_count, last_accessed_at, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (inventory.DataAsset, error) {
	var a inventory.DataAsset
	var sizeBytes, rowCount sql.NullInt64
	var lastAccessed sql.NullTime
	err := row.Scan(&a.ID, &a.OrganizationID, &a.DataSourceID, &a.Name, &a.Path, &a.Type, &a.Category, &a.Description, &sizeBytes, &rowCount, &lastAccessed, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return inventory.DataAsset{}, err
	}
	if sizeBytes.Valid {
		a.SizeBytes = &sizeBytes.Int64
	}
	if rowCount.Valid {
		a.RowCount = &rowCount.Int64
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time
		a.LastAccessedAt = &t
	}
	return a, nil
}

func (s *assetStore) List(ctx context.Context, orgID string) ([]inventory.DataAsset, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+assetColumns+` from data_assets
		where organization_id=$1
		order by created_at desc, id desc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.DataAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *assetStore) Get(ctx context.Context, id, orgID string) (inventory.DataAsset, error) {
	a, err := scanAsset(s.db.QueryRowContext(ctx, `
		select `+assetColumns+` from data_assets where id=$1 and organization_id=$2
	`, id, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.DataAsset{}, inventory.ErrNotFound
	}
	return a, err
}

func (s *assetStore) Create(ctx context.Context, a inventory.DataAsset) (inventory.DataAsset, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into data_assets(id, organization_id, data_source_id, name, path, type, category, description, size_bytes, row_count, last_accessed_at, created_at, updated_at)
		values ($1,$2,nullif($3,''),$4,nullif($5,''),$6,nullif($7,''),nullif($8,''),$9,$10,$11,$12,$13)
	`, a.ID, a.OrganizationID, a.DataSourceID, a.Name, a.Path, a.Type, a.Category, a.Description, a.SizeBytes, a.RowCount, a.LastAccessedAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return inventory.DataAsset{}, err
	}
	return a, nil
}

func (s *assetStore) Update(ctx context.Context, a inventory.DataAsset) (inventory.DataAsset, error) {
	res, err := s.db.ExecContext(ctx, `
		update data_assets
		set name=$3, path=nullif($4,''), type=$5, category=nullif($6,''), description=nullif($7,''), size_bytes=$8, row_count=$9, last_accessed_at=$10, updated_at=$11
		where id=$1 and organization_id=$2
	`, a.ID, a.OrganizationID, a.Name, a.Path, a.Type, a.Category, a.Description, a.SizeBytes, a.RowCount, a.LastAccessedAt, a.UpdatedAt)
	if err != nil {
		return inventory.DataAsset{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.DataAsset{}, inventory.ErrNotFound
	}
	return a, nil
}

func (s *assetStore) Delete(ctx context.Context, id, orgID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from data_assets where id=$1 and organization_id=$2`, id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// --- classifications ---

type clsStore Store

const clsColumns = `id, organization_id, data_asset_id, classification_type, confidence_score, detected_fields, reviewed, coalesce(reviewed_by,''), reviewed_at, created_at, updated_at`

func scanClassification(row interface{ Scan(...any) error }) (inventory.DataClassification, error) {
	var c inventory.DataClassification
	var score sql.NullFloat64
	var fields []byte
	var reviewedAt sql.NullTime
	err := row.Scan(&c.ID, &c.OrganizationID, &c.DataAssetID, &c.ClassificationType, &score, &fields, &c.Reviewed, &c.ReviewedBy, &reviewedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return inventory.DataClassification{}, err
	}
	if score.Valid {
		c.ConfidenceScore = &score.Float64
	}
	if err := unmarshalJSONB(fields, &c.DetectedFields); err != nil {
		return inventory.DataClassification{}, fmt.Errorf("decode detected_fields: %w", err)
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		c.ReviewedAt = &t
	}
	return c, nil
}

func (s *clsStore) List(ctx context.Context, orgID string) ([]inventory.DataClassification, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+clsColumns+` from data_classifications
		where organization_id=$1
		order by created_at desc, id desc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.DataClassification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *clsStore) Get(ctx context.Context, id, orgID string) (inventory.DataClassification, error) {
	c, err := scanClassification(s.db.QueryRowContext(ctx, `
		select `+clsColumns+` from data_classifications where id=$1 and organization_id=$2
	`, id, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.DataClassification{}, inventory.ErrNotFound
	}
	return c, err
}

func (s *clsStore) Create(ctx context.Context, c inventory.DataClassification) (inventory.DataClassification, error) {
	fields, err := jsonbOrNil(c.DetectedFields)
	if err != nil {
		return inventory.DataClassification{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into data_classifications(id, organization_id, data_asset_id, classification_type, confidence_score, detected_fields, reviewed, reviewed_by, reviewed_at, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,nullif($8,''),$9,$10,$11)
	`, c.ID, c.OrganizationID, c.DataAssetID, c.ClassificationType, c.ConfidenceScore, fields, c.Reviewed, c.ReviewedBy, c.ReviewedAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return inventory.DataClassification{}, err
	}
	return c, nil
}

func (s *clsStore) Update(ctx context.Context, c inventory.DataClassification) (inventory.DataClassification, error) {
	fields, err := jsonbOrNil(c.DetectedFields)
	if err != nil {
		return inventory.DataClassification{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		update data_classifications
		set classification_type=$3, confidence_score=$4, detected_fields=$5, reviewed=$6, reviewed_by=nullif($7,''), reviewed_at=$8, updated_at=$9
		where id=$1 and organization_id=$2
	`, c.ID, c.OrganizationID, c.ClassificationType, c.ConfidenceScore, fields, c.Reviewed, c.ReviewedBy, c.ReviewedAt, c.UpdatedAt)
	if err != nil {
		return inventory.DataClassification{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.DataClassification{}, inventory.ErrNotFound
	}
	return c, nil
}

func (s *clsStore) Delete(ctx context.Context, id, orgID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from data_classifications where id=$1 and organization_id=$2`, id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// --- data flows ---

type flowStore Store

const flowColumns = `id, organization_id, source_asset_id, destination_asset_id, coalesce(purpose,''), coalesce(frequency,''), coalesce(transfer_method,''), created_at, updated_at`

func scanFlow(row interface{ Scan(...any) error }) (inventory.DataFlow, error) {
	var f inventory.DataFlow
	err := row.Scan(&f.ID, &f.OrganizationID, &f.SourceAssetID, &f.DestinationAssetID, &f.Purpose, &f.Frequency, &f.TransferMethod, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return inventory.DataFlow{}, err
	}
	return f, nil
}

func (s *flowStore) List(ctx context.Context, orgID string) ([]inventory.DataFlow, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+flowColumns+` from data_flows
		where organization_id=$1
		order by created_at desc, id desc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.DataFlow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *flowStore) Get(ctx context.Context, id, orgID string) (inventory.DataFlow, error) {
	f, err := scanFlow(s.db.QueryRowContext(ctx, `
		select `+flowColumns+` from data_flows where id=$1 and organization_id=$2
	`, id, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.DataFlow{}, inventory.ErrNotFound
	}
	return f, err
}

func (s *flowStore) Create(ctx context.Context, f inventory.DataFlow) (inventory.DataFlow, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into data_flows(id, organization_id, source_asset_id, destination_asset_id, purpose, frequency, transfer_method, created_at, updated_at)
		values ($1,$2,$3,$4,nullif($5,''),nullif($6,''),nullif($7,''),$8,$9)
	`, f.ID, f.OrganizationID, f.SourceAssetID, f.DestinationAssetID, f.Purpose, f.Frequency, f.TransferMethod, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return inventory.DataFlow{}, err
	}
	return f, nil
}

func (s *flowStore) Update(ctx context.Context, f inventory.DataFlow) (inventory.DataFlow, error) {
	res, err := s.db.ExecContext(ctx, `
		update data_flows
		set source_asset_id=$3, destination_asset_id=$4, purpose=nullif($5,''), frequency=nullif($6,''), transfer_method=nullif($7,''), updated_at=$8
		where id=$1 and organization_id=$2
	`, f.ID, f.OrganizationID, f.SourceAssetID, f.DestinationAssetID, f.Purpose, f.Frequency, f.TransferMethod, f.UpdatedAt)
	if err != nil {
		return inventory.DataFlow{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.DataFlow{}, inventory.ErrNotFound
	}
	return f, nil
}

func (s *flowStore) Delete(ctx context.Context, id, orgID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from data_flows where id=$1 and organization_id=$2`, id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}
