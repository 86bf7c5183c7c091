package company

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"compliancehub/internal/catalog"
	"compliancehub/internal/tenant/router"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

// PostgresStore persists tenant-owned compliance data. Handles are resolved
// through the entity router per call: a bound tenant routes to that tenant's
// database, and an unbound context fails before any SQL runs.
type PostgresStore struct {
	router *router.Router
}

func NewPostgresStore(r *router.Router) *PostgresStore {
	return &PostgresStore{router: r}
}

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// nullUUID maps a zero id to SQL NULL for nullable parent links.
func nullUUID(u uuid.UUID) any {
	if u == (uuid.UUID{}) {
		return nil
	}
	return u
}

func scanNullUUID(n *uuid.NullUUID) uuid.UUID {
	if n.Valid {
		return n.UUID
	}
	return uuid.UUID{}
}

func (s *PostgresStore) CreateFramework(ctx context.Context, f *CompanyFramework) error {
	db, err := s.router.Write(ctx, router.CompanyFrameworks)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO company_frameworks
			(id, name, full_name, version, template_framework_id, description,
			 is_customized, customized_date, activated_date, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(f.ID), f.Name, f.FullName, f.Version, uuid.UUID(f.TemplateFrameworkID),
		f.Description, f.IsCustomized, f.CustomizedDate, f.ActivatedDate,
		f.CreatedAt, f.UpdatedAt, f.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("company framework %s v%s: %w", f.Name, f.Version, sentinel.ErrConflict)
		}
		return fmt.Errorf("create company framework: %w", err)
	}
	return nil
}

const companyFrameworkColumns = `id, name, full_name, version, template_framework_id, description,
	is_customized, customized_date, activated_date, created_at, updated_at, is_active`

func scanCompanyFramework(row interface{ Scan(...any) error }) (*CompanyFramework, error) {
	var f CompanyFramework
	var fid, tid uuid.UUID
	if err := row.Scan(&fid, &f.Name, &f.FullName, &f.Version, &tid, &f.Description,
		&f.IsCustomized, &f.CustomizedDate, &f.ActivatedDate,
		&f.CreatedAt, &f.UpdatedAt, &f.IsActive); err != nil {
		return nil, err
	}
	f.ID = id.CompanyFrameworkID(fid)
	f.TemplateFrameworkID = id.FrameworkID(tid)
	return &f, nil
}

func (s *PostgresStore) GetFramework(ctx context.Context, fid id.CompanyFrameworkID) (*CompanyFramework, error) {
	db, err := s.router.Read(ctx, router.CompanyFrameworks)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+companyFrameworkColumns+` FROM company_frameworks WHERE id = $1`, uuid.UUID(fid))
	f, err := scanCompanyFramework(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get company framework: %w", err)
	}
	f.Locality, err = s.router.LocalityOf(ctx, router.CompanyFrameworks)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *PostgresStore) GetFrameworkByNameVersion(ctx context.Context, name, version string) (*CompanyFramework, error) {
	db, err := s.router.Read(ctx, router.CompanyFrameworks)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+companyFrameworkColumns+` FROM company_frameworks WHERE name = $1 AND version = $2`,
		name, version)
	f, err := scanCompanyFramework(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get company framework by name/version: %w", err)
	}
	f.Locality, err = s.router.LocalityOf(ctx, router.CompanyFrameworks)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *PostgresStore) ListFrameworks(ctx context.Context) ([]*CompanyFramework, error) {
	db, err := s.router.Read(ctx, router.CompanyFrameworks)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+companyFrameworkColumns+` FROM company_frameworks WHERE is_active = true ORDER BY name, version`)
	if err != nil {
		return nil, fmt.Errorf("list company frameworks: %w", err)
	}
	defer rows.Close()

	loc, err := s.router.LocalityOf(ctx, router.CompanyFrameworks)
	if err != nil {
		return nil, err
	}
	out := make([]*CompanyFramework, 0)
	for rows.Next() {
		f, err := scanCompanyFramework(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company framework: %w", err)
		}
		f.Locality = loc
		out = append(out, f)
	}
	return out, rows.Err()
}

const companyDomainColumns = `id, framework_id, template_domain_id, name, code, description,
	sort_order, is_customized, custom_description, created_at, updated_at, is_active`

func scanCompanyDomain(row interface{ Scan(...any) error }) (*CompanyDomain, error) {
	var d CompanyDomain
	var did, tid uuid.UUID
	var fid uuid.NullUUID
	if err := row.Scan(&did, &fid, &tid, &d.Name, &d.Code, &d.Description,
		&d.SortOrder, &d.IsCustomized, &d.CustomDescription,
		&d.CreatedAt, &d.UpdatedAt, &d.IsActive); err != nil {
		return nil, err
	}
	d.ID = id.CompanyDomainID(did)
	d.FrameworkID = id.CompanyFrameworkID(scanNullUUID(&fid))
	d.TemplateDomainID = id.DomainID(tid)
	return &d, nil
}

func (s *PostgresStore) CreateDomain(ctx context.Context, d *CompanyDomain) error {
	db, err := s.router.Write(ctx, router.CompanyDomains)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO company_domains
			(id, framework_id, template_domain_id, name, code, description,
			 sort_order, is_customized, custom_description, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(d.ID), nullUUID(uuid.UUID(d.FrameworkID)), uuid.UUID(d.TemplateDomainID),
		d.Name, d.Code, d.Description, d.SortOrder, d.IsCustomized, d.CustomDescription,
		d.CreatedAt, d.UpdatedAt, d.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("company domain %s: %w", d.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("create company domain: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDomain(ctx context.Context, d *CompanyDomain) error {
	db, err := s.router.Write(ctx, router.CompanyDomains)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE company_domains
		SET framework_id = $2, name = $3, code = $4, description = $5, sort_order = $6,
		    is_customized = $7, custom_description = $8, updated_at = $9, is_active = $10
		WHERE id = $1`,
		uuid.UUID(d.ID), nullUUID(uuid.UUID(d.FrameworkID)), d.Name, d.Code, d.Description,
		d.SortOrder, d.IsCustomized, d.CustomDescription, d.UpdatedAt, d.IsActive)
	if err != nil {
		return fmt.Errorf("update company domain: %w", err)
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetDomain(ctx context.Context, did id.CompanyDomainID) (*CompanyDomain, error) {
	db, err := s.router.Read(ctx, router.CompanyDomains)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+companyDomainColumns+` FROM company_domains WHERE id = $1`, uuid.UUID(did))
	d, err := scanCompanyDomain(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get company domain: %w", err)
	}
	d.Locality, err = s.router.LocalityOf(ctx, router.CompanyDomains)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *PostgresStore) ListDomains(ctx context.Context, fid id.CompanyFrameworkID) ([]*CompanyDomain, error) {
	db, err := s.router.Read(ctx, router.CompanyDomains)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+companyDomainColumns+` FROM company_domains
		 WHERE framework_id = $1 AND is_active = true ORDER BY sort_order, name`, uuid.UUID(fid))
	if err != nil {
		return nil, fmt.Errorf("list company domains: %w", err)
	}
	defer rows.Close()

	loc, err := s.router.LocalityOf(ctx, router.CompanyDomains)
	if err != nil {
		return nil, err
	}
	out := make([]*CompanyDomain, 0)
	for rows.Next() {
		d, err := scanCompanyDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company domain: %w", err)
		}
		d.Locality = loc
		out = append(out, d)
	}
	return out, rows.Err()
}

const companyCategoryColumns = `id, domain_id, template_category_id, name, code, description,
	sort_order, is_customized, custom_description, created_at, updated_at, is_active`

func scanCompanyCategory(row interface{ Scan(...any) error }) (*CompanyCategory, error) {
	var c CompanyCategory
	var cid, tid uuid.UUID
	var did uuid.NullUUID
	if err := row.Scan(&cid, &did, &tid, &c.Name, &c.Code, &c.Description,
		&c.SortOrder, &c.IsCustomized, &c.CustomDescription,
		&c.CreatedAt, &c.UpdatedAt, &c.IsActive); err != nil {
		return nil, err
	}
	c.ID = id.CompanyCategoryID(cid)
	c.DomainID = id.CompanyDomainID(scanNullUUID(&did))
	c.TemplateCategoryID = id.CategoryID(tid)
	return &c, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c *CompanyCategory) error {
	db, err := s.router.Write(ctx, router.CompanyCategories)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO company_categories
			(id, domain_id, template_category_id, name, code, description,
			 sort_order, is_customized, custom_description, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(c.ID), nullUUID(uuid.UUID(c.DomainID)), uuid.UUID(c.TemplateCategoryID),
		c.Name, c.Code, c.Description, c.SortOrder, c.IsCustomized, c.CustomDescription,
		c.CreatedAt, c.UpdatedAt, c.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("company category %s: %w", c.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("create company category: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c *CompanyCategory) error {
	db, err := s.router.Write(ctx, router.CompanyCategories)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE company_categories
		SET domain_id = $2, name = $3, code = $4, description = $5, sort_order = $6,
		    is_customized = $7, custom_description = $8, updated_at = $9, is_active = $10
		WHERE id = $1`,
		uuid.UUID(c.ID), nullUUID(uuid.UUID(c.DomainID)), c.Name, c.Code, c.Description,
		c.SortOrder, c.IsCustomized, c.CustomDescription, c.UpdatedAt, c.IsActive)
	if err != nil {
		return fmt.Errorf("update company category: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) GetCategory(ctx context.Context, cid id.CompanyCategoryID) (*CompanyCategory, error) {
	db, err := s.router.Read(ctx, router.CompanyCategories)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+companyCategoryColumns+` FROM company_categories WHERE id = $1`, uuid.UUID(cid))
	c, err := scanCompanyCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get company category: %w", err)
	}
	c.Locality, err = s.router.LocalityOf(ctx, router.CompanyCategories)
	if err != nil {
		return nil, err
	}
	return c, nil
}

const companySubcategoryColumns = `id, category_id, template_subcategory_id, name, code, description,
	sort_order, is_customized, custom_description, created_at, updated_at, is_active`

func scanCompanySubcategory(row interface{ Scan(...any) error }) (*CompanySubcategory, error) {
	var sc CompanySubcategory
	var sid, tid uuid.UUID
	var cid uuid.NullUUID
	if err := row.Scan(&sid, &cid, &tid, &sc.Name, &sc.Code, &sc.Description,
		&sc.SortOrder, &sc.IsCustomized, &sc.CustomDescription,
		&sc.CreatedAt, &sc.UpdatedAt, &sc.IsActive); err != nil {
		return nil, err
	}
	sc.ID = id.CompanySubcategoryID(sid)
	sc.CategoryID = id.CompanyCategoryID(scanNullUUID(&cid))
	sc.TemplateSubcategoryID = id.SubcategoryID(tid)
	return &sc, nil
}

func (s *PostgresStore) CreateSubcategory(ctx context.Context, sc *CompanySubcategory) error {
	db, err := s.router.Write(ctx, router.CompanySubcategories)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO company_subcategories
			(id, category_id, template_subcategory_id, name, code, description,
			 sort_order, is_customized, custom_description, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(sc.ID), nullUUID(uuid.UUID(sc.CategoryID)), uuid.UUID(sc.TemplateSubcategoryID),
		sc.Name, sc.Code, sc.Description, sc.SortOrder, sc.IsCustomized, sc.CustomDescription,
		sc.CreatedAt, sc.UpdatedAt, sc.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("company subcategory %s: %w", sc.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("create company subcategory: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateSubcategory(ctx context.Context, sc *CompanySubcategory) error {
	db, err := s.router.Write(ctx, router.CompanySubcategories)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE company_subcategories
		SET category_id = $2, name = $3, code = $4, description = $5, sort_order = $6,
		    is_customized = $7, custom_description = $8, updated_at = $9, is_active = $10
		WHERE id = $1`,
		uuid.UUID(sc.ID), nullUUID(uuid.UUID(sc.CategoryID)), sc.Name, sc.Code, sc.Description,
		sc.SortOrder, sc.IsCustomized, sc.CustomDescription, sc.UpdatedAt, sc.IsActive)
	if err != nil {
		return fmt.Errorf("update company subcategory: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) GetSubcategory(ctx context.Context, sid id.CompanySubcategoryID) (*CompanySubcategory, error) {
	db, err := s.router.Read(ctx, router.CompanySubcategories)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+companySubcategoryColumns+` FROM company_subcategories WHERE id = $1`, uuid.UUID(sid))
	sc, err := scanCompanySubcategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get company subcategory: %w", err)
	}
	sc.Locality, err = s.router.LocalityOf(ctx, router.CompanySubcategories)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

const companyControlColumns = `id, framework_id, subcategory_id, template_control_id, control_code,
	title, description, objective, control_type, frequency, risk_level, is_customized,
	custom_description, custom_objective, custom_questions, sort_order, created_at, updated_at, is_active`

func scanCompanyControl(row interface{ Scan(...any) error }) (*CompanyControl, error) {
	var c CompanyControl
	var cid, fid, tid uuid.UUID
	var scid uuid.NullUUID
	var ctype, freq, risk string
	var questions []byte
	if err := row.Scan(&cid, &fid, &scid, &tid, &c.ControlCode,
		&c.Title, &c.Description, &c.Objective, &ctype, &freq, &risk, &c.IsCustomized,
		&c.CustomDescription, &c.CustomObjective, &questions, &c.SortOrder,
		&c.CreatedAt, &c.UpdatedAt, &c.IsActive); err != nil {
		return nil, err
	}
	c.ID = id.CompanyControlID(cid)
	c.FrameworkID = id.CompanyFrameworkID(fid)
	c.SubcategoryID = id.CompanySubcategoryID(scanNullUUID(&scid))
	c.TemplateControlID = id.ControlID(tid)
	c.ControlType = catalog.ControlType(ctype)
	c.Frequency = catalog.Frequency(freq)
	c.RiskLevel = catalog.RiskLevel(risk)
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &c.CustomQuestions); err != nil {
			return nil, fmt.Errorf("unmarshal custom questions: %w", err)
		}
	}
	return &c, nil
}

func (s *PostgresStore) CreateControl(ctx context.Context, c *CompanyControl) error {
	db, err := s.router.Write(ctx, router.CompanyControls)
	if err != nil {
		return err
	}
	questions, err := json.Marshal(c.CustomQuestions)
	if err != nil {
		return fmt.Errorf("marshal custom questions: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO company_controls
			(id, framework_id, subcategory_id, template_control_id, control_code,
			 title, description, objective, control_type, frequency, risk_level, is_customized,
			 custom_description, custom_objective, custom_questions, sort_order,
			 created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		uuid.UUID(c.ID), uuid.UUID(c.FrameworkID), nullUUID(uuid.UUID(c.SubcategoryID)),
		uuid.UUID(c.TemplateControlID), c.ControlCode, c.Title, c.Description, c.Objective,
		string(c.ControlType), string(c.Frequency), string(c.RiskLevel), c.IsCustomized,
		c.CustomDescription, c.CustomObjective, questions, c.SortOrder,
		c.CreatedAt, c.UpdatedAt, c.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("company control %s: %w", c.ControlCode, sentinel.ErrConflict)
		}
		return fmt.Errorf("create company control: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetControl(ctx context.Context, cid id.CompanyControlID) (*CompanyControl, error) {
	db, err := s.router.Read(ctx, router.CompanyControls)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+companyControlColumns+` FROM company_controls WHERE id = $1`, uuid.UUID(cid))
	c, err := scanCompanyControl(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get company control: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetControlByCode(ctx context.Context, code string) (*CompanyControl, error) {
	db, err := s.router.Read(ctx, router.CompanyControls)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+companyControlColumns+` FROM company_controls WHERE control_code = $1`, code)
	c, err := scanCompanyControl(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get company control by code: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListControlsByFramework(ctx context.Context, fid id.CompanyFrameworkID) ([]*CompanyControl, error) {
	db, err := s.router.Read(ctx, router.CompanyControls)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+companyControlColumns+` FROM company_controls
		 WHERE framework_id = $1 AND is_active = true ORDER BY sort_order, control_code`, uuid.UUID(fid))
	if err != nil {
		return nil, fmt.Errorf("list company controls: %w", err)
	}
	defer rows.Close()

	out := make([]*CompanyControl, 0)
	for rows.Next() {
		c, err := scanCompanyControl(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company control: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const assignmentColumns = `id, control_id, assigned_to_employee_id, assigned_by_employee_id,
	assignment_date, due_date, status, priority, notes, created_at, updated_at, is_active`

func scanAssignment(row interface{ Scan(...any) error }) (*ControlAssignment, error) {
	var a ControlAssignment
	var aid, cid uuid.UUID
	var status, priority string
	if err := row.Scan(&aid, &cid, &a.AssignedToEmployeeID, &a.AssignedByEmployeeID,
		&a.AssignmentDate, &a.DueDate, &status, &priority, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt, &a.IsActive); err != nil {
		return nil, err
	}
	a.ID = id.AssignmentID(aid)
	a.ControlID = id.CompanyControlID(cid)
	a.Status = AssignmentStatus(status)
	a.Priority = Priority(priority)
	return &a, nil
}

func (s *PostgresStore) CreateAssignment(ctx context.Context, a *ControlAssignment) error {
	db, err := s.router.Write(ctx, router.ControlAssignments)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO control_assignments
			(id, control_id, assigned_to_employee_id, assigned_by_employee_id,
			 assignment_date, due_date, status, priority, notes, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(a.ID), uuid.UUID(a.ControlID), a.AssignedToEmployeeID, a.AssignedByEmployeeID,
		a.AssignmentDate, a.DueDate, string(a.Status), string(a.Priority), a.Notes,
		a.CreatedAt, a.UpdatedAt, a.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assignment for control %s employee %d: %w",
				a.ControlID.String(), a.AssignedToEmployeeID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAssignment(ctx context.Context, aid id.AssignmentID) (*ControlAssignment, error) {
	db, err := s.router.Read(ctx, router.ControlAssignments)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM control_assignments WHERE id = $1`, uuid.UUID(aid))
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) UpdateAssignment(ctx context.Context, a *ControlAssignment) error {
	db, err := s.router.Write(ctx, router.ControlAssignments)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE control_assignments
		SET due_date = $2, status = $3, priority = $4, notes = $5, updated_at = $6, is_active = $7
		WHERE id = $1`,
		uuid.UUID(a.ID), a.DueDate, string(a.Status), string(a.Priority), a.Notes,
		a.UpdatedAt, a.IsActive)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) ListAssignmentsByEmployee(ctx context.Context, employeeID int64) ([]*ControlAssignment, error) {
	db, err := s.router.Read(ctx, router.ControlAssignments)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM control_assignments
		 WHERE assigned_to_employee_id = $1 AND is_active = true ORDER BY due_date`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list assignments by employee: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (s *PostgresStore) ListAssignmentsByControl(ctx context.Context, cid id.CompanyControlID) ([]*ControlAssignment, error) {
	db, err := s.router.Read(ctx, router.ControlAssignments)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM control_assignments
		 WHERE control_id = $1 AND is_active = true ORDER BY assignment_date`, uuid.UUID(cid))
	if err != nil {
		return nil, fmt.Errorf("list assignments by control: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func collectAssignments(rows *sql.Rows) ([]*ControlAssignment, error) {
	out := make([]*ControlAssignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, c *AssessmentCampaign) error {
	db, err := s.router.Write(ctx, router.AssessmentCampaigns)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO assessment_campaigns
			(id, campaign_name, framework_id, start_date, end_date, status,
			 created_by_employee_id, description, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(c.ID), c.CampaignName, uuid.UUID(c.FrameworkID), c.StartDate, c.EndDate,
		string(c.Status), c.CreatedByEmployeeID, c.Description, c.CreatedAt, c.UpdatedAt, c.IsActive)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, cid id.CampaignID) (*AssessmentCampaign, error) {
	db, err := s.router.Read(ctx, router.AssessmentCampaigns)
	if err != nil {
		return nil, err
	}
	var c AssessmentCampaign
	var cuid, fuid uuid.UUID
	var status string
	err = db.QueryRowContext(ctx, `
		SELECT id, campaign_name, framework_id, start_date, end_date, status,
		       created_by_employee_id, description, created_at, updated_at, is_active
		FROM assessment_campaigns WHERE id = $1`, uuid.UUID(cid)).
		Scan(&cuid, &c.CampaignName, &fuid, &c.StartDate, &c.EndDate, &status,
			&c.CreatedByEmployeeID, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	c.ID = id.CampaignID(cuid)
	c.FrameworkID = id.CompanyFrameworkID(fuid)
	c.Status = CampaignStatus(status)
	return &c, nil
}

func (s *PostgresStore) CreateResponse(ctx context.Context, r *AssessmentResponse) error {
	db, err := s.router.Write(ctx, router.AssessmentResponses)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO assessment_responses
			(id, assignment_id, campaign_id, question_id, question_text, question_type,
			 answer, answered_by_employee_id, answered_date, confidence_level, comments,
			 created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.UUID(r.ID), uuid.UUID(r.AssignmentID), nullUUID(uuid.UUID(r.CampaignID)),
		uuid.UUID(r.QuestionID), r.QuestionText, string(r.QuestionType),
		r.Answer, r.AnsweredByEmployeeID, r.AnsweredDate, string(r.ConfidenceLevel), r.Comments,
		r.CreatedAt, r.UpdatedAt, r.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("response for question %s on assignment %s: %w",
				r.QuestionID.String(), r.AssignmentID.String(), sentinel.ErrConflict)
		}
		return fmt.Errorf("create response: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResponsesByAssignment(ctx context.Context, aid id.AssignmentID) ([]*AssessmentResponse, error) {
	db, err := s.router.Read(ctx, router.AssessmentResponses)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, assignment_id, campaign_id, question_id, question_text, question_type,
		       answer, answered_by_employee_id, answered_date, confidence_level, comments,
		       created_at, updated_at, is_active
		FROM assessment_responses
		WHERE assignment_id = $1 AND is_active = true ORDER BY answered_date`, uuid.UUID(aid))
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	out := make([]*AssessmentResponse, 0)
	for rows.Next() {
		var r AssessmentResponse
		var rid, auid, quid uuid.UUID
		var cuid uuid.NullUUID
		var qtype, conf string
		if err := rows.Scan(&rid, &auid, &cuid, &quid, &r.QuestionText, &qtype,
			&r.Answer, &r.AnsweredByEmployeeID, &r.AnsweredDate, &conf, &r.Comments,
			&r.CreatedAt, &r.UpdatedAt, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.ID = id.ResponseID(rid)
		r.AssignmentID = id.AssignmentID(auid)
		r.CampaignID = id.CampaignID(scanNullUUID(&cuid))
		r.QuestionID = id.QuestionID(quid)
		r.QuestionType = catalog.QuestionType(qtype)
		r.ConfidenceLevel = ConfidenceLevel(conf)
		out = append(out, &r)
	}
	return out, rows.Err()
}

const evidenceColumns = `id, assignment_id, evidence_requirement_id, document_name, original_filename,
	file_path, file_size_mb, file_type, uploaded_by_employee_id, upload_date, status,
	reviewed_by_employee_id, review_date, review_comments, created_at, updated_at, is_active`

func scanEvidence(row interface{ Scan(...any) error }) (*EvidenceDocument, error) {
	var e EvidenceDocument
	var eid, auid uuid.UUID
	var ruid uuid.NullUUID
	var status string
	var reviewedBy sql.NullInt64
	var reviewDate sql.NullTime
	if err := row.Scan(&eid, &auid, &ruid, &e.DocumentName, &e.OriginalFilename,
		&e.FilePath, &e.FileSizeMB, &e.FileType, &e.UploadedByEmployeeID, &e.UploadDate, &status,
		&reviewedBy, &reviewDate, &e.ReviewComments, &e.CreatedAt, &e.UpdatedAt, &e.IsActive); err != nil {
		return nil, err
	}
	e.ID = id.EvidenceID(eid)
	e.AssignmentID = id.AssignmentID(auid)
	e.EvidenceRequirementID = id.RequirementID(scanNullUUID(&ruid))
	e.Status = EvidenceStatus(status)
	if reviewedBy.Valid {
		e.ReviewedByEmployeeID = reviewedBy.Int64
	}
	if reviewDate.Valid {
		t := reviewDate.Time
		e.ReviewDate = &t
	}
	return &e, nil
}

func (s *PostgresStore) CreateEvidence(ctx context.Context, e *EvidenceDocument) error {
	db, err := s.router.Write(ctx, router.EvidenceDocuments)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO evidence_documents
			(id, assignment_id, evidence_requirement_id, document_name, original_filename,
			 file_path, file_size_mb, file_type, uploaded_by_employee_id, upload_date, status,
			 review_comments, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(e.ID), uuid.UUID(e.AssignmentID), nullUUID(uuid.UUID(e.EvidenceRequirementID)),
		e.DocumentName, e.OriginalFilename, e.FilePath, e.FileSizeMB, e.FileType,
		e.UploadedByEmployeeID, e.UploadDate, string(e.Status), e.ReviewComments,
		e.CreatedAt, e.UpdatedAt, e.IsActive)
	if err != nil {
		return fmt.Errorf("create evidence: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEvidence(ctx context.Context, eid id.EvidenceID) (*EvidenceDocument, error) {
	db, err := s.router.Read(ctx, router.EvidenceDocuments)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+evidenceColumns+` FROM evidence_documents WHERE id = $1`, uuid.UUID(eid))
	e, err := scanEvidence(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) UpdateEvidence(ctx context.Context, e *EvidenceDocument) error {
	db, err := s.router.Write(ctx, router.EvidenceDocuments)
	if err != nil {
		return err
	}
	var reviewedBy any
	if e.ReviewedByEmployeeID != 0 {
		reviewedBy = e.ReviewedByEmployeeID
	}
	var reviewDate any
	if e.ReviewDate != nil {
		reviewDate = *e.ReviewDate
	}
	res, err := db.ExecContext(ctx, `
		UPDATE evidence_documents
		SET status = $2, reviewed_by_employee_id = $3, review_date = $4, review_comments = $5,
		    updated_at = $6, is_active = $7
		WHERE id = $1`,
		uuid.UUID(e.ID), string(e.Status), reviewedBy, reviewDate, e.ReviewComments,
		e.UpdatedAt, e.IsActive)
	if err != nil {
		return fmt.Errorf("update evidence: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) ListEvidenceByAssignment(ctx context.Context, aid id.AssignmentID) ([]*EvidenceDocument, error) {
	db, err := s.router.Read(ctx, router.EvidenceDocuments)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+evidenceColumns+` FROM evidence_documents
		 WHERE assignment_id = $1 AND is_active = true ORDER BY upload_date`, uuid.UUID(aid))
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	out := make([]*EvidenceDocument, 0)
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreatePlan(ctx context.Context, p *RemediationPlan) error {
	db, err := s.router.Write(ctx, router.RemediationPlans)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO remediation_plans
			(id, assignment_id, gap_description, root_cause, remediation_steps,
			 target_completion_date, actual_completion_date, status, priority,
			 created_by_employee_id, assigned_to_employee_id, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.UUID(p.ID), uuid.UUID(p.AssignmentID), p.GapDescription, p.RootCause,
		p.RemediationSteps, p.TargetCompletionDate, p.ActualCompletionDate,
		string(p.Status), string(p.Priority), p.CreatedByEmployeeID, p.AssignedToEmployeeID,
		p.CreatedAt, p.UpdatedAt, p.IsActive)
	if err != nil {
		return fmt.Errorf("create remediation plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPlansByAssignment(ctx context.Context, aid id.AssignmentID) ([]*RemediationPlan, error) {
	db, err := s.router.Read(ctx, router.RemediationPlans)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, assignment_id, gap_description, root_cause, remediation_steps,
		       target_completion_date, actual_completion_date, status, priority,
		       created_by_employee_id, assigned_to_employee_id, created_at, updated_at, is_active
		FROM remediation_plans
		WHERE assignment_id = $1 AND is_active = true ORDER BY created_at`, uuid.UUID(aid))
	if err != nil {
		return nil, fmt.Errorf("list remediation plans: %w", err)
	}
	defer rows.Close()

	out := make([]*RemediationPlan, 0)
	for rows.Next() {
		var p RemediationPlan
		var pid, auid uuid.UUID
		var status, priority string
		var actual sql.NullTime
		if err := rows.Scan(&pid, &auid, &p.GapDescription, &p.RootCause, &p.RemediationSteps,
			&p.TargetCompletionDate, &actual, &status, &priority,
			&p.CreatedByEmployeeID, &p.AssignedToEmployeeID, &p.CreatedAt, &p.UpdatedAt, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan remediation plan: %w", err)
		}
		p.ID = id.PlanID(pid)
		p.AssignmentID = id.AssignmentID(auid)
		p.Status = RemediationStatus(status)
		p.Priority = Priority(priority)
		if actual.Valid {
			t := actual.Time
			p.ActualCompletionDate = &t
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateReport(ctx context.Context, r *ComplianceReport) error {
	db, err := s.router.Write(ctx, router.ComplianceReports)
	if err != nil {
		return err
	}
	data, err := json.Marshal(r.ReportData)
	if err != nil {
		return fmt.Errorf("marshal report data: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO compliance_reports
			(id, report_name, report_type, framework_id, campaign_id, generated_date,
			 generated_by_employee_id, overall_compliance_rate, total_controls,
			 completed_controls, report_data, file_path, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(r.ID), r.ReportName, string(r.ReportType), uuid.UUID(r.FrameworkID),
		nullUUID(uuid.UUID(r.CampaignID)), r.GeneratedDate, r.GeneratedByEmployeeID,
		r.OverallComplianceRate, r.TotalControls, r.CompletedControls, data, r.FilePath,
		r.CreatedAt, r.UpdatedAt, r.IsActive)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListReportsByFramework(ctx context.Context, fid id.CompanyFrameworkID) ([]*ComplianceReport, error) {
	db, err := s.router.Read(ctx, router.ComplianceReports)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, report_name, report_type, framework_id, campaign_id, generated_date,
		       generated_by_employee_id, overall_compliance_rate, total_controls,
		       completed_controls, report_data, file_path, created_at, updated_at, is_active
		FROM compliance_reports
		WHERE framework_id = $1 AND is_active = true ORDER BY generated_date`, uuid.UUID(fid))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := make([]*ComplianceReport, 0)
	for rows.Next() {
		var r ComplianceReport
		var rid, fuid uuid.UUID
		var cuid uuid.NullUUID
		var rtype string
		var data []byte
		if err := rows.Scan(&rid, &r.ReportName, &rtype, &fuid, &cuid, &r.GeneratedDate,
			&r.GeneratedByEmployeeID, &r.OverallComplianceRate, &r.TotalControls,
			&r.CompletedControls, &data, &r.FilePath, &r.CreatedAt, &r.UpdatedAt, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.ID = id.ReportID(rid)
		r.ReportType = ReportType(rtype)
		r.FrameworkID = id.CompanyFrameworkID(fuid)
		r.CampaignID = id.CampaignID(scanNullUUID(&cuid))
		if len(data) > 0 {
			if err := json.Unmarshal(data, &r.ReportData); err != nil {
				return nil, fmt.Errorf("unmarshal report data: %w", err)
			}
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
