package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"compliancehub/internal/tenant/router"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

// PostgresStore persists the template catalog. Every method resolves its
// database handle through the entity router, which pins catalog collections
// to the central database no matter what tenant is bound.
type PostgresStore struct {
	router *router.Router
}

// NewPostgresStore constructs a router-backed catalog store.
func NewPostgresStore(r *router.Router) *PostgresStore {
	return &PostgresStore{router: r}
}

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func (s *PostgresStore) CreateFramework(ctx context.Context, f *Framework) error {
	if err := f.Validate(); err != nil {
		return err
	}
	db, err := s.router.Write(ctx, router.Frameworks)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO frameworks
			(id, name, full_name, description, version, effective_date, status,
			 created_at, updated_at, created_by, updated_by, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(f.ID), f.Name, f.FullName, f.Description, f.Version, f.EffectiveDate,
		string(f.Status), f.CreatedAt, f.UpdatedAt, f.CreatedBy, f.UpdatedBy, f.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("framework %s v%s: %w", f.Name, f.Version, sentinel.ErrConflict)
		}
		return fmt.Errorf("create framework: %w", err)
	}
	return nil
}

const frameworkColumns = `id, name, full_name, description, version, effective_date, status,
	created_at, updated_at, created_by, updated_by, is_active`

func scanFramework(row interface{ Scan(...any) error }) (*Framework, error) {
	var f Framework
	var fid uuid.UUID
	var status string
	if err := row.Scan(&fid, &f.Name, &f.FullName, &f.Description, &f.Version,
		&f.EffectiveDate, &status, &f.CreatedAt, &f.UpdatedAt,
		&f.CreatedBy, &f.UpdatedBy, &f.IsActive); err != nil {
		return nil, err
	}
	f.ID = id.FrameworkID(fid)
	f.Status = FrameworkStatus(status)
	return &f, nil
}

func (s *PostgresStore) GetFramework(ctx context.Context, fid id.FrameworkID) (*Framework, error) {
	db, err := s.router.Read(ctx, router.Frameworks)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+frameworkColumns+` FROM frameworks WHERE id = $1`, uuid.UUID(fid))
	f, err := scanFramework(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get framework: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListActiveFrameworks(ctx context.Context, filter []id.FrameworkID) ([]*Framework, error) {
	// nil filter: all active frameworks. Empty non-nil filter: none.
	if filter != nil && len(filter) == 0 {
		return []*Framework{}, nil
	}
	db, err := s.router.Read(ctx, router.Frameworks)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + frameworkColumns + ` FROM frameworks WHERE is_active = true`
	args := []any{}
	if filter != nil {
		ids := make([]uuid.UUID, len(filter))
		for i, fid := range filter {
			ids[i] = uuid.UUID(fid)
		}
		query += ` AND id = ANY($1)`
		args = append(args, pq.Array(ids))
	}
	query += ` ORDER BY name, version`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list frameworks: %w", err)
	}
	defer rows.Close()

	out := make([]*Framework, 0)
	for rows.Next() {
		f, err := scanFramework(rows)
		if err != nil {
			return nil, fmt.Errorf("scan framework: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateDomain(ctx context.Context, d *Domain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	db, err := s.router.Write(ctx, router.Domains)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO domains
			(id, framework_id, name, code, description, sort_order, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(d.ID), uuid.UUID(d.FrameworkID), d.Name, d.Code, d.Description,
		d.SortOrder, d.CreatedAt, d.UpdatedAt, d.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("domain %s: %w", d.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("create domain: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDomains(ctx context.Context, fid id.FrameworkID) ([]*Domain, error) {
	db, err := s.router.Read(ctx, router.Domains)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, framework_id, name, code, description, sort_order, created_at, updated_at, is_active
		FROM domains WHERE framework_id = $1 AND is_active = true
		ORDER BY sort_order, name`, uuid.UUID(fid))
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	out := make([]*Domain, 0)
	for rows.Next() {
		var d Domain
		var did, dfid uuid.UUID
		if err := rows.Scan(&did, &dfid, &d.Name, &d.Code, &d.Description,
			&d.SortOrder, &d.CreatedAt, &d.UpdatedAt, &d.IsActive); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		d.ID = id.DomainID(did)
		d.FrameworkID = id.FrameworkID(dfid)
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c *Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	db, err := s.router.Write(ctx, router.Categories)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO categories
			(id, domain_id, name, code, description, sort_order, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(c.ID), uuid.UUID(c.DomainID), c.Name, c.Code, c.Description,
		c.SortOrder, c.CreatedAt, c.UpdatedAt, c.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %s: %w", c.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCategories(ctx context.Context, did id.DomainID) ([]*Category, error) {
	db, err := s.router.Read(ctx, router.Categories)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, domain_id, name, code, description, sort_order, created_at, updated_at, is_active
		FROM categories WHERE domain_id = $1 AND is_active = true
		ORDER BY sort_order, name`, uuid.UUID(did))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]*Category, 0)
	for rows.Next() {
		var c Category
		var cid, cdid uuid.UUID
		if err := rows.Scan(&cid, &cdid, &c.Name, &c.Code, &c.Description,
			&c.SortOrder, &c.CreatedAt, &c.UpdatedAt, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = id.CategoryID(cid)
		c.DomainID = id.DomainID(cdid)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateSubcategory(ctx context.Context, sc *Subcategory) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	db, err := s.router.Write(ctx, router.Subcategories)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO subcategories
			(id, category_id, name, code, description, sort_order, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(sc.ID), uuid.UUID(sc.CategoryID), sc.Name, sc.Code, sc.Description,
		sc.SortOrder, sc.CreatedAt, sc.UpdatedAt, sc.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("subcategory %s: %w", sc.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("create subcategory: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSubcategories(ctx context.Context, cid id.CategoryID) ([]*Subcategory, error) {
	db, err := s.router.Read(ctx, router.Subcategories)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, category_id, name, code, description, sort_order, created_at, updated_at, is_active
		FROM subcategories WHERE category_id = $1 AND is_active = true
		ORDER BY sort_order, name`, uuid.UUID(cid))
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	out := make([]*Subcategory, 0)
	for rows.Next() {
		var sub Subcategory
		var sid, scid uuid.UUID
		if err := rows.Scan(&sid, &scid, &sub.Name, &sub.Code, &sub.Description,
			&sub.SortOrder, &sub.CreatedAt, &sub.UpdatedAt, &sub.IsActive); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		sub.ID = id.SubcategoryID(sid)
		sub.CategoryID = id.CategoryID(scid)
		out = append(out, &sub)
	}
	return out, rows.Err()
}

const controlColumns = `id, subcategory_id, control_code, title, description, objective,
	control_type, frequency, risk_level, sort_order, created_at, updated_at, is_active`

func scanControl(row interface{ Scan(...any) error }) (*Control, error) {
	var c Control
	var cid, scid uuid.UUID
	var ctype, freq, risk string
	if err := row.Scan(&cid, &scid, &c.ControlCode, &c.Title, &c.Description, &c.Objective,
		&ctype, &freq, &risk, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt, &c.IsActive); err != nil {
		return nil, err
	}
	c.ID = id.ControlID(cid)
	c.SubcategoryID = id.SubcategoryID(scid)
	c.ControlType = ControlType(ctype)
	c.Frequency = Frequency(freq)
	c.RiskLevel = RiskLevel(risk)
	return &c, nil
}

func (s *PostgresStore) CreateControl(ctx context.Context, c *Control) error {
	if err := c.Validate(); err != nil {
		return err
	}
	db, err := s.router.Write(ctx, router.Controls)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO controls
			(id, subcategory_id, control_code, title, description, objective,
			 control_type, frequency, risk_level, sort_order, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(c.ID), uuid.UUID(c.SubcategoryID), c.ControlCode, c.Title, c.Description,
		c.Objective, string(c.ControlType), string(c.Frequency), string(c.RiskLevel),
		c.SortOrder, c.CreatedAt, c.UpdatedAt, c.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("control %s: %w", c.ControlCode, sentinel.ErrConflict)
		}
		return fmt.Errorf("create control: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetControl(ctx context.Context, cid id.ControlID) (*Control, error) {
	db, err := s.router.Read(ctx, router.Controls)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+controlColumns+` FROM controls WHERE id = $1`, uuid.UUID(cid))
	c, err := scanControl(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get control: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListControlsByFramework(ctx context.Context, fid id.FrameworkID) ([]*Control, error) {
	db, err := s.router.Read(ctx, router.Controls)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.subcategory_id, c.control_code, c.title, c.description, c.objective,
		       c.control_type, c.frequency, c.risk_level, c.sort_order, c.created_at, c.updated_at, c.is_active
		FROM controls c
		JOIN subcategories sc ON sc.id = c.subcategory_id
		JOIN categories cat ON cat.id = sc.category_id
		JOIN domains d ON d.id = cat.domain_id
		WHERE d.framework_id = $1 AND c.is_active = true
		ORDER BY c.sort_order, c.control_code`, uuid.UUID(fid))
	if err != nil {
		return nil, fmt.Errorf("list controls by framework: %w", err)
	}
	defer rows.Close()

	out := make([]*Control, 0)
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SearchControls(ctx context.Context, query string) ([]*Control, error) {
	db, err := s.router.Read(ctx, router.Controls)
	if err != nil {
		return nil, err
	}
	pattern := "%" + query + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT `+controlColumns+` FROM controls
		WHERE is_active = true
		  AND (control_code ILIKE $1 OR title ILIKE $1 OR description ILIKE $1)
		ORDER BY control_code`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search controls: %w", err)
	}
	defer rows.Close()

	out := make([]*Control, 0)
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddQuestion(ctx context.Context, q *AssessmentQuestion) error {
	if err := q.Validate(); err != nil {
		return err
	}
	db, err := s.router.Write(ctx, router.AssessmentQuestions)
	if err != nil {
		return err
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal question options: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO assessment_questions
			(id, control_id, question, question_type, options, is_mandatory, sort_order,
			 created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(q.ID), uuid.UUID(q.ControlID), q.Question, string(q.QuestionType),
		options, q.IsMandatory, q.SortOrder, q.CreatedAt, q.UpdatedAt, q.IsActive)
	if err != nil {
		return fmt.Errorf("add question: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, cid id.ControlID) ([]*AssessmentQuestion, error) {
	db, err := s.router.Read(ctx, router.AssessmentQuestions)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, control_id, question, question_type, options, is_mandatory, sort_order,
		       created_at, updated_at, is_active
		FROM assessment_questions WHERE control_id = $1 AND is_active = true
		ORDER BY sort_order`, uuid.UUID(cid))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]*AssessmentQuestion, 0)
	for rows.Next() {
		var q AssessmentQuestion
		var qid, qcid uuid.UUID
		var qtype string
		var options []byte
		if err := rows.Scan(&qid, &qcid, &q.Question, &qtype, &options, &q.IsMandatory,
			&q.SortOrder, &q.CreatedAt, &q.UpdatedAt, &q.IsActive); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.ID = id.QuestionID(qid)
		q.ControlID = id.ControlID(qcid)
		q.QuestionType = QuestionType(qtype)
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("unmarshal question options: %w", err)
			}
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddRequirement(ctx context.Context, r *EvidenceRequirement) error {
	if err := r.Validate(); err != nil {
		return err
	}
	db, err := s.router.Write(ctx, router.EvidenceRequirements)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO evidence_requirements
			(id, control_id, title, description, evidence_type, is_mandatory, file_format,
			 sort_order, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(r.ID), uuid.UUID(r.ControlID), r.Title, r.Description, string(r.EvidenceType),
		r.IsMandatory, r.FileFormat, r.SortOrder, r.CreatedAt, r.UpdatedAt, r.IsActive)
	if err != nil {
		return fmt.Errorf("add evidence requirement: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRequirements(ctx context.Context, cid id.ControlID) ([]*EvidenceRequirement, error) {
	db, err := s.router.Read(ctx, router.EvidenceRequirements)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, control_id, title, description, evidence_type, is_mandatory, file_format,
		       sort_order, created_at, updated_at, is_active
		FROM evidence_requirements WHERE control_id = $1 AND is_active = true
		ORDER BY sort_order`, uuid.UUID(cid))
	if err != nil {
		return nil, fmt.Errorf("list evidence requirements: %w", err)
	}
	defer rows.Close()

	out := make([]*EvidenceRequirement, 0)
	for rows.Next() {
		var r EvidenceRequirement
		var rid, rcid uuid.UUID
		var etype string
		if err := rows.Scan(&rid, &rcid, &r.Title, &r.Description, &etype, &r.IsMandatory,
			&r.FileFormat, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan evidence requirement: %w", err)
		}
		r.ID = id.RequirementID(rid)
		r.ControlID = id.ControlID(rcid)
		r.EvidenceType = EvidenceType(etype)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context, fid id.FrameworkID) (*FrameworkStats, error) {
	db, err := s.router.Read(ctx, router.Frameworks)
	if err != nil {
		return nil, err
	}
	var stats FrameworkStats
	err = db.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM domains d WHERE d.framework_id = $1),
			(SELECT count(*) FROM categories c JOIN domains d ON d.id = c.domain_id WHERE d.framework_id = $1),
			(SELECT count(*) FROM subcategories sc JOIN categories c ON c.id = sc.category_id
				JOIN domains d ON d.id = c.domain_id WHERE d.framework_id = $1),
			(SELECT count(*) FROM controls ct JOIN subcategories sc ON sc.id = ct.subcategory_id
				JOIN categories c ON c.id = sc.category_id
				JOIN domains d ON d.id = c.domain_id WHERE d.framework_id = $1),
			(SELECT count(*) FROM assessment_questions q JOIN controls ct ON ct.id = q.control_id
				JOIN subcategories sc ON sc.id = ct.subcategory_id
				JOIN categories c ON c.id = sc.category_id
				JOIN domains d ON d.id = c.domain_id WHERE d.framework_id = $1),
			(SELECT count(*) FROM evidence_requirements r JOIN controls ct ON ct.id = r.control_id
				JOIN subcategories sc ON sc.id = ct.subcategory_id
				JOIN categories c ON c.id = sc.category_id
				JOIN domains d ON d.id = c.domain_id WHERE d.framework_id = $1)`,
		uuid.UUID(fid)).Scan(&stats.Domains, &stats.Categories, &stats.Subcategories,
		&stats.Controls, &stats.Questions, &stats.Requirements)
	if err != nil {
		return nil, fmt.Errorf("framework stats: %w", err)
	}
	return &stats, nil
}
