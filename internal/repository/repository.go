// Package repository provides a uniform set of database operations over any
// entity collection, backed by gorm. Entity services embed a Repository for
// their model type instead of talking to gorm directly.
//
// Reads and updates exclude soft-deleted rows unless the caller's filter
// constrains the status column itself. Deletes are physical. Errors from the
// driver are propagated unchanged; mapping to client-facing codes happens at
// the handler layer.
package repository

import (
	"context"

	"github.com/MailPilot/MP-Backend/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLimit bounds list queries when the caller does not set a limit.
const DefaultLimit = 10

// DefaultSort orders listings newest-first.
const DefaultSort = "created_at DESC"

// Entity is implemented by every persisted model.
type Entity interface {
	PrimaryKey() uuid.UUID
}

// ListOptions tunes list-style queries. Zero values fall back to
// DefaultLimit / DefaultSort with no field selection or preloads.
type ListOptions struct {
	Limit    int
	Sort     string
	Fields   []string
	Preloads []string
}

func (o ListOptions) apply(tx *gorm.DB) *gorm.DB {
	limit := o.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	sort := o.Sort
	if sort == "" {
		sort = DefaultSort
	}
	tx = tx.Order(sort).Limit(limit)
	if len(o.Fields) > 0 {
		tx = tx.Select(o.Fields)
	}
	for _, p := range o.Preloads {
		tx = tx.Preload(p)
	}
	return tx
}

// UpdateResult reports the outcome of a bulk update.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matched_count"`
	ModifiedCount int64 `json:"modified_count"`
}

// DeleteResult reports the outcome of a bulk delete.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deleted_count"`
}

// Repository performs CRUD, pagination and preloading for one entity type.
type Repository[T Entity] struct {
	db *gorm.DB
}

// New creates a repository bound to the given gorm handle.
func New[T Entity](gdb *gorm.DB) *Repository[T] {
	return &Repository[T]{db: gdb}
}

// WithTx derives a repository that runs inside the given transaction. The
// receiver is unchanged, so a base repository can serve concurrent requests
// while individual operations join transactions.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx}
}

// Save inserts one entity and backfills generated fields on it.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// SaveMany bulk-inserts entities and returns the generated ids in input
// order.
func (r *Repository[T]) SaveMany(ctx context.Context, entities []*T) ([]uuid.UUID, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).Create(entities).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(entities))
	for i, e := range entities {
		ids[i] = (*e).PrimaryKey()
	}
	return ids, nil
}

// UpdateOrCreateNew applies the update to the row matching the filter,
// inserting a new row built from filter plus update when none matches.
// Returns the resulting row.
func (r *Repository[T]) UpdateOrCreateNew(ctx context.Context, f Filter, update map[string]any) (*T, error) {
	var out T
	tx := applyFilter(r.db.WithContext(ctx), f)
	if err := tx.Assign(update).FirstOrCreate(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Count returns the number of non-deleted rows matching the filter.
func (r *Repository[T]) Count(ctx context.Context, f Filter) (int64, error) {
	var count int64
	tx := applyFilter(r.db.WithContext(ctx).Model(new(T)), f)
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Find returns a bounded list of rows matching the filter.
func (r *Repository[T]) Find(ctx context.Context, f Filter, opts ListOptions) ([]T, error) {
	var out []T
	tx := opts.apply(applyFilter(r.db.WithContext(ctx), f))
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindAndPopulate is Find with the named associations preloaded.
func (r *Repository[T]) FindAndPopulate(ctx context.Context, f Filter, preloads []string, opts ListOptions) ([]T, error) {
	opts.Preloads = append(opts.Preloads, preloads...)
	return r.Find(ctx, f, opts)
}

// FindDeleted lists only soft-deleted rows matching the filter.
func (r *Repository[T]) FindDeleted(ctx context.Context, f Filter, sort string) ([]T, error) {
	if sort == "" {
		sort = DefaultSort
	}
	var out []T
	tx := applyRawFilter(r.db.WithContext(ctx), f).
		Where("status = ?", db.StatusDeleted).
		Order(sort)
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Paginate returns one page of rows plus pagination metadata.
func (r *Repository[T]) Paginate(ctx context.Context, f Filter, perPage, page int, opts ListOptions) (*Page[T], error) {
	if perPage < 1 {
		perPage = DefaultLimit
	}
	if page < 1 {
		page = 1
	}

	total, err := r.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	opts.Limit = perPage
	var rows []T
	tx := opts.apply(applyFilter(r.db.WithContext(ctx), f)).
		Offset((page - 1) * perPage)
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	return &Page[T]{Data: rows, Paginator: NewPaginator(total, perPage, page)}, nil
}

// PaginateAndPopulate is Paginate with the named associations preloaded.
func (r *Repository[T]) PaginateAndPopulate(ctx context.Context, f Filter, perPage, page int, preloads []string, opts ListOptions) (*Page[T], error) {
	opts.Preloads = append(opts.Preloads, preloads...)
	return r.Paginate(ctx, f, perPage, page, opts)
}

// FindByID fetches a row by primary key. No soft-delete guard applies to id
// lookups.
func (r *Repository[T]) FindByID(ctx context.Context, id uuid.UUID, fields ...string) (*T, error) {
	var out T
	tx := r.db.WithContext(ctx)
	if len(fields) > 0 {
		tx = tx.Select(fields)
	}
	if err := tx.First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByIDAndPopulate is FindByID with the named associations preloaded.
func (r *Repository[T]) FindByIDAndPopulate(ctx context.Context, id uuid.UUID, preloads []string, fields ...string) (*T, error) {
	var out T
	tx := r.db.WithContext(ctx)
	for _, p := range preloads {
		tx = tx.Preload(p)
	}
	if len(fields) > 0 {
		tx = tx.Select(fields)
	}
	if err := tx.First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// FindOne fetches the first non-deleted row matching the filter.
// gorm.ErrRecordNotFound is returned when nothing matches.
func (r *Repository[T]) FindOne(ctx context.Context, f Filter, fields ...string) (*T, error) {
	var out T
	tx := applyFilter(r.db.WithContext(ctx), f)
	if len(fields) > 0 {
		tx = tx.Select(fields)
	}
	if err := tx.First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// FindOneAndPopulate is FindOne with the named associations preloaded.
func (r *Repository[T]) FindOneAndPopulate(ctx context.Context, f Filter, preloads []string, fields ...string) (*T, error) {
	var out T
	tx := applyFilter(r.db.WithContext(ctx), f)
	for _, p := range preloads {
		tx = tx.Preload(p)
	}
	if len(fields) > 0 {
		tx = tx.Select(fields)
	}
	if err := tx.First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateByID applies the update to the row with the given id and returns the
// row as it stands after the update.
func (r *Repository[T]) UpdateByID(ctx context.Context, id uuid.UUID, update map[string]any) (*T, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(new(T)).Where("id = ?", id).Updates(update).Error; err != nil {
		return nil, err
	}
	var out T
	if err := tx.First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOne applies the update to the first non-deleted row matching the
// filter and returns the updated row. The match and update are a single
// statement, so a concurrent writer cannot slip between them.
func (r *Repository[T]) UpdateOne(ctx context.Context, f Filter, update map[string]any) (*T, error) {
	sub := applyFilter(r.db.WithContext(ctx).Model(new(T)), f).
		Select("id").
		Limit(1)

	var out T
	res := r.db.WithContext(ctx).Model(&out).
		Clauses(clause.Returning{}).
		Where("id = (?)", sub).
		Updates(update)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out, nil
}

// UpdateMany applies the update to every non-deleted row matching the filter.
func (r *Repository[T]) UpdateMany(ctx context.Context, f Filter, update map[string]any) (UpdateResult, error) {
	tx := applyFilter(r.db.WithContext(ctx).Model(new(T)), f)
	res := tx.Updates(update)
	if res.Error != nil {
		return UpdateResult{}, res.Error
	}
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.RowsAffected,
		ModifiedCount: res.RowsAffected,
	}, nil
}

// DeleteMany physically removes every row matching the filter, deleted or
// not.
func (r *Repository[T]) DeleteMany(ctx context.Context, f Filter) (DeleteResult, error) {
	res := applyRawFilter(r.db.WithContext(ctx), f).Delete(new(T))
	if res.Error != nil {
		return DeleteResult{}, res.Error
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.RowsAffected}, nil
}

// DeleteOne physically removes the first row matching the filter and returns
// it.
func (r *Repository[T]) DeleteOne(ctx context.Context, f Filter) (*T, error) {
	var out T
	tx := r.db.WithContext(ctx)
	if err := applyRawFilter(tx, f).First(&out).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteByID physically removes the row with the given id and returns it.
func (r *Repository[T]) DeleteByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var out T
	tx := r.db.WithContext(ctx)
	if err := tx.First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
