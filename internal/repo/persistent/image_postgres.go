package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"snapvault/internal/entity"
	"snapvault/pkg/postgres"
	"snapvault/pkg/types/errs"
)

const (
	// Table
	imagesTable = "images"

	// Columns
	idColumn               = "id"
	ownerIDColumn          = "owner_id"
	originalFilenameColumn = "original_filename"
	storageKeyColumn       = "storage_key"
	mimeTypeColumn         = "mime_type"
	sizeColumn             = "file_size"
	contentHashColumn      = "content_hash"
	widthColumn            = "width"
	heightColumn           = "height"
	statusColumn           = "status"
	createdAtColumn        = "created_at"

	// unique_violation, https://www.postgresql.org/docs/current/errcodes-appendix.html
	pgUniqueViolation = "23505"
)

var imageColumns = []string{
	idColumn,
	ownerIDColumn,
	originalFilenameColumn,
	storageKeyColumn,
	mimeTypeColumn,
	sizeColumn,
	contentHashColumn,
	widthColumn,
	heightColumn,
	statusColumn,
	createdAtColumn,
}

type ImageMetadataRepo struct {
	*postgres.Postgres
}

func NewImageMetadataRepo(pg *postgres.Postgres) *ImageMetadataRepo {
	return &ImageMetadataRepo{pg}
}

// Create inserts a new pending record. Losing the (owner_id, content_hash)
// uniqueness race is an expected outcome under concurrent duplicate commits
// and is reported as errs.ErrDuplicateImage, not as a generic failure.
func (r *ImageMetadataRepo) Create(ctx context.Context, image *entity.Image) error {
	sql, args, err := r.Builder.
		Insert(imagesTable).
		Columns(imageColumns...).
		Values(
			image.ID,
			image.OwnerID,
			image.OriginalFilename,
			image.StorageKey,
			image.MimeType,
			image.Size,
			image.ContentHash,
			image.Width,
			image.Height,
			image.Status,
			image.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("ImageMetadataRepo - Create: %w", errs.ErrDuplicateImage)
		}
		return fmt.Errorf("ImageMetadataRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *ImageMetadataRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	return r.scanOne(ctx, "GetByID", sql, args)
}

func (r *ImageMetadataRepo) GetByOwnerAndHash(ctx context.Context, ownerID uuid.UUID, contentHash string) (*entity.Image, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.And{
			squirrel.Eq{ownerIDColumn: ownerID},
			squirrel.Eq{contentHashColumn: contentHash},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - GetByOwnerAndHash - r.Builder.ToSql: %w", err)
	}

	return r.scanOne(ctx, "GetByOwnerAndHash", sql, args)
}

func (r *ImageMetadataRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entity.Image, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.Eq{ownerIDColumn: ownerID}).
		OrderBy(createdAtColumn + " DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - ListByOwner - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - ListByOwner - executor.Query: %w", err)
	}
	defer rows.Close()

	var images []*entity.Image
	for rows.Next() {
		var image entity.Image
		if err := scanImage(rows, &image); err != nil {
			return nil, fmt.Errorf("ImageMetadataRepo - ListByOwner - rows.Scan: %w", err)
		}
		images = append(images, &image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - ListByOwner - rows.Err: %w", err)
	}

	return images, nil
}

func (r *ImageMetadataRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	sql, args, err := r.Builder.
		Select("COUNT(*)").
		From(imagesTable).
		Where(squirrel.Eq{ownerIDColumn: ownerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ImageMetadataRepo - CountByOwner - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var count int
	err = executor.QueryRow(ctx, sql, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ImageMetadataRepo - CountByOwner - executor.QueryRow.Scan: %w", err)
	}

	return count, nil
}

// MarkReady is gated on status = pending so it cannot resurrect a deleted
// record or clobber a terminal one. Dimensions and canonical mime/size land
// in the same statement as the transition.
func (r *ImageMetadataRepo) MarkReady(ctx context.Context, id uuid.UUID, mimeType string, size int64, width, height int) error {
	sql, args, err := r.Builder.
		Update(imagesTable).
		Set(mimeTypeColumn, mimeType).
		Set(sizeColumn, size).
		Set(widthColumn, width).
		Set(heightColumn, height).
		Set(statusColumn, entity.Ready).
		Where(squirrel.And{
			squirrel.Eq{idColumn: id},
			squirrel.Eq{statusColumn: entity.Pending},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - MarkReady - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - MarkReady - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ImageMetadataRepo - MarkReady: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ImageMetadataRepo) MarkFailedIfNotReady(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Update(imagesTable).
		Set(statusColumn, entity.Failed).
		Where(squirrel.And{
			squirrel.Eq{idColumn: id},
			squirrel.NotEq{statusColumn: entity.Ready},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - MarkFailedIfNotReady - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	// zero affected rows is fine: the record is ready or already gone
	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - MarkFailedIfNotReady - executor.Exec: %w", err)
	}

	return nil
}

func (r *ImageMetadataRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ImageMetadataRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ImageMetadataRepo) scanOne(ctx context.Context, method, sql string, args []any) (*entity.Image, error) {
	executor := r.GetExecutor(ctx)

	var image entity.Image
	err := scanImage(executor.QueryRow(ctx, sql, args...), &image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ImageMetadataRepo - %s: %w", method, errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ImageMetadataRepo - %s - executor.QueryRow.Scan: %w", method, err)
	}

	return &image, nil
}

func scanImage(row pgx.Row, image *entity.Image) error {
	return row.Scan(
		&image.ID,
		&image.OwnerID,
		&image.OriginalFilename,
		&image.StorageKey,
		&image.MimeType,
		&image.Size,
		&image.ContentHash,
		&image.Width,
		&image.Height,
		&image.Status,
		&image.CreatedAt,
	)
}
