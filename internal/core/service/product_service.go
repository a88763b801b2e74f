package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// MaxImageSize caps product image uploads.
const MaxImageSize = 5 << 20

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	ImageURL    string
	ImagePath   string
	Price       decimal.Decimal
	Available   bool
	CategoryID  *string
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("product name is required: %w", domain.ErrValidation)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("product price must be positive, got %s: %w", in.Price, domain.ErrValidation)
	}
	return nil
}

// ProductService is the seller-facing side of the catalog.
type ProductService struct {
	stores  port.Stores
	blobs   port.BlobStorage
	catalog *CatalogService
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewProductService(stores port.Stores, blobs port.BlobStorage, catalog *CatalogService, log logrus.FieldLogger) *ProductService {
	return &ProductService{stores: stores, blobs: blobs, catalog: catalog, log: log, now: time.Now}
}

func (s *ProductService) Create(ctx context.Context, actor domain.Actor, in ProductInput) (domain.Product, error) {
	if err := Require(actor, CanManageProducts, "create product"); err != nil {
		return domain.Product{}, err
	}
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ImagePath:   in.ImagePath,
		Price:       in.Price,
		Available:   in.Available,
		CategoryID:  in.CategoryID,
		CreatedAt:   s.now(),
	}
	if err := s.stores.Products.Insert(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.catalog.Invalidate()

	s.log.WithFields(logrus.Fields{"product_id": p.ID, "actor": actor.ProfileID}).Info("product created")
	return p, nil
}

// Update replaces the editable fields. Existing order lines keep the price
// they were bought at.
func (s *ProductService) Update(ctx context.Context, actor domain.Actor, id string, in ProductInput) (domain.Product, error) {
	if err := Require(actor, CanManageProducts, "update product"); err != nil {
		return domain.Product{}, err
	}
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}

	p, err := s.stores.Products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return domain.Product{}, err
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.ImageURL = in.ImageURL
	p.ImagePath = in.ImagePath
	p.Price = in.Price
	p.Available = in.Available
	p.CategoryID = in.CategoryID
	if err := s.stores.Products.Update(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	s.catalog.Invalidate()
	return p, nil
}

// Delete refuses products that appear on any order; mark those unavailable
// instead. Cart lines pointing at the product are dropped along with it.
func (s *ProductService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := Require(actor, CanManageProducts, "delete product"); err != nil {
		return err
	}

	p, err := s.stores.Products.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("product %s: %w", id, err)
	}

	ordered, err := s.stores.OrderItems.FindWhere(ctx, port.Where{"product_id": id})
	if err != nil {
		return fmt.Errorf("check order history: %w", err)
	}
	if len(ordered) > 0 {
		return fmt.Errorf("product %s has been ordered: %w", id, domain.ErrConflict)
	}

	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.stores.CartItems.DeleteWhere(ctx, port.Where{"product_id": id}); err != nil {
			return err
		}
		return s.stores.Products.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.catalog.Invalidate()

	if p.ImagePath != "" {
		if err := s.blobs.Delete(ctx, p.ImagePath); err != nil {
			s.log.WithError(err).WithField("path", p.ImagePath).Warn("orphaned product image")
		}
	}
	return nil
}

// UploadImage stores an image for later use as a product's ImageURL. An
// empty name gets a generated one.
func (s *ProductService) UploadImage(ctx context.Context, actor domain.Actor, name, contentType string, r io.Reader) (port.BlobObject, error) {
	if err := Require(actor, CanManageProducts, "upload image"); err != nil {
		return port.BlobObject{}, err
	}
	if !slices.Contains(allowedImageTypes, contentType) {
		return port.BlobObject{}, fmt.Errorf("file type %q is not allowed, use one of %s: %w",
			contentType, strings.Join(allowedImageTypes, ", "), domain.ErrValidation)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return port.BlobObject{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return port.BlobObject{}, fmt.Errorf("image exceeds %d MB: %w", MaxImageSize>>20, domain.ErrValidation)
	}

	if name == "" {
		name = fmt.Sprintf("product_%d_%s%s", s.now().UnixMilli(), uuid.NewString()[:8], imageExt(contentType))
	}
	obj, err := s.blobs.Upload(ctx, path.Base(name), contentType, bytes.NewReader(data))
	if err != nil {
		return port.BlobObject{}, fmt.Errorf("upload image: %w", err)
	}

	s.log.WithFields(logrus.Fields{"path": obj.Path, "bytes": len(data)}).Info("image uploaded")
	return obj, nil
}

func (s *ProductService) DeleteImage(ctx context.Context, actor domain.Actor, imagePath string) error {
	if err := Require(actor, CanManageProducts, "delete image"); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, imagePath); err != nil {
		return fmt.Errorf("delete image %s: %w", imagePath, err)
	}
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.stores.Categories.FindByID(ctx, *id); err != nil {
		return fmt.Errorf("category %s: %w", *id, err)
	}
	return nil
}

func imageExt(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
