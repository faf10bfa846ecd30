package db

import (
	"context"
	"database/sql"

	"qrmenu/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- MENUS ----------------

func (d *DB) CreateMenu(menu *models.Menu) error {
	_, err := d.Bun.NewInsert().Model(menu).Exec(context.Background())
	return err
}

func (d *DB) GetMenuByID(id string) (*models.Menu, error) {
	var menu models.Menu
	err := d.Bun.NewSelect().
		Model(&menu).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (d *DB) ListMenus(restaurantID string) ([]*models.Menu, error) {
	var menus []*models.Menu
	err := d.Bun.NewSelect().
		Model(&menus).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return menus, nil
}

func (d *DB) UpdateMenu(menu models.Menu) error {
	_, err := d.Bun.NewUpdate().
		Model(&menu).
		Column("name", "description", "available_from", "available_until",
			"available_days", "active", "updated_at").
		Where("id = ?", menu.ID).
		Exec(context.Background())
	return err
}

func (d *DB) DeleteMenu(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Menu)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// ---------------- CATEGORIES ----------------

func (d *DB) CreateCategory(category *models.Category) error {
	_, err := d.Bun.NewInsert().Model(category).Exec(context.Background())
	return err
}

func (d *DB) CreateCategories(categories []*models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&categories).Exec(context.Background())
	return err
}

func (d *DB) GetCategoryByID(id string) (*models.Category, error) {
	var category models.Category
	err := d.Bun.NewSelect().
		Model(&category).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns a restaurant's categories ordered for display,
// optionally scoped to one menu and optionally with their items.
func (d *DB) ListCategories(restaurantID, menuID string, includeItems bool) ([]*models.Category, error) {
	var categories []*models.Category
	q := d.Bun.NewSelect().
		Model(&categories).
		Where("\"category\".restaurant_id = ?", restaurantID).
		Order("display_order ASC")
	if menuID != "" {
		q = q.Where("\"category\".menu_id = ?", menuID)
	}
	if includeItems {
		q = q.Relation("Items", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("display_order ASC")
		})
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	return categories, nil
}

func (d *DB) UpdateCategory(category models.Category) error {
	_, err := d.Bun.NewUpdate().
		Model(&category).
		Column("name", "menu_id", "display_order", "active").
		Where("id = ?", category.ID).
		Exec(context.Background())
	return err
}

// DeleteCategory removes a category together with its items and their
// customizations in one transaction.
func (d *DB) DeleteCategory(id string) error {
	ctx := context.Background()
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		itemIDs := tx.NewSelect().
			Column("id").
			Table("menu_items").
			Where("category_id = ?", id)

		catIDs := tx.NewSelect().
			Column("id").
			Table("customization_categories").
			Where("menu_item_id IN (?)", itemIDs)

		if _, err := tx.NewDelete().
			Model((*models.CustomizationOption)(nil)).
			Where("customization_category_id IN (?)", catIDs).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.CustomizationCategory)(nil)).
			Where("menu_item_id IN (?)", itemIDs).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.MenuItem)(nil)).
			Where("category_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.Category)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}

// ---------------- ITEMS ----------------

func (d *DB) CreateItem(item *models.MenuItem) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(context.Background())
	return err
}

func (d *DB) GetItemByID(id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemWithCustomizations loads an item with its full customization tree.
func (d *DB) GetItemWithCustomizations(id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := d.Bun.NewSelect().
		Model(&item).
		Relation("Customizations", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("display_order ASC")
		}).
		Relation("Customizations.Options", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("display_order ASC")
		}).
		Where("\"menu_item\".id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) ListItems(categoryID string) ([]*models.MenuItem, error) {
	var items []*models.MenuItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("category_id = ?", categoryID).
		Order("display_order ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) UpdateItem(item models.MenuItem) error {
	_, err := d.Bun.NewUpdate().
		Model(&item).
		Column("category_id", "name", "description", "price", "available",
			"image_url", "display_order", "customizable", "updated_at").
		Where("id = ?", item.ID).
		Exec(context.Background())
	return err
}

// DeleteItem removes an item and its customization tree.
func (d *DB) DeleteItem(id string) error {
	ctx := context.Background()
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		catIDs := tx.NewSelect().
			Column("id").
			Table("customization_categories").
			Where("menu_item_id = ?", id)

		if _, err := tx.NewDelete().
			Model((*models.CustomizationOption)(nil)).
			Where("customization_category_id IN (?)", catIDs).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.CustomizationCategory)(nil)).
			Where("menu_item_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.MenuItem)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}

// ---------------- DISPLAY ORDER ----------------

// UpdateCategoryOrder persists a batch drag-and-drop reorder of categories.
func (d *DB) UpdateCategoryOrder(updates []models.DisplayOrderUpdate) error {
	ctx := context.Background()
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, u := range updates {
			if _, err := tx.NewUpdate().
				Model((*models.Category)(nil)).
				Set("display_order = ?", u.DisplayOrder).
				Where("id = ?", u.ID).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateItemOrder persists a batch drag-and-drop reorder of items.
func (d *DB) UpdateItemOrder(updates []models.DisplayOrderUpdate) error {
	ctx := context.Background()
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, u := range updates {
			if _, err := tx.NewUpdate().
				Model((*models.MenuItem)(nil)).
				Set("display_order = ?", u.DisplayOrder).
				Where("id = ?", u.ID).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---------------- CUSTOMIZATIONS ----------------

func (d *DB) CreateCustomizationCategory(cat *models.CustomizationCategory) error {
	_, err := d.Bun.NewInsert().Model(cat).Exec(context.Background())
	return err
}

func (d *DB) GetCustomizationCategoryByID(id string) (*models.CustomizationCategory, error) {
	var cat models.CustomizationCategory
	err := d.Bun.NewSelect().
		Model(&cat).
		Relation("Options").
		Where("\"customization_category\".id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (d *DB) UpdateCustomizationCategory(cat models.CustomizationCategory) error {
	_, err := d.Bun.NewUpdate().
		Model(&cat).
		Column("name", "required", "min_selections", "max_selections", "display_order").
		Where("id = ?", cat.ID).
		Exec(context.Background())
	return err
}

func (d *DB) DeleteCustomizationCategory(id string) error {
	ctx := context.Background()
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.CustomizationOption)(nil)).
			Where("customization_category_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.CustomizationCategory)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}

func (d *DB) CreateCustomizationOption(opt *models.CustomizationOption) error {
	_, err := d.Bun.NewInsert().Model(opt).Exec(context.Background())
	return err
}

func (d *DB) UpdateCustomizationOption(opt models.CustomizationOption) error {
	_, err := d.Bun.NewUpdate().
		Model(&opt).
		Column("name", "extra_price", "default_selected", "available", "display_order").
		Where("id = ?", opt.ID).
		Exec(context.Background())
	return err
}

func (d *DB) DeleteCustomizationOption(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.CustomizationOption)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}
