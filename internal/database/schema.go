package database

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"
)

// TableStatus reports whether a managed model's table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// SchemaStatus lists every managed table in migration order.
func SchemaStatus(ctx context.Context, db *gorm.DB) ([]TableStatus, error) {
	m := db.WithContext(ctx).Migrator()
	out := make([]TableStatus, 0, len(PersistentModels()))
	for _, model := range PersistentModels() {
		name, err := tableName(db, model)
		if err != nil {
			return nil, err
		}
		out = append(out, TableStatus{Table: name, Exists: m.HasTable(model)})
	}
	return out, nil
}

// Constraint is a named table constraint as reported by PostgreSQL.
type Constraint struct {
	Table      string `gorm:"column:relname"`
	Name       string `gorm:"column:conname"`
	Definition string `gorm:"column:def"`
}

// Constraints lists the constraints of the public schema. PostgreSQL only.
func Constraints(ctx context.Context, db *gorm.DB) ([]Constraint, error) {
	if db.Dialector.Name() != "postgres" {
		return nil, fmt.Errorf("constraint listing requires postgres, got %s", db.Dialector.Name())
	}
	var out []Constraint
	err := db.WithContext(ctx).Raw(`
		SELECT r.relname, c.conname, pg_get_constraintdef(c.oid) AS def
		FROM pg_constraint c
		JOIN pg_class r ON c.conrelid = r.oid
		JOIN pg_namespace n ON n.oid = r.relnamespace
		WHERE n.nspname = 'public'
		ORDER BY r.relname, c.conname`).Scan(&out).Error
	return out, err
}

// Reset drops every managed table, children first.
func Reset(ctx context.Context, db *gorm.DB) error {
	models := slices.Clone(PersistentModels())
	slices.Reverse(models)
	if err := db.WithContext(ctx).Migrator().DropTable(models...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

func tableName(db *gorm.DB, model any) (string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", fmt.Errorf("parse model: %w", err)
	}
	return stmt.Schema.Table, nil
}
