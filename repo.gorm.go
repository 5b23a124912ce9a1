package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type gormBookStorage struct {
	logger *zap.Logger
	db     *Database
}

// NewGormBookStorage provides an instance of relational book storage. Each
// call runs in its own scoped session so a failure always rolls back.
func NewGormBookStorage(logger *zap.Logger, db *Database) BookStorage {
	return &gormBookStorage{
		logger: logger,
		db:     db,
	}
}

// Add inserts a new book record and sets its storage assigned id.
func (gs *gormBookStorage) Add(ctx context.Context, book *Book) error {
	return gs.db.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Create(book).Error
	})
}

// AddMany inserts all books in a single transaction. Either every record
// is stored, each with its id set in input order, or none is.
func (gs *gormBookStorage) AddMany(ctx context.Context, books []Book) error {
	if len(books) == 0 {
		return nil
	}
	return gs.db.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.CreateInBatches(&books, gs.db.BulkBatchSize()).Error
	})
}

// GetOne retrieves a book record based on its ID.
func (gs *gormBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	var book Book
	err := gs.db.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Take(&book, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// GetAll retrieves all books, newest first.
func (gs *gormBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	books := []Book{}
	err := gs.db.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Order("id DESC").Find(&books).Error
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Update replaces the title, author, price and qty of an existing book.
// It never inserts: a row removed after the read fails with ErrBookNotFound.
func (gs *gormBookStorage) Update(ctx context.Context, id int64, br BookRequest) (Book, error) {
	var book Book
	err := gs.db.WithSession(ctx, func(tx *gorm.DB) error {
		if err := tx.Take(&book, id).Error; err != nil {
			return err
		}
		br.ApplyTo(&book)
		result := tx.Model(&book).Select("title", "author", "price", "qty").Updates(&book)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// Delete removes a book record based on its ID.
func (gs *gormBookStorage) Delete(ctx context.Context, id int64) error {
	return gs.db.WithSession(ctx, func(tx *gorm.DB) error {
		result := tx.Delete(&Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}
		return nil
	})
}
