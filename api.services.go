package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, br BookRequest) (Book, error)
	AddMany(ctx context.Context, brs []BookRequest) ([]Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id int64, br BookRequest) (Book, error)
	Delete(ctx context.Context, id int64) error
}

// BookService runs book operations against the storage. Storage failures
// other than a missing record come back as *OperationError.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	storage BookStorage
}

func NewBookService(logger *zap.Logger, config *Config, storage BookStorage) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		storage: storage,
	}
}

func (bs *BookService) Add(ctx context.Context, br BookRequest) (Book, error) {
	book := br.ToBook()
	if err := bs.storage.Add(ctx, &book); err != nil {
		return Book{}, bs.failure(ctx, OpCreate, err)
	}
	return book, nil
}

func (bs *BookService) AddMany(ctx context.Context, brs []BookRequest) ([]Book, error) {
	books := make([]Book, 0, len(brs))
	for _, br := range brs {
		books = append(books, br.ToBook())
	}
	if err := bs.storage.AddMany(ctx, books); err != nil {
		return nil, bs.failure(ctx, OpBulkCreate, err)
	}
	return books, nil
}

func (bs *BookService) GetOne(ctx context.Context, id int64) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	if err != nil {
		return Book{}, bs.failure(ctx, OpGet, err)
	}
	return book, nil
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return nil, bs.failure(ctx, OpList, err)
	}
	return books, nil
}

func (bs *BookService) Update(ctx context.Context, id int64, br BookRequest) (Book, error) {
	book, err := bs.storage.Update(ctx, id, br)
	if err != nil {
		return Book{}, bs.failure(ctx, OpUpdate, err)
	}
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, id int64) error {
	if err := bs.storage.Delete(ctx, id); err != nil {
		return bs.failure(ctx, OpDelete, err)
	}
	return nil
}

// failure keeps ErrBookNotFound as is and wraps anything else.
func (bs *BookService) failure(ctx context.Context, op string, err error) error {
	if errors.Is(err, ErrBookNotFound) {
		return ErrBookNotFound
	}
	bs.logger.Error("service: storage operation failed",
		zap.String("request.id", GetValueFromContext(ctx, ContextRequestID)),
		zap.String("op", op),
		zap.Error(err),
	)
	return &OperationError{Op: op, Err: err}
}
