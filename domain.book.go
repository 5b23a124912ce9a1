package main

import "context"

// Book represents the persisted book record. All fields but the id
// are nullable except qty which defaults to 0.
type Book struct {
	ID     int64    `gorm:"primaryKey"`
	Title  *string  `gorm:"column:title"`
	Author *string  `gorm:"column:author"`
	Price  *float64 `gorm:"column:price"`
	Qty    int      `gorm:"column:qty;not null;default:0"`
}

// TableName pins the table name used by the ORM.
func (Book) TableName() string {
	return "books"
}

// BookRequest is the payload accepted on book creation and update.
// Any client supplied id is ignored since the field does not exist.
type BookRequest struct {
	Title  *string  `json:"title" example:"The Go Programming Language"`
	Author *string  `json:"author" example:"Alan Donovan"`
	Price  *float64 `json:"price" example:"39.99"`
	Qty    *int     `json:"qty" example:"3"`
}

// BookResponse is the data model of a book sent to clients.
type BookResponse struct {
	ID     int64    `json:"id" example:"1"`
	Title  *string  `json:"title" example:"The Go Programming Language"`
	Author *string  `json:"author" example:"Alan Donovan"`
	Price  *float64 `json:"price" example:"39.99"`
	Qty    int      `json:"qty" example:"3"`
}

// ToBook builds a new record from the payload. The id is left to the storage.
func (br BookRequest) ToBook() Book {
	var book Book
	br.ApplyTo(&book)
	return book
}

// ApplyTo replaces the four mutable fields of the book with the payload
// values. A missing qty is stored as 0.
func (br BookRequest) ApplyTo(book *Book) {
	book.Title = br.Title
	book.Author = br.Author
	book.Price = br.Price
	book.Qty = 0
	if br.Qty != nil {
		book.Qty = *br.Qty
	}
}

// NewBookResponse maps a persisted book to its client representation.
func NewBookResponse(book Book) BookResponse {
	return BookResponse{
		ID:     book.ID,
		Title:  book.Title,
		Author: book.Author,
		Price:  book.Price,
		Qty:    book.Qty,
	}
}

// NewBookResponses maps a list of persisted books and always
// returns a non-nil slice so it encodes as a json array.
func NewBookResponses(books []Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, NewBookResponse(b))
	}
	return out
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, book *Book) error
	AddMany(ctx context.Context, books []Book) error
	GetOne(ctx context.Context, id int64) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id int64, br BookRequest) (Book, error)
	Delete(ctx context.Context, id int64) error
}
