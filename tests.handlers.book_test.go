package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This file contains unit tests for each book api handler.

func readBody(t *testing.T, res *http.Response) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	m := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(data, &m), string(data))
	return m
}

func idParam(id string) httprouter.Params {
	return httprouter.Params{{Key: "id", Value: id}}
}

// TestCreateBookHandler ensures api handler can create a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		AddFunc: func(ctx context.Context, book *Book) error {
			book.ID = 7
			return nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	t.Run("should pass: valid payload", func(t *testing.T) {
		payload := `{"title":"Test book title","author":"Jerome Amon","price":10.5,"qty":2}`
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))

		resultMap := readBody(t, res)
		_, ok := resultMap["requestid"]
		assert.True(t, ok)
		assert.Equal(t, float64(http.StatusCreated), resultMap["status"])
		assert.Equal(t, "Book created successfully.", resultMap["message"])
		assert.Equal(t, float64(7), resultMap["id"])

		bookMap, ok := resultMap["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(7), bookMap["id"])
		assert.Equal(t, "Test book title", bookMap["title"])
		assert.Equal(t, "Jerome Amon", bookMap["author"])
		assert.Equal(t, 10.5, bookMap["price"])
		assert.Equal(t, float64(2), bookMap["qty"])
	})

	t.Run("should pass: client id is ignored and missing fields are null", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"id":999}`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		resultMap := readBody(t, res)
		bookMap := resultMap["data"].(map[string]interface{})
		assert.Equal(t, float64(7), bookMap["id"])
		assert.Nil(t, bookMap["title"])
		assert.Nil(t, bookMap["author"])
		assert.Nil(t, bookMap["price"])
		assert.Equal(t, float64(0), bookMap["qty"])
	})

	t.Run("should fail: invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		resultMap := readBody(t, res)
		assert.Equal(t, "failed to create the book", resultMap["message"])
	})

	t.Run("should fail: negative price", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"price":-1}`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		resultMap := readBody(t, res)
		assert.Equal(t, "price must not be negative", resultMap["data"])
	})

	t.Run("should fail: storage insertion failure", func(t *testing.T) {
		failing := &MockBookStorage{
			AddFunc: func(ctx context.Context, book *Book) error {
				return errors.New("storage failure")
			},
		}
		api := newTestAPIHandler(failing, nil)
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":"x"}`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		resultMap := readBody(t, res)
		assert.Equal(t, "failed to create the book", resultMap["message"])
		assert.NotContains(t, resultMap["data"], "storage failure")
	})
}

func TestCreateBooksHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		AddManyFunc: func(ctx context.Context, books []Book) error {
			for i := range books {
				books[i].ID = int64(i + 1)
			}
			return nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	t.Run("should pass: raw array in input order", func(t *testing.T) {
		payload := `[{"title":"a","qty":1},{"title":"b"}]`
		req := httptest.NewRequest(http.MethodPost, "/books/books/bulk", strings.NewReader(payload))
		w := httptest.NewRecorder()
		api.CreateBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `[
			{"id":1,"title":"a","author":null,"price":null,"qty":1},
			{"id":2,"title":"b","author":null,"price":null,"qty":0}
		]`, string(data))
	})

	t.Run("should fail: empty array", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books/bulk", strings.NewReader(`[]`))
		w := httptest.NewRecorder()
		api.CreateBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: not an array", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books/bulk", strings.NewReader(`{"title":"a"}`))
		w := httptest.NewRecorder()
		api.CreateBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: one invalid element", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books/bulk", strings.NewReader(`[{"qty":1},{"qty":-3}]`))
		w := httptest.NewRecorder()
		api.CreateBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		resultMap := readBody(t, res)
		assert.Equal(t, "book at index 1: qty must not be negative", resultMap["data"])
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		failing := &MockBookStorage{
			AddManyFunc: func(ctx context.Context, books []Book) error {
				return errors.New("unique violation")
			},
		}
		api := newTestAPIHandler(failing, nil)
		req := httptest.NewRequest(http.MethodPost, "/books/bulk", strings.NewReader(`[{"title":"a"}]`))
		w := httptest.NewRecorder()
		api.CreateBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})
}

func TestGetAllBooksHandler(t *testing.T) {
	t.Run("should pass: raw array", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return []Book{{ID: 2, Title: strPtr("new")}, {ID: 1, Title: strPtr("old"), Qty: 4}}, nil
			},
		}
		api := newTestAPIHandler(mockRepo, nil)
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `[
			{"id":2,"title":"new","author":null,"price":null,"qty":0},
			{"id":1,"title":"old","author":null,"price":null,"qty":4}
		]`, string(data))
	})

	t.Run("should pass: empty array", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, nil
			},
		}
		api := newTestAPIHandler(mockRepo, nil)
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(data))
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, errors.New("timeout")
			},
		}
		api := newTestAPIHandler(mockRepo, nil)
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})
}

func TestGetOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id int64) (Book, error) {
			switch id {
			case 1:
				return Book{ID: 1, Title: strPtr("found"), Price: floatPtr(3)}, nil
			case 2:
				return Book{}, errors.New("broken pipe")
			}
			return Book{}, ErrBookNotFound
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	testCases := []struct {
		name   string
		id     string
		status int
	}{
		{"should pass: existing book", "1", http.StatusOK},
		{"should fail: storage failure", "2", http.StatusInternalServerError},
		{"should fail: unknown book", "3", http.StatusNotFound},
		{"should fail: non numeric id", "abc", http.StatusBadRequest},
		{"should fail: negative id", "-1", http.StatusBadRequest},
		{"should fail: zero id", "0", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/books/"+tc.id, nil)
			w := httptest.NewRecorder()
			api.GetOneBook(w, req, idParam(tc.id))
			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode)
			assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
		})
	}

	t.Run("should pass: raw object", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books/1", nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, idParam("1"))
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1,"title":"found","author":null,"price":3,"qty":0}`, string(data))
	})

	t.Run("should fail: not found envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books/3", nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, idParam("3"))
		res := w.Result()
		defer res.Body.Close()
		resultMap := readBody(t, res)
		assert.Equal(t, "book does not exist", resultMap["message"])
		assert.Equal(t, float64(http.StatusNotFound), resultMap["status"])
	})
}

func TestUpdateBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		UpdateFunc: func(ctx context.Context, id int64, br BookRequest) (Book, error) {
			if id != 1 {
				return Book{}, ErrBookNotFound
			}
			book := Book{ID: id}
			br.ApplyTo(&book)
			return book, nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	t.Run("should pass: fields replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/books/1/edit", strings.NewReader(`{"title":"new","qty":5}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, idParam("1"))
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		resultMap := readBody(t, res)
		assert.Equal(t, "Book updated successfully.", resultMap["message"])
		assert.Equal(t, float64(1), resultMap["id"])
		bookMap := resultMap["data"].(map[string]interface{})
		assert.Equal(t, "new", bookMap["title"])
		assert.Equal(t, float64(5), bookMap["qty"])
		assert.Nil(t, bookMap["author"])
	})

	t.Run("should fail: unknown book", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/books/9/edit", strings.NewReader(`{"title":"new"}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, idParam("9"))
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("should fail: invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/books/x/edit", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, idParam("x"))
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/books/1/edit", nil)
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, idParam("1"))
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: negative qty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/books/1/edit", strings.NewReader(`{"qty":-2}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, idParam("1"))
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestDeleteOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		DeleteFunc: func(ctx context.Context, id int64) error {
			switch id {
			case 1:
				return nil
			case 2:
				return errors.New("disk full")
			}
			return ErrBookNotFound
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	t.Run("should pass: existing book", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/books/1/delete", nil)
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, req, idParam("1"))
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		resultMap := readBody(t, res)
		assert.Equal(t, "ok", resultMap["result"])
		assert.Equal(t, "Book deleted successfully.", resultMap["message"])
	})

	t.Run("should fail: unknown book", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/books/5/delete", nil)
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, req, idParam("5"))
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/books/2/delete", nil)
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, req, idParam("2"))
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})
}
