package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// replyError logs the failure then sends the error envelope.
func (api *APIHandler) replyError(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}, err error) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	if status >= http.StatusInternalServerError {
		api.logger.Error(message, zap.String("request.id", requestID), zap.Error(err))
	} else {
		api.logger.Warn(message, zap.String("request.id", requestID), zap.Error(err))
	}
	errResp := NewAPIError(requestID, status, message, data)
	if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// storageFailure maps a service error to its response status.
func storageFailure(err error) (int, string) {
	if errors.Is(err, ErrBookNotFound) {
		return http.StatusNotFound, "book does not exist"
	}
	return http.StatusInternalServerError, ""
}

// CreateBook godoc
//
//	@Summary	Create a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		BookRequest	true	"book to create"
//	@Success	201		{object}	APIResponse{data=BookResponse}
//	@Failure	400		{object}	APIError
//	@Failure	500		{object}	APIError
//	@Router		/ [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var br BookRequest
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	if err := DecodeBookRequestBody(r, &br); err != nil {
		api.replyError(w, r, http.StatusBadRequest, "failed to create the book", err.Error(), err)
		return
	}
	if err := ValidateBookRequestBody(&br); err != nil {
		api.replyError(w, r, http.StatusBadRequest, "failed to create the book", err.Error(), err)
		return
	}

	book, err := api.bookService.Add(r.Context(), br)
	if err != nil {
		api.replyError(w, r, http.StatusInternalServerError, "failed to create the book", EmptyData, err)
		return
	}
	api.logger.Info("success to create book", zap.Int64("book.id", book.ID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusCreated, "Book created successfully.", &book.ID, NewBookResponse(book))
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateBooks godoc
//
//	@Summary	Create many books at once
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		books	body	[]BookRequest	true	"books to create"
//	@Success	201		{array}		BookResponse
//	@Failure	400		{object}	APIError
//	@Failure	500		{object}	APIError
//	@Router		/books/bulk [post]
func (api *APIHandler) CreateBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var brs []BookRequest
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	if err := DecodeBookRequestsBody(r, &brs); err != nil {
		api.replyError(w, r, http.StatusBadRequest, "failed to create the books", err.Error(), err)
		return
	}
	if err := ValidateBookRequestsBody(brs); err != nil {
		api.replyError(w, r, http.StatusBadRequest, "failed to create the books", err.Error(), err)
		return
	}

	books, err := api.bookService.AddMany(r.Context(), brs)
	if err != nil {
		api.replyError(w, r, http.StatusInternalServerError, "failed to create the books", EmptyData, err)
		return
	}
	api.logger.Info("success to create books", zap.Int("books.count", len(books)), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusCreated, NewBookResponses(books)); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllBooks godoc
//
//	@Summary	List all books, newest first
//	@Tags		books
//	@Produce	json
//	@Success	200	{array}		BookResponse
//	@Failure	500	{object}	APIError
//	@Router		/ [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.replyError(w, r, http.StatusInternalServerError, "failed to get all books", EmptyData, err)
		return
	}
	api.logger.Info("success to get all books", zap.Int("books.count", len(books)), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, NewBookResponses(books)); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetOneBook godoc
//
//	@Summary	Get a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		int	true	"book id"
//	@Success	200	{object}	BookResponse
//	@Failure	400	{object}	APIError
//	@Failure	404	{object}	APIError
//	@Failure	500	{object}	APIError
//	@Router		/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, err := ParseBookID(ps)
	if err != nil {
		api.replyError(w, r, http.StatusBadRequest, "book id provided is not valid", ps.ByName("id"), err)
		return
	}
	book, err := api.bookService.GetOne(r.Context(), id)
	if err != nil {
		status, message := storageFailure(err)
		if message == "" {
			message = "failed to get the book"
		}
		api.replyError(w, r, status, message, EmptyData, err)
		return
	}
	api.logger.Info("success to get book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, NewBookResponse(book)); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateBook godoc
//
//	@Summary	Replace the fields of a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int			true	"book id"
//	@Param		book	body		BookRequest	true	"new book fields"
//	@Success	200		{object}	APIResponse{data=BookResponse}
//	@Failure	400		{object}	APIError
//	@Failure	404		{object}	APIError
//	@Failure	500		{object}	APIError
//	@Router		/{id}/edit [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, err := ParseBookID(ps)
	if err != nil {
		api.replyError(w, r, http.StatusBadRequest, "book id provided is not valid", ps.ByName("id"), err)
		return
	}
	var br BookRequest
	if err = DecodeBookRequestBody(r, &br); err != nil {
		api.replyError(w, r, http.StatusBadRequest, "failed to update the book", err.Error(), err)
		return
	}
	if err = ValidateBookRequestBody(&br); err != nil {
		api.replyError(w, r, http.StatusBadRequest, "failed to update the book", err.Error(), err)
		return
	}

	book, err := api.bookService.Update(r.Context(), id, br)
	if err != nil {
		status, message := storageFailure(err)
		if message == "" {
			message = "failed to update the book"
		}
		api.replyError(w, r, status, message, EmptyData, err)
		return
	}
	api.logger.Info("success to update book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book updated successfully.", &book.ID, NewBookResponse(book))
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneBook godoc
//
//	@Summary	Delete a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		int	true	"book id"
//	@Success	200	{object}	APIResponse
//	@Failure	400	{object}	APIError
//	@Failure	404	{object}	APIError
//	@Failure	500	{object}	APIError
//	@Router		/{id}/delete [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, err := ParseBookID(ps)
	if err != nil {
		api.replyError(w, r, http.StatusBadRequest, "book id provided is not valid", ps.ByName("id"), err)
		return
	}

	if err = api.bookService.Delete(r.Context(), id); err != nil {
		status, message := storageFailure(err)
		if message == "" {
			message = "failed to delete the book"
		}
		api.replyError(w, r, status, message, EmptyData, err)
		return
	}
	api.logger.Info("success to delete book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book deleted successfully.", nil, nil)
	resp.Result = "ok"
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
